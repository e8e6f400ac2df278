// Package plugin is the in-process plugin host. Plugins are registered by
// name and addressed by "<plugin> | <action>" identifiers.
package plugin

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/AnyUserName/imgbatch/internal/core"
)

var (
	ErrPluginNotFound = errors.New("plugin not found")
	ErrBadPluginID    = errors.New("malformed plugin id")
)

const idSeparator = " | "

// Plugin is a core.Plugin that lists the actions it offers.
type Plugin interface {
	core.Plugin
	Actions() []string
}

// Creator builds a fresh plugin instance.
type Creator func() Plugin

// Host creates plugin instances by name. Every Resolve returns a new
// instance, so plugin state loaded from one profile stays with the chain
// that loaded it.
type Host struct {
	mu       sync.Mutex
	creators map[string]Creator
}

// NewHost returns a host without plugins.
func NewHost() *Host {
	return &Host{creators: make(map[string]Creator)}
}

// Register adds a plugin creator under name.
func (h *Host) Register(name string, c Creator) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.creators[name] = c
}

// FormatID joins plugin and action names.
func FormatID(plugin, action string) string { return plugin + idSeparator + action }

// ParseID splits "plugin | action". Whitespace around both parts is ignored.
func ParseID(id string) (string, string, error) {
	name, action, ok := strings.Cut(id, "|")
	name, action = strings.TrimSpace(name), strings.TrimSpace(action)
	if !ok || name == "" || action == "" {
		return "", "", fmt.Errorf("%w: %q", ErrBadPluginID, id)
	}
	return name, action, nil
}

// Resolve returns a new instance of the plugin for id and the run id of
// its action.
func (h *Host) Resolve(id string) (core.Plugin, string, error) {
	name, action, err := ParseID(id)
	if err != nil {
		return nil, "", err
	}

	p, err := h.load(name)
	if err != nil {
		return nil, "", err
	}
	for _, a := range p.Actions() {
		if a == action {
			return p, FormatID(name, action), nil
		}
	}
	return nil, "", fmt.Errorf("%w: %s has no action %q", ErrPluginNotFound, name, action)
}

func (h *Host) load(name string) (Plugin, error) {
	h.mu.Lock()
	c, ok := h.creators[name]
	h.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
	}
	return c(), nil
}

// IDs lists every available "plugin | action", sorted.
func (h *Host) IDs() []string {
	h.mu.Lock()
	names := make([]string, 0, len(h.creators))
	for n := range h.creators {
		names = append(names, n)
	}
	h.mu.Unlock()

	var ids []string
	for _, n := range names {
		p, err := h.load(n)
		if err != nil {
			continue
		}
		for _, a := range p.Actions() {
			ids = append(ids, FormatID(n, a))
		}
	}
	sort.Strings(ids)
	return ids
}

// actionOf returns the action part of a run id.
func actionOf(runID string) string {
	_, action, err := ParseID(runID)
	if err != nil {
		return runID
	}
	return action
}
