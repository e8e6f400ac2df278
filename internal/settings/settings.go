// Package settings is the grouped key/value store profiles are persisted in.
package settings

import (
	"strconv"
	"strings"
)

// Store is a key/value store organised in named groups. Groups keep the
// order in which they were first written.
type Store interface {
	Get(group, key string) (string, bool)
	Set(group, key, value string)
	Groups() []string
	Clear()
}

// SubGroup names a group nested below parent, e.g. "PluginBatch/Adjust".
func SubGroup(parent, child string) string { return parent + "/" + child }

// IsSubGroup reports whether name was built with SubGroup.
func IsSubGroup(name string) bool { return strings.Contains(name, "/") }

func String(s Store, group, key, def string) string {
	if v, ok := s.Get(group, key); ok {
		return v
	}
	return def
}

func Int(s Store, group, key string, def int) int {
	v, ok := s.Get(group, key)
	if !ok {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return n
}

func Float(s Store, group, key string, def float64) float64 {
	v, ok := s.Get(group, key)
	if !ok {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func Bool(s Store, group, key string, def bool) bool {
	v, ok := s.Get(group, key)
	if !ok {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		return def
	}
	return b
}

func SetInt(s Store, group, key string, v int) { s.Set(group, key, strconv.Itoa(v)) }

func SetFloat(s Store, group, key string, v float64) {
	s.Set(group, key, strconv.FormatFloat(v, 'g', -1, 64))
}

func SetBool(s Store, group, key string, v bool) { s.Set(group, key, strconv.FormatBool(v)) }

// List splits a ';'-joined value, dropping empty entries.
func List(s Store, group, key string) []string {
	v, ok := s.Get(group, key)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range strings.Split(v, ";") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func SetList(s Store, group, key string, items []string) {
	s.Set(group, key, strings.Join(items, ";"))
}

// MemStore is an in-memory Store.
type MemStore struct {
	order  []string
	groups map[string]map[string]string
}

func NewMemStore() *MemStore {
	return &MemStore{groups: make(map[string]map[string]string)}
}

func (m *MemStore) Get(group, key string) (string, bool) {
	v, ok := m.groups[group][key]
	return v, ok
}

func (m *MemStore) Set(group, key, value string) {
	g, ok := m.groups[group]
	if !ok {
		g = make(map[string]string)
		m.groups[group] = g
		m.order = append(m.order, group)
	}
	g[key] = value
}

func (m *MemStore) Groups() []string {
	out := make([]string, len(m.order))
	copy(out, m.order)
	return out
}

func (m *MemStore) Clear() {
	m.order = nil
	m.groups = make(map[string]map[string]string)
}
