// Package profile stores batch configurations as named INI files.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// Ext is the profile file extension, without dot.
const Ext = "pnm"

// DefaultDir returns <user config dir>/imgbatch/Profiles.
func DefaultDir() string {
	base, err := os.UserConfigDir()
	if err != nil {
		base = os.TempDir()
	}
	return filepath.Join(base, "imgbatch", "Profiles")
}

// Dir is a directory of profiles.
type Dir struct {
	path string
	host core.PluginHost
}

// NewDir returns the profile directory at path, or DefaultDir if path is
// empty. host resolves plugins of loaded plugin chains.
func NewDir(path string, host core.PluginHost) *Dir {
	if path == "" {
		path = DefaultDir()
	}
	return &Dir{path: path, host: host}
}

func (d *Dir) Path() string { return d.path }

// PathFor maps a profile name to its file. Anything that already looks
// like a path is returned unchanged.
func (d *Dir) PathFor(name string) string {
	if strings.ContainsRune(name, os.PathSeparator) || strings.HasSuffix(name, "."+Ext) {
		return name
	}
	return filepath.Join(d.path, name+"."+Ext)
}

// Names lists the profiles in the directory by user-friendly name, sorted.
// A missing directory holds no profiles.
func (d *Dir) Names() ([]string, error) {
	entries, err := os.ReadDir(d.path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list profiles: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), "."+Ext) {
			continue
		}
		names = append(names, UserFriendly(e.Name()))
	}
	sort.Strings(names)
	return names, nil
}

// Load reads the profile called name (or at path name).
func (d *Dir) Load(name string) batch.Config { return Load(d.PathFor(name), d.host) }

// Save writes cfg under name, creating the directory if needed.
func (d *Dir) Save(name string, cfg batch.Config) (string, error) {
	path := d.PathFor(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create profile dir: %w", err)
	}
	return path, Save(path, cfg)
}

// UserFriendly strips directory and extension from a profile path.
func UserFriendly(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// Load reads a profile file. An unreadable file yields an empty config;
// callers check Config.IsEmpty or Config.IsOk.
func Load(path string, host core.PluginHost) batch.Config {
	st, err := os.Stat(path)
	if err != nil || st.IsDir() {
		log.WithField("path", path).Info("cannot read profile")
		return batch.Config{}
	}

	store, err := settings.OpenINI(path)
	if err != nil {
		log.WithField("path", path).Warnf("profile: %v", err)
		return batch.Config{}
	}
	return batch.LoadSettings(store, host)
}

// Save replaces the file at path with cfg.
func Save(path string, cfg batch.Config) error {
	store := settings.NewINIStore(path)
	store.Clear()
	cfg.SaveSettings(store)
	return store.Save()
}
