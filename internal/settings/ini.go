package settings

import (
	"fmt"

	"gopkg.in/ini.v1"
)

// Values hold ';'-joined path lists and may end in a backslash, so inline
// comments and line continuation are disabled.
var iniOptions = ini.LoadOptions{
	IgnoreInlineComment: true,
	IgnoreContinuation:  true,
}

// INIStore is a Store backed by an INI file, one section per group.
type INIStore struct {
	file *ini.File
	path string
}

// NewINIStore returns an empty store that will be written to path.
func NewINIStore(path string) *INIStore {
	return &INIStore{file: ini.Empty(iniOptions), path: path}
}

// OpenINI loads the INI file at path.
func OpenINI(path string) (*INIStore, error) {
	f, err := ini.LoadSources(iniOptions, path)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return &INIStore{file: f, path: path}, nil
}

func (s *INIStore) Get(group, key string) (string, bool) {
	sec, err := s.file.GetSection(group)
	if err != nil || !sec.HasKey(key) {
		return "", false
	}
	return sec.Key(key).String(), true
}

func (s *INIStore) Set(group, key, value string) {
	s.file.Section(group).Key(key).SetValue(value)
}

func (s *INIStore) Groups() []string {
	var out []string
	for _, name := range s.file.SectionStrings() {
		if name == ini.DefaultSection {
			continue
		}
		out = append(out, name)
	}
	return out
}

func (s *INIStore) Clear() {
	s.file = ini.Empty(iniOptions)
}

// Save writes the store to its path.
func (s *INIStore) Save() error {
	if err := s.file.SaveTo(s.path); err != nil {
		return fmt.Errorf("save %s: %w", s.path, err)
	}
	return nil
}
