package manifest

import (
	"encoding/json"
	"time"

	"github.com/spf13/afero"
)

// New creates an empty manifest with defaults.
func New(basePath string) *Manifest {
	return &Manifest{
		Version:     SupportedManifestVersion,
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Generator:   "imgbatch",
		BasePath:    basePath,
		Assets:      make(map[string]Asset),
	}
}

// ComputeStats recalculates aggregate statistics from assets.
func (m *Manifest) ComputeStats() {
	var s Stats
	s.TotalAssets = len(m.Assets)
	for _, a := range m.Assets {
		s.TotalOutputBytes += a.Size
		if a.Size == 0 {
			s.Missing++
		}
	}
	m.Stats = s
}

// WriteJSON serializes the manifest to path with stable ordering.
func WriteJSON(fs afero.Fs, m *Manifest, path string) error {
	m.ComputeStats()

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return afero.WriteFile(fs, path, data, 0o644)
}

// ReadJSON loads a manifest written by WriteJSON.
func ReadJSON(fs afero.Fs, path string) (*Manifest, error) {
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
