package plugin

import (
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/manifest"
)

// ManifestWriter describes every output of a run in a JSON manifest
// written next to the first output.
type ManifestWriter struct {
	fs afero.Fs

	mu   sync.Mutex
	last string
}

func NewManifestWriter(fs afero.Fs) *ManifestWriter { return &ManifestWriter{fs: fs} }

func (m *ManifestWriter) Name() string          { return ManifestName }
func (m *ManifestWriter) Kind() core.PluginKind { return core.PluginBatch }
func (m *ManifestWriter) ConcurrentSafe() bool  { return false }
func (m *ManifestWriter) PreLoad() error        { return nil }
func (m *ManifestWriter) Actions() []string     { return []string{"Write"} }

func (m *ManifestWriter) Run(_ string, img core.Image, si core.SaveInfo) (core.Image, any, error) {
	asset := manifest.Describe(img.Pixels)
	asset.Input = si.InputPath
	asset.Output = si.OutputPath
	asset.Format = img.Format
	return img, asset, nil
}

// PostLoad writes the manifest for the outputs that exist on disk. Files
// that were not saved (failed, or 'Do not Save') are left out.
func (m *ManifestWriter) PostLoad(runID string, infos []core.SideInfo) {
	var assets []manifest.Asset
	for _, in := range infos {
		asset, ok := in.Data.(manifest.Asset)
		if !ok {
			continue
		}
		st, err := m.fs.Stat(asset.Output)
		if err != nil || st.IsDir() {
			continue
		}
		asset.Size = st.Size()
		assets = append(assets, asset)
	}
	if len(assets) == 0 {
		if len(infos) > 0 {
			log.WithField("run", runID).Info("manifest skipped: no output was written")
		}
		return
	}

	base := filepath.Dir(assets[0].Output)
	man := manifest.New(base)
	for _, asset := range assets {
		key, err := filepath.Rel(base, asset.Output)
		if err != nil {
			key = asset.Output
		}
		man.Assets[filepath.ToSlash(key)] = asset
	}

	path := filepath.Join(base, manifest.FileName)
	logger := log.WithFields(log.Fields{"run": runID, "path": path})
	if err := manifest.WriteJSON(m.fs, man, path); err != nil {
		logger.Errorf("manifest: %v", err)
		return
	}
	logger.Infof("manifest written (%d assets)", man.Stats.TotalAssets)

	m.mu.Lock()
	m.last = path
	m.mu.Unlock()
}

// LastPath returns where the last manifest was written.
func (m *ManifestWriter) LastPath() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.last
}
