package plugin

import "github.com/spf13/afero"

// Names of the built-in plugins.
const (
	AdjustName   = "Adjust"
	MetadataName = "Metadata"
	ManifestName = "Manifest"
)

// NewBuiltinHost returns a host with every built-in plugin registered.
// fs is used by plugins that read inputs or write reports.
func NewBuiltinHost(fs afero.Fs) *Host {
	h := NewHost()
	h.Register(AdjustName, func() Plugin { return NewAdjust() })
	h.Register(MetadataName, func() Plugin { return NewCameraSummary(fs) })
	h.Register(ManifestName, func() Plugin { return NewManifestWriter(fs) })
	return h
}
