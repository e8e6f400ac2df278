package core

// Codec turns files into Images and back.
type Codec interface {
	// Decode reads and decodes the file at path.
	Decode(path string) (Image, error)
	// Encode writes img to path in the format implied by its extension.
	// compression is a 0-100 quality or CompressionUnset. A failed Encode
	// must not leave a partial file behind.
	Encode(img Image, path string, compression int) error
}

// PluginKind distinguishes plugins that only transform pixels from those
// that also report side info for run-level aggregation.
type PluginKind int

const (
	PluginInvalid PluginKind = iota
	PluginSimple
	PluginBatch
)

func (k PluginKind) String() string {
	switch k {
	case PluginSimple:
		return "simple"
	case PluginBatch:
		return "batch"
	default:
		return "invalid"
	}
}

// Plugin is a loaded plugin handle. One handle serves every file of a run.
type Plugin interface {
	Name() string
	Kind() PluginKind
	// ConcurrentSafe reports whether Run may be called from several
	// goroutines at once.
	ConcurrentSafe() bool
	// PreLoad runs once per batch before any file is processed.
	PreLoad() error
	// Run applies action runID to img. Batch plugins may return side info;
	// simple plugins return nil.
	Run(runID string, img Image, si SaveInfo) (Image, any, error)
	// PostLoad runs once per batch with the side info of runID.
	PostLoad(runID string, infos []SideInfo)
}

// PluginHost resolves stored "pluginName | actionName" identifiers.
type PluginHost interface {
	Resolve(id string) (Plugin, string, error)
}
