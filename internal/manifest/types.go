package manifest

// Manifest describes the files a batch run wrote.
type Manifest struct {
	Version     int              `json:"version"`
	GeneratedAt string           `json:"generated_at"`
	Generator   string           `json:"generator"`
	BasePath    string           `json:"base_path"`
	Assets      map[string]Asset `json:"assets"`
	Stats       Stats            `json:"stats"`
}

// Asset is one output file, keyed by its path relative to BasePath.
type Asset struct {
	Input       string    `json:"input"`
	Output      string    `json:"output"`
	Width       int       `json:"width"`
	Height      int       `json:"height"`
	Format      string    `json:"format"` // codec the input was decoded with
	HasAlpha    bool      `json:"has_alpha"`
	AspectRatio float64   `json:"aspect_ratio"`        // width / height
	AvgColor    *[3]uint8 `json:"avg_color,omitempty"` // [R,G,B] 0-255
	Hash        string    `json:"hash"`                // first 16 hex chars of xxhash64 over pixels
	Size        int64     `json:"size"`                // bytes on disk, 0 if not written
}

// Stats aggregates run metrics.
type Stats struct {
	TotalAssets      int   `json:"total_assets"`
	TotalOutputBytes int64 `json:"total_output_bytes"`
	Missing          int   `json:"missing,omitempty"` // assets whose output was not written
}

// SupportedManifestVersion is the current schema version.
const SupportedManifestVersion = 1

// FileName is the manifest's name inside the output directory.
const FileName = "imgbatch.manifest.json"
