// Package core holds the value types shared by the batch pipeline and the
// collaborators it drives (codec, plugin host).
package core

import (
	"fmt"
	"image"
	"sync/atomic"
	"time"

	"github.com/AnyUserName/imgbatch/internal/hasher"
)

// OverwriteMode selects what happens when an output file already exists.
type OverwriteMode int

const (
	SkipExisting OverwriteMode = iota
	Overwrite
	DoNotSaveOutput
)

func (m OverwriteMode) String() string {
	switch m {
	case Overwrite:
		return "overwrite"
	case DoNotSaveOutput:
		return "do-not-save"
	default:
		return "skip-existing"
	}
}

// CompressionUnset leaves the encoder at its default quality.
const CompressionUnset = -1

// SaveInfo is the per-file save policy. It is copied into every
// FileProcessor and only mutated by the processor that owns the copy.
type SaveInfo struct {
	InputPath           string
	OutputPath          string
	Mode                OverwriteMode
	DeleteOriginal      bool
	InputDirIsOutputDir bool
	Compression         int

	// BackupPath is non-empty only while an existing output has been moved
	// aside and has not yet been deleted or restored.
	BackupPath string
}

// DefaultSaveInfo returns the policy used when nothing was configured.
func DefaultSaveInfo() SaveInfo {
	return SaveInfo{Mode: SkipExisting, Compression: CompressionUnset}
}

var backupSeq atomic.Int64

// CreateBackupPath derives a fresh backup path from the output path and
// stores it in BackupPath.
func (s *SaveInfo) CreateBackupPath() string {
	seed := fmt.Sprintf("%s|%d|%d", s.OutputPath, time.Now().UnixNano(), backupSeq.Add(1))
	s.BackupPath = s.OutputPath + "." + hasher.ContentHash([]byte(seed), 8) + ".bak"
	return s.BackupPath
}

// ClearBackupPath forgets the backup path once it was deleted or restored.
func (s *SaveInfo) ClearBackupPath() { s.BackupPath = "" }

// Image is the in-memory picture threaded through a pipeline. Steps never
// mutate Pixels in place; they return a new Image.
type Image struct {
	Pixels image.Image
	// CropRect is a crop rectangle stored in the file's metadata, empty if none.
	CropRect image.Rectangle
	// Format is the codec name the image was decoded from.
	Format string
}

// HasContent reports whether the image carries any pixels.
func (i Image) HasContent() bool {
	return i.Pixels != nil && !i.Pixels.Bounds().Empty()
}

// Size returns width and height, zero for an empty image.
func (i Image) Size() (int, int) {
	if i.Pixels == nil {
		return 0, 0
	}
	b := i.Pixels.Bounds()
	return b.Dx(), b.Dy()
}

// WithPixels returns a copy of i carrying px. Metadata follows the pixels.
func (i Image) WithPixels(px image.Image) Image {
	i.Pixels = px
	return i
}

// SideInfo is opaque per-file data emitted by a batch-capable plugin and
// handed back to it once the whole run has finished.
type SideInfo struct {
	RunID      string
	InputPath  string
	OutputPath string
	Data       any
}

// FilterSideInfo returns the entries that belong to runID.
func FilterSideInfo(infos []SideInfo, runID string) []SideInfo {
	var out []SideInfo
	for _, in := range infos {
		if in.RunID == runID {
			out = append(out, in)
		}
	}
	return out
}

// Log is an ordered list of human-readable lines describing what happened
// to one file.
type Log struct {
	lines []string
}

func (l *Log) Add(line string) { l.lines = append(l.lines, line) }

func (l *Log) Addf(format string, args ...any) {
	l.lines = append(l.lines, fmt.Sprintf(format, args...))
}

// Lines returns a copy of the collected lines.
func (l *Log) Lines() []string {
	out := make([]string, len(l.lines))
	copy(out, l.lines)
	return out
}

func (l *Log) Len() int { return len(l.lines) }
