package codec

import (
	"image"
	"io"
)

// Encoder writes an image in one output format.
type Encoder interface {
	// Format returns the format name (e.g. "jpeg", "webp", "png").
	Format() string

	// Extensions lists the lower-case file extensions, without dot, that
	// select this encoder.
	Extensions() []string

	// Encode writes img to w. quality is 1-100 or core.CompressionUnset;
	// lossless formats ignore it.
	Encode(w io.Writer, img image.Image, quality int) error
}

// DefaultQuality is used when no compression was configured.
const DefaultQuality = 90

func effectiveQuality(q int) int {
	if q <= 0 || q > 100 {
		return DefaultQuality
	}
	return q
}
