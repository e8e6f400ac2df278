// Package codec reads and writes image files on an afero filesystem.
package codec

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/metadata"
)

// ErrUnsupportedFormat is returned when no encoder matches the output extension.
var ErrUnsupportedFormat = errors.New("unsupported output format")

// FileCodec implements core.Codec on top of an afero filesystem.
type FileCodec struct {
	fs       afero.Fs
	registry *Registry
}

// New returns a codec backed by fs with every built-in encoder.
func New(fs afero.Fs) *FileCodec {
	return &FileCodec{fs: fs, registry: NewRegistry()}
}

// Registry exposes the encoder registry, e.g. for listing formats.
func (c *FileCodec) Registry() *Registry { return c.registry }

// Decode reads path and decodes it. Metadata crop rectangles are attached
// when the file carries one.
func (c *FileCodec) Decode(path string) (core.Image, error) {
	data, err := afero.ReadFile(c.fs, path)
	if err != nil {
		return core.Image{}, fmt.Errorf("read %s: %w", path, err)
	}

	px, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return core.Image{}, fmt.Errorf("decode %s: %w", path, err)
	}

	img := core.Image{Pixels: px, Format: format}
	if format == "jpeg" || format == "tiff" {
		info, err := metadata.Read(bytes.NewReader(data))
		if err != nil {
			log.WithField("path", path).Debugf("exif: %v", err)
		}
		img.CropRect = info.CropRect
	}
	return img, nil
}

// Encode writes img to path. The whole file is encoded in memory first so
// an encoder error never leaves a truncated output behind.
func (c *FileCodec) Encode(img core.Image, path string, compression int) error {
	if !img.HasContent() {
		return fmt.Errorf("encode %s: empty image", path)
	}
	enc := c.registry.ForPath(path)
	if enc == nil {
		return fmt.Errorf("encode %s: %w", path, ErrUnsupportedFormat)
	}

	var buf bytes.Buffer
	buf.Grow(256 * 1024)
	if err := enc.Encode(&buf, img.Pixels, compression); err != nil {
		return fmt.Errorf("encode %s as %s: %w", path, enc.Format(), err)
	}

	if err := afero.WriteFile(c.fs, path, buf.Bytes(), 0o644); err != nil {
		_ = c.fs.Remove(path)
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
