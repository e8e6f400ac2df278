package codec

import (
	"image"
	"image/gif"
	"image/jpeg"
	"image/png"
	"io"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

type jpegEncoder struct{}

func (jpegEncoder) Format() string       { return "jpeg" }
func (jpegEncoder) Extensions() []string { return []string{"jpg", "jpeg", "jpe"} }

func (jpegEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	return jpeg.Encode(w, img, &jpeg.Options{Quality: effectiveQuality(quality)})
}

type pngEncoder struct{}

func (pngEncoder) Format() string       { return "png" }
func (pngEncoder) Extensions() []string { return []string{"png"} }

// Encode maps higher quality to faster, larger output.
func (pngEncoder) Encode(w io.Writer, img image.Image, quality int) error {
	level := png.DefaultCompression
	switch {
	case quality < 0:
	case quality <= 33:
		level = png.BestCompression
	case quality >= 90:
		level = png.BestSpeed
	}
	enc := &png.Encoder{CompressionLevel: level}
	return enc.Encode(w, img)
}

type gifEncoder struct{}

func (gifEncoder) Format() string       { return "gif" }
func (gifEncoder) Extensions() []string { return []string{"gif"} }

func (gifEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return gif.Encode(w, img, &gif.Options{NumColors: 256})
}

type bmpEncoder struct{}

func (bmpEncoder) Format() string       { return "bmp" }
func (bmpEncoder) Extensions() []string { return []string{"bmp"} }

func (bmpEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return bmp.Encode(w, img)
}

type tiffEncoder struct{}

func (tiffEncoder) Format() string       { return "tiff" }
func (tiffEncoder) Extensions() []string { return []string{"tif", "tiff"} }

func (tiffEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return tiff.Encode(w, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
}

// webpEncoder is lossless; quality is ignored.
type webpEncoder struct{}

func (webpEncoder) Format() string       { return "webp" }
func (webpEncoder) Extensions() []string { return []string{"webp"} }

func (webpEncoder) Encode(w io.Writer, img image.Image, _ int) error {
	return nativewebp.Encode(w, img, nil)
}
