package imgproc

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// Rotate turns img clockwise by angle degrees. Multiples of 90 are exact.
func Rotate(img image.Image, angle int) image.Image {
	switch ((angle % 360) + 360) % 360 {
	case 0:
		return img
	case 90:
		return imaging.Rotate270(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate90(img)
	default:
		return imaging.Rotate(img, float64(-angle), color.Transparent)
	}
}

// Mirror flips img horizontally and/or vertically.
func Mirror(img image.Image, horizontal, vertical bool) image.Image {
	if horizontal {
		img = imaging.FlipH(img)
	}
	if vertical {
		img = imaging.FlipV(img)
	}
	return img
}

// Crop cuts rect out of img. It returns nil if rect misses the image.
func Crop(img image.Image, rect image.Rectangle) image.Image {
	r := rect.Intersect(img.Bounds())
	if r.Empty() {
		return nil
	}
	return imaging.Crop(img, r)
}
