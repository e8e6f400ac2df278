// Package imgproc holds the pure pixel operations used by pipeline steps.
package imgproc

import (
	"image"
	"math"
	"sync"

	"github.com/disintegration/imaging"
	xdraw "golang.org/x/image/draw"
)

// Interpolation selects the resampling filter. The numeric values are
// persisted in profiles.
type Interpolation int

const (
	Nearest Interpolation = iota
	Area
	Linear
	Cubic
	Lanczos
)

func (ip Interpolation) String() string {
	switch ip {
	case Nearest:
		return "nearest"
	case Area:
		return "area"
	case Linear:
		return "linear"
	case Cubic:
		return "cubic"
	case Lanczos:
		return "lanczos"
	default:
		return "unknown"
	}
}

// ParseInterpolation maps a name back to its Interpolation, defaulting to Area.
func ParseInterpolation(name string) Interpolation {
	for ip := Nearest; ip <= Lanczos; ip++ {
		if ip.String() == name {
			return ip
		}
	}
	return Area
}

func (ip Interpolation) filter() imaging.ResampleFilter {
	switch ip {
	case Nearest:
		return imaging.NearestNeighbor
	case Linear:
		return imaging.Linear
	case Cubic:
		return imaging.CatmullRom
	case Lanczos:
		return imaging.Lanczos
	default:
		return imaging.Box
	}
}

func (ip Interpolation) interpolator() xdraw.Interpolator {
	switch ip {
	case Nearest:
		return xdraw.NearestNeighbor
	case Linear:
		return xdraw.BiLinear
	case Cubic:
		return xdraw.CatmullRom
	case Lanczos:
		return lanczos3
	default:
		return boxKernel
	}
}

var (
	boxKernel = &xdraw.Kernel{Support: 0.5, At: func(float64) float64 { return 1 }}
	lanczos3  = &xdraw.Kernel{Support: 3, At: func(t float64) float64 {
		if t == 0 {
			return 1
		}
		if t <= -3 || t >= 3 {
			return 0
		}
		pt := math.Pi * t
		return 3 * math.Sin(pt) * math.Sin(pt/3) / (pt * pt)
	}}
)

// Resize scales img to w x h. With correctGamma the image is resampled in
// linear light on 16-bit channels so averaging does not darken it. It
// returns nil when the target size is empty.
func Resize(img image.Image, w, h int, ip Interpolation, correctGamma bool) *image.NRGBA {
	if img == nil || w < 1 || h < 1 || img.Bounds().Empty() {
		return nil
	}
	if !correctGamma {
		return imaging.Resize(img, w, h, ip.filter())
	}

	lin := toLinear(imaging.Clone(img))
	dst := image.NewNRGBA64(image.Rect(0, 0, w, h))
	ip.interpolator().Scale(dst, dst.Bounds(), lin, lin.Bounds(), xdraw.Src, nil)
	return toGamma(dst)
}

var (
	tablesOnce  sync.Once
	gammaToLin  [1 << 16]uint16
	linToGamma8 [1 << 16]uint8
)

// sRGB transfer curves.
func initTables() {
	const a = 0.055
	for i := range gammaToLin {
		v := float64(i) / 65535
		var lin float64
		if v <= 0.04045 {
			lin = v / 12.92
		} else {
			lin = math.Pow((v+a)/(1+a), 2.4)
		}
		gammaToLin[i] = uint16(math.Round(lin * 65535))

		var g float64
		if v <= 0.0031308 {
			g = v * 12.92
		} else {
			g = (1+a)*math.Pow(v, 1/2.4) - a
		}
		linToGamma8[i] = uint8(math.Round(math.Min(math.Max(g, 0), 1) * 255))
	}
}

func toLinear(src *image.NRGBA) *image.NRGBA64 {
	tablesOnce.Do(initTables)
	b := src.Bounds()
	dst := image.NewNRGBA64(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*4]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*8]
		for x := 0; x < b.Dx(); x++ {
			for c := 0; c < 3; c++ {
				v := gammaToLin[uint16(s[x*4+c])*257]
				d[x*8+c*2] = uint8(v >> 8)
				d[x*8+c*2+1] = uint8(v)
			}
			d[x*8+6] = s[x*4+3]
			d[x*8+7] = s[x*4+3]
		}
	}
	return dst
}

func toGamma(src *image.NRGBA64) *image.NRGBA {
	tablesOnce.Do(initTables)
	b := src.Bounds()
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		s := src.Pix[y*src.Stride : y*src.Stride+b.Dx()*8]
		d := dst.Pix[y*dst.Stride : y*dst.Stride+b.Dx()*4]
		for x := 0; x < b.Dx(); x++ {
			for c := 0; c < 3; c++ {
				v := uint16(s[x*8+c*2])<<8 | uint16(s[x*8+c*2+1])
				d[x*4+c] = linToGamma8[v]
			}
			d[x*4+3] = s[x*8+6]
		}
	}
	return dst
}
