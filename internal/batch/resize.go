package batch

import (
	"fmt"
	"math"
	"strings"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/imgproc"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// ResizeMode selects what ScaleFactor means.
type ResizeMode int

const (
	// ModePercent scales both sides by ScaleFactor.
	ModePercent ResizeMode = iota
	// ModeLongSide, ModeShortSide, ModeWidth and ModeHeight set that side
	// to ScaleFactor pixels, keeping the aspect ratio.
	ModeLongSide
	ModeShortSide
	ModeWidth
	ModeHeight
)

var resizeModeNames = []string{"percent", "long-side", "short-side", "width", "height"}

func (m ResizeMode) String() string {
	if m < 0 || int(m) >= len(resizeModeNames) {
		return "percent"
	}
	return resizeModeNames[m]
}

// ParseResizeMode accepts the names returned by String.
func ParseResizeMode(name string) (ResizeMode, error) {
	for i, n := range resizeModeNames {
		if strings.EqualFold(n, name) {
			return ResizeMode(i), nil
		}
	}
	return ModePercent, fmt.Errorf("unknown resize mode %q", name)
}

// ResizeProperty restricts the direction of a resize.
type ResizeProperty int

const (
	PropertyNone ResizeProperty = iota
	PropertyShrinkOnly
	PropertyEnlargeOnly
)

// Resize scales the image.
type Resize struct {
	ScaleFactor   float64
	Mode          ResizeMode
	Property      ResizeProperty
	Interpolation imgproc.Interpolation
	CorrectGamma  bool
}

// NewResize returns an inactive resize step.
func NewResize() *Resize {
	return &Resize{ScaleFactor: 1, Mode: ModePercent, Interpolation: imgproc.Area}
}

func (r *Resize) Name() string         { return ResizeName }
func (r *Resize) SettingsName() string { return settingsName(ResizeName) }

func (r *Resize) IsActive() bool {
	return r.Mode != ModePercent || r.ScaleFactor != 1
}

func (r *Resize) PreLoad()                   {}
func (r *Resize) PostLoad(_ []core.SideInfo) {}

func (r *Resize) Compute(img core.Image, _ core.SaveInfo, log *core.Log) (core.Image, []core.SideInfo, bool) {
	if r.Mode == ModePercent && r.ScaleFactor == 1 {
		log.Addf("%s scale factor is 1 -> ignoring", r.Name())
		return img, nil, true
	}

	w, h, ok := r.targetSize(img, log)
	if !ok {
		log.Addf("%s no need for resizing.", r.Name())
		return img, nil, true
	}

	resized := imgproc.Resize(img.Pixels, w, h, r.Interpolation, r.CorrectGamma)
	if resized == nil {
		log.Addf("%s could not resize image.", r.Name())
		return img, nil, false
	}

	if r.Mode == ModePercent {
		log.Addf("%s image resized, scale factor: %g%%", r.Name(), r.ScaleFactor*100)
	} else {
		log.Addf("%s image resized, new side: %g px", r.Name(), r.ScaleFactor)
	}

	out := img.WithPixels(resized)
	if !out.CropRect.Empty() {
		sx := float64(w) / float64(img.Pixels.Bounds().Dx())
		sy := float64(h) / float64(img.Pixels.Bounds().Dy())
		out.CropRect.Min.X = int(math.Round(float64(out.CropRect.Min.X) * sx))
		out.CropRect.Min.Y = int(math.Round(float64(out.CropRect.Min.Y) * sy))
		out.CropRect.Max.X = int(math.Round(float64(out.CropRect.Max.X) * sx))
		out.CropRect.Max.Y = int(math.Round(float64(out.CropRect.Max.Y) * sy))
	}
	return out, nil, true
}

// targetSize returns the output size, or false if the image should be left
// alone. An invalid size is returned as is; Resize rejects it.
func (r *Resize) targetSize(img core.Image, log *core.Log) (int, int, bool) {
	w, h := img.Size()

	if r.Mode == ModePercent {
		return round(float64(w) * r.ScaleFactor), round(float64(h) * r.ScaleFactor), true
	}

	nw, nh := w, h
	transposed := false
	switch r.Mode {
	case ModeLongSide:
		transposed = w < h
	case ModeShortSide:
		transposed = w > h
	case ModeHeight:
		transposed = true
	}
	if transposed {
		nw, nh = nh, nw
	}
	if nw <= 0 {
		return 0, 0, true
	}

	sf := r.ScaleFactor / float64(nw)
	switch {
	case sf > 1 && r.Property == PropertyShrinkOnly:
		log.Addf("%s I need to increase the image, but the option is set to decrease only -> skipping.", r.Name())
		return 0, 0, false
	case sf < 1 && r.Property == PropertyEnlargeOnly:
		log.Addf("%s I need to decrease the image, but the option is set to increase only -> skipping.", r.Name())
		return 0, 0, false
	case sf == 1:
		log.Addf("%s image size matches scale factor -> skipping.", r.Name())
		return 0, 0, false
	}

	tw, th := round(r.ScaleFactor), round(sf*float64(nh))
	if transposed {
		tw, th = th, tw
	}
	return tw, th, true
}

func round(f float64) int { return int(math.Round(f)) }

func (r *Resize) SaveSettings(s settings.Store) {
	g := r.SettingsName()
	settings.SetFloat(s, g, "ScaleFactor", r.ScaleFactor)
	settings.SetInt(s, g, "Mode", int(r.Mode))
	settings.SetInt(s, g, "Property", int(r.Property))
	settings.SetInt(s, g, "IplMethod", int(r.Interpolation))
	settings.SetBool(s, g, "CorrectGamma", r.CorrectGamma)
}

func (r *Resize) LoadSettings(s settings.Store) {
	g := r.SettingsName()
	r.ScaleFactor = settings.Float(s, g, "ScaleFactor", r.ScaleFactor)
	r.Mode = ResizeMode(settings.Int(s, g, "Mode", int(r.Mode)))
	r.Property = ResizeProperty(settings.Int(s, g, "Property", int(r.Property)))
	r.Interpolation = imgproc.Interpolation(settings.Int(s, g, "IplMethod", int(r.Interpolation)))
	r.CorrectGamma = settings.Bool(s, g, "CorrectGamma", r.CorrectGamma)
}
