package batch

import (
	"image"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/imgproc"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// Transform crops, rotates and mirrors the image.
type Transform struct {
	// Angle is one of 0, 90, -90, 180 (clockwise degrees).
	Angle            int
	HorizontalFlip   bool
	VerticalFlip     bool
	CropFromMetadata bool
}

// NewTransform returns an inactive transform step.
func NewTransform() *Transform { return &Transform{} }

func (t *Transform) Name() string         { return TransformName }
func (t *Transform) SettingsName() string { return settingsName(TransformName) }

func (t *Transform) IsActive() bool {
	return t.Angle != 0 || t.HorizontalFlip || t.VerticalFlip || t.CropFromMetadata
}

func (t *Transform) PreLoad()                   {}
func (t *Transform) PostLoad(_ []core.SideInfo) {}

func (t *Transform) Compute(img core.Image, _ core.SaveInfo, log *core.Log) (core.Image, []core.SideInfo, bool) {
	if !t.IsActive() {
		log.Addf("%s inactive -> skipping", t.Name())
		return img, nil, true
	}

	px := img.Pixels
	cropped := false
	if t.CropFromMetadata && !img.CropRect.Empty() {
		px = imgproc.Crop(px, img.CropRect)
		cropped = px != nil
	}
	if px != nil {
		px = imgproc.Rotate(px, t.Angle)
		px = imgproc.Mirror(px, t.HorizontalFlip, t.VerticalFlip)
	}

	if px == nil || px.Bounds().Empty() {
		log.Addf("%s error, could not transform image.", t.Name())
		return img, nil, false
	}

	if cropped {
		log.Addf("%s image transformed and cropped.", t.Name())
	} else {
		log.Addf("%s image transformed.", t.Name())
	}

	out := img.WithPixels(px)
	// The stored rectangle refers to the untransformed pixels.
	out.CropRect = image.Rectangle{}
	return out, nil, true
}

func (t *Transform) SaveSettings(s settings.Store) {
	g := t.SettingsName()
	settings.SetInt(s, g, "Angle", t.Angle)
	settings.SetBool(s, g, "HorizontalFlip", t.HorizontalFlip)
	settings.SetBool(s, g, "VerticalFlip", t.VerticalFlip)
	settings.SetBool(s, g, "CropFromMetadata", t.CropFromMetadata)
}

func (t *Transform) LoadSettings(s settings.Store) {
	g := t.SettingsName()
	t.Angle = settings.Int(s, g, "Angle", t.Angle)
	t.HorizontalFlip = settings.Bool(s, g, "HorizontalFlip", t.HorizontalFlip)
	t.VerticalFlip = settings.Bool(s, g, "VerticalFlip", t.VerticalFlip)
	t.CropFromMetadata = settings.Bool(s, g, "CropFromMetadata", t.CropFromMetadata)
}
