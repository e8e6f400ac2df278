package plugin

import (
	"fmt"
	"image"
	"sync/atomic"

	"github.com/disintegration/imaging"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

const defaultSigma = 1.0

// Adjust applies simple pixel filters.
type Adjust struct {
	sigma atomic.Value // float64
}

func NewAdjust() *Adjust {
	a := &Adjust{}
	a.sigma.Store(defaultSigma)
	return a
}

func (a *Adjust) Name() string          { return AdjustName }
func (a *Adjust) Kind() core.PluginKind { return core.PluginSimple }
func (a *Adjust) ConcurrentSafe() bool  { return true }
func (a *Adjust) PreLoad() error        { return nil }

func (a *Adjust) Actions() []string {
	return []string{"Grayscale", "Sharpen", "Blur", "Invert"}
}

// Sigma is the radius used by Sharpen and Blur.
func (a *Adjust) Sigma() float64 { return a.sigma.Load().(float64) }

func (a *Adjust) SetSigma(s float64) {
	if s <= 0 {
		s = defaultSigma
	}
	a.sigma.Store(s)
}

func (a *Adjust) Run(runID string, img core.Image, _ core.SaveInfo) (core.Image, any, error) {
	if !img.HasContent() {
		return img, nil, fmt.Errorf("adjust: empty image")
	}

	var px image.Image
	switch action := actionOf(runID); action {
	case "Grayscale":
		px = imaging.Grayscale(img.Pixels)
	case "Sharpen":
		px = imaging.Sharpen(img.Pixels, a.Sigma())
	case "Blur":
		px = imaging.Blur(img.Pixels, a.Sigma())
	case "Invert":
		px = imaging.Invert(img.Pixels)
	default:
		return img, nil, fmt.Errorf("adjust: unknown action %q", action)
	}
	return img.WithPixels(px), nil, nil
}

func (a *Adjust) PostLoad(string, []core.SideInfo) {}

func (a *Adjust) SaveSettings(s settings.Store, group string) {
	settings.SetFloat(s, group, "Sigma", a.Sigma())
}

func (a *Adjust) LoadSettings(s settings.Store, group string) {
	a.SetSigma(settings.Float(s, group, "Sigma", a.Sigma()))
}
