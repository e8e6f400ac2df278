// Package batch runs a chain of processing steps over a list of files.
//
// A Config describes the run. An Engine expands it into one FileProcessor
// per input file and drives them on a bounded worker pool. Steps are shared
// read-only between files; everything mutable lives in the FileProcessor.
package batch

import (
	"fmt"
	"strings"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// Display names of the built-in steps. Their settings names are derived by
// stripping brackets and spaces.
const (
	ResizeName      = "[Resize Batch]"
	TransformName   = "[Transform Batch]"
	PluginChainName = "[Plugin Batch]"
)

// Step is one stage of the pipeline.
type Step interface {
	// Name is the human-readable name used as log prefix.
	Name() string
	// SettingsName is the group the step is persisted under.
	SettingsName() string
	// IsActive reports whether the step would change anything.
	IsActive() bool

	// PreLoad runs once per batch before any file.
	PreLoad()
	// Compute transforms img and appends at least one line to log. It
	// returns the resulting image (the input image when nothing changed or
	// on failure), the side info it collected, and false on failure.
	Compute(img core.Image, si core.SaveInfo, log *core.Log) (core.Image, []core.SideInfo, bool)
	// PostLoad runs once per batch with the side info of every file.
	PostLoad(infos []core.SideInfo)

	SaveSettings(s settings.Store)
	LoadSettings(s settings.Store)
}

func settingsName(display string) string {
	return strings.NewReplacer("[", "", "]", "", " ", "").Replace(display)
}

// CreateFromName builds the step persisted under the settings group name.
// host is only used by plugin chains and may be nil otherwise.
func CreateFromName(name string, host core.PluginHost) (Step, error) {
	switch name {
	case settingsName(ResizeName):
		return NewResize(), nil
	case settingsName(TransformName):
		return NewTransform(), nil
	case settingsName(PluginChainName):
		return NewPluginChain(host), nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownStep, name)
}
