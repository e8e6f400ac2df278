package codec

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Registry maps file extensions to encoders.
type Registry struct {
	encoders map[string]Encoder
	byExt    map[string]Encoder
}

// NewRegistry creates a registry holding every built-in encoder.
func NewRegistry() *Registry {
	r := &Registry{
		encoders: make(map[string]Encoder),
		byExt:    make(map[string]Encoder),
	}

	all := []Encoder{
		jpegEncoder{},
		pngEncoder{},
		gifEncoder{},
		bmpEncoder{},
		tiffEncoder{},
		webpEncoder{},
	}
	for _, enc := range all {
		r.Register(enc)
	}
	return r
}

// Register adds enc, replacing any encoder with the same format or extension.
func (r *Registry) Register(enc Encoder) {
	r.encoders[enc.Format()] = enc
	for _, ext := range enc.Extensions() {
		r.byExt[strings.ToLower(ext)] = enc
	}
}

// Get returns an encoder by format name, or nil.
func (r *Registry) Get(format string) Encoder {
	return r.encoders[strings.ToLower(format)]
}

// ForPath returns the encoder selected by path's extension, or nil.
func (r *Registry) ForPath(path string) Encoder {
	ext := strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
	return r.byExt[ext]
}

// Extensions returns every writable extension, sorted.
func (r *Registry) Extensions() []string {
	out := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		out = append(out, ext)
	}
	sort.Strings(out)
	return out
}

// String returns a summary of available encoders.
func (r *Registry) String() string {
	formats := make([]string, 0, len(r.encoders))
	for f := range r.encoders {
		formats = append(formats, f)
	}
	sort.Strings(formats)
	if len(formats) == 0 {
		return "no encoders available"
	}
	return fmt.Sprintf("encoders: %s", strings.Join(formats, ", "))
}
