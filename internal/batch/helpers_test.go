package batch

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgbatch/internal/codec"
	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

func gradient(w, h int, seed uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{uint8(x*7) + seed, uint8(y * 5), seed, 255})
		}
	}
	return img
}

func writePNG(t *testing.T, fs afero.Fs, path string, w, h int, seed uint8) {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, gradient(w, h, seed)))
	require.NoError(t, afero.WriteFile(fs, path, buf.Bytes(), 0o644))
}

func readFile(t *testing.T, fs afero.Fs, path string) []byte {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return data
}

func imageSize(t *testing.T, fs afero.Fs, path string) (int, int) {
	t.Helper()
	img, err := codec.New(fs).Decode(path)
	require.NoError(t, err)
	return img.Size()
}

func bakFiles(t *testing.T, fs afero.Fs, dir string) []string {
	t.Helper()
	matches, err := afero.Glob(fs, dir+"/*.bak")
	require.NoError(t, err)
	return matches
}

// failingCodec decodes normally but fails every Encode, optionally after
// leaving a truncated file behind.
type failingCodec struct {
	core.Codec
	fs      afero.Fs
	partial bool
}

func (c failingCodec) Encode(_ core.Image, path string, _ int) error {
	if c.partial {
		_ = afero.WriteFile(c.fs, path, []byte("trunc"), 0o644)
	}
	return errors.New("disk full")
}

// crossDeviceFs fails every rename the way os.Rename does between
// filesystems.
type crossDeviceFs struct{ afero.Fs }

func (crossDeviceFs) Rename(oldname, newname string) error {
	return &os.LinkError{Op: "rename", Old: oldname, New: newname, Err: syscall.EXDEV}
}

// stubStep records calls and returns a fixed result.
type stubStep struct {
	name   string
	ok     bool
	calls  atomic.Int32
	mu     sync.Mutex
	posted []core.SideInfo
	emit   bool
}

func (s *stubStep) Name() string         { return s.name }
func (s *stubStep) SettingsName() string { return settingsName(s.name) }
func (s *stubStep) IsActive() bool       { return true }
func (s *stubStep) PreLoad()             {}

func (s *stubStep) Compute(img core.Image, si core.SaveInfo, log *core.Log) (core.Image, []core.SideInfo, bool) {
	s.calls.Add(1)
	log.Addf("%s ran", s.name)
	if !s.emit {
		return img, nil, s.ok
	}
	return img, []core.SideInfo{{RunID: s.name, InputPath: si.InputPath, Data: si.OutputPath}}, s.ok
}

func (s *stubStep) PostLoad(infos []core.SideInfo) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.posted = append(s.posted, infos...)
}

func (s *stubStep) SaveSettings(_ settings.Store) {}
func (s *stubStep) LoadSettings(_ settings.Store) {}
