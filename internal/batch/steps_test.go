package batch

import (
	"errors"
	"image"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/imgproc"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

func testImg(w, h int) core.Image {
	return core.Image{Pixels: gradient(w, h, 3), Format: "png"}
}

func TestSettingsNames(t *testing.T) {
	assert.Equal(t, "ResizeBatch", NewResize().SettingsName())
	assert.Equal(t, "TransformBatch", NewTransform().SettingsName())
	assert.Equal(t, "PluginBatch", NewPluginChain(nil).SettingsName())

	for _, name := range []string{"ResizeBatch", "TransformBatch", "PluginBatch"} {
		s, err := CreateFromName(name, nil)
		require.NoError(t, err)
		assert.Equal(t, name, s.SettingsName())
	}

	_, err := CreateFromName("SharpenBatch", nil)
	assert.ErrorIs(t, err, ErrUnknownStep)
}

func TestResizeScaleOneIsNoop(t *testing.T) {
	r := NewResize()
	assert.False(t, r.IsActive())

	in := testImg(10, 6)
	var lg core.Log
	out, infos, ok := r.Compute(in, core.SaveInfo{}, &lg)

	assert.True(t, ok)
	assert.Nil(t, infos)
	assert.Same(t, in.Pixels, out.Pixels)
	require.Equal(t, 1, lg.Len())
	assert.Contains(t, lg.Lines()[0], "ignoring")
}

func TestResizeModes(t *testing.T) {
	cases := []struct {
		name   string
		mode   ResizeMode
		scale  float64
		w, h   int
		ww, wh int
	}{
		{"percent", ModePercent, 0.5, 40, 20, 20, 10},
		{"long side landscape", ModeLongSide, 20, 40, 20, 20, 10},
		{"long side portrait", ModeLongSide, 20, 20, 40, 10, 20},
		{"short side", ModeShortSide, 10, 40, 20, 20, 10},
		{"width", ModeWidth, 80, 40, 20, 80, 40},
		{"height", ModeHeight, 5, 40, 20, 10, 5},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			r := NewResize()
			r.Mode = c.mode
			r.ScaleFactor = c.scale

			var lg core.Log
			out, _, ok := r.Compute(testImg(c.w, c.h), core.SaveInfo{}, &lg)
			require.True(t, ok, lg.Lines())
			w, h := out.Size()
			assert.Equal(t, c.ww, w)
			assert.Equal(t, c.wh, h)
			assert.Contains(t, lg.Lines()[len(lg.Lines())-1], "image resized")
		})
	}
}

func TestResizeConstraintsSkip(t *testing.T) {
	r := NewResize()
	r.Mode = ModeLongSide
	r.ScaleFactor = 100
	r.Property = PropertyShrinkOnly

	in := testImg(40, 20)
	var lg core.Log
	out, _, ok := r.Compute(in, core.SaveInfo{}, &lg)
	assert.True(t, ok)
	assert.Same(t, in.Pixels, out.Pixels)
	assert.Contains(t, lg.Lines()[0], "decrease only")

	r.ScaleFactor = 10
	r.Property = PropertyEnlargeOnly
	lg = core.Log{}
	out, _, ok = r.Compute(in, core.SaveInfo{}, &lg)
	assert.True(t, ok)
	assert.Same(t, in.Pixels, out.Pixels)
	assert.Contains(t, lg.Lines()[0], "increase only")

	r.ScaleFactor = 40
	r.Property = PropertyNone
	lg = core.Log{}
	_, _, ok = r.Compute(in, core.SaveInfo{}, &lg)
	assert.True(t, ok)
	assert.Contains(t, lg.Lines()[0], "matches scale factor")
}

func TestResizeTooSmallFails(t *testing.T) {
	r := NewResize()
	r.ScaleFactor = 0.01

	in := testImg(10, 10)
	var lg core.Log
	out, _, ok := r.Compute(in, core.SaveInfo{}, &lg)
	assert.False(t, ok)
	assert.Same(t, in.Pixels, out.Pixels)
	assert.Contains(t, lg.Lines()[0], "could not resize")
}

func TestResizeSettingsRoundTrip(t *testing.T) {
	r := NewResize()
	r.ScaleFactor = 0.25
	r.Mode = ModeShortSide
	r.Property = PropertyEnlargeOnly
	r.Interpolation = imgproc.Lanczos
	r.CorrectGamma = true

	s := settings.NewMemStore()
	r.SaveSettings(s)

	got := NewResize()
	got.LoadSettings(s)
	assert.Equal(t, r, got)
}

func TestParseResizeMode(t *testing.T) {
	m, err := ParseResizeMode("Long-Side")
	require.NoError(t, err)
	assert.Equal(t, ModeLongSide, m)

	_, err = ParseResizeMode("diagonal")
	assert.Error(t, err)
}

func TestTransform(t *testing.T) {
	t.Run("inactive", func(t *testing.T) {
		in := testImg(4, 2)
		var lg core.Log
		out, _, ok := NewTransform().Compute(in, core.SaveInfo{}, &lg)
		assert.True(t, ok)
		assert.Same(t, in.Pixels, out.Pixels)
		assert.Contains(t, lg.Lines()[0], "inactive -> skipping")
	})

	t.Run("rotate and flip", func(t *testing.T) {
		tr := NewTransform()
		tr.Angle = 90
		tr.HorizontalFlip = true

		var lg core.Log
		out, _, ok := tr.Compute(testImg(4, 2), core.SaveInfo{}, &lg)
		require.True(t, ok)
		w, h := out.Size()
		assert.Equal(t, 2, w)
		assert.Equal(t, 4, h)
		assert.Contains(t, lg.Lines()[0], "image transformed.")
	})

	t.Run("crop from metadata", func(t *testing.T) {
		tr := NewTransform()
		tr.CropFromMetadata = true

		in := testImg(10, 10)
		in.CropRect = image.Rect(2, 2, 7, 5)

		var lg core.Log
		out, _, ok := tr.Compute(in, core.SaveInfo{}, &lg)
		require.True(t, ok)
		w, h := out.Size()
		assert.Equal(t, 5, w)
		assert.Equal(t, 3, h)
		assert.True(t, out.CropRect.Empty())
		assert.Contains(t, lg.Lines()[0], "cropped")
	})

	t.Run("settings", func(t *testing.T) {
		tr := &Transform{Angle: -90, VerticalFlip: true, CropFromMetadata: true}
		s := settings.NewMemStore()
		tr.SaveSettings(s)

		got := NewTransform()
		got.LoadSettings(s)
		assert.Equal(t, tr, got)
	})
}

type fakePlugin struct {
	name     string
	kind     core.PluginKind
	safe     bool
	fail     bool
	preloads atomic.Int32
	running  atomic.Int32
	overlap  atomic.Bool

	mu     sync.Mutex
	posted map[string][]core.SideInfo
}

func (p *fakePlugin) Name() string          { return p.name }
func (p *fakePlugin) Kind() core.PluginKind { return p.kind }
func (p *fakePlugin) ConcurrentSafe() bool  { return p.safe }
func (p *fakePlugin) PreLoad() error        { p.preloads.Add(1); return nil }

func (p *fakePlugin) Run(runID string, img core.Image, si core.SaveInfo) (core.Image, any, error) {
	if p.running.Add(1) > 1 {
		p.overlap.Store(true)
	}
	defer p.running.Add(-1)
	time.Sleep(time.Millisecond)

	if p.fail {
		return core.Image{}, nil, errors.New("boom")
	}
	if p.kind == core.PluginBatch {
		return img, runID + ":" + si.InputPath, nil
	}
	return img, nil, nil
}

func (p *fakePlugin) PostLoad(runID string, infos []core.SideInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.posted == nil {
		p.posted = map[string][]core.SideInfo{}
	}
	p.posted[runID] = append(p.posted[runID], infos...)
}

type fakeHost map[string]*fakePlugin

func (h fakeHost) Resolve(id string) (core.Plugin, string, error) {
	p, ok := h[id]
	if !ok {
		return nil, "", errors.New("plugin not found: " + id)
	}
	return p, id, nil
}

func TestPluginChain(t *testing.T) {
	simple := &fakePlugin{name: "Simple", kind: core.PluginSimple, safe: true}
	batch := &fakePlugin{name: "Batch", kind: core.PluginBatch}
	host := fakeHost{"Simple | Run": simple, "Batch | Count": batch}

	t.Run("inactive", func(t *testing.T) {
		pc := NewPluginChain(host)
		var lg core.Log
		_, _, ok := pc.Compute(testImg(2, 2), core.SaveInfo{}, &lg)
		assert.True(t, ok)
		assert.Contains(t, lg.Lines()[0], "inactive")
	})

	t.Run("side info and post load", func(t *testing.T) {
		pc := NewPluginChain(host)
		pc.SetPlugins([]string{"Simple | Run", "Batch | Count"})
		pc.PreLoad()
		assert.Equal(t, int32(1), batch.preloads.Load())

		var lg core.Log
		_, infos, ok := pc.Compute(testImg(2, 2), core.SaveInfo{InputPath: "/in/a.png"}, &lg)
		require.True(t, ok, lg.Lines())
		require.Len(t, infos, 1)
		assert.Equal(t, "Batch | Count", infos[0].RunID)
		assert.Equal(t, "Batch | Count:/in/a.png", infos[0].Data)
		assert.Contains(t, lg.Lines()[len(lg.Lines())-1], "plugins applied.")

		pc.PostLoad(append(infos, core.SideInfo{RunID: "other"}))
		assert.Len(t, batch.posted["Batch | Count"], 1)
	})

	t.Run("missing plugin fails but chain continues", func(t *testing.T) {
		pc := NewPluginChain(host)
		pc.SetPlugins([]string{"Nope | Act", "Batch | Count"})

		var lg core.Log
		out, infos, ok := pc.Compute(testImg(2, 2), core.SaveInfo{}, &lg)
		assert.False(t, ok)
		assert.True(t, out.HasContent())
		assert.Len(t, infos, 1)
		assert.Contains(t, lg.Lines()[0], "Nope | Act")
	})

	t.Run("illegal kind and failing run", func(t *testing.T) {
		h := fakeHost{
			"Bad | Kind": &fakePlugin{name: "Bad", kind: core.PluginInvalid},
			"Err | Run":  &fakePlugin{name: "Err", kind: core.PluginSimple, fail: true},
		}
		pc := NewPluginChain(h)
		pc.SetPlugins([]string{"Bad | Kind", "Err | Run"})

		var lg core.Log
		_, _, ok := pc.Compute(testImg(2, 2), core.SaveInfo{}, &lg)
		assert.False(t, ok)
		assert.Contains(t, lg.Lines()[0], "illegal plugin interface")
		assert.Contains(t, lg.Lines()[1], "Cannot apply Err | Run")
	})

	t.Run("unsafe plugins are serialised", func(t *testing.T) {
		unsafe := &fakePlugin{name: "Unsafe", kind: core.PluginSimple}
		pc := NewPluginChain(fakeHost{"Unsafe | Run": unsafe})
		pc.SetPlugins([]string{"Unsafe | Run"})

		var wg sync.WaitGroup
		for i := 0; i < 8; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				var lg core.Log
				pc.Compute(testImg(2, 2), core.SaveInfo{}, &lg)
			}()
		}
		wg.Wait()
		assert.False(t, unsafe.overlap.Load())
	})

	t.Run("settings", func(t *testing.T) {
		pc := NewPluginChain(host)
		pc.SetPlugins([]string{"Simple | Run", "Batch | Count"})
		s := settings.NewMemStore()
		pc.SaveSettings(s)

		v, _ := s.Get("PluginBatch", "pluginList")
		assert.Equal(t, "Simple | Run;Batch | Count", v)

		got := NewPluginChain(host)
		got.LoadSettings(s)
		assert.Equal(t, pc.Plugins(), got.Plugins())
	})
}
