package batch

import (
	"context"
	"fmt"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgbatch/internal/codec"
	"github.com/AnyUserName/imgbatch/internal/core"
)

func newTestEngine(cfg Config, fs afero.Fs, workers int) *Engine {
	return NewEngine(cfg, Options{Fs: fs, Codec: codec.New(fs), Workers: workers})
}

func TestEngineHalfSize(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "/in/a.png", 40, 30, 1)
	writePNG(t, fs, "/in/b.png", 22, 10, 2)

	cfg := NewConfig([]string{"/in/a.png", "/in/b.png"}, "/out", "<c:0>_done.<old>")
	cfg.Steps = []Step{halfResize()}
	require.NoError(t, cfg.Validate(fs))

	e := newTestEngine(cfg, fs, 2)
	e.PreLoad()
	e.Compute(context.Background())
	e.Wait()
	e.PostLoad()

	assert.False(t, e.IsComputing())
	assert.Equal(t, 2, e.NumItems())
	assert.Equal(t, 2, e.NumProcessed())
	assert.Equal(t, 0, e.NumFailures())

	w, h := imageSize(t, fs, "/out/a_done.png")
	assert.Equal(t, 20, w)
	assert.Equal(t, 15, h)
	w, h = imageSize(t, fs, "/out/b_done.png")
	assert.Equal(t, 11, w)
	assert.Equal(t, 5, h)

	assert.Equal(t, []string{"/in/a.png\t[OK]", "/in/b.png\t[OK]"}, e.ResultList())
	assert.Equal(t, []ItemResult{Succeeded, Succeeded}, e.CurrentResults())

	lines := e.Log()
	assert.Equal(t, "processing /in/a.png", lines[0])
	assert.Equal(t, "", lines[len(lines)-1])
}

func TestEngineIndependence(t *testing.T) {
	const n, k = 12, 4
	fs := afero.NewMemMapFs()

	var files []string
	missing := map[string]bool{}
	for i := 0; i < n; i++ {
		path := fmt.Sprintf("/in/img%02d.png", i)
		files = append(files, path)
		if i%3 == 0 {
			missing[path] = true
			continue
		}
		writePNG(t, fs, path, 16+i, 12, uint8(i))
	}
	require.Len(t, missing, k)

	cfg := NewConfig(files, "/out", "<c:0>.<old>")
	cfg.Steps = []Step{halfResize()}
	require.NoError(t, cfg.Validate(fs))

	e := newTestEngine(cfg, fs, 4)
	e.Compute(context.Background())
	e.Wait()

	assert.Equal(t, n, e.NumProcessed())
	assert.Equal(t, k, e.NumFailures())

	for i, item := range e.Items() {
		in := files[i]
		if missing[in] {
			assert.True(t, item.HasFailed(), in)
			assert.Equal(t, []string{"Error: input file does not exist", "Input: " + in}, item.Log())
			continue
		}
		require.False(t, item.HasFailed(), in)

		// Same file alone on a fresh filesystem.
		solo := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(solo, in, readFile(t, fs, in), 0o644))
		p := NewFileProcessor(saveInfo(in, item.OutputPath(), core.SkipExisting), cfg.Steps, solo, codec.New(solo))
		require.True(t, p.Compute())

		assert.Equal(t, readFile(t, solo, item.OutputPath()), readFile(t, fs, item.OutputPath()), in)
		assert.Equal(t, p.Log(), item.Log(), in)
	}
}

func TestEngineProgress(t *testing.T) {
	fs := afero.NewMemMapFs()
	files := []string{"/in/a.png", "/in/b.png", "/in/missing.png"}
	writePNG(t, fs, files[0], 4, 4, 1)
	writePNG(t, fs, files[1], 4, 4, 2)

	cfg := NewConfig(files, "/out", "<d:1:1>.png")
	cfg.Steps = []Step{halfResize()}

	updates := make(chan ProgressUpdate)
	e := NewEngine(cfg, Options{Fs: fs, Codec: codec.New(fs), Workers: 2, Progress: updates})
	e.Compute(context.Background())

	var got []ProgressUpdate
	for u := range updates {
		got = append(got, u)
		if u.Done {
			break
		}
	}
	e.Wait()

	require.Len(t, got, 4)
	for i, u := range got[:3] {
		assert.Equal(t, i+1, u.Processed)
		assert.Equal(t, 3, u.Total)
	}
	last := got[3]
	assert.True(t, last.Done)
	assert.Equal(t, 3, last.Processed)
	assert.Equal(t, 1, last.Failures)

	exists, _ := afero.Exists(fs, "/out/01.png")
	assert.True(t, exists)
	exists, _ = afero.Exists(fs, "/out/02.png")
	assert.True(t, exists)
}

func TestEngineCancel(t *testing.T) {
	fs := afero.NewMemMapFs()
	var files []string
	for i := 0; i < 5; i++ {
		path := fmt.Sprintf("/in/%d.png", i)
		files = append(files, path)
		writePNG(t, fs, path, 4, 4, uint8(i))
	}

	cfg := NewConfig(files, "/out", "<c:0>.<old>")
	cfg.Steps = []Step{halfResize()}

	updates := make(chan ProgressUpdate)
	e := NewEngine(cfg, Options{Fs: fs, Codec: codec.New(fs), Workers: 1, Progress: updates})
	e.Compute(context.Background())

	// The single worker blocks on the first update until it is read.
	first := <-updates
	e.Cancel()
	var last ProgressUpdate
	for u := range updates {
		if u.Done {
			last = u
			break
		}
	}
	e.Wait()

	assert.Equal(t, 1, first.Processed)
	assert.Less(t, last.Processed, len(files))
	assert.Equal(t, last.Processed, e.NumProcessed())
	assert.False(t, e.IsComputing())

	results := e.CurrentResults()
	assert.Equal(t, NotComputed, results[len(results)-1])
}

func TestEnginePostLoadGroupsPerStep(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "/in/a.png", 4, 4, 1)
	writePNG(t, fs, "/in/b.png", 4, 4, 2)

	first := &stubStep{name: "[First]", ok: true, emit: true}
	second := &stubStep{name: "[Second]", ok: true, emit: true}
	cfg := NewConfig([]string{"/in/a.png", "/in/b.png"}, "/out", "<c:0>.<old>")
	cfg.Steps = []Step{first, second}

	e := newTestEngine(cfg, fs, 2)
	e.Compute(context.Background())
	e.Wait()
	e.PostLoad()

	require.Len(t, first.posted, 2)
	require.Len(t, second.posted, 2)
	for _, info := range first.posted {
		assert.Equal(t, "[First]", info.RunID)
	}
	for _, info := range second.posted {
		assert.Equal(t, "[Second]", info.RunID)
	}
}

func TestEngineInit(t *testing.T) {
	cfg := NewConfig([]string{"/a/x.png", "/b/x.png", "/c/y.jpg"}, "/out", "<c:2>.<old>")
	cfg.SaveInfo.InputDirIsOutputDir = false

	e := newTestEngine(cfg, afero.NewMemMapFs(), 1)
	e.Init()

	items := e.Items()
	require.Len(t, items, 3)
	assert.Equal(t, "/out/X.png", items[0].OutputPath())
	assert.Equal(t, "/out/Y.jpg", items[2].OutputPath())
	assert.Equal(t, []string{"/out/X.png"}, e.Collisions())
	assert.Equal(t, 0, e.NumProcessed())
	assert.Empty(t, e.ResultList())

	cfg.SaveInfo.InputDirIsOutputDir = true
	e = newTestEngine(cfg, afero.NewMemMapFs(), 1)
	e.Init()
	assert.Equal(t, "/b/X.png", e.Items()[1].OutputPath())
	assert.Empty(t, e.Collisions())
}

func TestEngineComputeTwice(t *testing.T) {
	fs := afero.NewMemMapFs()
	writePNG(t, fs, "/in/a.png", 4, 4, 1)

	cfg := NewConfig([]string{"/in/a.png"}, "/out", "<c:0>.<old>")
	cfg.SaveInfo.Mode = core.SkipExisting
	cfg.Steps = []Step{halfResize()}

	e := newTestEngine(cfg, fs, 1)
	e.Compute(context.Background())
	e.Compute(context.Background())
	e.Wait()

	// The second run sees the first run's output.
	assert.Equal(t, 1, e.NumFailures())
	assert.Contains(t, e.Log()[0], "already exists -> skipping")
}
