package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/plugin"
	"github.com/AnyUserName/imgbatch/internal/profile"
)

func TestBuildConfigFlagsOverProfile(t *testing.T) {
	host := plugin.NewHost()
	dir := profile.NewDir(t.TempDir(), host)

	base := batch.NewConfig([]string{"/in/a.jpg"}, "/out", "<c:1>.<old>")
	r := batch.NewResize()
	r.ScaleFactor = 0.25
	base.Steps = []batch.Step{r}
	_, err := dir.Save("base", base)
	require.NoError(t, err)

	f := runCmd.Flags()
	for name, value := range map[string]string{
		"profile":     "base",
		"overwrite":   "true",
		"resize-mode": "long-side",
		"resize":      "800",
		"rotate":      "90",
		"quality":     "75",
	} {
		require.NoError(t, f.Set(name, value))
	}

	t.Chdir(t.TempDir())
	wd, err := os.Getwd()
	require.NoError(t, err)

	cfg, err := buildConfig(runCmd, []string{"b.png"}, dir, host)
	require.NoError(t, err)

	assert.Equal(t, []string{filepath.Join(wd, "b.png")}, cfg.FileList)
	assert.Equal(t, "/out", cfg.OutputDir)
	assert.Equal(t, "<c:1>.<old>", cfg.FileNamePattern)
	assert.Equal(t, core.Overwrite, cfg.SaveInfo.Mode)
	assert.Equal(t, 75, cfg.SaveInfo.Compression)

	require.Len(t, cfg.Steps, 2)
	resize, ok := cfg.Steps[0].(*batch.Resize)
	require.True(t, ok)
	assert.Equal(t, 800.0, resize.ScaleFactor)
	assert.Equal(t, batch.ModeLongSide, resize.Mode)

	tr, ok := cfg.Steps[1].(*batch.Transform)
	require.True(t, ok)
	assert.Equal(t, 90, tr.Angle)

	out := describeConfig(cfg)
	assert.Contains(t, out, filepath.Join(wd, "b.png"))
	assert.Contains(t, out, "rotate 90")

	_, err = buildConfig(runCmd, nil, profile.NewDir(filepath.Join(t.TempDir(), "none"), host), host)
	assert.Error(t, err)
}

func TestStepForAppendsOnce(t *testing.T) {
	cfg := batch.NewConfig(nil, "", defaultPattern)
	first := stepFor(&cfg, batch.NewTransform())
	second := stepFor(&cfg, batch.NewTransform())
	assert.Same(t, first, second)
	assert.Len(t, cfg.Steps, 1)
}
