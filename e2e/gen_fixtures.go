//go:build ignore

// gen_fixtures creates a small image set and a matching profile for a
// manual end-to-end run.
// Usage: go run gen_fixtures.go <output_dir>
//
//	imgbatch run --profile <output_dir>/e2e.pnm
package main

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/plugin"
	"github.com/AnyUserName/imgbatch/internal/profile"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: gen_fixtures <output_dir>")
		os.Exit(1)
	}
	dir, err := filepath.Abs(os.Args[1])
	if err != nil {
		panic(err)
	}
	in := filepath.Join(dir, "in")
	if err := os.MkdirAll(filepath.Join(in, "cards"), 0o755); err != nil {
		panic(err)
	}

	files := []string{filepath.Join(in, "banner.jpg")}
	writeJPEG(files[0], gradient(400, 225))
	for i := 1; i <= 3; i++ {
		path := filepath.Join(in, "cards", fmt.Sprintf("card-%d.png", i))
		writeImage(path, solidWithBorder(200, 150, uint8(i*60)))
		files = append(files, path)
	}
	files = append(files, filepath.Join(in, "logo.png"))
	writeImage(files[len(files)-1], alphaGradient(100, 100))

	cfg := batch.NewConfig(files, filepath.Join(dir, "out"), "<c:1>_<d:2:1>.<old>")
	resize := batch.NewResize()
	resize.ScaleFactor = 0.5
	chain := batch.NewPluginChain(plugin.NewBuiltinHost(afero.NewOsFs()))
	chain.SetPlugins([]string{
		plugin.FormatID(plugin.AdjustName, "Grayscale"),
		plugin.FormatID(plugin.ManifestName, "Write"),
	})
	cfg.Steps = []batch.Step{resize, batch.NewTransform(), chain}

	path := filepath.Join(dir, "e2e."+profile.Ext)
	if err := profile.Save(path, cfg); err != nil {
		panic(err)
	}

	fmt.Fprintf(os.Stderr, "[gen_fixtures] created %d fixtures and %s\n", len(files), path)
}

func gradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / w),
				G: uint8(y * 255 / h),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}

func solidWithBorder(w, h int, base uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			c := color.NRGBA{R: base, G: base + 40, B: base + 80, A: 255}
			if x < 4 || x >= w-4 || y < 4 || y >= h-4 {
				c = color.NRGBA{R: 255, G: 255, B: 255, A: 255}
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

func alphaGradient(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: 220, G: 60, B: 30,
				A: uint8(x * 255 / w),
			})
		}
	}
	return img
}

func writeImage(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		panic(err)
	}
}

func writeJPEG(path string, img *image.NRGBA) {
	f, err := os.Create(path)
	if err != nil {
		panic(err)
	}
	defer f.Close()
	if err := jpeg.Encode(f, img, &jpeg.Options{Quality: 85}); err != nil {
		panic(err)
	}
}
