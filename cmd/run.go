package cmd

import (
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/cheggaaa/pb/v3"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/codec"
	"github.com/AnyUserName/imgbatch/internal/config"
	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/imgproc"
	"github.com/AnyUserName/imgbatch/internal/profile"
	"github.com/AnyUserName/imgbatch/internal/tui"
)

const defaultPattern = "<c:0>.<old>"

var (
	runOutDir       string
	runPattern      string
	runProfile      string
	runOverwrite    bool
	runSkipExisting bool
	runDryRun       bool
	runDeleteOrig   bool
	runInputDirOut  bool
	runQuality      int

	runResize        float64
	runResizeMode    string
	runShrinkOnly    bool
	runEnlargeOnly   bool
	runInterpolation string
	runGamma         bool

	runRotate       int
	runFlipH        bool
	runFlipV        bool
	runCropMetadata bool

	runPlugins     []string
	runSaveProfile string
	runLogFile     string
)

var runCmd = &cobra.Command{
	Use:   "run [files or directories...]",
	Short: "Process a batch of images",
	Long: `Runs every input file through the configured steps and saves the
result under --out using the --pattern file name pattern. Directories
are searched recursively for supported images.

Pattern tokens: <c:N> original name (0 keep, 1 lower, 2 upper case),
<d:W:S> zero padded index starting at S, .<old> original extension.

Flags override the values loaded from --profile.`,
	RunE: runRun,
}

func init() {
	f := runCmd.Flags()
	f.StringVarP(&runOutDir, "out", "o", "", "output directory")
	f.StringVarP(&runPattern, "pattern", "p", defaultPattern, "output file name pattern")
	f.StringVar(&runProfile, "profile", "", "profile name or path to start from")
	f.BoolVar(&runOverwrite, "overwrite", false, "replace existing outputs")
	f.BoolVar(&runSkipExisting, "skip-existing", false, "skip files whose output exists (default)")
	f.BoolVar(&runDryRun, "dry-run", false, "process but do not save")
	f.BoolVar(&runDeleteOrig, "delete-original", false, "delete inputs that were processed without failure")
	f.BoolVar(&runInputDirOut, "input-dir-output", false, "write each output next to its input")
	f.IntVarP(&runQuality, "quality", "q", core.CompressionUnset, "encoder quality 0-100 (-1 = format default)")

	f.Float64Var(&runResize, "resize", 1, "scale factor (percent mode) or side length in pixels")
	f.StringVar(&runResizeMode, "resize-mode", batch.ModePercent.String(), "percent, long-side, short-side, width or height")
	f.BoolVar(&runShrinkOnly, "shrink-only", false, "never enlarge")
	f.BoolVar(&runEnlargeOnly, "enlarge-only", false, "never shrink")
	f.StringVar(&runInterpolation, "interpolation", imgproc.Area.String(), "nearest, area, linear, cubic or lanczos")
	f.BoolVar(&runGamma, "gamma", false, "resize in linear light")

	f.IntVar(&runRotate, "rotate", 0, "rotation in degrees (multiple of 90)")
	f.BoolVar(&runFlipH, "flip-h", false, "mirror horizontally")
	f.BoolVar(&runFlipV, "flip-v", false, "mirror vertically")
	f.BoolVar(&runCropMetadata, "crop-metadata", false, "apply the crop rectangle stored in the file")

	f.StringArrayVar(&runPlugins, "plugin", nil, `plugin action, e.g. "Adjust | Grayscale" (repeatable)`)
	f.StringVar(&runSaveProfile, "save-profile", "", "save the effective settings as a profile")
	f.StringVar(&runLogFile, "log-file", "", "write the full processing log to this file")
	f.String("progress", config.ProgressBar, "progress display: tui, bar or none")

	runCmd.MarkFlagsMutuallyExclusive("overwrite", "skip-existing", "dry-run")
	runCmd.MarkFlagsMutuallyExclusive("shrink-only", "enlarge-only")
	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	start := time.Now()
	fs := afero.NewOsFs()
	host := newHost(fs)
	dir := profileDir(host)

	fc := codec.New(fs)
	files, err := fc.Scan(args)
	if err != nil {
		return err
	}
	cfg, err := buildConfig(cmd, files, dir, host)
	if err != nil {
		return err
	}

	if runSaveProfile != "" {
		path, err := dir.Save(runSaveProfile, cfg)
		if err != nil {
			return fmt.Errorf("save profile: %w", err)
		}
		log.WithField("path", path).Info("profile saved")
	}

	if err := cfg.Validate(fs); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	var updates chan batch.ProgressUpdate
	if appCfg.Progress != config.ProgressNone {
		updates = make(chan batch.ProgressUpdate)
	}

	engine := batch.NewEngine(cfg, batch.Options{
		Fs:       fs,
		Codec:    fc,
		Workers:  appCfg.Workers,
		Progress: updates,
	})
	engine.PreLoad()
	engine.Compute(ctx)

	switch appCfg.Progress {
	case config.ProgressTUI:
		program := tea.NewProgram(tui.NewModel(updates, len(cfg.FileList), engine.Cancel))
		if _, err := program.Run(); err != nil {
			log.Warnf("progress view: %v", err)
			drain(updates)
		}
	case config.ProgressBar:
		showBar(updates, len(cfg.FileList))
	}

	engine.Wait()
	engine.PostLoad()

	if runLogFile != "" {
		if err := writeLog(fs, runLogFile, engine.Log()); err != nil {
			return err
		}
	}
	printSummary(engine, time.Since(start))

	if n := engine.NumFailures(); n > 0 {
		return fmt.Errorf("%d of %d files failed", n, engine.NumItems())
	}
	return nil
}

// buildConfig starts from the profile, if any, and applies the flags the
// user actually set on top of it.
func buildConfig(cmd *cobra.Command, args []string, dir *profile.Dir, host core.PluginHost) (batch.Config, error) {
	flags := cmd.Flags()
	cfg := batch.NewConfig(nil, "", defaultPattern)

	if runProfile != "" {
		cfg = dir.Load(runProfile)
		if cfg.IsEmpty() {
			return cfg, fmt.Errorf("cannot read profile %q (%s)", runProfile, dir.PathFor(runProfile))
		}
	}

	if len(args) > 0 {
		cfg.FileList = args
	}
	if flags.Changed("out") {
		cfg.OutputDir = runOutDir
	}
	if flags.Changed("pattern") || cfg.FileNamePattern == "" {
		cfg.FileNamePattern = runPattern
	}

	switch {
	case runOverwrite:
		cfg.SaveInfo.Mode = core.Overwrite
	case runSkipExisting:
		cfg.SaveInfo.Mode = core.SkipExisting
	case runDryRun:
		cfg.SaveInfo.Mode = core.DoNotSaveOutput
	}
	if flags.Changed("delete-original") {
		cfg.SaveInfo.DeleteOriginal = runDeleteOrig
	}
	if flags.Changed("input-dir-output") {
		cfg.SaveInfo.InputDirIsOutputDir = runInputDirOut
	}
	if flags.Changed("quality") {
		cfg.SaveInfo.Compression = runQuality
	}

	if anyChanged(flags.Changed, "resize", "resize-mode", "shrink-only", "enlarge-only", "interpolation", "gamma") {
		if err := applyResize(flags.Changed, stepFor(&cfg, batch.NewResize())); err != nil {
			return cfg, err
		}
	}
	if anyChanged(flags.Changed, "rotate", "flip-h", "flip-v", "crop-metadata") {
		applyTransform(flags.Changed, stepFor(&cfg, batch.NewTransform()))
	}
	if len(runPlugins) > 0 {
		stepFor(&cfg, batch.NewPluginChain(host)).SetPlugins(runPlugins)
	}
	return cfg.Absolute()
}

// stepFor returns the step of fresh's type already in cfg, appending
// fresh when there is none.
func stepFor[S batch.Step](cfg *batch.Config, fresh S) S {
	if s, ok := cfg.Step(fresh.SettingsName()).(S); ok {
		return s
	}
	cfg.Steps = append(cfg.Steps, fresh)
	return fresh
}

func anyChanged(changed func(string) bool, names ...string) bool {
	for _, n := range names {
		if changed(n) {
			return true
		}
	}
	return false
}

func applyResize(changed func(string) bool, r *batch.Resize) error {
	if changed("resize") {
		r.ScaleFactor = runResize
	}
	if changed("resize-mode") {
		mode, err := batch.ParseResizeMode(runResizeMode)
		if err != nil {
			return err
		}
		r.Mode = mode
	}
	switch {
	case runShrinkOnly:
		r.Property = batch.PropertyShrinkOnly
	case runEnlargeOnly:
		r.Property = batch.PropertyEnlargeOnly
	}
	if changed("interpolation") {
		r.Interpolation = imgproc.ParseInterpolation(runInterpolation)
	}
	if changed("gamma") {
		r.CorrectGamma = runGamma
	}
	return nil
}

func applyTransform(changed func(string) bool, t *batch.Transform) {
	if changed("rotate") {
		t.Angle = runRotate
	}
	if changed("flip-h") {
		t.HorizontalFlip = runFlipH
	}
	if changed("flip-v") {
		t.VerticalFlip = runFlipV
	}
	if changed("crop-metadata") {
		t.CropFromMetadata = runCropMetadata
	}
}

func showBar(updates <-chan batch.ProgressUpdate, total int) {
	bar := pb.New(total).
		SetTemplateString(`{{ bar . " " "━" "━" " " " "}} {{counters .}} {{percent .}} {{rtime .}}`).
		SetWriter(os.Stderr).
		Start()
	defer bar.Finish()

	for u := range updates {
		if u.Done {
			bar.SetCurrent(int64(u.Processed))
			return
		}
		bar.Increment()
	}
}

func drain(updates <-chan batch.ProgressUpdate) {
	for u := range updates {
		if u.Done {
			return
		}
	}
}

func writeLog(fs afero.Fs, path string, lines []string) error {
	if err := fs.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	if err := afero.WriteFile(fs, path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		return fmt.Errorf("write log: %w", err)
	}
	log.WithField("path", path).Debug("log written")
	return nil
}

func printSummary(engine *batch.Engine, elapsed time.Duration) {
	results := engine.CurrentResults()
	var skipped int
	for _, r := range results {
		if r == batch.NotComputed {
			skipped++
		}
	}

	rows := []tui.SummaryRow{
		{Label: "Files", Value: fmt.Sprintf("%d", engine.NumItems())},
		{Label: "Processed", Value: fmt.Sprintf("%d", engine.NumProcessed())},
		{Label: "Failed", Value: fmt.Sprintf("%d", engine.NumFailures())},
		{Label: "Time", Value: elapsed.Round(time.Millisecond).String()},
	}
	if skipped > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Cancelled, not started", Value: fmt.Sprintf("%d", skipped)})
	}
	if c := engine.Collisions(); len(c) > 0 {
		rows = append(rows, tui.SummaryRow{Label: "Output collisions", Value: fmt.Sprintf("%d", len(c))})
	}

	fmt.Println()
	if list := engine.ResultList(); len(list) > 0 {
		fmt.Println(tui.RenderResults(list))
		fmt.Println()
	}
	fmt.Println(tui.RenderSummary(rows))
}
