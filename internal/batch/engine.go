package batch

import (
	"context"
	"fmt"
	"path/filepath"
	"runtime"
	"sync"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/filename"
)

// ItemResult classifies one file for progress displays.
type ItemResult int

const (
	NotComputed ItemResult = iota
	Succeeded
	Failed
)

func (r ItemResult) String() string {
	switch r {
	case Succeeded:
		return "ok"
	case Failed:
		return "fail"
	default:
		return "pending"
	}
}

// ProgressUpdate is sent once per finished file and once more, with Done
// set, when the run has drained.
type ProgressUpdate struct {
	Index     int
	Input     string
	Output    string
	Result    ItemResult
	Processed int
	Failures  int
	Total     int
	Done      bool
}

// Options configures an Engine. Zero values select defaults.
type Options struct {
	// Fs defaults to the OS filesystem.
	Fs afero.Fs
	// Codec is required for any step chain.
	Codec core.Codec
	// Workers defaults to runtime.NumCPU().
	Workers int
	// Progress, if set, receives updates. Sends block, so the consumer
	// must keep reading until an update with Done arrives.
	Progress chan<- ProgressUpdate
}

// Engine runs one FileProcessor per input file on a bounded worker pool.
type Engine struct {
	cfg  Config
	opts Options

	mu         sync.Mutex
	items      []*FileProcessor
	collisions []string
	cancel     context.CancelFunc
	done       chan struct{}
}

// NewEngine creates an engine for cfg.
func NewEngine(cfg Config, opts Options) *Engine {
	if opts.Fs == nil {
		opts.Fs = afero.NewOsFs()
	}
	if opts.Workers <= 0 {
		opts.Workers = runtime.NumCPU()
	}
	return &Engine{cfg: cfg, opts: opts}
}

// Config returns the engine's configuration.
func (e *Engine) Config() Config { return e.cfg }

// Init rebuilds the file processors from the configuration.
func (e *Engine) Init() {
	e.mu.Lock()
	defer e.mu.Unlock()

	pattern, errs := filename.Parse(e.cfg.FileNamePattern)
	for _, err := range errs {
		log.WithField("pattern", e.cfg.FileNamePattern).Warnf("filename: %v", err)
	}

	steps := append([]Step(nil), e.cfg.Steps...)
	items := make([]*FileProcessor, 0, len(e.cfg.FileList))
	seen := make(map[string]int, len(e.cfg.FileList))
	var collisions []string

	for idx, in := range e.cfg.FileList {
		si := e.cfg.SaveInfo
		si.BackupPath = ""

		outDir := e.cfg.OutputDir
		if si.InputDirIsOutputDir {
			outDir = filepath.Dir(in)
		}

		si.InputPath = in
		if name := pattern.Apply(filepath.Base(in), idx); name != "" {
			si.OutputPath = filepath.Join(outDir, name)
			seen[si.OutputPath]++
			if seen[si.OutputPath] == 2 {
				collisions = append(collisions, si.OutputPath)
			}
		} else {
			si.OutputPath = ""
		}

		items = append(items, NewFileProcessor(si, steps, e.opts.Fs, e.opts.Codec))
	}

	for _, c := range collisions {
		log.WithField("output", c).Warnf("%d input files map to the same output", seen[c])
	}

	e.items = items
	e.collisions = collisions
}

// Collisions lists output paths more than one input maps to.
func (e *Engine) Collisions() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.collisions...)
}

// PreLoad gives every step its once-per-batch setup.
func (e *Engine) PreLoad() {
	for _, step := range e.cfg.Steps {
		if step != nil {
			step.PreLoad()
		}
	}
}

// Compute waits for a previous run, rebuilds the processors and starts
// processing in the background. Cancelling ctx has the effect of Cancel.
func (e *Engine) Compute(ctx context.Context) {
	e.Wait()
	e.Init()

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})

	e.mu.Lock()
	items := e.items
	e.cancel = cancel
	e.done = done
	e.mu.Unlock()

	log.WithFields(log.Fields{
		"files":   len(items),
		"workers": e.opts.Workers,
	}).Debug("batch started")

	go e.run(runCtx, cancel, items, done)
}

func (e *Engine) run(ctx context.Context, cancel context.CancelFunc, items []*FileProcessor, done chan struct{}) {
	defer close(done)
	defer cancel()

	workers := min(e.opts.Workers, len(items))
	jobs := make(chan int)
	var wg sync.WaitGroup
	var progressMu sync.Mutex
	processed, failures := 0, 0

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				item := items[idx]
				ok := item.Compute()

				res := Succeeded
				if !ok {
					res = Failed
				}
				log.WithFields(log.Fields{
					"input":  item.InputPath(),
					"output": item.OutputPath(),
					"result": res,
				}).Debug("file finished")

				if e.opts.Progress == nil {
					continue
				}
				progressMu.Lock()
				processed++
				if !ok {
					failures++
				}
				e.opts.Progress <- ProgressUpdate{
					Index:     idx,
					Input:     item.InputPath(),
					Output:    item.OutputPath(),
					Result:    res,
					Processed: processed,
					Failures:  failures,
					Total:     len(items),
				}
				progressMu.Unlock()
			}
		}()
	}

feed:
	for idx := range items {
		// Checked first so a free worker never wins against a pending cancel.
		select {
		case <-ctx.Done():
			break feed
		default:
		}
		select {
		case jobs <- idx:
		case <-ctx.Done():
			break feed
		}
	}
	close(jobs)
	wg.Wait()

	if ctx.Err() != nil && e.NumProcessed() < len(items) {
		log.WithField("skipped", len(items)-e.NumProcessed()).Info("batch cancelled")
	}

	if e.opts.Progress != nil {
		e.opts.Progress <- ProgressUpdate{
			Processed: processed,
			Failures:  failures,
			Total:     len(items),
			Done:      true,
		}
	}
}

// Wait blocks until the current run has drained.
func (e *Engine) Wait() {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done != nil {
		<-done
	}
}

// Cancel stops scheduling files. Files already started run to completion.
func (e *Engine) Cancel() {
	e.mu.Lock()
	cancel := e.cancel
	e.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// IsComputing reports whether a run is still in progress.
func (e *Engine) IsComputing() bool {
	e.mu.Lock()
	done := e.done
	e.mu.Unlock()
	if done == nil {
		return false
	}
	select {
	case <-done:
		return false
	default:
		return true
	}
}

// PostLoad hands every step the side info its files produced. Call after Wait.
func (e *Engine) PostLoad() {
	items := e.snapshot()
	for i, step := range e.cfg.Steps {
		if step == nil {
			continue
		}
		var infos []core.SideInfo
		for _, item := range items {
			if item.Finished() {
				infos = append(infos, item.SideInfo(i)...)
			}
		}
		step.PostLoad(infos)
	}
}

func (e *Engine) snapshot() []*FileProcessor {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.items
}

// Items returns the processors of the current run.
func (e *Engine) Items() []*FileProcessor {
	return append([]*FileProcessor(nil), e.snapshot()...)
}

// NumItems returns the number of files in the run.
func (e *Engine) NumItems() int { return len(e.snapshot()) }

// NumProcessed returns how many files were started.
func (e *Engine) NumProcessed() int {
	n := 0
	for _, item := range e.snapshot() {
		if item.WasProcessed() {
			n++
		}
	}
	return n
}

// NumFailures returns how many finished files recorded a failure.
func (e *Engine) NumFailures() int {
	n := 0
	for _, item := range e.snapshot() {
		if item.Finished() && item.HasFailed() {
			n++
		}
	}
	return n
}

// CurrentResults classifies every file, index-aligned with the file list.
func (e *Engine) CurrentResults() []ItemResult {
	items := e.snapshot()
	out := make([]ItemResult, len(items))
	for i, item := range items {
		switch {
		case !item.Finished():
			out[i] = NotComputed
		case item.HasFailed():
			out[i] = Failed
		default:
			out[i] = Succeeded
		}
	}
	return out
}

// Log concatenates the logs of all finished files, separated by an empty line.
func (e *Engine) Log() []string {
	var lines []string
	for _, item := range e.snapshot() {
		if !item.Finished() {
			continue
		}
		lines = append(lines, item.Log()...)
		lines = append(lines, "")
	}
	return lines
}

// ResultList returns one "<input>\t[OK]" or "<input>\t[FAIL]" line per finished file.
func (e *Engine) ResultList() []string {
	var out []string
	for _, item := range e.snapshot() {
		if item.Finished() {
			out = append(out, Summary(item))
		}
	}
	return out
}

// Summary formats the result line of one processor.
func Summary(item *FileProcessor) string {
	tag := "[OK]"
	if item.HasFailed() {
		tag = "[FAIL]"
	}
	return fmt.Sprintf("%s\t%s", item.InputPath(), tag)
}
