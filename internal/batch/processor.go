package batch

import (
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"

	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/core"
)

// FileProcessor runs the step chain for a single input file. All of its
// state is private to the goroutine calling Compute; the accessors are
// meaningful once Finished reports true.
type FileProcessor struct {
	si    core.SaveInfo
	steps []Step
	fs    afero.Fs
	codec core.Codec

	log   core.Log
	infos [][]core.SideInfo

	failures  atomic.Int32
	processed atomic.Bool
	finished  atomic.Bool
}

// NewFileProcessor creates a processor for si. steps are shared and must
// not be mutated while the processor runs.
func NewFileProcessor(si core.SaveInfo, steps []Step, fs afero.Fs, codec core.Codec) *FileProcessor {
	return &FileProcessor{si: si, steps: steps, fs: fs, codec: codec}
}

func (p *FileProcessor) InputPath() string  { return p.si.InputPath }
func (p *FileProcessor) OutputPath() string { return p.si.OutputPath }

// HasFailed reports whether any failure was recorded.
func (p *FileProcessor) HasFailed() bool { return p.failures.Load() != 0 }

// Failures returns the number of recorded failures.
func (p *FileProcessor) Failures() int { return int(p.failures.Load()) }

// WasProcessed reports whether Compute was entered.
func (p *FileProcessor) WasProcessed() bool { return p.processed.Load() }

// Finished reports whether Compute has returned.
func (p *FileProcessor) Finished() bool { return p.finished.Load() }

// Log returns the per-file log lines.
func (p *FileProcessor) Log() []string { return p.log.Lines() }

// SideInfo returns the side info collected by step i.
func (p *FileProcessor) SideInfo(i int) []core.SideInfo {
	if i < 0 || i >= len(p.infos) {
		return nil
	}
	return p.infos[i]
}

func (p *FileProcessor) fail() { p.failures.Add(1) }

func (p *FileProcessor) exists(path string) bool {
	ok, _ := afero.Exists(p.fs, path)
	return ok
}

// Compute processes the file and reports success.
func (p *FileProcessor) Compute() bool {
	p.processed.Store(true)
	defer p.finished.Store(true)

	in, out := p.si.InputPath, p.si.OutputPath

	switch {
	case out == "":
		p.log.Add("Error: could not create an output file name")
		p.log.Addf("Input: %s", in)
		p.fail()
		return false
	case p.exists(out) && p.si.Mode == core.SkipExisting:
		p.log.Addf("%s already exists -> skipping (check 'overwrite' if you want to overwrite the file)", out)
		p.fail()
		return false
	case !p.exists(in):
		p.log.Add("Error: input file does not exist")
		p.log.Addf("Input: %s", in)
		p.fail()
		return false
	case samePath(in, out) && len(p.steps) == 0:
		p.log.Add("Skipping: nothing to do here.")
		p.fail()
		return false
	}

	if len(p.steps) == 0 && sameExt(in, out) {
		// A successful move deletes the original by itself.
		moved, ok := p.transfer(p.si.DeleteOriginal)
		if !ok {
			p.fail()
		} else if !moved {
			p.deleteOriginal()
		}
		return !p.HasFailed()
	}

	p.process()
	return !p.HasFailed()
}

// samePath reports whether a and b name the same file once made absolute.
func samePath(a, b string) bool {
	if a == b {
		return true
	}
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

func sameExt(a, b string) bool {
	return strings.EqualFold(filepath.Ext(a), filepath.Ext(b))
}

func (p *FileProcessor) process() {
	in, out := p.si.InputPath, p.si.OutputPath
	p.log.Addf("processing %s", in)

	img, err := p.codec.Decode(in)
	if err != nil || !img.HasContent() {
		p.log.Add("Error while loading...")
		if err != nil {
			p.log.Add(err.Error())
		}
		p.fail()
		return
	}

	p.infos = make([][]core.SideInfo, len(p.steps))
	for i, step := range p.steps {
		if step == nil {
			p.log.Add("Error: cannot process a NULL function.")
			continue
		}
		res, infos, ok := step.Compute(img, p.si, &p.log)
		if !ok {
			p.log.Addf("%s failed", step.Name())
			p.fail()
		}
		if res.HasContent() {
			img = res
		}
		p.infos[i] = infos
	}

	if !p.prepareDeleteExisting() {
		p.fail()
		return
	}

	if p.si.Mode == core.DoNotSaveOutput {
		p.log.Addf("%s not saved - option 'Do not Save' is checked...", out)
		return
	}

	if err := p.codec.Encode(img, out, p.si.Compression); err != nil {
		p.log.Addf("Could not save: %s", out)
		p.log.Add(err.Error())
		p.fail()
		// Never let a partial file shadow the backup.
		if p.si.BackupPath != "" && p.exists(out) {
			_ = p.fs.Remove(out)
		}
	} else {
		p.log.Addf("%s saved...", out)
	}

	if !p.deleteOrRestoreExisting() {
		p.fail()
		return
	}

	p.deleteOriginal()
}

// transfer moves (if tryMove) or copies the input to the output path,
// wrapping the operation in the backup protocol when an existing output is
// replaced. A move that fails, e.g. across filesystems, falls back to a
// copy; moved reports which one happened.
func (p *FileProcessor) transfer(tryMove bool) (moved, ok bool) {
	in, out := p.si.InputPath, p.si.OutputPath

	if p.si.Mode == core.DoNotSaveOutput {
		if tryMove {
			p.log.Add("I should rename the file, but 'Do not Save' is checked - so I will do nothing...")
		} else {
			p.log.Add("I should copy the file, but 'Do not Save' is checked - so I will do nothing...")
		}
		return false, false
	}

	if !p.prepareDeleteExisting() {
		return false, false
	}

	var err error
	if tryMove {
		if err = p.fs.Rename(in, out); err == nil {
			moved = true
		} else {
			p.log.Addf("Could not rename (%v), copying instead", err)
			err = p.copyFile(in, out)
		}
	} else {
		err = p.copyFile(in, out)
	}

	ok = err == nil
	switch {
	case ok && moved:
		p.log.Addf("Renaming: %s -> %s", in, out)
	case ok:
		p.log.Addf("Copying: %s -> %s", in, out)
	default:
		p.log.Add("Error: could not copy file")
		p.log.Addf("Input: %s", in)
		p.log.Addf("Output: %s", out)
		p.log.Add(err.Error())
		if p.si.BackupPath != "" && p.exists(out) {
			_ = p.fs.Remove(out)
		}
	}

	if !p.deleteOrRestoreExisting() {
		return moved, false
	}
	return moved, ok
}

func (p *FileProcessor) copyFile(src, dst string) error {
	r, err := p.fs.Open(src)
	if err != nil {
		return err
	}
	defer r.Close()

	w, err := p.fs.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		_ = p.fs.Remove(dst)
		return err
	}
	return w.Close()
}

// prepareDeleteExisting moves an existing output aside before it is
// replaced. It is a no-op unless the output exists and mode is Overwrite.
func (p *FileProcessor) prepareDeleteExisting() bool {
	out := p.si.OutputPath
	if !p.exists(out) || p.si.Mode != core.Overwrite {
		return true
	}

	backup := p.si.CreateBackupPath()
	if p.exists(backup) {
		p.log.Addf("Error: back-up (%s) file already exists", backup)
		p.si.ClearBackupPath()
		return false
	}

	if err := p.fs.Rename(out, backup); err != nil {
		p.log.Addf("Error: could not rename existing file to %s", backup)
		p.log.Add(err.Error())
		p.si.ClearBackupPath()
		return false
	}
	return true
}

// deleteOrRestoreExisting drops the backup if the new output was written
// and puts it back otherwise.
func (p *FileProcessor) deleteOrRestoreExisting() bool {
	backup, out := p.si.BackupPath, p.si.OutputPath
	if backup == "" {
		return true
	}

	if p.exists(out) {
		if !p.exists(backup) {
			p.si.ClearBackupPath()
			return true
		}
		if err := p.fs.Remove(backup); err != nil {
			p.log.Addf("Error: could not delete existing file %s", backup)
			p.log.Add(err.Error())
			return false
		}
		p.si.ClearBackupPath()
		return true
	}

	if err := p.fs.Rename(backup, out); err != nil {
		p.log.Addf("Ui - a lot of things went wrong sorry, your original file can be found here: %s", backup)
		p.log.Add(err.Error())
		return false
	}
	p.log.Addf("I could not save to %s so I restored the original file.", out)
	p.si.ClearBackupPath()
	return true
}

func (p *FileProcessor) deleteOriginal() {
	in := p.si.InputPath
	if samePath(in, p.si.OutputPath) {
		return
	}

	if n := p.Failures(); n > 0 {
		p.log.Addf("I did not delete the original because I detected %d failure(s).", n)
		return
	}
	if !p.si.DeleteOriginal {
		return
	}

	if err := p.fs.Remove(in); err != nil {
		p.fail()
		p.log.Addf("I could not delete %s", in)
		p.log.Add(err.Error())
		return
	}
	p.log.Addf("%s deleted.", in)
}
