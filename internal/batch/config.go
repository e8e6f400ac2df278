package batch

import (
	"fmt"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"

	"github.com/AnyUserName/imgbatch/internal/core"
	"github.com/AnyUserName/imgbatch/internal/settings"
)

// Settings groups that never hold a step.
const (
	GroupGeneral  = "General"
	GroupSaveInfo = "SaveInfo"
)

// Config describes one batch run. It is not mutated once handed to an Engine.
type Config struct {
	FileList        []string
	OutputDir       string
	FileNamePattern string
	// SaveInfo is the policy template; paths are filled per file.
	SaveInfo core.SaveInfo
	Steps    []Step
}

// NewConfig returns a config with the default save policy and no steps.
func NewConfig(files []string, outputDir, pattern string) Config {
	return Config{
		FileList:        files,
		OutputDir:       outputDir,
		FileNamePattern: pattern,
		SaveInfo:        core.DefaultSaveInfo(),
	}
}

// Validate returns the first configuration error. The output directory is
// created when missing.
func (c Config) Validate(fs afero.Fs) error {
	if c.OutputDir == "" {
		return ErrNoOutputDir
	}
	if ok, _ := afero.DirExists(fs, c.OutputDir); !ok {
		if err := fs.MkdirAll(c.OutputDir, 0o755); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrOutputDirCreate, c.OutputDir, err)
		}
	}
	if len(c.FileList) == 0 {
		return ErrNoFiles
	}
	if c.FileNamePattern == "" {
		return ErrNoPattern
	}
	return nil
}

// Absolute returns a copy of c with every input path and the output
// directory made absolute against the working directory, so the same file
// never appears under two spellings.
func (c Config) Absolute() (Config, error) {
	files := make([]string, 0, len(c.FileList))
	for _, f := range c.FileList {
		abs, err := filepath.Abs(f)
		if err != nil {
			return c, fmt.Errorf("resolve %s: %w", f, err)
		}
		files = append(files, abs)
	}
	c.FileList = files

	if c.OutputDir != "" {
		abs, err := filepath.Abs(c.OutputDir)
		if err != nil {
			return c, fmt.Errorf("resolve %s: %w", c.OutputDir, err)
		}
		c.OutputDir = abs
	}
	return c, nil
}

// IsOk reports whether the run may start.
func (c Config) IsOk(fs afero.Fs) bool { return c.Validate(fs) == nil }

// IsEmpty reports whether nothing was configured, e.g. after a failed load.
func (c Config) IsEmpty() bool {
	return len(c.FileList) == 0 && c.OutputDir == "" && c.FileNamePattern == "" && len(c.Steps) == 0
}

// Step returns the first step persisted under settingsName, or nil.
func (c Config) Step(settingsName string) Step {
	for _, s := range c.Steps {
		if s != nil && s.SettingsName() == settingsName {
			return s
		}
	}
	return nil
}

// SaveSettings writes the config and every step to s.
func (c Config) SaveSettings(s settings.Store) {
	settings.SetList(s, GroupGeneral, "FileList", c.FileList)
	s.Set(GroupGeneral, "OutputDirPath", c.OutputDir)
	s.Set(GroupGeneral, "FileNamePattern", c.FileNamePattern)

	saveSaveInfo(s, c.SaveInfo)

	for _, step := range c.Steps {
		if step != nil {
			step.SaveSettings(s)
		}
	}
}

// LoadSettings reads a config from s. Groups that name no known step are
// logged and skipped.
func LoadSettings(s settings.Store, host core.PluginHost) Config {
	c := NewConfig(
		settings.List(s, GroupGeneral, "FileList"),
		settings.String(s, GroupGeneral, "OutputDirPath", ""),
		settings.String(s, GroupGeneral, "FileNamePattern", ""),
	)
	c.SaveInfo = loadSaveInfo(s, c.SaveInfo)

	for _, name := range s.Groups() {
		if name == GroupGeneral || name == GroupSaveInfo || settings.IsSubGroup(name) {
			continue
		}
		step, err := CreateFromName(name, host)
		if err != nil {
			log.WithField("group", name).Warnf("profile: %v", err)
			continue
		}
		step.LoadSettings(s)
		c.Steps = append(c.Steps, step)
	}
	return c
}

func saveSaveInfo(s settings.Store, si core.SaveInfo) {
	settings.SetInt(s, GroupSaveInfo, "Mode", int(si.Mode))
	settings.SetBool(s, GroupSaveInfo, "DeleteOriginal", si.DeleteOriginal)
	settings.SetBool(s, GroupSaveInfo, "InputDirIsOutputDir", si.InputDirIsOutputDir)
	settings.SetInt(s, GroupSaveInfo, "Compression", si.Compression)
}

func loadSaveInfo(s settings.Store, si core.SaveInfo) core.SaveInfo {
	si.Mode = core.OverwriteMode(settings.Int(s, GroupSaveInfo, "Mode", int(si.Mode)))
	si.DeleteOriginal = settings.Bool(s, GroupSaveInfo, "DeleteOriginal", si.DeleteOriginal)
	si.InputDirIsOutputDir = settings.Bool(s, GroupSaveInfo, "InputDirIsOutputDir", si.InputDirIsOutputDir)
	si.Compression = settings.Int(s, GroupSaveInfo, "Compression", si.Compression)
	return si
}
