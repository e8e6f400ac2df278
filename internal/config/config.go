// Package config holds the application settings shared by every command.
package config

import (
	"errors"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/viper"
)

// Progress display modes.
const (
	ProgressTUI  = "tui"
	ProgressBar  = "bar"
	ProgressNone = "none"
)

// Viper keys.
const (
	KeyWorkers    = "workers"
	KeyProfileDir = "profile_dir"
	KeyLogLevel   = "log_level"
	KeyAPIAddr    = "api_addr"
	KeyProgress   = "progress"
)

// EnvPrefix prefixes environment overrides, e.g. IMGBATCH_WORKERS.
const EnvPrefix = "IMGBATCH"

// Config is the application configuration.
type Config struct {
	Workers    int    // 0 = runtime.NumCPU()
	ProfileDir string // "" = profile.DefaultDir()
	LogLevel   string // "debug", "info", "warn", "error"
	APIAddr    string
	Progress   string // ProgressTUI, ProgressBar or ProgressNone
}

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		LogLevel: "info",
		APIAddr:  ":8080",
		Progress: ProgressBar,
	}
}

// Validate returns an error if the configuration is inconsistent.
func Validate(c Config) error {
	if c.Workers < 0 {
		return errors.New("config: workers must not be negative")
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	switch c.Progress {
	case ProgressTUI, ProgressBar, ProgressNone:
	default:
		return fmt.Errorf("config: unknown progress mode %q", c.Progress)
	}
	return nil
}

// NewViper returns a viper instance with defaults and environment
// overrides. configFile is optional; without it imgbatch.yaml is looked up
// in the working directory.
func NewViper(configFile string) (*viper.Viper, error) {
	v := viper.New()

	d := Default()
	v.SetDefault(KeyWorkers, d.Workers)
	v.SetDefault(KeyProfileDir, d.ProfileDir)
	v.SetDefault(KeyLogLevel, d.LogLevel)
	v.SetDefault(KeyAPIAddr, d.APIAddr)
	v.SetDefault(KeyProgress, d.Progress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.SetConfigName("imgbatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}
	return v, nil
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Workers:    v.GetInt(KeyWorkers),
		ProfileDir: v.GetString(KeyProfileDir),
		LogLevel:   v.GetString(KeyLogLevel),
		APIAddr:    v.GetString(KeyAPIAddr),
		Progress:   strings.ToLower(v.GetString(KeyProgress)),
	}
	if err := Validate(c); err != nil {
		return c, err
	}
	return c, nil
}

// ApplyLogging configures the standard logrus logger.
func (c Config) ApplyLogging() {
	lvl, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		lvl = log.InfoLevel
	}
	log.SetLevel(lvl)
	log.SetFormatter(&log.TextFormatter{DisableTimestamp: true})
}
