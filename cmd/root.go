package cmd

import (
	"fmt"
	"runtime"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgbatch/internal/config"
	"github.com/AnyUserName/imgbatch/internal/plugin"
	"github.com/AnyUserName/imgbatch/internal/profile"
)

var (
	version    = "0.1.0"
	configFile string
	verbose    bool

	appCfg = config.Default()
)

var rootCmd = &cobra.Command{
	Use:   "imgbatch",
	Short: "Batch image processing with reusable profiles",
	Long: `imgbatch applies a chain of processing steps (resize, transform,
plugins) to a list of images in parallel and writes the results under a
file name pattern.

Existing outputs are backed up before they are replaced and restored if
anything goes wrong. Settings can be stored as profiles and replayed.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		v, err := config.NewViper(configFile)
		if err != nil {
			return err
		}
		for key, flag := range map[string]string{
			config.KeyWorkers:    "workers",
			config.KeyProfileDir: "profile-dir",
			config.KeyLogLevel:   "log-level",
			config.KeyProgress:   "progress",
			config.KeyAPIAddr:    "addr",
		} {
			f := cmd.Flags().Lookup(flag)
			if f == nil {
				continue
			}
			if err := v.BindPFlag(key, f); err != nil {
				return fmt.Errorf("bind %s: %w", flag, err)
			}
		}

		c, err := config.Load(v)
		if err != nil {
			return err
		}
		if verbose {
			c.LogLevel = log.DebugLevel.String()
		}
		c.ApplyLogging()
		appCfg = c
		log.WithField("config", v.ConfigFileUsed()).Debug("configuration loaded")
		return nil
	},
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&configFile, "config", "", "config file (default ./imgbatch.yaml)")
	pf.BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	pf.Int("workers", 0, "parallel workers (0 = NumCPU)")
	pf.String("profile-dir", "", "profile directory (default <user config>/imgbatch/Profiles)")
	pf.String("log-level", "info", "log level: debug, info, warn, error")

	rootCmd.SetVersionTemplate(fmt.Sprintf(
		"imgbatch %s (%s/%s, %s)\n",
		version, runtime.GOOS, runtime.GOARCH, runtime.Version(),
	))
}

// newHost returns the plugin host shared by one command invocation.
func newHost(fs afero.Fs) *plugin.Host { return plugin.NewBuiltinHost(fs) }

func profileDir(host *plugin.Host) *profile.Dir {
	return profile.NewDir(appCfg.ProfileDir, host)
}
