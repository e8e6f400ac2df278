package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <profile>",
	Short: "Check that a profile is ready to run",
	Long: `Loads the profile and checks its output directory (created if
missing), file list and file name pattern. Input files that no longer
exist are reported but do not fail validation.`,
	Args: cobra.ExactArgs(1),
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)
}

func runValidate(_ *cobra.Command, args []string) error {
	fs := afero.NewOsFs()
	dir := profileDir(newHost(fs))
	cfg := dir.Load(args[0])
	if cfg.IsEmpty() {
		return fmt.Errorf("cannot read profile %q (%s)", args[0], dir.PathFor(args[0]))
	}

	if err := cfg.Validate(fs); err != nil {
		fmt.Printf("  ✗ %v\n", err)
		return fmt.Errorf("validation failed")
	}

	missing := 0
	for _, f := range cfg.FileList {
		if ok, _ := afero.Exists(fs, f); !ok {
			fmt.Printf("    • missing input: %s\n", f)
			missing++
		}
	}

	fmt.Println("  ✓ Profile is valid")
	fmt.Printf("  ✓ %d files (%d missing), %d steps\n", len(cfg.FileList), missing, len(cfg.Steps))
	return nil
}
