package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/AnyUserName/imgbatch/internal/batch"
	"github.com/AnyUserName/imgbatch/internal/filename"
)

var profileCmd = &cobra.Command{
	Use:   "profile",
	Short: "Inspect stored profiles",
}

var profileListCmd = &cobra.Command{
	Use:   "list",
	Short: "List the profiles in the profile directory",
	Args:  cobra.NoArgs,
	RunE: func(_ *cobra.Command, _ []string) error {
		dir := profileDir(newHost(afero.NewOsFs()))
		names, err := dir.Names()
		if err != nil {
			return err
		}
		if len(names) == 0 {
			fmt.Printf("  no profiles in %s\n", dir.Path())
			return nil
		}
		fmt.Printf("  %s\n", dir.Path())
		for _, n := range names {
			fmt.Printf("    • %s\n", n)
		}
		return nil
	},
}

var profileShowCmd = &cobra.Command{
	Use:   "show <name_or_path>",
	Short: "Print the settings stored in a profile",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		dir := profileDir(newHost(afero.NewOsFs()))
		cfg := dir.Load(args[0])
		if cfg.IsEmpty() {
			return fmt.Errorf("cannot read profile %q (%s)", args[0], dir.PathFor(args[0]))
		}
		fmt.Print(describeConfig(cfg))
		return nil
	},
}

func init() {
	profileCmd.AddCommand(profileListCmd, profileShowCmd)
	rootCmd.AddCommand(profileCmd)
}

func describeConfig(cfg batch.Config) string {
	var b strings.Builder
	pattern, _ := filename.Parse(cfg.FileNamePattern)

	fmt.Fprintf(&b, "  Files:        %d\n", len(cfg.FileList))
	for _, f := range cfg.FileList {
		fmt.Fprintf(&b, "    %s\n", f)
	}
	fmt.Fprintf(&b, "  Output dir:   %s\n", cfg.OutputDir)
	fmt.Fprintf(&b, "  Pattern:      %s\n", pattern.String())

	si := cfg.SaveInfo
	fmt.Fprintf(&b, "  Existing:     %s\n", si.Mode)
	fmt.Fprintf(&b, "  Delete input: %t\n", si.DeleteOriginal)
	fmt.Fprintf(&b, "  Beside input: %t\n", si.InputDirIsOutputDir)
	fmt.Fprintf(&b, "  Quality:      %d\n", si.Compression)

	if len(cfg.Steps) == 0 {
		b.WriteString("  Steps:        none\n")
		return b.String()
	}
	b.WriteString("  Steps:\n")
	for _, s := range cfg.Steps {
		state := "active"
		if !s.IsActive() {
			state = "inactive"
		}
		fmt.Fprintf(&b, "    %s (%s)%s\n", s.Name(), state, stepDetails(s))
	}
	return b.String()
}

func stepDetails(s batch.Step) string {
	switch s := s.(type) {
	case *batch.Resize:
		return fmt.Sprintf(": %g %s, %s", s.ScaleFactor, s.Mode, s.Interpolation)
	case *batch.Transform:
		return fmt.Sprintf(": rotate %d, flip h=%t v=%t, crop=%t",
			s.Angle, s.HorizontalFlip, s.VerticalFlip, s.CropFromMetadata)
	case *batch.PluginChain:
		return ": " + strings.Join(s.Plugins(), ", ")
	default:
		return ""
	}
}
