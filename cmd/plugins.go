package cmd

import (
	"fmt"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List the plugin actions usable with run --plugin",
	Args:  cobra.NoArgs,
	Run: func(_ *cobra.Command, _ []string) {
		for _, id := range newHost(afero.NewOsFs()).IDs() {
			fmt.Printf("  %s\n", id)
		}
	},
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}
