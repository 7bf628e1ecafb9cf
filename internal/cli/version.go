package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"betdesk/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
		fmt.Fprintf(cmd.OutOrStdout(), "go: %s\n", runtime.Version())
	},
}
