// internal/cli/version.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags "-X link-service/internal/cli.version=x.y.z"
var version = "1.0.0"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show linkctl version",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintf(cmd.OutOrStdout(), "linkctl version %s\n", version)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
