// internal/cli/schemes.go
package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"link-service/internal/linkuri"
)

var schemesCmd = &cobra.Command{
	Use:   "schemes",
	Short: "List the accepted URI schemes",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(linkuri.Schemes()))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(schemesCmd)
}
