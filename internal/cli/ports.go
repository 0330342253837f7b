// internal/cli/ports.go
package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"link-service/internal/discovery"
)

var (
	scanTimeout  time.Duration
	portBaudrate int

	// newPortScanner is replaced in tests
	newPortScanner = func(logger *zap.Logger, baudrate int) discovery.PortScanner {
		return discovery.NewSerialScanner(logger, baudrate)
	}
)

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List local serial ports with a suggested URI for each",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), scanTimeout)
		defer cancel()

		manager := discovery.NewScannerManager(logger)
		manager.RegisterScanner(newPortScanner(logger, portBaudrate))

		ports, err := manager.ScanAll(ctx)
		if err != nil {
			return fmt.Errorf("port scan failed: %w", err)
		}

		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(ports))
		return nil
	},
}

func init() {
	portsCmd.Flags().DurationVar(&scanTimeout, "timeout", 10*time.Second, "scan timeout")
	portsCmd.Flags().IntVarP(&portBaudrate, "baudrate", "b", 0, "baudrate to put in suggested URIs (0 leaves it out)")
	rootCmd.AddCommand(portsCmd)
}
