// internal/cli/root.go
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/output"
	"link-service/internal/utils"
)

var (
	// Global flags
	cfgFile      string
	outputFormat string
	verbose      bool

	// Shared state set during PersistentPreRun
	formatter    output.Formatter
	logger       *zap.Logger
	linkDefaults config.LinkConfig
)

var rootCmd = &cobra.Command{
	Use:   "linkctl",
	Short: "Inspect connection URIs and local ports",
	Long: `linkctl validates udp://, tcp:// and serial connection URIs the same way
link-service does, shows the endpoint each one resolves to, and lists the
serial ports on this host together with a URI for each.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		formatter, err = output.NewFormatter(outputFormat)
		if err != nil {
			return err
		}

		if verbose {
			logger, err = utils.NewLogger(&config.LoggingConfig{
				Level:  "debug",
				Format: "console",
				Output: "stderr",
			})
			if err != nil {
				return err
			}
		} else {
			logger = zap.NewNop()
		}

		linkDefaults = config.DefaultLinkConfig()
		if cfgFile != "" {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			linkDefaults = cfg.Link
		}
		return nil
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// RootCmd returns the root cobra.Command for testing purposes
func RootCmd() *cobra.Command {
	return rootCmd
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "link-service config file supplying link defaults")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "table", "output format: table, json, yaml")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log to stderr")
}
