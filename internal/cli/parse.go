// internal/cli/parse.go
package cli

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"link-service/internal/linkuri"
	"link-service/internal/protocol"
	"link-service/internal/utils"
)

var resolve bool

// parseResult is one row of parse output. Kind is empty for accepted URIs.
type parseResult struct {
	URI         string           `json:"uri" yaml:"uri"`
	Protocol    linkuri.Protocol `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	Path        string           `json:"path,omitempty" yaml:"path,omitempty"`
	Port        int              `json:"port,omitempty" yaml:"port,omitempty"`
	Baudrate    int              `json:"baudrate,omitempty" yaml:"baudrate,omitempty"`
	FlowControl bool             `json:"flow_control" yaml:"flow_control"`
	Descriptor  string           `json:"descriptor,omitempty" yaml:"descriptor,omitempty"`
	Endpoint    string           `json:"endpoint,omitempty" yaml:"endpoint,omitempty"`
	Kind        string           `json:"error,omitempty" yaml:"error,omitempty"`
}

// errRejected is returned when at least one URI fails to parse
var errRejected = errors.New("connection URI rejected")

var parseCmd = &cobra.Command{
	Use:   "parse <uri>...",
	Short: "Validate connection URIs",
	Example: `  linkctl parse udp://:14550 serial:///dev/ttyUSB0:57600
  linkctl parse --resolve -o json tcp://:5760`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		results := make([]parseResult, 0, len(args))
		rejected := 0

		for _, uri := range args {
			result, err := parseOne(uri)
			if err != nil {
				rejected++
				utils.NewLinkLogger(logger, "", uri).LogParseRejected(err)
			}
			results = append(results, result)
		}

		fmt.Fprint(cmd.OutOrStdout(), formatter.Format(results))

		if rejected > 0 {
			return fmt.Errorf("%w: %d of %d", errRejected, rejected, len(args))
		}
		return nil
	},
}

func parseOne(uri string) (parseResult, error) {
	result := parseResult{URI: uri}

	desc, err := linkuri.Parse(uri)
	if err != nil {
		var pe *linkuri.ParseError
		if errors.As(err, &pe) {
			result.Kind = pe.Kind.String()
		}
		return result, err
	}

	result.Protocol = desc.Protocol
	result.Path = desc.Path
	result.Port = desc.Port
	result.Baudrate = desc.Baudrate
	result.FlowControl = desc.FlowControl
	if desc.FromDescriptor {
		result.Descriptor = strconv.Itoa(desc.DescriptorNumber)
	}

	if resolve {
		endpoint, err := protocol.ResolveEndpoint(desc, linkDefaults)
		if err != nil {
			logger.Debug("Endpoint resolution failed", zap.String("uri", uri), zap.Error(err))
			return result, err
		}
		result.Endpoint = endpoint.String()
	}
	return result, nil
}

func init() {
	parseCmd.Flags().BoolVar(&resolve, "resolve", false, "fill in configured defaults and show the resulting endpoint")
	rootCmd.AddCommand(parseCmd)
}
