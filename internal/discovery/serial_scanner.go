// internal/discovery/serial_scanner.go
package discovery

import (
	"context"
	"fmt"
	"strconv"

	"go.bug.st/serial/enumerator"
	"go.uber.org/zap"

	"link-service/internal/linkuri"
)

// portLister matches enumerator.GetDetailedPortsList
type portLister func() ([]*enumerator.PortDetails, error)

// SerialScanner lists the serial ports present on this host
type SerialScanner struct {
	logger   *zap.Logger
	baudrate int
	list     portLister
}

// NewSerialScanner creates a serial scanner. baudrate goes into the
// suggested URIs; zero leaves it out so the configured default applies.
func NewSerialScanner(logger *zap.Logger, baudrate int) *SerialScanner {
	return &SerialScanner{
		logger:   logger.With(zap.String("scanner", "serial")),
		baudrate: baudrate,
		list:     enumerator.GetDetailedPortsList,
	}
}

// GetScannerType returns scanner type
func (s *SerialScanner) GetScannerType() string {
	return "serial"
}

// IsAvailable checks if serial scanning is available
func (s *SerialScanner) IsAvailable() bool {
	return true
}

// Scan enumerates serial ports. Ports whose name cannot form a valid
// serial URI are skipped.
func (s *SerialScanner) Scan(ctx context.Context) ([]*DiscoveredPort, error) {
	details, err := s.list()
	if err != nil {
		return nil, fmt.Errorf("failed to get serial ports: %w", err)
	}

	discovered := make([]*DiscoveredPort, 0, len(details))
	for _, d := range details {
		select {
		case <-ctx.Done():
			return discovered, ctx.Err()
		default:
		}

		uri := SuggestSerialURI(d.Name, s.baudrate)
		if _, err := linkuri.Parse(uri); err != nil {
			s.logger.Debug("Skipping port without a valid URI",
				zap.String("port", d.Name),
				zap.Error(err),
			)
			continue
		}

		discovered = append(discovered, &DiscoveredPort{
			Scanner:      s.GetScannerType(),
			Path:         d.Name,
			SuggestedURI: uri,
			IsUSB:        d.IsUSB,
			VID:          d.VID,
			PID:          d.PID,
			SerialNumber: d.SerialNumber,
			Product:      d.Product,
		})
	}

	return discovered, nil
}

// SuggestSerialURI builds a serial URI for a port name
func SuggestSerialURI(port string, baudrate int) string {
	uri := "serial" + linkuri.SchemeSeparator + port
	if baudrate > 0 {
		uri += ":" + strconv.Itoa(baudrate)
	}
	return uri
}
