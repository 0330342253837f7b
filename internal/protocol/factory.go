// internal/protocol/factory.go
package protocol

import (
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

// CreateProtocol creates a link protocol for a parsed connection URI
func CreateProtocol(d linkuri.Descriptor, defaults config.LinkConfig, logger *zap.Logger) (LinkProtocol, error) {
	ep, err := ResolveEndpoint(d, defaults)
	if err != nil {
		return nil, err
	}

	switch {
	case ep.Protocol == linkuri.ProtocolUDP:
		logger.Info("Creating UDP protocol",
			zap.String("address", ep.Address()),
		)
		return NewUDPConnection(ep, defaults, logger), nil

	case ep.Protocol == linkuri.ProtocolTCP:
		logger.Info("Creating TCP protocol",
			zap.String("address", ep.Address()),
		)
		return NewTCPConnection(ep, defaults, logger), nil

	case ep.FromDescriptor:
		logger.Info("Creating serial protocol from descriptor",
			zap.Int("fd", ep.FD),
			zap.Int("baud_rate", ep.Baudrate),
		)
		return NewFDConnection(ep, defaults, logger), nil

	default:
		logger.Info("Creating serial protocol",
			zap.String("port", ep.Path),
			zap.Int("baud_rate", ep.Baudrate),
			zap.Bool("flow_control", ep.FlowControl),
		)
		return NewSerialConnection(ep, defaults, logger), nil
	}
}
