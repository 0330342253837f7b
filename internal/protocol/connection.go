// internal/protocol/connection.go
package protocol

import (
	"fmt"
	"net"
	"strconv"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

// Endpoint is a descriptor with the configured defaults filled in
type Endpoint struct {
	Protocol       linkuri.Protocol `json:"protocol"`
	Host           string           `json:"host,omitempty"`
	Port           int              `json:"port,omitempty"`
	Path           string           `json:"path,omitempty"`
	Baudrate       int              `json:"baudrate,omitempty"`
	FlowControl    bool             `json:"flow_control,omitempty"`
	FromDescriptor bool             `json:"from_descriptor"`
	FD             int              `json:"fd"`
}

// Address returns host:port for network endpoints
func (e Endpoint) Address() string {
	return net.JoinHostPort(e.Host, strconv.Itoa(e.Port))
}

// String renders the endpoint for logs
func (e Endpoint) String() string {
	switch {
	case e.Protocol == linkuri.ProtocolUDP || e.Protocol == linkuri.ProtocolTCP:
		return fmt.Sprintf("%s %s", e.Protocol, e.Address())
	case e.FromDescriptor:
		return fmt.Sprintf("serial fd %d @ %d", e.FD, e.Baudrate)
	default:
		return fmt.Sprintf("serial %s @ %d", e.Path, e.Baudrate)
	}
}

// ResolveEndpoint applies link defaults to the fields a descriptor left empty
func ResolveEndpoint(d linkuri.Descriptor, defaults config.LinkConfig) (Endpoint, error) {
	ep := Endpoint{Protocol: d.Protocol}

	switch d.Protocol {
	case linkuri.ProtocolUDP:
		ep.Host = valueOr(d.Path, defaults.UDPHost)
		ep.Port = intOr(d.Port, defaults.UDPPort)
	case linkuri.ProtocolTCP:
		ep.Host = valueOr(d.Path, defaults.TCPHost)
		ep.Port = intOr(d.Port, defaults.TCPPort)
	case linkuri.ProtocolSerial:
		ep.Baudrate = intOr(d.Baudrate, defaults.SerialBaudrate)
		ep.FlowControl = d.FlowControl
		if d.FromDescriptor {
			ep.FromDescriptor = true
			ep.FD = d.DescriptorNumber
		} else {
			ep.Path = d.Path
		}
	default:
		return Endpoint{}, fmt.Errorf("%w: %s", ErrUnsupportedProtocol, d.Protocol)
	}

	return ep, nil
}

func valueOr(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func intOr(value, fallback int) int {
	if value == 0 {
		return fallback
	}
	return value
}
