// internal/linkuri/descriptor.go
package linkuri

import "fmt"

// Protocol identifies the transport selected by a connection URI
type Protocol int

const (
	ProtocolNone Protocol = iota
	ProtocolUDP
	ProtocolTCP
	ProtocolSerial
)

// String returns the lowercase protocol name
func (p Protocol) String() string {
	switch p {
	case ProtocolUDP:
		return "udp"
	case ProtocolTCP:
		return "tcp"
	case ProtocolSerial:
		return "serial"
	default:
		return "none"
	}
}

// MarshalText renders the protocol by name in JSON and YAML output
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText
func (p *Protocol) UnmarshalText(text []byte) error {
	switch string(text) {
	case "udp":
		*p = ProtocolUDP
	case "tcp":
		*p = ProtocolTCP
	case "serial":
		*p = ProtocolSerial
	case "none", "":
		*p = ProtocolNone
	default:
		return fmt.Errorf("linkuri: unknown protocol name %q", text)
	}
	return nil
}

// Descriptor describes how to open a link to a remote device.
//
// Path and Port apply to UDP and TCP. An empty Path and a zero Port ask the
// transport layer for its defaults. Baudrate, FlowControl and the descriptor
// fields apply to Serial only; a zero Baudrate means the default rate. When
// FromDescriptor is set the serial line is an already-open OS descriptor
// (DescriptorNumber) and Path is empty. The descriptor fields are always
// encoded because descriptor 0 is valid.
type Descriptor struct {
	Protocol         Protocol `json:"protocol" yaml:"protocol"`
	Path             string   `json:"path,omitempty" yaml:"path,omitempty"`
	Port             int      `json:"port,omitempty" yaml:"port,omitempty"`
	Baudrate         int      `json:"baudrate,omitempty" yaml:"baudrate,omitempty"`
	FlowControl      bool     `json:"flow_control,omitempty" yaml:"flow_control,omitempty"`
	FromDescriptor   bool     `json:"from_descriptor" yaml:"from_descriptor"`
	DescriptorNumber int      `json:"descriptor_number" yaml:"descriptor_number"`
}

// IsNetwork reports whether the descriptor selects a UDP or TCP link
func (d Descriptor) IsNetwork() bool {
	return d.Protocol == ProtocolUDP || d.Protocol == ProtocolTCP
}

// IsSerial reports whether the descriptor selects a serial link
func (d Descriptor) IsSerial() bool {
	return d.Protocol == ProtocolSerial
}

// Scheme is one of the accepted URI scheme tokens
type Scheme struct {
	Token          string   `json:"token" yaml:"token"`
	Protocol       Protocol `json:"protocol" yaml:"protocol"`
	FlowControl    bool     `json:"flow_control" yaml:"flow_control"`
	FromDescriptor bool     `json:"from_descriptor" yaml:"from_descriptor"`
	Example        string   `json:"example" yaml:"example"`
}

// SchemeSeparator follows every scheme token
const SchemeSeparator = "://"

var schemes = []Scheme{
	{Token: "udp", Protocol: ProtocolUDP, Example: "udp://:14550"},
	{Token: "tcp", Protocol: ProtocolTCP, Example: "tcp://192.168.1.1:5760"},
	{Token: "serial", Protocol: ProtocolSerial, Example: "serial:///dev/ttyUSB0:57600"},
	{Token: "serial_flowcontrol", Protocol: ProtocolSerial, FlowControl: true, Example: "serial_flowcontrol://COM3:115200"},
	{Token: "serial_fd", Protocol: ProtocolSerial, FromDescriptor: true, Example: "serial_fd://5:57600"},
}

// Schemes returns the accepted scheme tokens
func Schemes() []Scheme {
	out := make([]Scheme, len(schemes))
	copy(out, schemes)
	return out
}
