// internal/linkuri/parse.go
package linkuri

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

const (
	fieldSeparator = ":"
	comPrefix      = "COM"
	maxPort        = math.MaxUint16
)

// Parse converts a connection URI into a Descriptor.
//
// Accepted forms:
//
//	udp://[host][:port]
//	tcp://[host][:port]
//	serial://<path>[:baudrate]
//	serial_flowcontrol://<path>[:baudrate]
//	serial_fd://<fd>[:baudrate]
//
// where a serial path is either a POSIX path starting with "/" or COM<n>.
// On failure the returned Descriptor is the zero value and err is a
// *ParseError.
func Parse(uri string) (Descriptor, error) {
	p := parser{uri: uri}
	if err := p.run(); err != nil {
		return Descriptor{}, err
	}
	return p.desc, nil
}

// parser holds the state of a single Parse call
type parser struct {
	uri  string
	rest string
	desc Descriptor
}

func (p *parser) run() error {
	if err := p.scheme(); err != nil {
		return err
	}

	if p.desc.FromDescriptor {
		if err := p.descriptorNumber(); err != nil {
			return err
		}
	} else {
		if err := p.path(); err != nil {
			return err
		}
	}

	if p.desc.Protocol == ProtocolSerial {
		return p.baudrate()
	}
	return p.port()
}

func (p *parser) fail(kind Kind, field, value string) error {
	return &ParseError{Kind: kind, Field: field, Value: value, URI: p.uri}
}

// next consumes the remaining text up to the first separator
func (p *parser) next() string {
	head, tail, found := strings.Cut(p.rest, fieldSeparator)
	if !found {
		p.rest = ""
		return head
	}
	p.rest = tail
	return head
}

func (p *parser) scheme() error {
	for _, s := range schemes {
		prefix := s.Token + SchemeSeparator
		if strings.HasPrefix(p.uri, prefix) {
			p.desc.Protocol = s.Protocol
			p.desc.FlowControl = s.FlowControl
			p.desc.FromDescriptor = s.FromDescriptor
			p.rest = p.uri[len(prefix):]
			return nil
		}
	}

	token, _, _ := strings.Cut(p.uri, SchemeSeparator)
	return p.fail(UnknownProtocol, FieldScheme, token)
}

func (p *parser) path() error {
	if p.rest == "" {
		if p.desc.IsNetwork() {
			return nil
		}
		return p.fail(MissingSerialPath, FieldPath, "")
	}

	path := p.next()

	if p.desc.IsSerial() {
		if err := p.checkSerialPath(path); err != nil {
			return err
		}
	}

	p.desc.Path = path
	return nil
}

func (p *parser) checkSerialPath(path string) error {
	switch {
	case strings.HasPrefix(path, "/"):
		return nil
	case strings.HasPrefix(path, comPrefix):
		number := path[len(comPrefix):]
		if number == "" {
			return p.fail(MissingComPortNumber, FieldPath, path)
		}
		if !isDigits(number) {
			return p.fail(InvalidComPortNumber, FieldPath, path)
		}
		return nil
	default:
		return p.fail(InvalidSerialPath, FieldPath, path)
	}
}

func (p *parser) descriptorNumber() error {
	if p.rest == "" {
		return p.fail(MissingDescriptorNumber, FieldDescriptor, "")
	}

	text := p.next()
	if text == "" {
		return p.fail(MissingDescriptorNumber, FieldDescriptor, "")
	}
	if !isDigits(text) {
		return p.fail(NonNumericDescriptorNumber, FieldDescriptor, text)
	}

	n, err := strconv.ParseInt(text, 10, 32)
	if err != nil {
		return p.fail(DescriptorNumberOutOfRange, FieldDescriptor, text)
	}

	p.desc.DescriptorNumber = int(n)
	return nil
}

func (p *parser) port() error {
	text := p.rest
	p.rest = ""
	if text == "" {
		p.desc.Port = 0
		return nil
	}

	if !isDigits(text) {
		return p.fail(NonNumericPort, FieldPort, text)
	}

	n, err := strconv.ParseUint(text, 10, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return p.fail(NonNumericPort, FieldPort, text)
	}
	if err != nil || n > maxPort {
		return p.fail(PortOutOfRange, FieldPort, text)
	}

	p.desc.Port = int(n)
	return nil
}

func (p *parser) baudrate() error {
	text := p.rest
	p.rest = ""
	if text == "" {
		p.desc.Baudrate = 0
		return nil
	}

	if !isDigits(text) {
		return p.fail(NonNumericBaudrate, FieldBaudrate, text)
	}

	// Any rate the platform int holds is accepted; drivers reject what they can't do
	n, err := strconv.Atoi(text)
	if err != nil {
		return p.fail(BaudrateOutOfRange, FieldBaudrate, text)
	}

	p.desc.Baudrate = n
	return nil
}

// isDigits reports whether s is non-empty and made of ASCII decimal digits
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}
