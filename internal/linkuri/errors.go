// internal/linkuri/errors.go
package linkuri

import (
	"errors"
	"fmt"
)

// Kind classifies why a connection URI was rejected
type Kind int

const (
	UnknownProtocol Kind = iota + 1
	MissingSerialPath
	InvalidSerialPath
	MissingComPortNumber
	InvalidComPortNumber
	MissingDescriptorNumber
	NonNumericDescriptorNumber
	DescriptorNumberOutOfRange
	NonNumericPort
	PortOutOfRange
	// NegativePort cannot be produced from a digit-only field; kept so callers
	// can switch over the full taxonomy.
	NegativePort
	NonNumericBaudrate
	BaudrateOutOfRange
)

var (
	ErrUnknownProtocol            = errors.New("linkuri: unknown protocol")
	ErrMissingSerialPath          = errors.New("linkuri: serial device path required")
	ErrInvalidSerialPath          = errors.New("linkuri: invalid serial path")
	ErrMissingComPortNumber       = errors.New("linkuri: COM port number missing")
	ErrInvalidComPortNumber       = errors.New("linkuri: COM port number invalid")
	ErrMissingDescriptorNumber    = errors.New("linkuri: descriptor number required")
	ErrNonNumericDescriptorNumber = errors.New("linkuri: non-numeric descriptor number")
	ErrDescriptorNumberOutOfRange = errors.New("linkuri: descriptor number out of range")
	ErrNonNumericPort             = errors.New("linkuri: non-numeric port")
	ErrPortOutOfRange             = errors.New("linkuri: port out of range")
	ErrNegativePort               = errors.New("linkuri: port can't be negative")
	ErrNonNumericBaudrate         = errors.New("linkuri: non-numeric baudrate")
	ErrBaudrateOutOfRange         = errors.New("linkuri: baudrate out of range")
)

var kindInfo = map[Kind]struct {
	code string
	err  error
}{
	UnknownProtocol:            {"UNKNOWN_PROTOCOL", ErrUnknownProtocol},
	MissingSerialPath:          {"MISSING_SERIAL_PATH", ErrMissingSerialPath},
	InvalidSerialPath:          {"INVALID_SERIAL_PATH", ErrInvalidSerialPath},
	MissingComPortNumber:       {"MISSING_COM_PORT_NUMBER", ErrMissingComPortNumber},
	InvalidComPortNumber:       {"INVALID_COM_PORT_NUMBER", ErrInvalidComPortNumber},
	MissingDescriptorNumber:    {"MISSING_DESCRIPTOR_NUMBER", ErrMissingDescriptorNumber},
	NonNumericDescriptorNumber: {"NON_NUMERIC_DESCRIPTOR_NUMBER", ErrNonNumericDescriptorNumber},
	DescriptorNumberOutOfRange: {"DESCRIPTOR_NUMBER_OUT_OF_RANGE", ErrDescriptorNumberOutOfRange},
	NonNumericPort:             {"NON_NUMERIC_PORT", ErrNonNumericPort},
	PortOutOfRange:             {"PORT_OUT_OF_RANGE", ErrPortOutOfRange},
	NegativePort:               {"NEGATIVE_PORT", ErrNegativePort},
	NonNumericBaudrate:         {"NON_NUMERIC_BAUDRATE", ErrNonNumericBaudrate},
	BaudrateOutOfRange:         {"BAUDRATE_OUT_OF_RANGE", ErrBaudrateOutOfRange},
}

// String returns the stable UPPER_SNAKE code for the kind
func (k Kind) String() string {
	if info, ok := kindInfo[k]; ok {
		return info.code
	}
	return fmt.Sprintf("KIND(%d)", int(k))
}

// Err returns the sentinel error for the kind
func (k Kind) Err() error {
	if info, ok := kindInfo[k]; ok {
		return info.err
	}
	return nil
}

// Field names used in ParseError
const (
	FieldScheme     = "scheme"
	FieldPath       = "path"
	FieldDescriptor = "descriptor"
	FieldPort       = "port"
	FieldBaudrate   = "baudrate"
)

// ParseError reports which stage rejected a URI and the text it rejected
type ParseError struct {
	Kind  Kind
	Field string
	Value string
	URI   string
}

func (e *ParseError) Error() string {
	msg := "invalid connection URI"
	if sentinel := e.Kind.Err(); sentinel != nil {
		msg = sentinel.Error()
	}
	if e.Value != "" {
		return fmt.Sprintf("%s: %s %q in %q", msg, e.Field, e.Value, e.URI)
	}
	return fmt.Sprintf("%s: %s in %q", msg, e.Field, e.URI)
}

// Unwrap exposes the kind sentinel so errors.Is matches on kind
func (e *ParseError) Unwrap() error { return e.Kind.Err() }

// KindOf extracts the kind from err, or 0 if err is not a ParseError
func KindOf(err error) Kind {
	var pe *ParseError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return 0
}
