package linkuri

import (
	"encoding/json"
	"errors"
	"strconv"
	"testing"
)

func TestParse_Valid(t *testing.T) {
	tests := []struct {
		name string
		uri  string
		want Descriptor
	}{
		{
			name: "udp defaults",
			uri:  "udp://",
			want: Descriptor{Protocol: ProtocolUDP},
		},
		{
			name: "udp port only",
			uri:  "udp://:14550",
			want: Descriptor{Protocol: ProtocolUDP, Port: 14550},
		},
		{
			name: "udp host only",
			uri:  "udp://0.0.0.0",
			want: Descriptor{Protocol: ProtocolUDP, Path: "0.0.0.0"},
		},
		{
			name: "udp host trailing colon",
			uri:  "udp://localhost:",
			want: Descriptor{Protocol: ProtocolUDP, Path: "localhost"},
		},
		{
			name: "tcp host and port",
			uri:  "tcp://192.168.1.1:5760",
			want: Descriptor{Protocol: ProtocolTCP, Path: "192.168.1.1", Port: 5760},
		},
		{
			name: "tcp max port",
			uri:  "tcp://h:65535",
			want: Descriptor{Protocol: ProtocolTCP, Path: "h", Port: 65535},
		},
		{
			name: "tcp zero port",
			uri:  "tcp://h:0",
			want: Descriptor{Protocol: ProtocolTCP, Path: "h", Port: 0},
		},
		{
			name: "serial posix path",
			uri:  "serial:///dev/ttyUSB0:57600",
			want: Descriptor{Protocol: ProtocolSerial, Path: "/dev/ttyUSB0", Baudrate: 57600},
		},
		{
			name: "serial posix path default baud",
			uri:  "serial:///dev/ttyACM0",
			want: Descriptor{Protocol: ProtocolSerial, Path: "/dev/ttyACM0"},
		},
		{
			name: "serial com port",
			uri:  "serial://COM12:921600",
			want: Descriptor{Protocol: ProtocolSerial, Path: "COM12", Baudrate: 921600},
		},
		{
			name: "serial flow control com port",
			uri:  "serial_flowcontrol://COM3:115200",
			want: Descriptor{Protocol: ProtocolSerial, Path: "COM3", Baudrate: 115200, FlowControl: true},
		},
		{
			name: "serial flow control posix",
			uri:  "serial_flowcontrol:///dev/ttyS1",
			want: Descriptor{Protocol: ProtocolSerial, Path: "/dev/ttyS1", FlowControl: true},
		},
		{
			name: "serial fd with baud",
			uri:  "serial_fd://5:57600",
			want: Descriptor{Protocol: ProtocolSerial, FromDescriptor: true, DescriptorNumber: 5, Baudrate: 57600},
		},
		{
			name: "serial fd default baud",
			uri:  "serial_fd://0",
			want: Descriptor{Protocol: ProtocolSerial, FromDescriptor: true, DescriptorNumber: 0},
		},
		{
			name: "baudrate above 16 bits",
			uri:  "serial:///dev/ttyUSB0:3000000",
			want: Descriptor{Protocol: ProtocolSerial, Path: "/dev/ttyUSB0", Baudrate: 3000000},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", tt.uri, err)
			}
			if got != tt.want {
				t.Errorf("Parse(%q) = %+v, want %+v", tt.uri, got, tt.want)
			}
		})
	}
}

func TestParse_BaudrateNoUpperBound(t *testing.T) {
	if strconv.IntSize < 64 {
		t.Skip("needs a 64-bit int")
	}

	got, err := Parse("serial:///dev/x:4294967296")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if int64(got.Baudrate) != 4294967296 {
		t.Errorf("baudrate = %d, want 4294967296", got.Baudrate)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name  string
		uri   string
		kind  Kind
		field string
		value string
	}{
		{"unknown scheme", "foo://bar", UnknownProtocol, FieldScheme, "foo"},
		{"empty string", "", UnknownProtocol, FieldScheme, ""},
		{"missing separator", "udp:/x", UnknownProtocol, FieldScheme, "udp:/x"},
		{"uppercase scheme", "UDP://:14550", UnknownProtocol, FieldScheme, "UDP"},
		{"scheme prefix only", "serial_flow://COM1", UnknownProtocol, FieldScheme, "serial_flow"},
		{"serial without path", "serial://", MissingSerialPath, FieldPath, ""},
		{"flow control without path", "serial_flowcontrol://", MissingSerialPath, FieldPath, ""},
		{"serial relative path", "serial://dev/ttyUSB0", InvalidSerialPath, FieldPath, "dev/ttyUSB0"},
		{"serial empty path with baud", "serial://:57600", InvalidSerialPath, FieldPath, ""},
		{"serial lowercase com", "serial://com3", InvalidSerialPath, FieldPath, "com3"},
		{"bare COM", "serial://COM", MissingComPortNumber, FieldPath, "COM"},
		{"bare COM with baud", "serial://COM:9600", MissingComPortNumber, FieldPath, "COM"},
		{"COM with letters", "serial://COM3a:9600", InvalidComPortNumber, FieldPath, "COM3a"},
		{"fd missing", "serial_fd://", MissingDescriptorNumber, FieldDescriptor, ""},
		{"fd empty segment", "serial_fd://:57600", MissingDescriptorNumber, FieldDescriptor, ""},
		{"fd letters", "serial_fd://abc", NonNumericDescriptorNumber, FieldDescriptor, "abc"},
		{"fd negative", "serial_fd://-1", NonNumericDescriptorNumber, FieldDescriptor, "-1"},
		{"fd overflow", "serial_fd://99999999999:57600", DescriptorNumberOutOfRange, FieldDescriptor, "99999999999"},
		{"port out of range", "udp://host:99999", PortOutOfRange, FieldPort, "99999"},
		{"port just above range", "tcp://host:65536", PortOutOfRange, FieldPort, "65536"},
		{"port overflow uint64", "tcp://host:123456789012345678901234", PortOutOfRange, FieldPort, "123456789012345678901234"},
		{"port letters", "tcp://host:http", NonNumericPort, FieldPort, "http"},
		{"port negative", "udp://host:-1", NonNumericPort, FieldPort, "-1"},
		{"port trailing field", "udp://h:1:2", NonNumericPort, FieldPort, "1:2"},
		{"port with space", "udp://h: 80", NonNumericPort, FieldPort, " 80"},
		{"baud letters", "serial:///dev/ttyUSB0:fast", NonNumericBaudrate, FieldBaudrate, "fast"},
		{"fd baud letters", "serial_fd://3:x", NonNumericBaudrate, FieldBaudrate, "x"},
		{"baud overflow", "serial://COM1:99999999999999999999", BaudrateOutOfRange, FieldBaudrate, "99999999999999999999"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.uri)
			if err == nil {
				t.Fatalf("Parse(%q) = %+v, want error", tt.uri, got)
			}
			if got != (Descriptor{}) {
				t.Errorf("Parse(%q) returned partial descriptor %+v", tt.uri, got)
			}

			var pe *ParseError
			if !errors.As(err, &pe) {
				t.Fatalf("error %T is not *ParseError", err)
			}
			if pe.Kind != tt.kind {
				t.Errorf("kind = %s, want %s", pe.Kind, tt.kind)
			}
			if pe.Field != tt.field {
				t.Errorf("field = %q, want %q", pe.Field, tt.field)
			}
			if pe.Value != tt.value {
				t.Errorf("value = %q, want %q", pe.Value, tt.value)
			}
			if pe.URI != tt.uri {
				t.Errorf("uri = %q, want %q", pe.URI, tt.uri)
			}
			if !errors.Is(err, tt.kind.Err()) {
				t.Errorf("errors.Is(err, %v) = false", tt.kind.Err())
			}
		})
	}
}

func TestParse_AllSchemesRecognized(t *testing.T) {
	for _, s := range Schemes() {
		t.Run(s.Token, func(t *testing.T) {
			d, err := Parse(s.Example)
			if err != nil {
				t.Fatalf("Parse(%q) error: %v", s.Example, err)
			}
			if d.Protocol != s.Protocol {
				t.Errorf("protocol = %s, want %s", d.Protocol, s.Protocol)
			}
			if d.FlowControl != s.FlowControl {
				t.Errorf("flow control = %v, want %v", d.FlowControl, s.FlowControl)
			}
			if d.FromDescriptor != s.FromDescriptor {
				t.Errorf("from descriptor = %v, want %v", d.FromDescriptor, s.FromDescriptor)
			}
		})
	}
}

func TestParse_SequentialCallsIndependent(t *testing.T) {
	first, err := Parse("serial_flowcontrol://COM3:115200")
	if err != nil {
		t.Fatalf("first parse: %v", err)
	}
	if !first.FlowControl || first.Path != "COM3" {
		t.Fatalf("unexpected first descriptor %+v", first)
	}

	second, err := Parse("udp://:14550")
	if err != nil {
		t.Fatalf("second parse: %v", err)
	}
	want := Descriptor{Protocol: ProtocolUDP, Port: 14550}
	if second != want {
		t.Errorf("second = %+v, want %+v", second, want)
	}

	// A failed parse after a successful one must not leak fields either.
	third, err := Parse("serial_fd://abc")
	if err == nil {
		t.Fatal("expected error")
	}
	if third != (Descriptor{}) {
		t.Errorf("third = %+v, want zero value", third)
	}
}

func TestParse_NumericRoundTrip(t *testing.T) {
	for n := 0; n <= maxPort; n++ {
		text := strconv.Itoa(n)

		d, err := Parse("udp://:" + text)
		if err != nil {
			t.Fatalf("port %s: %v", text, err)
		}
		if d.Port != n {
			t.Fatalf("port %s parsed as %d", text, d.Port)
		}

		d, err = Parse("serial:///dev/ttyS0:" + text)
		if err != nil {
			t.Fatalf("baudrate %s: %v", text, err)
		}
		if d.Baudrate != n {
			t.Fatalf("baudrate %s parsed as %d", text, d.Baudrate)
		}
	}
}

func TestParse_LeadingZeros(t *testing.T) {
	d, err := Parse("tcp://h:00080")
	if err != nil {
		t.Fatalf("Parse error: %v", err)
	}
	if d.Port != 80 {
		t.Errorf("port = %d, want 80", d.Port)
	}
}

func TestParseError_Format(t *testing.T) {
	_, err := Parse("udp://host:99999")
	want := `linkuri: port out of range: port "99999" in "udp://host:99999"`
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}

	_, err = Parse("serial://")
	want = `linkuri: serial device path required: path in "serial://"`
	if got := err.Error(); got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestKind_String(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{UnknownProtocol, "UNKNOWN_PROTOCOL"},
		{PortOutOfRange, "PORT_OUT_OF_RANGE"},
		{NegativePort, "NEGATIVE_PORT"},
		{NonNumericBaudrate, "NON_NUMERIC_BAUDRATE"},
		{Kind(0), "KIND(0)"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", int(tt.kind), got, tt.want)
		}
	}
}

func TestKindOf(t *testing.T) {
	_, err := Parse("serial://COM")
	if got := KindOf(err); got != MissingComPortNumber {
		t.Errorf("KindOf = %s, want %s", got, MissingComPortNumber)
	}
	if got := KindOf(errors.New("other")); got != 0 {
		t.Errorf("KindOf(other) = %s, want 0", got)
	}
	if got := KindOf(nil); got != 0 {
		t.Errorf("KindOf(nil) = %s, want 0", got)
	}
}

func TestSchemes_ReturnsCopy(t *testing.T) {
	s := Schemes()
	s[0].Token = "mutated"
	if Schemes()[0].Token != "udp" {
		t.Error("Schemes exposes internal slice")
	}
}

func TestProtocol_TextRoundTrip(t *testing.T) {
	for _, p := range []Protocol{ProtocolNone, ProtocolUDP, ProtocolTCP, ProtocolSerial} {
		text, err := p.MarshalText()
		if err != nil {
			t.Fatalf("MarshalText(%v): %v", p, err)
		}
		var got Protocol
		if err := got.UnmarshalText(text); err != nil || got != p {
			t.Errorf("UnmarshalText(%q) = %v, %v; want %v", text, got, err, p)
		}
	}

	var p Protocol
	if err := p.UnmarshalText([]byte("usb")); err == nil {
		t.Error("UnmarshalText accepted an unknown name")
	}
}

func TestDescriptor_JSONKeepsDescriptorZero(t *testing.T) {
	d, err := Parse("serial_fd://0")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}

	raw, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	var fields map[string]interface{}
	if err := json.Unmarshal(raw, &fields); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}

	if fields["from_descriptor"] != true {
		t.Errorf("from_descriptor = %v in %s", fields["from_descriptor"], raw)
	}
	if n, ok := fields["descriptor_number"]; !ok || n != float64(0) {
		t.Errorf("descriptor_number = %v (present %v) in %s", n, ok, raw)
	}
}
