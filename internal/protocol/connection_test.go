package protocol

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap/zaptest"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

func testLinkConfig() config.LinkConfig {
	cfg := config.DefaultLinkConfig()
	cfg.ConnectTimeout = time.Second
	cfg.ReadTimeout = 2 * time.Second
	cfg.WriteTimeout = time.Second
	return cfg
}

func TestUDPConnection_ReadThenReply(t *testing.T) {
	ctx := context.Background()
	ep := Endpoint{Protocol: linkuri.ProtocolUDP, Host: "127.0.0.1", Port: 0}
	uc := NewUDPConnection(ep, testLinkConfig(), zaptest.NewLogger(t))

	if err := uc.Write(ctx, []byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Fatalf("write before open: err = %v, want ErrNotOpen", err)
	}

	if err := uc.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer uc.Close()

	if err := uc.Write(ctx, []byte("x")); !errors.Is(err, ErrNoRemote) {
		t.Fatalf("write without remote: err = %v, want ErrNoRemote", err)
	}

	peer, err := net.DialUDP("udp", nil, uc.LocalAddr().(*net.UDPAddr))
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer peer.Close()

	if _, err := peer.Write([]byte("heartbeat")); err != nil {
		t.Fatalf("peer write: %v", err)
	}

	got, err := uc.Read(ctx, 64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "heartbeat" {
		t.Errorf("read %q, want heartbeat", got)
	}
	if uc.Remote() == nil || uc.Remote().String() != peer.LocalAddr().String() {
		t.Errorf("remote = %v, want %v", uc.Remote(), peer.LocalAddr())
	}

	if err := uc.Write(ctx, []byte("ack")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	peer.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := peer.Read(buf)
	if err != nil {
		t.Fatalf("peer read: %v", err)
	}
	if string(buf[:n]) != "ack" {
		t.Errorf("peer read %q, want ack", buf[:n])
	}

	stats := uc.Stats()
	if stats.BytesRead != 9 || stats.BytesWritten != 3 || !stats.IsConnected {
		t.Errorf("stats = %+v", stats)
	}

	if err := uc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if uc.IsOpen() {
		t.Error("still open after Close")
	}
}

func TestUDPConnection_ReadCanceled(t *testing.T) {
	ep := Endpoint{Protocol: linkuri.ProtocolUDP, Host: "127.0.0.1", Port: 0}
	uc := NewUDPConnection(ep, testLinkConfig(), zaptest.NewLogger(t))
	if err := uc.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer uc.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if _, err := uc.Read(ctx, 64); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want deadline exceeded", err)
	}
	if uc.Stats().ErrorCount != 0 {
		t.Error("cancellation counted as error")
	}
}

func TestUDPConnection_ReadDeadlineIsIdle(t *testing.T) {
	cfg := testLinkConfig()
	cfg.ReadTimeout = 20 * time.Millisecond
	ep := Endpoint{Protocol: linkuri.ProtocolUDP, Host: "127.0.0.1", Port: 0}
	uc := NewUDPConnection(ep, cfg, zaptest.NewLogger(t))
	if err := uc.Open(context.Background()); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer uc.Close()

	_, err := uc.Read(context.Background(), 64)
	if !IsTimeout(err) {
		t.Fatalf("err = %v, want a timeout", err)
	}
	if uc.Stats().ErrorCount != 0 {
		t.Error("idle deadline counted as error")
	}
}

func TestIsTimeout(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"not open", ErrNotOpen, false},
		{"deadline", os.ErrDeadlineExceeded, true},
		{"wrapped deadline", fmt.Errorf("failed to read: %w", os.ErrDeadlineExceeded), true},
		{"closed", net.ErrClosed, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTimeout(tt.err); got != tt.want {
				t.Errorf("IsTimeout(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

func TestTCPConnection_RoundTrip(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()

	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		buf := make([]byte, 64)
		n, err := conn.Read(buf)
		if err != nil {
			return
		}
		conn.Write(bytes.ToUpper(buf[:n]))
	}()

	addr := ln.Addr().(*net.TCPAddr)
	ep := Endpoint{Protocol: linkuri.ProtocolTCP, Host: "127.0.0.1", Port: addr.Port}
	tc := NewTCPConnection(ep, testLinkConfig(), zaptest.NewLogger(t))

	ctx := context.Background()
	if err := tc.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer tc.Close()

	if err := tc.Write(ctx, []byte("ping")); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := tc.Read(ctx, 64)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != "PING" {
		t.Errorf("read %q, want PING", got)
	}
}

func TestTCPConnection_OpenRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	port := ln.Addr().(*net.TCPAddr).Port
	ln.Close()

	ep := Endpoint{Protocol: linkuri.ProtocolTCP, Host: "127.0.0.1", Port: port}
	tc := NewTCPConnection(ep, testLinkConfig(), zaptest.NewLogger(t))
	if err := tc.Open(context.Background()); err == nil {
		tc.Close()
		t.Fatal("expected dial error")
	}
	if tc.IsOpen() {
		t.Error("open after failed dial")
	}
}

// fakePort records writes and replays a canned read
type fakePort struct {
	serial.Port
	written     bytes.Buffer
	readData    []byte
	readTimeout time.Duration
	closed      bool
}

func (p *fakePort) Write(b []byte) (int, error) { return p.written.Write(b) }

func (p *fakePort) Read(b []byte) (int, error) {
	n := copy(b, p.readData)
	p.readData = p.readData[n:]
	return n, nil
}

func (p *fakePort) SetReadTimeout(t time.Duration) error {
	p.readTimeout = t
	return nil
}

func (p *fakePort) Close() error {
	p.closed = true
	return nil
}

func TestSerialConnection_ModeAndIO(t *testing.T) {
	tests := []struct {
		name        string
		uri         string
		wantBaud    int
		wantPath    string
		flowControl bool
	}{
		{"posix default baud", "serial:///dev/ttyUSB0", 57600, "/dev/ttyUSB0", false},
		{"com with flow control", "serial_flowcontrol://COM3:115200", 115200, "COM3", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testLinkConfig()
			ep, err := ResolveEndpoint(mustParse(t, tt.uri), cfg)
			if err != nil {
				t.Fatalf("ResolveEndpoint: %v", err)
			}

			port := &fakePort{readData: []byte{0xFE, 0x09}}
			var gotPath string
			var gotMode *serial.Mode

			sc := NewSerialConnection(ep, cfg, zaptest.NewLogger(t))
			sc.open = func(path string, mode *serial.Mode) (serial.Port, error) {
				gotPath = path
				gotMode = mode
				return port, nil
			}

			ctx := context.Background()
			if err := sc.Open(ctx); err != nil {
				t.Fatalf("Open: %v", err)
			}

			if gotPath != tt.wantPath {
				t.Errorf("path = %q, want %q", gotPath, tt.wantPath)
			}
			if gotMode.BaudRate != tt.wantBaud || gotMode.DataBits != 8 {
				t.Errorf("mode = %+v", gotMode)
			}
			if tt.flowControl {
				if gotMode.InitialStatusBits == nil || !gotMode.InitialStatusBits.RTS {
					t.Error("flow control did not raise RTS")
				}
			} else if gotMode.InitialStatusBits != nil {
				t.Error("status bits set without flow control")
			}
			if port.readTimeout != cfg.ReadTimeout {
				t.Errorf("read timeout = %v", port.readTimeout)
			}

			if err := sc.Write(ctx, []byte{1, 2, 3}); err != nil {
				t.Fatalf("Write: %v", err)
			}
			if !bytes.Equal(port.written.Bytes(), []byte{1, 2, 3}) {
				t.Errorf("written = %v", port.written.Bytes())
			}

			got, err := sc.Read(ctx, 16)
			if err != nil {
				t.Fatalf("Read: %v", err)
			}
			if !bytes.Equal(got, []byte{0xFE, 0x09}) {
				t.Errorf("read = %v", got)
			}

			if err := sc.Close(); err != nil {
				t.Fatalf("Close: %v", err)
			}
			if !port.closed || sc.IsOpen() {
				t.Error("port not closed")
			}
		})
	}
}

func TestSerialConnection_OpenError(t *testing.T) {
	ep := Endpoint{Protocol: linkuri.ProtocolSerial, Path: "/dev/nonexistent", Baudrate: 57600}
	sc := NewSerialConnection(ep, testLinkConfig(), zaptest.NewLogger(t))
	openErr := errors.New("no such device")
	sc.open = func(string, *serial.Mode) (serial.Port, error) { return nil, openErr }

	if err := sc.Open(context.Background()); !errors.Is(err, openErr) {
		t.Errorf("err = %v, want wrapped open error", err)
	}
	if _, err := sc.Read(context.Background(), 8); !errors.Is(err, ErrNotOpen) {
		t.Errorf("read err = %v, want ErrNotOpen", err)
	}
}
