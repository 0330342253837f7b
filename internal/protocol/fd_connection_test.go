//go:build unix

package protocol

import (
	"context"
	"errors"
	"os"
	"strconv"
	"syscall"
	"testing"
	"time"

	"go.uber.org/zap/zaptest"

	"link-service/internal/linkuri"
)

func TestFDConnection_WritesToInheritedDescriptor(t *testing.T) {
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("pipe: %v", err)
	}
	defer r.Close()
	defer w.Close()

	// The connection takes ownership of its descriptor, so hand it a dup.
	fd, err := syscall.Dup(int(w.Fd()))
	if err != nil {
		t.Fatalf("dup: %v", err)
	}

	d, err := linkuri.Parse("serial_fd://" + strconv.Itoa(fd) + ":57600")
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	ep, err := ResolveEndpoint(d, testLinkConfig())
	if err != nil {
		t.Fatalf("ResolveEndpoint: %v", err)
	}

	fc := NewFDConnection(ep, testLinkConfig(), zaptest.NewLogger(t))
	ctx := context.Background()
	if err := fc.Open(ctx); err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := fc.Write(ctx, []byte("mavlink")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	r.SetReadDeadline(time.Now().Add(2 * time.Second))
	buf := make([]byte, 16)
	n, err := r.Read(buf)
	if err != nil {
		t.Fatalf("pipe read: %v", err)
	}
	if string(buf[:n]) != "mavlink" {
		t.Errorf("read %q, want mavlink", buf[:n])
	}

	if err := fc.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if err := fc.Write(ctx, []byte("x")); !errors.Is(err, ErrNotOpen) {
		t.Errorf("write after close: err = %v, want ErrNotOpen", err)
	}
}

func TestFDConnection_BadDescriptor(t *testing.T) {
	ep := Endpoint{Protocol: linkuri.ProtocolSerial, FromDescriptor: true, FD: 1 << 20, Baudrate: 57600}
	fc := NewFDConnection(ep, testLinkConfig(), zaptest.NewLogger(t))
	if err := fc.Open(context.Background()); err == nil {
		fc.Close()
		t.Fatal("expected error for unused descriptor")
	}
}
