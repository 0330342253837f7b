package service

import (
	"context"
	"errors"
	"net"
	"sync"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest"
	"go.uber.org/zap/zaptest/observer"

	"link-service/internal/config"
	"link-service/internal/linkuri"
	"link-service/internal/model"
	"link-service/internal/protocol"
	"link-service/internal/repository"
)

type fakeProtocol struct {
	mu       sync.Mutex
	ep       protocol.Endpoint
	open     bool
	openErr  error
	closeErr error
	closes   int
	readMax  int
	written  [][]byte
}

func (f *fakeProtocol) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.openErr != nil {
		return f.openErr
	}
	f.open = true
	return nil
}

func (f *fakeProtocol) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.open = false
	f.closes++
	return f.closeErr
}

func (f *fakeProtocol) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *fakeProtocol) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.written = append(f.written, data)
	return nil
}

func (f *fakeProtocol) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.readMax = maxBytes
	return []byte("rx"), nil
}

func (f *fakeProtocol) GetProtocolType() linkuri.Protocol { return f.ep.Protocol }

func (f *fakeProtocol) Endpoint() protocol.Endpoint { return f.ep }

func (f *fakeProtocol) Stats() protocol.ProtocolStats {
	return protocol.ProtocolStats{IsConnected: f.IsOpen()}
}

type harness struct {
	svc    *LinkService
	logs   *observer.ObservedLogs
	protos []*fakeProtocol
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	core, logs := observer.New(zapcore.DebugLevel)
	cfg := &config.Config{Link: config.DefaultLinkConfig()}

	h := &harness{logs: logs}
	h.svc = NewLinkService(repository.NewMemoryLinkRepository(), cfg, zap.New(core))
	h.svc.newProtocol = func(d linkuri.Descriptor, defaults config.LinkConfig, logger *zap.Logger) (protocol.LinkProtocol, error) {
		ep, err := protocol.ResolveEndpoint(d, defaults)
		if err != nil {
			return nil, err
		}
		p := &fakeProtocol{ep: ep}
		h.protos = append(h.protos, p)
		return p, nil
	}
	return h
}

func (h *harness) register(t *testing.T, name, uri string) *model.Link {
	t.Helper()
	link, err := h.svc.RegisterLink(context.Background(), &RegisterLinkRequest{Name: name, URI: uri})
	if err != nil {
		t.Fatalf("RegisterLink(%q): %v", uri, err)
	}
	return link
}

func TestParseURI(t *testing.T) {
	h := newHarness(t)

	desc, ep, err := h.svc.ParseURI("udp://:14550")
	if err != nil {
		t.Fatalf("ParseURI: %v", err)
	}
	if desc.Protocol != linkuri.ProtocolUDP || desc.Path != "" || desc.Port != 14550 {
		t.Errorf("descriptor = %+v", desc)
	}
	if ep.Host != "0.0.0.0" || ep.Port != 14550 {
		t.Errorf("endpoint = %+v", ep)
	}

	_, _, err = h.svc.ParseURI("serial:///dev/ttyS0:fast")
	var pe *linkuri.ParseError
	if !errors.As(err, &pe) || pe.Kind != linkuri.NonNumericBaudrate {
		t.Fatalf("err = %v, want NonNumericBaudrate", err)
	}

	rejected := h.logs.FilterMessage("Connection URI rejected").All()
	if len(rejected) != 1 {
		t.Fatalf("rejected log entries = %d, want 1", len(rejected))
	}
	if got := rejected[0].ContextMap()["kind"]; got != "NON_NUMERIC_BAUDRATE" {
		t.Errorf("logged kind = %v", got)
	}
}

func TestRegisterLink(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)

	link := h.register(t, "sitl", "udp://:14540")
	if link.ID.String() == "" || link.URI != "udp://:14540" {
		t.Errorf("link = %+v", link)
	}

	tests := []struct {
		name string
		req  RegisterLinkRequest
		want error
	}{
		{"empty name", RegisterLinkRequest{Name: " ", URI: "tcp://"}, ErrInvalidRequest},
		{"bad uri", RegisterLinkRequest{Name: "x", URI: "http://host"}, linkuri.ErrUnknownProtocol},
		{"duplicate", RegisterLinkRequest{Name: "sitl", URI: "tcp://"}, repository.ErrLinkExists},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.svc.RegisterLink(ctx, &tt.req)
			if !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetLinkByIDOrName(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	link := h.register(t, "radio", "serial:///dev/ttyUSB0:57600")

	byID, err := h.svc.GetLink(ctx, link.ID.String())
	if err != nil || byID.Name != "radio" {
		t.Errorf("by id = %v, %v", byID, err)
	}
	byName, err := h.svc.GetLink(ctx, "radio")
	if err != nil || byName.ID != link.ID {
		t.Errorf("by name = %v, %v", byName, err)
	}
	if _, err := h.svc.GetLink(ctx, "missing"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("missing err = %v", err)
	}
}

func TestListLinks(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, "a", "udp://")
	h.register(t, "b", "tcp://")
	h.register(t, "c", "serial_fd://3")

	links, page, err := h.svc.ListLinks(ctx, &repository.LinkFilter{PerPage: 2})
	if err != nil {
		t.Fatalf("ListLinks: %v", err)
	}
	if len(links) != 2 || page.Total != 3 || page.TotalPages != 2 || page.Page != 1 {
		t.Errorf("links = %d, pagination = %+v", len(links), page)
	}
}

func TestUpdateLink(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	link := h.register(t, "gcs", "udp://:14550")

	bad := "tcp://host:port"
	if _, err := h.svc.UpdateLink(ctx, "gcs", &UpdateLinkRequest{URI: &bad}); !errors.Is(err, linkuri.ErrNonNumericPort) {
		t.Errorf("bad uri err = %v", err)
	}

	good := "tcp://10.0.0.2:5760"
	desc := "companion"
	updated, err := h.svc.UpdateLink(ctx, link.ID.String(), &UpdateLinkRequest{URI: &good, Description: &desc})
	if err != nil {
		t.Fatalf("UpdateLink: %v", err)
	}
	if updated.URI != good || updated.Description == nil || *updated.Description != desc || updated.Name != "gcs" {
		t.Errorf("updated = %+v", updated)
	}

	if _, err := h.svc.OpenLink(ctx, "gcs"); err != nil {
		t.Fatalf("OpenLink: %v", err)
	}
	other := "udp://"
	if _, err := h.svc.UpdateLink(ctx, "gcs", &UpdateLinkRequest{URI: &other}); !errors.Is(err, ErrLinkOpen) {
		t.Errorf("uri change while open err = %v, want ErrLinkOpen", err)
	}
	rename := "gcs-2"
	if _, err := h.svc.UpdateLink(ctx, "gcs", &UpdateLinkRequest{Name: &rename}); err != nil {
		t.Errorf("rename while open: %v", err)
	}
}

func TestOpenCloseLifecycle(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, "radio", "serial_flowcontrol:///dev/ttyUSB0:921600")

	status, err := h.svc.LinkStatus(ctx, "radio")
	if err != nil {
		t.Fatalf("LinkStatus: %v", err)
	}
	if status.State != model.LinkStateClosed || status.Stats != nil || status.Endpoint.Baudrate != 921600 {
		t.Errorf("closed status = %+v", status)
	}

	status, err = h.svc.OpenLink(ctx, "radio")
	if err != nil {
		t.Fatalf("OpenLink: %v", err)
	}
	if status.State != model.LinkStateOpen || !status.Endpoint.FlowControl || status.Stats == nil || !status.Stats.IsConnected {
		t.Errorf("open status = %+v", status)
	}
	if h.svc.OpenLinkCount() != 1 {
		t.Errorf("OpenLinkCount = %d", h.svc.OpenLinkCount())
	}

	if _, err := h.svc.OpenLink(ctx, "radio"); !errors.Is(err, ErrLinkOpen) {
		t.Errorf("second open err = %v, want ErrLinkOpen", err)
	}
	if err := h.svc.DeleteLink(ctx, "radio"); !errors.Is(err, ErrLinkOpen) {
		t.Errorf("delete while open err = %v, want ErrLinkOpen", err)
	}

	if err := h.svc.CloseLink(ctx, "radio"); err != nil {
		t.Fatalf("CloseLink: %v", err)
	}
	if h.protos[0].closes != 1 {
		t.Errorf("transport closed %d times", h.protos[0].closes)
	}
	if err := h.svc.CloseLink(ctx, "radio"); !errors.Is(err, ErrLinkNotOpen) {
		t.Errorf("second close err = %v, want ErrLinkNotOpen", err)
	}

	if err := h.svc.DeleteLink(ctx, "radio"); err != nil {
		t.Errorf("DeleteLink: %v", err)
	}
	if _, err := h.svc.LinkStatus(ctx, "radio"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Errorf("status after delete err = %v", err)
	}
}

func TestOpenLinkFailure(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, "tcp", "tcp://127.0.0.1:1")

	openErr := errors.New("connection refused")
	h.svc.newProtocol = func(d linkuri.Descriptor, defaults config.LinkConfig, logger *zap.Logger) (protocol.LinkProtocol, error) {
		ep, _ := protocol.ResolveEndpoint(d, defaults)
		return &fakeProtocol{ep: ep, openErr: openErr}, nil
	}

	if _, err := h.svc.OpenLink(ctx, "tcp"); !errors.Is(err, openErr) {
		t.Fatalf("err = %v, want wrapped open error", err)
	}
	if h.svc.OpenLinkCount() != 0 {
		t.Error("failed open left a session behind")
	}

	failures := h.logs.FilterMessage("Link connection event").FilterField(zap.Bool("success", false)).All()
	if len(failures) != 1 {
		t.Errorf("failure log entries = %d, want 1", len(failures))
	}
}

func TestCloseAll(t *testing.T) {
	ctx := context.Background()
	h := newHarness(t)
	h.register(t, "a", "udp://")
	h.register(t, "b", "tcp://")

	for _, name := range []string{"a", "b"} {
		if _, err := h.svc.OpenLink(ctx, name); err != nil {
			t.Fatalf("OpenLink(%s): %v", name, err)
		}
	}
	h.protos[1].closeErr = errors.New("boom")

	err := h.svc.CloseAll()
	if err == nil {
		t.Error("CloseAll should report the failed close")
	}
	if h.svc.OpenLinkCount() != 0 {
		t.Errorf("OpenLinkCount = %d after CloseAll", h.svc.OpenLinkCount())
	}
	for i, p := range h.protos {
		if p.closes != 1 {
			t.Errorf("transport %d closed %d times", i, p.closes)
		}
	}

	if err := h.svc.CloseAll(); err != nil {
		t.Errorf("CloseAll with nothing open: %v", err)
	}
}

func TestOpenLinkRealUDP(t *testing.T) {
	ctx := context.Background()
	cfg := &config.Config{Link: config.DefaultLinkConfig()}
	svc := NewLinkService(repository.NewMemoryLinkRepository(), cfg, zaptest.NewLogger(t))

	if _, err := svc.RegisterLink(ctx, &RegisterLinkRequest{Name: "loop", URI: "udp://127.0.0.1:0"}); err != nil {
		t.Fatalf("RegisterLink: %v", err)
	}

	// Port 0 resolves to the configured default; pick a free one instead.
	cfg.Link.UDPPort = freeUDPPort(t)

	status, err := svc.OpenLink(ctx, "loop")
	if err != nil {
		t.Fatalf("OpenLink: %v", err)
	}
	if status.Endpoint.Protocol != linkuri.ProtocolUDP || status.Endpoint.Host != "127.0.0.1" {
		t.Errorf("endpoint = %+v", status.Endpoint)
	}
	if err := svc.CloseAll(); err != nil {
		t.Errorf("CloseAll: %v", err)
	}
}

func TestAttachStream(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.svc.config.Link.BufferSize = 512
	h.register(t, "sitl", "udp://:14550")

	if _, err := h.svc.AttachStream(ctx, "sitl"); !errors.Is(err, ErrLinkNotOpen) {
		t.Fatalf("attach closed link: err = %v, want ErrLinkNotOpen", err)
	}
	if _, err := h.svc.AttachStream(ctx, "nope"); !errors.Is(err, repository.ErrLinkNotFound) {
		t.Fatalf("attach unknown link: err = %v, want ErrLinkNotFound", err)
	}

	if _, err := h.svc.OpenLink(ctx, "sitl"); err != nil {
		t.Fatalf("OpenLink: %v", err)
	}

	stream, err := h.svc.AttachStream(ctx, "sitl")
	if err != nil {
		t.Fatalf("AttachStream: %v", err)
	}
	if _, err := h.svc.AttachStream(ctx, "sitl"); !errors.Is(err, ErrLinkStreaming) {
		t.Fatalf("second attach: err = %v, want ErrLinkStreaming", err)
	}

	data, err := stream.Read(ctx)
	if err != nil || string(data) != "rx" {
		t.Fatalf("Read = %q, %v", data, err)
	}
	if err := stream.Write(ctx, []byte("tx")); err != nil {
		t.Fatalf("Write: %v", err)
	}

	proto := h.protos[0]
	if proto.readMax != 512 {
		t.Errorf("read size = %d, want configured buffer size 512", proto.readMax)
	}
	if len(proto.written) != 1 || string(proto.written[0]) != "tx" {
		t.Errorf("written = %q", proto.written)
	}

	stream.Close()
	stream.Close()

	again, err := h.svc.AttachStream(ctx, "sitl")
	if err != nil {
		t.Fatalf("attach after release: %v", err)
	}
	again.Close()
}

func freeUDPPort(t *testing.T) int {
	t.Helper()
	conn, err := net.ListenUDP("udp", &net.UDPAddr{IP: net.IPv4(127, 0, 0, 1)})
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).Port
}
