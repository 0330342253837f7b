// internal/protocol/udp_connection.go
package protocol

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

// UDPConnection implements LinkProtocol for UDP. It binds the endpoint
// address locally and replies to whichever peer sent the latest datagram.
type UDPConnection struct {
	endpoint Endpoint
	config   config.LinkConfig
	conn     *net.UDPConn
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    statsRecorder

	remoteMu sync.RWMutex
	remote   *net.UDPAddr
}

// NewUDPConnection creates a new UDP connection
func NewUDPConnection(ep Endpoint, defaults config.LinkConfig, logger *zap.Logger) *UDPConnection {
	return &UDPConnection{
		endpoint: ep,
		config:   defaults,
		logger: logger.With(
			zap.String("protocol", "udp"),
			zap.String("address", ep.Address()),
		),
	}
}

// Open binds the local UDP socket
func (uc *UDPConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Binding UDP socket")

	var lc net.ListenConfig
	packetConn, err := lc.ListenPacket(ctx, "udp", uc.endpoint.Address())
	if err != nil {
		uc.logger.Error("Failed to bind UDP socket", zap.Error(err))
		return fmt.Errorf("failed to bind %s: %w", uc.endpoint.Address(), err)
	}

	conn, ok := packetConn.(*net.UDPConn)
	if !ok {
		packetConn.Close()
		return fmt.Errorf("unexpected packet conn type %T", packetConn)
	}

	uc.conn = conn
	uc.isOpen = true
	uc.stats.setConnected(true)

	uc.logger.Info("UDP socket bound", zap.String("local", conn.LocalAddr().String()))
	return nil
}

// Close closes the UDP socket
func (uc *UDPConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.conn == nil {
		return nil
	}

	err := uc.conn.Close()
	uc.conn = nil
	uc.isOpen = false
	uc.stats.setConnected(false)

	if err != nil {
		uc.logger.Error("Failed to close UDP socket", zap.Error(err))
		return fmt.Errorf("failed to close UDP socket: %w", err)
	}

	uc.logger.Info("UDP socket closed")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *UDPConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.conn != nil
}

// LocalAddr returns the bound address, or nil if not open
func (uc *UDPConnection) LocalAddr() net.Addr {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	if uc.conn == nil {
		return nil
	}
	return uc.conn.LocalAddr()
}

// Remote returns the peer that sent the latest datagram
func (uc *UDPConnection) Remote() *net.UDPAddr {
	uc.remoteMu.RLock()
	defer uc.remoteMu.RUnlock()
	return uc.remote
}

// Write sends data to the latest known peer
func (uc *UDPConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.conn == nil {
		return ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	remote := uc.Remote()
	if remote == nil {
		return ErrNoRemote
	}

	if uc.config.WriteTimeout > 0 {
		uc.conn.SetWriteDeadline(time.Now().Add(uc.config.WriteTimeout))
	}

	startTime := time.Now()
	n, err := uc.conn.WriteToUDP(data, remote)
	if err != nil {
		uc.stats.recordError()
		uc.logger.Error("UDP write failed", zap.Error(err))
		return fmt.Errorf("failed to write to %s: %w", remote, err)
	}

	uc.stats.recordWrite(n, time.Since(startTime))
	return nil
}

// Read receives one datagram and remembers its sender
func (uc *UDPConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()

	if !uc.isOpen || uc.conn == nil {
		return nil, ErrNotOpen
	}

	if uc.config.ReadTimeout > 0 {
		uc.conn.SetReadDeadline(time.Now().Add(uc.config.ReadTimeout))
	}

	conn := uc.conn
	data, err := readWithContext(ctx, maxBytes, func(buf []byte) (int, error) {
		n, addr, err := conn.ReadFromUDP(buf)
		if err == nil && addr != nil {
			uc.remoteMu.Lock()
			if uc.remote == nil || uc.remote.String() != addr.String() {
				uc.logger.Info("UDP remote discovered", zap.String("remote", addr.String()))
			}
			uc.remote = addr
			uc.remoteMu.Unlock()
		}
		return n, err
	})
	if err != nil {
		if ctx.Err() == nil && !IsTimeout(err) {
			uc.stats.recordError()
		}
		return nil, fmt.Errorf("failed to read UDP datagram: %w", err)
	}

	uc.stats.recordRead(len(data))
	return data, nil
}

// GetProtocolType returns the protocol type
func (uc *UDPConnection) GetProtocolType() linkuri.Protocol {
	return linkuri.ProtocolUDP
}

// Endpoint returns the resolved endpoint
func (uc *UDPConnection) Endpoint() Endpoint {
	return uc.endpoint
}

// Stats returns a snapshot of the connection statistics
func (uc *UDPConnection) Stats() ProtocolStats {
	return uc.stats.snapshot()
}
