// internal/protocol/fd_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

// FDConnection implements LinkProtocol for a serial line inherited as an
// already-open OS descriptor. The line discipline and baudrate are whatever
// the process that handed over the descriptor configured.
type FDConnection struct {
	endpoint    Endpoint
	readTimeout time.Duration
	file        *os.File
	logger      *zap.Logger
	mutex       sync.RWMutex
	isOpen      bool
	stats       statsRecorder
}

// NewFDConnection creates a connection over an inherited descriptor
func NewFDConnection(ep Endpoint, defaults config.LinkConfig, logger *zap.Logger) *FDConnection {
	return &FDConnection{
		endpoint:    ep,
		readTimeout: defaults.ReadTimeout,
		logger: logger.With(
			zap.String("protocol", "serial_fd"),
			zap.Int("fd", ep.FD),
		),
	}
}

// Open wraps the descriptor. The descriptor is owned by the connection from
// here on and is closed by Close.
func (fc *FDConnection) Open(ctx context.Context) error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if fc.isOpen {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if fc.endpoint.FD < 0 {
		return fmt.Errorf("invalid descriptor %d", fc.endpoint.FD)
	}

	file := os.NewFile(uintptr(fc.endpoint.FD), fmt.Sprintf("serial_fd:%d", fc.endpoint.FD))
	if file == nil {
		return fmt.Errorf("invalid descriptor %d", fc.endpoint.FD)
	}
	if _, err := file.Stat(); err != nil {
		return fmt.Errorf("descriptor %d not usable: %w", fc.endpoint.FD, err)
	}

	fc.file = file
	fc.isOpen = true
	fc.stats.setConnected(true)

	fc.logger.Info("Serial descriptor attached")
	return nil
}

// Close closes the descriptor
func (fc *FDConnection) Close() error {
	fc.mutex.Lock()
	defer fc.mutex.Unlock()

	if !fc.isOpen || fc.file == nil {
		return nil
	}

	err := fc.file.Close()
	fc.file = nil
	fc.isOpen = false
	fc.stats.setConnected(false)

	if err != nil {
		fc.logger.Error("Failed to close serial descriptor", zap.Error(err))
		return fmt.Errorf("failed to close descriptor: %w", err)
	}

	fc.logger.Info("Serial descriptor closed")
	return nil
}

// IsOpen returns whether the connection is open
func (fc *FDConnection) IsOpen() bool {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()
	return fc.isOpen && fc.file != nil
}

// Write writes data to the descriptor
func (fc *FDConnection) Write(ctx context.Context, data []byte) error {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()

	if !fc.isOpen || fc.file == nil {
		return ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := fc.file.Write(data)
	if err != nil {
		fc.stats.recordError()
		fc.logger.Error("Descriptor write failed", zap.Error(err))
		return fmt.Errorf("failed to write to descriptor: %w", err)
	}

	fc.stats.recordWrite(n, time.Since(startTime))
	return nil
}

// Read reads data from the descriptor
func (fc *FDConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	fc.mutex.RLock()
	defer fc.mutex.RUnlock()

	if !fc.isOpen || fc.file == nil {
		return nil, ErrNotOpen
	}

	// Not every descriptor supports deadlines; ctx still bounds the wait.
	if fc.readTimeout > 0 {
		_ = fc.file.SetReadDeadline(time.Now().Add(fc.readTimeout))
	}

	data, err := readWithContext(ctx, maxBytes, fc.file.Read)
	if err != nil && !errors.Is(err, io.EOF) {
		if ctx.Err() == nil {
			fc.stats.recordError()
		}
		return nil, fmt.Errorf("failed to read from descriptor: %w", err)
	}

	fc.stats.recordRead(len(data))
	return data, nil
}

// GetProtocolType returns the protocol type
func (fc *FDConnection) GetProtocolType() linkuri.Protocol {
	return linkuri.ProtocolSerial
}

// Endpoint returns the resolved endpoint
func (fc *FDConnection) Endpoint() Endpoint {
	return fc.endpoint
}

// Stats returns a snapshot of the connection statistics
func (fc *FDConnection) Stats() ProtocolStats {
	return fc.stats.snapshot()
}
