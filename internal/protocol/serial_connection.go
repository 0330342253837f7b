// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"link-service/internal/config"
	"link-service/internal/linkuri"
)

// portOpener opens a serial device; swapped in tests
type portOpener func(path string, mode *serial.Mode) (serial.Port, error)

// SerialConnection implements LinkProtocol for serial device paths
type SerialConnection struct {
	endpoint    Endpoint
	readTimeout time.Duration
	open        portOpener
	port        serial.Port
	logger      *zap.Logger
	mutex       sync.RWMutex
	isOpen      bool
	stats       statsRecorder
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(ep Endpoint, defaults config.LinkConfig, logger *zap.Logger) *SerialConnection {
	return &SerialConnection{
		endpoint:    ep,
		readTimeout: defaults.ReadTimeout,
		open:        serial.Open,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", ep.Path),
		),
	}
}

// serialMode builds the 8N1 mode for an endpoint. go.bug.st/serial has no
// RTS/CTS setting, so flow control raises RTS and DTR on open.
func serialMode(ep Endpoint) *serial.Mode {
	mode := &serial.Mode{
		BaudRate: ep.Baudrate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
	if ep.FlowControl {
		mode.InitialStatusBits = &serial.ModemOutputBits{RTS: true, DTR: true}
	}
	return mode
}

// Open opens the serial connection
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	sc.logger.Info("Opening serial port",
		zap.Int("baud_rate", sc.endpoint.Baudrate),
		zap.Bool("flow_control", sc.endpoint.FlowControl),
	)

	port, err := sc.open(sc.endpoint.Path, serialMode(sc.endpoint))
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port %s: %w", sc.endpoint.Path, err)
	}

	if sc.readTimeout > 0 {
		if err := port.SetReadTimeout(sc.readTimeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.setConnected(true)

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial connection
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	sc.stats.setConnected(false)

	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	startTime := time.Now()
	n, err := sc.port.Write(data)
	if err != nil {
		sc.stats.recordError()
		sc.logger.Error("Serial write failed", zap.Error(err))
		return fmt.Errorf("failed to write to serial port: %w", err)
	}
	if n != len(data) {
		sc.stats.recordError()
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	sc.stats.recordWrite(n, time.Since(startTime))
	sc.logger.Debug("Serial write completed", zap.Int("bytes", n))
	return nil
}

// Read reads data from the serial port. A read timeout yields an empty slice.
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}

	data, err := readWithContext(ctx, maxBytes, sc.port.Read)
	if err != nil && !errors.Is(err, io.EOF) {
		if ctx.Err() == nil {
			sc.stats.recordError()
		}
		return nil, fmt.Errorf("failed to read from serial port: %w", err)
	}

	sc.stats.recordRead(len(data))
	return data, nil
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() linkuri.Protocol {
	return linkuri.ProtocolSerial
}

// Endpoint returns the resolved endpoint
func (sc *SerialConnection) Endpoint() Endpoint {
	return sc.endpoint
}

// Stats returns a snapshot of the connection statistics
func (sc *SerialConnection) Stats() ProtocolStats {
	return sc.stats.snapshot()
}
