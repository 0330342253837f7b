// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"net"
	"os"
	"sync"
	"time"

	"link-service/internal/linkuri"
)

var (
	ErrUnsupportedProtocol = errors.New("unsupported link protocol")
	ErrNotOpen             = errors.New("link not open")
	ErrNoRemote            = errors.New("no remote endpoint known yet")
)

// LinkProtocol represents an open-able link to a remote device
type LinkProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	GetProtocolType() linkuri.Protocol
	Endpoint() Endpoint
	Stats() ProtocolStats
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// statsRecorder guards ProtocolStats for concurrent readers and writers
type statsRecorder struct {
	mu    sync.Mutex
	stats ProtocolStats
}

func (r *statsRecorder) snapshot() ProtocolStats {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stats
}

func (r *statsRecorder) setConnected(connected bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.IsConnected = connected
	if connected {
		r.stats.LastActivity = time.Now()
	}
}

func (r *statsRecorder) recordWrite(n int, latency time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesWritten += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
	if r.stats.AverageLatency == 0 {
		r.stats.AverageLatency = latency
	} else {
		r.stats.AverageLatency = (r.stats.AverageLatency + latency) / 2
	}
}

func (r *statsRecorder) recordRead(n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.BytesRead += int64(n)
	r.stats.OperationCount++
	r.stats.LastActivity = time.Now()
}

func (r *statsRecorder) recordError() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.stats.ErrorCount++
}

type readResult struct {
	data []byte
	err  error
}

// readWithContext runs a blocking read in a goroutine so ctx cancellation
// returns promptly. The read itself is bounded by the transport's deadline.
func readWithContext(ctx context.Context, maxBytes int, read func([]byte) (int, error)) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	done := make(chan readResult, 1)
	go func() {
		buffer := make([]byte, maxBytes)
		n, err := read(buffer)
		done <- readResult{data: buffer[:n], err: err}
	}()

	select {
	case result := <-done:
		return result.data, result.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// IsTimeout reports whether err is a read or write deadline expiring, which
// on an idle link just means no data arrived in time
func IsTimeout(err error) bool {
	if errors.Is(err, os.ErrDeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
