// Package telemetry adapts OpenTelemetry spans to the tracer port and forwards
// them, together with task output, to a renderer.
package telemetry

import (
	"bytes"
	"errors"
	"sync"
	"time"
)

const (
	// DefaultSizeLimit is the default buffer size (4KB) if not specified.
	DefaultSizeLimit = 4096
	// DefaultTimeLimit is the default flush interval (50ms) if not specified.
	DefaultTimeLimit = 50 * time.Millisecond
)

// errBatcherClosed is returned by Write after Close.
var errBatcherClosed = errors.New("batch processor is closed")

// BatchProcessor coalesces task output into chunks. A chunk is handed to the
// callback once it reaches the size limit, or once the time limit has passed
// since its first byte was written. It is safe for concurrent use.
type BatchProcessor struct {
	sizeLimit int
	timeLimit time.Duration
	onFlush   func([]byte)

	mu     sync.Mutex
	buffer bytes.Buffer
	timer  *time.Timer
	closed bool
}

// NewBatchProcessor returns a new BatchProcessor. Non-positive limits select the
// defaults.
func NewBatchProcessor(sizeLimit int, timeLimit time.Duration, onFlush func([]byte)) *BatchProcessor {
	if sizeLimit <= 0 {
		sizeLimit = DefaultSizeLimit
	}
	if timeLimit <= 0 {
		timeLimit = DefaultTimeLimit
	}
	return &BatchProcessor{
		sizeLimit: sizeLimit,
		timeLimit: timeLimit,
		onFlush:   onFlush,
	}
}

// Write appends p to the current chunk. The first write into an empty chunk
// arms the time limit.
func (bp *BatchProcessor) Write(p []byte) (int, error) {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return 0, errBatcherClosed
	}

	n, _ := bp.buffer.Write(p)
	switch {
	case bp.buffer.Len() >= bp.sizeLimit:
		bp.flushLocked()
	case bp.timer == nil:
		bp.timer = time.AfterFunc(bp.timeLimit, bp.Flush)
	}
	return n, nil
}

// Flush hands the current chunk to the callback.
func (bp *BatchProcessor) Flush() {
	bp.mu.Lock()
	defer bp.mu.Unlock()
	if bp.closed {
		return
	}
	bp.flushLocked()
}

// Close flushes the last chunk. Later writes fail.
func (bp *BatchProcessor) Close() error {
	bp.mu.Lock()
	defer bp.mu.Unlock()

	if bp.closed {
		return nil
	}
	bp.closed = true
	bp.flushLocked()
	return nil
}

// flushLocked must be called with mu held. The callback runs under the lock to keep
// chunks in order.
func (bp *BatchProcessor) flushLocked() {
	if bp.timer != nil {
		bp.timer.Stop()
		bp.timer = nil
	}
	if bp.buffer.Len() == 0 {
		return
	}

	data := bytes.Clone(bp.buffer.Bytes())
	bp.buffer.Reset()

	if bp.onFlush != nil {
		bp.onFlush(data)
	}
}
