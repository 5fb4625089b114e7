// Package eventlog persists attempt records as newline delimited JSON and
// mirrors them to the operator console.
package eventlog

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/l3montree-dev/lowpot/packages/metrics"
	"github.com/l3montree-dev/lowpot/packages/types"
)

type Logger struct {
	// mu serializes writes to out and guards closed and feed
	mu     sync.Mutex
	out    io.Writer
	closer io.Closer
	closed bool

	console *slog.Logger
	metrics *metrics.Metrics
	feed    chan types.AttemptRecord
}

type Option func(*Logger)

// WithConsole sets the operator facing logger. Defaults to slog.Default().
func WithConsole(console *slog.Logger) Option {
	return func(l *Logger) {
		l.console = console
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Logger) {
		l.metrics = m
	}
}

// WithFeed publishes every persisted record on a buffered channel returned by Feed.
// Records are dropped when the buffer is full.
func WithFeed(buffer int) Option {
	return func(l *Logger) {
		l.feed = make(chan types.AttemptRecord, buffer)
	}
}

func New(out io.Writer, opts ...Option) *Logger {
	l := &Logger{out: out}
	if c, ok := out.(io.Closer); ok {
		l.closer = c
	}
	for _, opt := range opts {
		opt(l)
	}
	if l.console == nil {
		l.console = slog.Default()
	}
	return l
}

// Open appends to the log file at path, creating it if needed.
func Open(path string, opts ...Option) (*Logger, error) {
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open event log %s: %w", path, err)
	}
	return New(file, opts...), nil
}

// Record persists one attempt and mirrors it to the console. Failures are
// reported on the console and never returned to the caller.
func (l *Logger) Record(rec types.AttemptRecord) {
	line, err := types.Marshal(rec)
	if err == nil {
		err = l.write(line, rec)
	}
	if err != nil {
		l.metrics.LogWriteFailed()
		l.console.Error("could not persist attempt", "service", rec.Service, "client_ip", rec.ClientIP, "err", err)
	}

	l.console.Info(fmt.Sprintf("%s attempt", rec.Service),
		"client_ip", rec.ClientIP,
		"data", rec.Data,
		"timestamp", rec.Timestamp.Format(types.TimestampLayout),
	)
}

// write emits the whole line with a single Write call under the lock.
func (l *Logger) write(line []byte, rec types.AttemptRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return os.ErrClosed
	}
	n, err := l.out.Write(line)
	if err != nil {
		return err
	}
	if n < len(line) {
		return io.ErrShortWrite
	}
	l.metrics.AttemptRecorded(rec.Service)

	if l.feed != nil {
		select {
		case l.feed <- rec:
		default:
			slog.Warn("event feed full, dropping record")
		}
	}
	return nil
}

// Feed returns nil unless the logger was built WithFeed.
func (l *Logger) Feed() <-chan types.AttemptRecord {
	return l.feed
}

// Close releases the log target and closes the feed. Later records are reported as failures.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return nil
	}
	l.closed = true
	if l.feed != nil {
		close(l.feed)
	}
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
