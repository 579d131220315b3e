package replay

import (
	"bufio"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/roach88/vlayer/internal/input"
)

// RecorderOption configures a Recorder.
type RecorderOption func(*Recorder)

// WithFormat selects the log layout. The default is input.FormatFramed.
func WithFormat(format input.Format) RecorderOption {
	return func(r *Recorder) {
		r.format = format
	}
}

// Recorder appends captured events to a log file.
//
// Thread-safety: Recorder is safe for concurrent use.
type Recorder struct {
	path   string
	format input.Format

	mu    sync.Mutex
	f     *os.File
	w     *bufio.Writer
	buf   []byte
	count  int
	err    error
	closed bool
}

// NewRecorder returns a recorder writing to path. The file is created, or
// truncated, on the first Capture.
func NewRecorder(path string, opts ...RecorderOption) *Recorder {
	r := &Recorder{path: path, format: input.FormatFramed}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Path returns the destination file.
func (r *Recorder) Path() string {
	return r.path
}

func (r *Recorder) open() error {
	f, err := os.OpenFile(r.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o644)
	if err != nil {
		return fmt.Errorf("open record log: %w", err)
	}
	r.f = f
	r.w = bufio.NewWriter(f)

	if r.format == input.FormatFramed {
		if _, err := r.w.Write(input.AppendHeader(nil)); err != nil {
			return fmt.Errorf("write log header: %w", err)
		}
	}

	slog.Info("recording input", "path", r.path, "format", r.format)
	return nil
}

// Capture appends ev bound to frame. Failures are logged and remembered;
// after the first failure further captures are dropped. Captures after
// Close are dropped too.
func (r *Recorder) Capture(ev input.TouchEvent, frame uint32) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		slog.Warn("capture after close dropped", "path", r.path, "frame", frame)
		return
	}
	if r.err != nil {
		return
	}
	if err := r.capture(ev, frame); err != nil {
		r.err = err
		slog.Error("input capture failed", "path", r.path, "frame", frame, "error", err)
	}
}

func (r *Recorder) capture(ev input.TouchEvent, frame uint32) error {
	if r.f == nil {
		if err := r.open(); err != nil {
			return err
		}
	}

	p := input.Payload{Event: ev, Frame: frame}
	if r.format == input.FormatFramed {
		r.buf = input.AppendFrame(r.buf[:0], p)
	} else {
		r.buf = input.AppendRecord(r.buf[:0], p)
	}

	if _, err := r.w.Write(r.buf); err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	if err := r.w.Flush(); err != nil {
		return fmt.Errorf("flush record: %w", err)
	}

	r.count++
	slog.Debug("captured input", "frame", frame, "points", len(ev.Points), "count", r.count)
	return nil
}

// Count returns the number of records written.
func (r *Recorder) Count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.count
}

// Err returns the first capture failure, if any.
func (r *Recorder) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// Close flushes and closes the log. Closing a recorder that never captured
// creates no file. The recorder accepts no captures afterwards.
func (r *Recorder) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	if r.f == nil {
		return nil
	}

	flushErr := r.w.Flush()
	closeErr := r.f.Close()
	r.f, r.w = nil, nil

	if flushErr != nil {
		return fmt.Errorf("flush record log: %w", flushErr)
	}
	if closeErr != nil {
		return fmt.Errorf("close record log: %w", closeErr)
	}
	return nil
}
