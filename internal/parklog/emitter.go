// Package parklog implements the single serialized log sink shared by every
// component of the park simulation. The line format is a stable external
// contract (tests grep by tag and first token), so it is produced by a small
// hand-rolled emitter rather than a general leveled logger.
package parklog

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

// Emitter writes one timestamped line per Emit call to an underlying sink.
// All emitters for the same sink must be mutually excluded; Emitter owns that
// exclusion internally so callers never need their own lock.
type Emitter struct {
	mu     sync.Mutex
	w      *bufio.Writer
	closer io.Closer
	t0     time.Time
}

// New opens path for writing (truncating any existing content) and returns an
// Emitter whose timestamps are relative to this call. The parent directory is
// created if missing.
func New(path string) (*Emitter, error) {
	if dir := dirOf(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("parklog: create log dir %q: %w", dir, err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		cwd, _ := os.Getwd()
		return nil, fmt.Errorf("parklog: cannot open log file %q (cwd=%s): %w", path, cwd, err)
	}

	return &Emitter{
		w:      bufio.NewWriter(f),
		closer: f,
		t0:     time.Now(),
	}, nil
}

// NewWriter wraps an already-open writer (used by tests to capture output in
// memory instead of hitting the filesystem).
func NewWriter(w io.Writer) *Emitter {
	return &Emitter{w: bufio.NewWriter(w), t0: time.Now()}
}

func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}

// Emit writes one "t=<ms>ms TAG msg" line. msg is expected to already be in
// "key=value key=value ..." form; Emit does no further formatting of it.
func (e *Emitter) Emit(tag, msg string) {
	ms := time.Since(e.t0).Milliseconds()

	e.mu.Lock()
	defer e.mu.Unlock()
	fmt.Fprintf(e.w, "t=%dms %s %s\n", ms, tag, msg)
	e.w.Flush()
}

// Emitf is a convenience wrapper formatting msg via Sprintf before emitting.
func (e *Emitter) Emitf(tag, format string, args ...any) {
	e.Emit(tag, fmt.Sprintf(format, args...))
}

// Close flushes and closes the underlying sink, if any.
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.w.Flush()
	if e.closer != nil {
		return e.closer.Close()
	}
	return nil
}
