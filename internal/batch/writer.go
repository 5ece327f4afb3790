package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/gofrs/flock"

	"auprobe/internal/session"
)

// lockRetry is the polling interval while waiting for the output file lock.
const lockRetry = 50 * time.Millisecond

// Record is one JSON line of batch output.
type Record struct {
	Source    string `json:"source"`
	Error     string `json:"error,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
	*session.Result
}

// NewRecord converts an outcome to its output record.
func NewRecord(o Outcome) Record {
	rec := Record{Source: o.Source, Result: o.Result}
	if o.Err != nil {
		rec.Error = o.Err.Error()
		rec.Retryable = o.Retryable()
		rec.Result = nil
	}
	return rec
}

func encodeLine(o Outcome) ([]byte, error) {
	data, err := json.Marshal(NewRecord(o))
	if err != nil {
		return nil, fmt.Errorf("encode record for %s: %w", o.Source, err)
	}
	return append(data, '\n'), nil
}

// JSONLWriter appends records to a file. Each write holds an exclusive
// flock on <path>.lock so concurrent auprobe processes sharing an output
// file never interleave lines.
type JSONLWriter struct {
	path string
	lock *flock.Flock
	mu   sync.Mutex
}

// NewJSONLWriter returns a writer appending to path.
func NewJSONLWriter(path string) *JSONLWriter {
	return &JSONLWriter{path: path, lock: flock.New(path + ".lock")}
}

// Path returns the output file path.
func (w *JSONLWriter) Path() string { return w.path }

// Write appends the record for o.
func (w *JSONLWriter) Write(ctx context.Context, o Outcome) error {
	line, err := encodeLine(o)
	if err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	locked, err := w.lock.TryLockContext(ctx, lockRetry)
	if err != nil {
		return fmt.Errorf("lock %s: %w", w.path, err)
	}
	if !locked {
		return fmt.Errorf("lock %s: not acquired", w.path)
	}
	defer func() { _ = w.lock.Unlock() }()

	file, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", w.path, err)
	}
	if _, err := file.Write(line); err != nil {
		_ = file.Close()
		return fmt.Errorf("write %s: %w", w.path, err)
	}
	return file.Close()
}

// StreamWriter writes records to an io.Writer such as stdout.
type StreamWriter struct {
	w  io.Writer
	mu sync.Mutex
}

// NewStreamWriter wraps w.
func NewStreamWriter(w io.Writer) *StreamWriter {
	return &StreamWriter{w: w}
}

// Write emits the record for o.
func (s *StreamWriter) Write(_ context.Context, o Outcome) error {
	line, err := encodeLine(o)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.w.Write(line)
	return err
}
