package sink

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/vk/wellformed/internal/batch"
)

// Lines writes one "index:verdict" line per verdict.
type Lines struct {
	mu     sync.Mutex
	w      io.Writer
	closed bool
}

// NewLines returns a Lines sink writing to w.
func NewLines(w io.Writer) *Lines {
	return &Lines{w: w}
}

// Emit writes the verdict line in a single Write call.
func (l *Lines) Emit(_ context.Context, v batch.Verdict) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return ErrClosed
	}
	if _, err := io.WriteString(l.w, v.String()+"\n"); err != nil {
		return fmt.Errorf("failed to write verdict %d: %w", v.Index, err)
	}
	return nil
}

// Close stops further writes. The underlying writer is not closed.
func (l *Lines) Close(context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	return nil
}
