package sink

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/vk/wellformed/internal/batch"
)

// Ordered restores input order in front of another sink. Verdicts are held
// back until every lower index has either been emitted or skipped.
type Ordered struct {
	mu      sync.Mutex
	dst     Sink
	next    int
	pending map[int]batch.Verdict
	skipped map[int]struct{}
	closed  bool
}

// NewOrdered wraps dst. Indexes start at 1.
func NewOrdered(dst Sink) *Ordered {
	return &Ordered{
		dst:     dst,
		next:    1,
		pending: make(map[int]batch.Verdict),
		skipped: make(map[int]struct{}),
	}
}

// Emit implements Sink.
func (o *Ordered) Emit(ctx context.Context, v batch.Verdict) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.pending[v.Index] = v
	return o.flush(ctx)
}

// Skip marks index as never arriving so later verdicts are not held back.
func (o *Ordered) Skip(ctx context.Context, index int) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	o.skipped[index] = struct{}{}
	return o.flush(ctx)
}

// Buffered returns how many verdicts are waiting for a lower index.
func (o *Ordered) Buffered() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.pending)
}

// flush forwards the contiguous run starting at o.next. Caller holds o.mu.
func (o *Ordered) flush(ctx context.Context) error {
	for {
		if v, ok := o.pending[o.next]; ok {
			delete(o.pending, o.next)
			o.next++
			if err := o.dst.Emit(ctx, v); err != nil {
				return err
			}
			continue
		}
		if _, ok := o.skipped[o.next]; ok {
			delete(o.skipped, o.next)
			o.next++
			continue
		}
		return nil
	}
}

// Close forwards whatever is still buffered in index order, then closes the
// wrapped sink.
func (o *Ordered) Close(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return nil
	}
	o.closed = true

	rest := make([]int, 0, len(o.pending))
	for idx := range o.pending {
		rest = append(rest, idx)
	}
	sort.Ints(rest)

	var errs []error
	for _, idx := range rest {
		if err := o.dst.Emit(ctx, o.pending[idx]); err != nil {
			errs = append(errs, err)
		}
		delete(o.pending, idx)
	}
	if err := o.dst.Close(ctx); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
