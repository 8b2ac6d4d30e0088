// Package sink defines where verdicts go once the dispatcher produced them.
//
// The dispatcher calls a sink from a single goroutine, but every sink in this
// package is also safe for concurrent use.
package sink

import (
	"context"
	"errors"

	"github.com/vk/wellformed/internal/batch"
)

// ErrClosed is returned by Emit after Close.
var ErrClosed = errors.New("sink closed")

// Sink receives verdicts.
type Sink interface {
	Emit(ctx context.Context, v batch.Verdict) error
	Close(ctx context.Context) error
}

// Skipper is implemented by sinks that need to know about indexes that will
// never produce a verdict.
type Skipper interface {
	Skip(ctx context.Context, index int) error
}

// Multi forwards every call to all of its sinks.
type Multi []Sink

// Emit implements Sink. Every sink sees the verdict even if an earlier one
// failed.
func (m Multi) Emit(ctx context.Context, v batch.Verdict) error {
	var errs []error
	for _, s := range m {
		if err := s.Emit(ctx, v); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Skip implements Skipper for the members that support it.
func (m Multi) Skip(ctx context.Context, index int) error {
	var errs []error
	for _, s := range m {
		if sk, ok := s.(Skipper); ok {
			if err := sk.Skip(ctx, index); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}

// Close implements Sink.
func (m Multi) Close(ctx context.Context) error {
	var errs []error
	for _, s := range m {
		if err := s.Close(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
