package execution

import (
	"context"

	"github.com/aretw0/tendril/pkg/domain"
)

// AbortSignal is a cooperative cancellation token. A nil *AbortSignal never aborts.
type AbortSignal struct {
	ctx context.Context
}

// NewAbortController derives a signal from parent and returns the function that raises it.
// The signal also aborts when parent is cancelled.
func NewAbortController(parent context.Context) (*AbortSignal, func()) {
	if parent == nil {
		parent = context.Background()
	}
	ctx, cancel := context.WithCancelCause(parent)
	return &AbortSignal{ctx: ctx}, func() { cancel(domain.ErrAborted) }
}

// SignalFromContext adapts an existing context into a signal.
func SignalFromContext(ctx context.Context) *AbortSignal {
	if ctx == nil {
		return nil
	}
	return &AbortSignal{ctx: ctx}
}

// Aborted reports whether the signal has fired.
func (s *AbortSignal) Aborted() bool {
	return s != nil && s.ctx.Err() != nil
}

// Done is closed when the signal fires. It is nil (blocks forever) for a nil signal.
func (s *AbortSignal) Done() <-chan struct{} {
	if s == nil {
		return nil
	}
	return s.ctx.Done()
}

// Err returns nil until the signal fires, then the abort cause
// (domain.ErrAborted, or the parent's cancellation error).
func (s *AbortSignal) Err() error {
	if s == nil || s.ctx.Err() == nil {
		return nil
	}
	return context.Cause(s.ctx)
}

// OnAbort runs fn in its own goroutine once the signal fires. The returned stop
// function detaches fn; it reports false when fn already started.
func (s *AbortSignal) OnAbort(fn func()) (stop func() bool) {
	if s == nil {
		return func() bool { return false }
	}
	return context.AfterFunc(s.ctx, fn)
}

// Context exposes the signal as a context for blocking calls (backends, scripts).
func (s *AbortSignal) Context() context.Context {
	if s == nil {
		return context.Background()
	}
	return s.ctx
}
