package action

import (
	"context"
	"errors"
	"fmt"

	"github.com/aretw0/tendril/pkg/domain"
)

// SequenceError is the failure reported at a sequence boundary: the step that
// failed and why. Steps after it did not run.
type SequenceError struct {
	Step   int
	Action string
	Err    error
}

func (e *SequenceError) Error() string {
	return fmt.Sprintf("step %d (%s): %v", e.Step, e.Action, e.Err)
}

func (e *SequenceError) Unwrap() error { return e.Err }

// PanicError carries a recovered action handler panic.
type PanicError struct {
	Handler string
	Value   any
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("action %s panicked: %v", e.Handler, e.Value)
}

// IsAbort reports whether err means cancellation rather than failure.
func IsAbort(err error) bool {
	return errors.Is(err, domain.ErrAborted) || errors.Is(err, context.Canceled)
}
