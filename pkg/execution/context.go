package execution

import (
	"log/slog"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/jonboulle/clockwork"
)

// Scope keys reserved in the data scope.
const (
	KeyVariables  = "Variables"
	KeyEvent      = "Event"
	KeyArgs       = "Args"
	KeyAttributes = "Attributes"
)

// TriggerFunc reports a named completion event raised by an action handler.
type TriggerFunc func(name string, payload value.Value)

// EmitFunc hands a component event to the host.
type EmitFunc func(event string, payload value.Value)

// Context is created once per top-level evaluation and threaded by pointer
// through every nested call. Evaluation never mutates it; derived contexts are
// produced by the With* methods.
type Context struct {
	Env  Env
	Root Root

	// Data is the scope visible to path formulas (an object).
	Data value.Value

	Signal             *AbortSignal
	TriggerActionEvent TriggerFunc
	Emit               EmitFunc

	// Serialize runs event graphs raised after their handler returned, such
	// as timer ticks. Nil runs them on the raising goroutine.
	Serialize func(fn func())

	// Equal is the comparison used by lookup formulas. Nil means value.Equal.
	Equal func(a, b value.Value) bool
	Clock clockwork.Clock

	SessionStorage *storage.Storage
	LocalStorage   *storage.Storage

	// Variables backs "Variables" in the data scope and setVariable actions.
	Variables *Variables
	// Formulas are the component formulas reachable through apply nodes.
	Formulas map[string]domain.ComponentFormula

	Logger *slog.Logger

	// Namespace is the package unqualified handler names resolve in.
	Namespace string
	Component string
	RunID     string
	Depth     int
}

// New returns a context with empty data, the real clock and a no-op logger.
func New() *Context {
	return &Context{
		Data:   value.Object(nil),
		Clock:  clockwork.NewRealClock(),
		Logger: logging.NewNop(),
	}
}

// EqualFunc returns the injected comparison, defaulting to value.Equal.
func (c *Context) EqualFunc() func(a, b value.Value) bool {
	if c == nil || c.Equal == nil {
		return value.Equal
	}
	return c.Equal
}

// ClockOrReal returns the injected clock or the wall clock.
func (c *Context) ClockOrReal() clockwork.Clock {
	if c == nil || c.Clock == nil {
		return clockwork.NewRealClock()
	}
	return c.Clock
}

// Log returns the context logger, never nil.
func (c *Context) Log() *slog.Logger {
	if c == nil || c.Logger == nil {
		return logging.NewNop()
	}
	return c.Logger
}

// Serialized runs fn through Serialize, or directly when it is unset.
func (c *Context) Serialized(fn func()) {
	if c == nil || c.Serialize == nil {
		fn()
		return
	}
	c.Serialize(fn)
}

// Aborted reports whether the context's signal fired.
func (c *Context) Aborted() bool {
	return c != nil && c.Signal.Aborted()
}

// Scope returns the data scope with "Variables" replaced by a snapshot of the
// current variable values, so callers see a stable view.
func (c *Context) Scope() value.Value {
	if c.Variables == nil {
		return c.Data
	}
	return c.Data.With(KeyVariables, c.Variables.Snapshot())
}

// WithData returns a copy of c evaluating against data.
func (c *Context) WithData(data value.Value) *Context {
	cp := *c
	cp.Data = data
	return &cp
}

// WithEvent binds payload as "Event" in the scope.
func (c *Context) WithEvent(payload value.Value) *Context {
	return c.WithData(c.Data.With(KeyEvent, payload))
}

// WithArgs binds args as "Args" for a component formula body, one level deeper.
func (c *Context) WithArgs(args value.Value) *Context {
	cp := c.WithData(c.Data.With(KeyArgs, args))
	cp.Depth++
	return cp
}

// WithTrigger returns a copy whose triggerActionEvent dispatches through fn.
func (c *Context) WithTrigger(fn TriggerFunc) *Context {
	cp := *c
	cp.TriggerActionEvent = fn
	return &cp
}

// WithSignal returns a copy observing signal.
func (c *Context) WithSignal(signal *AbortSignal) *Context {
	cp := *c
	cp.Signal = signal
	return &cp
}

// Trigger raises a completion event through the side channel. Events raised
// after the signal fired are dropped.
func (c *Context) Trigger(name string, payload value.Value) {
	if c == nil || c.TriggerActionEvent == nil || c.Signal.Aborted() {
		return
	}
	c.TriggerActionEvent(name, payload)
}
