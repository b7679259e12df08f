// Package action executes action graphs: handler invocations, sequences,
// branches, variable writes and component events, linked by named completion
// events raised through the execution context.
package action

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/formula"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/google/uuid"
)

// Executor runs action graphs. Argument formulas are evaluated by the embedded
// formula.Evaluator, and action names resolve through the same resolver.
type Executor struct {
	evaluator *formula.Evaluator
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for sequence failures and dropped events.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Executor) {
		x.logger = logger
	}
}

// WithHooks registers action lifecycle hooks.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(x *Executor) {
		x.hooks = hooks
	}
}

// New creates an Executor.
func New(evaluator *formula.Evaluator, opts ...Option) *Executor {
	x := &Executor{
		evaluator: evaluator,
		logger:    logging.NewNop(),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// WithResolver returns a copy of x whose evaluator resolves through r.
func (x *Executor) WithResolver(r registry.Resolver) *Executor {
	cp := *x
	cp.evaluator = x.evaluator.WithResolver(r)
	return &cp
}

// Trigger runs binding as the top-level sequence for event, with payload bound
// as "Event". It returns once every child has started and every synchronous
// handler (and the events it raised synchronously) has completed.
func (x *Executor) Trigger(ctx *execution.Context, binding domain.EventBinding, event string, payload value.Value) *Run {
	clock := ctx.ClockOrReal()
	run := &Run{
		ID:     uuid.NewString(),
		Event:  event,
		Status: StatusPending,
	}

	runCtx := ctx.WithEvent(payload)
	runCtx.RunID = run.ID
	hostEmit := ctx.Emit
	runCtx.Emit = func(name string, data value.Value) {
		if runCtx.Aborted() {
			return
		}
		run.record(Emitted{Event: name, Payload: data, At: clock.Now()})
		if x.hooks.OnEventTriggered != nil {
			x.hooks.OnEventTriggered(runCtx.Signal.Context(), &domain.ComponentEvent{
				EventBase: domain.EventBase{Timestamp: clock.Now(), Type: domain.EventComponentEvent, RunID: run.ID},
				Component: runCtx.Component,
				Event:     name,
				Payload:   data,
			})
		}
		if hostEmit != nil {
			hostEmit(name, data)
		}
	}

	run.Status = StatusRunning
	run.StartedAt = clock.Now()
	err := x.runSequence(runCtx, binding.Actions)
	run.FinishedAt = clock.Now()

	switch {
	case IsAbort(err) || (err == nil && runCtx.Aborted()):
		run.Status = StatusAborted
		x.logger.Debug("action run aborted", "run_id", run.ID, "event", event)
	case err != nil:
		run.Status = StatusFailed
		run.Err = err
	default:
		run.Status = StatusCompleted
	}
	return run
}

// Execute runs a single action node.
func (x *Executor) Execute(ctx *execution.Context, a *domain.Action) error {
	if a == nil {
		return nil
	}
	switch a.Type {
	case domain.ActionCustom:
		return x.custom(ctx, a)

	case domain.ActionSequence:
		return x.runSequence(ctx, a.Actions)

	case domain.ActionSwitch:
		scoped := ctx.WithData(ctx.Scope())
		for _, c := range a.Cases {
			cond, err := x.evaluator.Evaluate(scoped, c.Condition)
			if err != nil {
				return err
			}
			if value.IsTruthy(cond) {
				return x.runSequence(ctx, c.Actions)
			}
		}
		return x.runSequence(ctx, a.Default)

	case domain.ActionSetVariable:
		if ctx.Variables == nil {
			return fmt.Errorf("%w: setVariable %q without component variables", domain.ErrInvalidArgument, a.Variable)
		}
		v, err := x.evaluator.Evaluate(ctx.WithData(ctx.Scope()), a.Data)
		if err != nil {
			return err
		}
		ctx.Variables.Set(a.Variable, v)
		return nil

	case domain.ActionTriggerEvent:
		payload, err := x.evaluator.Evaluate(ctx.WithData(ctx.Scope()), a.Data)
		if err != nil {
			return err
		}
		if ctx.Emit != nil {
			ctx.Emit(a.Event, payload)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", domain.ErrUnknownAction, a.Type)
}

// runSequence starts children in declared order and stops at the first failure,
// which is logged here and reported once. An aborted signal stops the sequence
// before the next child without an error.
func (x *Executor) runSequence(ctx *execution.Context, actions []*domain.Action) error {
	for i, child := range actions {
		if ctx.Aborted() {
			return nil
		}
		err := x.Execute(ctx, child)
		if err == nil {
			continue
		}
		if IsAbort(err) {
			return err
		}
		if _, reported := err.(*SequenceError); reported {
			return err
		}
		seqErr := &SequenceError{Step: i, Action: Describe(child), Err: err}
		x.logger.Error("action sequence failed",
			"run_id", ctx.RunID,
			"component", ctx.Component,
			"step", i,
			"action", seqErr.Action,
			"error", err,
		)
		return seqErr
	}
	return nil
}

func (x *Executor) custom(ctx *execution.Context, a *domain.Action) error {
	// Arguments are resolved once, against a snapshot of the current scope.
	args, err := x.evaluator.EvaluateArguments(ctx.WithData(ctx.Scope()), a.Arguments)
	if err != nil {
		return err
	}

	pkg, name := a.Handler()
	key := formula.HandlerKey(ctx, pkg, name)
	fn, err := x.evaluator.Resolver().ResolveAction(key)
	if err != nil {
		return err
	}

	// Events raised while the handler runs are dispatched once it returns,
	// still inside the current sequence. Later ones go through Serialize.
	var (
		mu      sync.Mutex
		inline  = true
		pending []raised
	)
	handlerCtx := ctx.WithTrigger(func(event string, payload value.Value) {
		mu.Lock()
		if inline {
			pending = append(pending, raised{event, payload})
			mu.Unlock()
			return
		}
		mu.Unlock()
		ctx.Serialized(func() { x.dispatch(ctx, a, event, payload) })
	})

	clock := ctx.ClockOrReal()
	started := clock.Now()
	x.fire(x.hooks.OnActionStart, ctx, &domain.ActionEvent{
		EventBase: domain.EventBase{Timestamp: started, Type: domain.EventActionStart, RunID: ctx.RunID},
		Handler:   key.String(),
		Status:    string(StatusRunning),
	})

	err = x.invoke(handlerCtx, key, fn, args)

	mu.Lock()
	inline = false
	queued := pending
	pending = nil
	mu.Unlock()
	for _, ev := range queued {
		x.dispatch(ctx, a, ev.event, ev.payload)
	}

	status := StatusCompleted
	switch {
	case IsAbort(err):
		status = StatusAborted
	case err != nil:
		status = StatusFailed
	}
	x.fire(x.hooks.OnActionEnd, ctx, &domain.ActionEvent{
		EventBase: domain.EventBase{Timestamp: clock.Now(), Type: domain.EventActionEnd, RunID: ctx.RunID},
		Handler:   key.String(),
		Status:    string(status),
		Duration:  clock.Since(started),
		IsError:   status == StatusFailed,
		Err:       err,
	})

	if err != nil && !IsAbort(err) {
		return fmt.Errorf("action %s: %w", key, err)
	}
	return err
}

func (x *Executor) invoke(ctx *execution.Context, key registry.Key, fn registry.ActionHandler, args []value.Value) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &PanicError{Handler: key.String(), Value: r}
		}
	}()
	return fn(args, ctx)
}

// raised is a completion event held until its handler returns.
type raised struct {
	event   string
	payload value.Value
}

// dispatch runs the actions bound to a completion event raised by a's handler.
// It may be called synchronously from the handler or later from an effect's
// goroutine. Events raised after abort are dropped; failures stay inside the
// event's own sequence.
func (x *Executor) dispatch(ctx *execution.Context, a *domain.Action, event string, payload value.Value) {
	if ctx.Aborted() {
		x.logger.Debug("event dropped after abort", "run_id", ctx.RunID, "event", event)
		return
	}
	binding, ok := a.Events[event]
	if !ok {
		return
	}
	if err := x.runSequence(ctx.WithEvent(payload), binding.Actions); err != nil && !IsAbort(err) {
		x.logger.Warn("event actions failed", "run_id", ctx.RunID, "action", Describe(a), "event", event, "error", err)
	}
}

func (x *Executor) fire(hook func(context.Context, *domain.ActionEvent), ctx *execution.Context, ev *domain.ActionEvent) {
	if hook != nil {
		hook(ctx.Signal.Context(), ev)
	}
}

// Describe names an action for logs and errors.
func Describe(a *domain.Action) string {
	if a == nil {
		return "<nil>"
	}
	switch a.Type {
	case domain.ActionCustom:
		pkg, name := a.Handler()
		if pkg == "" {
			return name
		}
		return pkg + "/" + name
	case domain.ActionSetVariable:
		return "setVariable " + a.Variable
	case domain.ActionTriggerEvent:
		return "triggerEvent " + a.Event
	}
	return string(a.Type)
}
