package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/value"
)

// Engine is the subset of *tendril.Engine the runner drives.
type Engine interface {
	Render(ctx context.Context, req tendril.RenderRequest) (*tendril.RenderResult, error)
	Evaluate(ctx context.Context, req tendril.EvalRequest) (value.Value, error)
	Trigger(ctx context.Context, req tendril.TriggerRequest) (*action.Run, error)
	Teardown(sessionID string) bool
}

// Runner handles the command loop of one component session.
type Runner struct {
	Engine    Engine
	Handler   IOHandler
	Component string

	SessionID   string
	Attributes  map[string]value.Value
	Data        map[string]value.Value
	KeepSession bool

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger
}

// New creates a runner for component. An empty component evaluates formulas
// against the built-in handlers only.
func New(engine Engine, handler IOHandler, component string, opts ...Option) *Runner {
	r := &Runner{
		Engine:    engine,
		Handler:   handler,
		Component: component,
		SessionID: DefaultSessionID,
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.Logger == nil {
		r.Logger = logging.NewNop()
	}
	return r
}

// Run executes commands until the input ends, a quit command arrives or ctx
// is cancelled. The session is torn down on return unless KeepSession is set.
func (r *Runner) Run(ctx context.Context) error {
	if !r.KeepSession {
		defer r.Engine.Teardown(r.SessionID)
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}

		cmd, err := r.Handler.Input(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, context.Canceled) {
				return nil
			}
			var cmdErr *CommandError
			if errors.As(err, &cmdErr) {
				if err := r.Handler.Output(ctx, Result{Err: err}); err != nil {
					return fmt.Errorf("output error: %w", err)
				}
				continue
			}
			return fmt.Errorf("input error: %w", err)
		}

		if cmd.Op == OpQuit {
			return nil
		}

		res := r.Execute(ctx, cmd)
		if err := r.Handler.Output(ctx, res); err != nil {
			return fmt.Errorf("output error: %w", err)
		}
	}
}

// Execute runs one command against the session.
func (r *Runner) Execute(ctx context.Context, cmd Command) Result {
	res := Result{Op: cmd.Op}
	scope := r.scope()

	switch cmd.Op {
	case OpEval:
		res.Value, res.Err = r.Engine.Evaluate(ctx, tendril.EvalRequest{Scope: scope, Formula: cmd.Formula})
	case OpRender:
		res.Render, res.Err = r.Engine.Render(ctx, tendril.RenderRequest{Scope: scope})
	case OpTrigger:
		res.Run, res.Err = r.Engine.Trigger(ctx, tendril.TriggerRequest{
			Scope:     scope,
			Event:     cmd.Event,
			Payload:   cmd.Payload,
			CallSite:  "runner:" + r.Component + "#" + cmd.Event,
			Supersede: cmd.Supersede,
			Emit:      r.emit(ctx),
		})
	case OpTeardown:
		res.Value = value.Bool(r.Engine.Teardown(r.SessionID))
	case OpHelp:
	default:
		res.Err = fmt.Errorf("unknown command %q", cmd.Op)
	}

	r.Logger.Debug("command executed", "op", cmd.Op, "session_id", r.SessionID, "err", res.Err)
	return res
}

func (r *Runner) scope() tendril.Scope {
	return tendril.Scope{
		Component:  r.Component,
		SessionID:  r.SessionID,
		Attributes: r.Attributes,
		Data:       r.Data,
	}
}

// emit forwards events to the handler. Delayed effects call it after
// Trigger returns, so it must not use a request-scoped context.
func (r *Runner) emit(ctx context.Context) func(string, value.Value) {
	ctx = context.WithoutCancel(ctx)
	return func(event string, payload value.Value) {
		if err := r.Handler.Event(ctx, r.Component, event, payload); err != nil {
			r.Logger.Warn("event delivery failed", "event", event, "err", err)
		}
	}
}
