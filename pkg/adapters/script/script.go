// Package script compiles user-authored handler code with goja and exposes it
// as registry handlers.
//
// Code is a JavaScript function expression taking (args, ctx):
//
//	(args, ctx) => args[0] * 2
//
// Each call gets a fresh runtime; the compiled program is shared. Runs are
// interrupted when the abort signal fires or the timeout elapses.
package script

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/dop251/goja"
)

// DefaultTimeout bounds one handler call.
const DefaultTimeout = time.Second

var (
	// ErrInterrupted is returned when a run hits its timeout.
	ErrInterrupted = errors.New("script interrupted: timeout")

	// ErrUnsupportedLanguage is returned for handler code in anything but JavaScript.
	ErrUnsupportedLanguage = errors.New("unsupported handler language")

	// ErrNotAFunction is returned when the code does not evaluate to a function.
	ErrNotAFunction = errors.New("handler code is not a function expression")
)

// Compiler turns HandlerSources into Programs.
type Compiler struct {
	timeout time.Duration
	logger  *slog.Logger
}

// Option configures the Compiler.
type Option func(*Compiler)

// WithTimeout bounds every call of the compiled programs. Zero or less disables it.
func WithTimeout(d time.Duration) Option {
	return func(c *Compiler) {
		c.timeout = d
	}
}

// WithLogger sets the logger used for swallowed formula failures.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Compiler) {
		c.logger = logger
	}
}

// NewCompiler creates a Compiler.
func NewCompiler(opts ...Option) *Compiler {
	c := &Compiler{timeout: DefaultTimeout, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Program is one compiled handler.
type Program struct {
	name    string
	kind    domain.HandlerKind
	prog    *goja.Program
	timeout time.Duration
	logger  *slog.Logger
}

// Compile checks the language and compiles the code.
func (c *Compiler) Compile(src domain.HandlerSource) (*Program, error) {
	switch strings.ToLower(src.Language) {
	case "", "javascript", "js":
	default:
		return nil, fmt.Errorf("%w: %q (handler %s)", ErrUnsupportedLanguage, src.Language, src.Name)
	}
	prog, err := goja.Compile(src.Name, "(\n"+src.Code+"\n)", true)
	if err != nil {
		return nil, fmt.Errorf("compile handler %s: %w", src.Name, err)
	}
	return &Program{
		name:    src.Name,
		kind:    src.Kind,
		prog:    prog,
		timeout: c.timeout,
		logger:  c.logger,
	}, nil
}

// Name returns the handler name.
func (p *Program) Name() string { return p.name }

// Kind returns whether the program is a formula or an action.
func (p *Program) Kind() domain.HandlerKind { return p.kind }

// Formula adapts the program into a formula handler. Thrown errors and
// timeouts yield null.
func (p *Program) Formula() registry.FormulaHandler {
	return func(args []value.Value, ctx *execution.Context) value.Value {
		result, err := p.call(args, ctx, false)
		if err != nil {
			ctx.Log().Warn("script formula failed", "handler", p.name, "error", err)
			return value.Null()
		}
		return result
	}
}

// Action adapts the program into an action handler. Thrown errors fail the
// action; an abort while running reports domain.ErrAborted.
func (p *Program) Action() registry.ActionHandler {
	return func(args []value.Value, ctx *execution.Context) error {
		_, err := p.call(args, ctx, true)
		return err
	}
}

func (p *Program) call(args []value.Value, ctx *execution.Context, effects bool) (value.Value, error) {
	if effects && ctx.Aborted() {
		return value.Null(), nil
	}

	vm := goja.New()
	fnVal, err := vm.RunProgram(p.prog)
	if err != nil {
		return value.Null(), fmt.Errorf("handler %s: %w", p.name, err)
	}
	fn, ok := goja.AssertFunction(fnVal)
	if !ok {
		return value.Null(), fmt.Errorf("%w: %s", ErrNotAFunction, p.name)
	}

	if p.timeout > 0 {
		timer := time.AfterFunc(p.timeout, func() { vm.Interrupt(ErrInterrupted) })
		defer timer.Stop()
	}
	stop := ctx.Signal.OnAbort(func() { vm.Interrupt(domain.ErrAborted) })
	defer stop()

	jsArgs := make([]any, len(args))
	for i, a := range args {
		jsArgs[i] = a.Any()
	}
	out, err := fn(goja.Undefined(), vm.ToValue(jsArgs), p.context(vm, ctx, effects))
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			if cause, ok := interrupted.Value().(error); ok {
				return value.Null(), fmt.Errorf("handler %s: %w", p.name, cause)
			}
		}
		return value.Null(), fmt.Errorf("handler %s: %w", p.name, err)
	}
	if out == nil || goja.IsUndefined(out) {
		return value.Null(), nil
	}
	return value.FromAny(out.Export()), nil
}

// context builds the ctx object handed to scripts. Only actions get
// triggerActionEvent.
func (p *Program) context(vm *goja.Runtime, ctx *execution.Context, effects bool) goja.Value {
	obj := vm.NewObject()
	_ = obj.Set("data", ctx.Data.Any())
	_ = obj.Set("isServer", ctx.Env.IsServer())
	_ = obj.Set("component", ctx.Component)
	_ = obj.Set("aborted", func() bool { return ctx.Aborted() })
	_ = obj.Set("log", func(msg string, data goja.Value) {
		var payload any
		if data != nil {
			payload = data.Export()
		}
		ctx.Log().Info("script log", "handler", p.name, "msg", msg, "data", value.ToString(value.FromAny(payload)))
	})
	if effects {
		_ = obj.Set("triggerActionEvent", func(name string, payload goja.Value) {
			var exported any
			if payload != nil {
				exported = payload.Export()
			}
			ctx.Trigger(name, value.FromAny(exported))
		})
	}
	return obj
}

// Target receives compiled handlers; *registry.Registry and *registry.Scope satisfy it.
type Target interface {
	RegisterFormula(key registry.Key, fn registry.FormulaHandler) error
	RegisterAction(key registry.Key, fn registry.ActionHandler) error
}

// Register compiles every source and registers it under namespace. It stops
// at the first failure.
func (c *Compiler) Register(target Target, namespace string, sources []domain.HandlerSource) error {
	for _, src := range sources {
		p, err := c.Compile(src)
		if err != nil {
			return err
		}
		key := registry.Key{Namespace: namespace, Name: src.Name}
		switch src.Kind {
		case domain.HandlerFormula:
			err = target.RegisterFormula(key, p.Formula())
		case domain.HandlerAction:
			err = target.RegisterAction(key, p.Action())
		default:
			err = fmt.Errorf("%w: handler %s has kind %q", domain.ErrInvalidDefinition, src.Name, src.Kind)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
