// Package formula evaluates formula trees against an execution context.
//
// Evaluation is a synchronous recursive walk. It never starts goroutines and never
// blocks, so it can run inline during rendering. Data-shape problems are absorbed
// by handlers (they return null); definition problems such as an unknown handler
// propagate as errors.
package formula

import (
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/aretw0/tendril/internal/logging"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/value"
)

// DefaultMaxDepth bounds nested component formula applications.
const DefaultMaxDepth = 64

// Evaluator walks formula trees, resolving function names through a registry.Resolver.
type Evaluator struct {
	resolver registry.Resolver
	logger   *slog.Logger
	hooks    domain.LifecycleHooks
	maxDepth int
}

// Option configures an Evaluator.
type Option func(*Evaluator)

// WithLogger sets the logger used to report panicking handlers.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Evaluator) {
		e.logger = logger
	}
}

// WithHooks registers lifecycle hooks; OnFormula fires once per handler invocation.
func WithHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Evaluator) {
		e.hooks = hooks
	}
}

// WithMaxDepth bounds nested apply nodes.
func WithMaxDepth(depth int) Option {
	return func(e *Evaluator) {
		if depth > 0 {
			e.maxDepth = depth
		}
	}
}

// New creates an Evaluator over resolver.
func New(resolver registry.Resolver, opts ...Option) *Evaluator {
	e := &Evaluator{
		resolver: resolver,
		logger:   logging.NewNop(),
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// WithResolver returns a copy of e resolving through r (typically a component overlay).
func (e *Evaluator) WithResolver(r registry.Resolver) *Evaluator {
	cp := *e
	cp.resolver = r
	return &cp
}

// Resolver returns the resolver in use.
func (e *Evaluator) Resolver() registry.Resolver { return e.resolver }

// Evaluate computes the value of f over ctx.Data. A nil formula is null.
func (e *Evaluator) Evaluate(ctx *execution.Context, f *domain.Formula) (value.Value, error) {
	if f == nil {
		return value.Null(), nil
	}

	switch f.Type {
	case domain.FormulaValue:
		return f.Value, nil

	case domain.FormulaPath:
		return Lookup(ctx.Data, f.Path), nil

	case domain.FormulaFunction:
		args, err := e.EvaluateArguments(ctx, f.Arguments)
		if err != nil {
			return value.Null(), err
		}
		return e.call(ctx, f, args)

	case domain.FormulaAnd:
		for _, arg := range f.Arguments {
			v, err := e.Evaluate(ctx, arg.Formula)
			if err != nil {
				return value.Null(), err
			}
			if !value.IsTruthy(v) {
				return value.Bool(false), nil
			}
		}
		return value.Bool(true), nil

	case domain.FormulaOr:
		for _, arg := range f.Arguments {
			v, err := e.Evaluate(ctx, arg.Formula)
			if err != nil {
				return value.Null(), err
			}
			if value.IsTruthy(v) {
				return value.Bool(true), nil
			}
		}
		return value.Bool(false), nil

	case domain.FormulaSwitch:
		for _, c := range f.Cases {
			cond, err := e.Evaluate(ctx, c.Condition)
			if err != nil {
				return value.Null(), err
			}
			if value.IsTruthy(cond) {
				return e.Evaluate(ctx, c.Formula)
			}
		}
		return e.Evaluate(ctx, f.Default)

	case domain.FormulaArray:
		items, err := e.EvaluateArguments(ctx, f.Arguments)
		if err != nil {
			return value.Null(), err
		}
		return value.Array(items...), nil

	case domain.FormulaObject:
		fields := make(map[string]value.Value, len(f.Arguments))
		for _, arg := range f.Arguments {
			v, err := e.Evaluate(ctx, arg.Formula)
			if err != nil {
				return value.Null(), err
			}
			fields[arg.Name] = v
		}
		return value.Object(fields), nil

	case domain.FormulaApply:
		return e.apply(ctx, f)
	}

	return value.Null(), fmt.Errorf("%w: %q", domain.ErrUnknownFormula, f.Type)
}

// EvaluateArguments evaluates each argument left-to-right, stopping at the first error.
func (e *Evaluator) EvaluateArguments(ctx *execution.Context, arguments []domain.Argument) ([]value.Value, error) {
	args := make([]value.Value, len(arguments))
	for i, arg := range arguments {
		v, err := e.Evaluate(ctx, arg.Formula)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// HandlerKey resolves the registry key of a function or custom action name.
// Unqualified names belong to the namespace being evaluated.
func HandlerKey(ctx *execution.Context, pkg, name string) registry.Key {
	if pkg == "" {
		pkg = ctx.Namespace
	}
	return registry.Key{Namespace: pkg, Name: name}
}

func (e *Evaluator) call(ctx *execution.Context, f *domain.Formula, args []value.Value) (value.Value, error) {
	pkg, name := f.Handler()
	key := HandlerKey(ctx, pkg, name)

	fn, err := e.resolver.ResolveFormula(key)
	if err != nil {
		return value.Null(), err
	}

	result, panicked := e.invoke(ctx, key, fn, args)
	if e.hooks.OnFormula != nil {
		e.hooks.OnFormula(ctx.Signal.Context(), &domain.FormulaEvent{
			EventBase: domain.EventBase{
				Timestamp: time.Now(),
				Type:      domain.EventFormula,
				RunID:     ctx.RunID,
			},
			Handler: key.String(),
			IsError: panicked,
		})
	}
	return result, nil
}

func (e *Evaluator) invoke(ctx *execution.Context, key registry.Key, fn registry.FormulaHandler, args []value.Value) (result value.Value, panicked bool) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("formula handler panicked", "handler", key.String(), "panic", r)
			result, panicked = value.Null(), true
		}
	}()
	return fn(args, ctx), false
}

func (e *Evaluator) apply(ctx *execution.Context, f *domain.Formula) (value.Value, error) {
	_, name := f.Handler()
	cf, ok := ctx.Formulas[name]
	if !ok {
		return value.Null(), fmt.Errorf("%w: component formula %s", domain.ErrHandlerNotFound, name)
	}
	if ctx.Depth >= e.maxDepth {
		return value.Null(), fmt.Errorf("%w: %s at depth %d", domain.ErrRecursionLimit, name, ctx.Depth)
	}

	fields := make(map[string]value.Value, len(f.Arguments))
	for i, arg := range f.Arguments {
		v, err := e.Evaluate(ctx, arg.Formula)
		if err != nil {
			return value.Null(), err
		}
		param := arg.Name
		if param == "" && i < len(cf.Arguments) {
			param = cf.Arguments[i]
		}
		if param != "" {
			fields[param] = v
		}
	}
	return e.Evaluate(ctx.WithArgs(value.Object(fields)), cf.Formula)
}

// Lookup walks path through scope: object steps by key, array steps by integer
// index. Any missing or non-container intermediate yields null.
func Lookup(scope value.Value, path []string) value.Value {
	current := scope
	for _, step := range path {
		switch current.Kind() {
		case value.KindObject:
			next, ok := current.Lookup(step)
			if !ok {
				return value.Null()
			}
			current = next
		case value.KindArray:
			i, err := strconv.Atoi(step)
			if err != nil {
				return value.Null()
			}
			current = current.Index(i)
		default:
			return value.Null()
		}
	}
	return current
}
