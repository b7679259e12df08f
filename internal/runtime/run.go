package runtime

import (
	"context"
	"fmt"
	"sort"

	"github.com/aretw0/tendril/pkg/action"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/registry"
	"github.com/aretw0/tendril/pkg/value"
)

// Render evaluates the attribute bindings of a component in attribute-name order.
func (e *Engine) Render(ctx context.Context, req RenderRequest) (*RenderResult, error) {
	c, err := e.lookup(ctx, req.Component)
	if err != nil {
		return nil, err
	}

	signal, cancel := execution.NewAbortController(ctx)
	defer cancel()

	ectx := e.newContext(c, req.Scope)
	ectx.Signal = signal
	ectx = ectx.WithData(ectx.Scope())

	names := make([]string, 0, len(c.def.Attributes))
	for name := range c.def.Attributes {
		names = append(names, name)
	}
	sort.Strings(names)

	result := &RenderResult{
		Component:  c.def.Name,
		Attributes: make(map[string]value.Value, len(names)),
		Variables:  ectx.Variables.Snapshot(),
	}
	for _, name := range names {
		v, err := c.evaluator.Evaluate(ectx, c.def.Attributes[name])
		if err != nil {
			if result.Errors == nil {
				result.Errors = make(map[string]error)
			}
			result.Errors[name] = err
			ectx.Log().Warn("attribute binding failed", "attribute", name, "err", err)
			v = value.Null()
		}
		result.Attributes[name] = v
	}
	return result, nil
}

// Evaluate computes a single formula.
func (e *Engine) Evaluate(ctx context.Context, req EvalRequest) (value.Value, error) {
	signal, cancel := execution.NewAbortController(ctx)
	defer cancel()

	if req.Component == "" {
		ectx := execution.New()
		ectx.Env = req.Env
		ectx.Root = req.Root
		ectx.Clock = e.clock
		ectx.Logger = e.logger
		ectx.Equal = e.equal
		ectx.Namespace = registry.BuiltinNamespace
		ectx.SessionStorage = e.sessionStore(req.SessionID)
		ectx.LocalStorage = e.localStorage
		ectx.Data = baseScope(req.Scope)
		ectx.Signal = signal
		return e.evaluator.Evaluate(ectx, req.Formula)
	}

	c, err := e.lookup(ctx, req.Component)
	if err != nil {
		return value.Null(), err
	}
	ectx := e.newContext(c, req.Scope)
	ectx.Signal = signal
	return c.evaluator.Evaluate(ectx.WithData(ectx.Scope()), req.Formula)
}

// Trigger runs the actions bound to req.Event under the session lock. Delayed
// effects keep running in the session scope until superseded or torn down,
// and their event actions take the same lock. Without a session they are
// aborted when Trigger returns.
func (e *Engine) Trigger(ctx context.Context, req TriggerRequest) (*action.Run, error) {
	c, err := e.lookup(ctx, req.Component)
	if err != nil {
		return nil, err
	}
	binding, ok := c.def.Events[req.Event]
	if !ok {
		return nil, fmt.Errorf("%w: %s on %s", domain.ErrEventNotFound, req.Event, c.def.Name)
	}

	callSite := req.CallSite
	if callSite == "" {
		callSite = c.def.Name + "#" + req.Event
	}

	var (
		signal  *execution.AbortSignal
		release func()
	)
	if req.SessionID == "" {
		signal, release = execution.NewAbortController(ctx)
	} else {
		signal, release = e.sessions.Begin(req.SessionID, callSite, req.Supersede)
	}
	defer release()

	var run *action.Run
	start := func() {
		ectx := e.newContext(c, req.Scope)
		ectx.Signal = signal
		ectx.Emit = req.Emit
		ectx.Logger = ectx.Log().With("event", req.Event)
		if req.SessionID != "" {
			ectx.Serialize = func(fn func()) { e.sessions.Serialize(req.SessionID, fn) }
		}
		run = c.executor.Trigger(ectx, binding, req.Event, req.Payload)
	}
	if req.SessionID == "" {
		start()
	} else {
		e.sessions.WithLock(req.SessionID, start)
	}

	e.logger.Debug("event handled",
		"component", c.def.Name,
		"event", req.Event,
		"session_id", req.SessionID,
		"run_id", run.ID,
		"status", run.Status,
	)
	return run, nil
}

// newContext builds the execution context of one render pass or trigger.
func (e *Engine) newContext(c *component, scope Scope) *execution.Context {
	ectx := execution.New()
	ectx.Env = scope.Env
	ectx.Root = scope.Root
	ectx.Clock = e.clock
	ectx.Equal = e.equal
	ectx.Namespace = c.namespace
	ectx.Component = c.def.Name
	ectx.Formulas = c.def.Formulas
	ectx.SessionStorage = e.sessionStore(scope.SessionID)
	ectx.LocalStorage = e.localStorage
	ectx.Logger = e.logger.With("component", c.def.Name)
	ectx.Data = baseScope(scope)

	seed := func() map[string]value.Value { return e.initialVariables(c, ectx) }
	if scope.SessionID == "" {
		ectx.Variables = execution.NewVariables(seed())
	} else {
		ectx.Variables = e.sessions.Variables(scope.SessionID, c.def.Name, seed)
	}
	return ectx
}

// initialVariables evaluates the initial value of every declared variable.
// Initial values see the base scope but not other variables.
func (e *Engine) initialVariables(c *component, ectx *execution.Context) map[string]value.Value {
	vars := make(map[string]value.Value, len(c.def.Variables))
	for name, v := range c.def.Variables {
		val, err := c.evaluator.Evaluate(ectx, v.InitialValue)
		if err != nil {
			ectx.Log().Warn("variable initial value failed", "variable", name, "err", err)
			val = value.Null()
		}
		vars[name] = val
	}
	return vars
}

func baseScope(scope Scope) value.Value {
	fields := make(map[string]value.Value, len(scope.Data)+2)
	for k, v := range scope.Data {
		fields[k] = v
	}
	if scope.Attributes != nil {
		fields[execution.KeyAttributes] = value.Object(scope.Attributes)
	}
	return value.Object(fields)
}
