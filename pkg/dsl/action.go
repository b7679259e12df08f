package dsl

import "github.com/aretw0/tendril/pkg/domain"

// Do calls a registered action handler.
func Do(name string, args ...*domain.Formula) *domain.Action {
	return &domain.Action{Type: domain.ActionCustom, Name: name, Arguments: positional(args)}
}

// Listen binds actions to an event raised by a custom action, such as the
// "tick" of sleep. It returns a for chaining.
func Listen(a *domain.Action, event string, actions ...*domain.Action) *domain.Action {
	if a.Events == nil {
		a.Events = make(map[string]domain.EventBinding)
	}
	binding := a.Events[event]
	binding.Actions = append(binding.Actions, actions...)
	a.Events[event] = binding
	return a
}

// Set assigns a component variable.
func Set(variable string, data *domain.Formula) *domain.Action {
	return &domain.Action{Type: domain.ActionSetVariable, Variable: variable, Data: data}
}

// Emit raises a component event to the host.
func Emit(event string, data *domain.Formula) *domain.Action {
	return &domain.Action{Type: domain.ActionTriggerEvent, Event: event, Data: data}
}

// Seq runs actions in order.
func Seq(actions ...*domain.Action) *domain.Action {
	return &domain.Action{Type: domain.ActionSequence, Actions: actions}
}

// When pairs a condition with actions for Choose.
func When(cond *domain.Formula, actions ...*domain.Action) domain.ActionCase {
	return domain.ActionCase{Condition: cond, Actions: actions}
}

// Choose runs the actions of the first matching case, else def.
func Choose(def []*domain.Action, cases ...domain.ActionCase) *domain.Action {
	return &domain.Action{Type: domain.ActionSwitch, Cases: cases, Default: def}
}
