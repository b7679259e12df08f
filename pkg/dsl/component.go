package dsl

import "github.com/aretw0/tendril/pkg/domain"

// ComponentBuilder provides a fluent API for configuring a component.
type ComponentBuilder struct {
	component domain.Component
}

// Namespace sets the namespace unqualified handler names resolve in.
func (c *ComponentBuilder) Namespace(ns string) *ComponentBuilder {
	c.component.Namespace = ns
	return c
}

// Variable declares a state variable. A nil initial value starts it as null.
func (c *ComponentBuilder) Variable(name string, initial *domain.Formula) *ComponentBuilder {
	if c.component.Variables == nil {
		c.component.Variables = make(map[string]domain.Variable)
	}
	c.component.Variables[name] = domain.Variable{InitialValue: initial}
	return c
}

// Attribute binds a render attribute to a formula.
func (c *ComponentBuilder) Attribute(name string, f *domain.Formula) *ComponentBuilder {
	if c.component.Attributes == nil {
		c.component.Attributes = make(map[string]*domain.Formula)
	}
	c.component.Attributes[name] = f
	return c
}

// Formula declares a component formula callable with Apply. Its parameters
// are visible under Args.
func (c *ComponentBuilder) Formula(name string, f *domain.Formula, params ...string) *ComponentBuilder {
	if c.component.Formulas == nil {
		c.component.Formulas = make(map[string]domain.ComponentFormula)
	}
	c.component.Formulas[name] = domain.ComponentFormula{Arguments: params, Formula: f}
	return c
}

// On appends actions to the binding of event.
func (c *ComponentBuilder) On(event string, actions ...*domain.Action) *ComponentBuilder {
	if c.component.Events == nil {
		c.component.Events = make(map[string]domain.EventBinding)
	}
	binding := c.component.Events[event]
	binding.Actions = append(binding.Actions, actions...)
	c.component.Events[event] = binding
	return c
}

// Handler adds JavaScript handler code registered in the component namespace.
func (c *ComponentBuilder) Handler(name string, kind domain.HandlerKind, code string) *ComponentBuilder {
	c.component.Handlers = append(c.component.Handlers, domain.HandlerSource{
		Name: name,
		Kind: kind,
		Code: code,
	})
	return c
}

// Build returns a copy of the underlying domain.Component.
func (c *ComponentBuilder) Build() *domain.Component {
	out := c.component
	return &out
}
