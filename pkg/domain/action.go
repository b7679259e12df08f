package domain

import "fmt"

// ActionType discriminates Action nodes.
type ActionType string

const (
	// ActionCustom calls a registered action handler.
	ActionCustom ActionType = "custom"
	// ActionSequence runs its children in order, stopping at the first failure.
	ActionSequence ActionType = "sequence"
	// ActionSwitch runs the actions of the first case whose condition is truthy.
	ActionSwitch ActionType = "switch"
	// ActionSetVariable assigns a component variable.
	ActionSetVariable ActionType = "setVariable"
	// ActionTriggerEvent emits a component event to the host.
	ActionTriggerEvent ActionType = "triggerEvent"
)

// Action is a node of an action graph.
type Action struct {
	Type ActionType `json:"type" yaml:"type"`

	// Custom
	Name      string                  `json:"name,omitempty" yaml:"name,omitempty"`
	Package   string                  `json:"package,omitempty" yaml:"package,omitempty"`
	Arguments []Argument              `json:"arguments,omitempty" yaml:"arguments,omitempty"`
	Events    map[string]EventBinding `json:"events,omitempty" yaml:"events,omitempty"`

	// Sequence
	Actions []*Action `json:"actions,omitempty" yaml:"actions,omitempty"`

	// Switch
	Cases   []ActionCase `json:"cases,omitempty" yaml:"cases,omitempty"`
	Default []*Action    `json:"default,omitempty" yaml:"default,omitempty"`

	// SetVariable / TriggerEvent
	Variable string   `json:"variable,omitempty" yaml:"variable,omitempty"`
	Event    string   `json:"event,omitempty" yaml:"event,omitempty"`
	Data     *Formula `json:"data,omitempty" yaml:"data,omitempty"`
}

// ActionCase pairs a condition with the actions run when it holds.
type ActionCase struct {
	Condition *Formula  `json:"condition" yaml:"condition"`
	Actions   []*Action `json:"actions" yaml:"actions"`
}

// EventBinding lists the actions run, as a sequence, when an event fires.
type EventBinding struct {
	Actions []*Action `json:"actions" yaml:"actions"`
}

// Handler splits the custom action name into package and bare name.
func (a *Action) Handler() (pkg, name string) {
	return SplitName(a.Package, a.Name)
}

// Validate checks the structure of the graph rooted at a.
func (a *Action) Validate() error {
	return a.validate("action")
}

func (a *Action) validate(at string) error {
	if a == nil {
		return fmt.Errorf("%w: %s: nil action", ErrInvalidDefinition, at)
	}
	switch a.Type {
	case ActionCustom:
		if _, name := a.Handler(); name == "" {
			return fmt.Errorf("%w: %s: custom action without name", ErrInvalidDefinition, at)
		}
		for i, arg := range a.Arguments {
			if err := arg.Formula.validate(fmt.Sprintf("%s.arguments[%d]", at, i)); err != nil {
				return err
			}
		}
		for name, binding := range a.Events {
			if err := validateActions(binding.Actions, fmt.Sprintf("%s.events.%s", at, name)); err != nil {
				return err
			}
		}
	case ActionSequence:
		return validateActions(a.Actions, at+".actions")
	case ActionSwitch:
		for i, c := range a.Cases {
			path := fmt.Sprintf("%s.cases[%d]", at, i)
			if c.Condition == nil {
				return fmt.Errorf("%w: %s: missing condition", ErrInvalidDefinition, path)
			}
			if err := c.Condition.validate(path + ".condition"); err != nil {
				return err
			}
			if err := validateActions(c.Actions, path+".actions"); err != nil {
				return err
			}
		}
		return validateActions(a.Default, at+".default")
	case ActionSetVariable:
		if a.Variable == "" {
			return fmt.Errorf("%w: %s: setVariable without variable", ErrInvalidDefinition, at)
		}
		return a.Data.validate(at + ".data")
	case ActionTriggerEvent:
		if a.Event == "" {
			return fmt.Errorf("%w: %s: triggerEvent without event", ErrInvalidDefinition, at)
		}
		return a.Data.validate(at + ".data")
	default:
		return fmt.Errorf("%w: %s: %q", ErrUnknownAction, at, a.Type)
	}
	return nil
}

func validateActions(actions []*Action, at string) error {
	for i, child := range actions {
		if err := child.validate(fmt.Sprintf("%s[%d]", at, i)); err != nil {
			return err
		}
	}
	return nil
}

// Walk visits a and every nested action depth-first, including event edges.
func (a *Action) Walk(visit func(*Action) bool) {
	if a == nil || !visit(a) {
		return
	}
	for _, name := range sortedKeys(a.Events) {
		for _, child := range a.Events[name].Actions {
			child.Walk(visit)
		}
	}
	for _, child := range a.Actions {
		child.Walk(visit)
	}
	for _, c := range a.Cases {
		for _, child := range c.Actions {
			child.Walk(visit)
		}
	}
	for _, child := range a.Default {
		child.Walk(visit)
	}
}

// Formulas returns the formulas held directly by a (arguments, conditions, data).
func (a *Action) Formulas() []*Formula {
	var out []*Formula
	for _, arg := range a.Arguments {
		out = append(out, arg.Formula)
	}
	for _, c := range a.Cases {
		out = append(out, c.Condition)
	}
	if a.Data != nil {
		out = append(out, a.Data)
	}
	return out
}
