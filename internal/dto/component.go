// Package dto holds the authoring shapes of component definitions.
//
// Definitions are decoded from YAML or JSON into generic maps first and then
// into these structs with mapstructure. Formula and action positions stay
// untyped (any) because authors may write them in shorthand; the compiler
// package turns them into domain nodes.
package dto

// Component is the top-level document of a definition file.
type Component struct {
	Name      string `json:"name" mapstructure:"name"`
	Namespace string `json:"namespace" mapstructure:"namespace"`

	Variables  map[string]Variable         `json:"variables" mapstructure:"variables"`
	Attributes map[string]any              `json:"attributes" mapstructure:"attributes"`
	Formulas   map[string]ComponentFormula `json:"formulas" mapstructure:"formulas"`
	// Events map an event name to either a list of actions or {actions: [...]}.
	Events   map[string]any `json:"events" mapstructure:"events"`
	Handlers []Handler      `json:"handlers" mapstructure:"handlers"`
}

type Variable struct {
	InitialValue any `json:"initialValue" mapstructure:"initialValue"`
}

type ComponentFormula struct {
	Arguments []string `json:"arguments" mapstructure:"arguments"`
	Formula   any      `json:"formula" mapstructure:"formula"`
}

// Handler is user-authored handler code.
type Handler struct {
	Name     string `json:"name" mapstructure:"name"`
	Kind     string `json:"kind" mapstructure:"kind"`
	Language string `json:"language" mapstructure:"language"`
	Code     string `json:"code" mapstructure:"code"`
}

// Formula is the long form of a formula node. Path accepts a dotted string
// or a list of keys.
type Formula struct {
	Type      string       `json:"type" mapstructure:"type"`
	Value     any          `json:"value" mapstructure:"value"`
	Path      any          `json:"path" mapstructure:"path"`
	Name      string       `json:"name" mapstructure:"name"`
	Package   string       `json:"package" mapstructure:"package"`
	Arguments []any        `json:"arguments" mapstructure:"arguments"`
	Cases     []SwitchCase `json:"cases" mapstructure:"cases"`
	Default   any          `json:"default" mapstructure:"default"`
}

// Argument is a named argument: {name, formula}.
type Argument struct {
	Name    string `json:"name" mapstructure:"name"`
	Formula any    `json:"formula" mapstructure:"formula"`
}

type SwitchCase struct {
	Condition any `json:"condition" mapstructure:"condition"`
	Formula   any `json:"formula" mapstructure:"formula"`
}

// Action is the long form of an action node.
type Action struct {
	Type      string         `json:"type" mapstructure:"type"`
	Name      string         `json:"name" mapstructure:"name"`
	Package   string         `json:"package" mapstructure:"package"`
	Arguments []any          `json:"arguments" mapstructure:"arguments"`
	Events    map[string]any `json:"events" mapstructure:"events"`
	Actions   []any          `json:"actions" mapstructure:"actions"`
	Cases     []ActionCase   `json:"cases" mapstructure:"cases"`
	Default   []any          `json:"default" mapstructure:"default"`
	Variable  string         `json:"variable" mapstructure:"variable"`
	Event     string         `json:"event" mapstructure:"event"`
	Data      any            `json:"data" mapstructure:"data"`
}

type ActionCase struct {
	Condition any   `json:"condition" mapstructure:"condition"`
	Actions   []any `json:"actions" mapstructure:"actions"`
}
