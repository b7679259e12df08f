package compiler_test

import (
	"encoding/json"
	"testing"

	"github.com/aretw0/tendril/internal/compiler"
	"github.com/aretw0/tendril/pkg/adapters/memory"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const counterYAML = `
namespace: "@acme/counter"
variables:
  count:
    initialValue: 0
attributes:
  label:
    name: concat
    arguments:
      - "Count: "
      - path: Variables.count
  big:
    type: switch
    cases:
      - condition:
          name: greaterThan
          arguments: [{path: [Variables, count]}, 10]
        formula: big
    default: small
formulas:
  double:
    arguments: [n]
    formula:
      name: multiply
      arguments: [{path: Args.n}, 2]
events:
  click:
    - type: setVariable
      variable: count
      data:
        name: add
        arguments: [{path: Variables.count}, 1]
    - name: "@tendril/sleep"
      arguments:
        - name: ms
          formula: 100
      events:
        tick:
          actions:
            - type: triggerEvent
              event: ticked
              data: {type: value, value: {at: 1}}
handlers:
  - name: shout
    kind: formula
    code: "(args) => String(args[0]).toUpperCase()"
`

func TestParse_YAMLShorthand(t *testing.T) {
	c, err := compiler.NewParser().Parse("counter", []byte(counterYAML))
	require.NoError(t, err)

	assert.Equal(t, "counter", c.Name, "file name is the fallback component name")
	assert.Equal(t, "@acme/counter", c.Namespace)

	initial := c.Variables["count"].InitialValue
	require.NotNil(t, initial)
	assert.Equal(t, domain.FormulaValue, initial.Type)
	assert.True(t, value.Equal(value.Number(0), initial.Value))

	label := c.Attributes["label"]
	require.NotNil(t, label)
	assert.Equal(t, domain.FormulaFunction, label.Type)
	require.Len(t, label.Arguments, 2)
	assert.Equal(t, domain.FormulaValue, label.Arguments[0].Formula.Type)
	assert.Equal(t, []string{"Variables", "count"}, label.Arguments[1].Formula.Path)

	big := c.Attributes["big"]
	require.Len(t, big.Cases, 1)
	assert.Equal(t, []string{"Variables", "count"}, big.Cases[0].Condition.Arguments[0].Formula.Path)
	assert.True(t, value.Equal(value.String("small"), big.Default.Value))

	double := c.Formulas["double"]
	assert.Equal(t, []string{"n"}, double.Arguments)
	assert.Equal(t, "multiply", double.Formula.Name)

	click := c.Events["click"].Actions
	require.Len(t, click, 2)
	assert.Equal(t, domain.ActionSetVariable, click[0].Type)
	assert.Equal(t, "count", click[0].Variable)

	sleep := click[1]
	assert.Equal(t, domain.ActionCustom, sleep.Type)
	pkg, name := sleep.Handler()
	assert.Equal(t, "@tendril", pkg)
	assert.Equal(t, "sleep", name)
	require.Len(t, sleep.Arguments, 1)
	assert.Equal(t, "ms", sleep.Arguments[0].Name)

	tick := sleep.Events["tick"].Actions
	require.Len(t, tick, 1)
	assert.Equal(t, "ticked", tick[0].Event)
	assert.True(t, value.Equal(value.Object(map[string]value.Value{"at": value.Number(1)}), tick[0].Data.Value))

	require.Len(t, c.Handlers, 1)
	assert.Equal(t, domain.HandlerFormula, c.Handlers[0].Kind)
}

func TestParse_RoundTripsDomainJSON(t *testing.T) {
	original := &domain.Component{
		Name: "greeting",
		Attributes: map[string]*domain.Formula{
			"text": {
				Type: domain.FormulaFunction,
				Name: "concat",
				Arguments: []domain.Argument{
					{Formula: &domain.Formula{Type: domain.FormulaValue, Value: value.String("hi ")}},
					{Name: "who", Formula: &domain.Formula{Type: domain.FormulaPath, Path: []string{"Attributes", "who", "0"}}},
				},
			},
		},
		Events: map[string]domain.EventBinding{
			"go": {Actions: []*domain.Action{{
				Type:    domain.ActionSequence,
				Actions: []*domain.Action{{Type: domain.ActionTriggerEvent, Event: "went"}},
			}}},
		},
	}
	loader, err := memory.NewFromComponents(original)
	require.NoError(t, err)
	raw, err := loader.GetComponent(t.Context(), "greeting")
	require.NoError(t, err)

	c, err := compiler.NewParser().Parse("", raw)
	require.NoError(t, err)
	assert.Equal(t, "greeting", c.Name)
	text := c.Attributes["text"]
	require.Len(t, text.Arguments, 2)
	assert.True(t, value.Equal(value.String("hi "), text.Arguments[0].Formula.Value))
	assert.Equal(t, "who", text.Arguments[1].Name)
	assert.Equal(t, []string{"Attributes", "who", "0"}, text.Arguments[1].Formula.Path)
	assert.Equal(t, "went", c.Events["go"].Actions[0].Actions[0].Event)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want error
	}{
		{"empty", "", compiler.ErrEmptyDefinition},
		{"unknown field", "name: x\ncolour: red", domain.ErrInvalidDefinition},
		{"uninferable formula", "name: x\nattributes:\n  a: {foo: 1}", domain.ErrInvalidDefinition},
		{"unknown formula type", "name: x\nattributes:\n  a: {type: macro}", domain.ErrUnknownFormula},
		{"action not a map", "name: x\nevents:\n  click: [42]", domain.ErrInvalidDefinition},
		{"unknown action type", "name: x\nevents:\n  click: [{type: teleport}]", domain.ErrUnknownAction},
		{"setVariable without variable", "name: x\nevents:\n  click: [{type: setVariable}]", domain.ErrInvalidDefinition},
		{"bad handler kind", "name: x\nhandlers: [{name: h, kind: widget, code: 'x'}]", domain.ErrInvalidDefinition},
		{"nested path step", "name: x\nattributes:\n  a: {path: [[1]]}", domain.ErrInvalidDefinition},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := compiler.NewParser().Parse("x", []byte(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_InvalidSyntax(t *testing.T) {
	_, err := compiler.NewParser().Parse("x", []byte("name: [unclosed"))
	require.Error(t, err)
}

func TestParseFormula(t *testing.T) {
	p := compiler.NewParser()

	f, err := p.ParseFormula([]byte(`{"name": "add", "arguments": [1, 2.5]}`))
	require.NoError(t, err)
	assert.Equal(t, domain.FormulaFunction, f.Type)
	assert.True(t, value.Equal(value.Number(2.5), f.Arguments[1].Formula.Value))

	f, err = p.ParseFormula([]byte("[1, two]"))
	require.NoError(t, err)
	assert.True(t, value.Equal(value.Array(value.Number(1), value.String("two")), f.Value))

	f, err = p.ParseFormula([]byte("path: ''"))
	require.NoError(t, err)
	assert.Equal(t, domain.FormulaPath, f.Type)
	assert.Empty(t, f.Path)
}

func TestParseAction(t *testing.T) {
	a, err := compiler.NewParser().ParseAction([]byte(`
type: switch
cases:
  - condition: {path: Event.ok}
    actions: [{type: triggerEvent, event: accepted}]
default:
  - {type: triggerEvent, event: rejected}
`))
	require.NoError(t, err)
	assert.Equal(t, domain.ActionSwitch, a.Type)
	require.Len(t, a.Cases, 1)
	assert.Equal(t, "accepted", a.Cases[0].Actions[0].Event)
	assert.Equal(t, "rejected", a.Default[0].Event)
}

func TestParseFormula_PathShorthand(t *testing.T) {
	p := compiler.NewParser()
	tests := []struct {
		name string
		path string
		want []string
	}{
		{"Dots", "Variables.count", []string{"Variables", "count"}},
		{"Index", "items[0].name", []string{"items", "0", "name"}},
		{"Nested Index", "grid[1][2]", []string{"grid", "1", "2"}},
		{"Quoted Key", `Attributes["a.b"].c`, []string{"Attributes", "a.b", "c"}},
		{"Single Quotes", "Data['x]y']", []string{"Data", "x]y"}},
		{"Leading Bracket", "[0]", []string{"0"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := p.ParseFormula([]byte(`{"path": ` + quote(tt.path) + `}`))
			require.NoError(t, err)
			assert.Equal(t, domain.FormulaPath, f.Type)
			assert.Equal(t, tt.want, f.Path)
		})
	}

	for _, bad := range []string{"items[0", `items["a]`, `items["a"x]`} {
		_, err := p.ParseFormula([]byte(`{"path": ` + quote(bad) + `}`))
		assert.ErrorIs(t, err, domain.ErrInvalidDefinition, "path %s", bad)
	}
}

func quote(s string) string {
	b, _ := json.Marshal(s)
	return string(b)
}
