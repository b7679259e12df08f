package domain_test

import (
	"testing"

	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitName(t *testing.T) {
	tests := []struct {
		pkg, name         string
		wantPkg, wantName string
	}{
		{"", "add", "", "add"},
		{"", "@tendril/add", "@tendril", "add"},
		{"", "@acme/ui/button", "@acme/ui", "button"},
		{"local", "other/name", "local", "other/name"},
		{"", "/leading", "", "/leading"},
	}
	for _, tt := range tests {
		pkg, name := domain.SplitName(tt.pkg, tt.name)
		assert.Equal(t, tt.wantPkg, pkg, "package of %s/%s", tt.pkg, tt.name)
		assert.Equal(t, tt.wantName, name, "name of %s/%s", tt.pkg, tt.name)
	}
}

func TestComponent_Validate(t *testing.T) {
	literal := &domain.Formula{Type: domain.FormulaValue, Value: value.Int(1)}

	t.Run("Valid", func(t *testing.T) {
		c := &domain.Component{
			Name:       "counter",
			Variables:  map[string]domain.Variable{"count": {InitialValue: literal}},
			Attributes: map[string]*domain.Formula{"label": {Type: domain.FormulaFunction, Name: "string", Arguments: []domain.Argument{{Formula: literal}}}},
			Events: map[string]domain.EventBinding{
				"click": {Actions: []*domain.Action{
					{Type: domain.ActionSetVariable, Variable: "count", Data: literal},
					{Type: domain.ActionSequence},
				}},
			},
		}
		require.NoError(t, c.Validate())
	})

	t.Run("CollectsAllProblems", func(t *testing.T) {
		c := &domain.Component{
			Attributes: map[string]*domain.Formula{
				"a": {Type: "bogus"},
				"b": {Type: domain.FormulaFunction},
			},
			Events: map[string]domain.EventBinding{
				"click": {Actions: []*domain.Action{{Type: domain.ActionSetVariable}}},
			},
			Handlers: []domain.HandlerSource{{Name: "x", Kind: "widget"}},
		}
		err := c.Validate()
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
		assert.ErrorIs(t, err, domain.ErrUnknownFormula)
		assert.Contains(t, err.Error(), "component without name")
		assert.Contains(t, err.Error(), "attributes.b")
		assert.Contains(t, err.Error(), "events.click[0]")
		assert.Contains(t, err.Error(), `unknown kind "widget"`)
	})

	t.Run("UnknownAction", func(t *testing.T) {
		c := &domain.Component{
			Name:   "x",
			Events: map[string]domain.EventBinding{"e": {Actions: []*domain.Action{{Type: "teleport"}}}},
		}
		assert.ErrorIs(t, c.Validate(), domain.ErrUnknownAction)
	})
}

func TestComponent_Walk(t *testing.T) {
	arg := &domain.Formula{Type: domain.FormulaPath, Path: []string{"Event"}}
	c := &domain.Component{
		Name: "x",
		Attributes: map[string]*domain.Formula{
			"a": {Type: domain.FormulaFunction, Name: "not", Arguments: []domain.Argument{{Formula: arg}}},
		},
		Events: map[string]domain.EventBinding{
			"e": {Actions: []*domain.Action{{
				Type: domain.ActionCustom, Name: "sleep",
				Arguments: []domain.Argument{{Formula: arg}},
				Events: map[string]domain.EventBinding{
					"tick": {Actions: []*domain.Action{{Type: domain.ActionTriggerEvent, Event: "done"}}},
				},
			}}},
		},
	}

	var functions, paths int
	c.Walk(func(f *domain.Formula) bool {
		switch f.Type {
		case domain.FormulaFunction:
			functions++
		case domain.FormulaPath:
			paths++
		}
		return true
	})
	assert.Equal(t, 1, functions)
	assert.Equal(t, 2, paths)

	var actions []domain.ActionType
	c.WalkActions(func(a *domain.Action) bool {
		actions = append(actions, a.Type)
		return true
	})
	assert.Equal(t, []domain.ActionType{domain.ActionCustom, domain.ActionTriggerEvent}, actions)
}
