package dsl_test

import (
	"context"
	"testing"

	"github.com/aretw0/tendril"
	"github.com/aretw0/tendril/pkg/domain"
	"github.com/aretw0/tendril/pkg/dsl"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counter(b *dsl.Builder) {
	b.Add("counter").
		Variable("count", dsl.Val(0)).
		Attribute("label", dsl.Call("concatenate", dsl.Val("n="), dsl.Call("string", dsl.Var("count")))).
		Attribute("size", dsl.Switch(dsl.Val("small"),
			dsl.Case(dsl.Call("greaterThan", dsl.Var("count"), dsl.Val(1)), dsl.Val("big")),
		)).
		Attribute("summary", dsl.Apply("describe", dsl.Arg("who", dsl.Attr("who")))).
		Formula("describe", dsl.Obj(map[string]*domain.Formula{
			"who":   dsl.Path("Args", "who"),
			"flags": dsl.List(dsl.And(dsl.Val(true), dsl.Val(1)), dsl.Or(dsl.Val(nil), dsl.Val("x"))),
		}), "who").
		On("click",
			dsl.Set("count", dsl.Call("add", dsl.Var("count"), dsl.Event("step"))),
			dsl.Choose(
				[]*domain.Action{dsl.Emit("changed", dsl.Var("count"))},
				dsl.When(dsl.Call("greaterThan", dsl.Var("count"), dsl.Val(10)), dsl.Emit("overflow", dsl.Var("count"))),
			),
		)
}

func TestBuilder_Build(t *testing.T) {
	b := dsl.New()
	counter(b)
	b.Add("empty")

	loader, err := b.Build()
	require.NoError(t, err)

	names, err := loader.ListComponents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"counter", "empty"}, names)

	assert.Same(t, b.Add("counter"), b.Add("counter"), "Add returns the existing builder")
}

func TestBuilder_RunsOnEngine(t *testing.T) {
	b := dsl.New()
	counter(b)
	loader, err := b.Build()
	require.NoError(t, err)

	eng, err := tendril.New("", tendril.WithLoader(loader))
	require.NoError(t, err)

	ctx := context.Background()
	scope := tendril.Scope{
		Component:  "counter",
		SessionID:  "s1",
		Attributes: map[string]value.Value{"who": value.String("ada")},
	}

	var events []string
	emit := func(event string, payload value.Value) {
		events = append(events, event+":"+value.ToString(payload))
	}
	for _, step := range []int{2, 9} {
		run, err := eng.Trigger(ctx, tendril.TriggerRequest{
			Scope:   scope,
			Event:   "click",
			Payload: value.Object(map[string]value.Value{"step": value.Int(step)}),
			Emit:    emit,
		})
		require.NoError(t, err)
		require.NoError(t, run.Err)
	}
	assert.Equal(t, []string{"changed:2", "overflow:11"}, events)

	res, err := eng.Render(ctx, tendril.RenderRequest{Scope: scope})
	require.NoError(t, err)
	require.Empty(t, res.Errors)
	assert.Equal(t, "n=11", value.ToString(res.Attributes["label"]))
	assert.Equal(t, "big", value.ToString(res.Attributes["size"]))

	summary := res.Attributes["summary"]
	assert.Equal(t, "ada", value.ToString(summary.Field("who")))
	assert.True(t, value.Equal(
		value.Array(value.Bool(true), value.Bool(true)),
		summary.Field("flags"),
	))
}

func TestBuilder_Listen(t *testing.T) {
	a := dsl.Listen(dsl.Do("sleep", dsl.Val(100)), "tick", dsl.Emit("done", nil))
	a = dsl.Listen(a, "tick", dsl.Set("x", dsl.Val(1)))

	assert.Equal(t, domain.ActionCustom, a.Type)
	require.Len(t, a.Arguments, 1)
	assert.Len(t, a.Events["tick"].Actions, 2)
	assert.NoError(t, a.Validate())
}

func TestBuilder_InvalidComponent(t *testing.T) {
	b := dsl.New()
	b.Add("bad").Attribute("x", dsl.Call(""))
	b.Add("worse").On("click", dsl.Set("", nil))

	_, err := b.Build()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInvalidDefinition)
	assert.Contains(t, err.Error(), "bad")
	assert.Contains(t, err.Error(), "worse")
}
