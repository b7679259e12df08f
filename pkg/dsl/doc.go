/*
Package dsl builds component definitions in Go.

It is an alternative to YAML or JSON files: formulas and actions are composed
with plain functions and the result is a memory loader the engine can run.

	b := dsl.New()
	b.Add("counter").
		Variable("count", dsl.Val(0)).
		Attribute("label", dsl.Call("concatenate", dsl.Val("n="), dsl.Call("string", dsl.Var("count")))).
		On("click",
			dsl.Set("count", dsl.Call("add", dsl.Var("count"), dsl.Val(1))),
			dsl.Emit("changed", dsl.Var("count")),
		)

	loader, err := b.Build()
	// ... pass loader to tendril.New("", tendril.WithLoader(loader))
*/
package dsl
