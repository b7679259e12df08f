package stdlib

import (
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	formula("not", func(args []value.Value, _ *execution.Context) value.Value {
		return value.Bool(!value.IsTruthy(arg(args, 0)))
	})
	formula("boolean", func(args []value.Value, _ *execution.Context) value.Value {
		return value.Bool(value.IsTruthy(arg(args, 0)))
	})
	formula("equals", func(args []value.Value, ctx *execution.Context) value.Value {
		return value.Bool(ctx.EqualFunc()(arg(args, 0), arg(args, 1)))
	})
	formula("notEqual", func(args []value.Value, ctx *execution.Context) value.Value {
		return value.Bool(!ctx.EqualFunc()(arg(args, 0), arg(args, 1)))
	})
	formula("greaterThan", comparison(func(c int) bool { return c > 0 }))
	formula("greaterOrEqual", comparison(func(c int) bool { return c >= 0 }))
	formula("lessThan", comparison(func(c int) bool { return c < 0 }))
	formula("lessOrEqual", comparison(func(c int) bool { return c <= 0 }))

	formula("number", func(args []value.Value, _ *execution.Context) value.Value {
		n, ok := value.NumberOf(arg(args, 0))
		if !ok {
			return value.Null()
		}
		return value.Number(n)
	})
	formula("string", func(args []value.Value, _ *execution.Context) value.Value {
		return value.String(value.ToString(arg(args, 0)))
	})
	formula("typeOf", func(args []value.Value, _ *execution.Context) value.Value {
		return value.String(arg(args, 0).Kind().String())
	})
	formula("isServer", func(_ []value.Value, ctx *execution.Context) value.Value {
		return value.Bool(ctx.Env.IsServer())
	})
}

// compare orders two values: strings lexicographically when both are strings,
// everything else numerically after coercion. ok is false when incomparable.
func compare(a, b value.Value) (int, bool) {
	if sa, okA := a.AsString(); okA {
		if sb, okB := b.AsString(); okB {
			switch {
			case sa < sb:
				return -1, true
			case sa > sb:
				return 1, true
			}
			return 0, true
		}
	}
	x, okX := value.NumberOf(a)
	y, okY := value.NumberOf(b)
	if !okX || !okY {
		return 0, false
	}
	switch {
	case x < y:
		return -1, true
	case x > y:
		return 1, true
	}
	return 0, true
}

func comparison(holds func(int) bool) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		c, ok := compare(arg(args, 0), arg(args, 1))
		if !ok {
			return value.Null()
		}
		return value.Bool(holds(c))
	}
}
