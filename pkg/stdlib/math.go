package stdlib

import (
	"math"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	formula("add", add)
	formula("sum", add)
	formula("subtract", binaryMath(func(a, b float64) (float64, bool) { return a - b, true }))
	formula("multiply", multiply)
	formula("divide", binaryMath(func(a, b float64) (float64, bool) { return a / b, b != 0 }))
	formula("modulo", binaryMath(func(a, b float64) (float64, bool) { return math.Mod(a, b), b != 0 }))
	formula("power", binaryMath(func(a, b float64) (float64, bool) { return math.Pow(a, b), true }))
	formula("sqrt", unaryMath(func(a float64) (float64, bool) { return math.Sqrt(a), a >= 0 }))
	formula("absolute", unaryMath(func(a float64) (float64, bool) { return math.Abs(a), true }))
	formula("round", rounding(func(x float64) float64 { return math.Floor(x + 0.5) }))
	formula("roundUp", rounding(math.Ceil))
	formula("roundDown", rounding(math.Floor))
	formula("max", extreme(func(a, b float64) bool { return a > b }))
	formula("min", extreme(func(a, b float64) bool { return a < b }))
}

// numbers coerces every element; any NaN collapses the whole call.
func numbers(xs []value.Value) ([]float64, bool) {
	out := make([]float64, len(xs))
	for i, x := range xs {
		n, ok := value.NumberOf(x)
		if !ok {
			return nil, false
		}
		out[i] = n
	}
	return out, true
}

func result(n float64) value.Value {
	if math.IsNaN(n) {
		return value.Null()
	}
	return value.Number(n)
}

func add(args []value.Value, _ *execution.Context) value.Value {
	ns, ok := numbers(list(args))
	if !ok {
		return value.Null()
	}
	total := 0.0
	for _, n := range ns {
		total += n
	}
	return result(total)
}

func multiply(args []value.Value, _ *execution.Context) value.Value {
	ns, ok := numbers(list(args))
	if !ok {
		return value.Null()
	}
	product := 1.0
	for _, n := range ns {
		product *= n
	}
	return result(product)
}

func unaryMath(op func(float64) (float64, bool)) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		a, ok := value.NumberOf(arg(args, 0))
		if !ok {
			return value.Null()
		}
		n, ok := op(a)
		if !ok {
			return value.Null()
		}
		return result(n)
	}
}

func binaryMath(op func(a, b float64) (float64, bool)) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		a, okA := value.NumberOf(arg(args, 0))
		b, okB := value.NumberOf(arg(args, 1))
		if !okA || !okB {
			return value.Null()
		}
		n, ok := op(a, b)
		if !ok {
			return value.Null()
		}
		return result(n)
	}
}

// rounding applies fn at an optional number of decimals (second argument, default 0).
func rounding(fn func(float64) float64) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		x, ok := value.NumberOf(arg(args, 0))
		if !ok {
			return value.Null()
		}
		decimals := 0.0
		if len(args) > 1 && !args[1].IsNull() {
			d, ok := value.NumberOf(args[1])
			if !ok || d < 0 || d > 15 {
				return value.Null()
			}
			decimals = math.Trunc(d)
		}
		factor := math.Pow(10, decimals)
		return result(fn(x*factor) / factor)
	}
}

func extreme(better func(a, b float64) bool) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		ns, ok := numbers(list(args))
		if !ok || len(ns) == 0 {
			return value.Null()
		}
		best := ns[0]
		for _, n := range ns[1:] {
			if better(n, best) {
				best = n
			}
		}
		return value.Number(best)
	}
}
