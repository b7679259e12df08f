package stdlib

import (
	"strings"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	formula("uppercase", stringOp(strings.ToUpper))
	formula("lowercase", stringOp(strings.ToLower))
	formula("trim", stringOp(strings.TrimSpace))
	formula("startsWith", stringTest(strings.HasPrefix))
	formula("endsWith", stringTest(strings.HasSuffix))
	formula("replaceAll", func(args []value.Value, _ *execution.Context) value.Value {
		s, ok1 := arg(args, 0).AsString()
		search, ok2 := arg(args, 1).AsString()
		replacement, ok3 := arg(args, 2).AsString()
		if !ok1 || !ok2 || !ok3 {
			return value.Null()
		}
		return value.String(strings.ReplaceAll(s, search, replacement))
	})
}

func stringOp(op func(string) string) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		s, ok := arg(args, 0).AsString()
		if !ok {
			return value.Null()
		}
		return value.String(op(s))
	}
}

func stringTest(test func(s, affix string) bool) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		s, ok1 := arg(args, 0).AsString()
		affix, ok2 := arg(args, 1).AsString()
		if !ok1 || !ok2 {
			return value.Null()
		}
		return value.Bool(test(s, affix))
	}
}
