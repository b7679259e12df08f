package stdlib

import (
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	// parseJSON(text, reviveDates?)
	formula("parseJSON", func(args []value.Value, _ *execution.Context) value.Value {
		text, ok := arg(args, 0).AsString()
		if !ok {
			return value.Null()
		}
		v, err := value.Decode(text, value.DecodeOptions{ReviveDates: value.IsTruthy(arg(args, 1))})
		if err != nil {
			return value.Null()
		}
		return v
	})
	// toJSON(value, indent?)
	formula("toJSON", func(args []value.Value, _ *execution.Context) value.Value {
		indent := 0
		if len(args) > 1 && !args[1].IsNull() {
			n, ok := integer(args[1])
			if !ok || n < 0 {
				return value.Null()
			}
			indent = n
		}
		text, err := value.Encode(arg(args, 0), indent)
		if err != nil {
			return value.Null()
		}
		return value.String(text)
	})
}
