package stdlib

import (
	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	formula("keys", func(args []value.Value, _ *execution.Context) value.Value {
		obj := arg(args, 0)
		if obj.Kind() != value.KindObject {
			return value.Null()
		}
		keys := obj.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.String(k)
		}
		return value.Array(items...)
	})
	formula("values", func(args []value.Value, _ *execution.Context) value.Value {
		obj := arg(args, 0)
		if obj.Kind() != value.KindObject {
			return value.Null()
		}
		keys := obj.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = obj.Field(k)
		}
		return value.Array(items...)
	})
	formula("entries", func(args []value.Value, _ *execution.Context) value.Value {
		obj := arg(args, 0)
		if obj.Kind() != value.KindObject {
			return value.Null()
		}
		keys := obj.Keys()
		items := make([]value.Value, len(keys))
		for i, k := range keys {
			items[i] = value.Object(map[string]value.Value{
				"key":   value.String(k),
				"value": obj.Field(k),
			})
		}
		return value.Array(items...)
	})
	formula("fromEntries", fromEntries)
}

// fromEntries accepts {key, value} objects or [key, value] pairs. Later keys win.
func fromEntries(args []value.Value, _ *execution.Context) value.Value {
	entries, ok := arg(args, 0).AsArray()
	if !ok {
		return value.Null()
	}
	fields := make(map[string]value.Value, len(entries))
	for _, e := range entries {
		switch e.Kind() {
		case value.KindObject:
			key, ok := e.Lookup("key")
			if !ok || key.IsNull() {
				return value.Null()
			}
			fields[value.ToString(key)] = e.Field("value")
		case value.KindArray:
			if e.Len() != 2 || e.Index(0).IsNull() {
				return value.Null()
			}
			fields[value.ToString(e.Index(0))] = e.Index(1)
		default:
			return value.Null()
		}
	}
	return value.Object(fields)
}
