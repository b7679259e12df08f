package stdlib

import (
	"math"
	"strings"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

// maxRange bounds the length of range() results.
const maxRange = 1_000_000

// maxSafeInteger is the largest integer a float64 holds exactly.
const maxSafeInteger = 1 << 53

func init() {
	formula("size", func(args []value.Value, _ *execution.Context) value.Value {
		switch v := arg(args, 0); v.Kind() {
		case value.KindArray, value.KindObject, value.KindString:
			return value.Int(v.Len())
		}
		return value.Null()
	})
	formula("first", func(args []value.Value, _ *execution.Context) value.Value {
		return element(arg(args, 0), 0)
	})
	formula("last", func(args []value.Value, _ *execution.Context) value.Value {
		v := arg(args, 0)
		return element(v, v.Len()-1)
	})
	formula("get", get)
	formula("set", set)
	formula("append", func(args []value.Value, _ *execution.Context) value.Value {
		items, ok := arg(args, 0).AsArray()
		if !ok {
			return value.Null()
		}
		return value.Array(append(items, arg(args, 1))...)
	})
	formula("prepend", func(args []value.Value, _ *execution.Context) value.Value {
		items, ok := arg(args, 0).AsArray()
		if !ok {
			return value.Null()
		}
		return value.Array(append([]value.Value{arg(args, 1)}, items...)...)
	})
	formula("concatenate", concatenate)
	formula("includes", func(args []value.Value, ctx *execution.Context) value.Value {
		i := indexOf(arg(args, 0), arg(args, 1), ctx, false)
		if i.IsNull() {
			return value.Null()
		}
		return value.Bool(value.ToNumber(i) >= 0)
	})
	formula("indexOf", func(args []value.Value, ctx *execution.Context) value.Value {
		return indexOf(arg(args, 0), arg(args, 1), ctx, false)
	})
	formula("lastIndexOf", func(args []value.Value, ctx *execution.Context) value.Value {
		return indexOf(arg(args, 0), arg(args, 1), ctx, true)
	})
	formula("range", rangeOf)
	formula("take", slicing(func(n, length int) (int, int) { return 0, n }))
	formula("drop", slicing(func(n, length int) (int, int) { return n, length }))
	formula("takeLast", slicing(func(n, length int) (int, int) { return length - n, length }))
	formula("dropLast", slicing(func(n, length int) (int, int) { return 0, length - n }))
	formula("reverse", reverse)
	formula("unique", unique)
	formula("flatten", flatten)
	formula("join", func(args []value.Value, _ *execution.Context) value.Value {
		items, ok := arg(args, 0).AsArray()
		if !ok {
			return value.Null()
		}
		sep := ""
		if s := arg(args, 1); !s.IsNull() {
			if sep, ok = s.AsString(); !ok {
				return value.Null()
			}
		}
		parts := make([]string, len(items))
		for i, item := range items {
			parts[i] = value.ToString(item)
		}
		return value.String(strings.Join(parts, sep))
	})
	formula("split", func(args []value.Value, _ *execution.Context) value.Value {
		s, okS := arg(args, 0).AsString()
		sep, okSep := arg(args, 1).AsString()
		if !okS || !okSep {
			return value.Null()
		}
		parts := strings.Split(s, sep)
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String(p)
		}
		return value.Array(items...)
	})
}

// element returns the i-th array element or the i-th rune of a string.
func element(v value.Value, i int) value.Value {
	switch v.Kind() {
	case value.KindArray:
		return v.Index(i)
	case value.KindString:
		s, _ := v.AsString()
		runes := []rune(s)
		if i < 0 || i >= len(runes) {
			return value.Null()
		}
		return value.String(string(runes[i]))
	}
	return value.Null()
}

func integer(v value.Value) (int, bool) {
	n, ok := value.NumberOf(v)
	if !ok || math.Abs(n) > maxSafeInteger || n != math.Trunc(n) {
		return 0, false
	}
	return int(n), true
}

func get(args []value.Value, _ *execution.Context) value.Value {
	collection, key := arg(args, 0), arg(args, 1)
	switch collection.Kind() {
	case value.KindObject:
		return collection.Field(value.ToString(key))
	case value.KindArray, value.KindString:
		i, ok := integer(key)
		if !ok {
			return value.Null()
		}
		return element(collection, i)
	}
	return value.Null()
}

func set(args []value.Value, _ *execution.Context) value.Value {
	collection, key, v := arg(args, 0), arg(args, 1), arg(args, 2)
	switch collection.Kind() {
	case value.KindObject:
		return collection.With(value.ToString(key), v)
	case value.KindArray:
		items, _ := collection.AsArray()
		i, ok := integer(key)
		if !ok || i < 0 || i > len(items) {
			return value.Null()
		}
		if i == len(items) {
			return value.Array(append(items, v)...)
		}
		items[i] = v
		return value.Array(items...)
	}
	return value.Null()
}

func concatenate(args []value.Value, _ *execution.Context) value.Value {
	if len(args) == 0 {
		return value.Null()
	}
	switch args[0].Kind() {
	case value.KindArray:
		var out []value.Value
		for _, a := range args {
			items, ok := a.AsArray()
			if !ok {
				return value.Null()
			}
			out = append(out, items...)
		}
		return value.Array(out...)
	case value.KindObject:
		merged := map[string]value.Value{}
		for _, a := range args {
			fields, ok := a.AsObject()
			if !ok {
				return value.Null()
			}
			for k, v := range fields {
				merged[k] = v
			}
		}
		return value.Object(merged)
	case value.KindString:
		var sb strings.Builder
		for _, a := range args {
			s, ok := a.AsString()
			if !ok {
				return value.Null()
			}
			sb.WriteString(s)
		}
		return value.String(sb.String())
	}
	return value.Null()
}

// indexOf searches arrays with the context's equality and strings by substring.
// Positions in strings count runes.
func indexOf(collection, item value.Value, ctx *execution.Context, last bool) value.Value {
	switch collection.Kind() {
	case value.KindArray:
		items, _ := collection.AsArray()
		equal := ctx.EqualFunc()
		if last {
			for i := len(items) - 1; i >= 0; i-- {
				if equal(items[i], item) {
					return value.Int(i)
				}
			}
			return value.Int(-1)
		}
		for i, x := range items {
			if equal(x, item) {
				return value.Int(i)
			}
		}
		return value.Int(-1)
	case value.KindString:
		s, _ := collection.AsString()
		sub, ok := item.AsString()
		if !ok {
			return value.Null()
		}
		var b int
		if last {
			b = strings.LastIndex(s, sub)
		} else {
			b = strings.Index(s, sub)
		}
		if b < 0 {
			return value.Int(-1)
		}
		return value.Int(len([]rune(s[:b])))
	}
	return value.Null()
}

func rangeOf(args []value.Value, _ *execution.Context) value.Value {
	lo, okLo := integer(arg(args, 0))
	hi, okHi := integer(arg(args, 1))
	if !okLo || !okHi {
		return value.Null()
	}
	if lo > hi {
		return value.Array()
	}
	if float64(hi)-float64(lo)+1 > maxRange {
		return value.Null()
	}
	items := make([]value.Value, 0, hi-lo+1)
	for i := lo; i <= hi; i++ {
		items = append(items, value.Int(i))
	}
	return value.Array(items...)
}

// slicing builds take/drop style handlers over arrays and strings. bounds maps
// the clamped count n and the length to a [from, to) window.
func slicing(bounds func(n, length int) (int, int)) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, _ *execution.Context) value.Value {
		n, ok := value.NumberOf(arg(args, 1))
		if !ok {
			return value.Null()
		}
		subject := arg(args, 0)
		length := subject.Len()
		if subject.Kind() != value.KindArray && subject.Kind() != value.KindString {
			return value.Null()
		}
		count := int(math.Max(0, math.Min(float64(length), math.Floor(n))))
		from, to := bounds(count, length)

		if items, ok := subject.AsArray(); ok {
			return value.Array(items[from:to]...)
		}
		s, _ := subject.AsString()
		return value.String(string([]rune(s)[from:to]))
	}
}

func reverse(args []value.Value, _ *execution.Context) value.Value {
	subject := arg(args, 0)
	if items, ok := subject.AsArray(); ok {
		for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
			items[i], items[j] = items[j], items[i]
		}
		return value.Array(items...)
	}
	if s, ok := subject.AsString(); ok {
		runes := []rune(s)
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return value.String(string(runes))
	}
	return value.Null()
}

func unique(args []value.Value, ctx *execution.Context) value.Value {
	items, ok := arg(args, 0).AsArray()
	if !ok {
		return value.Null()
	}
	equal := ctx.EqualFunc()
	out := make([]value.Value, 0, len(items))
	for _, item := range items {
		seen := false
		for _, kept := range out {
			if equal(kept, item) {
				seen = true
				break
			}
		}
		if !seen {
			out = append(out, item)
		}
	}
	return value.Array(out...)
}

// flatten removes one level of nesting, or depth levels when given.
func flatten(args []value.Value, _ *execution.Context) value.Value {
	items, ok := arg(args, 0).AsArray()
	if !ok {
		return value.Null()
	}
	depth := 1
	if d := arg(args, 1); !d.IsNull() {
		n, ok := integer(d)
		if !ok || n < 0 {
			return value.Null()
		}
		depth = n
	}
	return value.Array(flattenInto(nil, items, depth)...)
}

func flattenInto(out, items []value.Value, depth int) []value.Value {
	for _, item := range items {
		if nested, ok := item.AsArray(); ok && depth > 0 {
			out = flattenInto(out, nested, depth-1)
			continue
		}
		out = append(out, item)
	}
	return out
}
