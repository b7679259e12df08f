package stdlib_test

import (
	"math"
	"net/http"
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/stdlib"
	"github.com/aretw0/tendril/pkg/value"
	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	null = value.Null()
	num  = value.Number
	str  = value.String
	arr  = value.Array
)

func obj(kv ...any) value.Value {
	fields := map[string]value.Value{}
	for i := 0; i < len(kv); i += 2 {
		fields[kv[i].(string)] = kv[i+1].(value.Value)
	}
	return value.Object(fields)
}

func nums(ns ...float64) value.Value {
	items := make([]value.Value, len(ns))
	for i, n := range ns {
		items[i] = num(n)
	}
	return arr(items...)
}

func eval(t *testing.T, ctx *execution.Context, name string, args ...value.Value) value.Value {
	t.Helper()
	fn, ok := stdlib.Formulas[name]
	require.True(t, ok, "formula %s not registered", name)
	return fn(args, ctx)
}

type formulaCase struct {
	name string
	fn   string
	args []value.Value
	want value.Value
}

func runCases(t *testing.T, cases []formulaCase) {
	t.Helper()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := eval(t, execution.New(), tc.fn, tc.args...)
			if diff := cmp.Diff(tc.want, got, cmp.Comparer(value.Equal)); diff != "" {
				t.Errorf("%s mismatch (-want +got):\n%s", tc.fn, diff)
			}
		})
	}
}

func TestMath(t *testing.T) {
	runCases(t, []formulaCase{
		{"add list", "add", []value.Value{nums(1, 2, 3)}, num(6)},
		{"add coerces strings", "add", []value.Value{arr(num(1), str("2"))}, num(3)},
		{"add one bad element nulls all", "add", []value.Value{arr(num(1), str("x"), num(3))}, null},
		{"add empty is identity", "add", []value.Value{arr()}, num(0)},
		{"add variadic", "add", []value.Value{num(1), num(2)}, num(3)},
		{"sum alias", "sum", []value.Value{nums(4, 5)}, num(9)},
		{"multiply", "multiply", []value.Value{nums(2, 3, 4)}, num(24)},
		{"multiply empty is identity", "multiply", []value.Value{arr()}, num(1)},
		{"multiply null element", "multiply", []value.Value{arr(num(2), null)}, null},
		{"subtract", "subtract", []value.Value{num(5), num(7)}, num(-2)},
		{"divide", "divide", []value.Value{num(7), num(2)}, num(3.5)},
		{"divide by zero", "divide", []value.Value{num(1), num(0)}, null},
		{"modulo keeps dividend sign", "modulo", []value.Value{num(-7), num(3)}, num(-1)},
		{"modulo by zero", "modulo", []value.Value{num(1), num(0)}, null},
		{"power", "power", []value.Value{num(2), num(10)}, num(1024)},
		{"sqrt", "sqrt", []value.Value{num(9)}, num(3)},
		{"sqrt negative", "sqrt", []value.Value{num(-1)}, null},
		{"absolute", "absolute", []value.Value{str("-4")}, num(4)},
		{"round half up", "round", []value.Value{num(2.5)}, num(3)},
		{"round negative half", "round", []value.Value{num(-2.5)}, num(-2)},
		{"round decimals", "round", []value.Value{num(1.2345), num(2)}, num(1.23)},
		{"roundUp", "roundUp", []value.Value{num(1.01)}, num(2)},
		{"roundDown", "roundDown", []value.Value{num(-1.01)}, num(-2)},
		{"round bad decimals", "round", []value.Value{num(1), str("x")}, null},
		{"max", "max", []value.Value{nums(1, 2, 3)}, num(3)},
		{"max coerces", "max", []value.Value{arr(str("10"), num(9))}, num(10)},
		{"max empty", "max", []value.Value{arr()}, null},
		{"min", "min", []value.Value{nums(3, -1, 2)}, num(-1)},
		{"min non-number", "min", []value.Value{arr(num(1), obj())}, null},
	})
}

func TestNotTruthTable(t *testing.T) {
	runCases(t, []formulaCase{
		{"not true", "not", []value.Value{value.Bool(true)}, value.Bool(false)},
		{"not false", "not", []value.Value{value.Bool(false)}, value.Bool(true)},
		{"not zero", "not", []value.Value{num(0)}, value.Bool(false)},
		{"not null", "not", []value.Value{null}, value.Bool(true)},
		{"not empty string", "not", []value.Value{str("")}, value.Bool(false)},
		{"not empty list", "not", []value.Value{arr()}, value.Bool(false)},
		{"not missing argument", "not", nil, value.Bool(true)},
		{"boolean zero", "boolean", []value.Value{num(0)}, value.Bool(true)},
		{"boolean null", "boolean", []value.Value{null}, value.Bool(false)},
	})
}

func TestComparison(t *testing.T) {
	runCases(t, []formulaCase{
		{"equals deep", "equals", []value.Value{obj("a", nums(1, 2)), obj("a", nums(1, 2))}, value.Bool(true)},
		{"equals number string", "equals", []value.Value{num(1), str("1")}, value.Bool(false)},
		{"notEqual", "notEqual", []value.Value{num(1), num(2)}, value.Bool(true)},
		{"greaterThan", "greaterThan", []value.Value{num(3), num(2)}, value.Bool(true)},
		{"greaterOrEqual", "greaterOrEqual", []value.Value{num(2), str("2")}, value.Bool(true)},
		{"lessThan strings", "lessThan", []value.Value{str("apple"), str("banana")}, value.Bool(true)},
		{"lessThan strings lexicographic", "lessThan", []value.Value{str("10"), str("9")}, value.Bool(true)},
		{"lessOrEqual", "lessOrEqual", []value.Value{num(3), num(2)}, value.Bool(false)},
		{"incomparable", "greaterThan", []value.Value{obj(), num(1)}, null},
	})
}

func TestConversion(t *testing.T) {
	runCases(t, []formulaCase{
		{"number from string", "number", []value.Value{str(" 12.5 ")}, num(12.5)},
		{"number from junk", "number", []value.Value{str("12px")}, null},
		{"number from bool", "number", []value.Value{value.Bool(true)}, num(1)},
		{"string of number", "string", []value.Value{num(1.5)}, str("1.5")},
		{"string of list", "string", []value.Value{arr(num(1), str("a"))}, str(`[1,"a"]`)},
		{"string of null", "string", []value.Value{null}, str("null")},
		{"typeOf list", "typeOf", []value.Value{arr()}, str("array")},
		{"typeOf null", "typeOf", []value.Value{null}, str("null")},
		{"typeOf bool", "typeOf", []value.Value{value.Bool(false)}, str("boolean")},
	})
}

func TestLists(t *testing.T) {
	runCases(t, []formulaCase{
		{"size list", "size", []value.Value{nums(1, 2)}, num(2)},
		{"size string runes", "size", []value.Value{str("ção")}, num(3)},
		{"size number", "size", []value.Value{num(5)}, null},
		{"first", "first", []value.Value{nums(7, 8)}, num(7)},
		{"first empty", "first", []value.Value{arr()}, null},
		{"last string", "last", []value.Value{str("abc")}, str("c")},
		{"get object", "get", []value.Value{obj("a", num(1)), str("a")}, num(1)},
		{"get index", "get", []value.Value{nums(5, 6), num(1)}, num(6)},
		{"get bad index", "get", []value.Value{nums(5, 6), num(0.5)}, null},
		{"set object", "set", []value.Value{obj("a", num(1)), str("b"), num(2)}, obj("a", num(1), "b", num(2))},
		{"set index", "set", []value.Value{nums(1, 2), num(0), num(9)}, nums(9, 2)},
		{"set append position", "set", []value.Value{nums(1), num(1), num(2)}, nums(1, 2)},
		{"set out of range", "set", []value.Value{nums(1), num(5), num(2)}, null},
		{"append", "append", []value.Value{nums(1), num(2)}, nums(1, 2)},
		{"prepend", "prepend", []value.Value{nums(1), num(0)}, nums(0, 1)},
		{"append non-list", "append", []value.Value{str("a"), num(2)}, null},
		{"concatenate lists", "concatenate", []value.Value{nums(1), nums(2, 3)}, nums(1, 2, 3)},
		{"concatenate strings", "concatenate", []value.Value{str("a"), str("b")}, str("ab")},
		{"concatenate objects", "concatenate", []value.Value{obj("a", num(1)), obj("a", num(2), "b", num(3))}, obj("a", num(2), "b", num(3))},
		{"concatenate mixed", "concatenate", []value.Value{nums(1), str("b")}, null},
		{"includes deep", "includes", []value.Value{arr(obj("id", num(1))), obj("id", num(1))}, value.Bool(true)},
		{"includes substring", "includes", []value.Value{str("hello"), str("ell")}, value.Bool(true)},
		{"includes missing", "includes", []value.Value{nums(1), num(2)}, value.Bool(false)},
		{"indexOf", "indexOf", []value.Value{nums(4, 5, 4), num(4)}, num(0)},
		{"lastIndexOf", "lastIndexOf", []value.Value{nums(4, 5, 4), num(4)}, num(2)},
		{"indexOf missing", "indexOf", []value.Value{nums(1), num(9)}, num(-1)},
		{"indexOf string runes", "indexOf", []value.Value{str("çab"), str("b")}, num(2)},
		{"range", "range", []value.Value{num(1), num(3)}, nums(1, 2, 3)},
		{"range single", "range", []value.Value{num(2), num(2)}, nums(2)},
		{"range empty", "range", []value.Value{num(3), num(1)}, arr()},
		{"range non-number", "range", []value.Value{str("a"), num(1)}, null},
		{"take", "take", []value.Value{nums(1, 2, 3), num(2)}, nums(1, 2)},
		{"take past end", "take", []value.Value{nums(1, 2), num(9)}, nums(1, 2)},
		{"take negative", "take", []value.Value{nums(1, 2), num(-1)}, arr()},
		{"drop", "drop", []value.Value{nums(1, 2, 3), num(2)}, nums(3)},
		{"takeLast", "takeLast", []value.Value{nums(1, 2, 3), num(2)}, nums(2, 3)},
		{"dropLast", "dropLast", []value.Value{nums(1, 2, 3), num(2)}, nums(1)},
		{"take string", "take", []value.Value{str("héllo"), num(2)}, str("hé")},
		{"take bad count", "take", []value.Value{nums(1), str("x")}, null},
		{"reverse", "reverse", []value.Value{nums(1, 2, 3)}, nums(3, 2, 1)},
		{"reverse string", "reverse", []value.Value{str("abc")}, str("cba")},
		{"unique", "unique", []value.Value{arr(num(1), num(2), num(1), obj("a", num(1)), obj("a", num(1)))}, arr(num(1), num(2), obj("a", num(1)))},
		{"flatten one level", "flatten", []value.Value{arr(num(1), arr(num(2), arr(num(3))))}, arr(num(1), num(2), arr(num(3)))},
		{"flatten depth", "flatten", []value.Value{arr(num(1), arr(num(2), arr(num(3)))), num(5)}, nums(1, 2, 3)},
		{"join", "join", []value.Value{arr(num(1), str("a"), null), str("-")}, str("1-a-null")},
		{"join no separator", "join", []value.Value{arr(str("a"), str("b"))}, str("ab")},
		{"split", "split", []value.Value{str("a,b"), str(",")}, arr(str("a"), str("b"))},
		{"split chars", "split", []value.Value{str("ab"), str("")}, arr(str("a"), str("b"))},
	})
}

func TestObjectsAndStrings(t *testing.T) {
	o := obj("b", num(2), "a", num(1))
	runCases(t, []formulaCase{
		{"keys sorted", "keys", []value.Value{o}, arr(str("a"), str("b"))},
		{"values by key", "values", []value.Value{o}, nums(1, 2)},
		{"entries", "entries", []value.Value{obj("a", num(1))}, arr(obj("key", str("a"), "value", num(1)))},
		{"fromEntries objects", "fromEntries", []value.Value{arr(obj("key", str("a"), "value", num(1)))}, obj("a", num(1))},
		{"fromEntries pairs", "fromEntries", []value.Value{arr(arr(str("a"), num(1)))}, obj("a", num(1))},
		{"fromEntries junk", "fromEntries", []value.Value{arr(num(1))}, null},
		{"keys non-object", "keys", []value.Value{nums(1)}, null},
		{"uppercase", "uppercase", []value.Value{str("abc")}, str("ABC")},
		{"lowercase", "lowercase", []value.Value{str("ABC")}, str("abc")},
		{"trim", "trim", []value.Value{str("  x ")}, str("x")},
		{"uppercase number", "uppercase", []value.Value{num(1)}, null},
		{"startsWith", "startsWith", []value.Value{str("prefix"), str("pre")}, value.Bool(true)},
		{"endsWith", "endsWith", []value.Value{str("prefix"), str("pre")}, value.Bool(false)},
		{"replaceAll", "replaceAll", []value.Value{str("a-b-c"), str("-"), str("+")}, str("a+b+c")},
	})
}

func TestTakeDropComplement(t *testing.T) {
	subjects := []value.Value{nums(1, 2, 3, 4), arr(), str("héllo"), str("")}
	ctx := execution.New()
	for _, subject := range subjects {
		for n := 0; n <= subject.Len(); n++ {
			taken := eval(t, ctx, "take", subject, num(float64(n)))
			dropped := eval(t, ctx, "drop", subject, num(float64(n)))
			joined := eval(t, ctx, "concatenate", taken, dropped)
			assert.True(t, value.Equal(subject, joined), "take++drop of %s at %d = %s", subject, n, joined)

			lastTaken := eval(t, ctx, "takeLast", subject, num(float64(n)))
			lastDropped := eval(t, ctx, "dropLast", subject, num(float64(n)))
			assert.True(t, value.Equal(subject, eval(t, ctx, "concatenate", lastDropped, lastTaken)))
		}
	}
}

func TestReverseIdempotent(t *testing.T) {
	ctx := execution.New()
	for _, subject := range []value.Value{arr(), nums(1), arr(num(1), str("a"), obj("x", null)), str("añb")} {
		twice := eval(t, ctx, "reverse", eval(t, ctx, "reverse", subject))
		assert.True(t, value.Equal(subject, twice), "reverse(reverse(%s))", subject)
	}
}

func TestRangeLength(t *testing.T) {
	ctx := execution.New()
	for lo := -3; lo <= 3; lo++ {
		for hi := -3; hi <= 3; hi++ {
			got := eval(t, ctx, "range", num(float64(lo)), num(float64(hi)))
			if lo > hi {
				assert.Equal(t, 0, got.Len())
				continue
			}
			require.Equal(t, hi-lo+1, got.Len())
			assert.Equal(t, float64(lo), value.ToNumber(got.Index(0)))
		}
	}

	t.Run("Huge Bounds", func(t *testing.T) {
		cases := [][2]float64{
			{-9e18, 9e18},
			{0, 1e6},
			{math.MinInt64, math.MaxInt64},
			{0, 1e300},
			{math.Inf(-1), 0},
		}
		for _, c := range cases {
			assert.NotPanics(t, func() {
				assert.True(t, eval(t, ctx, "range", num(c[0]), num(c[1])).IsNull(), "range(%v, %v)", c[0], c[1])
			})
		}
		assert.Equal(t, 1_000_000, eval(t, ctx, "range", num(1), num(1e6)).Len())
	})
}

func TestEqualityIsInjected(t *testing.T) {
	ctx := execution.New()
	ctx.Equal = func(a, b value.Value) bool { return value.ToString(a) == value.ToString(b) }

	got := eval(t, ctx, "indexOf", arr(str("1"), num(2)), num(1))
	assert.Equal(t, float64(0), value.ToNumber(got))
	assert.True(t, value.IsTruthy(eval(t, ctx, "equals", num(2), str("2"))))
}

func TestJSONRoundTrip(t *testing.T) {
	ctx := execution.New()
	at := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	doc := obj("n", num(1.5), "s", str("x"), "list", arr(null, value.Bool(true)), "when", value.Date(at))

	for indent := 0; indent <= 4; indent++ {
		text := eval(t, ctx, "toJSON", doc, num(float64(indent)))
		require.Equal(t, value.KindString, text.Kind())

		revived := eval(t, ctx, "parseJSON", text, value.Bool(true))
		assert.True(t, value.Equal(doc, revived), "indent %d: %s", indent, revived)

		plain := eval(t, ctx, "parseJSON", text)
		assert.Equal(t, value.KindString, plain.Field("when").Kind())
	}

	assert.True(t, eval(t, ctx, "parseJSON", str("{oops")).IsNull())
	assert.True(t, eval(t, ctx, "toJSON", doc, num(-1)).IsNull())
}

func TestDates(t *testing.T) {
	clock := clockwork.NewFakeClockAt(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	ctx := execution.New()
	ctx.Clock = clock

	now := eval(t, ctx, "now")
	assert.Equal(t, "2024-06-01T12:00:00.000Z", value.ToString(now))

	ts := eval(t, ctx, "timestamp", now)
	assert.Equal(t, float64(clock.Now().UnixMilli()), value.ToNumber(ts))
	assert.True(t, value.Equal(now, eval(t, ctx, "dateFromTimestamp", ts)))

	parsed := eval(t, ctx, "dateFromString", str("2024-06-01"))
	assert.Equal(t, value.KindDate, parsed.Kind())
	assert.True(t, eval(t, ctx, "dateFromString", str("yesterday")).IsNull())
	assert.True(t, eval(t, ctx, "timestamp", str("2024-06-01")).IsNull())
	assert.True(t, eval(t, ctx, "dateFromTimestamp", num(math.Inf(1))).IsNull())

	t.Run("Real Clock", func(t *testing.T) {
		live := execution.New()
		for i := 0; i < 20; i++ {
			now := eval(t, live, "now")
			text := eval(t, live, "toJSON", now)
			assert.True(t, value.Equal(now, eval(t, live, "parseJSON", text, value.Bool(true))), "json %s", text)
			assert.True(t, value.Equal(now, eval(t, live, "dateFromTimestamp", eval(t, live, "timestamp", now))))
		}
	})
}

func TestEnvironmentFormulas(t *testing.T) {
	t.Run("Server", func(t *testing.T) {
		ctx := execution.New()
		ctx.Env.Server = &execution.ServerEnv{
			URL: "https://example.com/a?b=1",
			Headers: http.Header{
				"Accept-Language": {"en;q=0.5, pt-BR, *;q=0.1, fr;q=0"},
				"User-Agent":      {"test-agent"},
				"X-Multi":         {"a", "b"},
			},
			Cookies: map[string]string{"theme": "dark"},
		}

		assert.True(t, value.IsTruthy(eval(t, ctx, "isServer")))
		assert.Equal(t, `["pt-BR","en"]`, value.ToString(eval(t, ctx, "languages")))
		assert.Equal(t, "test-agent", value.ToString(eval(t, ctx, "userAgent")))
		assert.Equal(t, "https://example.com/a?b=1", value.ToString(eval(t, ctx, "currentURL")))
		assert.Equal(t, "a, b", value.ToString(eval(t, ctx, "getHeader", str("x-multi"))))
		assert.True(t, eval(t, ctx, "getHeader", str("missing")).IsNull())
		assert.Equal(t, "dark", value.ToString(eval(t, ctx, "getCookie", str("theme"))))
	})

	t.Run("Client", func(t *testing.T) {
		ctx := execution.New()
		ctx.Env.Client = &execution.ClientEnv{Languages: []string{"de"}, Location: "https://app.test/"}
		ctx.Root = execution.Document{Cookie: "a=1; theme=light"}

		assert.False(t, value.IsTruthy(eval(t, ctx, "isServer")))
		assert.Equal(t, `["de"]`, value.ToString(eval(t, ctx, "languages")))
		assert.True(t, eval(t, ctx, "userAgent").IsNull(), "unavailable facts read as null")
		assert.Equal(t, "https://app.test/", value.ToString(eval(t, ctx, "currentURL")))
		assert.True(t, eval(t, ctx, "getHeader", str("User-Agent")).IsNull())
		assert.Equal(t, "light", value.ToString(eval(t, ctx, "getCookie", str("theme"))))

		ctx.Root = execution.ShadowRoot{}
		assert.True(t, eval(t, ctx, "getCookie", str("theme")).IsNull())
	})

	t.Run("Headless", func(t *testing.T) {
		ctx := execution.New()
		assert.True(t, eval(t, ctx, "languages").IsNull())
		assert.True(t, eval(t, ctx, "currentURL").IsNull())
		assert.True(t, eval(t, ctx, "getFromLocalStorage", str("k")).IsNull(), "no storage reads as null")
	})
}
