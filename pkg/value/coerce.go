package value

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// DateLayout is the display form of dates: RFC 3339 with milliseconds, always UTC.
const DateLayout = "2006-01-02T15:04:05.000Z07:00"

// ToNumber is the single numeric coercion used by every handler.
//
//	number  -> itself
//	string  -> trimmed decimal/float literal, "Infinity" forms; anything else NaN (empty included)
//	boolean -> 1 or 0
//	date    -> Unix milliseconds
//	null, array, object -> NaN
func ToNumber(v Value) float64 {
	switch v.kind {
	case KindNumber:
		return v.n
	case KindBool:
		if v.b {
			return 1
		}
		return 0
	case KindString:
		return parseNumber(v.s)
	case KindDate:
		return float64(v.t.UnixMilli())
	}
	return math.NaN()
}

func parseNumber(raw string) float64 {
	s := strings.TrimSpace(raw)
	switch s {
	case "":
		return math.NaN()
	case "Infinity", "+Infinity":
		return math.Inf(1)
	case "-Infinity":
		return math.Inf(-1)
	}
	lower := strings.ToLower(s)
	if strings.Contains(lower, "inf") || strings.Contains(lower, "nan") || strings.Contains(lower, "x") {
		return math.NaN()
	}
	n, err := strconv.ParseFloat(s, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return n
		}
		return math.NaN()
	}
	return n
}

// NumberOf coerces v and reports whether the result is a number (not NaN).
func NumberOf(v Value) (float64, bool) {
	n := ToNumber(v)
	return n, !math.IsNaN(n)
}

// ToString returns the canonical string form of any Value.
func ToString(v Value) string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(v.b)
	case KindNumber:
		return FormatNumber(v.n)
	case KindString:
		return v.s
	case KindDate:
		return v.t.UTC().Format(DateLayout)
	}
	js, err := Encode(v, 0)
	if err != nil {
		return ""
	}
	return js
}

// FormatNumber prints n in shortest decimal form, switching to exponent
// notation outside [1e-6, 1e21).
func FormatNumber(n float64) string {
	switch {
	case math.IsNaN(n):
		return "NaN"
	case math.IsInf(n, 1):
		return "Infinity"
	case math.IsInf(n, -1):
		return "-Infinity"
	case n == 0:
		return "0"
	}
	abs := math.Abs(n)
	if abs >= 1e21 || abs < 1e-6 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		s = strings.Replace(s, "e-0", "e-", 1)
		return strings.Replace(s, "e+0", "e+", 1)
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}

// IsTruthy is the truthiness table shared by every boolean-consuming formula.
// Only null and false are falsy; 0, "", NaN, empty arrays and empty objects are truthy.
func IsTruthy(v Value) bool {
	switch v.kind {
	case KindNull:
		return false
	case KindBool:
		return v.b
	}
	return true
}
