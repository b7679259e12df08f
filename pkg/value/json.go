package value

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"time"
)

// MaxIndent caps the indentation accepted by Encode.
const MaxIndent = 10

// ErrTrailingData is returned by Decode when the text holds more than one JSON document.
var ErrTrailingData = errors.New("trailing data after JSON value")

// DecodeOptions tunes Decode.
type DecodeOptions struct {
	// ReviveDates turns RFC 3339 timestamps back into dates.
	ReviveDates bool
}

// Encode serializes v as JSON. indent <= 0 yields compact output; larger
// values indent nested levels by that many spaces (capped at MaxIndent).
// NaN and infinities encode as null, dates as their display string.
func Encode(v Value, indent int) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if indent > 0 {
		if indent > MaxIndent {
			indent = MaxIndent
		}
		enc.SetIndent("", strings.Repeat(" ", indent))
	}
	if err := enc.Encode(toJSON(v)); err != nil {
		return "", fmt.Errorf("encode json: %w", err)
	}
	return strings.TrimSuffix(buf.String(), "\n"), nil
}

// Decode parses a single JSON document into a Value.
func Decode(text string, opts DecodeOptions) (Value, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return Null(), fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return Null(), ErrTrailingData
	}
	return fromJSON(raw, opts), nil
}

// MarshalJSON implements json.Marshaler.
func (v Value) MarshalJSON() ([]byte, error) {
	s, err := Encode(v, 0)
	if err != nil {
		return nil, err
	}
	return []byte(s), nil
}

// UnmarshalJSON implements json.Unmarshaler. Dates are not revived.
func (v *Value) UnmarshalJSON(data []byte) error {
	decoded, err := Decode(string(data), DecodeOptions{})
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func toJSON(v Value) any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return nil
		}
		return v.n
	case KindString:
		return v.s
	case KindDate:
		return v.t.UTC().Format(DateLayout)
	case KindArray:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = toJSON(item)
		}
		return out
	case KindObject:
		out := make(map[string]any, len(v.fields))
		for k, f := range v.fields {
			out[k] = toJSON(f)
		}
		return out
	}
	return nil
}

func fromJSON(raw any, opts DecodeOptions) Value {
	switch x := raw.(type) {
	case nil:
		return Null()
	case bool:
		return Bool(x)
	case json.Number:
		n, _ := strconv.ParseFloat(string(x), 64)
		return Number(n)
	case string:
		if opts.ReviveDates {
			if t, ok := reviveDate(x); ok {
				return Date(t)
			}
		}
		return String(x)
	case []any:
		items := make([]Value, len(x))
		for i, item := range x {
			items[i] = fromJSON(item, opts)
		}
		return adoptArray(items)
	case map[string]any:
		fields := make(map[string]Value, len(x))
		for k, f := range x {
			fields[k] = fromJSON(f, opts)
		}
		return adoptObject(fields)
	}
	return Null()
}

func reviveDate(s string) (time.Time, bool) {
	if len(s) < len("2006-01-02T15:04:05Z") || s[4] != '-' || s[10] != 'T' {
		return time.Time{}, false
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}
