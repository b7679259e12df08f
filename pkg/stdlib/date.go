package stdlib

import (
	"math"
	"strings"
	"time"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/value"
)

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	time.RFC1123Z,
	time.RFC1123,
}

func init() {
	formula("now", func(_ []value.Value, ctx *execution.Context) value.Value {
		return value.Date(ctx.ClockOrReal().Now())
	})
	formula("dateFromString", func(args []value.Value, _ *execution.Context) value.Value {
		s, ok := arg(args, 0).AsString()
		if !ok {
			return value.Null()
		}
		s = strings.TrimSpace(s)
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return value.Date(t)
			}
		}
		return value.Null()
	})
	formula("dateFromTimestamp", func(args []value.Value, _ *execution.Context) value.Value {
		ms, ok := value.NumberOf(arg(args, 0))
		if !ok || math.IsInf(ms, 0) {
			return value.Null()
		}
		return value.Date(time.UnixMilli(int64(ms)).UTC())
	})
	formula("timestamp", func(args []value.Value, _ *execution.Context) value.Value {
		t, ok := arg(args, 0).AsDate()
		if !ok {
			return value.Null()
		}
		return value.Number(float64(t.UnixMilli()))
	})
}
