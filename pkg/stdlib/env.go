package stdlib

import (
	"sort"
	"strconv"
	"strings"

	"github.com/aretw0/tendril/pkg/execution"
	"github.com/aretw0/tendril/pkg/storage"
	"github.com/aretw0/tendril/pkg/value"
)

func init() {
	formula("getCookie", func(args []value.Value, ctx *execution.Context) value.Value {
		name, ok := arg(args, 0).AsString()
		if !ok {
			return value.Null()
		}
		v, found := execution.ReadCookie(ctx, name)
		if !found {
			return value.Null()
		}
		return value.String(v)
	})
	formula("languages", func(_ []value.Value, ctx *execution.Context) value.Value {
		var langs []string
		switch {
		case ctx.Env.Server != nil:
			langs = parseAcceptLanguage(ctx.Env.Server.Headers.Get("Accept-Language"))
		case ctx.Env.Client != nil:
			langs = ctx.Env.Client.Languages
		}
		if len(langs) == 0 {
			return value.Null()
		}
		return value.FromAny(langs)
	})
	formula("userAgent", func(_ []value.Value, ctx *execution.Context) value.Value {
		switch {
		case ctx.Env.Server != nil:
			return optionalString(ctx.Env.Server.Headers.Get("User-Agent"))
		case ctx.Env.Client != nil:
			return optionalString(ctx.Env.Client.UserAgent)
		}
		return value.Null()
	})
	formula("currentURL", func(_ []value.Value, ctx *execution.Context) value.Value {
		switch {
		case ctx.Env.Server != nil:
			return optionalString(ctx.Env.Server.URL)
		case ctx.Env.Client != nil:
			return optionalString(ctx.Env.Client.Location)
		}
		return value.Null()
	})
	formula("getHeader", func(args []value.Value, ctx *execution.Context) value.Value {
		name, ok := arg(args, 0).AsString()
		if !ok || ctx.Env.Server == nil {
			return value.Null()
		}
		values := ctx.Env.Server.Headers.Values(name)
		if len(values) == 0 {
			return value.Null()
		}
		return value.String(strings.Join(values, ", "))
	})
	formula("getFromLocalStorage", storageGetter(func(ctx *execution.Context) *storage.Storage { return ctx.LocalStorage }))
	formula("getFromSessionStorage", storageGetter(func(ctx *execution.Context) *storage.Storage { return ctx.SessionStorage }))
}

func optionalString(s string) value.Value {
	if s == "" {
		return value.Null()
	}
	return value.String(s)
}

func storageGetter(pick func(*execution.Context) *storage.Storage) func([]value.Value, *execution.Context) value.Value {
	return func(args []value.Value, ctx *execution.Context) value.Value {
		key, ok := arg(args, 0).AsString()
		if !ok {
			return value.Null()
		}
		return pick(ctx).Get(ctx.Signal.Context(), key)
	}
}

// parseAcceptLanguage orders language tags by quality, keeping header order on ties.
func parseAcceptLanguage(header string) []string {
	type tag struct {
		name string
		q    float64
	}
	var tags []tag
	for _, part := range strings.Split(header, ",") {
		name, params, _ := strings.Cut(strings.TrimSpace(part), ";")
		name = strings.TrimSpace(name)
		if name == "" || name == "*" {
			continue
		}
		q := 1.0
		if p := strings.TrimSpace(params); strings.HasPrefix(p, "q=") {
			if parsed, err := strconv.ParseFloat(strings.TrimPrefix(p, "q="), 64); err == nil {
				q = parsed
			}
		}
		if q <= 0 {
			continue
		}
		tags = append(tags, tag{name: name, q: q})
	}
	sort.SliceStable(tags, func(i, j int) bool { return tags[i].q > tags[j].q })

	out := make([]string, len(tags))
	for i, t := range tags {
		out[i] = t.name
	}
	return out
}
