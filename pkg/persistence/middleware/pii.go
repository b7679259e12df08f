package middleware

import (
	"context"
	"regexp"

	"github.com/aretw0/tendril/pkg/ports"
	"github.com/aretw0/tendril/pkg/value"
)

// Masked replaces the value of every matching field.
const Masked = "***"

type piiMiddleware struct {
	passthrough
	patterns []*regexp.Regexp
}

// NewPIIMiddleware masks, before writing, the values of object fields whose
// names match any pattern, at any depth. An entry whose storage key matches is
// masked whole. Payloads that are not JSON pass through untouched.
// It panics on an invalid pattern.
func NewPIIMiddleware(patternStrings []string) Middleware {
	patterns := make([]*regexp.Regexp, len(patternStrings))
	for i, p := range patternStrings {
		patterns[i] = regexp.MustCompile(p)
	}
	return func(next ports.Backend) ports.Backend {
		return &piiMiddleware{passthrough: passthrough{next: next}, patterns: patterns}
	}
}

func (m *piiMiddleware) Save(ctx context.Context, key string, payload []byte) error {
	if m.matches(key) {
		return m.next.Save(ctx, key, []byte(`"`+Masked+`"`))
	}
	v, err := value.Decode(string(payload), value.DecodeOptions{})
	if err != nil {
		return m.next.Save(ctx, key, payload)
	}
	masked, changed := m.mask(v)
	if !changed {
		return m.next.Save(ctx, key, payload)
	}
	text, err := value.Encode(masked, 0)
	if err != nil {
		return err
	}
	return m.next.Save(ctx, key, []byte(text))
}

func (m *piiMiddleware) Load(ctx context.Context, key string) ([]byte, error) {
	return m.next.Load(ctx, key)
}

func (m *piiMiddleware) matches(name string) bool {
	for _, p := range m.patterns {
		if p.MatchString(name) {
			return true
		}
	}
	return false
}

// mask returns a rewritten copy and whether any field matched.
func (m *piiMiddleware) mask(v value.Value) (value.Value, bool) {
	switch v.Kind() {
	case value.KindObject:
		fields, _ := v.AsObject()
		changed := false
		for k, field := range fields {
			if m.matches(k) {
				fields[k] = value.String(Masked)
				changed = true
				continue
			}
			if sub, ok := m.mask(field); ok {
				fields[k] = sub
				changed = true
			}
		}
		return value.Object(fields), changed
	case value.KindArray:
		items, _ := v.AsArray()
		changed := false
		for i, item := range items {
			if sub, ok := m.mask(item); ok {
				items[i] = sub
				changed = true
			}
		}
		return value.Array(items...), changed
	}
	return v, false
}
