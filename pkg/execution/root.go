package execution

import "strings"

// Root is the scoping boundary for document-like lookups.
type Root interface {
	// Isolated reports a shadow boundary; cookies are not visible through it.
	Isolated() bool
	// CookieString is the ambient "name=value; name2=value2" cookie string.
	CookieString() string
}

// Document is a non-isolated root carrying the client's cookie string.
type Document struct {
	Cookie string
}

func (d Document) Isolated() bool       { return false }
func (d Document) CookieString() string { return d.Cookie }

// ShadowRoot is an isolated root.
type ShadowRoot struct{}

func (ShadowRoot) Isolated() bool       { return true }
func (ShadowRoot) CookieString() string { return "" }

// ReadCookie implements the cookie read contract. On the server it consults the
// request's cookie mapping; otherwise it parses the root's cookie string, where
// pairs are delimited by "; " and the first match wins. Isolated or missing roots read nothing.
func ReadCookie(ctx *Context, name string) (string, bool) {
	if ctx == nil || name == "" {
		return "", false
	}
	if server := ctx.Env.Server; server != nil {
		v, ok := server.Cookies[name]
		return v, ok
	}
	if ctx.Root == nil || ctx.Root.Isolated() {
		return "", false
	}
	for _, pair := range strings.Split(ctx.Root.CookieString(), "; ") {
		key, val, found := strings.Cut(pair, "=")
		if found && strings.TrimSpace(key) == name {
			return val, true
		}
	}
	return "", false
}
