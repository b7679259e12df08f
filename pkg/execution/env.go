package execution

import (
	"net/http"
	"strings"
)

// Env discriminates where evaluation runs. Exactly one of Server or Client is
// expected; both nil means a headless evaluation with no environment facts.
type Env struct {
	Server *ServerEnv
	Client *ClientEnv
}

// IsServer reports whether evaluation serves an inbound request.
func (e Env) IsServer() bool { return e.Server != nil }

// ServerEnv carries the facts of the inbound request.
type ServerEnv struct {
	URL     string
	Headers http.Header
	// Cookies is the pre-parsed cookie mapping; the first occurrence of a name wins.
	Cookies map[string]string
}

// ClientEnv carries the facts a live client session exposes. Empty fields are unavailable.
type ClientEnv struct {
	Languages []string
	UserAgent string
	Location  string
}

// ServerEnvFromRequest captures URL, headers and cookies of r.
func ServerEnvFromRequest(r *http.Request) *ServerEnv {
	env := &ServerEnv{
		Headers: r.Header.Clone(),
		Cookies: make(map[string]string),
	}
	if env.Headers == nil {
		env.Headers = http.Header{}
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = strings.ToLower(strings.TrimSpace(strings.Split(proto, ",")[0]))
	}
	env.URL = scheme + "://" + r.Host + r.URL.RequestURI()

	for _, c := range r.Cookies() {
		if _, seen := env.Cookies[c.Name]; !seen {
			env.Cookies[c.Name] = c.Value
		}
	}
	return env
}
