package middleware

import (
	"net/http"
	"strings"
)

// Browser clients send JSON bodies with a bearer token, and the feed uses
// X-Requested-With to ask for partial responses, so all three headers must
// survive preflight.
const (
	corsMethods = "GET, POST, PUT, DELETE, OPTIONS"
	corsHeaders = "Authorization, Content-Type, X-Requested-With"
	corsExpose  = "X-Trace-ID"
	corsMaxAge  = "3600"
)

// CORS answers preflight requests and stamps allowed origins onto responses.
type CORS struct {
	origins  map[string]struct{}
	allowAll bool
}

// NewCORS builds the middleware from a list of allowed origins. A single
// "*" entry allows every origin; otherwise matching is exact and
// case-insensitive.
func NewCORS(allowedOrigins []string) *CORS {
	c := &CORS{origins: make(map[string]struct{}, len(allowedOrigins))}
	for _, origin := range allowedOrigins {
		origin = strings.TrimSuffix(strings.ToLower(strings.TrimSpace(origin)), "/")
		if origin == "*" {
			c.allowAll = true
			continue
		}
		if origin != "" {
			c.origins[origin] = struct{}{}
		}
	}
	return c
}

func (c *CORS) allowed(origin string) bool {
	if origin == "" {
		return false
	}
	if c.allowAll {
		return true
	}
	_, ok := c.origins[strings.TrimSuffix(strings.ToLower(origin), "/")]
	return ok
}

// Handler wraps next with origin checks. Preflight requests are answered
// here and never reach the API; disallowed origins get no CORS headers at
// all and the browser enforces the rest.
func (c *CORS) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		// Responses differ by Origin even when the header is absent.
		w.Header().Add("Vary", "Origin")

		if c.allowed(origin) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Expose-Headers", corsExpose)
		}

		if r.Method == http.MethodOptions && r.Header.Get("Access-Control-Request-Method") != "" {
			if c.allowed(origin) {
				w.Header().Set("Access-Control-Allow-Methods", corsMethods)
				w.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				w.Header().Set("Access-Control-Max-Age", corsMaxAge)
			}
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}
