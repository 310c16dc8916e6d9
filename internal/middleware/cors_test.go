package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func corsRequest(t *testing.T, c *CORS, method, origin string, preflight bool) (*httptest.ResponseRecorder, bool) {
	t.Helper()
	served := false
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		served = true
		w.WriteHeader(http.StatusOK)
	})

	r := httptest.NewRequest(method, "/blogs", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	if preflight {
		r.Header.Set("Access-Control-Request-Method", http.MethodPost)
	}
	w := httptest.NewRecorder()
	c.Handler(next).ServeHTTP(w, r)
	return w, served
}

func TestCORSAllowedOrigin(t *testing.T) {
	c := NewCORS([]string{"https://blog.example.com"})

	w, served := corsRequest(t, c, http.MethodGet, "https://blog.example.com", false)
	if !served {
		t.Fatalf("plain request must reach the handler")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://blog.example.com" {
		t.Fatalf("allow-origin = %q", got)
	}
	if got := w.Header().Get("Access-Control-Expose-Headers"); got != "X-Trace-ID" {
		t.Fatalf("expose-headers = %q", got)
	}
	if got := w.Header().Get("Vary"); got != "Origin" {
		t.Fatalf("vary = %q", got)
	}
}

func TestCORSPreflight(t *testing.T) {
	c := NewCORS([]string{"https://blog.example.com"})

	w, served := corsRequest(t, c, http.MethodOptions, "https://blog.example.com", true)
	if served {
		t.Fatalf("preflight must not reach the handler")
	}
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Headers"), "X-Requested-With") {
		t.Fatalf("allow-headers = %q, partial feed loads need X-Requested-With", w.Header().Get("Access-Control-Allow-Headers"))
	}
	if !strings.Contains(w.Header().Get("Access-Control-Allow-Methods"), http.MethodDelete) {
		t.Fatalf("allow-methods = %q", w.Header().Get("Access-Control-Allow-Methods"))
	}
}

func TestCORSDisallowedOrigin(t *testing.T) {
	c := NewCORS([]string{"https://blog.example.com"})

	w, served := corsRequest(t, c, http.MethodGet, "https://evil.example.com", false)
	if !served {
		t.Fatalf("non-preflight requests still reach the handler")
	}
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("allow-origin = %q, want none", got)
	}

	w, served = corsRequest(t, c, http.MethodOptions, "https://evil.example.com", true)
	if served || w.Code != http.StatusNoContent {
		t.Fatalf("preflight served=%v status=%d", served, w.Code)
	}
	if got := w.Header().Get("Access-Control-Allow-Methods"); got != "" {
		t.Fatalf("allow-methods = %q, want none", got)
	}
}

func TestCORSNormalization(t *testing.T) {
	c := NewCORS([]string{" HTTPS://Blog.Example.Com/ "})

	if !c.allowed("https://blog.example.com") {
		t.Fatalf("configured origin must match case-insensitively")
	}
	if c.allowed("https://blog.example.com.evil.com") {
		t.Fatalf("suffix lookalikes must not match")
	}
}

func TestCORSWildcard(t *testing.T) {
	c := NewCORS([]string{"*"})
	w, _ := corsRequest(t, c, http.MethodGet, "https://anything.example.net", false)
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://anything.example.net" {
		t.Fatalf("allow-origin = %q", got)
	}
}
