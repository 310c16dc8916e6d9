package middleware

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"

	"github.com/blogworks/blogserver/internal/logging"
	"github.com/blogworks/blogserver/internal/metrics"
)

func TestInstrumentTraceID(t *testing.T) {
	m := metrics.New("test")
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = logging.GetTraceID(r.Context())
		w.WriteHeader(http.StatusCreated)
	})

	r := httptest.NewRequest(http.MethodPost, "/blogs", nil)
	r.Header.Set("X-Trace-ID", "trace-123")
	w := httptest.NewRecorder()
	Instrument("blogserver", m, nil)(next).ServeHTTP(w, r)

	if seen != "trace-123" {
		t.Fatalf("context trace id = %q", seen)
	}
	if got := w.Header().Get("X-Trace-ID"); got != "trace-123" {
		t.Fatalf("response trace id = %q", got)
	}
	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d", w.Code)
	}
}

func TestInstrumentGeneratesTraceID(t *testing.T) {
	m := metrics.New("test")
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

	w := httptest.NewRecorder()
	Instrument("blogserver", m, nil)(next).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blogs", nil))

	if w.Header().Get("X-Trace-ID") == "" {
		t.Fatalf("missing generated trace id")
	}
}

func TestInstrumentRecordsRouteTemplate(t *testing.T) {
	m := metrics.New("test")

	router := mux.NewRouter()
	router.Use(Instrument("blogserver", m, nil))
	router.HandleFunc("/blogs/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}).Methods(http.MethodGet)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/blogs/abc123", nil))

	scrape := httptest.NewRecorder()
	m.Handler().ServeHTTP(scrape, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, err := io.ReadAll(scrape.Body)
	if err != nil {
		t.Fatalf("read scrape: %v", err)
	}

	// The counter must label the route template, not the concrete URL.
	if !strings.Contains(string(body), `path="/blogs/{id}"`) {
		t.Fatalf("scrape missing templated path label:\n%s", body)
	}
	if !strings.Contains(string(body), `status="404"`) {
		t.Fatalf("scrape missing status label:\n%s", body)
	}
}
