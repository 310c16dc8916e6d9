package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/blogworks/blogserver/internal/logging"
	"github.com/blogworks/blogserver/internal/metrics"
)

// statusRecorder captures the status code and body size of a response.
type statusRecorder struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (sr *statusRecorder) WriteHeader(code int) {
	if sr.status == 0 {
		sr.status = code
		sr.ResponseWriter.WriteHeader(code)
	}
}

func (sr *statusRecorder) Write(b []byte) (int, error) {
	if sr.status == 0 {
		sr.WriteHeader(http.StatusOK)
	}
	n, err := sr.ResponseWriter.Write(b)
	sr.bytes += n
	return n, err
}

// Instrument threads a trace ID through the request, records prometheus
// metrics under the service label and writes one access-log line per
// request. Metric paths use the mux route template so /blogs/{id} does not
// explode the label space.
func Instrument(service string, m *metrics.Metrics, logger *logging.Logger) mux.MiddlewareFunc {
	if logger == nil {
		logger = logging.NewDefault("http")
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			traceID := r.Header.Get("X-Trace-ID")
			if traceID == "" {
				traceID = logging.NewTraceID()
			}
			ctx := logging.WithTraceID(r.Context(), traceID)
			r = r.WithContext(ctx)
			w.Header().Set("X-Trace-ID", traceID)

			m.IncrementInFlight()
			defer m.DecrementInFlight()

			rec := &statusRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)
			if rec.status == 0 {
				rec.status = http.StatusOK
			}

			duration := time.Since(start)

			metricPath := r.URL.Path
			if route := mux.CurrentRoute(r); route != nil {
				if template, err := route.GetPathTemplate(); err == nil {
					metricPath = template
				}
			}
			m.RecordHTTPRequest(service, r.Method, metricPath, strconv.Itoa(rec.status), duration)

			logger.WithField("bytes", rec.bytes).LogRequest(ctx, r.Method, r.URL.Path, rec.status, duration)
		})
	}
}
