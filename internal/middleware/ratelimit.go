package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/httputil"
	"github.com/blogworks/blogserver/internal/logging"
)

// authBudgetDivisor shrinks the per-visitor budget on /auth/ endpoints;
// login and registration are the credential-stuffing targets.
const authBudgetDivisor = 4

// visitorIdleTTL is how long an idle visitor keeps its limiter state.
const visitorIdleTTL = 3 * time.Minute

type visitor struct {
	api      *rate.Limiter
	auth     *rate.Limiter
	lastSeen time.Time
}

// RateLimiter enforces per-visitor request budgets. Requests are keyed by
// user ID when an identity is already on the context, otherwise by client
// IP with the port stripped.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor

	apiRate  rate.Limit
	apiBurst int
	logger   *logging.Logger
	now      func() time.Time
}

// NewRateLimiter builds a limiter allowing requestsPerSecond with the given
// burst per visitor.
func NewRateLimiter(requestsPerSecond int, burst int, logger *logging.Logger) *RateLimiter {
	if logger == nil {
		logger = logging.NewDefault("ratelimit")
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		apiRate:  rate.Limit(requestsPerSecond),
		apiBurst: burst,
		logger:   logger,
		now:      time.Now,
	}
}

func (rl *RateLimiter) visitorFor(key string) *visitor {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, ok := rl.visitors[key]
	if !ok {
		authBurst := rl.apiBurst / authBudgetDivisor
		if authBurst < 1 {
			authBurst = 1
		}
		v = &visitor{
			api:  rate.NewLimiter(rl.apiRate, rl.apiBurst),
			auth: rate.NewLimiter(rl.apiRate/authBudgetDivisor, authBurst),
		}
		rl.visitors[key] = v
	}
	v.lastSeen = rl.now()
	return v
}

// visitorKey prefers the authenticated user ID so NAT'd readers are not
// lumped together once signed in.
func visitorKey(r *http.Request) string {
	if id := GetUserID(r.Context()); id != "" {
		return "user:" + id
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Handler rejects requests over budget with a RATE_LIMITED error body.
func (rl *RateLimiter) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := visitorKey(r)
		v := rl.visitorFor(key)

		limiter := v.api
		if strings.HasPrefix(r.URL.Path, "/auth/") {
			limiter = v.auth
		}

		if !limiter.Allow() {
			rl.logger.LogSecurityEvent(r.Context(), "rate_limit_exceeded", map[string]interface{}{
				"key":    key,
				"path":   r.URL.Path,
				"method": r.Method,
			})
			serviceErr := errors.RateLimitExceeded(int(rl.apiRate), "1s")
			httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Cleanup drops visitors that have been idle past their TTL.
func (rl *RateLimiter) Cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-visitorIdleTTL)
	for key, v := range rl.visitors {
		if v.lastSeen.Before(cutoff) {
			delete(rl.visitors, key)
		}
	}
}

// StartCleanup runs Cleanup on the given interval for the life of the
// process.
func (rl *RateLimiter) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for range ticker.C {
			rl.Cleanup()
		}
	}()
}
