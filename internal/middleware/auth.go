// Package middleware provides HTTP middleware for the blog server
package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/blogworks/blogserver/internal/app/services/accounts"
	"github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/httputil"
	"github.com/blogworks/blogserver/internal/logging"
)

// RoleAdmin is the role stored in context for administrator tokens.
const RoleAdmin = "admin"

// TokenVerifier validates a bearer token and returns its claims.
type TokenVerifier interface {
	VerifyToken(token string) (*accounts.Claims, error)
}

// AuthMiddleware provides JWT authentication
type AuthMiddleware struct {
	verifier TokenVerifier
	logger   *logging.Logger
}

// NewAuthMiddleware creates a new authentication middleware
func NewAuthMiddleware(verifier TokenVerifier, logger *logging.Logger) *AuthMiddleware {
	if logger == nil {
		logger = logging.NewDefault("auth")
	}
	return &AuthMiddleware{verifier: verifier, logger: logger}
}

// Handler rejects requests without a valid bearer token.
func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, err := m.claimsFromRequest(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.withClaims(r.Context(), claims)))
	})
}

// Optional authenticates the request when a token is present but lets
// anonymous requests through. Invalid tokens are still rejected.
func (m *AuthMiddleware) Optional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		claims, err := m.claimsFromRequest(r)
		if err != nil {
			m.respondError(w, r, err)
			return
		}
		next.ServeHTTP(w, r.WithContext(m.withClaims(r.Context(), claims)))
	})
}

// RequireAdmin rejects authenticated requests from non-admin users. It must
// run after Handler.
func (m *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetUserRole(r.Context()) != RoleAdmin {
			m.logger.LogSecurityEvent(r.Context(), "admin_access_denied", map[string]interface{}{
				"user_id": GetUserID(r.Context()),
				"path":    r.URL.Path,
			})
			m.respondError(w, r, errors.Forbidden("administrator access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *AuthMiddleware) claimsFromRequest(r *http.Request) (*accounts.Claims, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return nil, errors.Unauthorized("missing Authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, errors.Unauthorized("invalid Authorization header format")
	}

	claims, err := m.verifier.VerifyToken(parts[1])
	if err != nil {
		m.logger.WithContext(r.Context()).WithError(err).Warn("token validation failed")
		return nil, err
	}
	return claims, nil
}

func (m *AuthMiddleware) withClaims(ctx context.Context, claims *accounts.Claims) context.Context {
	ctx = context.WithValue(ctx, logging.UserIDKey, claims.Subject)
	role := "user"
	if claims.IsAdmin {
		role = RoleAdmin
	}
	ctx = context.WithValue(ctx, logging.RoleKey, role)
	return ctx
}

func (m *AuthMiddleware) respondError(w http.ResponseWriter, r *http.Request, err error) {
	serviceErr := errors.GetServiceError(err)
	if serviceErr == nil {
		serviceErr = errors.Internal("authentication failed", err)
	}
	httputil.WriteErrorResponse(w, r, serviceErr.HTTPStatus, string(serviceErr.Code), serviceErr.Message, serviceErr.Details)
}

// GetUserID extracts user ID from context
func GetUserID(ctx context.Context) string {
	return logging.GetUserID(ctx)
}

// GetUserRole extracts user role from context
func GetUserRole(ctx context.Context) string {
	return logging.GetRole(ctx)
}

// IsAdmin reports whether the context carries an administrator token.
func IsAdmin(ctx context.Context) bool {
	return GetUserRole(ctx) == RoleAdmin
}
