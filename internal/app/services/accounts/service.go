// Package accounts handles registration, authentication and account
// administration.
package accounts

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage"
	svcerrors "github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/logging"
)

const (
	minPasswordLength = 8
	maxUsernameLength = 64
)

// Claims is the JWT payload issued on login.
type Claims struct {
	Username string `json:"username"`
	IsAdmin  bool   `json:"is_admin"`
	jwt.RegisteredClaims
}

// Service manages user accounts and issues access tokens.
type Service struct {
	users    storage.UserStore
	secret   []byte
	tokenTTL time.Duration
	log      *logging.Logger
}

// New constructs an accounts service signing tokens with secret.
func New(users storage.UserStore, secret []byte, tokenTTL time.Duration, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("accounts")
	}
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &Service{
		users:    users,
		secret:   secret,
		tokenTTL: tokenTTL,
		log:      log,
	}
}

// Register creates a new non-admin account. The password is stored as a
// bcrypt hash only.
func (s *Service) Register(ctx context.Context, username, email, password string) (user.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)

	if username == "" || len(username) > maxUsernameLength {
		return user.User{}, svcerrors.Validation(fmt.Sprintf("username must be 1-%d characters", maxUsernameLength))
	}
	if _, err := mail.ParseAddress(email); err != nil {
		return user.User{}, svcerrors.Validation("invalid email address")
	}
	if len(password) < minPasswordLength {
		return user.User{}, svcerrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return user.User{}, svcerrors.Internal("hashing password", err)
	}

	created, err := s.users.CreateUser(ctx, user.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	})
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return user.User{}, svcerrors.Conflict("username or email already taken")
		}
		return user.User{}, err
	}

	s.log.WithField("user_id", created.ID).Info("user registered")
	return created, nil
}

// Authenticate checks the credentials and returns a signed token together
// with the account. Blocked accounts cannot log in.
func (s *Service) Authenticate(ctx context.Context, email, password string) (string, user.User, error) {
	u, err := s.users.GetUserByEmail(ctx, strings.TrimSpace(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", user.User{}, svcerrors.Unauthorized("invalid credentials")
		}
		return "", user.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		s.log.LogSecurityEvent(ctx, "login_failed", map[string]interface{}{"email": email})
		return "", user.User{}, svcerrors.Unauthorized("invalid credentials")
	}

	if u.IsBlocked {
		s.log.LogSecurityEvent(ctx, "login_blocked", map[string]interface{}{"user_id": u.ID})
		return "", user.User{}, svcerrors.Forbidden("account is blocked")
	}

	token, err := s.issueToken(u)
	if err != nil {
		return "", user.User{}, svcerrors.Internal("signing token", err)
	}
	return token, u, nil
}

func (s *Service) issueToken(u user.User) (string, error) {
	now := time.Now()
	claims := Claims{
		Username: u.Username,
		IsAdmin:  u.IsAdmin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

// VerifyToken parses and validates a token issued by Authenticate.
func (s *Service) VerifyToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil {
		return nil, svcerrors.InvalidToken(err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, svcerrors.InvalidToken(nil)
	}
	return claims, nil
}

// GetProfile returns the account for id.
func (s *Service) GetProfile(ctx context.Context, id string) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, svcerrors.NotFound("user not found")
		}
		return user.User{}, err
	}
	return u, nil
}

// ChangePassword verifies the current password before storing a new hash.
func (s *Service) ChangePassword(ctx context.Context, id, current, next string) error {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return svcerrors.NotFound("user not found")
		}
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(current)); err != nil {
		return svcerrors.Unauthorized("current password does not match")
	}
	if len(next) < minPasswordLength {
		return svcerrors.Validation(fmt.Sprintf("password must be at least %d characters", minPasswordLength))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(next), bcrypt.DefaultCost)
	if err != nil {
		return svcerrors.Internal("hashing password", err)
	}
	u.PasswordHash = string(hash)

	if _, err := s.users.UpdateUser(ctx, u); err != nil {
		return err
	}
	s.log.WithField("user_id", id).Info("password changed")
	return nil
}

// ListUsers returns all accounts, oldest first. Admin only at the HTTP
// layer.
func (s *Service) ListUsers(ctx context.Context) ([]user.User, error) {
	return s.users.ListUsers(ctx)
}

// SetBlocked flips the block flag on an account. Admins cannot be blocked.
func (s *Service) SetBlocked(ctx context.Context, id string, blocked bool) (user.User, error) {
	u, err := s.users.GetUser(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, svcerrors.NotFound("user not found")
		}
		return user.User{}, err
	}
	if u.IsAdmin {
		return user.User{}, svcerrors.Forbidden("cannot block an administrator")
	}
	if u.IsBlocked == blocked {
		return u, nil
	}

	u.IsBlocked = blocked
	updated, err := s.users.UpdateUser(ctx, u)
	if err != nil {
		return user.User{}, err
	}

	s.log.LogSecurityEvent(ctx, "user_block_changed", map[string]interface{}{
		"user_id": id,
		"blocked": blocked,
	})
	return updated, nil
}
