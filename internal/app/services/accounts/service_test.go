package accounts

import (
	"context"
	"testing"
	"time"

	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage/memory"
	"github.com/blogworks/blogserver/internal/errors"
)

func newService() (*Service, *memory.Store) {
	store := memory.New()
	return New(store, []byte("test-secret"), time.Hour, nil), store
}

func TestRegisterAndAuthenticate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if u.ID == "" {
		t.Fatalf("expected id to be generated")
	}
	if u.PasswordHash == "hunter2hunter2" {
		t.Fatalf("password stored in clear")
	}
	if u.IsAdmin {
		t.Fatalf("self registration must not grant admin")
	}

	token, authed, err := svc.Authenticate(ctx, "alice@example.com", "hunter2hunter2")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if authed.ID != u.ID {
		t.Fatalf("authenticated wrong user")
	}

	claims, err := svc.VerifyToken(token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if claims.Subject != u.ID || claims.Username != "alice" || claims.IsAdmin {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	cases := []struct {
		name     string
		username string
		email    string
		password string
	}{
		{"empty username", "", "a@example.com", "longenough"},
		{"bad email", "bob", "not-an-email", "longenough"},
		{"short password", "bob", "bob@example.com", "short"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(ctx, tc.username, tc.email, tc.password)
			svcErr := errors.GetServiceError(err)
			if svcErr == nil || svcErr.Code != errors.CodeValidation {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestRegisterDuplicate(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "alice@example.com", "longenough"); err != nil {
		t.Fatalf("register: %v", err)
	}
	_, err := svc.Register(ctx, "alice2", "alice@example.com", "longenough")
	svcErr := errors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != errors.CodeConflict {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthenticateFailures(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "wrong password"); err == nil {
		t.Fatalf("expected wrong password to fail")
	}
	if _, _, err := svc.Authenticate(ctx, "nobody@example.com", "longenough"); err == nil {
		t.Fatalf("expected unknown email to fail")
	}

	if _, err := svc.SetBlocked(ctx, u.ID, true); err != nil {
		t.Fatalf("block: %v", err)
	}
	_, _, err = svc.Authenticate(ctx, "alice@example.com", "longenough")
	svcErr := errors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != errors.CodeForbidden {
		t.Fatalf("expected blocked login to be forbidden, got %v", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	svc, _ := newService()

	if _, err := svc.VerifyToken("not.a.token"); err == nil {
		t.Fatalf("expected garbage token to fail")
	}

	// A token signed with a different secret must not verify.
	other := New(memory.New(), []byte("other-secret"), time.Hour, nil)
	if _, err := other.Register(context.Background(), "mallory", "m@example.com", "longenough"); err != nil {
		t.Fatalf("register: %v", err)
	}
	token, _, err := other.Authenticate(context.Background(), "m@example.com", "longenough")
	if err != nil {
		t.Fatalf("authenticate: %v", err)
	}
	if _, err := svc.VerifyToken(token); err == nil {
		t.Fatalf("expected token signed with another secret to fail")
	}
}

func TestChangePassword(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	if err := svc.ChangePassword(ctx, u.ID, "wrong", "evenlongerpassword"); err == nil {
		t.Fatalf("expected wrong current password to fail")
	}
	if err := svc.ChangePassword(ctx, u.ID, "longenough", "short"); err == nil {
		t.Fatalf("expected short new password to fail")
	}
	if err := svc.ChangePassword(ctx, u.ID, "longenough", "evenlongerpassword"); err != nil {
		t.Fatalf("change password: %v", err)
	}

	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "longenough"); err == nil {
		t.Fatalf("old password still accepted")
	}
	if _, _, err := svc.Authenticate(ctx, "alice@example.com", "evenlongerpassword"); err != nil {
		t.Fatalf("new password rejected: %v", err)
	}
}

func TestSetBlocked(t *testing.T) {
	svc, _ := newService()
	ctx := context.Background()

	u, err := svc.Register(ctx, "alice", "alice@example.com", "longenough")
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	blocked, err := svc.SetBlocked(ctx, u.ID, true)
	if err != nil {
		t.Fatalf("block: %v", err)
	}
	if !blocked.IsBlocked {
		t.Fatalf("expected user to be blocked")
	}

	// Blocking twice is a no-op, not an error.
	if _, err := svc.SetBlocked(ctx, u.ID, true); err != nil {
		t.Fatalf("re-block: %v", err)
	}

	unblocked, err := svc.SetBlocked(ctx, u.ID, false)
	if err != nil {
		t.Fatalf("unblock: %v", err)
	}
	if unblocked.IsBlocked {
		t.Fatalf("expected user to be unblocked")
	}
}

func TestBlockAdminRefused(t *testing.T) {
	svc, store := newService()
	ctx := context.Background()

	admin, err := store.CreateUser(ctx, user.User{
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "irrelevant",
		IsAdmin:      true,
	})
	if err != nil {
		t.Fatalf("create admin: %v", err)
	}

	_, err = svc.SetBlocked(ctx, admin.ID, true)
	svcErr := errors.GetServiceError(err)
	if svcErr == nil || svcErr.Code != errors.CodeForbidden {
		t.Fatalf("expected forbidden, got %v", err)
	}
}
