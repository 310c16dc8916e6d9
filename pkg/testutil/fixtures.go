// Package testutil provides common testing fixtures for the blog domain.
package testutil

import (
	"context"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage"
)

// Password is the plaintext behind every fixture account.
const Password = "correct horse battery staple"

// passwordHash is computed once; bcrypt is slow enough to matter in tests.
var passwordHash = func() string {
	h, err := bcrypt.GenerateFromPassword([]byte(Password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return string(h)
}()

// SeedUser stores a regular account and returns it.
func SeedUser(t *testing.T, store storage.UserStore, username string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
	})
	if err != nil {
		t.Fatalf("seed user %s: %v", username, err)
	}
	return u
}

// SeedAdmin stores an administrator account and returns it.
func SeedAdmin(t *testing.T, store storage.UserStore, username string) user.User {
	t.Helper()
	u, err := store.CreateUser(context.Background(), user.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: passwordHash,
		IsAdmin:      true,
	})
	if err != nil {
		t.Fatalf("seed admin %s: %v", username, err)
	}
	return u
}

// SeedBlog stores a blog in the given status and returns it.
func SeedBlog(t *testing.T, store storage.BlogStore, authorID, title string, status blog.Status) blog.Blog {
	t.Helper()
	b, err := store.CreateBlog(context.Background(), blog.Blog{
		Title:    title,
		Content:  "content of " + title,
		AuthorID: authorID,
		Status:   status,
	})
	if err != nil {
		t.Fatalf("seed blog %s: %v", title, err)
	}
	return b
}

// SeedComment stores a comment and returns it.
func SeedComment(t *testing.T, store storage.CommentStore, blogID, authorID, content string) comment.Comment {
	t.Helper()
	c, err := store.CreateComment(context.Background(), comment.Comment{
		BlogID:   blogID,
		AuthorID: authorID,
		Content:  content,
	})
	if err != nil {
		t.Fatalf("seed comment: %v", err)
	}
	return c
}
