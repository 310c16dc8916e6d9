package postgres

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage"
)

func newMock(t *testing.T) (*Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	return New(db), mock, func() { db.Close() }
}

func userRows(u user.User) *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "username", "email", "password_hash", "is_admin", "is_blocked", "created_at", "updated_at"}).
		AddRow(u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.IsBlocked, u.CreatedAt, u.UpdatedAt)
}

func TestGetUser(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now().UTC()
	want := user.User{ID: "u1", Username: "alice", Email: "alice@example.com", PasswordHash: "hash", CreatedAt: now, UpdatedAt: now}

	mock.ExpectQuery("SELECT id, username, email").WithArgs("u1").WillReturnRows(userRows(want))

	got, err := store.GetUser(context.Background(), "u1")
	if err != nil {
		t.Fatalf("get user: %v", err)
	}
	if got.Username != "alice" {
		t.Fatalf("username = %q", got.Username)
	}

	mock.ExpectQuery("SELECT id, username, email").WithArgs("missing").WillReturnError(sql.ErrNoRows)
	_, err = store.GetUser(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateUserConflict(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("INSERT INTO users").WillReturnError(&pq.Error{Code: "23505"})

	_, err := store.CreateUser(context.Background(), user.User{Username: "alice", Email: "alice@example.com"})
	if !errors.Is(err, storage.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestSetBlogStatus(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()
	ctx := context.Background()

	mock.ExpectExec("UPDATE blogs").
		WithArgs("b1", string(blog.StatusApproved), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	changed, err := store.SetBlogStatus(ctx, "b1", blog.StatusApproved)
	if err != nil || !changed {
		t.Fatalf("approve: changed=%v err=%v", changed, err)
	}

	// Already approved or missing: zero rows, no error.
	mock.ExpectExec("UPDATE blogs").
		WithArgs("b1", string(blog.StatusApproved), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	changed, err = store.SetBlogStatus(ctx, "b1", blog.StatusApproved)
	if err != nil || changed {
		t.Fatalf("re-approve: changed=%v err=%v", changed, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestDeleteBlogNotFound(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectExec("DELETE FROM blogs").WithArgs("missing").WillReturnResult(sqlmock.NewResult(0, 0))

	err := store.DeleteBlog(context.Background(), "missing")
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCountBlogsByStatus(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectQuery("SELECT count").
		WithArgs(string(blog.StatusApproved)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	count, err := store.CountBlogsByStatus(context.Background(), blog.StatusApproved)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 7 {
		t.Fatalf("count = %d", count)
	}
}

func TestToggleReactionInsert(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, type FROM reactions").
		WithArgs("b1", "u1").
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec("INSERT INTO reactions").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"likes", "dislikes"}).AddRow(1, 0))
	mock.ExpectCommit()

	counts, err := store.ToggleReaction(context.Background(), "b1", "u1", reaction.TypeLike)
	if err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if counts.Likes != 1 || counts.Dislikes != 0 {
		t.Fatalf("counts = %+v", counts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestToggleReactionRemove(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, type FROM reactions").
		WithArgs("b1", "u1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "type"}).AddRow("r1", "like"))
	mock.ExpectExec("DELETE FROM reactions").
		WithArgs("r1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT").
		WithArgs("b1").
		WillReturnRows(sqlmock.NewRows([]string{"likes", "dislikes"}).AddRow(0, 0))
	mock.ExpectCommit()

	counts, err := store.ToggleReaction(context.Background(), "b1", "u1", reaction.TypeLike)
	if err != nil {
		t.Fatalf("toggle off: %v", err)
	}
	if counts.Likes != 0 {
		t.Fatalf("counts = %+v", counts)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestListApprovedBlogs(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "content", "user_id", "status", "created_at", "updated_at",
		"username", "likes", "dislikes", "comments",
	}).AddRow("b1", "first", "body", "u1", "approved", now, now, "alice", 2, 1, 3)

	mock.ExpectQuery("SELECT").WithArgs(0, 5).WillReturnRows(rows)

	items, err := store.ListApprovedBlogs(context.Background(), 0, 5)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 row, got %d", len(items))
	}
	got := items[0]
	if got.AuthorName != "alice" || got.LikesCount != 2 || got.DislikesCount != 1 || got.CommentsCount != 3 {
		t.Fatalf("summary = %+v", got)
	}
}

// The summary joins both reactions and comments onto the blog row, which
// fans rows out; each reaction must still be counted once.
func TestSummaryQueryCountsReactionsDistinct(t *testing.T) {
	store, mock, done := newMock(t)
	defer done()

	now := time.Now().UTC()
	rows := sqlmock.NewRows([]string{
		"id", "title", "content", "user_id", "status", "created_at", "updated_at",
		"username", "likes", "dislikes", "comments",
	}).AddRow("b1", "first", "body", "u1", "approved", now, now, "alice", 3, 1, 2)

	likes := regexp.QuoteMeta("count(DISTINCT r.id) FILTER (WHERE r.type = 'like')")
	dislikes := regexp.QuoteMeta("count(DISTINCT r.id) FILTER (WHERE r.type = 'dislike')")
	mock.ExpectQuery(likes + "(.|\n)*" + dislikes).WithArgs("b1").WillReturnRows(rows)

	sum, err := store.GetBlogSummary(context.Background(), "b1")
	if err != nil {
		t.Fatalf("summary: %v", err)
	}
	if sum.LikesCount != 3 || sum.DislikesCount != 1 || sum.CommentsCount != 2 {
		t.Fatalf("counts = %d/%d/%d, want 3/1/2", sum.LikesCount, sum.DislikesCount, sum.CommentsCount)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
