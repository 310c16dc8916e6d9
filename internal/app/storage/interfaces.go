package storage

import (
	"context"
	"errors"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/domain/user"
)

// ErrNotFound is returned when an entity id has no row. Implementations wrap
// it with entity context; callers test with errors.Is.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned on uniqueness violations (duplicate username or
// email, duplicate reaction race).
var ErrConflict = errors.New("conflict")

// UserStore persists user accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u user.User) (user.User, error)
	UpdateUser(ctx context.Context, u user.User) (user.User, error)
	GetUser(ctx context.Context, id string) (user.User, error)
	GetUserByEmail(ctx context.Context, email string) (user.User, error)
	ListUsers(ctx context.Context) ([]user.User, error)
}

// BlogStore persists blog posts and their derived listing rows.
type BlogStore interface {
	CreateBlog(ctx context.Context, b blog.Blog) (blog.Blog, error)
	UpdateBlog(ctx context.Context, b blog.Blog) (blog.Blog, error)
	GetBlog(ctx context.Context, id string) (blog.Blog, error)
	// GetBlogSummary joins the author name and derived counts onto one blog.
	GetBlogSummary(ctx context.Context, id string) (blog.Summary, error)
	// DeleteBlog removes the blog and, by cascade, its comments and
	// reactions.
	DeleteBlog(ctx context.Context, id string) error
	// SetBlogStatus reports whether a row actually changed; false covers
	// both a missing id and a blog already in the target state.
	SetBlogStatus(ctx context.Context, id string, status blog.Status) (bool, error)

	ListApprovedBlogs(ctx context.Context, offset, limit int) ([]blog.Summary, error)
	CountBlogsByStatus(ctx context.Context, status blog.Status) (int, error)
	ListBlogsByStatus(ctx context.Context, status blog.Status) ([]blog.Summary, error)
	ListBlogsByAuthor(ctx context.Context, authorID string, status *blog.Status) ([]blog.Summary, error)
	// TopLikedBlogs and TopCommentedBlogs order and limit inside the store.
	TopLikedBlogs(ctx context.Context, n int) ([]blog.Summary, error)
	TopCommentedBlogs(ctx context.Context, n int) ([]blog.Summary, error)
}

// CommentStore persists comments.
type CommentStore interface {
	CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error)
	GetComment(ctx context.Context, id string) (comment.Comment, error)
	DeleteComment(ctx context.Context, id string) error
	ListCommentsByBlog(ctx context.Context, blogID string) ([]comment.WithAuthor, error)
}

// ReactionStore persists like/dislike votes.
type ReactionStore interface {
	GetReaction(ctx context.Context, blogID, userID string) (reaction.Reaction, error)
	// ToggleReaction applies the vote state machine atomically: no row
	// inserts, same type deletes, opposite type flips in place. It returns
	// the refreshed counts for the blog.
	ToggleReaction(ctx context.Context, blogID, userID string, t reaction.Type) (reaction.Counts, error)
	CountReactions(ctx context.Context, blogID string) (reaction.Counts, error)
}
