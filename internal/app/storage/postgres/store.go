package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage"
)

// Store implements the storage interfaces backed by PostgreSQL.
type Store struct {
	db *sql.DB
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BlogStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.ReactionStore = (*Store)(nil)

// New creates a Store using the provided database handle.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

const uniqueViolation = "23505"

func translate(err error, entity, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrNotFound)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return fmt.Errorf("%s %s: %w", entity, id, storage.ErrConflict)
	}
	return err
}

// --- UserStore --------------------------------------------------------------

func (s *Store) CreateUser(ctx context.Context, u user.User) (user.User, error) {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, username, email, password_hash, is_admin, is_blocked, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.IsBlocked, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err, "user", u.Username)
	}
	return u, nil
}

func (s *Store) UpdateUser(ctx context.Context, u user.User) (user.User, error) {
	u.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, is_admin = $5, is_blocked = $6, updated_at = $7
		WHERE id = $1
	`, u.ID, u.Username, u.Email, u.PasswordHash, u.IsAdmin, u.IsBlocked, u.UpdatedAt)
	if err != nil {
		return user.User{}, translate(err, "user", u.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUser(ctx context.Context, id string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, is_blocked, created_at, updated_at
		FROM users
		WHERE id = $1
	`, id), id)
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (user.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, is_blocked, created_at, updated_at
		FROM users
		WHERE lower(email) = lower($1)
	`, email), email)
}

func (s *Store) scanUser(row *sql.Row, ref string) (user.User, error) {
	var u user.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
		return user.User{}, translate(err, "user", ref)
	}
	return u, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]user.User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, username, email, password_hash, is_admin, is_blocked, created_at, updated_at
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []user.User
	for rows.Next() {
		var u user.User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsAdmin, &u.IsBlocked, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		result = append(result, u)
	}
	return result, rows.Err()
}

// --- BlogStore --------------------------------------------------------------

// summaryColumns joins author name and derived counts onto each blog row.
const summaryColumns = `
	b.id, b.title, b.content, b.user_id, b.status, b.created_at, b.updated_at,
	u.username,
	count(DISTINCT r.id) FILTER (WHERE r.type = 'like')    AS likes,
	count(DISTINCT r.id) FILTER (WHERE r.type = 'dislike') AS dislikes,
	count(DISTINCT c.id)                                   AS comments
`

const summaryJoins = `
	FROM blogs b
	JOIN users u ON u.id = b.user_id
	LEFT JOIN reactions r ON r.blog_id = b.id
	LEFT JOIN comments  c ON c.blog_id = b.id
`

const summaryGroup = ` GROUP BY b.id, u.username `

func (s *Store) CreateBlog(ctx context.Context, b blog.Blog) (blog.Blog, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blogs (id, title, content, user_id, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, b.ID, b.Title, b.Content, b.AuthorID, b.Status, b.CreatedAt, b.UpdatedAt)
	if err != nil {
		return blog.Blog{}, translate(err, "blog", b.ID)
	}
	return b, nil
}

func (s *Store) UpdateBlog(ctx context.Context, b blog.Blog) (blog.Blog, error) {
	b.UpdatedAt = time.Now().UTC()

	result, err := s.db.ExecContext(ctx, `
		UPDATE blogs
		SET title = $2, content = $3, status = $4, updated_at = $5
		WHERE id = $1
	`, b.ID, b.Title, b.Content, b.Status, b.UpdatedAt)
	if err != nil {
		return blog.Blog{}, translate(err, "blog", b.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return blog.Blog{}, fmt.Errorf("blog %s: %w", b.ID, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) GetBlog(ctx context.Context, id string) (blog.Blog, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, content, user_id, status, created_at, updated_at
		FROM blogs
		WHERE id = $1
	`, id)

	var b blog.Blog
	if err := row.Scan(&b.ID, &b.Title, &b.Content, &b.AuthorID, &b.Status, &b.CreatedAt, &b.UpdatedAt); err != nil {
		return blog.Blog{}, translate(err, "blog", id)
	}
	return b, nil
}

func (s *Store) GetBlogSummary(ctx context.Context, id string) (blog.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.id = $1
		`+summaryGroup, id)
	if err != nil {
		return blog.Summary{}, err
	}
	defer rows.Close()

	result, err := scanSummaries(rows)
	if err != nil {
		return blog.Summary{}, err
	}
	if len(result) == 0 {
		return blog.Summary{}, fmt.Errorf("blog %s: %w", id, storage.ErrNotFound)
	}
	return result[0], nil
}

func (s *Store) DeleteBlog(ctx context.Context, id string) error {
	// Comments and reactions go with the blog via ON DELETE CASCADE.
	result, err := s.db.ExecContext(ctx, `DELETE FROM blogs WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("blog %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) SetBlogStatus(ctx context.Context, id string, status blog.Status) (bool, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE blogs
		SET status = $2, updated_at = $3
		WHERE id = $1 AND status <> $2
	`, id, status, time.Now().UTC())
	if err != nil {
		return false, err
	}
	rows, _ := result.RowsAffected()
	return rows > 0, nil
}

func (s *Store) ListApprovedBlogs(ctx context.Context, offset, limit int) ([]blog.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.status = 'approved'
		`+summaryGroup+`
		ORDER BY b.created_at DESC, b.id
		OFFSET $1 LIMIT $2
	`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (s *Store) CountBlogsByStatus(ctx context.Context, status blog.Status) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx, `SELECT count(*) FROM blogs WHERE status = $1`, status).Scan(&count)
	return count, err
}

func (s *Store) ListBlogsByStatus(ctx context.Context, status blog.Status) ([]blog.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.status = $1
		`+summaryGroup+`
		ORDER BY b.created_at DESC, b.id
	`, status)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (s *Store) ListBlogsByAuthor(ctx context.Context, authorID string, status *blog.Status) ([]blog.Summary, error) {
	filter := ""
	if status != nil {
		filter = string(*status)
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.user_id = $1 AND ($2 = '' OR b.status = $2)
		`+summaryGroup+`
		ORDER BY b.created_at DESC, b.id
	`, authorID, filter)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (s *Store) TopLikedBlogs(ctx context.Context, n int) ([]blog.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.status = 'approved'
		`+summaryGroup+`
		ORDER BY likes DESC, b.created_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func (s *Store) TopCommentedBlogs(ctx context.Context, n int) ([]blog.Summary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+summaryColumns+summaryJoins+`
		WHERE b.status = 'approved'
		`+summaryGroup+`
		ORDER BY comments DESC, b.created_at DESC
		LIMIT $1
	`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSummaries(rows)
}

func scanSummaries(rows *sql.Rows) ([]blog.Summary, error) {
	var result []blog.Summary
	for rows.Next() {
		var sum blog.Summary
		if err := rows.Scan(&sum.ID, &sum.Title, &sum.Content, &sum.AuthorID, &sum.Status,
			&sum.CreatedAt, &sum.UpdatedAt, &sum.AuthorName,
			&sum.LikesCount, &sum.DislikesCount, &sum.CommentsCount); err != nil {
			return nil, err
		}
		result = append(result, sum)
	}
	return result, rows.Err()
}

// --- CommentStore -----------------------------------------------------------

func (s *Store) CreateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO comments (id, blog_id, user_id, content, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`, c.ID, c.BlogID, c.AuthorID, c.Content, c.CreatedAt)
	if err != nil {
		return comment.Comment{}, translate(err, "comment", c.ID)
	}
	return c, nil
}

func (s *Store) UpdateComment(ctx context.Context, c comment.Comment) (comment.Comment, error) {
	result, err := s.db.ExecContext(ctx, `
		UPDATE comments SET content = $2 WHERE id = $1
	`, c.ID, c.Content)
	if err != nil {
		return comment.Comment{}, translate(err, "comment", c.ID)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return comment.Comment{}, fmt.Errorf("comment %s: %w", c.ID, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) GetComment(ctx context.Context, id string) (comment.Comment, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, blog_id, user_id, content, created_at
		FROM comments
		WHERE id = $1
	`, id)

	var c comment.Comment
	if err := row.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt); err != nil {
		return comment.Comment{}, translate(err, "comment", id)
	}
	return c, nil
}

func (s *Store) DeleteComment(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return nil
}

func (s *Store) ListCommentsByBlog(ctx context.Context, blogID string) ([]comment.WithAuthor, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT c.id, c.blog_id, c.user_id, c.content, c.created_at, u.username
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.blog_id = $1
		ORDER BY c.created_at DESC, c.id
	`, blogID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []comment.WithAuthor
	for rows.Next() {
		var c comment.WithAuthor
		if err := rows.Scan(&c.ID, &c.BlogID, &c.AuthorID, &c.Content, &c.CreatedAt, &c.AuthorName); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}

// --- ReactionStore ----------------------------------------------------------

func (s *Store) GetReaction(ctx context.Context, blogID, userID string) (reaction.Reaction, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, blog_id, user_id, type, created_at
		FROM reactions
		WHERE blog_id = $1 AND user_id = $2
	`, blogID, userID)

	var r reaction.Reaction
	if err := row.Scan(&r.ID, &r.BlogID, &r.UserID, &r.Type, &r.CreatedAt); err != nil {
		return reaction.Reaction{}, translate(err, "reaction", blogID+"/"+userID)
	}
	return r, nil
}

// ToggleReaction runs the read-then-write vote sequence inside one
// transaction so two votes from the same user cannot race past the unique
// (user_id, blog_id) index.
func (s *Store) ToggleReaction(ctx context.Context, blogID, userID string, t reaction.Type) (reaction.Counts, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return reaction.Counts{}, err
	}
	defer tx.Rollback()

	var existingID string
	var existingType reaction.Type
	err = tx.QueryRowContext(ctx, `
		SELECT id, type FROM reactions
		WHERE blog_id = $1 AND user_id = $2
		FOR UPDATE
	`, blogID, userID).Scan(&existingID, &existingType)

	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx, `
			INSERT INTO reactions (id, blog_id, user_id, type, created_at)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (user_id, blog_id) DO UPDATE SET type = EXCLUDED.type
		`, uuid.NewString(), blogID, userID, t, time.Now().UTC())
	case err != nil:
		return reaction.Counts{}, err
	case existingType == t:
		_, err = tx.ExecContext(ctx, `DELETE FROM reactions WHERE id = $1`, existingID)
	default:
		_, err = tx.ExecContext(ctx, `UPDATE reactions SET type = $2 WHERE id = $1`, existingID, t)
	}
	if err != nil {
		return reaction.Counts{}, translate(err, "reaction", blogID+"/"+userID)
	}

	var counts reaction.Counts
	err = tx.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE type = 'like'),
			count(*) FILTER (WHERE type = 'dislike')
		FROM reactions
		WHERE blog_id = $1
	`, blogID).Scan(&counts.Likes, &counts.Dislikes)
	if err != nil {
		return reaction.Counts{}, err
	}

	if err := tx.Commit(); err != nil {
		return reaction.Counts{}, err
	}
	return counts, nil
}

func (s *Store) CountReactions(ctx context.Context, blogID string) (reaction.Counts, error) {
	var counts reaction.Counts
	err := s.db.QueryRowContext(ctx, `
		SELECT
			count(*) FILTER (WHERE type = 'like'),
			count(*) FILTER (WHERE type = 'dislike')
		FROM reactions
		WHERE blog_id = $1
	`, blogID).Scan(&counts.Likes, &counts.Dislikes)
	return counts, err
}
