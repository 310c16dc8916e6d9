package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/domain/user"
	"github.com/blogworks/blogserver/internal/app/storage"
)

// Store is an in-memory implementation of the storage interfaces. It is safe
// for concurrent use and is primarily intended for tests and local development.
type Store struct {
	mu        sync.RWMutex
	users     map[string]user.User
	blogs     map[string]blog.Blog
	comments  map[string]comment.Comment
	reactions map[string]reaction.Reaction // keyed by blogID+"/"+userID
}

var _ storage.UserStore = (*Store)(nil)
var _ storage.BlogStore = (*Store)(nil)
var _ storage.CommentStore = (*Store)(nil)
var _ storage.ReactionStore = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:     make(map[string]user.User),
		blogs:     make(map[string]blog.Blog),
		comments:  make(map[string]comment.Comment),
		reactions: make(map[string]reaction.Reaction),
	}
}

func reactionKey(blogID, userID string) string {
	return blogID + "/" + userID
}

// UserStore implementation ----------------------------------------------------

func (s *Store) CreateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return user.User{}, fmt.Errorf("email %s: %w", u.Email, storage.ErrConflict)
		}
		if strings.EqualFold(existing.Username, u.Username) {
			return user.User{}, fmt.Errorf("username %s: %w", u.Username, storage.ErrConflict)
		}
	}

	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	u.CreatedAt = now
	u.UpdatedAt = now

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) UpdateUser(_ context.Context, u user.User) (user.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.users[u.ID]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", u.ID, storage.ErrNotFound)
	}

	u.CreatedAt = original.CreatedAt
	u.UpdatedAt = time.Now().UTC()

	s.users[u.ID] = u
	return u, nil
}

func (s *Store) GetUser(_ context.Context, id string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return user.User{}, fmt.Errorf("user %s: %w", id, storage.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByEmail(_ context.Context, email string) (user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if strings.EqualFold(u.Email, email) {
			return u, nil
		}
	}
	return user.User{}, fmt.Errorf("user email %s: %w", email, storage.ErrNotFound)
}

func (s *Store) ListUsers(_ context.Context) ([]user.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]user.User, 0, len(s.users))
	for _, u := range s.users {
		result = append(result, u)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result, nil
}

// BlogStore implementation ----------------------------------------------------

func (s *Store) CreateBlog(_ context.Context, b blog.Blog) (blog.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[b.AuthorID]; !ok {
		return blog.Blog{}, fmt.Errorf("author %s: %w", b.AuthorID, storage.ErrNotFound)
	}

	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	b.CreatedAt = now
	b.UpdatedAt = now

	s.blogs[b.ID] = b
	return b, nil
}

func (s *Store) UpdateBlog(_ context.Context, b blog.Blog) (blog.Blog, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.blogs[b.ID]
	if !ok {
		return blog.Blog{}, fmt.Errorf("blog %s: %w", b.ID, storage.ErrNotFound)
	}

	b.AuthorID = original.AuthorID
	b.CreatedAt = original.CreatedAt
	b.UpdatedAt = time.Now().UTC()

	s.blogs[b.ID] = b
	return b, nil
}

func (s *Store) GetBlog(_ context.Context, id string) (blog.Blog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.blogs[id]
	if !ok {
		return blog.Blog{}, fmt.Errorf("blog %s: %w", id, storage.ErrNotFound)
	}
	return b, nil
}

func (s *Store) GetBlogSummary(_ context.Context, id string) (blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches := s.summariesLocked(func(b blog.Blog) bool { return b.ID == id })
	if len(matches) == 0 {
		return blog.Summary{}, fmt.Errorf("blog %s: %w", id, storage.ErrNotFound)
	}
	return matches[0], nil
}

func (s *Store) DeleteBlog(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[id]; !ok {
		return fmt.Errorf("blog %s: %w", id, storage.ErrNotFound)
	}
	delete(s.blogs, id)

	for cid, c := range s.comments {
		if c.BlogID == id {
			delete(s.comments, cid)
		}
	}
	for key, r := range s.reactions {
		if r.BlogID == id {
			delete(s.reactions, key)
		}
	}
	return nil
}

func (s *Store) SetBlogStatus(_ context.Context, id string, status blog.Status) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.blogs[id]
	if !ok || b.Status == status {
		return false, nil
	}

	b.Status = status
	b.UpdatedAt = time.Now().UTC()
	s.blogs[id] = b
	return true, nil
}

func (s *Store) ListApprovedBlogs(_ context.Context, offset, limit int) ([]blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.summariesLocked(func(b blog.Blog) bool { return b.Status == blog.StatusApproved })
	sortNewestFirst(all)

	if offset >= len(all) {
		return []blog.Summary{}, nil
	}
	end := offset + limit
	if limit <= 0 || end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (s *Store) CountBlogsByStatus(_ context.Context, status blog.Status) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, b := range s.blogs {
		if b.Status == status {
			count++
		}
	}
	return count, nil
}

func (s *Store) ListBlogsByStatus(_ context.Context, status blog.Status) ([]blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.summariesLocked(func(b blog.Blog) bool { return b.Status == status })
	sortNewestFirst(result)
	return result, nil
}

func (s *Store) ListBlogsByAuthor(_ context.Context, authorID string, status *blog.Status) ([]blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := s.summariesLocked(func(b blog.Blog) bool {
		if b.AuthorID != authorID {
			return false
		}
		return status == nil || b.Status == *status
	})
	sortNewestFirst(result)
	return result, nil
}

func (s *Store) TopLikedBlogs(_ context.Context, n int) ([]blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.summariesLocked(func(b blog.Blog) bool { return b.Status == blog.StatusApproved })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].LikesCount != all[j].LikesCount {
			return all[i].LikesCount > all[j].LikesCount
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return truncate(all, n), nil
}

func (s *Store) TopCommentedBlogs(_ context.Context, n int) ([]blog.Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := s.summariesLocked(func(b blog.Blog) bool { return b.Status == blog.StatusApproved })
	sort.SliceStable(all, func(i, j int) bool {
		if all[i].CommentsCount != all[j].CommentsCount {
			return all[i].CommentsCount > all[j].CommentsCount
		}
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return truncate(all, n), nil
}

// CommentStore implementation -------------------------------------------------

func (s *Store) CreateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[c.BlogID]; !ok {
		return comment.Comment{}, fmt.Errorf("blog %s: %w", c.BlogID, storage.ErrNotFound)
	}
	if _, ok := s.users[c.AuthorID]; !ok {
		return comment.Comment{}, fmt.Errorf("author %s: %w", c.AuthorID, storage.ErrNotFound)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now().UTC()

	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) UpdateComment(_ context.Context, c comment.Comment) (comment.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	original, ok := s.comments[c.ID]
	if !ok {
		return comment.Comment{}, fmt.Errorf("comment %s: %w", c.ID, storage.ErrNotFound)
	}

	c.BlogID = original.BlogID
	c.AuthorID = original.AuthorID
	c.CreatedAt = original.CreatedAt

	s.comments[c.ID] = c
	return c, nil
}

func (s *Store) GetComment(_ context.Context, id string) (comment.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.comments[id]
	if !ok {
		return comment.Comment{}, fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	return c, nil
}

func (s *Store) DeleteComment(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.comments[id]; !ok {
		return fmt.Errorf("comment %s: %w", id, storage.ErrNotFound)
	}
	delete(s.comments, id)
	return nil
}

func (s *Store) ListCommentsByBlog(_ context.Context, blogID string) ([]comment.WithAuthor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]comment.WithAuthor, 0)
	for _, c := range s.comments {
		if c.BlogID != blogID {
			continue
		}
		result = append(result, comment.WithAuthor{
			Comment:    c,
			AuthorName: s.users[c.AuthorID].Username,
		})
	}
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID < result[j].ID
	})
	return result, nil
}

// ReactionStore implementation ------------------------------------------------

func (s *Store) GetReaction(_ context.Context, blogID, userID string) (reaction.Reaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.reactions[reactionKey(blogID, userID)]
	if !ok {
		return reaction.Reaction{}, fmt.Errorf("reaction %s/%s: %w", blogID, userID, storage.ErrNotFound)
	}
	return r, nil
}

func (s *Store) ToggleReaction(_ context.Context, blogID, userID string, t reaction.Type) (reaction.Counts, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.blogs[blogID]; !ok {
		return reaction.Counts{}, fmt.Errorf("blog %s: %w", blogID, storage.ErrNotFound)
	}

	key := reactionKey(blogID, userID)
	existing, ok := s.reactions[key]
	switch {
	case !ok:
		s.reactions[key] = reaction.Reaction{
			ID:        uuid.NewString(),
			BlogID:    blogID,
			UserID:    userID,
			Type:      t,
			CreatedAt: time.Now().UTC(),
		}
	case existing.Type == t:
		delete(s.reactions, key)
	default:
		existing.Type = t
		s.reactions[key] = existing
	}

	return s.countReactionsLocked(blogID), nil
}

func (s *Store) CountReactions(_ context.Context, blogID string) (reaction.Counts, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countReactionsLocked(blogID), nil
}

// Helpers ---------------------------------------------------------------------

func (s *Store) countReactionsLocked(blogID string) reaction.Counts {
	var counts reaction.Counts
	for _, r := range s.reactions {
		if r.BlogID != blogID {
			continue
		}
		if r.Type == reaction.TypeLike {
			counts.Likes++
		} else {
			counts.Dislikes++
		}
	}
	return counts
}

func (s *Store) summariesLocked(keep func(blog.Blog) bool) []blog.Summary {
	result := make([]blog.Summary, 0)
	for _, b := range s.blogs {
		if !keep(b) {
			continue
		}
		summary := blog.Summary{
			Blog:       b,
			AuthorName: s.users[b.AuthorID].Username,
		}
		counts := s.countReactionsLocked(b.ID)
		summary.LikesCount = counts.Likes
		summary.DislikesCount = counts.Dislikes
		for _, c := range s.comments {
			if c.BlogID == b.ID {
				summary.CommentsCount++
			}
		}
		result = append(result, summary)
	}
	return result
}

func sortNewestFirst(items []blog.Summary) {
	sort.Slice(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.After(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
}

func truncate(items []blog.Summary, n int) []blog.Summary {
	if n < 0 {
		n = 0
	}
	if len(items) > n {
		items = items[:n]
	}
	return items
}
