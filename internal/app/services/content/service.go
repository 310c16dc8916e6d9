// Package content implements the read side of the blog platform: feed
// pages, detail views, per-author listings and the top-blog rankings.
package content

import (
	"context"
	"errors"
	"sort"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/storage"
	svcerrors "github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/logging"
)

// VisibilityPolicy decides which non-approved blogs a direct detail lookup
// may return. Owners and admins always see their own pending or rejected
// posts regardless of policy.
type VisibilityPolicy string

const (
	// HideRejected hides only rejected blogs; pending ones stay readable.
	HideRejected VisibilityPolicy = "rejected"
	// HideUnapproved hides everything that is not approved.
	HideUnapproved VisibilityPolicy = "unapproved"
)

// Viewer identifies the (possibly anonymous) caller of a detail lookup.
type Viewer struct {
	ID      string
	IsAdmin bool
}

// Detail is a full blog view: summary row plus comments and the viewer's
// own reaction, when present.
type Detail struct {
	blog.Summary
	Comments       []comment.WithAuthor
	ViewerReaction *reaction.Type
}

// Service assembles listing and detail queries over blogs, comments and
// reactions.
type Service struct {
	blogs     storage.BlogStore
	comments  storage.CommentStore
	reactions storage.ReactionStore
	cache     *ListCache
	policy    VisibilityPolicy
	log       *logging.Logger
}

// New constructs a content service. A nil cache disables feed caching.
func New(blogs storage.BlogStore, comments storage.CommentStore, reactions storage.ReactionStore, cache *ListCache, policy VisibilityPolicy, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("content")
	}
	if policy == "" {
		policy = HideRejected
	}
	return &Service{
		blogs:     blogs,
		comments:  comments,
		reactions: reactions,
		cache:     cache,
		policy:    policy,
		log:       log,
	}
}

// ListApproved returns one newest-first page of approved blogs together
// with the approved total, serving repeated page requests from the cache.
func (s *Service) ListApproved(ctx context.Context, offset, limit int) ([]blog.Summary, int, error) {
	if offset < 0 || limit <= 0 {
		return nil, 0, svcerrors.Validation("offset must be non-negative and limit positive")
	}

	if s.cache != nil {
		if items, total, ok := s.cache.Get(offset, limit); ok {
			return items, total, nil
		}
	}

	items, err := s.blogs.ListApprovedBlogs(ctx, offset, limit)
	if err != nil {
		return nil, 0, err
	}
	total, err := s.blogs.CountBlogsByStatus(ctx, blog.StatusApproved)
	if err != nil {
		return nil, 0, err
	}

	if s.cache != nil {
		s.cache.Put(offset, limit, items, total)
	}
	return items, total, nil
}

// CountApproved returns the approved total used for has-more pagination.
func (s *Service) CountApproved(ctx context.Context) (int, error) {
	return s.blogs.CountBlogsByStatus(ctx, blog.StatusApproved)
}

// GetDetail returns one blog with author, comments and reaction counts.
// Visibility of non-approved blogs follows the configured policy.
func (s *Service) GetDetail(ctx context.Context, id string, viewer Viewer) (Detail, error) {
	sum, err := s.blogs.GetBlogSummary(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Detail{}, svcerrors.NotFound("blog not found")
		}
		return Detail{}, err
	}

	if !s.visible(sum.Blog, viewer) {
		return Detail{}, svcerrors.NotFound("blog not found")
	}

	detail := Detail{Summary: sum}

	comments, err := s.comments.ListCommentsByBlog(ctx, id)
	if err != nil {
		return Detail{}, err
	}
	detail.Comments = comments

	if viewer.ID != "" {
		if r, err := s.reactions.GetReaction(ctx, id, viewer.ID); err == nil {
			t := r.Type
			detail.ViewerReaction = &t
		} else if !errors.Is(err, storage.ErrNotFound) {
			return Detail{}, err
		}
	}

	return detail, nil
}

func (s *Service) visible(b blog.Blog, viewer Viewer) bool {
	if b.Status == blog.StatusApproved {
		return true
	}
	if viewer.IsAdmin || (viewer.ID != "" && viewer.ID == b.AuthorID) {
		return true
	}
	switch s.policy {
	case HideUnapproved:
		return false
	default:
		return b.Status != blog.StatusRejected
	}
}

// ListByAuthor returns a user's blogs, optionally filtered by status,
// newest-first.
func (s *Service) ListByAuthor(ctx context.Context, authorID string, status *blog.Status) ([]blog.Summary, error) {
	return s.blogs.ListBlogsByAuthor(ctx, authorID, status)
}

// TopLiked returns the n most-liked approved blogs.
func (s *Service) TopLiked(ctx context.Context, n int) ([]blog.Summary, error) {
	return s.blogs.TopLikedBlogs(ctx, n)
}

// TopCommented returns the n most-commented approved blogs.
func (s *Service) TopCommented(ctx context.Context, n int) ([]blog.Summary, error) {
	return s.blogs.TopCommentedBlogs(ctx, n)
}

// TopBlogs unions the most-liked and most-commented lists, dedupes by id
// keeping the first occurrence, re-sorts by (likes desc, comments desc,
// newest first) and truncates to n.
func (s *Service) TopBlogs(ctx context.Context, n int) ([]blog.Summary, error) {
	liked, err := s.blogs.TopLikedBlogs(ctx, n)
	if err != nil {
		return nil, err
	}
	commented, err := s.blogs.TopCommentedBlogs(ctx, n)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(liked)+len(commented))
	merged := make([]blog.Summary, 0, len(liked)+len(commented))
	for _, sum := range append(liked, commented...) {
		if seen[sum.ID] {
			continue
		}
		seen[sum.ID] = true
		merged = append(merged, sum)
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].LikesCount != merged[j].LikesCount {
			return merged[i].LikesCount > merged[j].LikesCount
		}
		if merged[i].CommentsCount != merged[j].CommentsCount {
			return merged[i].CommentsCount > merged[j].CommentsCount
		}
		return merged[i].CreatedAt.After(merged[j].CreatedAt)
	})

	if len(merged) > n {
		merged = merged[:n]
	}
	return merged, nil
}

// InvalidateCache drops all cached feed pages. Publishing and moderation
// call this after every blog mutation.
func (s *Service) InvalidateCache() {
	if s.cache != nil {
		s.cache.Invalidate()
	}
}
