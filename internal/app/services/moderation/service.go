// Package moderation implements the admin review queue for blogs.
package moderation

import (
	"context"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/services/content"
	"github.com/blogworks/blogserver/internal/app/storage"
	"github.com/blogworks/blogserver/internal/logging"
)

// Service moves blogs through the review states.
type Service struct {
	blogs   storage.BlogStore
	content *content.Service
	log     *logging.Logger
}

// New constructs a moderation service. content may be nil in tests that do
// not exercise cache invalidation.
func New(blogs storage.BlogStore, contentSvc *content.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("moderation")
	}
	return &Service{blogs: blogs, content: contentSvc, log: log}
}

// ListPending returns the review queue, newest first.
func (s *Service) ListPending(ctx context.Context) ([]blog.Summary, error) {
	return s.blogs.ListBlogsByStatus(ctx, blog.StatusPending)
}

// ListByStatus returns all blogs in one state, newest first.
func (s *Service) ListByStatus(ctx context.Context, status blog.Status) ([]blog.Summary, error) {
	return s.blogs.ListBlogsByStatus(ctx, status)
}

// Approve marks a blog approved. It reports false when the blog is missing
// or already approved, without an error.
func (s *Service) Approve(ctx context.Context, id string) (bool, error) {
	return s.setStatus(ctx, id, blog.StatusApproved)
}

// Reject marks a blog rejected. It reports false when the blog is missing
// or already rejected, without an error.
func (s *Service) Reject(ctx context.Context, id string) (bool, error) {
	return s.setStatus(ctx, id, blog.StatusRejected)
}

func (s *Service) setStatus(ctx context.Context, id string, status blog.Status) (bool, error) {
	changed, err := s.blogs.SetBlogStatus(ctx, id, status)
	if err != nil {
		return false, err
	}
	if !changed {
		s.log.WithFields(map[string]interface{}{"blog_id": id, "status": status}).Warn("moderation had no effect")
		return false, nil
	}

	if s.content != nil {
		s.content.InvalidateCache()
	}
	s.log.WithFields(map[string]interface{}{"blog_id": id, "status": status}).Info("blog moderated")
	return true, nil
}
