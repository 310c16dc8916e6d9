// Package publishing is the write side of blog authoring: create, edit and
// delete. Every successful mutation resets moderation state and drops the
// cached feed pages.
package publishing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/services/content"
	"github.com/blogworks/blogserver/internal/app/storage"
	svcerrors "github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/logging"
)

// Actor is the authenticated user performing a mutation.
type Actor struct {
	ID      string
	IsAdmin bool
}

// Service owns blog mutations.
type Service struct {
	blogs   storage.BlogStore
	content *content.Service
	log     *logging.Logger
}

// New constructs a publishing service. content may be nil in tests that do
// not exercise cache invalidation.
func New(blogs storage.BlogStore, contentSvc *content.Service, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("publishing")
	}
	return &Service{blogs: blogs, content: contentSvc, log: log}
}

func validate(title, body string) error {
	title = strings.TrimSpace(title)
	if title == "" {
		return svcerrors.Validation("title is required")
	}
	if len(title) > blog.MaxTitleLength {
		return svcerrors.Validation(fmt.Sprintf("title must be at most %d characters", blog.MaxTitleLength))
	}
	if strings.TrimSpace(body) == "" {
		return svcerrors.Validation("content is required")
	}
	return nil
}

// Create stores a new blog in pending state.
func (s *Service) Create(ctx context.Context, actor Actor, title, body string) (blog.Blog, error) {
	if err := validate(title, body); err != nil {
		return blog.Blog{}, err
	}

	created, err := s.blogs.CreateBlog(ctx, blog.Blog{
		Title:    strings.TrimSpace(title),
		Content:  body,
		AuthorID: actor.ID,
		Status:   blog.StatusPending,
	})
	if err != nil {
		return blog.Blog{}, err
	}

	s.invalidate()
	s.log.WithFields(map[string]interface{}{"blog_id": created.ID, "author_id": actor.ID}).Info("blog created")
	return created, nil
}

// Update edits a blog the actor owns (or any blog, for admins) and sends it
// back to moderation.
func (s *Service) Update(ctx context.Context, actor Actor, id, title, body string) (blog.Blog, error) {
	if err := validate(title, body); err != nil {
		return blog.Blog{}, err
	}

	existing, err := s.get(ctx, id)
	if err != nil {
		return blog.Blog{}, err
	}
	if !canMutate(actor, existing) {
		return blog.Blog{}, svcerrors.Forbidden("not the author of this blog")
	}

	existing.Title = strings.TrimSpace(title)
	existing.Content = body
	existing.Status = blog.StatusPending

	updated, err := s.blogs.UpdateBlog(ctx, existing)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return blog.Blog{}, svcerrors.NotFound("blog not found")
		}
		return blog.Blog{}, err
	}

	s.invalidate()
	s.log.WithField("blog_id", id).Info("blog updated, back to pending")
	return updated, nil
}

// Delete removes a blog along with its comments and reactions.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canMutate(actor, existing) {
		return svcerrors.Forbidden("not the author of this blog")
	}

	if err := s.blogs.DeleteBlog(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return svcerrors.NotFound("blog not found")
		}
		return err
	}

	s.invalidate()
	s.log.WithField("blog_id", id).Info("blog deleted")
	return nil
}

func (s *Service) get(ctx context.Context, id string) (blog.Blog, error) {
	b, err := s.blogs.GetBlog(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return blog.Blog{}, svcerrors.NotFound("blog not found")
		}
		return blog.Blog{}, err
	}
	return b, nil
}

func canMutate(actor Actor, b blog.Blog) bool {
	return actor.IsAdmin || actor.ID == b.AuthorID
}

func (s *Service) invalidate() {
	if s.content != nil {
		s.content.InvalidateCache()
	}
}
