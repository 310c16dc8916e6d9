// Package comments implements commenting on approved blogs.
package comments

import (
	"context"
	"errors"
	"strings"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/comment"
	"github.com/blogworks/blogserver/internal/app/storage"
	svcerrors "github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/logging"
)

// Actor is the authenticated user performing a comment mutation.
type Actor struct {
	ID      string
	IsAdmin bool
}

// Service owns comment mutations and listings.
type Service struct {
	blogs    storage.BlogStore
	comments storage.CommentStore
	log      *logging.Logger
}

// New constructs a comments service.
func New(blogs storage.BlogStore, commentStore storage.CommentStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("comments")
	}
	return &Service{blogs: blogs, comments: commentStore, log: log}
}

// Create adds a comment to an approved blog.
func (s *Service) Create(ctx context.Context, actor Actor, blogID, content string) (comment.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return comment.Comment{}, svcerrors.Validation("comment content is required")
	}

	b, err := s.blogs.GetBlog(ctx, blogID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, svcerrors.NotFound("blog not found")
		}
		return comment.Comment{}, err
	}
	if b.Status != blog.StatusApproved {
		return comment.Comment{}, svcerrors.Forbidden("blog is not approved")
	}

	created, err := s.comments.CreateComment(ctx, comment.Comment{
		BlogID:   blogID,
		AuthorID: actor.ID,
		Content:  strings.TrimSpace(content),
	})
	if err != nil {
		return comment.Comment{}, err
	}

	s.log.WithFields(map[string]interface{}{"comment_id": created.ID, "blog_id": blogID}).Debug("comment created")
	return created, nil
}

// Update edits a comment the actor owns. Admins may edit any comment.
func (s *Service) Update(ctx context.Context, actor Actor, id, content string) (comment.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return comment.Comment{}, svcerrors.Validation("comment content is required")
	}

	existing, err := s.get(ctx, id)
	if err != nil {
		return comment.Comment{}, err
	}
	if !canMutate(actor, existing) {
		return comment.Comment{}, svcerrors.Forbidden("not the author of this comment")
	}

	existing.Content = strings.TrimSpace(content)
	updated, err := s.comments.UpdateComment(ctx, existing)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, svcerrors.NotFound("comment not found")
		}
		return comment.Comment{}, err
	}
	return updated, nil
}

// Delete removes a comment the actor owns. Admins may delete any comment.
func (s *Service) Delete(ctx context.Context, actor Actor, id string) error {
	existing, err := s.get(ctx, id)
	if err != nil {
		return err
	}
	if !canMutate(actor, existing) {
		return svcerrors.Forbidden("not the author of this comment")
	}

	if err := s.comments.DeleteComment(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return svcerrors.NotFound("comment not found")
		}
		return err
	}
	return nil
}

// ListByBlog returns a blog's comments with author names, newest first.
func (s *Service) ListByBlog(ctx context.Context, blogID string) ([]comment.WithAuthor, error) {
	return s.comments.ListCommentsByBlog(ctx, blogID)
}

func (s *Service) get(ctx context.Context, id string) (comment.Comment, error) {
	c, err := s.comments.GetComment(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return comment.Comment{}, svcerrors.NotFound("comment not found")
		}
		return comment.Comment{}, err
	}
	return c, nil
}

func canMutate(actor Actor, c comment.Comment) bool {
	return actor.IsAdmin || actor.ID == c.AuthorID
}
