// Package reactions implements like and dislike voting on approved blogs.
package reactions

import (
	"context"
	"errors"

	"github.com/blogworks/blogserver/internal/app/domain/blog"
	"github.com/blogworks/blogserver/internal/app/domain/reaction"
	"github.com/blogworks/blogserver/internal/app/storage"
	svcerrors "github.com/blogworks/blogserver/internal/errors"
	"github.com/blogworks/blogserver/internal/logging"
)

// Service records reactions, one per user per blog.
type Service struct {
	blogs     storage.BlogStore
	reactions storage.ReactionStore
	log       *logging.Logger
}

// New constructs a reactions service.
func New(blogs storage.BlogStore, reactions storage.ReactionStore, log *logging.Logger) *Service {
	if log == nil {
		log = logging.NewDefault("reactions")
	}
	return &Service{blogs: blogs, reactions: reactions, log: log}
}

// React toggles the user's vote on an approved blog and returns the fresh
// counts. Repeating the same vote removes it; the opposite vote replaces
// it.
func (s *Service) React(ctx context.Context, blogID, userID string, t reaction.Type) (reaction.Counts, error) {
	parsed, err := reaction.ParseType(string(t))
	if err != nil {
		return reaction.Counts{}, svcerrors.Validation(err.Error())
	}
	t = parsed

	b, err := s.blogs.GetBlog(ctx, blogID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return reaction.Counts{}, svcerrors.NotFound("blog not found")
		}
		return reaction.Counts{}, err
	}
	if b.Status != blog.StatusApproved {
		return reaction.Counts{}, svcerrors.Forbidden("blog is not approved")
	}

	counts, err := s.reactions.ToggleReaction(ctx, blogID, userID, t)
	if err != nil {
		return reaction.Counts{}, err
	}

	s.log.WithFields(map[string]interface{}{
		"blog_id": blogID,
		"user_id": userID,
		"type":    t,
	}).Debug("reaction toggled")
	return counts, nil
}

// Counts returns the current like and dislike totals for a blog.
func (s *Service) Counts(ctx context.Context, blogID string) (reaction.Counts, error) {
	return s.reactions.CountReactions(ctx, blogID)
}
