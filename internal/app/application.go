package app

import (
	"context"
	"fmt"
	"time"

	"github.com/blogworks/blogserver/internal/app/services/accounts"
	"github.com/blogworks/blogserver/internal/app/services/comments"
	"github.com/blogworks/blogserver/internal/app/services/content"
	"github.com/blogworks/blogserver/internal/app/services/moderation"
	"github.com/blogworks/blogserver/internal/app/services/publishing"
	"github.com/blogworks/blogserver/internal/app/services/reactions"
	"github.com/blogworks/blogserver/internal/app/storage"
	"github.com/blogworks/blogserver/internal/app/storage/memory"
	"github.com/blogworks/blogserver/internal/app/system"
	"github.com/blogworks/blogserver/internal/logging"
)

// Stores encapsulates persistence dependencies. Nil stores default to the
// in-memory implementation.
type Stores struct {
	Users     storage.UserStore
	Blogs     storage.BlogStore
	Comments  storage.CommentStore
	Reactions storage.ReactionStore
}

// Options tunes application behaviour beyond its stores.
type Options struct {
	JWTSecret     []byte
	TokenTTL      time.Duration
	PageSize      int
	CacheSliding  time.Duration
	CacheAbsolute time.Duration
	DetailPolicy  content.VisibilityPolicy
}

// Application ties domain services together and manages their lifecycle.
type Application struct {
	manager  *system.Manager
	log      *logging.Logger
	pageSize int

	Accounts   *accounts.Service
	Content    *content.Service
	Publishing *publishing.Service
	Moderation *moderation.Service
	Reactions  *reactions.Service
	Comments   *comments.Service
}

// New builds a fully initialised application with the provided stores.
func New(stores Stores, opts Options, log *logging.Logger) (*Application, error) {
	if log == nil {
		log = logging.NewDefault("app")
	}
	if len(opts.JWTSecret) == 0 {
		return nil, fmt.Errorf("jwt secret is required")
	}
	if opts.PageSize <= 0 {
		opts.PageSize = 5
	}

	mem := memory.New()
	if stores.Users == nil {
		stores.Users = mem
	}
	if stores.Blogs == nil {
		stores.Blogs = mem
	}
	if stores.Comments == nil {
		stores.Comments = mem
	}
	if stores.Reactions == nil {
		stores.Reactions = mem
	}

	var cache *content.ListCache
	if opts.CacheSliding > 0 {
		// An unset (or too small) ceiling would expire every entry on arrival.
		if opts.CacheAbsolute < opts.CacheSliding {
			opts.CacheAbsolute = max(time.Hour, opts.CacheSliding)
		}
		cache = content.NewListCache(opts.CacheSliding, opts.CacheAbsolute)
	}

	contentSvc := content.New(stores.Blogs, stores.Comments, stores.Reactions, cache, opts.DetailPolicy, log)

	app := &Application{
		manager:    system.NewManager(log),
		log:        log,
		pageSize:   opts.PageSize,
		Accounts:   accounts.New(stores.Users, opts.JWTSecret, opts.TokenTTL, log),
		Content:    contentSvc,
		Publishing: publishing.New(stores.Blogs, contentSvc, log),
		Moderation: moderation.New(stores.Blogs, contentSvc, log),
		Reactions:  reactions.New(stores.Blogs, stores.Reactions, log),
		Comments:   comments.New(stores.Blogs, stores.Comments, log),
	}

	for _, name := range []string{"accounts", "content", "publishing", "moderation", "reactions", "comments"} {
		if err := app.manager.Register(system.NoopService{ServiceName: name}); err != nil {
			return nil, fmt.Errorf("register %s service: %w", name, err)
		}
	}

	return app, nil
}

// PageSize is the feed page size used by the HTTP layer.
func (a *Application) PageSize() int { return a.pageSize }

// Start brings up all registered services.
func (a *Application) Start(ctx context.Context) error {
	return a.manager.Start(ctx)
}

// Stop shuts down all services in reverse start order.
func (a *Application) Stop(ctx context.Context) error {
	return a.manager.Stop(ctx)
}
