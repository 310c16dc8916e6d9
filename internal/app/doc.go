// Package app composes the blog server's services into a running application.
//
// It is a wiring layer, not a business logic layer. Business rules live in
// the service packages underneath it.
//
//	internal/app/
//	├── application.go      # Application struct, wiring, and lifecycle
//	├── domain/             # Domain models (pure data structures)
//	│   ├── user/           # Accounts and roles
//	│   ├── blog/           # Posts and moderation status
//	│   ├── comment/        # Comments
//	│   └── reaction/       # Likes and dislikes
//	├── storage/            # Store interfaces and implementations
//	│   ├── interfaces.go   # UserStore, BlogStore, CommentStore, ReactionStore
//	│   ├── memory/         # In-memory implementation for development and tests
//	│   └── postgres/       # PostgreSQL implementation for production
//	├── services/           # Business logic (accounts, publishing, content,
//	│                       # moderation, reactions, comments)
//	├── httpapi/            # HTTP handlers and routing
//	└── system/             # Service lifecycle management
//
// Dependencies point downward: cmd/server builds an Application from a
// Stores bundle and Options; services depend only on the storage interfaces;
// httpapi depends on the services through the Application.
//
// Adding a new domain follows the same steps each time: model under domain/,
// interface in storage/interfaces.go, both store implementations, a service
// package, wiring in application.go, and handlers in httpapi.
package app
