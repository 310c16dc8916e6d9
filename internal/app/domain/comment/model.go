package comment

import "time"

// Comment belongs to one blog and one author. Comments are cascade-deleted
// with their blog but outlive changes to its moderation status.
type Comment struct {
	ID        string
	BlogID    string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// WithAuthor is a comment joined with its author's display name.
type WithAuthor struct {
	Comment
	AuthorName string
}
