package blog

import (
	"fmt"
	"strings"
	"time"
)

// Status is the moderation state of a post.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// ParseStatus normalises a user-supplied status string.
func ParseStatus(s string) (Status, error) {
	switch Status(strings.ToLower(strings.TrimSpace(s))) {
	case StatusPending:
		return StatusPending, nil
	case StatusApproved:
		return StatusApproved, nil
	case StatusRejected:
		return StatusRejected, nil
	}
	return "", fmt.Errorf("unknown blog status %q", s)
}

// MaxTitleLength bounds the title column.
const MaxTitleLength = 200

// Blog is a single post. Status always starts (and, after an edit,
// restarts) at pending.
type Blog struct {
	ID        string
	Title     string
	Content   string
	AuthorID  string
	Status    Status
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Summary is a listing row with derived counts joined in.
type Summary struct {
	Blog
	AuthorName    string
	LikesCount    int
	DislikesCount int
	CommentsCount int
}
