package reaction

import (
	"fmt"
	"strings"
	"time"
)

// Type is a like-or-dislike vote.
type Type string

const (
	TypeLike    Type = "like"
	TypeDislike Type = "dislike"
)

// ParseType normalises a user-supplied reaction type.
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case TypeLike:
		return TypeLike, nil
	case TypeDislike:
		return TypeDislike, nil
	}
	return "", fmt.Errorf("unknown reaction type %q", s)
}

// Reaction is one user's vote on one blog. At most one row exists per
// (user, blog) pair; repeating the same vote removes it, voting the other
// way flips it in place.
type Reaction struct {
	ID        string
	BlogID    string
	UserID    string
	Type      Type
	CreatedAt time.Time
}

// Counts holds the derived like/dislike totals for a blog.
type Counts struct {
	Likes    int `json:"likes"`
	Dislikes int `json:"dislikes"`
}
