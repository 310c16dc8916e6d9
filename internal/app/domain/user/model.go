package user

import "time"

// User represents a registered account. Users are never hard-deleted;
// blocked users keep their content but cannot sign in.
type User struct {
	ID           string
	Username     string
	Email        string
	PasswordHash string
	IsAdmin      bool
	IsBlocked    bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
