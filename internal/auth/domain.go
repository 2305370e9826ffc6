package auth

import "time"

// User is an account as seen by the authentication path, including the
// credential hash the directory module never exposes.
type User struct {
	ID           int64
	Email        string
	Name         string
	PasswordHash string
	IsActive     bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Session is the redis-backed record behind one bearer token.
type Session struct {
	Token     string    `json:"-"`
	UserID    int64     `json:"user_id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
