package models

import "time"

// RefreshToken is one issued refresh token. Rotation deletes the used token
// and stores a new one.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Expires   time.Time
	CreatedAt time.Time
}

// ExpiredAt reports whether the token is no longer valid at now.
func (t *RefreshToken) ExpiredAt(now time.Time) bool {
	return !now.Before(t.Expires)
}
