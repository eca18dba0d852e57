package domain

import "time"

// SetupToken binds an emailed setup link to one email address. Only the
// fingerprint of the opaque token is stored.
type SetupToken struct {
	ID        string
	TokenHash string
	MemberID  string
	Email     string
	CreatedAt time.Time
}

// Valid reports whether the token is still inside its validity window.
func (t SetupToken) Valid(now time.Time, window time.Duration) bool {
	return now.Sub(t.CreatedAt) < window
}

func (t SetupToken) ExpiresAt(window time.Duration) time.Time {
	return t.CreatedAt.Add(window)
}
