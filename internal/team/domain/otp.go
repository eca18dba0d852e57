package domain

import "time"

// OneTimeCode is the live verification code for an email. At most one
// exists per email; issuing a new one replaces it.
type OneTimeCode struct {
	Email     string    `json:"email"`
	CodeHash  string    `json:"code_hash"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

func (c OneTimeCode) Expired(now time.Time) bool {
	return !now.Before(c.ExpiresAt)
}
