// Package otpstore keeps the live one-time verification codes, keyed by
// email. Codes never touch the SQL database: they live in process memory
// (single instance, tests) or in redis (shared between replicas).
package otpstore

import (
	"context"
	"errors"

	"github.com/aussiebroadwan/expo/internal/team/domain"
)

// ErrNotFound is returned by Get when no live code exists for an email.
var ErrNotFound = errors.New("otpstore: not found")

type Store interface {
	// Set stores c as the only live code for c.Email, replacing any other,
	// until c.ExpiresAt.
	Set(ctx context.Context, c domain.OneTimeCode) error

	// Get returns the live code for email or ErrNotFound.
	Get(ctx context.Context, email string) (domain.OneTimeCode, error)

	// Delete discards the code for email. Deleting a missing code is not
	// an error.
	Delete(ctx context.Context, email string) error

	Ping(ctx context.Context) error
}
