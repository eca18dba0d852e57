package store

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
)

var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
)

// Store is the root data access interface implemented by drivers. Repos are
// reached through methods so that code inside WithTx can only see the
// transaction scoped ones it is handed.
type Store interface {
	Members() Members
	SetupTokens() SetupTokens

	ApplyMigrations() error

	// Tx starts a read/write transaction. The caller must Commit or Rollback.
	Tx(ctx context.Context) (Tx, error)

	// WithTx runs fn in a transaction, committing if it returns nil.
	// fn must only use the tx it is given.
	WithTx(ctx context.Context, fn func(tx Tx) error) error

	Close() error
	Ping(ctx context.Context) error
}

type Tx interface {
	Store
	Commit() error
	Rollback() error
}

type Members interface {
	// CreateMember inserts m. ErrAlreadyExists if the email is taken.
	CreateMember(ctx context.Context, m domain.Member) error

	GetMemberByID(ctx context.Context, id string) (domain.Member, error)

	// GetMemberByEmail expects an already normalised email.
	GetMemberByEmail(ctx context.Context, email string) (domain.Member, error)

	// ListMembers returns every member, oldest first.
	ListMembers(ctx context.Context) ([]domain.Member, error)

	// ActivateMember stores the password hash and sets password_set and
	// active together.
	ActivateMember(ctx context.Context, id, passwordHash string, now time.Time) error

	// DeleteMember removes the member; setup tokens cascade.
	DeleteMember(ctx context.Context, id string) error

	// HasAdmin reports whether an admin member exists.
	HasAdmin(ctx context.Context) (bool, error)
}

type SetupTokens interface {
	CreateSetupToken(ctx context.Context, t domain.SetupToken) error

	// GetSetupTokenByHash looks a token up by fingerprint, regardless of age.
	GetSetupTokenByHash(ctx context.Context, hash string) (domain.SetupToken, error)

	DeleteSetupToken(ctx context.Context, id string) error
	DeleteSetupTokensByEmail(ctx context.Context, email string) (int64, error)

	// DeleteSetupTokensCreatedBefore is housekeeping for expired tokens.
	DeleteSetupTokensCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}
