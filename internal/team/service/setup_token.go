package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/idx"
)

// DefaultSetupTokenWindow is how long an invite link stays usable.
const DefaultSetupTokenWindow = 24 * time.Hour

// SetupTokenIssuer mints and resolves the opaque tokens embedded in invite
// links. It never touches the store itself so callers decide which
// transaction the token lives in.
type SetupTokenIssuer struct {
	Window time.Duration
	Now    func() time.Time
}

func (i *SetupTokenIssuer) window() time.Duration {
	if i.Window <= 0 {
		return DefaultSetupTokenWindow
	}
	return i.Window
}

// Issue returns a raw token for m and the record to persist. Only the
// record's fingerprint of the token is stored.
func (i *SetupTokenIssuer) Issue(m domain.Member) (string, domain.SetupToken, error) {
	raw, err := cryptox.GenerateToken(cryptox.TokenSize256)
	if err != nil {
		return "", domain.SetupToken{}, err
	}
	now := clock(i.Now)
	return raw, domain.SetupToken{
		ID:        idx.NewAt(now).String(),
		TokenHash: cryptox.FingerprintToken(raw),
		MemberID:  m.ID,
		Email:     m.Email,
		CreatedAt: now,
	}, nil
}

// Lookup resolves raw against tokens. Age is not checked here.
func (i *SetupTokenIssuer) Lookup(ctx context.Context, tokens store.SetupTokens, raw string) (domain.SetupToken, error) {
	t, err := tokens.GetSetupTokenByHash(ctx, cryptox.FingerprintToken(raw))
	if errors.Is(err, store.ErrNotFound) {
		return domain.SetupToken{}, ErrInvalidToken
	}
	return t, err
}

func (i *SetupTokenIssuer) Valid(t domain.SetupToken) bool {
	return t.Valid(clock(i.Now), i.window())
}

func (i *SetupTokenIssuer) ExpiresAt(t domain.SetupToken) time.Time {
	return t.ExpiresAt(i.window())
}

func clock(now func() time.Time) time.Time {
	if now == nil {
		return time.Now().UTC()
	}
	return now().UTC()
}
