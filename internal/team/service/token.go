package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/jwtx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// TokenService signs credential pairs with the instance's ephemeral keys.
type TokenService struct {
	KeyManager *jwtx.KeyManager
	Store      store.Store
	Metrics    *metrics.Metrics
	Issuer     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

// LoginResult is a credential pair plus the member it was issued to.
type LoginResult struct {
	Tokens domain.TokenPair
	Member domain.Member
}

func (s *TokenService) IssuePair(m domain.Member) (domain.TokenPair, error) {
	signer := s.KeyManager.GetSigner()
	if signer == nil {
		return domain.TokenPair{}, errors.New("no signing key available")
	}

	now := clock(s.Now)
	accessTTL := orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL)
	refreshTTL := orDefault(s.RefreshTTL, jwtx.DefaultRefreshTokenTTL)

	sign := func(typ string, ttl time.Duration) (string, error) {
		return signer.Sign(jwtx.NewClaims(jwtx.ClaimsParams{
			Subject:  m.ID,
			Username: m.Email,
			Role:     string(m.Role),
			Type:     typ,
			Issuer:   s.Issuer,
			TTL:      ttl,
			Now:      now,
		}))
	}

	access, err := sign(jwtx.TypeAccess, accessTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}
	refresh, err := sign(jwtx.TypeRefresh, refreshTTL)
	if err != nil {
		return domain.TokenPair{}, err
	}

	return domain.TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  now.Add(accessTTL),
		RefreshExpiresAt: now.Add(refreshTTL),
	}, nil
}

// Refresh exchanges a refresh token for a new pair. The member must still
// exist and be active.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (res LoginResult, err error) {
	defer func() { s.Metrics.Observe(metrics.OpRefresh, err) }()
	log := slogx.FromContext(ctx)

	if refreshToken == "" {
		return LoginResult{}, ErrMissingFields
	}

	claims, err := s.KeyManager.Verifier.VerifyType(refreshToken, jwtx.TypeRefresh)
	if err != nil {
		log.Info("refresh token rejected", slog.Any("error", err))
		return LoginResult{}, ErrInvalidRefresh
	}

	m, err := s.Store.Members().GetMemberByID(ctx, claims.Subject)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidRefresh
	}
	if err != nil {
		return LoginResult{}, err
	}
	if !m.Active {
		return LoginResult{}, ErrInvalidRefresh
	}

	pair, err := s.IssuePair(m)
	if err != nil {
		log.Error("failed to sign tokens", slog.Any("error", err))
		return LoginResult{}, err
	}
	return LoginResult{Tokens: pair, Member: m}, nil
}

func orDefault(ttl, def time.Duration) time.Duration {
	if ttl <= 0 {
		return def
	}
	return ttl
}

// AccessTokenTTL is the lifetime of issued access tokens.
func (s *TokenService) AccessTokenTTL() time.Duration {
	return orDefault(s.AccessTTL, jwtx.DefaultAccessTokenTTL)
}
