package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

type AuthService struct {
	Store   store.Store
	Tokens  *TokenService
	Metrics *metrics.Metrics
}

// Login checks an email and password and issues a credential pair.
// Members that have not finished activation get ErrPasswordNotSet.
func (s *AuthService) Login(ctx context.Context, email, password string) (res LoginResult, err error) {
	defer func() { s.Metrics.Observe(metrics.OpLogin, err) }()
	log := slogx.FromContext(ctx)

	email = domain.NormalizeEmail(email)
	if email == "" || password == "" {
		return LoginResult{}, ErrMissingFields
	}

	m, err := s.Store.Members().GetMemberByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return LoginResult{}, ErrInvalidCredentials
	}
	if err != nil {
		log.Error("failed to look up member", slog.Any("error", err))
		return LoginResult{}, err
	}

	if !m.PasswordSet {
		log.Info("login before activation", slog.String("member_id", m.ID))
		return LoginResult{}, ErrPasswordNotSet
	}
	if err := cryptox.VerifyPassword(password, m.PasswordHash); err != nil {
		if !errors.Is(err, cryptox.ErrMismatch) {
			log.Error("stored password hash unusable", slog.String("member_id", m.ID), slog.Any("error", err))
		}
		return LoginResult{}, ErrInvalidCredentials
	}
	if !m.Active {
		return LoginResult{}, ErrInvalidCredentials
	}

	pair, err := s.Tokens.IssuePair(m)
	if err != nil {
		log.Error("failed to sign tokens", slog.Any("error", err))
		return LoginResult{}, err
	}

	log.Info("member logged in", slog.String("member_id", m.ID))
	return LoginResult{Tokens: pair, Member: m}, nil
}

// Member returns the member with id, or ErrNotFound.
func (s *AuthService) Member(ctx context.Context, id string) (domain.Member, error) {
	m, err := s.Store.Members().GetMemberByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return domain.Member{}, ErrNotFound
	}
	return m, err
}
