package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/idx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// BootstrapService creates the single admin member once.
type BootstrapService struct {
	Store   store.Store
	Token   string // pre-configured bootstrap token
	Metrics *metrics.Metrics
	Now     func() time.Time
}

type BootstrapRequest struct {
	Name     string
	Email    string
	Password string
}

func (s *BootstrapService) IsBootstrapped(ctx context.Context) (bool, error) {
	return s.Store.Members().HasAdmin(ctx)
}

func (s *BootstrapService) Bootstrap(ctx context.Context, token string, req BootstrapRequest) (m domain.Member, err error) {
	defer func() { s.Metrics.Observe(metrics.OpBootstrap, err) }()
	l := slogx.FromContext(ctx)

	// 1. Check if already bootstrapped
	done, err := s.IsBootstrapped(ctx)
	if err != nil {
		return domain.Member{}, err
	}
	if done {
		l.Warn("attempted bootstrap on already-bootstrapped system")
		return domain.Member{}, ErrBootstrapAlready
	}

	// 2. Validate provided token
	if s.Token == "" || subtle.ConstantTimeCompare([]byte(token), []byte(s.Token)) != 1 {
		l.Warn("unauthorized bootstrap attempt")
		return domain.Member{}, ErrBootstrapUnauthorized
	}

	// 3. Validate the admin identity
	name := strings.TrimSpace(req.Name)
	email := domain.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Password == "" {
		return domain.Member{}, ErrMissingFields
	}
	if err := validEmail(email); err != nil {
		return domain.Member{}, err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		l.Error("failed to hash admin password", slog.Any("error", err))
		return domain.Member{}, err
	}

	// 4. Create the admin row, re-checking inside the transaction
	now := clock(s.Now)
	m = domain.Member{
		ID:           idx.NewAt(now).String(),
		Name:         name,
		Email:        email,
		Role:         domain.RoleAdmin,
		PasswordHash: hash,
		PasswordSet:  true,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		has, err := tx.Members().HasAdmin(ctx)
		if err != nil {
			return err
		}
		if has {
			return ErrBootstrapAlready
		}
		if err := tx.Members().CreateMember(ctx, m); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyExists
			}
			return err
		}
		return nil
	})
	if err != nil {
		return domain.Member{}, err
	}

	l.Info("successfully bootstrapped system", slog.String("admin_id", m.ID))
	return m, nil
}
