package service

import (
	"context"
	"errors"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/otpstore"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
)

const DefaultOTPTTL = 10 * time.Minute

// OTPService issues and checks the emailed verification codes.
type OTPService struct {
	Store otpstore.Store
	TTL   time.Duration
	Now   func() time.Time

	// Generate defaults to cryptox.GenerateOTP.
	Generate func() (string, error)
}

func (s *OTPService) ttl() time.Duration {
	if s.TTL <= 0 {
		return DefaultOTPTTL
	}
	return s.TTL
}

// Issue replaces any live code for email with a new one and returns it.
func (s *OTPService) Issue(ctx context.Context, email string) (string, time.Time, error) {
	gen := s.Generate
	if gen == nil {
		gen = cryptox.GenerateOTP
	}
	code, err := gen()
	if err != nil {
		return "", time.Time{}, err
	}

	now := clock(s.Now)
	c := domain.OneTimeCode{
		Email:     email,
		CodeHash:  cryptox.FingerprintCode(code),
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl()),
	}
	if err := s.Store.Set(ctx, c); err != nil {
		return "", time.Time{}, err
	}
	return code, c.ExpiresAt, nil
}

// Verify reports ErrInvalidOTP unless code is the live code for email.
// The stored code is left in place.
func (s *OTPService) Verify(ctx context.Context, email, code string) error {
	c, err := s.Store.Get(ctx, email)
	if errors.Is(err, otpstore.ErrNotFound) {
		return ErrInvalidOTP
	}
	if err != nil {
		return err
	}
	if c.Expired(clock(s.Now)) || !cryptox.EqualFingerprint(c.CodeHash, cryptox.FingerprintCode(code)) {
		return ErrInvalidOTP
	}
	return nil
}

func (s *OTPService) Discard(ctx context.Context, email string) error {
	return s.Store.Delete(ctx, email)
}
