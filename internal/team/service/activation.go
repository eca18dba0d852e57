package service

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/aussiebroadwan/expo/internal/team/metrics"
	"github.com/aussiebroadwan/expo/internal/team/notify"
	"github.com/aussiebroadwan/expo/internal/team/store"
	"github.com/aussiebroadwan/expo/pkg/cryptox"
	"github.com/aussiebroadwan/expo/pkg/idx"
	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// ActivationService runs the member lifecycle: an admin invites, the
// invitee proves the email address with a code and sets a password.
type ActivationService struct {
	Store       store.Store
	Tokens      *SetupTokenIssuer
	OTP         *OTPService
	Notifier    notify.Notifier
	Metrics     *metrics.Metrics
	FrontendURL string
	Now         func() time.Time
}

type InviteRequest struct {
	Actor domain.Actor
	Name  string
	Email string
	Role  domain.Role
}

type InviteResult struct {
	Member         domain.Member
	SetupExpiresAt time.Time
}

type RequestOTPRequest struct {
	Email string
	Token string
}

type FinalizeRequest struct {
	Email    string
	Code     string
	Password string
	Token    string
}

// Invite creates an inactive member and emails them a setup link.
func (s *ActivationService) Invite(ctx context.Context, req InviteRequest) (res InviteResult, err error) {
	defer func() { s.Metrics.Observe(metrics.OpInvite, err) }()
	log := slogx.FromContext(ctx)

	if !req.Actor.IsAdmin() {
		log.Warn("invite attempted by non-admin", slog.String("actor_id", req.Actor.MemberID))
		return InviteResult{}, ErrForbidden
	}

	name := strings.TrimSpace(req.Name)
	email := domain.NormalizeEmail(req.Email)
	if name == "" || email == "" || req.Role == "" {
		return InviteResult{}, ErrMissingFields
	}
	if err := validEmail(email); err != nil {
		return InviteResult{}, err
	}
	if !req.Role.Invitable() {
		return InviteResult{}, ErrInvalidRole
	}

	if _, err := s.Store.Members().GetMemberByEmail(ctx, email); err == nil {
		return InviteResult{}, ErrAlreadyExists
	} else if !errors.Is(err, store.ErrNotFound) {
		log.Error("failed to look up member", slog.Any("error", err))
		return InviteResult{}, err
	}

	now := clock(s.Now)
	member := domain.Member{
		ID:        idx.NewAt(now).String(),
		Name:      name,
		Email:     email,
		Role:      req.Role,
		CreatedAt: now,
		UpdatedAt: now,
	}
	raw, token, err := s.Tokens.Issue(member)
	if err != nil {
		log.Error("failed to generate setup token", slog.Any("error", err))
		return InviteResult{}, err
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if err := tx.Members().CreateMember(ctx, member); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				return ErrAlreadyExists
			}
			return err
		}
		return tx.SetupTokens().CreateSetupToken(ctx, token)
	})
	if err != nil {
		if !errors.Is(err, ErrAlreadyExists) {
			log.Error("failed to create invited member", slog.Any("error", err))
		}
		return InviteResult{}, err
	}

	log.Info("member invited",
		slog.String("member_id", member.ID),
		slog.String("role", string(member.Role)),
	)

	link := notify.SetupLink(s.FrontendURL, raw, email)
	s.send(ctx, "invite", notify.InviteMessage(name, email, link, s.Tokens.window()))

	return InviteResult{Member: member, SetupExpiresAt: s.Tokens.ExpiresAt(token)}, nil
}

// RequestOTP emails a fresh verification code to the owner of a setup
// token. The token's age is not checked here; FinalizeActivation does.
func (s *ActivationService) RequestOTP(ctx context.Context, req RequestOTPRequest) (expiresAt time.Time, err error) {
	defer func() { s.Metrics.Observe(metrics.OpRequestOTP, err) }()
	log := slogx.FromContext(ctx)

	email := domain.NormalizeEmail(req.Email)
	if email == "" || req.Token == "" {
		return time.Time{}, ErrMissingFields
	}

	token, err := s.Tokens.Lookup(ctx, s.Store.SetupTokens(), req.Token)
	if err != nil {
		if errors.Is(err, ErrInvalidToken) {
			log.Warn("otp requested with unknown setup token")
		}
		return time.Time{}, err
	}
	if token.Email != email {
		log.Warn("otp requested for a different email", slog.String("token_id", token.ID))
		return time.Time{}, ErrEmailMismatch
	}

	code, expiresAt, err := s.OTP.Issue(ctx, email)
	if err != nil {
		log.Error("failed to issue otp", slog.Any("error", err))
		return time.Time{}, err
	}

	s.send(ctx, "otp", notify.OTPMessage(email, code, s.OTP.ttl()))
	return expiresAt, nil
}

// VerifyOTP checks a code without consuming it, so the same code can be
// submitted again with the new password.
func (s *ActivationService) VerifyOTP(ctx context.Context, email, code string) (err error) {
	defer func() { s.Metrics.Observe(metrics.OpVerifyOTP, err) }()

	email = domain.NormalizeEmail(email)
	code = strings.TrimSpace(code)
	if email == "" || code == "" {
		return ErrMissingFields
	}
	return s.OTP.Verify(ctx, email, code)
}

// FinalizeActivation sets the member's password and consumes both the
// setup token and the verification code. The token is resolved first so a
// replayed request reports ErrInvalidToken.
func (s *ActivationService) FinalizeActivation(ctx context.Context, req FinalizeRequest) (err error) {
	defer func() { s.Metrics.Observe(metrics.OpFinalize, err) }()
	log := slogx.FromContext(ctx)

	email := domain.NormalizeEmail(req.Email)
	code := strings.TrimSpace(req.Code)
	if email == "" || code == "" || req.Password == "" || req.Token == "" {
		return ErrMissingFields
	}

	token, err := s.Tokens.Lookup(ctx, s.Store.SetupTokens(), req.Token)
	if err != nil {
		return err
	}
	if token.Email != email {
		log.Warn("activation attempted for a different email", slog.String("token_id", token.ID))
		return ErrEmailMismatch
	}
	if !s.Tokens.Valid(token) {
		return ErrTokenExpired
	}
	if err := s.OTP.Verify(ctx, email, code); err != nil {
		return err
	}

	member, err := s.Store.Members().GetMemberByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return ErrUserNotFound
	}
	if err != nil {
		return err
	}

	hash, err := cryptox.HashPassword(req.Password)
	if err != nil {
		log.Error("failed to hash password", slog.Any("error", err))
		return err
	}

	now := clock(s.Now)
	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		// A concurrent finalize may have consumed the token already.
		if err := tx.SetupTokens().DeleteSetupToken(ctx, token.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrInvalidToken
			}
			return err
		}
		if err := tx.Members().ActivateMember(ctx, member.ID, hash, now); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrUserNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.OTP.Discard(ctx, email); err != nil {
		log.Warn("failed to discard otp", slog.Any("error", err))
	}

	log.Info("member activated", slog.String("member_id", member.ID))
	return nil
}

// ListMembers returns every member, the admin included.
func (s *ActivationService) ListMembers(ctx context.Context, actor domain.Actor) (members []domain.Member, err error) {
	defer func() { s.Metrics.Observe(metrics.OpList, err) }()
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.Store.Members().ListMembers(ctx)
}

// RemoveMember deletes a manager or sales member with any pending setup
// tokens and verification code.
func (s *ActivationService) RemoveMember(ctx context.Context, actor domain.Actor, id string) (err error) {
	defer func() { s.Metrics.Observe(metrics.OpRemove, err) }()
	log := slogx.FromContext(ctx)

	if !actor.IsAdmin() {
		return ErrForbidden
	}

	member, err := s.Store.Members().GetMemberByID(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	if member.Role == domain.RoleAdmin {
		return ErrCannotDeleteAdmin
	}

	err = s.Store.WithTx(ctx, func(tx store.Tx) error {
		if _, err := tx.SetupTokens().DeleteSetupTokensByEmail(ctx, member.Email); err != nil {
			return err
		}
		if err := tx.Members().DeleteMember(ctx, member.ID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ErrNotFound
			}
			return err
		}
		return nil
	})
	if err != nil {
		return err
	}

	if err := s.OTP.Discard(ctx, member.Email); err != nil {
		log.Warn("failed to discard otp", slog.Any("error", err))
	}

	log.Info("member removed",
		slog.String("member_id", member.ID),
		slog.String("actor_id", actor.MemberID),
	)
	return nil
}

// send delivers msg best effort.
func (s *ActivationService) send(ctx context.Context, kind string, msg notify.Message) {
	if s.Notifier == nil {
		return
	}
	err := s.Notifier.Notify(ctx, msg)
	s.Metrics.Notification(kind, err)
	if err != nil {
		slogx.FromContext(ctx).Error("failed to send notification",
			slog.String("kind", kind),
			slog.Any("error", err),
		)
	}
}

func validEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	return nil
}
