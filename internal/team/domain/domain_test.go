package domain_test

import (
	"testing"
	"time"

	"github.com/aussiebroadwan/expo/internal/team/domain"
	"github.com/stretchr/testify/require"
)

func TestSetupTokenValidity(t *testing.T) {
	created := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	tok := domain.SetupToken{CreatedAt: created}
	window := 24 * time.Hour

	require.True(t, tok.Valid(created, window))
	require.True(t, tok.Valid(created.Add(window-time.Second), window))
	require.False(t, tok.Valid(created.Add(window), window))
	require.False(t, tok.Valid(created.Add(window+time.Minute), window))
	require.Equal(t, created.Add(window), tok.ExpiresAt(window))
}

func TestMemberStatus(t *testing.T) {
	require.Equal(t, domain.StatusInactive, domain.Member{}.Status())
	require.Equal(t, domain.StatusActive, domain.Member{PasswordSet: true, Active: true}.Status())
}

func TestRoleInvitable(t *testing.T) {
	require.True(t, domain.RoleManager.Invitable())
	require.True(t, domain.RoleSales.Invitable())
	require.False(t, domain.RoleAdmin.Invitable())
	require.False(t, domain.Role("superuser").Invitable())
}

func TestNormalizeEmail(t *testing.T) {
	require.Equal(t, "ann@x.io", domain.NormalizeEmail("  Ann@X.IO "))
}

func TestOneTimeCodeExpired(t *testing.T) {
	now := time.Now()
	c := domain.OneTimeCode{ExpiresAt: now}
	require.True(t, c.Expired(now))
	require.False(t, c.Expired(now.Add(-time.Second)))
}
