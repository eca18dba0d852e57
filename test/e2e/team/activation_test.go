package team_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

// TestActivationFlow walks an invitee from invite to first login.
func TestActivationFlow(t *testing.T) {
	c := startTeam(t, false)
	client := teamsdk.NewClient(c.BaseURL)
	admin := bootstrapAdmin(t, client)
	ctx := t.Context()

	const email = "ann@example.com"
	invited, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "Ann", Email: email, Role: "sales"})
	require.NoError(t, err)
	require.Equal(t, "inactive", invited.Member.Status)

	_, err = client.Login(ctx, teamsdk.LoginRequest{Email: email, Password: "Secr3t!"})
	requireErrorCode(t, err, teamsdk.ErrorCodePasswordNotSet)

	token := c.setupToken(t, email)
	require.NoError(t, client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: email, Token: token}))
	code := c.otpCode(t, email)

	require.NoError(t, client.VerifyOTP(ctx, teamsdk.VerifyOTPRequest{Email: email, Code: code}))
	require.NoError(t, client.SetPassword(ctx, teamsdk.SetPasswordRequest{
		Email: email, Code: code, Password: "Secr3t!", Token: token,
	}))

	// The setup token is single use.
	err = client.SetPassword(ctx, teamsdk.SetPasswordRequest{
		Email: email, Code: code, Password: "Other1!", Token: token,
	})
	requireErrorCode(t, err, teamsdk.ErrorCodeInvalidToken)

	session, err := client.Login(ctx, teamsdk.LoginRequest{Email: email, Password: "Secr3t!"})
	require.NoError(t, err)
	me, err := session.Me(ctx)
	require.NoError(t, err)
	require.Equal(t, "sales", me.Role)
	require.Equal(t, "active", me.Status)

	_, err = session.Invite(ctx, teamsdk.InviteRequest{Name: "Bob", Email: "bob@example.com", Role: "manager"})
	requireErrorCode(t, err, teamsdk.ErrorCodeForbidden)
}

// TestRemoveMember verifies removal revokes access and the admin is kept.
func TestRemoveMember(t *testing.T) {
	c := startTeam(t, false)
	client := teamsdk.NewClient(c.BaseURL)
	admin := bootstrapAdmin(t, client)
	ctx := t.Context()

	invited, err := admin.Invite(ctx, teamsdk.InviteRequest{Name: "Bob", Email: "bob@example.com", Role: "manager"})
	require.NoError(t, err)
	token := c.setupToken(t, "bob@example.com")

	members, err := admin.ListMembers(ctx)
	require.NoError(t, err)
	require.Len(t, members, 2)

	require.NoError(t, admin.RemoveMember(ctx, invited.Member.ID))

	err = client.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: "bob@example.com", Token: token})
	requireErrorCode(t, err, teamsdk.ErrorCodeInvalidToken)

	me, err := admin.Me(ctx)
	require.NoError(t, err)
	err = admin.RemoveMember(ctx, me.ID)
	requireErrorCode(t, err, teamsdk.ErrorCodeCannotDeleteAdmin)
}
