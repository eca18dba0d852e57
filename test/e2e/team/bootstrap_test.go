package team_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

// TestBootstrapOnce verifies the admin can be created exactly once.
func TestBootstrapOnce(t *testing.T) {
	c := startTeam(t, false)
	client := teamsdk.NewClient(c.BaseURL)

	_, err := client.Bootstrap(t.Context(), "wrong-token", teamsdk.BootstrapRequest{
		Name: adminName, Email: adminEmail, Password: adminPassword,
	})
	requireErrorCode(t, err, teamsdk.ErrorCodeInvalidBootstrapToken)

	session := bootstrapAdmin(t, client)
	me, err := session.Me(t.Context())
	require.NoError(t, err)
	require.Equal(t, "admin", me.Role)
	require.Equal(t, "active", me.Status)

	_, err = client.Bootstrap(t.Context(), bootstrapToken, teamsdk.BootstrapRequest{
		Name: "Another", Email: "another@example.com", Password: "Another123!",
	})
	requireErrorCode(t, err, teamsdk.ErrorCodeBootstrapComplete)
}
