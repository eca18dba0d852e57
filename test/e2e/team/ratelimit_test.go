package team_test

import (
	"testing"

	"github.com/aussiebroadwan/expo/pkg/teamsdk"
)

// TestLoginRateLimit runs against the production limits: the sixth failed
// login for the same email within a minute is throttled.
func TestLoginRateLimit(t *testing.T) {
	c := startTeam(t, true)
	client := teamsdk.NewClient(c.BaseURL)
	bootstrapAdmin(t, client)

	// bootstrapAdmin spent one login already.
	for range 4 {
		_, err := client.Login(t.Context(), teamsdk.LoginRequest{Email: adminEmail, Password: "wrong"})
		requireErrorCode(t, err, teamsdk.ErrorCodeInvalidCredentials)
	}

	_, err := client.Login(t.Context(), teamsdk.LoginRequest{Email: adminEmail, Password: "wrong"})
	requireErrorCode(t, err, teamsdk.ErrorCodeRateLimited)
}
