/*
Package teamsdk is the Go client and wire types of the Expo team service.

Public operations (login, refresh, the password setup steps and bootstrap)
live on Client. Operations that need an access token live on Session:

	c := teamsdk.NewClient("https://team.expo.example")

	// invitee, after following the emailed link
	_ = c.RequestOTP(ctx, teamsdk.RequestOTPRequest{Email: email, Token: token})
	_ = c.SetPassword(ctx, teamsdk.SetPasswordRequest{Email: email, Code: code, Password: pw, Token: token})

	// admin
	s, err := c.Login(ctx, teamsdk.LoginRequest{Email: admin, Password: pw})
	inv, err := s.Invite(ctx, teamsdk.InviteRequest{Name: "Ann", Email: "ann@x.io", Role: teamsdk.RoleSales})

Errors returned by the service are *APIError values; compare their Code
against the ErrorCode constants.
*/
package teamsdk
