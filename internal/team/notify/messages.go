package notify

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// SetupLink is the frontend page an invitee opens to activate.
func SetupLink(frontendURL, token, email string) string {
	q := url.Values{}
	q.Set("token", token)
	q.Set("email", email)
	return strings.TrimSuffix(frontendURL, "/") + "/create-password?" + q.Encode()
}

func InviteMessage(name, email, link string, window time.Duration) Message {
	return Message{
		To:      email,
		Subject: "Set up your team account",
		Body: fmt.Sprintf(`Hi %s,

You have been added to the team. Open the link below to verify your email and choose a password:

%s

This link is valid for %s.`, name, link, HumanDuration(window)),
	}
}

func OTPMessage(email, code string, ttl time.Duration) Message {
	return Message{
		To:      email,
		Subject: "Your verification code",
		Body: fmt.Sprintf(`Your verification code is %s.

It expires in %s. If you did not request it you can ignore this email.`, code, HumanDuration(ttl)),
	}
}

// HumanDuration renders whole hours or minutes ("24 hours", "1 minute").
func HumanDuration(d time.Duration) string {
	unit, n := "minute", int(d/time.Minute)
	if d >= time.Hour && d%time.Hour == 0 {
		unit, n = "hour", int(d/time.Hour)
	}
	if n != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%d %s", n, unit)
}
