// Package notify delivers the emails of the activation flow. Delivery is
// best effort: callers log failures and carry on.
package notify

import (
	"context"
	"errors"
	"strings"
)

type Message struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Validate rejects messages that cannot be sent or would let a value
// inject extra mail headers.
func (m Message) Validate() error {
	if m.To == "" || m.Subject == "" {
		return errors.New("notify: message needs a recipient and subject")
	}
	if strings.ContainsAny(m.To+m.Subject, "\r\n") {
		return errors.New("notify: header values must not contain newlines")
	}
	return nil
}

type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, msg Message) error

func (f NotifierFunc) Notify(ctx context.Context, msg Message) error { return f(ctx, msg) }
