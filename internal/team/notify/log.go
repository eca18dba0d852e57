package notify

import (
	"context"
	"log/slog"

	"github.com/aussiebroadwan/expo/pkg/slogx"
)

// LogNotifier writes messages to the log instead of sending them. It is the
// development default; IncludeBody exposes codes and links in the log, so
// only enable it locally.
type LogNotifier struct {
	IncludeBody bool
}

func (n LogNotifier) Notify(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}

	attrs := []any{slog.String("to", msg.To), slog.String("subject", msg.Subject)}
	if n.IncludeBody {
		attrs = append(attrs, slog.String("body", msg.Body))
	}
	slogx.FromContext(ctx).Info("notification", attrs...)
	return nil
}
