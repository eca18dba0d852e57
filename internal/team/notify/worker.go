package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
)

// Worker delivers queued messages with a real Notifier (usually SMTP).
type Worker struct {
	sender Notifier
	logger *slog.Logger
}

func NewWorker(sender Notifier, logger *slog.Logger) *Worker {
	return &Worker{sender: sender, logger: logger}
}

func (w *Worker) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(TypeEmailSend, w.HandleEmailSend)
}

func (w *Worker) HandleEmailSend(ctx context.Context, t *asynq.Task) error {
	var msg Message
	if err := json.Unmarshal(t.Payload(), &msg); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	}

	if err := w.sender.Notify(ctx, msg); err != nil {
		w.logger.Error("email delivery failed", slog.String("to", msg.To), slog.Any("error", err))
		return err
	}
	w.logger.Info("email delivered", slog.String("to", msg.To), slog.String("subject", msg.Subject))
	return nil
}
