package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
)

// TypeEmailSend is the asynq task type of a queued Message.
const TypeEmailSend = "email:send"

// Queue names, highest weight first.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

func NewEmailTask(msg Message) (*asynq.Task, error) {
	data, err := json.Marshal(msg)
	if err != nil {
		return nil, err
	}
	// At most once: a lost OTP mail is re-requested by the user, a
	// duplicated one is confusing.
	return asynq.NewTask(TypeEmailSend, data,
		asynq.MaxRetry(0),
		asynq.Timeout(30*time.Second),
	), nil
}

// Enqueuer is the part of *asynq.Client the notifier needs.
type Enqueuer interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
}

// QueueNotifier hands messages to the mailer worker through redis.
type QueueNotifier struct {
	client Enqueuer
	queue  string
}

func NewQueueNotifier(client Enqueuer) *QueueNotifier {
	return &QueueNotifier{client: client, queue: QueueCritical}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	task, err := NewEmailTask(msg)
	if err != nil {
		return fmt.Errorf("notify: build task: %w", err)
	}
	if _, err := n.client.EnqueueContext(ctx, task, asynq.Queue(n.queue)); err != nil {
		return fmt.Errorf("notify: enqueue: %w", err)
	}
	return nil
}

// RedisConnOpt builds the asynq connection options for addr.
func RedisConnOpt(addr, password string) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: addr, Password: password}
}

// NewServer returns the asynq server the mailer runs.
func NewServer(opt asynq.RedisConnOpt, concurrency int) *asynq.Server {
	if concurrency <= 0 {
		concurrency = 5
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			QueueCritical: 6,
			QueueDefault:  3,
		},
	})
}
