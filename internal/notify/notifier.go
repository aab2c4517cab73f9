package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/spec-kit/tourism-service/internal/observability"
)

// Notifier accepts a message for delivery.
type Notifier interface {
	Notify(ctx context.Context, msg Message) error
}

// DirectNotifier sends synchronously and reports the mailer's error.
type DirectNotifier struct {
	mailer  Mailer
	metrics *observability.Metrics
}

func NewDirectNotifier(mailer Mailer, metrics *observability.Metrics) *DirectNotifier {
	return &DirectNotifier{mailer: mailer, metrics: metrics}
}

func (n *DirectNotifier) Notify(ctx context.Context, msg Message) error {
	if err := n.mailer.Send(ctx, msg); err != nil {
		n.metrics.RecordNotification(msg.Template, "failed")
		return err
	}
	n.metrics.RecordNotification(msg.Template, "sent")
	return nil
}

// QueueNotifier pushes messages onto a Redis list drained by the worker.
type QueueNotifier struct {
	client redis.Cmdable
	key    string
}

func NewQueueNotifier(client redis.Cmdable, key string) *QueueNotifier {
	return &QueueNotifier{client: client, key: key}
}

func (n *QueueNotifier) Notify(ctx context.Context, msg Message) error {
	if msg.ID == "" {
		msg.ID = uuid.NewString()
	}
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	if err := n.client.LPush(ctx, n.key, payload).Err(); err != nil {
		return fmt.Errorf("enqueue %s: %w", msg.Template, err)
	}
	return nil
}
