package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/spec-kit/tourism-service/internal/notify"
	"github.com/spec-kit/tourism-service/internal/observability"
)

const (
	defaultPollTimeout  = 5 * time.Second
	defaultRetryBackoff = 30 * time.Second
	maxRetryBackoff     = 30 * time.Minute
	promoteBatch        = 100
)

// NotificationWorker drains the email queue. A failed send is parked in the
// delayed set with its attempt counter raised and an exponential backoff,
// then moved back onto the queue once due. After MaxAttempts it goes to the
// dead-letter list.
type NotificationWorker struct {
	client       redis.Cmdable
	mailer       notify.Mailer
	key          string
	maxAttempts  int
	retryBackoff time.Duration
	pollTimeout  time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// NotificationWorkerConfig configures the worker.
type NotificationWorkerConfig struct {
	QueueKey     string
	MaxAttempts  int
	RetryBackoff time.Duration
	PollTimeout  time.Duration
}

// NewNotificationWorker builds a worker.
func NewNotificationWorker(client redis.Cmdable, mailer notify.Mailer, cfg NotificationWorkerConfig, metrics *observability.Metrics, logger *zap.Logger) *NotificationWorker {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.PollTimeout <= 0 {
		cfg.PollTimeout = defaultPollTimeout
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = defaultRetryBackoff
	}
	return &NotificationWorker{
		client:       client,
		mailer:       mailer,
		key:          cfg.QueueKey,
		maxAttempts:  cfg.MaxAttempts,
		retryBackoff: cfg.RetryBackoff,
		pollTimeout:  cfg.PollTimeout,
		metrics:      metrics,
		logger:       logger,
		now:          time.Now,
	}
}

// Run processes messages until ctx is cancelled.
func (w *NotificationWorker) Run(ctx context.Context) {
	w.logger.Info("notification worker started", zap.String("queue", w.key))
	for {
		if ctx.Err() != nil {
			w.logger.Info("notification worker stopped")
			return
		}
		if _, err := w.ProcessOne(ctx); err != nil && ctx.Err() == nil {
			w.logger.Error("notification worker", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
}

// ProcessOne moves due retries back onto the queue, then waits up to the
// poll timeout for one message and handles it. It reports whether a message
// was taken off the queue.
func (w *NotificationWorker) ProcessOne(ctx context.Context) (bool, error) {
	if err := w.promoteDue(ctx); err != nil {
		return false, err
	}

	res, err := w.client.BRPop(ctx, w.pollTimeout, w.key).Result()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("brpop %s: %w", w.key, err)
	}
	if len(res) != 2 {
		return false, fmt.Errorf("brpop %s: unexpected reply %v", w.key, res)
	}

	// The message is off the queue now; parking it must survive shutdown.
	keep := context.WithoutCancel(ctx)

	var msg notify.Message
	if err := json.Unmarshal([]byte(res[1]), &msg); err != nil {
		w.logger.Error("dropping undecodable notification", zap.Error(err))
		return true, w.push(keep, notify.DeadLetterKey(w.key), []byte(res[1]))
	}

	sendErr := w.mailer.Send(ctx, msg)
	if sendErr == nil {
		w.metrics.RecordNotification(msg.Template, "sent")
		return true, nil
	}

	msg.Attempt++
	payload, err := json.Marshal(msg)
	if err != nil {
		return true, fmt.Errorf("encode message: %w", err)
	}

	if msg.Attempt >= w.maxAttempts {
		w.metrics.RecordNotification(msg.Template, "dead")
		w.logger.Error("notification moved to dead-letter queue",
			zap.String("message_id", msg.ID),
			zap.String("template", msg.Template),
			zap.Int("attempts", msg.Attempt),
			zap.Error(sendErr))
		return true, w.push(keep, notify.DeadLetterKey(w.key), payload)
	}

	delay := w.backoff(msg.Attempt)
	w.metrics.RecordNotification(msg.Template, "retry")
	w.logger.Warn("notification send failed, retry scheduled",
		zap.String("message_id", msg.ID),
		zap.Int("attempt", msg.Attempt),
		zap.Duration("delay", delay),
		zap.Error(sendErr))

	due := w.now().Add(delay)
	key := notify.DelayedKey(w.key)
	if err := w.client.ZAdd(keep, key, redis.Z{Score: float64(due.UnixMilli()), Member: string(payload)}).Err(); err != nil {
		return true, fmt.Errorf("zadd %s: %w", key, err)
	}
	return true, nil
}

// backoff doubles the base delay per attempt, capped at maxRetryBackoff.
func (w *NotificationWorker) backoff(attempt int) time.Duration {
	delay := w.retryBackoff
	for i := 1; i < attempt && delay < maxRetryBackoff; i++ {
		delay *= 2
	}
	return min(delay, maxRetryBackoff)
}

// promoteDue moves retries whose time has come back onto the queue. ZREM
// decides ownership when several workers race for the same member.
func (w *NotificationWorker) promoteDue(ctx context.Context) error {
	key := notify.DelayedKey(w.key)
	due, err := w.client.ZRangeByScore(ctx, key, &redis.ZRangeBy{
		Min:   "-inf",
		Max:   strconv.FormatInt(w.now().UnixMilli(), 10),
		Count: promoteBatch,
	}).Result()
	if err != nil {
		return fmt.Errorf("zrangebyscore %s: %w", key, err)
	}
	for _, member := range due {
		removed, err := w.client.ZRem(ctx, key, member).Result()
		if err != nil {
			return fmt.Errorf("zrem %s: %w", key, err)
		}
		if removed == 0 {
			continue
		}
		if err := w.push(context.WithoutCancel(ctx), w.key, member); err != nil {
			return err
		}
	}
	return nil
}

func (w *NotificationWorker) push(ctx context.Context, key string, payload any) error {
	if err := w.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("lpush %s: %w", key, err)
	}
	return nil
}
