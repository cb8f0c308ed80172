package notifier

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/rentflow/backend/internal/application/notification"
	"go.uber.org/zap"
)

// RedisStreamNotifier appends notifications to a Redis stream for the
// messaging workers to fan out
type RedisStreamNotifier struct {
	client    redis.UniversalClient
	stream    string
	maxLen    int64
	formatter *Formatter
	logger    *zap.Logger
}

// NewRedisStreamNotifier creates a notifier writing to stream. The stream is
// trimmed to roughly maxLen entries; zero disables trimming.
func NewRedisStreamNotifier(client redis.UniversalClient, stream string, maxLen int64, formatter *Formatter, logger *zap.Logger) *RedisStreamNotifier {
	if formatter == nil {
		formatter = NewFormatter("en")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisStreamNotifier{
		client:    client,
		stream:    stream,
		maxLen:    maxLen,
		formatter: formatter,
		logger:    logger.Named("redis_notifier"),
	}
}

// Notify appends one stream entry for n
func (r *RedisStreamNotifier) Notify(ctx context.Context, n notification.Notification) error {
	payload, err := json.Marshal(n)
	if err != nil {
		return fmt.Errorf("encode notification: %w", err)
	}

	args := &redis.XAddArgs{
		Stream: r.stream,
		Values: map[string]any{
			"event_type":    n.EventType,
			"obligation_id": n.ObligationID.String(),
			"contract_id":   n.ContractID.String(),
			"status":        n.Status,
			"subject":       r.formatter.Subject(n),
			"payload":       string(payload),
		},
	}
	if r.maxLen > 0 {
		args.MaxLen = r.maxLen
		args.Approx = true
	}

	id, err := r.client.XAdd(ctx, args).Result()
	if err != nil {
		return fmt.Errorf("append to stream %s: %w", r.stream, err)
	}
	r.logger.Debug("notification queued",
		zap.String("stream", r.stream),
		zap.String("entry_id", id),
		zap.String("obligation_id", n.ObligationID.String()))
	return nil
}
