package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/taskner/marketplace/internal/infrastructure/observability"
	"github.com/taskner/marketplace/internal/orchestration"
)

// StreamNotifier publishes notifications onto a Redis stream for the
// delivery workers to pick up. The facades treat dispatch as
// fire-and-forget; durability past XADD is the consumer group's problem.
type StreamNotifier struct {
	client  *redis.Client
	stream  string
	logger  zerolog.Logger
	metrics *observability.Metrics
}

func NewStreamNotifier(client *redis.Client, stream string, logger zerolog.Logger, metrics *observability.Metrics) *StreamNotifier {
	return &StreamNotifier{
		client:  client,
		stream:  stream,
		logger:  logger,
		metrics: metrics,
	}
}

func (n *StreamNotifier) SendNotification(ctx context.Context, notification orchestration.Notification) error {
	payload, err := json.Marshal(notification.Metadata)
	if err != nil {
		payload = []byte("{}")
	}

	_, err = n.client.XAdd(ctx, &redis.XAddArgs{
		Stream: n.stream,
		Values: map[string]any{
			"recipient_id": notification.RecipientID,
			"kind":         notification.Kind,
			"title":        notification.Title,
			"body":         notification.Body,
			"payload":      string(payload),
			"timestamp":    time.Now().Unix(),
		},
	}).Result()

	n.count(notification.Kind, err)
	if err != nil {
		return fmt.Errorf("publish notification to %s: %w", n.stream, err)
	}

	n.logger.Debug().
		Str("stream", n.stream).
		Str("kind", notification.Kind).
		Str("recipient", notification.RecipientID).
		Msg("notification published")
	return nil
}

func (n *StreamNotifier) count(kind string, err error) {
	if n.metrics == nil {
		return
	}
	status := "published"
	if err != nil {
		status = "failed"
	}
	n.metrics.NotificationsTotal.WithLabelValues(kind, status).Inc()
}
