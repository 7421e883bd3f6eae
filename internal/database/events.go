package database

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ngenohkevin/lending/internal/models"
)

// streamMaxLen bounds the event stream; older entries are trimmed approximately.
const streamMaxLen = 10000

// StreamEvent is the envelope written to the event stream
type StreamEvent struct {
	ID         string    `json:"id"`
	Type       string    `json:"type"`
	OccurredAt time.Time `json:"occurred_at"`
	Payload    any       `json:"payload"`
}

// RedisStreamPublisher appends domain events to a Redis stream
type RedisStreamPublisher struct {
	redis  *redis.Client
	stream string
	logger *slog.Logger
}

// NewRedisStreamPublisher creates a publisher writing to stream
func NewRedisStreamPublisher(client *redis.Client, stream string, logger *slog.Logger) *RedisStreamPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisStreamPublisher{
		redis:  client,
		stream: stream,
		logger: logger,
	}
}

// Publish writes events in one pipeline, preserving their order.
func (p *RedisStreamPublisher) Publish(ctx context.Context, events ...models.DomainEvent) error {
	if len(events) == 0 {
		return nil
	}

	pipe := p.redis.Pipeline()
	for _, event := range events {
		envelope := StreamEvent{
			ID:         uuid.NewString(),
			Type:       event.EventType(),
			OccurredAt: event.OccurredAt(),
			Payload:    event,
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("failed to encode %s event: %w", envelope.Type, err)
		}
		pipe.XAdd(ctx, &redis.XAddArgs{
			Stream: p.stream,
			MaxLen: streamMaxLen,
			Approx: true,
			Values: map[string]any{
				"id":   envelope.ID,
				"type": envelope.Type,
				"data": string(data),
			},
		})
	}

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to publish events to %s: %w", p.stream, err)
	}

	p.logger.Debug("Published events", "stream", p.stream, "count", len(events))
	return nil
}

// LogPublisher writes domain events to the log. It is used when no Redis is
// configured.
type LogPublisher struct {
	logger *slog.Logger
}

func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

func (p *LogPublisher) Publish(ctx context.Context, events ...models.DomainEvent) error {
	for _, event := range events {
		p.logger.InfoContext(ctx, "Domain event",
			"type", event.EventType(),
			"occurred_at", event.OccurredAt(),
			"event", event,
		)
	}
	return nil
}
