package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vendora/inventory/internal/core/domain"
)

const eventChannel = "inventory:events"

type eventEnvelope struct {
	Name        string       `json:"name"`
	PublishedAt time.Time    `json:"published_at"`
	Payload     domain.Event `json:"payload"`
}

// RedisPublisher broadcasts post-commit events on a Redis pub/sub channel.
// Subscribers (alerting, cache invalidation) attach with SUBSCRIBE; nothing
// in the stored state depends on anyone listening.
type RedisPublisher struct {
	client *redis.Client
}

func NewRedisPublisher(client *redis.Client) *RedisPublisher {
	return &RedisPublisher{client: client}
}

func (r *RedisPublisher) Publish(ctx context.Context, event domain.Event) error {
	payload, err := json.Marshal(eventEnvelope{
		Name:        event.EventName(),
		PublishedAt: time.Now().UTC(),
		Payload:     event,
	})
	if err != nil {
		return fmt.Errorf("marshal event %s: %w", event.EventName(), err)
	}

	if err := r.client.Publish(ctx, eventChannel, payload).Err(); err != nil {
		return fmt.Errorf("publish event %s: %w", event.EventName(), err)
	}
	return nil
}
