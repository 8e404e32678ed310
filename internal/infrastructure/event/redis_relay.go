package event

import (
	"context"
	"fmt"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultRelayChannel is the Redis channel events are relayed to
const DefaultRelayChannel = "o2c:events"

// RedisPublisher is the subset of the go-redis client the relay needs
type RedisPublisher interface {
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// RedisRelay forwards every committed domain event to a Redis channel so
// other processes (reporting, integrations) can follow the document flow.
type RedisRelay struct {
	client  RedisPublisher
	channel string
	logger  *zap.Logger
}

// NewRedisRelay creates a relay publishing to channel
func NewRedisRelay(client RedisPublisher, channel string, logger *zap.Logger) *RedisRelay {
	if channel == "" {
		channel = DefaultRelayChannel
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisRelay{client: client, channel: channel, logger: logger}
}

// Handle publishes the event envelope
func (r *RedisRelay) Handle(ctx context.Context, event shared.DomainEvent) error {
	data, err := Encode(event)
	if err != nil {
		return err
	}
	if err := r.client.Publish(ctx, r.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to relay %s to %s: %w", event.EventType(), r.channel, err)
	}
	r.logger.Debug("event relayed",
		zap.String("event_type", event.EventType()),
		zap.String("channel", r.channel),
	)
	return nil
}

// EventTypes subscribes to every event
func (r *RedisRelay) EventTypes() []string {
	return nil
}

var _ shared.EventHandler = (*RedisRelay)(nil)
