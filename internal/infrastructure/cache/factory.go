package cache

import (
	"context"

	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// NewIdempotencyStore returns a Redis-backed store when a client is given,
// otherwise an in-memory one
func NewIdempotencyStore(client *redis.Client, logger *zap.Logger) shared.IdempotencyStore {
	if client != nil {
		return NewRedisIdempotencyStore(client, DefaultKeyPrefix)
	}
	if logger != nil {
		logger.Warn("Using in-memory idempotency store; claims are not shared between instances")
	}
	return NewInMemoryIdempotencyStore(0)
}

// OpenIdempotencyStore dials Redis when enabled and builds the store. When
// Redis is configured but unreachable the error is returned rather than
// silently degrading.
func OpenIdempotencyStore(ctx context.Context, cfg config.RedisConfig, logger *zap.Logger) (shared.IdempotencyStore, error) {
	if !cfg.Enabled {
		return NewIdempotencyStore(nil, logger), nil
	}
	client, err := NewRedisClient(ctx, cfg)
	if err != nil {
		return nil, err
	}
	store := NewRedisIdempotencyStore(client, DefaultKeyPrefix)
	store.ownClient = true
	return store, nil
}
