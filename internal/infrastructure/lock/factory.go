package lock

import (
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// New returns the locker selected by cfg.Backend. The redis backend needs a
// client; without one it falls back to the in-process mutex.
func New(cfg config.LockConfig, client *redis.Client, logger *zap.Logger) txn.Locker {
	if cfg.Backend == "redis" && client != nil {
		logger.Info("Using redis locks", zap.Duration("ttl", cfg.TTL))
		return NewRedisLocker(client, RedisConfig{
			TTL:         cfg.TTL,
			WaitTimeout: cfg.WaitTimeout,
			RetryEvery:  cfg.RetryEvery,
		}, logger)
	}
	if cfg.Backend == "redis" {
		logger.Warn("Redis lock backend requested without a redis client; using in-process locks")
	}
	return NewKeyedMutex()
}
