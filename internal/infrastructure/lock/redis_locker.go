package lock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/bsm/redislock"
	"github.com/erp/ordertocash/internal/application/txn"
	"github.com/erp/ordertocash/internal/domain/shared"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// DefaultKeyPrefix namespaces lock keys in a shared Redis
const DefaultKeyPrefix = "o2c:lock:"

// RedisConfig tunes the distributed locker
type RedisConfig struct {
	Prefix string
	// TTL is the lease; a crashed holder frees its keys after it expires
	TTL         time.Duration
	WaitTimeout time.Duration
	RetryEvery  time.Duration
}

// RedisLocker is a txn.Locker shared by every instance of the service
type RedisLocker struct {
	client *redislock.Client
	cfg    RedisConfig
	logger *zap.Logger
}

var _ txn.Locker = (*RedisLocker)(nil)

// NewRedisLocker creates a locker on top of client
func NewRedisLocker(client redis.UniversalClient, cfg RedisConfig, logger *zap.Logger) *RedisLocker {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultKeyPrefix
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 30 * time.Second
	}
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = 5 * time.Second
	}
	if cfg.RetryEvery <= 0 {
		cfg.RetryEvery = 50 * time.Millisecond
	}
	return &RedisLocker{
		client: redislock.New(client),
		cfg:    cfg,
		logger: logger,
	}
}

// Acquire obtains every key in sorted order, retrying each until the wait
// timeout. Keys already obtained are released on failure.
func (l *RedisLocker) Acquire(ctx context.Context, keys ...string) (func(), error) {
	keys = txn.SortedKeys(keys)
	held := make([]*redislock.Lock, 0, len(keys))

	waitCtx, cancel := context.WithTimeout(ctx, l.cfg.WaitTimeout)
	defer cancel()

	opts := &redislock.Options{
		RetryStrategy: redislock.LinearBackoff(l.cfg.RetryEvery),
	}
	for _, key := range keys {
		lk, err := l.client.Obtain(waitCtx, l.cfg.Prefix+key, l.cfg.TTL, opts)
		if err != nil {
			l.releaseAll(held)
			if errors.Is(err, redislock.ErrNotObtained) || errors.Is(err, context.DeadlineExceeded) {
				return nil, lockTimeout(key, err)
			}
			return nil, shared.NewPersistenceError("obtain lock "+key, err)
		}
		held = append(held, lk)
	}

	var once sync.Once
	return func() { once.Do(func() { l.releaseAll(held) }) }, nil
}

// releaseAll uses a fresh context so a cancelled request still frees its keys
func (l *RedisLocker) releaseAll(held []*redislock.Lock) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := len(held) - 1; i >= 0; i-- {
		if err := held[i].Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release lock",
				zap.String("key", held[i].Key()),
				zap.Error(err),
			)
		}
	}
}
