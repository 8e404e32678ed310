//go:build integration

package cache

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap/zaptest"
)

func startRedis(t *testing.T) config.RedisConfig {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = testcontainers.TerminateContainer(container) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)
	p, err := strconv.Atoi(port.Port())
	require.NoError(t, err)

	return config.RedisConfig{Enabled: true, Host: host, Port: p}
}

func TestRedisIdempotencyStore_ClaimAndForget(t *testing.T) {
	cfg := startRedis(t)
	ctx := context.Background()

	store, err := OpenIdempotencyStore(ctx, cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	defer store.Close()

	ok, err := store.MarkProcessed(ctx, "convert:q1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.MarkProcessed(ctx, "convert:q1:k1", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "second claim must lose")

	processed, err := store.IsProcessed(ctx, "convert:q1:k1")
	require.NoError(t, err)
	assert.True(t, processed)

	require.NoError(t, store.Forget(ctx, "convert:q1:k1"))
	ok, err = store.MarkProcessed(ctx, "convert:q1:k1", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisIdempotencyStore_ClaimExpires(t *testing.T) {
	cfg := startRedis(t)
	ctx := context.Background()

	client, err := NewRedisClient(ctx, cfg)
	require.NoError(t, err)
	defer client.Close()
	store := NewRedisIdempotencyStore(client, "test:")

	ok, err := store.MarkProcessed(ctx, "k", 100*time.Millisecond)
	require.NoError(t, err)
	require.True(t, ok)

	assert.Eventually(t, func() bool {
		processed, err := store.IsProcessed(ctx, "k")
		return err == nil && !processed
	}, 3*time.Second, 50*time.Millisecond)
}
