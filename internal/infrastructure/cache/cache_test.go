package cache

import (
	"context"
	"testing"
	"time"

	"github.com/erp/ordertocash/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestInMemoryIdempotencyStore(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryIdempotencyStore(time.Hour)
	defer s.Close()

	now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return now }

	ok, err := s.MarkProcessed(ctx, "convert:Q1:key", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.MarkProcessed(ctx, "convert:Q1:key", time.Minute)
	require.NoError(t, err)
	assert.False(t, ok, "live claim blocks a second claim")

	held, _ := s.IsProcessed(ctx, "convert:Q1:key")
	assert.True(t, held)

	now = now.Add(2 * time.Minute)
	held, _ = s.IsProcessed(ctx, "convert:Q1:key")
	assert.False(t, held, "claim expired")
	ok, _ = s.MarkProcessed(ctx, "convert:Q1:key", time.Minute)
	assert.True(t, ok, "expired claim can be taken again")

	require.NoError(t, s.Forget(ctx, "convert:Q1:key"))
	ok, _ = s.MarkProcessed(ctx, "convert:Q1:key", time.Minute)
	assert.True(t, ok, "forgotten claim can be taken again")
}

func TestInMemoryIdempotencyStore_Sweep(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryIdempotencyStore(time.Hour)
	now := time.Now()
	s.now = func() time.Time { return now }

	_, _ = s.MarkProcessed(ctx, "a", time.Second)
	_, _ = s.MarkProcessed(ctx, "b", time.Hour)
	now = now.Add(time.Minute)
	s.sweep()

	assert.Equal(t, 1, s.Size())
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}

func TestOpenIdempotencyStore_Disabled(t *testing.T) {
	store, err := OpenIdempotencyStore(context.Background(), config.RedisConfig{Enabled: false}, zap.NewNop())
	require.NoError(t, err)
	defer store.Close()

	_, ok := store.(*InMemoryIdempotencyStore)
	assert.True(t, ok)
}
