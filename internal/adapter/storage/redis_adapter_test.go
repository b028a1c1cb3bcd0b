package storage

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/till-simulator/internal/core/domain"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *RedisAdapter) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, NewRedisAdapter(client)
}

func TestSaveStock_RoundTrip(t *testing.T) {
	_, adapter := newTestRedis(t)
	ctx := context.Background()
	stock := domain.Stock{50: 5, 20: 4, 1: 0}

	require.NoError(t, adapter.SaveStock(ctx, "run-1", stock))

	got, err := adapter.GetStock(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, stock, got)
}

func TestSaveStock_ReplacesPreviousSnapshot(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveStock(ctx, "run-1", domain.Stock{50: 5, 20: 5}))
	require.NoError(t, adapter.SaveStock(ctx, "run-1", domain.Stock{10: 2}))

	got, err := adapter.GetStock(ctx, "run-1")
	require.NoError(t, err)
	assert.Equal(t, domain.Stock{10: 2}, got)
	assert.Equal(t, snapshotTTL, mr.TTL(stockKeyPrefix+"run-1"))
}

func TestSaveStock_EmptyClearsSnapshot(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	require.NoError(t, adapter.SaveStock(ctx, "run-1", domain.Stock{10: 2}))
	require.NoError(t, adapter.SaveStock(ctx, "run-1", domain.Stock{}))

	assert.False(t, mr.Exists(stockKeyPrefix+"run-1"))
	got, err := adapter.GetStock(ctx, "run-1")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetStock_CorruptSnapshot(t *testing.T) {
	mr, adapter := newTestRedis(t)
	mr.HSet(stockKeyPrefix+"run-1", "fifty", "5")

	_, err := adapter.GetStock(context.Background(), "run-1")
	assert.Error(t, err)
}

func TestSetIdempotency(t *testing.T) {
	mr, adapter := newTestRedis(t)
	ctx := context.Background()

	ok, err := adapter.SetIdempotency(ctx, "simulate:req-1")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = adapter.SetIdempotency(ctx, "simulate:req-1")
	require.NoError(t, err)
	assert.False(t, ok)

	mr.FastForward(idempotencyKeyTTL + time.Second)

	ok, err = adapter.SetIdempotency(ctx, "simulate:req-1")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisAdapter_ServerDown(t *testing.T) {
	mr, adapter := newTestRedis(t)
	mr.Close()

	_, err := adapter.SetIdempotency(context.Background(), "k")
	assert.Error(t, err)
}
