package redisstore

import (
	"context"
	"testing"
	"time"

	"farmisian/internal/cart"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T, ttl time.Duration) (*Store, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return New(client, "", ttl), mr
}

func TestLoad_Missing(t *testing.T) {
	store, _ := setupTestRedis(t, 0)

	_, err := store.Load(context.Background(), "nobody")
	assert.ErrorIs(t, err, cart.ErrNotFound)
}

func TestSaveAndLoad(t *testing.T) {
	store, mr := setupTestRedis(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", []byte(`{"version":1,"items":[]}`)))

	assert.True(t, mr.Exists("farmisian-cart:sid-1"))
	assert.Equal(t, time.Hour, mr.TTL("farmisian-cart:sid-1"))

	raw, err := store.Load(ctx, "sid-1")
	require.NoError(t, err)
	assert.JSONEq(t, `{"version":1,"items":[]}`, string(raw))
}

func TestDelete(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, "sid-1", []byte("x")))
	require.NoError(t, store.Delete(ctx, "sid-1"))
	assert.False(t, mr.Exists("farmisian-cart:sid-1"))
}

func TestEngineSurvivesRestartThroughRedis(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()

	engine := cart.New(ctx, "sid-7", store, nil)
	engine.AddItem(ctx, cart.ProductRef{ID: "1", Name: "Red Kotgarh Apples", Price: decimal.NewFromInt(425)}, 2)
	engine.AddItem(ctx, cart.ProductRef{ID: "3", Name: "Baby Spinach", Price: decimal.NewFromInt(340)}, 1)

	restored := cart.New(ctx, "sid-7", store, nil)
	state := restored.Snapshot()
	require.Len(t, state.Items, 2)
	assert.Equal(t, "1", state.Items[0].Product.ID)
	assert.Equal(t, 2, state.Items[0].Quantity)
	assert.Equal(t, 3, restored.TotalItems())
	assert.True(t, restored.TotalPrice().Equal(decimal.NewFromInt(1190)))
}

func TestEngineKeepsStateWhenRedisIsDown(t *testing.T) {
	store, mr := setupTestRedis(t, 0)
	ctx := context.Background()
	engine := cart.New(ctx, "sid-9", store, nil)

	mr.Close()
	engine.AddItem(ctx, cart.ProductRef{ID: "1", Price: decimal.NewFromInt(10)}, 1)

	assert.Equal(t, 1, engine.TotalItems())
}

func TestClearPersistsAfterCallerCancels(t *testing.T) {
	store, _ := setupTestRedis(t, 0)
	ctx := context.Background()
	engine := cart.New(ctx, "sid-11", store, nil)
	engine.AddItem(ctx, cart.ProductRef{ID: "1", Price: decimal.NewFromInt(425)}, 1)
	engine.AddItem(ctx, cart.ProductRef{ID: "3", Price: decimal.NewFromInt(340)}, 1)

	gone, cancel := context.WithCancel(ctx)
	cancel()
	engine.Clear(gone)

	assert.Equal(t, 0, engine.TotalItems())
	assert.Empty(t, cart.New(ctx, "sid-11", store, nil).Snapshot().Items)
}
