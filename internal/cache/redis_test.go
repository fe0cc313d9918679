package cache

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestRedis creates a miniredis server and returns a RedisCache instance
func setupTestRedis(t *testing.T) (*RedisCache, *miniredis.Miniredis, func()) {
	mr := miniredis.RunT(t)

	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	cache := NewRedisCache(client, 24*time.Hour)

	cleanup := func() {
		client.Close()
		mr.Close()
	}

	return cache, mr, cleanup
}

func TestGet_Success(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	ref := CartRef{UserID: "user123", CartID: "cart-1", SavedAt: time.Now().UTC()}
	data, _ := json.Marshal(ref)
	require.NoError(t, mr.Set(cacheKey("user123"), string(data)))

	got, err := cache.Get(context.Background(), "user123")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", got.CartID)
	assert.Equal(t, "user123", got.UserID)
}

func TestGet_CacheMiss(t *testing.T) {
	cache, _, cleanup := setupTestRedis(t)
	defer cleanup()

	got, err := cache.Get(context.Background(), "nonexistent")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Nil(t, got)
}

func TestGet_InvalidJSON(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	require.NoError(t, mr.Set(cacheKey("user123"), `{"cart_id":`))

	_, err := cache.Get(context.Background(), "user123")
	require.ErrorContains(t, err, "unmarshal cart ref for user user123")
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestGet_RedisDown(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	mr.Close()

	_, err := cache.Get(context.Background(), "user123")
	require.ErrorContains(t, err, "redis get failed")
	assert.NotErrorIs(t, err, ErrCacheMiss)
}

func TestSet_StoresRefWithTTL(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()

	err := cache.Set(context.Background(), &CartRef{UserID: "user456", CartID: "cart-9"})
	require.NoError(t, err)

	stored, err := mr.Get(cacheKey("user456"))
	require.NoError(t, err)
	var ref CartRef
	require.NoError(t, json.Unmarshal([]byte(stored), &ref))
	assert.Equal(t, "cart-9", ref.CartID)
	assert.False(t, ref.SavedAt.IsZero())

	ttl := mr.TTL(cacheKey("user456"))
	assert.True(t, ttl >= 24*time.Hour, "TTL should be at least base TTL")
	assert.True(t, ttl <= 24*time.Hour+5*time.Minute, "TTL should be base + max jitter")
}

func TestDelete(t *testing.T) {
	cache, mr, cleanup := setupTestRedis(t)
	defer cleanup()
	ctx := context.Background()

	require.NoError(t, cache.Set(ctx, &CartRef{UserID: "user999", CartID: "c"}))
	assert.True(t, mr.Exists(cacheKey("user999")))

	require.NoError(t, cache.Delete(ctx, "user999"))
	assert.False(t, mr.Exists(cacheKey("user999")))

	// deleting a missing key is fine
	assert.NoError(t, cache.Delete(ctx, "nonexistent"))
}

func TestCacheKey_Format(t *testing.T) {
	assert.Equal(t, "storefront:cart:test123", cacheKey("test123"))
}

func TestMemoryCache(t *testing.T) {
	c := NewMemoryCache()
	ctx := context.Background()

	_, err := c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)

	require.NoError(t, c.Set(ctx, &CartRef{UserID: "u1", CartID: "cart-1"}))
	ref, err := c.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, "cart-1", ref.CartID)

	require.NoError(t, c.Delete(ctx, "u1"))
	_, err = c.Get(ctx, "u1")
	assert.ErrorIs(t, err, ErrCacheMiss)
}
