package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akramfarmonov5-glitch/Luxe-core.uz-sub000/internal/config"
)

type promoEntry struct {
	Code    string `json:"code"`
	Percent int    `json:"percent"`
}

func setupTestRedis(t *testing.T) (*Redis, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewWithClient(client, "test:", zerolog.Nop()), mr
}

func TestSetJSON_GetJSON(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()

	require.NoError(t, c.SetJSON(ctx, "promo:LUXE2026", promoEntry{Code: "LUXE2026", Percent: 10}, 5*time.Minute))
	assert.True(t, mr.Exists("test:promo:LUXE2026"))
	assert.Equal(t, 5*time.Minute, mr.TTL("test:promo:LUXE2026"))

	var got promoEntry
	ok, err := c.GetJSON(ctx, "promo:LUXE2026", &got)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, promoEntry{Code: "LUXE2026", Percent: 10}, got)
}

func TestGetJSON_Miss(t *testing.T) {
	c, _ := setupTestRedis(t)
	var got promoEntry
	ok, err := c.GetJSON(context.Background(), "absent", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetJSON_CorruptEntryIsDropped(t *testing.T) {
	c, mr := setupTestRedis(t)
	require.NoError(t, mr.Set("test:bad", "{not json"))

	var got promoEntry
	ok, err := c.GetJSON(context.Background(), "bad", &got)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("test:bad"))
}

func TestExpiry(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.SetJSON(ctx, "k", promoEntry{Code: "X"}, time.Minute))
	mr.FastForward(2 * time.Minute)

	var got promoEntry
	ok, err := c.GetJSON(ctx, "k", &got)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDelete_AndPing(t *testing.T) {
	c, mr := setupTestRedis(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))
	require.NoError(t, c.SetJSON(ctx, "k", 1, 0))
	require.NoError(t, c.Delete(ctx, "k"))
	assert.False(t, mr.Exists("test:k"))
	assert.NoError(t, c.Delete(ctx, "never-set"))
}

func TestNew_FromConfig(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(config.RedisConfig{Addr: mr.Addr()}, "", zerolog.Nop())
	defer c.Close()
	require.NoError(t, c.Ping(context.Background()))
	assert.NotNil(t, c.Client())
}
