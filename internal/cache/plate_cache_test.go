package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/VladTomici14/Team1-Magna-Lab/internal/domain"
)

func newTestCache(t *testing.T) (*RedisPlateCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	c := NewRedisPlateCache(redis.NewClient(&redis.Options{Addr: mr.Addr()}), time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	return c, mr
}

func TestPlateKey(t *testing.T) {
	assert.Equal(t, "plate:B767NTT", plateKey("B767NTT"))
	assert.Equal(t, "plate-gen:B767NTT", generationKey("B767NTT"))
}

func TestNoopAlwaysMisses(t *testing.T) {
	var c PlateCache = Noop{}
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Vehicle{PlateNumber: "CJ01ABC"}, 0))
	v, ok, err := c.Get(ctx, "CJ01ABC")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Nil(t, v)
	assert.NoError(t, c.Invalidate(ctx, "CJ01ABC"))
}

func TestRedisSetSkipsEmptyPlate(t *testing.T) {
	// no server behind this client; Set must return before touching it
	c := NewRedisPlateCache(redis.NewClient(&redis.Options{Addr: "127.0.0.1:1"}), time.Minute)
	defer c.Close()

	assert.NoError(t, c.Set(context.Background(), nil, 0))
	assert.NoError(t, c.Set(context.Background(), &domain.Vehicle{}, 0))
}

func TestRedisGetUnreachable(t *testing.T) {
	c := NewRedisPlateCache(redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	}), time.Minute)
	defer c.Close()

	_, ok, err := c.Get(context.Background(), "B767NTT")
	assert.Error(t, err)
	assert.False(t, ok)
}

func TestRedisRoundTrip(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	gen, err := c.Generation(ctx, "B767NTT")
	require.NoError(t, err)
	assert.Equal(t, int64(0), gen)

	require.NoError(t, c.Set(ctx, &domain.Vehicle{ID: 3, PlateNumber: "B767NTT", IsAuthorized: true}, gen))
	assert.Equal(t, time.Minute, mr.TTL("plate:B767NTT"))

	v, ok, err := c.Get(ctx, "B767NTT")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 3, v.ID)
	assert.True(t, v.IsAuthorized)
}

func TestRedisSetAfterInvalidateIsStale(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	// a reader loads the vehicle while a revoke lands in between
	gen, err := c.Generation(ctx, "B767NTT")
	require.NoError(t, err)
	require.NoError(t, c.Invalidate(ctx, "B767NTT"))

	err = c.Set(ctx, &domain.Vehicle{PlateNumber: "B767NTT", IsAuthorized: true}, gen)
	assert.ErrorIs(t, err, ErrStaleEntry)
	assert.False(t, mr.Exists("plate:B767NTT"))

	// a reader that starts after the revoke may fill the cache again
	gen, err = c.Generation(ctx, "B767NTT")
	require.NoError(t, err)
	assert.Equal(t, int64(1), gen)
	require.NoError(t, c.Set(ctx, &domain.Vehicle{PlateNumber: "B767NTT"}, gen))
	assert.True(t, mr.Exists("plate:B767NTT"))
}

func TestRedisInvalidateDropsEntry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, &domain.Vehicle{PlateNumber: "CJ01ABC"}, 0))
	require.NoError(t, c.Invalidate(ctx, "CJ01ABC"))

	_, ok, err := c.Get(ctx, "CJ01ABC")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, generationTTL, mr.TTL("plate-gen:CJ01ABC"))
}

func TestRedisCorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("plate:B767NTT", "{not json"))

	_, ok, err := c.Get(context.Background(), "B767NTT")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.False(t, mr.Exists("plate:B767NTT"))
}
