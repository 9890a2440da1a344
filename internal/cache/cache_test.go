package cache

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/webstepper/smart-cycle-discounts-sub018/pkg/errors"
)

func newTestCache(t *testing.T) (*Cache, *redis.Client) {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })

	cfg := DefaultConfig()
	cfg.PollInterval = time.Millisecond
	cfg.PollRetries = 20

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(client, cfg, logger), client
}

func TestCacheRemember_GeneratesOnceThenHits(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	calls := 0
	gen := func(context.Context) (any, error) {
		calls++
		return []string{"p1", "p2"}, nil
	}

	var got []string
	require.NoError(t, c.Remember(ctx, GroupProducts, "selection:c1", &got, gen))
	assert.Equal(t, []string{"p1", "p2"}, got)
	assert.Equal(t, 1, calls)

	got = nil
	require.NoError(t, c.Remember(ctx, GroupProducts, "selection:c1", &got, gen))
	assert.Equal(t, []string{"p1", "p2"}, got)
	assert.Equal(t, 1, calls, "second read must be served from cache")
}

func TestCacheRemember_GeneratorErrorSurfaced(t *testing.T) {
	c, _ := newTestCache(t)

	boom := errors.New("catalog unreachable")
	var got []string
	err := c.Remember(context.Background(), GroupProducts, "selection:c1", &got, func(context.Context) (any, error) {
		return nil, boom
	})
	assert.ErrorIs(t, err, boom)

	// The failure must not have cached anything.
	hit, err := c.Get(context.Background(), GroupProducts, "selection:c1", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheInvalidate_OrphansGroupEntries(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, c.Set(ctx, GroupProducts, "k", "stale"))
	require.NoError(t, c.Set(ctx, GroupAnalytics, "k", "kept"))

	require.NoError(t, c.Invalidate(ctx, GroupProducts))

	var v string
	hit, err := c.Get(ctx, GroupProducts, "k", &v)
	require.NoError(t, err)
	assert.False(t, hit, "invalidated group must miss")

	hit, err = c.Get(ctx, GroupAnalytics, "k", &v)
	require.NoError(t, err)
	assert.True(t, hit, "other groups keep their entries")
	assert.Equal(t, "kept", v)
}

func TestCacheInvalidateAll(t *testing.T) {
	c, _ := newTestCache(t)
	ctx := context.Background()

	for _, g := range Groups() {
		require.NoError(t, c.Set(ctx, g, "k", "v"))
	}
	require.NoError(t, c.InvalidateAll(ctx))

	var v string
	for _, g := range Groups() {
		hit, err := c.Get(ctx, g, "k", &v)
		require.NoError(t, err)
		assert.False(t, hit, "group %s survived InvalidateAll", g)
	}
}

func TestCacheRemember_PollsForLockHolder(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()

	// Occupy the lock as if another process were generating, then deliver
	// the value while the second caller polls.
	lockKey := "scd:v1:products:0:selection:c1:lock"
	require.NoError(t, client.SetNX(ctx, lockKey, "1", time.Minute).Err())

	go func() {
		time.Sleep(5 * time.Millisecond)
		_ = c.Set(ctx, GroupProducts, "selection:c1", []string{"p9"})
	}()

	var got []string
	err := c.Remember(ctx, GroupProducts, "selection:c1", &got, func(context.Context) (any, error) {
		t.Error("generator must not run while the lock holder delivers")
		return nil, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"p9"}, got)
}

func TestCacheRemember_FallsThroughWhenLockHolderStalls(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()

	lockKey := "scd:v1:products:0:selection:c1:lock"
	require.NoError(t, client.SetNX(ctx, lockKey, "1", time.Minute).Err())

	var got []string
	err := c.Remember(ctx, GroupProducts, "selection:c1", &got, func(context.Context) (any, error) {
		return []string{"local"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"local"}, got)
}

func TestCacheGet_CorruptEntryIsMiss(t *testing.T) {
	c, client := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, client.Set(ctx, "scd:v1:products:0:bad", "{not json", 0).Err())

	var got []string
	hit, err := c.Get(ctx, GroupProducts, "bad", &got)
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestCacheConfigDefaults(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, 30*time.Second, cfg.LockTTL)
	assert.Equal(t, 100*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, 10, cfg.PollRetries)

	err := apperrors.Unavailable("cache", errors.New("down"))
	assert.ErrorIs(t, err, apperrors.ErrUnavailable)
}
