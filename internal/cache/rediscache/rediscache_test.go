package rediscache

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/require"
)

func TestRedisCache_SetAllGetMany(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	t.Cleanup(func() { _ = c.Close() })

	ctx := context.Background()
	require.NoError(t, c.SetAll(ctx, map[string][]byte{"a": []byte("1"), "b": []byte("2")}))

	got, err := c.GetMany(ctx, "a", "b", "missing")
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got["a"])
	require.Equal(t, []byte("2"), got["b"])
	_, ok := got["missing"]
	require.False(t, ok)

	// без TTL
	require.Equal(t, time.Duration(0), mr.TTL("a"))
	require.NoError(t, c.Ping(ctx))
}

func TestRedisCache_EmptyInputs(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())

	got, err := c.GetMany(context.Background())
	require.NoError(t, err)
	require.Empty(t, got)
	require.NoError(t, c.SetAll(context.Background(), nil))
}

func TestRedisCache_ServerDown(t *testing.T) {
	mr := miniredis.RunT(t)
	c := New(mr.Addr())
	mr.Close()

	_, err := c.GetMany(context.Background(), "a")
	require.Error(t, err)
	require.Error(t, c.SetAll(context.Background(), map[string][]byte{"a": nil}))
}

func TestRateLimiter_Allow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())

	ctx := context.Background()
	ok, n, err := rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.True(t, ok)
	require.Equal(t, int64(2), n)

	ok, n, _ = rl.Allow(ctx, "rl:test", 2, time.Minute)
	require.False(t, ok)
	require.Equal(t, int64(3), n)
}

func TestRateLimiter_FixedWindow(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())
	ctx := context.Background()

	_, _, err := rl.Allow(ctx, "rl:w", 1, time.Minute)
	require.NoError(t, err)
	mr.FastForward(40 * time.Second)

	// повторный запрос не продлевает окно
	_, _, err = rl.Allow(ctx, "rl:w", 1, time.Minute)
	require.NoError(t, err)
	require.Equal(t, 20*time.Second, mr.TTL("rl:w"))

	mr.FastForward(21 * time.Second)
	ok, n, err := rl.Allow(ctx, "rl:w", 1, time.Minute)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, int64(1), n)
}

func TestRateLimiter_InvalidArgs(t *testing.T) {
	mr := miniredis.RunT(t)
	rl := NewRateLimiter(mr.Addr())
	defer func() { _ = rl.Close() }()

	_, _, err := rl.Allow(context.Background(), "k", 0, time.Minute)
	require.Error(t, err)
	_, _, err = rl.Allow(context.Background(), "k", 1, 0)
	require.Error(t, err)
}
