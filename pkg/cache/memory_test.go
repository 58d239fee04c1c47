package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

func newTestMemory(t *testing.T, size int) (*MemoryCache, *fakeClock) {
	t.Helper()
	clk := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	mc := NewMemoryCache(WithMemoryMaxSize(size), WithMemoryCleanup(0), WithMemoryClock(clk.Now))
	t.Cleanup(func() { _ = mc.Close() })
	return mc, clk
}

func TestMemoryCacheSetGet(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, 4)

	_, err := mc.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrCacheMiss)

	src := []byte("payload")
	require.NoError(t, mc.Set(ctx, "k", src, time.Minute))
	src[0] = 'X'

	got, err := mc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	ok, _ := mc.Exists(ctx, "k")
	assert.True(t, ok)
}

func TestMemoryCacheExpiry(t *testing.T) {
	ctx := context.Background()
	mc, clk := newTestMemory(t, 4)

	require.NoError(t, mc.Set(ctx, "k", []byte("v"), time.Minute))
	clk.Advance(59 * time.Second)
	_, err := mc.Get(ctx, "k")
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	_, err = mc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	assert.Equal(t, 0, mc.Len())
}

func TestMemoryCacheEvictsLeastRecentlyUsed(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, 2)

	require.NoError(t, mc.Set(ctx, "a", []byte("1"), 0))
	require.NoError(t, mc.Set(ctx, "b", []byte("2"), 0))
	_, err := mc.Get(ctx, "a")
	require.NoError(t, err)
	require.NoError(t, mc.Set(ctx, "c", []byte("3"), 0))

	_, err = mc.Get(ctx, "b")
	assert.ErrorIs(t, err, ErrCacheMiss)
	_, err = mc.Get(ctx, "a")
	assert.NoError(t, err)
	assert.Equal(t, 2, mc.Len())
}

func TestMemoryCacheDeleteByPrefix(t *testing.T) {
	ctx := context.Background()
	mc, _ := newTestMemory(t, 8)

	for _, k := range []string{"edb:a", "edb:b", "other"} {
		require.NoError(t, mc.Set(ctx, k, []byte(k), 0))
	}
	require.NoError(t, mc.DeleteByPrefix(ctx, "edb:"))
	assert.Equal(t, 1, mc.Len())

	require.NoError(t, mc.Delete(ctx, "other", "nope"))
	assert.Equal(t, 0, mc.Len())
}

func TestLayeredCachePromotesFromRemote(t *testing.T) {
	ctx := context.Background()
	remote, _ := newTestMemory(t, 8)
	lc := NewLayeredCache(remote, WithLayeredMemorySize(2))

	require.NoError(t, remote.Set(ctx, "k", []byte("v"), time.Hour))
	got, err := lc.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, remote.Delete(ctx, "k"))
	got, err = lc.Get(ctx, "k")
	require.NoError(t, err, "served from L1")
	assert.Equal(t, []byte("v"), got)

	require.NoError(t, lc.Delete(ctx, "k"))
	_, err = lc.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrCacheMiss)
	require.NoError(t, lc.Close())
}

func TestCanonicalParams(t *testing.T) {
	a := CanonicalParams(map[string]string{"start": "s", "end": "e", "mnemonic": "m"})
	b := CanonicalParams(map[string]string{"mnemonic": "m", "end": "e", "start": "s"})
	assert.Equal(t, "end=e&mnemonic=m&start=s", a)
	assert.Equal(t, a, b)
	assert.Equal(t, "", CanonicalParams(nil))
	assert.Len(t, HashKey(a), 64)
}
