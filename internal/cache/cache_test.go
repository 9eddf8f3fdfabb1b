package cache_test

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/cache"
)

func TestMemoryCacheTTL(t *testing.T) {
	c := cache.NewMemoryCache(0)
	require.NoError(t, c.Set("k", 42))

	v, ok, err := c.Get("k", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 42, v)

	_, ok, err = c.Get("missing", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMemoryCacheLRUEviction(t *testing.T) {
	c := cache.NewMemoryCache(2)
	require.NoError(t, c.Set("a", 1))
	require.NoError(t, c.Set("b", 2))
	require.NoError(t, c.Set("c", 3)) // evicts "a"

	_, ok, _ := c.Get("a", time.Hour)
	assert.False(t, ok)
	_, ok, _ = c.Get("b", time.Hour)
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}

func TestFilesystemCacheAtomicRoundTrip(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result-cache")
	c, err := cache.NewFilesystemCache(dir)
	require.NoError(t, err)

	require.NoError(t, c.Set("key", 7))
	v, ok, err := c.Get("key", time.Hour)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, 7, v)
}

func TestFilesystemCacheToleratesMissing(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "result-cache")
	c, err := cache.NewFilesystemCache(dir)
	require.NoError(t, err)

	_, ok, err := c.Get("absent", time.Hour)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestSingleFlightGroupDedup(t *testing.T) {
	g := cache.NewGroup()
	var calls int64
	var wg sync.WaitGroup
	results := make([]any, 10)

	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, _, _ := g.Do("shared-key", func() (any, error) {
				atomic.AddInt64(&calls, 1)
				time.Sleep(10 * time.Millisecond)
				return "computed", nil
			})
			results[i] = v
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int64(1), atomic.LoadInt64(&calls))
	for _, r := range results {
		assert.Equal(t, "computed", r)
	}
}
