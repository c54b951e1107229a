package cache_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/strandkit/strand/pkg/cache"
)

func TestMemoryCache(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("set and get", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		t.Cleanup(func() { _ = c.Close() })

		require.NoError(t, c.Set(ctx, "k", "v", time.Minute))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "v", v)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		t.Cleanup(func() { _ = c.Close() })

		_, err := c.Get(ctx, "absent")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("expired entry is invisible", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		t.Cleanup(func() { _ = c.Close() })

		require.NoError(t, c.Set(ctx, "k", "v", time.Nanosecond))
		time.Sleep(5 * time.Millisecond)

		_, err := c.Get(ctx, "k")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[int](0)
		t.Cleanup(func() { _ = c.Close() })

		require.NoError(t, c.Set(ctx, "k", 1, 0))

		v, err := c.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, 1, v)
	})

	t.Run("closed cache rejects writes", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		require.NoError(t, c.Close())
		require.NoError(t, c.Close(), "close is idempotent")

		assert.ErrorIs(t, c.Set(ctx, "k", "v", 0), cache.ErrClosed)
		assert.ErrorIs(t, c.Delete(ctx, "k"), cache.ErrClosed)
	})
}

func TestMemoryCounter(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("monotonic within a window", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemoryCounter()
		for want := int64(1); want <= 5; want++ {
			n, err := c.Increment(ctx, "client", time.Minute)
			require.NoError(t, err)
			assert.Equal(t, want, n)
		}
	})

	t.Run("separate keys count separately", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemoryCounter()
		_, err := c.Increment(ctx, "a", time.Minute)
		require.NoError(t, err)

		n, err := c.Increment(ctx, "b", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("elapsed window resets", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemoryCounter()
		_, err := c.Increment(ctx, "client", time.Nanosecond)
		require.NoError(t, err)

		time.Sleep(5 * time.Millisecond)

		n, err := c.Increment(ctx, "client", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
	})

	t.Run("concurrent increments never lose a count", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemoryCounter()

		const goroutines = 50
		var wg sync.WaitGroup
		wg.Add(goroutines)
		for i := 0; i < goroutines; i++ {
			go func() {
				defer wg.Done()
				_, err := c.Increment(ctx, "client", time.Minute)
				assert.NoError(t, err)
			}()
		}
		wg.Wait()

		n, err := c.Increment(ctx, "client", time.Minute)
		require.NoError(t, err)
		assert.Equal(t, int64(goroutines+1), n)
	})
}

func TestGetOrSet(t *testing.T) {
	t.Parallel()

	ctx := context.Background()

	t.Run("computes on miss and caches", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		t.Cleanup(func() { _ = c.Close() })

		calls := 0
		fn := func(context.Context) (string, time.Duration, error) {
			calls++
			return "computed", time.Minute, nil
		}

		v, err := cache.GetOrSet(ctx, c, "key-a", fn)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)

		v, err = cache.GetOrSet(ctx, c, "key-a", fn)
		require.NoError(t, err)
		assert.Equal(t, "computed", v)
		assert.Equal(t, 1, calls)
	})

	t.Run("error is not cached", func(t *testing.T) {
		t.Parallel()

		c := cache.NewMemory[string](0)
		t.Cleanup(func() { _ = c.Close() })

		boom := errors.New("boom")
		_, err := cache.GetOrSet(ctx, c, "key-b", func(context.Context) (string, time.Duration, error) {
			return "", 0, boom
		})
		assert.ErrorIs(t, err, boom)

		_, err = c.Get(ctx, "key-b")
		assert.ErrorIs(t, err, cache.ErrNotFound)
	})
}
