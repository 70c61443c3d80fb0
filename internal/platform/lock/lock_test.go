package lock

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInProcessAcquireRelease(t *testing.T) {
	ctx := context.Background()

	t.Run("free lock is acquired immediately", func(t *testing.T) {
		l := NewInProcess(0, time.Millisecond)
		token, ok, err := l.Acquire(ctx, "territory:a")
		require.NoError(t, err)
		require.True(t, ok)
		require.NotEmpty(t, token)

		require.NoError(t, l.Release(ctx, "territory:a", token))
	})

	t.Run("held lock fails after retries", func(t *testing.T) {
		l := NewInProcess(2, time.Millisecond)
		_, ok, err := l.Acquire(ctx, "territory:b")
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = l.Acquire(ctx, "territory:b")
		require.NoError(t, err)
		assert.False(t, ok)
	})

	t.Run("released lock can be reacquired", func(t *testing.T) {
		l := NewInProcess(0, time.Millisecond)
		token, ok, err := l.Acquire(ctx, "territory:c")
		require.NoError(t, err)
		require.True(t, ok)
		require.NoError(t, l.Release(ctx, "territory:c", token))

		_, ok, err = l.Acquire(ctx, "territory:c")
		require.NoError(t, err)
		assert.True(t, ok)
	})

	t.Run("stale token cannot release a reacquired lock", func(t *testing.T) {
		l := NewInProcess(0, time.Millisecond)
		stale, _, err := l.Acquire(ctx, "territory:d")
		require.NoError(t, err)
		require.NoError(t, l.Release(ctx, "territory:d", stale))

		current, ok, err := l.Acquire(ctx, "territory:d")
		require.NoError(t, err)
		require.True(t, ok)

		require.NoError(t, l.Release(ctx, "territory:d", stale))
		_, ok, err = l.Acquire(ctx, "territory:d")
		require.NoError(t, err)
		assert.False(t, ok, "stale release must not free the current holder")

		require.NoError(t, l.Release(ctx, "territory:d", current))
	})

	t.Run("independent keys do not contend", func(t *testing.T) {
		l := NewInProcess(0, time.Millisecond)
		_, ok, err := l.Acquire(ctx, "territory:e")
		require.NoError(t, err)
		require.True(t, ok)

		_, ok, err = l.Acquire(ctx, "territory:f")
		require.NoError(t, err)
		assert.True(t, ok)
	})
}

func TestInProcessMutualExclusion(t *testing.T) {
	ctx := context.Background()
	l := NewInProcess(100, time.Millisecond)

	var holders int
	var maxHolders int
	var mu sync.Mutex

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			token, ok, err := l.Acquire(ctx, "territory:shared")
			if !assert.NoError(t, err) || !ok {
				return
			}
			mu.Lock()
			holders++
			if holders > maxHolders {
				maxHolders = holders
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			holders--
			mu.Unlock()
			assert.NoError(t, l.Release(ctx, "territory:shared", token))
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxHolders)
}
