package cache_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/cache"
	"github.com/yeisme/classmedia/pkg/internal/storage/kv"
)

type fileInfo struct {
	ID    string `json:"id"`
	Title string `json:"title"`
	Size  int64  `json:"size"`
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()

	store, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	return cache.NewCache(store)
}

func TestSetGet(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	want := []fileInfo{{ID: "f1", Title: "Week 1", Size: 10}}
	require.NoError(t, cache.Set(ctx, c, "files:c1:m1", want, time.Minute))

	got, err := cache.Get[[]fileInfo](ctx, c, "files:c1:m1")
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = cache.Get[[]fileInfo](ctx, c, "files:c1:m2")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestGetOrSetCachesAndInvalidates(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	var calls atomic.Int32

	load := func() ([]fileInfo, error) {
		calls.Add(1)

		return []fileInfo{{ID: "f1"}}, nil
	}

	for i := 0; i < 3; i++ {
		got, err := cache.GetOrSet(ctx, c, "files:c1:m1", load, time.Minute)
		require.NoError(t, err)
		assert.Len(t, got, 1)
	}

	assert.Equal(t, int32(1), calls.Load())

	require.NoError(t, c.Delete(ctx, "files:c1:m1"))

	_, err := cache.GetOrSet(ctx, c, "files:c1:m1", load, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestGetOrSetZeroTTLBypasses(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	var calls int

	for i := 0; i < 2; i++ {
		_, err := cache.GetOrSet(ctx, c, "k", func() (int, error) {
			calls++

			return calls, nil
		}, 0)
		require.NoError(t, err)
	}

	assert.Equal(t, 2, calls)

	ok, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestGetOrSetErrorNotCached(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	boom := errors.New("db down")

	_, err := cache.GetOrSet(ctx, c, "k", func() (string, error) { return "", boom }, time.Minute)
	require.ErrorIs(t, err, boom)

	v, err := cache.GetOrSet(ctx, c, "k", func() (string, error) { return "ok", nil }, time.Minute)
	require.NoError(t, err)
	assert.Equal(t, "ok", v)
}

func TestGetOrSetCollapsesConcurrentMisses(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	var (
		calls atomic.Int32
		wg    sync.WaitGroup
	)

	release := make(chan struct{})

	for i := 0; i < 8; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_, _ = cache.GetOrSet(ctx, c, "hot", func() (int, error) {
				calls.Add(1)
				<-release

				return 1, nil
			}, time.Minute)
		}()
	}

	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.LessOrEqual(t, calls.Load(), int32(2))
}

func TestClearPrefix(t *testing.T) {
	ctx := context.Background()
	c := newCache(t)

	require.NoError(t, cache.Set(ctx, c, "files:c1:m1", 1, time.Minute))
	require.NoError(t, cache.Set(ctx, c, "files:c1:m2", 2, time.Minute))
	require.NoError(t, cache.Set(ctx, c, "files:c2:m1", 3, time.Minute))

	n, err := c.Clear(ctx, "files:c1:")
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	ok, _ := c.Exists(ctx, "files:c2:m1")
	assert.True(t, ok)
}
