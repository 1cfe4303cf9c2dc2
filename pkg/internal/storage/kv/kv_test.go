package kv_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/storage/kv"
)

type storeCase struct {
	name string
	make func(t testing.TB) kv.KVStore
	// expire 让已写入的 ttl 键过期
	expire func(d time.Duration)
}

func stores() []storeCase {
	var mr *miniredis.Miniredis

	return []storeCase{
		{
			name: "memory",
			make: func(t testing.TB) kv.KVStore {
				s, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
				require.NoError(t, err)

				return s
			},
			expire: time.Sleep,
		},
		{
			name: "groupcache",
			make: func(t testing.TB) kv.KVStore {
				cfg := &configs.GroupcacheKVConfig{
					Name:       fmt.Sprintf("test-%s-%d", t.Name(), time.Now().UnixNano()),
					CacheBytes: 1 << 20,
					Self:       "http://127.0.0.1:0",
				}
				s, err := kv.NewKVStore(context.Background(), kv.KVTypeGroupcache, cfg)
				require.NoError(t, err)

				return s
			},
			expire: time.Sleep,
		},
		{
			name: "redis",
			make: func(t testing.TB) kv.KVStore {
				mr = miniredis.RunT(t)
				s, err := kv.NewKVStore(context.Background(), kv.KVTypeRedis, &configs.RedisKVConfig{Addr: mr.Addr()})
				require.NoError(t, err)

				return s
			},
			expire: func(d time.Duration) { mr.FastForward(d) },
		},
	}
}

func TestStoreContract(t *testing.T) {
	ctx := context.Background()

	for _, sc := range stores() {
		t.Run(sc.name, func(t *testing.T) {
			s := sc.make(t)
			t.Cleanup(func() { _ = s.Close() })

			_, err := s.Get(ctx, "missing")
			require.ErrorIs(t, err, kv.ErrNotFound)

			require.NoError(t, s.Set(ctx, "list:c1", []byte("v1"), 0))
			got, err := s.Get(ctx, "list:c1")
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), got)

			ok, err := s.Exists(ctx, "list:c1")
			require.NoError(t, err)
			assert.True(t, ok)

			keys, err := s.Keys(ctx, "list:")
			require.NoError(t, err)
			assert.Equal(t, []string{"list:c1"}, keys)

			require.NoError(t, s.Delete(ctx, "list:c1"))
			require.NoError(t, s.Delete(ctx, "list:c1"))

			ok, err = s.Exists(ctx, "list:c1")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestStoreSetNXAndTTL(t *testing.T) {
	ctx := context.Background()

	for _, sc := range stores() {
		t.Run(sc.name, func(t *testing.T) {
			s := sc.make(t)
			t.Cleanup(func() { _ = s.Close() })

			ok, err := s.SetNX(ctx, "claim:f1", []byte("w1"), 50*time.Millisecond)
			require.NoError(t, err)
			assert.True(t, ok)

			ok, err = s.SetNX(ctx, "claim:f1", []byte("w2"), 50*time.Millisecond)
			require.NoError(t, err)
			assert.False(t, ok, "second claim must lose")

			sc.expire(80 * time.Millisecond)

			_, err = s.Get(ctx, "claim:f1")
			require.ErrorIs(t, err, kv.ErrNotFound)

			ok, err = s.SetNX(ctx, "claim:f1", []byte("w3"), time.Second)
			require.NoError(t, err)
			assert.True(t, ok, "expired claim can be taken again")
		})
	}
}

func TestMemorySetNXConcurrent(t *testing.T) {
	s, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(t, err)

	var (
		wins atomic.Int32
		wg   sync.WaitGroup
	)

	for i := 0; i < 32; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			if ok, _ := s.SetNX(context.Background(), "claim:x", []byte("w"), time.Minute); ok {
				wins.Add(1)
			}
		}()
	}

	wg.Wait()
	assert.Equal(t, int32(1), wins.Load())
}

func TestClientPrefix(t *testing.T) {
	ctx := context.Background()
	mr := miniredis.RunT(t)

	store := kv.NewRedisKVFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	c := kv.Wrap(store, "classmedia:")

	require.NoError(t, c.Set(ctx, "files:c1:m1", []byte("[]"), time.Minute))
	assert.True(t, mr.Exists("classmedia:files:c1:m1"))

	keys, err := c.Keys(ctx, "files:")
	require.NoError(t, err)
	assert.Equal(t, []string{"files:c1:m1"}, keys)

	mr.FastForward(2 * time.Minute)

	_, err = c.Get(ctx, "files:c1:m1")
	assert.ErrorIs(t, err, kv.ErrNotFound)
}

func TestNewKVClientDefaultsToMemory(t *testing.T) {
	cfg := configs.Defaults().KV
	c, err := kv.NewKVClient(context.Background(), &cfg)
	require.NoError(t, err)
	assert.Equal(t, kv.KVTypeMemory, c.Type())
}

func BenchmarkMemoryKV(b *testing.B) {
	s, err := kv.NewKVStore(context.Background(), kv.KVTypeMemory, nil)
	require.NoError(b, err)

	ctx := context.Background()
	payload := make([]byte, 1024)

	b.ReportAllocs()

	for i := 0; b.Loop(); i++ {
		key := fmt.Sprintf("bench-%d", i)
		if err := s.Set(ctx, key, payload, time.Minute); err != nil {
			b.Fatal(err)
		}

		if _, err := s.Get(ctx, key); err != nil {
			b.Fatal(err)
		}
	}
}
