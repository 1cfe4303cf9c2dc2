// Package cache 基于 KV 存储的泛型读穿缓存，值用 sonic 编码.
//
// 基本用法:
//
//	c := cache.NewCache(kvClient)
//
//	files, err := cache.GetOrSet(ctx, c, "files:c1:m1", func() ([]FileInfo, error) {
//		return loadFromDB(ctx)
//	}, 30*time.Second)
//
//	// 写路径提交后失效
//	_ = c.Delete(ctx, "files:c1:m1")
//
// 同一个键的并发未命中通过 singleflight 合并为一次回源.
// 缓存读写失败不影响结果，只会退化为直接回源.
package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"golang.org/x/sync/singleflight"

	"github.com/yeisme/classmedia/pkg/internal/storage/kv"
)

// Cache 基于 KV 存储的缓存.
type Cache struct {
	kvStore kv.KVStore
	group   singleflight.Group
}

// NewCache 创建缓存实例.
func NewCache(kvStore kv.KVStore) *Cache {
	return &Cache{kvStore: kvStore}
}

// Get 读取缓存值，未命中返回 kv.ErrNotFound.
func Get[T any](ctx context.Context, c *Cache, key string) (T, error) {
	var value T

	data, err := c.kvStore.Get(ctx, key)
	if err != nil {
		return value, err
	}

	if err := sonic.Unmarshal(data, &value); err != nil {
		return value, fmt.Errorf("failed to unmarshal cache value: %w", err)
	}

	return value, nil
}

// Set 写入缓存值.
func Set[T any](ctx context.Context, c *Cache, key string, value T, ttl time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal cache value: %w", err)
	}

	return c.kvStore.Set(ctx, key, data, ttl)
}

// Delete 删除缓存键.
func (c *Cache) Delete(ctx context.Context, key string) error {
	return c.kvStore.Delete(ctx, key)
}

// Exists 检查缓存键是否存在.
func (c *Cache) Exists(ctx context.Context, key string) (bool, error) {
	return c.kvStore.Exists(ctx, key)
}

// GetOrSet 读穿缓存，ttl<=0 时不缓存直接回源.
func GetOrSet[T any](ctx context.Context, c *Cache, key string, getter func() (T, error), ttl time.Duration) (T, error) {
	if c == nil || ttl <= 0 {
		return getter()
	}

	if value, err := Get[T](ctx, c, key); err == nil {
		return value, nil
	}

	v, err, _ := c.group.Do(key, func() (any, error) {
		value, err := getter()
		if err != nil {
			return value, err
		}

		// 写缓存失败只影响命中率
		_ = Set(ctx, c, key, value, ttl)

		return value, nil
	})
	if err != nil {
		var zero T

		return zero, err
	}

	value, ok := v.(T)
	if !ok {
		var zero T

		return zero, errors.New("cache: unexpected value type")
	}

	return value, nil
}

// Clear 删除以 prefix 开头的键.
func (c *Cache) Clear(ctx context.Context, prefix string) (int, error) {
	keys, err := c.kvStore.Keys(ctx, prefix)
	if err != nil {
		return 0, err
	}

	for i, key := range keys {
		if err := c.kvStore.Delete(ctx, key); err != nil {
			return i, err
		}
	}

	return len(keys), nil
}
