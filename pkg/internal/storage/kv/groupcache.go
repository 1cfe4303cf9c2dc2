package kv

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang/groupcache"

	"github.com/yeisme/classmedia/pkg/configs"
)

// GroupcacheKV 本地数据放在 map 中，其它节点通过 groupcache 的 peer 协议读取.
// groupcache 本身不支持删除，对端读到的值可能在本地删除后短暂存活.
type GroupcacheKV struct {
	group *groupcache.Group
	mu    sync.Mutex
	data  map[string][]byte // 值带 ttl 包装
}

var (
	poolOnce sync.Once
	pool     *groupcache.HTTPPool
)

// NewGroupcacheKV 创建 Groupcache KV，同名 group 在进程内复用.
func NewGroupcacheKV(_ context.Context, config any) (KVStore, error) {
	gcConfig, ok := config.(*configs.GroupcacheKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid Groupcache config")
	}

	kv := &GroupcacheKV{data: make(map[string][]byte)}

	getter := groupcache.GetterFunc(func(_ context.Context, key string, dest groupcache.Sink) error {
		kv.mu.Lock()
		val, ok := kv.liveLocked(key)
		kv.mu.Unlock()

		if !ok {
			return ErrNotFound
		}

		return dest.SetBytes(val)
	})

	if g := groupcache.GetGroup(gcConfig.Name); g != nil {
		return nil, fmt.Errorf("groupcache group %q already registered", gcConfig.Name)
	}

	kv.group = groupcache.NewGroup(gcConfig.Name, gcConfig.CacheBytes, getter)

	if len(gcConfig.Peers) > 0 {
		// HTTPPool 会注册到 http.DefaultServeMux，每个进程只能创建一次
		poolOnce.Do(func() {
			pool = groupcache.NewHTTPPoolOpts(gcConfig.Self, &groupcache.HTTPPoolOptions{})
		})
		pool.Set(gcConfig.Peers...)
	}

	return kv, nil
}

func (g *GroupcacheKV) liveLocked(key string) ([]byte, bool) {
	raw, ok := g.data[key]
	if !ok {
		return nil, false
	}

	val, expired, err := decodeWithTTL(raw, time.Now())
	if err != nil || expired {
		delete(g.data, key)

		return nil, false
	}

	return val, true
}

// Get 先读本地，本地没有时向所属 peer 取.
func (g *GroupcacheKV) Get(ctx context.Context, key string) ([]byte, error) {
	g.mu.Lock()
	val, ok := g.liveLocked(key)
	g.mu.Unlock()

	if ok {
		return append([]byte(nil), val...), nil
	}

	if pool == nil {
		return nil, ErrNotFound
	}

	var data []byte
	if err := g.group.Get(ctx, key, groupcache.AllocatingByteSliceSink(&data)); err != nil {
		return nil, ErrNotFound
	}

	return data, nil
}

// Set 设置键的值.
func (g *GroupcacheKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(append([]byte(nil), value...), ttl)
	if err != nil {
		return err
	}

	g.mu.Lock()
	g.data[key] = encoded
	g.mu.Unlock()

	return nil
}

// SetNX 仅当本地键不存在时写入.
func (g *GroupcacheKV) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	encoded, err := encodeWithTTL(append([]byte(nil), value...), ttl)
	if err != nil {
		return false, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.liveLocked(key); ok {
		return false, nil
	}

	g.data[key] = encoded

	return true, nil
}

// Delete 删除本地键.
func (g *GroupcacheKV) Delete(_ context.Context, key string) error {
	g.mu.Lock()
	delete(g.data, key)
	g.mu.Unlock()

	return nil
}

// Exists 检查本地键是否存在.
func (g *GroupcacheKV) Exists(_ context.Context, key string) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.liveLocked(key)

	return ok, nil
}

// Keys 列出本地前缀匹配的键.
func (g *GroupcacheKV) Keys(_ context.Context, prefix string) ([]string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	keys := make([]string, 0, len(g.data))

	for k := range g.data {
		if _, ok := g.liveLocked(k); ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close groupcache 没有关闭操作.
func (g *GroupcacheKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeGroupcache, NewGroupcacheKV)
}
