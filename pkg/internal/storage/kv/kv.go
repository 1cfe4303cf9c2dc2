// Package kv 提供键值存储接口与 memory/redis/nats/groupcache 实现.
// 服务层用它做预览任务占位（SetNX）与文件列表缓存.
package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yeisme/classmedia/pkg/configs"
)

// ErrNotFound 键不存在或已过期.
var ErrNotFound = errors.New("kv: key not found")

// KVStore 键值存储接口.
type KVStore interface {
	// Get 获取键的值，不存在时返回 ErrNotFound.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set 设置键的值，ttl<=0 表示不过期.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// SetNX 仅当键不存在时写入，返回是否写入成功.
	SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error)
	// Delete 删除键，键不存在不算错误.
	Delete(ctx context.Context, key string) error
	// Exists 检查键是否存在.
	Exists(ctx context.Context, key string) (bool, error)
	// Keys 列出以 prefix 开头的键，调试与命令行使用.
	Keys(ctx context.Context, prefix string) ([]string, error)
	// Close 关闭存储连接.
	Close() error
}

// KVType 键值存储类型.
type KVType string

const (
	KVTypeMemory     KVType = "memory"
	KVTypeRedis      KVType = "redis"
	KVTypeNATS       KVType = "nats"
	KVTypeGroupcache KVType = "groupcache"
)

// KVFactory 创建 KVStore，config 为对应类型的子配置指针.
type KVFactory func(ctx context.Context, config any) (KVStore, error)

var kvFactories = make(map[KVType]KVFactory)

// RegisterKVFactory 注册 KV 工厂.
func RegisterKVFactory(kvType KVType, factory KVFactory) {
	kvFactories[kvType] = factory
}

// GetRegisteredKVTypes 返回已注册的 KV 类型.
func GetRegisteredKVTypes() []KVType {
	types := make([]KVType, 0, len(kvFactories))
	for kvType := range kvFactories {
		types = append(types, kvType)
	}

	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })

	return types
}

// NewKVStore 根据类型创建 KVStore.
func NewKVStore(ctx context.Context, kvType KVType, config any) (KVStore, error) {
	factory, exists := kvFactories[kvType]
	if !exists {
		return nil, fmt.Errorf("unsupported KV type: %s", kvType)
	}

	return factory(ctx, config)
}

// Client 带键前缀的 KVStore.
type Client struct {
	KVStore
	prefix string
	kind   KVType
}

// NewKVClient 按配置创建 Client.
func NewKVClient(ctx context.Context, cfg *configs.KVConfig) (*Client, error) {
	kind := KVType(cfg.Type)
	if kind == "" {
		kind = KVTypeMemory
	}

	var sub any

	switch kind {
	case KVTypeRedis:
		sub = &cfg.Redis
	case KVTypeNATS:
		sub = &cfg.NATS
	case KVTypeGroupcache:
		sub = &cfg.Groupcache
	}

	store, err := NewKVStore(ctx, kind, sub)
	if err != nil {
		return nil, err
	}

	return &Client{KVStore: store, prefix: cfg.Prefix, kind: kind}, nil
}

// Wrap 用已有 store 构造 Client，测试使用.
func Wrap(store KVStore, prefix string) *Client {
	return &Client{KVStore: store, prefix: prefix, kind: KVTypeMemory}
}

// Type 返回存储类型.
func (c *Client) Type() KVType { return c.kind }

func (c *Client) key(k string) string { return c.prefix + k }

func (c *Client) Get(ctx context.Context, key string) ([]byte, error) {
	return c.KVStore.Get(ctx, c.key(key))
}

func (c *Client) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.KVStore.Set(ctx, c.key(key), value, ttl)
}

func (c *Client) SetNX(ctx context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	return c.KVStore.SetNX(ctx, c.key(key), value, ttl)
}

func (c *Client) Delete(ctx context.Context, key string) error {
	return c.KVStore.Delete(ctx, c.key(key))
}

func (c *Client) Exists(ctx context.Context, key string) (bool, error) {
	return c.KVStore.Exists(ctx, c.key(key))
}

// Keys 返回去掉前缀后的键.
func (c *Client) Keys(ctx context.Context, prefix string) ([]string, error) {
	keys, err := c.KVStore.Keys(ctx, c.key(prefix))
	if err != nil {
		return nil, err
	}

	for i, k := range keys {
		keys[i] = strings.TrimPrefix(k, c.prefix)
	}

	sort.Strings(keys)

	return keys, nil
}
