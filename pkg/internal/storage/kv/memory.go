package kv

import (
	"context"
	"strings"
	"sync"
	"time"
)

type memEntry struct {
	val    []byte
	expire time.Time // 零值表示不过期
}

func (e memEntry) expired(now time.Time) bool {
	return !e.expire.IsZero() && !now.Before(e.expire)
}

// MemoryKV 进程内 KV，单节点部署的默认实现.
type MemoryKV struct {
	mu   sync.Mutex
	data map[string]memEntry
	now  func() time.Time
}

// NewMemoryKV 创建内存 KV.
func NewMemoryKV(_ context.Context, _ any) (KVStore, error) {
	return &MemoryKV{data: make(map[string]memEntry), now: time.Now}, nil
}

// lookup 调用方需持有锁，过期的键顺便删除.
func (m *MemoryKV) lookup(key string) (memEntry, bool) {
	e, ok := m.data[key]
	if !ok {
		return memEntry{}, false
	}

	if e.expired(m.now()) {
		delete(m.data, key)

		return memEntry{}, false
	}

	return e, true
}

func (m *MemoryKV) entry(value []byte, ttl time.Duration) memEntry {
	e := memEntry{val: append([]byte(nil), value...)}
	if ttl > 0 {
		e.expire = m.now().Add(ttl)
	}

	return e
}

// Get 获取键的值.
func (m *MemoryKV) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.lookup(key)
	if !ok {
		return nil, ErrNotFound
	}

	return append([]byte(nil), e.val...), nil
}

// Set 设置键的值.
func (m *MemoryKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	m.data[key] = m.entry(value, ttl)
	m.mu.Unlock()

	return nil
}

// SetNX 仅当键不存在时写入.
func (m *MemoryKV) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.lookup(key); ok {
		return false, nil
	}

	m.data[key] = m.entry(value, ttl)

	return true, nil
}

// Delete 删除键.
func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.data, key)
	m.mu.Unlock()

	return nil
}

// Exists 检查键是否存在.
func (m *MemoryKV) Exists(_ context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.lookup(key)

	return ok, nil
}

// Keys 列出前缀匹配的键.
func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	keys := make([]string, 0, len(m.data))

	for k := range m.data {
		if _, ok := m.lookup(k); ok && strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}

	return keys, nil
}

// Close 内存实现无需释放.
func (m *MemoryKV) Close() error {
	return nil
}

func init() {
	RegisterKVFactory(KVTypeMemory, NewMemoryKV)
}
