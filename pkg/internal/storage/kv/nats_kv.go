package kv

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/yeisme/classmedia/pkg/configs"
)

// NATSKV 基于 JetStream KeyValue 的实现，过期时间编码在值里.
type NATSKV struct {
	kv     nats.KeyValue
	bucket string
	conn   *nats.Conn
}

// NewNATSKV 创建 NATS KV，bucket 不存在时自动创建.
func NewNATSKV(_ context.Context, config any) (KVStore, error) {
	natsConfig, ok := config.(*configs.NATSKVConfig)
	if !ok {
		return nil, fmt.Errorf("invalid NATS config")
	}

	opts := []nats.Option{nats.Name(configs.AppName + "-kv")}
	if natsConfig.User != "" {
		opts = append(opts, nats.UserInfo(natsConfig.User, natsConfig.Password))
	}

	nc, err := nats.Connect(natsConfig.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	kv, err := js.KeyValue(natsConfig.Bucket)
	if errors.Is(err, nats.ErrBucketNotFound) {
		kv, err = js.CreateKeyValue(&nats.KeyValueConfig{Bucket: natsConfig.Bucket})
	}

	if err != nil {
		nc.Close()

		return nil, fmt.Errorf("failed to create/get KV bucket: %w", err)
	}

	return &NATSKV{kv: kv, bucket: natsConfig.Bucket, conn: nc}, nil
}

// NATS 的键不允许空格等字符，冒号也不在合法集合里.
var natsKeyReplacer = strings.NewReplacer(":", ".", " ", "_")

func natsKey(key string) string { return natsKeyReplacer.Replace(key) }

// live 读取未过期的条目，过期条目顺便删除.
func (n *NATSKV) live(key string) (nats.KeyValueEntry, []byte, error) {
	entry, err := n.kv.Get(key)
	if errors.Is(err, nats.ErrKeyNotFound) {
		return nil, nil, ErrNotFound
	}

	if err != nil {
		return nil, nil, fmt.Errorf("failed to get key: %w", err)
	}

	val, expired, err := decodeWithTTL(entry.Value(), time.Now())
	if err != nil {
		return nil, nil, err
	}

	if expired {
		return entry, nil, ErrNotFound
	}

	return entry, val, nil
}

// Get 获取键的值.
func (n *NATSKV) Get(_ context.Context, key string) ([]byte, error) {
	_, val, err := n.live(natsKey(key))

	return val, err
}

// Set 设置键的值.
func (n *NATSKV) Set(_ context.Context, key string, value []byte, ttl time.Duration) error {
	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return err
	}

	if _, err := n.kv.Put(natsKey(key), encoded); err != nil {
		return fmt.Errorf("failed to set key: %w", err)
	}

	return nil
}

// SetNX 用 Create/Update(revision) 实现比较并设置.
func (n *NATSKV) SetNX(_ context.Context, key string, value []byte, ttl time.Duration) (bool, error) {
	k := natsKey(key)

	encoded, err := encodeWithTTL(value, ttl)
	if err != nil {
		return false, err
	}

	_, err = n.kv.Create(k, encoded)
	if err == nil {
		return true, nil
	}

	if !errors.Is(err, nats.ErrKeyExists) {
		return false, fmt.Errorf("failed to create key: %w", err)
	}

	entry, _, lerr := n.live(k)
	if lerr == nil {
		return false, nil
	}

	if !errors.Is(lerr, ErrNotFound) || entry == nil {
		return false, lerr
	}

	// 旧值已过期，按版本号覆盖，并发覆盖只有一个成功
	if _, err := n.kv.Update(k, encoded, entry.Revision()); err != nil {
		return false, nil
	}

	return true, nil
}

// Delete 删除键.
func (n *NATSKV) Delete(_ context.Context, key string) error {
	err := n.kv.Delete(natsKey(key))
	if err != nil && !errors.Is(err, nats.ErrKeyNotFound) {
		return fmt.Errorf("failed to delete key: %w", err)
	}

	return nil
}

// Exists 检查键是否存在.
func (n *NATSKV) Exists(_ context.Context, key string) (bool, error) {
	_, _, err := n.live(natsKey(key))
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}

	return err == nil, err
}

// Keys 列出前缀匹配且未过期的键.
func (n *NATSKV) Keys(_ context.Context, prefix string) ([]string, error) {
	keys, err := n.kv.Keys()
	if errors.Is(err, nats.ErrNoKeysFound) {
		return nil, nil
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get keys: %w", err)
	}

	p := natsKey(prefix)
	result := make([]string, 0, len(keys))

	for _, key := range keys {
		if !strings.HasPrefix(key, p) {
			continue
		}

		if _, _, err := n.live(key); err == nil {
			result = append(result, key)
		}
	}

	return result, nil
}

// Close 关闭 NATS 连接.
func (n *NATSKV) Close() error {
	n.conn.Close()

	return nil
}

func init() {
	RegisterKVFactory(KVTypeNATS, NewNATSKV)
}
