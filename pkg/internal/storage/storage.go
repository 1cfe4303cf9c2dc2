// Package storage 聚合数据库、键值存储、消息队列与本地媒体目录.
//
// Example:
//
//	mgr, err := storage.Init(ctx)
//	if err != nil {
//		return err
//	}
//	defer mgr.Close()
//
//	db := mgr.GetDBClient()
package storage

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/yeisme/classmedia/pkg/configs"
	dbc "github.com/yeisme/classmedia/pkg/internal/storage/db"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	kvc "github.com/yeisme/classmedia/pkg/internal/storage/kv"
	mqc "github.com/yeisme/classmedia/pkg/internal/storage/mq"
	nlog "github.com/yeisme/classmedia/pkg/log"
)

// Manager 聚合所有存储资源.
type Manager struct {
	DB   *dbc.Client
	KV   *kvc.Client
	MQ   *mqc.Client
	Disk *disk.Store
}

var (
	mgr     *Manager
	mgrErr  error
	mgrOnce sync.Once
)

// Init 使用全局配置初始化存储，重复调用返回同一实例.
func Init(ctx context.Context) (*Manager, error) {
	mgrOnce.Do(func() {
		mgr, mgrErr = Open(ctx, configs.GetConfig())
	})

	return mgr, mgrErr
}

// Open 按给定配置打开全部存储，任何一步失败都会关闭已打开的资源.
func Open(ctx context.Context, cfg *configs.AppConfig) (m *Manager, err error) {
	m = &Manager{}

	defer func() {
		if err != nil {
			_ = m.Close()
			m = nil
		}
	}()

	if m.Disk, err = disk.New(&cfg.Media); err != nil {
		return m, fmt.Errorf("media dirs: %w", err)
	}

	if m.DB, err = dbc.New(ctx, &cfg.DB); err != nil {
		return m, err
	}

	if cfg.Metrics.Enabled {
		if e := m.DB.RegisterGORMMetrics(); e != nil {
			nlog.Logger().Warn().Err(e).Msg("gorm metrics not registered")
		}
	}

	if m.KV, err = kvc.NewKVClient(ctx, &cfg.KV); err != nil {
		return m, fmt.Errorf("kv: %w", err)
	}

	if m.MQ, err = mqc.Open(ctx, &cfg.MQ); err != nil {
		return m, err
	}

	nlog.Logger().Info().
		Str("db", cfg.DB.GetDBType()).
		Str("kv", cfg.KV.Type).
		Str("mq", string(cfg.MQ.Type)).
		Str("media", cfg.Media.Root).
		Msg("storage manager initialized")

	return m, nil
}

// GetDBClient 获取 DB 客户端.
func (m *Manager) GetDBClient() *dbc.Client { return m.DB }

// GetKVClient 获取 KV 客户端.
func (m *Manager) GetKVClient() *kvc.Client { return m.KV }

// GetMQClient 获取 MQ 客户端.
func (m *Manager) GetMQClient() *mqc.Client { return m.MQ }

// GetDisk 获取媒体目录.
func (m *Manager) GetDisk() *disk.Store { return m.Disk }

// Close 按依赖的逆序关闭.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error

	if m.MQ != nil {
		errs = append(errs, m.MQ.Close())
	}

	if m.KV != nil {
		errs = append(errs, m.KV.Close())
	}

	if m.DB != nil {
		errs = append(errs, m.DB.Close())
	}

	return errors.Join(errs...)
}
