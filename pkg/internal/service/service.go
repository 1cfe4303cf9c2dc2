// Package service 实现媒体上传、配额、预览、流式下载与清理的业务逻辑.
//
// 上传流水线按固定顺序显式调用：校验 → 写入 .part → 计量 → 配额检查 → 提交事务 → 重命名 → 发布事件.
package service

import (
	"context"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/cache"
	"github.com/yeisme/classmedia/pkg/configs"
	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/internal/storage/kv"
	"github.com/yeisme/classmedia/pkg/internal/storage/mq"
	"github.com/yeisme/classmedia/pkg/log"
)

// Env 服务依赖，MQ、KV 与 Cache 可以为空.
type Env struct {
	DB    *gorm.DB
	Disk  *disk.Store
	MQ    *mq.Client
	KV    kv.KVStore
	Cache *cache.Cache
	Cfg   *configs.AppConfig
	Authz Authorizer
}

// FromContext 从 context 中的存储管理器与全局配置组装 Env.
func FromContext(ctx context.Context) *Env {
	env := &Env{
		Disk:  ctxPkg.GetDisk(ctx),
		MQ:    ctxPkg.GetMQClient(ctx),
		Cfg:   configs.GetConfig(),
		Authz: OwnerAuthorizer{},
	}

	if dbc := ctxPkg.GetDBClient(ctx); dbc != nil {
		env.DB = dbc.GetDB()
	}

	if kvc := ctxPkg.GetKVClient(ctx); kvc != nil {
		env.KV = kvc
		env.Cache = cache.NewCache(kvc)
	}

	return env
}

func (e *Env) db(ctx context.Context) *gorm.DB {
	return e.DB.WithContext(ctx)
}

func (e *Env) logger(ctx context.Context, component string) zerolog.Logger {
	l := log.Ctx(ctx).With().Str("component", component).Logger()

	return ctxPkg.WithTraceContext(ctx, l)
}
