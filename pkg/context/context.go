// Package context 把存储管理器、请求身份与追踪信息放进 context，供服务层与后台任务取用.
package context

import (
	"context"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/classmedia/pkg/internal/storage"
	dbc "github.com/yeisme/classmedia/pkg/internal/storage/db"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	kvc "github.com/yeisme/classmedia/pkg/internal/storage/kv"
	mqc "github.com/yeisme/classmedia/pkg/internal/storage/mq"
)

type ContextKey string

const (
	StorageManagerKey ContextKey = "storageManager"
	ActorKey          ContextKey = "actor"
	RequestIDKey      ContextKey = "requestID"
)

// WithStorageManager 将 Manager 存入 context.
func WithStorageManager(ctx context.Context, mgr *storage.Manager) context.Context {
	return context.WithValue(ctx, StorageManagerKey, mgr)
}

// GetManager 从 context 中获取 Manager.
func GetManager(ctx context.Context) *storage.Manager {
	if mgr, ok := ctx.Value(StorageManagerKey).(*storage.Manager); ok {
		return mgr
	}

	return nil
}

// GetDBClient 从 context 中获取 DB 客户端.
func GetDBClient(ctx context.Context) *dbc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDBClient()
	}

	return nil
}

// GetMQClient 从 context 中获取 MQ 客户端.
func GetMQClient(ctx context.Context) *mqc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetMQClient()
	}

	return nil
}

// GetKVClient 从 context 中获取 KV 客户端.
func GetKVClient(ctx context.Context) *kvc.Client {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetKVClient()
	}

	return nil
}

// GetDisk 从 context 中获取媒体目录.
func GetDisk(ctx context.Context) *disk.Store {
	if mgr := GetManager(ctx); mgr != nil {
		return mgr.GetDisk()
	}

	return nil
}

// WithActor 记录发起请求的用户.
func WithActor(ctx context.Context, actor string) context.Context {
	return context.WithValue(ctx, ActorKey, actor)
}

// Actor 返回请求用户，未认证时为空.
func Actor(ctx context.Context) string {
	s, _ := ctx.Value(ActorKey).(string)

	return s
}

// WithRequestID 记录请求 ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID 返回请求 ID.
func RequestID(ctx context.Context) string {
	s, _ := ctx.Value(RequestIDKey).(string)

	return s
}

// WithTraceContext 给 logger 加上 trace_id 与 span_id.
func WithTraceContext(ctx context.Context, logger zerolog.Logger) zerolog.Logger {
	sc := trace.SpanFromContext(ctx).SpanContext()
	if sc.IsValid() {
		return logger.With().
			Str("trace_id", sc.TraceID().String()).
			Str("span_id", sc.SpanID().String()).
			Logger()
	}

	return logger
}
