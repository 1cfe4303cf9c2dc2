package middleware

import (
	"context"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/scheduler"
)

type schedulerKey struct{}

// StorageMiddleware 把存储管理器放进请求 ctx，service.FromContext 据此构造 Env.
func StorageMiddleware(manager *storage.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(ctxPkg.WithStorageManager(c.Request.Context(), manager))
		c.Next()
	}
}

// SchedulerMiddleware 注入调度器，供 /scheduler 管理接口使用. sched 可以为 nil.
func SchedulerMiddleware(sched *scheduler.Scheduler) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request = c.Request.WithContext(context.WithValue(c.Request.Context(), schedulerKey{}, sched))
		c.Next()
	}
}

// GetScheduler 返回注入的调度器，未注入时为 nil.
func GetScheduler(c *gin.Context) *scheduler.Scheduler {
	sched, _ := c.Request.Context().Value(schedulerKey{}).(*scheduler.Scheduler)

	return sched
}
