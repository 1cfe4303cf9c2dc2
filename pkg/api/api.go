// Package api 组装 gin 引擎：全局中间件、依赖注入与业务路由.
package api

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/router"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/metrics"
	"github.com/yeisme/classmedia/pkg/middleware"
	"github.com/yeisme/classmedia/pkg/rule"
	"github.com/yeisme/classmedia/pkg/scheduler"
)

// NewEngine 创建引擎. sched 可以为空，此时调度器接口返回 503.
func NewEngine(cfg *configs.AppConfig, mgr *storage.Manager, sched *scheduler.Scheduler) *gin.Engine {
	// gin 的 binding 与 rule 共用同一个 validator，必须在注册路由前初始化
	rule.Engine()

	engine := gin.New()
	engine.ContextWithFallback = true

	engine.Use(
		gin.Recovery(),
		middleware.GinLoggerMiddleware(),
		middleware.CORSMiddleware(cfg.Server),
		middleware.TracingMiddleware(),
		middleware.PrometheusMiddleware(),
		middleware.StorageMiddleware(mgr),
		middleware.SchedulerMiddleware(sched),
		middleware.AuthMiddleware(cfg.Auth),
		middleware.RateLimitMiddleware(cfg.RateLimit),
		middleware.CircuitBreakerMiddleware(cfg.CircuitBreaker),
	)

	metrics.Mount(cfg.Metrics, engine)
	router.Register(engine, cfg)

	return engine
}
