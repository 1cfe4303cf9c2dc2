package router

import (
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/yeisme/classmedia/docs"
	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/handle"
	"github.com/yeisme/classmedia/pkg/middleware"
)

// RegisterHealthCheckRoute 注册健康检查路由，认证与限流默认跳过 /health.
func RegisterHealthCheckRoute(g *gin.RouterGroup) {
	health := g.Group("/health")
	{
		health.GET("/db", handle.HealthDB)
		health.GET("/mq", handle.HealthMQ)
		health.GET("/kv", handle.HealthKV)
		health.GET("/disk", handle.HealthDisk)
	}
}

// RegisterSchedulerRoutes 注册调度器管理路由，仅 auth.admins 可访问.
func RegisterSchedulerRoutes(g *gin.RouterGroup, admins []string) {
	jobs := g.Group("/scheduler/jobs", middleware.RequireAdmin(admins))
	{
		jobs.GET("", handle.SchedulerJobs)
		jobs.POST("/:id/run", handle.SchedulerRunJob)
		jobs.DELETE("/:id", handle.SchedulerRemoveJob)
	}
}

// RegisterSwaggerRoute 调试模式下挂载 /swagger.
func RegisterSwaggerRoute(r *gin.Engine, cfg *configs.AppConfig) {
	if !cfg.Server.Debug {
		return
	}

	docs.SwaggerInfo.Host = cfg.Server.Addr()
	docs.SwaggerInfo.Version = configs.AppVersion

	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
}
