// Package router 把 handle 包的处理器绑定到 gin 路由，并挂上班级访问控制.
package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/configs"
)

// APIPrefix 业务路由前缀.
const APIPrefix = "/api/v1"

// Register 在 /api/v1 下注册全部路由，返回该路由组.
func Register(e *gin.Engine, cfg *configs.AppConfig) *gin.RouterGroup {
	api := e.Group(APIPrefix)

	RegisterFileRoutes(api)
	RegisterModuleRoutes(api)
	RegisterTrackerRoutes(api)
	RegisterClassRoutes(api)
	RegisterHealthCheckRoute(api)
	RegisterSchedulerRoutes(api, cfg.Auth.Admins)
	RegisterSwaggerRoute(e, cfg)

	return api
}
