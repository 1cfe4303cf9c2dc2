package router

import (
	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/internal/handle"
	"github.com/yeisme/classmedia/pkg/middleware"
)

// RegisterFileRoutes 注册文件路由. 媒体流不压缩.
func RegisterFileRoutes(g *gin.RouterGroup) {
	member := middleware.RequireClassMember()
	owner := middleware.RequireClassOwner()

	files := g.Group("/file")
	{
		files.GET("/preview/:classId/:previewFile", member, handle.PreviewFile)
		files.GET("/hls/:classId/:name", member, handle.HLSFile)

		files.POST("/:classId/:moduleId", owner, middleware.RequireActivePlan(), handle.UploadFile)
		files.GET("/:classId/:moduleId", member, middleware.GzipMiddleware(), handle.ListFiles)
		files.GET("/:classId/:moduleId/:fileName", member, handle.StreamFile)
		files.DELETE("/:classId/:moduleId/:fileId", owner, handle.DeleteFile)
	}
}

// RegisterModuleRoutes 注册模块路由.
func RegisterModuleRoutes(g *gin.RouterGroup) {
	member := middleware.RequireClassMember()
	owner := middleware.RequireClassOwner()

	modules := g.Group("/module", middleware.GzipMiddleware())
	{
		modules.POST("/:classId", owner, handle.CreateModule)
		modules.GET("/:classId", member, handle.ListModules)
		modules.PUT("/:classId/:moduleId", owner, handle.RenameModule)
		modules.DELETE("/:classId/:moduleId", owner, handle.DeleteModule)
	}
}

// RegisterTrackerRoutes 注册观看记录路由，学生上报，班级所有者查看.
func RegisterTrackerRoutes(g *gin.RouterGroup) {
	member := middleware.RequireClassMember()
	owner := middleware.RequireClassOwner()

	trackers := g.Group("/tracker/:classId/:moduleId/:videoId", middleware.GzipMiddleware())
	{
		trackers.POST("", member, handle.RecordTracker)
		trackers.GET("", owner, handle.ListTrackers)
		trackers.GET("/csv", owner, handle.TrackersCSV)
	}
}

// RegisterClassRoutes 注册班级路由.
func RegisterClassRoutes(g *gin.RouterGroup) {
	g.Group("/class", middleware.GzipMiddleware()).
		GET("/:classId/storage", middleware.RequireClassMember(), handle.ClassStorage)
}
