package middleware

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/configs"
)

// CORSMiddleware CORS中间件，视频播放需要暴露 Range 相关响应头.
func CORSMiddleware(cfg configs.ServerConfig) gin.HandlerFunc {
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = append(config.AllowHeaders, "Range", "X-Auth-Request-User", "X-Forwarded-User")
	config.ExposeHeaders = []string{"Content-Range", "Accept-Ranges", "Content-Length", "ETag"}
	config.AllowFiles = true

	if cfg.Debug {
		config.AllowAllOrigins = true
		config.AllowOrigins = nil
	}

	return cors.New(config)
}

// GzipMiddleware 只用于 JSON 路由组，媒体流不压缩.
func GzipMiddleware() gin.HandlerFunc {
	return gzip.Gzip(gzip.DefaultCompression)
}
