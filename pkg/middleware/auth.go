// Package middleware 提供 gin 中间件：认证、班级访问控制、限流、熔断、追踪与指标.
package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/configs"
	ctxPkg "github.com/yeisme/classmedia/pkg/context"
)

const actorKey = "actor"

// AuthMiddleware 从 oauth2-proxy 注入的请求头读取用户名.
//   - 依次尝试 auth.user_headers
//   - auth.skip_paths 前缀下的请求不校验
//   - 开发模式可以用 ?user= 兜底（auth.dev_allow_query）
//
// 关闭认证时仍然解析用户名，只是不拒绝匿名请求.
func AuthMiddleware(conf configs.AuthConfig) gin.HandlerFunc {
	return func(c *gin.Context) {
		actor := actorFrom(c, conf)
		if actor != "" {
			c.Set(actorKey, actor)
			c.Request = c.Request.WithContext(ctxPkg.WithActor(c.Request.Context(), actor))
		}

		if actor == "" && conf.Enabled && !isSkippedPath(c.Request.URL.Path, conf.SkipPaths) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})

			return
		}

		c.Next()
	}
}

func actorFrom(c *gin.Context, conf configs.AuthConfig) string {
	for _, h := range conf.UserHeaders {
		if v := strings.TrimSpace(c.GetHeader(h)); v != "" {
			return v
		}
	}

	if conf.DevAllowQuery {
		return strings.TrimSpace(c.Query("user"))
	}

	return ""
}

// Actor 当前请求的用户名，匿名时为空.
func Actor(c *gin.Context) string {
	return c.GetString(actorKey)
}

func isSkippedPath(path string, skips []string) bool {
	if path == "" || len(skips) == 0 {
		return false
	}

	for _, p := range skips {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}

		if strings.HasPrefix(path, p) {
			return true
		}
	}

	return false
}
