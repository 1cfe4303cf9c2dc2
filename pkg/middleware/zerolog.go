package middleware

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/log"
)

const requestIDHeader = "X-Request-ID"

// GinLoggerMiddleware 使用zerolog记录请求日志，并把带 request_id 的 logger 放进 context.
func GinLoggerMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		rid := c.GetHeader(requestIDHeader)
		if rid == "" {
			rid = uuid.NewString()
		}

		c.Header(requestIDHeader, rid)

		reqLogger := log.Logger().With().Str("request_id", rid).Logger()
		ctx := ctxPkg.WithRequestID(c.Request.Context(), rid)
		c.Request = c.Request.WithContext(reqLogger.WithContext(ctx))

		c.Next()

		status := c.Writer.Status()

		var event *zerolog.Event

		switch {
		case status >= 500:
			event = reqLogger.Error()
		case status >= 400:
			event = reqLogger.Warn()
		default:
			event = reqLogger.Info()
		}

		path := c.Request.URL.Path
		if raw := c.Request.URL.RawQuery; raw != "" {
			path = path + "?" + raw
		}

		event = event.
			Int("status", status).
			Dur("latency", time.Since(start)).
			Str("method", c.Request.Method).
			Str("path", path).
			Str("route", c.FullPath()).
			Int("bytes", c.Writer.Size()).
			Str("client_ip", c.ClientIP())

		if actor := Actor(c); actor != "" {
			event = event.Str("actor", actor)
		}

		if len(c.Errors) > 0 {
			event = event.Str("error", c.Errors.String())
		}

		event.Msg("HTTP request")
	}
}
