// Package handle 实现 HTTP 处理器，业务逻辑在 service 包.
package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"

	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/types"
	"github.com/yeisme/classmedia/pkg/log"
	"github.com/yeisme/classmedia/pkg/middleware"
	"github.com/yeisme/classmedia/pkg/rule"
)

const internalError = "internal server error"

// statusOf 领域错误到 HTTP 状态码.
func statusOf(err error) int {
	var verrs validator.ValidationErrors

	switch {
	case errors.Is(err, service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrRangeNotSatisfiable):
		return http.StatusRequestedRangeNotSatisfiable
	case errors.Is(err, service.ErrPlanInactive):
		return http.StatusPaymentRequired
	case errors.Is(err, service.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, service.ErrValidation),
		errors.Is(err, service.ErrQuotaExceeded),
		errors.Is(err, service.ErrStreamAborted),
		errors.As(err, &verrs):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeError 统一的错误响应 {"error": msg}，5xx 不向客户端暴露细节.
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	msg := err.Error()

	if status >= http.StatusInternalServerError {
		log.Ctx(c.Request.Context()).Error().Err(err).Str("route", c.FullPath()).Msg("request failed")

		msg = internalError
	} else if verrs := rule.Errors(err); len(verrs) > 0 {
		msg = verrs.String()
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(status, types.ErrorResponse{Error: msg})
}

// bindJSON 解析并按 rule 标签校验请求体.
func bindJSON(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		writeError(c, err)

		return false
	}

	return true
}

func env(c *gin.Context) *service.Env {
	return service.FromContext(c.Request.Context())
}

func actor(c *gin.Context) string {
	return middleware.Actor(c)
}
