package middleware

import (
	"errors"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/log"
)

const (
	classKey   = "class"
	classParam = "classId"
)

// access 班级访问级别，数值越大要求越高.
type access int

const (
	accessMember access = iota + 1
	accessOwner
)

// RequireClassMember 要求请求方可以读取 :classId.
func RequireClassMember() gin.HandlerFunc { return requireClass(accessMember) }

// RequireClassOwner 要求请求方可以写入 :classId.
func RequireClassOwner() gin.HandlerFunc { return requireClass(accessOwner) }

func requireClass(level access) gin.HandlerFunc {
	return func(c *gin.Context) {
		class, ok := loadClass(c)
		if !ok {
			return
		}

		env := service.FromContext(c.Request.Context())
		actor := Actor(c)

		allowed := env.Authz.CanRead(c.Request.Context(), actor, class)
		if level == accessOwner {
			allowed = env.Authz.CanWrite(c.Request.Context(), actor, class)
		}

		if !allowed {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": service.ErrForbidden.Error()})

			return
		}

		c.Next()
	}
}

// RequireActivePlan 付费套餐过期时返回 402，放在 RequireClassOwner 之后.
func RequireActivePlan() gin.HandlerFunc {
	return func(c *gin.Context) {
		class, ok := loadClass(c)
		if !ok {
			return
		}

		svc := service.NewClassService(service.FromContext(c.Request.Context()))
		if err := svc.PlanActive(class); err != nil {
			c.AbortWithStatusJSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})

			return
		}

		c.Next()
	}
}

// RequireAdmin 只允许 auth.admins 中的用户.
func RequireAdmin(admins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !slices.Contains(admins, Actor(c)) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden: admin only"})

			return
		}

		c.Next()
	}
}

// Class 返回已加载的班级，没有经过班级中间件时为 nil.
func Class(c *gin.Context) *model.Class {
	if v, ok := c.Get(classKey); ok {
		if class, ok := v.(*model.Class); ok {
			return class
		}
	}

	return nil
}

// loadClass 每个请求只查一次班级，失败时已经写好响应.
func loadClass(c *gin.Context) (*model.Class, bool) {
	if class := Class(c); class != nil {
		return class, true
	}

	svc := service.NewClassService(service.FromContext(c.Request.Context()))

	class, err := svc.Get(c.Request.Context(), c.Param(classParam))
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})

			return nil, false
		}

		log.Ctx(c.Request.Context()).Error().Err(err).Msg("load class failed")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})

		return nil, false
	}

	c.Set(classKey, class)

	return class, true
}
