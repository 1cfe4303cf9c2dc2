package handle

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

const (
	healthTimeout = 2 * time.Second
	healthProbe   = "health:probe"
)

func healthy(c *gin.Context, component string, detail map[string]any) {
	c.JSON(http.StatusOK, types.HealthResponse{Component: component, Status: "ok", Detail: detail})
}

func unhealthy(c *gin.Context, component string, err error) {
	c.JSON(http.StatusServiceUnavailable, types.HealthResponse{Component: component, Status: "unhealthy", Error: err.Error()})
}

// HealthDB 数据库健康检查.
//
//	@Summary	数据库健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/db [get]
func HealthDB(c *gin.Context) {
	dbc := ctxPkg.GetDBClient(c.Request.Context())
	if dbc == nil {
		unhealthy(c, "db", errors.New("db client not initialized"))

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := dbc.Ping(ctx); err != nil {
		unhealthy(c, "db", err)

		return
	}

	healthy(c, "db", nil)
}

// HealthMQ 消息队列健康检查.
//
//	@Summary	消息队列健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/mq [get]
func HealthMQ(c *gin.Context) {
	mqc := ctxPkg.GetMQClient(c.Request.Context())
	if err := mqc.Ping(c.Request.Context()); err != nil {
		unhealthy(c, "mq", err)

		return
	}

	healthy(c, "mq", map[string]any{"type": mqc.Type()})
}

// HealthKV 键值存储健康检查：写入并读回一个短期键.
//
//	@Summary	键值存储健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/kv [get]
func HealthKV(c *gin.Context) {
	kvc := ctxPkg.GetKVClient(c.Request.Context())
	if kvc == nil {
		unhealthy(c, "kv", errors.New("kv client not initialized"))

		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	if err := kvc.Set(ctx, healthProbe, []byte("1"), time.Minute); err != nil {
		unhealthy(c, "kv", err)

		return
	}

	if _, err := kvc.Get(ctx, healthProbe); err != nil {
		unhealthy(c, "kv", err)

		return
	}

	healthy(c, "kv", map[string]any{"type": kvc.Type()})
}

// HealthDisk 媒体目录健康检查，返回文件系统容量.
//
//	@Summary	媒体目录健康检查
//	@Tags		健康检查
//	@Produce	json
//	@Success	200	{object}	types.HealthResponse
//	@Failure	503	{object}	types.HealthResponse
//	@Router		/api/v1/health/disk [get]
func HealthDisk(c *gin.Context) {
	store := ctxPkg.GetDisk(c.Request.Context())
	if store == nil {
		unhealthy(c, "disk", errors.New("media store not initialized"))

		return
	}

	total, available, err := store.Usage()
	if err != nil {
		unhealthy(c, "disk", err)

		return
	}

	healthy(c, "disk", map[string]any{"total": total, "available": available})
}
