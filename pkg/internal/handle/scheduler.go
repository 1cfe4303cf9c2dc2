package handle

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/middleware"
	"github.com/yeisme/classmedia/pkg/scheduler"
)

func schedulerOf(c *gin.Context) (*scheduler.Scheduler, bool) {
	sched := middleware.GetScheduler(c)
	if sched == nil {
		c.AbortWithStatusJSON(http.StatusServiceUnavailable, gin.H{"error": "scheduler not running"})

		return nil, false
	}

	return sched, true
}

func jobError(c *gin.Context, err error) {
	if errors.Is(err, scheduler.ErrJobNotFound) {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": err.Error()})

		return
	}

	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": err.Error()})
}

// SchedulerJobs 返回所有定时任务.
//
//	@Summary	定时任务列表
//	@Tags		调度器
//	@Produce	json
//	@Success	200	{object}	map[string][]scheduler.JobInfo
//	@Router		/api/v1/scheduler/jobs [get]
func SchedulerJobs(c *gin.Context) {
	sched, ok := schedulerOf(c)
	if !ok {
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": sched.GetJobInfos()})
}

// SchedulerRunJob 立即执行一次任务.
//
//	@Summary	立即执行任务
//	@Tags		调度器
//	@Produce	json
//	@Param		id	path		string	true	"任务名"
//	@Success	200		{object}	map[string]string
//	@Failure	404		{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{id}/run [post]
func SchedulerRunJob(c *gin.Context) {
	sched, ok := schedulerOf(c)
	if !ok {
		return
	}

	if err := sched.RunNow(c.Param("id")); err != nil {
		jobError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job triggered"})
}

// SchedulerRemoveJob 按 ID 删除任务.
//
//	@Summary	删除任务
//	@Tags		调度器
//	@Produce	json
//	@Param		id	path		string	true	"任务 ID"
//	@Success	200	{object}	map[string]string
//	@Failure	404	{object}	map[string]string
//	@Router		/api/v1/scheduler/jobs/{id} [delete]
func SchedulerRemoveJob(c *gin.Context) {
	sched, ok := schedulerOf(c)
	if !ok {
		return
	}

	if err := sched.RemoveJob(c.Param("id")); err != nil {
		jobError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "job removed"})
}
