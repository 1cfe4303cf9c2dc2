package handle

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

// RecordTracker 上报当前用户的观看区间.
//
//	@Summary	上报观看进度
//	@Tags		观看记录
//	@Accept		json
//	@Produce	json
//	@Param		classId		path		string					true	"班级 ID"
//	@Param		moduleId	path		string					true	"模块 ID"
//	@Param		videoId		path		string					true	"视频文件 ID"
//	@Param		body		body		types.TrackerRequest	true	"观看区间"
//	@Success	200			{object}	map[string]string
//	@Failure	400			{object}	types.ErrorResponse
//	@Router		/api/v1/tracker/{classId}/{moduleId}/{videoId} [post]
func RecordTracker(c *gin.Context) {
	var req types.TrackerRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := service.NewTrackerService(env(c)).Record(c.Request.Context(),
		c.Param("classId"), c.Param("moduleId"), c.Param("videoId"), actor(c), &req); err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "recorded"})
}

// ListTrackers 视频的全部观看记录.
//
//	@Summary	观看记录
//	@Tags		观看记录
//	@Produce	json
//	@Param		classId		path	string	true	"班级 ID"
//	@Param		moduleId	path	string	true	"模块 ID"
//	@Param		videoId		path	string	true	"视频文件 ID"
//	@Success	200			{array}	types.TrackerInfo
//	@Router		/api/v1/tracker/{classId}/{moduleId}/{videoId} [get]
func ListTrackers(c *gin.Context) {
	out, err := service.NewTrackerService(env(c)).List(c.Request.Context(),
		c.Param("classId"), c.Param("moduleId"), c.Param("videoId"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, out)
}

// TrackersCSV 导出观看记录.
//
//	@Summary	导出观看记录
//	@Tags		观看记录
//	@Produce	text/csv
//	@Param		classId		path	string	true	"班级 ID"
//	@Param		moduleId	path	string	true	"模块 ID"
//	@Param		videoId		path	string	true	"视频文件 ID"
//	@Success	200			{file}	file
//	@Router		/api/v1/tracker/{classId}/{moduleId}/{videoId}/csv [get]
func TrackersCSV(c *gin.Context) {
	var buf bytes.Buffer

	videoID := c.Param("videoId")
	if err := service.NewTrackerService(env(c)).WriteCSV(c.Request.Context(), &buf,
		c.Param("classId"), c.Param("moduleId"), videoID); err != nil {
		writeError(c, err)

		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="tracker-%s.csv"`, videoID))
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}
