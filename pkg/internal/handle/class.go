package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/internal/service"
)

// ClassStorage 班级的配额与用量.
//
//	@Summary	班级存储用量
//	@Tags		班级
//	@Produce	json
//	@Param		classId	path		string	true	"班级 ID"
//	@Success	200		{object}	types.StorageInfo
//	@Failure	404		{object}	types.ErrorResponse
//	@Router		/api/v1/class/{classId}/storage [get]
func ClassStorage(c *gin.Context) {
	info, err := service.NewClassService(env(c)).Storage(c.Request.Context(), c.Param("classId"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, info)
}
