package handle

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

// CreateModule 新建模块.
//
//	@Summary	新建模块
//	@Tags		模块
//	@Accept		json
//	@Produce	json
//	@Param		classId	path		string				true	"班级 ID"
//	@Param		body	body		types.ModuleRequest	true	"模块标题"
//	@Success	200		{object}	model.Module
//	@Failure	400		{object}	types.ErrorResponse
//	@Router		/api/v1/module/{classId} [post]
func CreateModule(c *gin.Context) {
	var req types.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := service.NewModuleService(env(c)).Create(c.Request.Context(), c.Param("classId"), &req)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, m)
}

// ListModules 列出班级的模块.
//
//	@Summary	列出模块
//	@Tags		模块
//	@Produce	json
//	@Param		classId	path	string	true	"班级 ID"
//	@Success	200		{array}	model.Module
//	@Router		/api/v1/module/{classId} [get]
func ListModules(c *gin.Context) {
	out, err := service.NewModuleService(env(c)).List(c.Request.Context(), c.Param("classId"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, out)
}

// RenameModule 修改模块标题.
//
//	@Summary	修改模块标题
//	@Tags		模块
//	@Accept		json
//	@Produce	json
//	@Param		classId		path		string				true	"班级 ID"
//	@Param		moduleId	path		string				true	"模块 ID"
//	@Param		body		body		types.ModuleRequest	true	"模块标题"
//	@Success	200			{object}	model.Module
//	@Failure	404			{object}	types.ErrorResponse
//	@Router		/api/v1/module/{classId}/{moduleId} [put]
func RenameModule(c *gin.Context) {
	var req types.ModuleRequest
	if !bindJSON(c, &req) {
		return
	}

	m, err := service.NewModuleService(env(c)).Rename(c.Request.Context(), c.Param("classId"), c.Param("moduleId"), &req)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, m)
}

// DeleteModule 删除模块及其全部文件.
//
//	@Summary	删除模块
//	@Tags		模块
//	@Produce	json
//	@Param		classId		path		string	true	"班级 ID"
//	@Param		moduleId	path		string	true	"模块 ID"
//	@Success	200			{object}	types.DeleteModuleResponse
//	@Failure	404			{object}	types.ErrorResponse
//	@Router		/api/v1/module/{classId}/{moduleId} [delete]
func DeleteModule(c *gin.Context) {
	resp, err := service.NewModuleService(env(c)).Delete(c.Request.Context(), c.Param("classId"), c.Param("moduleId"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}
