package handle

import (
	"errors"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/types"
	"github.com/yeisme/classmedia/pkg/metrics"
)

// UploadFile 流式上传一个文件.
//
//	@Summary		上传文件
//	@Description	multipart/form-data，字段 title 与 file；写盘后检查班级配额再提交
//	@Tags			文件
//	@Accept			multipart/form-data
//	@Produce		json
//	@Param			classId		path		string	true	"班级 ID"
//	@Param			moduleId	path		string	true	"模块 ID"
//	@Param			t			query		string	false	"文件类型"	Enums(video, pdf, doc, excel, ppt, image)
//	@Param			title		formData	string	true	"标题"
//	@Param			file		formData	file	true	"文件"
//	@Success		200			{object}	types.UploadFileResponse
//	@Failure		400			{object}	types.ErrorResponse	"校验失败或配额不足"
//	@Failure		402			{object}	types.ErrorResponse	"付费套餐已过期"
//	@Failure		404			{object}	types.ErrorResponse
//	@Router			/api/v1/file/{classId}/{moduleId} [post]
func UploadFile(c *gin.Context) {
	svc := service.NewFileService(env(c))
	svc.Ingestor().LimitBody(c.Writer, c.Request)

	mr, err := c.Request.MultipartReader()
	if err != nil {
		writeError(c, &service.ValidationError{Field: "body", Reason: "expected multipart/form-data body"})

		return
	}

	f, err := svc.Upload(c.Request.Context(), service.UploadInput{
		ClassID:  c.Param("classId"),
		ModuleID: c.Param("moduleId"),
		Actor:    actor(c),
		Kind:     c.Query("t"),
		Body:     mr,
	})
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, types.UploadFileResponse{File: svc.FileInfo(f)})
}

// ListFiles 列出模块内的文件.
//
//	@Summary		列出文件
//	@Tags			文件
//	@Produce		json
//	@Param			classId		path		string	true	"班级 ID"
//	@Param			moduleId	path		string	true	"模块 ID"
//	@Param			t			query		string	false	"文件类型，all 表示不过滤"
//	@Success		200			{array}		types.FileInfo
//	@Failure		400			{object}	types.ErrorResponse
//	@Failure		404			{object}	types.ErrorResponse
//	@Router			/api/v1/file/{classId}/{moduleId} [get]
func ListFiles(c *gin.Context) {
	var q types.ListFilesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		writeError(c, err)

		return
	}

	files, err := service.NewFileService(env(c)).ListFiles(c.Request.Context(), c.Param("classId"), c.Param("moduleId"), q.Kind)
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, files)
}

// StreamFile 读取文件，视频支持单个 Range.
//
//	@Summary		读取文件
//	@Description	视频支持 Range: bytes=start-end，返回 206；其他类型整文件返回
//	@Tags			文件
//	@Produce		octet-stream
//	@Param			classId		path	string	true	"班级 ID"
//	@Param			moduleId	path	string	true	"模块 ID"
//	@Param			fileName	path	string	true	"存储文件名"
//	@Param			Range		header	string	false	"bytes=start-end"
//	@Success		200			{file}	file
//	@Success		206			{file}	file
//	@Failure		404			{object}	types.ErrorResponse
//	@Failure		416			{object}	types.ErrorResponse
//	@Router			/api/v1/file/{classId}/{moduleId}/{fileName} [get]
func StreamFile(c *gin.Context) {
	m, err := service.NewFileService(env(c)).OpenFile(c.Request.Context(),
		c.Param("classId"), c.Param("moduleId"), c.Param("fileName"))
	if err != nil {
		writeError(c, err)

		return
	}
	defer m.Close()

	serveMedia(c, m, m.Kind == configs.KindVideo)
}

// PreviewFile 读取预览图.
//
//	@Summary		读取预览图
//	@Tags			文件
//	@Produce		png
//	@Param			classId		path	string	true	"班级 ID"
//	@Param			previewFile	path	string	true	"预览图文件名"
//	@Success		200			{file}	file
//	@Failure		404			{object}	types.ErrorResponse
//	@Router			/api/v1/file/preview/{classId}/{previewFile} [get]
func PreviewFile(c *gin.Context) {
	m, err := service.NewFileService(env(c)).OpenPreview(c.Request.Context(), c.Param("classId"), c.Param("previewFile"))
	if err != nil {
		writeError(c, err)

		return
	}
	defer m.Close()

	serveMedia(c, m, false)
}

// HLSFile 读取 HLS 播放列表或分片.
//
//	@Summary		读取 HLS 播放列表或分片
//	@Tags			文件
//	@Produce		octet-stream
//	@Param			classId	path	string	true	"班级 ID"
//	@Param			name	path	string	true	"<base>.m3u8 或 <base>_NNN.ts"
//	@Success		200		{file}	file
//	@Failure		404		{object}	types.ErrorResponse
//	@Router			/api/v1/file/hls/{classId}/{name} [get]
func HLSFile(c *gin.Context) {
	m, err := service.NewFileService(env(c)).OpenHLS(c.Request.Context(), c.Param("classId"), c.Param("name"))
	if err != nil {
		writeError(c, err)

		return
	}
	defer m.Close()

	serveMedia(c, m, false)
}

// DeleteFile 删除文件行、释放配额并清理磁盘.
//
//	@Summary		删除文件
//	@Tags			文件
//	@Produce		json
//	@Param			classId		path		string	true	"班级 ID"
//	@Param			moduleId	path		string	true	"模块 ID"
//	@Param			fileId		path		string	true	"文件 ID"
//	@Success		200			{object}	types.DeleteFileResponse
//	@Failure		404			{object}	types.ErrorResponse
//	@Router			/api/v1/file/{classId}/{moduleId}/{fileId} [delete]
func DeleteFile(c *gin.Context) {
	resp, err := service.NewCleaner(env(c)).DeleteFile(c.Request.Context(),
		c.Param("classId"), c.Param("moduleId"), c.Param("fileId"))
	if err != nil {
		writeError(c, err)

		return
	}

	c.JSON(http.StatusOK, resp)
}

// serveMedia 写出文件内容，ranged 为 true 时处理 Range 请求头.
func serveMedia(c *gin.Context, m *service.Media, ranged bool) {
	contentType := mime.TypeByExtension(filepath.Ext(m.Name))
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	if m.Checksum != "" {
		etag := `"` + m.Checksum + `"`
		c.Header("ETag", etag)

		if c.GetHeader("If-None-Match") == etag {
			countStream(http.StatusNotModified)
			c.Status(http.StatusNotModified)

			return
		}
	}

	c.Header("Last-Modified", m.Info.ModTime().UTC().Format(http.TimeFormat))

	if !ranged {
		countStream(http.StatusOK)
		c.DataFromReader(http.StatusOK, m.Size, contentType, m.File, nil)

		return
	}

	c.Header("Accept-Ranges", "bytes")

	r, err := service.ParseRange(c.GetHeader("Range"), m.Size)
	if err != nil {
		if errors.Is(err, service.ErrRangeNotSatisfiable) {
			c.Header("Content-Range", service.UnsatisfiedRange(m.Size))
		}

		countStream(statusOf(err))
		writeError(c, err)

		return
	}

	if r == nil {
		countStream(http.StatusOK)
		c.DataFromReader(http.StatusOK, m.Size, contentType, m.File, nil)

		return
	}

	countStream(http.StatusPartialContent)
	c.Header("Content-Range", r.ContentRange(m.Size))
	c.DataFromReader(http.StatusPartialContent, r.Length(), contentType,
		io.NewSectionReader(m.File, r.Start, r.Length()), nil)
}

func countStream(status int) {
	metrics.RangeResponses.WithLabelValues(strconv.Itoa(status)).Inc()
}
