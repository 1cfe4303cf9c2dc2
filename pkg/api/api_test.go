package api

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/router"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

const userHeader = "X-Auth-Request-User"

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	mgr    *storage.Manager
}

func apiPath(p string) string { return router.APIPrefix + p }

func newTestServer(t *testing.T, opts ...func(*configs.AppConfig)) *testServer {
	t.Helper()

	gin.SetMode(gin.TestMode)

	cfg := configs.Defaults()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(t.TempDir(), "classmedia")
	cfg.Media.Root = t.TempDir()
	cfg.MQ.Type = configs.MQTypeMemory
	cfg.MQ.EnableMetrics = false
	cfg.Metrics.Enabled = false
	cfg.RateLimit.Enabled = false
	cfg.Events.Enabled = false
	cfg.Media.Sweep.Enabled = false

	for _, opt := range opts {
		opt(&cfg)
	}

	prev := *configs.GetConfig()
	configs.SetConfig(cfg)
	t.Cleanup(func() { configs.SetConfig(prev) })

	ctx := context.Background()

	mgr, err := storage.Open(ctx, configs.GetConfig())
	require.NoError(t, err)
	t.Cleanup(func() { _ = mgr.Close() })

	require.NoError(t, model.Migrate(ctx, mgr.GetDBClient().GetDB()))

	return &testServer{t: t, engine: NewEngine(configs.GetConfig(), mgr, nil), mgr: mgr}
}

func (s *testServer) seedClass(plan string, payedOn time.Time) string {
	s.t.Helper()

	c := &model.Class{ID: model.NewID(), Owner: "teacher", PlanID: plan, PayedOn: &payedOn}
	require.NoError(s.t, s.mgr.GetDBClient().GetDB().Create(c).Error)

	return c.ID
}

func (s *testServer) do(req *http.Request, user string) *httptest.ResponseRecorder {
	s.t.Helper()

	if user != "" {
		req.Header.Set(userHeader, user)
	}

	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	return w
}

func (s *testServer) createModule(classID, title string) string {
	s.t.Helper()

	body := strings.NewReader(`{"title":"` + title + `"}`)
	req := httptest.NewRequest(http.MethodPost, apiPath("/module/"+classID), body)
	req.Header.Set("Content-Type", "application/json")

	w := s.do(req, "teacher")
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())

	var m model.Module
	require.NoError(s.t, sonic.Unmarshal(w.Body.Bytes(), &m))

	return m.ID
}

func uploadRequest(t *testing.T, classID, moduleID, filename string, size int) *http.Request {
	t.Helper()

	var buf bytes.Buffer

	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("title", "lecture 1"))

	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = fw.Write(bytes.Repeat([]byte{'v'}, size))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, apiPath("/file/"+classID+"/"+moduleID), &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return req
}

func TestUploadAndStreamRanges(t *testing.T) {
	s := newTestServer(t)
	classID := s.seedClass(configs.PlanStandard, time.Now())
	moduleID := s.createModule(classID, "week 1")

	w := s.do(uploadRequest(t, classID, moduleID, "intro.mp4", 1000), "teacher")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var up types.UploadFileResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &up))
	assert.Equal(t, int64(1000), up.File.FileSize)
	assert.Equal(t, configs.KindVideo, up.File.Kind)

	streamURL := apiPath("/file/" + classID + "/" + moduleID + "/" + up.File.Filename)

	t.Run("partial", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, streamURL, nil)
		req.Header.Set("Range", "bytes=0-99")

		w := s.do(req, "student")
		assert.Equal(t, http.StatusPartialContent, w.Code)
		assert.Equal(t, "bytes 0-99/1000", w.Header().Get("Content-Range"))
		assert.Equal(t, "100", w.Header().Get("Content-Length"))
		assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
		assert.Equal(t, 100, w.Body.Len())
	})

	t.Run("unsatisfiable", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, streamURL, nil)
		req.Header.Set("Range", "bytes=2000-")

		w := s.do(req, "student")
		assert.Equal(t, http.StatusRequestedRangeNotSatisfiable, w.Code)
		assert.Equal(t, "bytes */1000", w.Header().Get("Content-Range"))
	})

	t.Run("whole file", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, streamURL, nil), "student")
		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, 1000, w.Body.Len())
		assert.Equal(t, "bytes", w.Header().Get("Accept-Ranges"))
	})

	t.Run("not modified", func(t *testing.T) {
		etag := s.do(httptest.NewRequest(http.MethodGet, streamURL, nil), "student").Header().Get("ETag")
		if etag == "" {
			t.Skip("checksum disabled")
		}

		req := httptest.NewRequest(http.MethodGet, streamURL, nil)
		req.Header.Set("If-None-Match", etag)

		assert.Equal(t, http.StatusNotModified, s.do(req, "student").Code)
	})

	t.Run("missing file", func(t *testing.T) {
		url := apiPath("/file/" + classID + "/" + moduleID + "/nope.mp4")
		assert.Equal(t, http.StatusNotFound, s.do(httptest.NewRequest(http.MethodGet, url, nil), "student").Code)
	})

	t.Run("storage", func(t *testing.T) {
		w := s.do(httptest.NewRequest(http.MethodGet, apiPath("/class/"+classID+"/storage"), nil), "student")
		require.Equal(t, http.StatusOK, w.Code)

		var info types.StorageInfo
		require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &info))
		assert.Equal(t, int64(1000), info.Used)
		assert.True(t, info.PlanActive)
	})
}

func TestUploadAccess(t *testing.T) {
	s := newTestServer(t)
	classID := s.seedClass(configs.PlanStandard, time.Now())
	moduleID := s.createModule(classID, "week 1")

	t.Run("anonymous", func(t *testing.T) {
		w := s.do(uploadRequest(t, classID, moduleID, "a.mp4", 10), "")
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("not owner", func(t *testing.T) {
		w := s.do(uploadRequest(t, classID, moduleID, "a.mp4", 10), "student")
		assert.Equal(t, http.StatusForbidden, w.Code)
	})

	t.Run("unknown class", func(t *testing.T) {
		w := s.do(uploadRequest(t, "missing", moduleID, "a.mp4", 10), "teacher")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("wrong extension", func(t *testing.T) {
		w := s.do(uploadRequest(t, classID, moduleID, "notes.exe", 10), "teacher")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestUploadLapsedPlan(t *testing.T) {
	s := newTestServer(t)
	classID := s.seedClass(configs.PlanStandard, time.Now().AddDate(0, -3, 0))
	moduleID := s.createModule(classID, "week 1")

	w := s.do(uploadRequest(t, classID, moduleID, "intro.mp4", 10), "teacher")
	assert.Equal(t, http.StatusPaymentRequired, w.Code)

	var resp types.ErrorResponse
	require.NoError(t, sonic.Unmarshal(w.Body.Bytes(), &resp))
	assert.Contains(t, resp.Error, "upgrade to paid plan")
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	for _, p := range []string{"/health/db", "/health/mq", "/health/kv", "/health/disk"} {
		w := s.do(httptest.NewRequest(http.MethodGet, apiPath(p), nil), "")
		assert.Equal(t, http.StatusOK, w.Code, p)
	}
}

func TestSchedulerUnavailable(t *testing.T) {
	s := newTestServer(t, func(cfg *configs.AppConfig) { cfg.Auth.Admins = []string{"ops"} })

	w := s.do(httptest.NewRequest(http.MethodGet, apiPath("/scheduler/jobs"), nil), "student")
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = s.do(httptest.NewRequest(http.MethodGet, apiPath("/scheduler/jobs"), nil), "ops")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
