package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/internal/storage/db"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func do(r http.Handler, method, target string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	return w
}

func ok(c *gin.Context) { c.String(http.StatusOK, Actor(c)) }

func TestAuthMiddleware(t *testing.T) {
	conf := configs.Defaults().Auth
	conf.Enabled = true
	conf.SkipPaths = []string{"/health"}

	r := gin.New()
	r.Use(AuthMiddleware(conf))
	r.GET("/who", ok)
	r.GET("/health", ok)

	w := do(r, http.MethodGet, "/who", map[string]string{"X-Auth-Request-User": "alice"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "alice", w.Body.String())

	w = do(r, http.MethodGet, "/who", map[string]string{"X-Forwarded-User": "bob"})
	assert.Equal(t, "bob", w.Body.String())

	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/who", nil).Code)
	assert.Equal(t, http.StatusUnauthorized, do(r, http.MethodGet, "/who?user=eve", nil).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", nil).Code)

	conf.DevAllowQuery = true
	dev := gin.New()
	dev.Use(AuthMiddleware(conf))
	dev.GET("/who", ok)

	w = do(dev, http.MethodGet, "/who?user=eve", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "eve", w.Body.String())
}

func TestRateLimitByActor(t *testing.T) {
	auth := configs.Defaults().Auth
	auth.Enabled = false

	r := gin.New()
	r.Use(AuthMiddleware(auth), RateLimitMiddleware(configs.RateLimitConfig{
		Enabled: true, RPS: 0.001, Burst: 1, Key: "actor", SkipPaths: []string{"/health"},
	}))
	r.GET("/x", ok)
	r.GET("/health", ok)

	alice := map[string]string{"X-Auth-Request-User": "alice"}
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", alice).Code)
	assert.Equal(t, http.StatusTooManyRequests, do(r, http.MethodGet, "/x", alice).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/x", map[string]string{"X-Auth-Request-User": "bob"}).Code)

	for range 3 {
		assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/health", alice).Code)
	}
}

func TestKeyedLimitersEvictIdle(t *testing.T) {
	k := &keyedLimiters{rps: 1, burst: 1, entries: map[string]*limiterEntry{}}
	now := time.Now()

	assert.True(t, k.allow("a", now))
	assert.False(t, k.allow("a", now))

	later := now.Add(2 * limiterIdle)
	assert.True(t, k.allow("b", later))
	assert.NotContains(t, k.entries, "a")
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	r := gin.New()
	r.Use(CircuitBreakerMiddleware(configs.CircuitBreakerConfig{
		Enabled: true, FailureRate: 0.5, MinRequests: 2, Interval: time.Minute, OpenTimeout: time.Minute, HalfOpenMax: 1,
		SkipPaths: []string{"/health"},
	}))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusServiceUnavailable) })
	r.GET("/boom", func(c *gin.Context) { c.Status(http.StatusInternalServerError) })
	r.GET("/bad", func(c *gin.Context) { c.Status(http.StatusBadRequest) })

	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/bad", nil).Code)
	assert.Equal(t, http.StatusBadRequest, do(r, http.MethodGet, "/bad", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/boom", nil).Code)
	assert.Equal(t, http.StatusInternalServerError, do(r, http.MethodGet, "/boom", nil).Code)
	assert.Equal(t, http.StatusServiceUnavailable, do(r, http.MethodGet, "/bad", nil).Code)

	// 熔断打开后健康检查仍然直达处理器
	w := do(r, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Empty(t, w.Body.String())
}

// classRouter 临时 SQLite 上的班级路由，owner 为 teacher.
func classRouter(t *testing.T, payedOn *time.Time) (*gin.Engine, string) {
	t.Helper()

	cfg := configs.Defaults()
	cfg.DB.Type = configs.SQLite
	cfg.DB.Database = filepath.Join(t.TempDir(), "mw")
	cfg.Media.Root = t.TempDir()
	configs.SetConfig(cfg)

	dbc, err := db.New(context.Background(), &cfg.DB)
	require.NoError(t, err)
	t.Cleanup(func() { _ = dbc.Close() })
	require.NoError(t, model.Migrate(context.Background(), dbc.GetDB()))

	store, err := disk.New(&cfg.Media)
	require.NoError(t, err)

	class := &model.Class{ID: model.NewID(), Owner: "teacher", PlanID: configs.PlanStandard, PayedOn: payedOn}
	require.NoError(t, dbc.GetDB().Create(class).Error)

	auth := cfg.Auth
	auth.Enabled = true

	r := gin.New()
	r.Use(StorageMiddleware(&storage.Manager{DB: dbc, Disk: store}), AuthMiddleware(auth))
	r.GET("/read/:classId", RequireClassMember(), ok)
	r.POST("/write/:classId", RequireClassOwner(), RequireActivePlan(), ok)
	r.GET("/admin", RequireAdmin([]string{"root"}), ok)

	return r, class.ID
}

func TestClassAccess(t *testing.T) {
	now := time.Now()
	r, id := classRouter(t, &now)

	teacher := map[string]string{"X-Auth-Request-User": "teacher"}
	student := map[string]string{"X-Auth-Request-User": "student"}

	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/read/"+id, student).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodPost, "/write/"+id, teacher).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodPost, "/write/"+id, student).Code)
	assert.Equal(t, http.StatusNotFound, do(r, http.MethodGet, "/read/missing", student).Code)

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodGet, "/admin", teacher).Code)
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/admin", map[string]string{"X-Auth-Request-User": "root"}).Code)
}

func TestLapsedPlanIsPaymentRequired(t *testing.T) {
	lapsed := time.Now().Add(-90 * 24 * time.Hour)
	r, id := classRouter(t, &lapsed)

	w := do(r, http.MethodPost, "/write/"+id, map[string]string{"X-Auth-Request-User": "teacher"})
	assert.Equal(t, http.StatusPaymentRequired, w.Code)
	assert.Contains(t, w.Body.String(), "upgrade to paid plan")

	// 读取不受套餐影响
	assert.Equal(t, http.StatusOK, do(r, http.MethodGet, "/read/"+id, map[string]string{"X-Auth-Request-User": "s"}).Code)
}
