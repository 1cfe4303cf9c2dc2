// Package metrics 定义 HTTP 与媒体流水线的 prometheus 指标.
//
// 指标对象始终可用，未启用时只是不注册到 registry：
//
//	metrics.Uploads.WithLabelValues(metrics.ResultOK).Inc()
//	metrics.UploadedBytes.Add(float64(n))
package metrics

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/yeisme/classmedia/pkg/configs"
)

const namespace = configs.AppName

// 结果标签.
const (
	ResultOK       = "ok"
	ResultRejected = "rejected"
	ResultQuota    = "quota"
	ResultError    = "error"
	ResultSkipped  = "skipped"
)

var (
	// RequestCounter HTTP 请求计数.
	RequestCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	// RequestDuration HTTP 请求耗时.
	RequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ActiveConnections 进行中的请求数.
	ActiveConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_requests",
		Help:      "Number of in-flight requests",
	})

	// Uploads 上传结果.
	Uploads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploads_total",
		Help:      "Uploads by result",
	}, []string{"result"})

	// UploadedBytes 已提交的上传字节数.
	UploadedBytes = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "uploaded_bytes_total",
		Help:      "Bytes of committed uploads",
	})

	// QuotaRejections 配额拒绝，stage 为 precheck 或 reserve.
	QuotaRejections = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "quota_rejections_total",
		Help:      "Uploads rejected by the storage quota",
	}, []string{"stage"})

	// Previews 预览与 HLS 生成结果.
	Previews = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "previews_total",
		Help:      "Preview artifact generation by kind and result",
	}, []string{"artifact", "result"})

	// CleanupDiskFailures 行已删除但磁盘文件删除失败.
	CleanupDiskFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cleanup_disk_failures_total",
		Help:      "Artifacts that could not be unlinked after their row was deleted",
	})

	// RangeResponses 媒体流响应状态.
	RangeResponses = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "stream_responses_total",
		Help:      "Media stream responses by status code",
	}, []string{"status"})

	// SweptFiles 孤儿清理删除的文件.
	SweptFiles = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "swept_files_total",
		Help:      "Orphan files removed by the sweep job",
	}, []string{"area"})

	registry = prometheus.NewRegistry()
	initOnce sync.Once
)

func collectorsList() []prometheus.Collector {
	return []prometheus.Collector{
		RequestCounter, RequestDuration, ActiveConnections,
		Uploads, UploadedBytes, QuotaRejections, Previews,
		CleanupDiskFailures, RangeResponses, SweptFiles,
	}
}

// InitMetrics 注册指标，可重复调用.
func InitMetrics(cfg configs.MetricsConfig) error {
	if !cfg.Enabled {
		return nil
	}

	var err error

	initOnce.Do(func() {
		reg := prometheus.WrapRegistererWith(prometheus.Labels(cfg.Labels), registry)

		if cfg.RuntimeMetrics {
			registry.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
		}

		for _, c := range collectorsList() {
			if err = reg.Register(c); err != nil {
				return
			}
		}
	})

	return err
}

// Handler 合并本包 registry 与默认 registry（GORM 与 watermill 指标在后者）.
func Handler() http.Handler {
	return promhttp.HandlerFor(prometheus.Gatherers{registry, prometheus.DefaultGatherer}, promhttp.HandlerOpts{})
}

// Mount 在 engine 上挂载 /metrics 与可选的 pprof.
func Mount(cfg configs.MetricsConfig, engine *gin.Engine) {
	if !cfg.Enabled {
		return
	}

	path := cfg.Path
	if path == "" {
		path = "/metrics"
	}

	engine.GET(path, gin.WrapH(Handler()))

	if cfg.Pprof {
		engine.GET("/debug/pprof/*name", func(c *gin.Context) {
			switch name := strings.TrimPrefix(c.Param("name"), "/"); name {
			case "":
				pprof.Index(c.Writer, c.Request)
			case "cmdline":
				pprof.Cmdline(c.Writer, c.Request)
			case "profile":
				pprof.Profile(c.Writer, c.Request)
			case "symbol":
				pprof.Symbol(c.Writer, c.Request)
			case "trace":
				pprof.Trace(c.Writer, c.Request)
			default:
				pprof.Handler(name).ServeHTTP(c.Writer, c.Request)
			}
		})
	}
}

// GetRegistry 获取本包的 registry.
func GetRegistry() *prometheus.Registry {
	return registry
}
