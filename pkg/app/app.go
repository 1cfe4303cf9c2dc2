// Package app 负责服务的初始化、运行与优雅退出.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/yeisme/classmedia/pkg/api"
	"github.com/yeisme/classmedia/pkg/configs"
	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/jobs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/internal/storage"
	"github.com/yeisme/classmedia/pkg/internal/worker"
	"github.com/yeisme/classmedia/pkg/log"
	"github.com/yeisme/classmedia/pkg/metrics"
	"github.com/yeisme/classmedia/pkg/scheduler"
	"github.com/yeisme/classmedia/pkg/tracing"
)

// App 持有服务运行期间的全部资源.
type App struct {
	Engine  *gin.Engine
	config  *configs.AppConfig
	manager *storage.Manager
	sched   *scheduler.Scheduler
	worker  *worker.Worker
	server  *http.Server
}

// New 初始化追踪、指标、存储、调度器与预览 worker. 配置需已加载.
func New(ctx context.Context) (*App, error) {
	config := configs.GetConfig()

	l := log.Logger()
	gin.DefaultWriter = log.NewGinWriter(l, zerolog.InfoLevel)
	gin.DefaultErrorWriter = log.NewGinWriter(l, zerolog.ErrorLevel)

	if err := tracing.InitTracer(config.Tracing); err != nil {
		return nil, fmt.Errorf("init tracing: %w", err)
	}

	if err := metrics.InitMetrics(config.Metrics); err != nil {
		return nil, fmt.Errorf("init metrics: %w", err)
	}

	manager, err := storage.Init(ctx)
	if err != nil {
		return nil, fmt.Errorf("init storage: %w", err)
	}

	a := &App{config: config, manager: manager}

	if err := model.Migrate(ctx, manager.GetDBClient().GetDB()); err != nil {
		_ = a.close(ctx)

		return nil, err
	}

	env := service.FromContext(ctxPkg.WithStorageManager(ctx, manager))

	if a.sched, err = scheduler.NewScheduler(); err != nil {
		_ = a.close(ctx)

		return nil, fmt.Errorf("init scheduler: %w", err)
	}

	if err := jobs.Register(a.sched, env); err != nil {
		_ = a.close(ctx)

		return nil, fmt.Errorf("register jobs: %w", err)
	}

	if config.Media.Preview.Enabled || config.Media.HLS.Enabled {
		previews := service.NewPreviewService(env, service.NewFFmpegTranscoder(&config.Media))
		if a.worker, err = worker.New(manager.GetMQClient(), previews); err != nil {
			_ = a.close(ctx)

			return nil, fmt.Errorf("init preview worker: %w", err)
		}
	}

	a.Engine = api.NewEngine(config, manager, a.sched)
	a.server = &http.Server{
		Addr:    config.Server.Addr(),
		Handler: a.Engine,
		// 上传与视频流可能持续很久，只限制请求头
		ReadHeaderTimeout: config.Server.GetTimeoutDuration(),
	}

	return a, nil
}

// Run 启动 HTTP 服务，收到 SIGINT/SIGTERM 或 ctx 取消后优雅退出.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	l := log.Logger()

	a.sched.Start()

	if a.worker != nil {
		go func() {
			if err := a.worker.Run(ctx); err != nil {
				l.Error().Err(err).Msg("preview worker stopped")
			}
		}()
	}

	serveErr := make(chan error, 1)

	go func() {
		l.Info().Str("addr", a.server.Addr).Str("version", configs.AppVersion).Msg("http server listening")

		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}

		close(serveErr)
	}()

	var runErr error

	select {
	case <-ctx.Done():
		l.Info().Msg("shutting down")
	case runErr = <-serveErr:
		l.Error().Err(runErr).Msg("http server failed")
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.config.Server.GetShutdownWait())
	defer cancel()

	return errors.Join(runErr, a.shutdown(shutdownCtx))
}

// shutdown 依次关闭 HTTP、调度器、worker 与存储，最后刷新追踪数据.
func (a *App) shutdown(ctx context.Context) error {
	var errs []error

	if a.server != nil {
		errs = append(errs, a.server.Shutdown(ctx))
	}

	errs = append(errs, a.close(ctx))

	return errors.Join(errs...)
}

func (a *App) close(ctx context.Context) error {
	var errs []error

	if a.sched != nil {
		errs = append(errs, a.sched.Stop())
	}

	if a.worker != nil {
		errs = append(errs, a.worker.Close())
	}

	errs = append(errs, a.manager.Close(), tracing.ShutdownTracer(ctx))

	return errors.Join(errs...)
}
