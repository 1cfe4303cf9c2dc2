// Package jobs 注册媒体目录的定时任务.
package jobs

import (
	"context"
	"errors"
	"time"

	"github.com/yeisme/classmedia/pkg/internal/service"
	"github.com/yeisme/classmedia/pkg/log"
	"github.com/yeisme/classmedia/pkg/scheduler"
)

// 任务名称.
const (
	JobDiskSweep = "jobs.disk.sweep"
)

// Register 注册定时任务，sweep.enabled 为 false 时不注册.
func Register(sched *scheduler.Scheduler, env *service.Env) error {
	if sched == nil {
		return errors.New("scheduler is nil")
	}

	if env == nil || env.DB == nil || env.Disk == nil {
		return errors.New("jobs: storage not initialized")
	}

	sweep := env.Cfg.Media.Sweep
	if !sweep.Enabled {
		log.Logger().Info().Str("job", JobDiskSweep).Msg("disabled")

		return nil
	}

	return sched.AddCron(JobDiskSweep, sweep.Cron, diskSweep(service.NewSweeper(env)))
}

// diskSweep 删除孤儿文件，结果写日志.
func diskSweep(s *service.Sweeper) scheduler.JobFunc {
	return func(ctx context.Context) error {
		start := time.Now()
		l := log.Logger().With().Str("job", JobDiskSweep).Logger()

		report, err := s.Run(ctx)
		if err != nil {
			l.Error().Err(err).Msg("sweep failed")

			return err
		}

		l.Info().
			Int("parts", report.Parts).
			Int("modules", report.Modules).
			Int("previews", report.Previews).
			Int("hls", report.HLS).
			Int("failed", report.Failed).
			Dur("elapsed", time.Since(start)).
			Msg("sweep done")

		return nil
	}
}
