// Package scheduler 基于 gocron/v2 的定时任务调度，记录每个任务的运行状态供管理接口查看.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/yeisme/classmedia/pkg/log"
)

// ErrJobNotFound 任务不存在.
var ErrJobNotFound = errors.New("scheduler: job not found")

// JobStatus 任务状态.
type JobStatus string

const (
	StatusScheduled JobStatus = "scheduled"
	StatusRunning   JobStatus = "running"
	StatusError     JobStatus = "error"
)

// JobFunc 任务函数，返回的错误记录到 JobInfo.
type JobFunc func(ctx context.Context) error

// JobInfo 任务信息.
type JobInfo struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	CronExpr    string    `json:"cron_expr"`
	NextRun     time.Time `json:"next_run"`
	LastRun     time.Time `json:"last_run"`
	LastSuccess time.Time `json:"last_success,omitempty"`
	LastElapsed string    `json:"last_elapsed,omitempty"`
	Runs        int64     `json:"runs"`
	Status      JobStatus `json:"status"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type entry struct {
	job  gocron.Job
	info JobInfo
}

// Scheduler 定时任务调度器.
type Scheduler struct {
	scheduler gocron.Scheduler
	mu        sync.RWMutex
	jobs      map[string]*entry // 以任务名称为键
	logger    zerolog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
}

// NewScheduler 创建调度器，任务 ctx 在 Stop 时取消.
func NewScheduler(opts ...gocron.SchedulerOption) (*Scheduler, error) {
	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		scheduler: s,
		jobs:      make(map[string]*entry),
		logger:    log.Logger().With().Str("component", "scheduler").Logger(),
		ctx:       ctx,
		cancel:    cancel,
	}, nil
}

// AddCron 添加 cron 任务，同一任务不会并发执行.
func (s *Scheduler) AddCron(name, cronExpr string, job JobFunc) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.jobs[name]; exists {
		return fmt.Errorf("job with name %s already exists", name)
	}

	j, err := s.scheduler.NewJob(
		gocron.CronJob(cronExpr, false),
		gocron.NewTask(func() { s.run(name, job) }),
		gocron.WithName(name),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("add job %s: %w", name, err)
	}

	s.jobs[name] = &entry{job: j, info: JobInfo{
		ID:        j.ID().String(),
		Name:      name,
		CronExpr:  cronExpr,
		Status:    StatusScheduled,
		CreatedAt: time.Now(),
	}}

	s.logger.Info().Str("job", name).Str("cron", cronExpr).Msg("added cron job")

	return nil
}

// run 执行任务并记录状态，panic 记为错误.
func (s *Scheduler) run(name string, job JobFunc) {
	start := time.Now()
	s.update(name, func(i *JobInfo) {
		i.Status = StatusRunning
		i.LastRun = start
	})

	var err error

	func() {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic in job: %v", r)
			}
		}()

		err = job(s.ctx)
	}()

	elapsed := time.Since(start)

	s.update(name, func(i *JobInfo) {
		i.Runs++
		i.LastElapsed = elapsed.String()

		if err != nil {
			i.Status = StatusError
			i.Error = err.Error()

			return
		}

		i.Status = StatusScheduled
		i.Error = ""
		i.LastSuccess = time.Now()
	})

	ev := s.logger.Info()
	if err != nil {
		ev = s.logger.Error().Err(err)
	}

	ev.Str("job", name).Dur("elapsed", elapsed).Msg("job finished")
}

func (s *Scheduler) update(name string, fn func(*JobInfo)) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if e, ok := s.jobs[name]; ok {
		fn(&e.info)
	}
}

// RunNow 立即触发一次任务.
func (s *Scheduler) RunNow(name string) error {
	s.mu.RLock()
	e, ok := s.jobs[name]
	s.mu.RUnlock()

	if !ok {
		return ErrJobNotFound
	}

	return e.job.RunNow()
}

// RemoveJobByName 通过名称移除任务.
func (s *Scheduler) RemoveJobByName(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, exists := s.jobs[name]
	if !exists {
		return ErrJobNotFound
	}

	if err := s.scheduler.RemoveJob(e.job.ID()); err != nil {
		return err
	}

	delete(s.jobs, name)
	s.logger.Info().Str("job", name).Msg("removed job")

	return nil
}

// RemoveJob 通过 ID 移除任务.
func (s *Scheduler) RemoveJob(id string) error {
	uid, err := uuid.Parse(id)
	if err != nil {
		return ErrJobNotFound
	}

	s.mu.RLock()

	var name string

	for n, e := range s.jobs {
		if e.job.ID() == uid {
			name = n

			break
		}
	}
	s.mu.RUnlock()

	if name == "" {
		return ErrJobNotFound
	}

	return s.RemoveJobByName(name)
}

// GetJobInfoByName 通过名称获取任务信息.
func (s *Scheduler) GetJobInfoByName(name string) (JobInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.jobs[name]
	if !exists {
		return JobInfo{}, ErrJobNotFound
	}

	return s.snapshot(e), nil
}

// GetJobInfos 返回所有任务信息，按名称排序.
func (s *Scheduler) GetJobInfos() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]JobInfo, 0, len(s.jobs))
	for _, e := range s.jobs {
		out = append(out, s.snapshot(e))
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })

	return out
}

func (s *Scheduler) snapshot(e *entry) JobInfo {
	info := e.info
	if next, err := e.job.NextRun(); err == nil {
		info.NextRun = next
	}

	return info
}

// Start 启动调度器.
func (s *Scheduler) Start() {
	s.logger.Info().Int("jobs", len(s.jobs)).Msg("starting scheduler")
	s.scheduler.Start()
}

// Stop 取消运行中任务的 ctx 并等待调度器退出.
func (s *Scheduler) Stop() error {
	s.logger.Info().Msg("stopping scheduler")
	s.cancel()

	return s.scheduler.Shutdown()
}
