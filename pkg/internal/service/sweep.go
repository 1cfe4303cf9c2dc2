package service

import (
	"context"
	"strings"
	"time"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/metrics"
)

// 单次 IN 查询的名称数.
const sweepBatch = 500

// SweepReport 一次清理的结果.
type SweepReport struct {
	Parts    int `json:"parts"`
	Modules  int `json:"modules"`
	Previews int `json:"previews"`
	HLS      int `json:"hls"`
	Failed   int `json:"failed"`
}

// Removed 删除的文件总数.
func (r *SweepReport) Removed() int { return r.Parts + r.Modules + r.Previews + r.HLS }

// Sweeper 删除没有对应文件行的磁盘文件，不修改 ledger.
// 只处理修改时间早于 min_age 的文件，进行中的上传不受影响.
type Sweeper struct {
	env *Env
	now func() time.Time
}

// NewSweeper 创建 Sweeper.
func NewSweeper(env *Env) *Sweeper {
	return &Sweeper{env: env, now: time.Now}
}

// Run 扫描三个媒体目录.
func (s *Sweeper) Run(ctx context.Context) (*SweepReport, error) {
	cutoff := s.now().Add(-s.env.Cfg.Media.Sweep.MinAge)
	report := &SweepReport{}
	l := s.env.logger(ctx, "sweep")

	remove := func(e disk.Entry, counter *int) {
		if err := disk.RemovePath(e.Path); err != nil {
			report.Failed++

			l.Warn().Err(err).Str("path", e.Path).Msg("remove orphan failed")

			return
		}

		*counter++

		metrics.SweptFiles.WithLabelValues(e.Area.String()).Inc()
	}

	areas := []struct {
		area    disk.Area
		column  string
		counter *int
		// key 返回用于查库的名称，空串表示跳过
		key func(name string) string
	}{
		{disk.Modules, "filename", &report.Modules, func(n string) string { return n }},
		{disk.Previews, "preview", &report.Previews, func(n string) string { return n }},
		{disk.HLS, "playlist", &report.HLS, hlsPlaylistName},
	}

	for _, a := range areas {
		entries, err := s.env.Disk.Scan(a.area)
		if err != nil {
			return report, err
		}

		var candidates []disk.Entry

		for _, e := range entries {
			if !e.ModTime.Before(cutoff) {
				continue
			}

			if a.area == disk.Modules && strings.HasSuffix(e.Name, disk.PartSuffix) {
				remove(e, &report.Parts)

				continue
			}

			if a.key(e.Name) != "" {
				candidates = append(candidates, e)
			}
		}

		known, err := s.referenced(ctx, a.column, candidates, a.key)
		if err != nil {
			return report, err
		}

		for _, e := range candidates {
			if !known[a.key(e.Name)] {
				remove(e, a.counter)
			}
		}
	}

	return report, nil
}

// referenced 返回在 files.<column> 中出现过的名称.
func (s *Sweeper) referenced(ctx context.Context, column string, entries []disk.Entry, key func(string) string) (map[string]bool, error) {
	known := make(map[string]bool, len(entries))

	for i := 0; i < len(entries); i += sweepBatch {
		batch := entries[i:min(i+sweepBatch, len(entries))]

		names := make([]string, 0, len(batch))
		for _, e := range batch {
			names = append(names, key(e.Name))
		}

		var found []string
		if err := s.env.db(ctx).Model(&model.File{}).
			Where(column+" IN ?", names).
			Pluck(column, &found).Error; err != nil {
			return nil, err
		}

		for _, n := range found {
			known[n] = true
		}
	}

	return known, nil
}

// hlsPlaylistName 播放列表或分片对应的播放列表文件名.
func hlsPlaylistName(name string) string {
	if strings.HasSuffix(name, ".m3u8") {
		return name
	}

	if base, ok := strings.CutSuffix(name, ".ts"); ok {
		if i := strings.LastIndexByte(base, '_'); i > 0 {
			return base[:i] + ".m3u8"
		}
	}

	return ""
}
