package service

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/metrics"
	"github.com/yeisme/classmedia/pkg/queue"
	"github.com/yeisme/classmedia/pkg/tracing"
)

const (
	claimPrefix = "preview:claim:"

	artifactPreview  = "preview"
	artifactPlaylist = "playlist"
)

// PreviewService 为已提交的视频生成预览图与可选的 HLS 播放列表.
// 每个文件最多处理一次：KV 占位去重，写库时只更新仍为 NULL 的列.
type PreviewService struct {
	env *Env
	tc  Transcoder
}

// NewPreviewService 创建 PreviewService.
func NewPreviewService(env *Env, tc Transcoder) *PreviewService {
	return &PreviewService{env: env, tc: tc}
}

// Generate 处理一次 committed 事件. 返回的错误只用于日志，调用方不应重试.
func (s *PreviewService) Generate(ctx context.Context, ref queue.FileRef) (err error) {
	media := &s.env.Cfg.Media

	if ref.Kind != configs.KindVideo || (!media.Preview.Enabled && !media.HLS.Enabled) {
		metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultSkipped).Inc()

		return nil
	}

	ctx, span := tracing.StartSpan(ctx, "media.preview", attribute.String("file.id", ref.ID))
	defer func() { tracing.End(span, err) }()

	l := s.env.logger(ctx, "preview").With().Str("file", ref.ID).Logger()

	if !s.claim(ctx, ref.ID) {
		l.Debug().Msg("duplicate delivery dropped")
		metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultSkipped).Inc()

		return nil
	}

	in, err := s.env.Disk.Path(disk.Modules, ref.Filename)
	if err != nil {
		return err
	}

	var errs []error

	var done queue.FilePreviewedPayload

	if media.Preview.Enabled {
		name, err := s.thumbnail(ctx, ref.ID, in)
		if err != nil {
			errs = append(errs, err)
		}

		done.Preview = name
	}

	if media.HLS.Enabled {
		name, err := s.playlist(ctx, ref.ID, in, (&model.File{Filename: ref.Filename}).Base())
		if err != nil {
			errs = append(errs, err)
		}

		done.Playlist = name
	}

	if done.Preview != "" || done.Playlist != "" {
		s.env.invalidateFiles(ctx, ref.ClassID, ref.ModuleID)

		done.File = ref
		s.env.publishPreviewed(ctx, done)
	}

	if err := errors.Join(errs...); err != nil {
		l.Warn().Err(err).Msg("preview generation failed")

		return err
	}

	return nil
}

// claim 占位成功才继续. KV 不可用时依赖数据库条件更新保证幂等.
func (s *PreviewService) claim(ctx context.Context, fileID string) bool {
	if s.env.KV == nil {
		return true
	}

	ok, err := s.env.KV.SetNX(ctx, claimPrefix+fileID, []byte("1"), s.env.Cfg.KV.ClaimTTL)
	if err != nil {
		l := s.env.logger(ctx, "preview")
		l.Warn().Err(err).Str("file", fileID).Msg("claim failed, continuing")

		return true
	}

	return ok
}

// thumbnail 截图并写入 files.preview，文件已删除或已有预览时删除产物.
func (s *PreviewService) thumbnail(ctx context.Context, fileID, in string) (string, error) {
	name := model.NewID() + ".png"

	out, err := s.env.Disk.Path(disk.Previews, name)
	if err != nil {
		return "", err
	}

	if err := s.tc.Thumbnail(ctx, in, out, s.env.Cfg.Media.Preview.Timemark); err != nil {
		_ = disk.RemovePath(out)

		metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultError).Inc()

		return "", fmt.Errorf("thumbnail: %w", err)
	}

	ok, err := s.complete(ctx, fileID, "preview", name)
	if err != nil || !ok {
		_ = disk.RemovePath(out)

		if err != nil {
			metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultError).Inc()

			return "", err
		}

		metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultSkipped).Inc()

		return "", nil
	}

	metrics.Previews.WithLabelValues(artifactPreview, metrics.ResultOK).Inc()

	return name, nil
}

// playlist 生成 480p HLS 并写入 files.playlist，原文件与 filename 不变.
func (s *PreviewService) playlist(ctx context.Context, fileID, in, base string) (string, error) {
	removeAll := func() {
		files, _ := s.env.Disk.HLSFiles(base)
		for _, p := range files {
			_ = disk.RemovePath(p)
		}
	}

	name, err := s.tc.HLS(ctx, in, s.env.Disk.Dir(disk.HLS), base)
	if err != nil {
		removeAll()
		metrics.Previews.WithLabelValues(artifactPlaylist, metrics.ResultError).Inc()

		return "", fmt.Errorf("hls: %w", err)
	}

	ok, err := s.complete(ctx, fileID, "playlist", name)
	if err != nil || !ok {
		removeAll()

		if err != nil {
			metrics.Previews.WithLabelValues(artifactPlaylist, metrics.ResultError).Inc()

			return "", err
		}

		metrics.Previews.WithLabelValues(artifactPlaylist, metrics.ResultSkipped).Inc()

		return "", nil
	}

	metrics.Previews.WithLabelValues(artifactPlaylist, metrics.ResultOK).Inc()

	return name, nil
}

// complete 仅当列仍为 NULL 时写入，返回是否写入.
func (s *PreviewService) complete(ctx context.Context, fileID, column, value string) (bool, error) {
	var res *gorm.DB

	switch column {
	case "preview":
		res = s.env.db(ctx).Model(&model.File{}).
			Where("id = ? AND preview IS NULL", fileID).
			UpdateColumn("preview", value)
	case "playlist":
		res = s.env.db(ctx).Model(&model.File{}).
			Where("id = ? AND playlist IS NULL", fileID).
			UpdateColumn("playlist", value)
	default:
		return false, fmt.Errorf("unknown artifact column %q", column)
	}

	if res.Error != nil {
		return false, res.Error
	}

	return res.RowsAffected == 1, nil
}
