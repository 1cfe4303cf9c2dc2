package service

import (
	"context"
	"fmt"

	"github.com/yeisme/classmedia/pkg/cache"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

const filesCachePrefix = "files:"

// filesCacheKey 每个模块的完整文件列表，类型过滤在读缓存之后.
func filesCacheKey(classID, moduleID string) string {
	return fmt.Sprintf("%s%s:%s", filesCachePrefix, classID, moduleID)
}

// invalidateFiles 提交、删除与预览完成后调用，缓存失败只记日志.
func (e *Env) invalidateFiles(ctx context.Context, classID, moduleID string) {
	if e.Cache == nil {
		return
	}

	if err := e.Cache.Delete(ctx, filesCacheKey(classID, moduleID)); err != nil {
		l := e.logger(ctx, "cache")
		l.Warn().Err(err).Str("class", classID).Str("module", moduleID).Msg("invalidate file list failed")
	}
}

// ListFiles 按创建时间倒序列出模块内的文件，kind 为空或 all 时不过滤.
func (s *FileService) ListFiles(ctx context.Context, classID, moduleID, kind string) ([]types.FileInfo, error) {
	accepted := s.media().AcceptedKinds(kind)
	if accepted == nil {
		return nil, invalid("t", fmt.Sprintf("unknown file kind %q", kind))
	}

	if _, err := s.module(ctx, s.env.db(ctx), classID, moduleID); err != nil {
		return nil, err
	}

	load := func() ([]types.FileInfo, error) {
		var files []model.File
		if err := s.env.db(ctx).
			Where("module_id = ?", moduleID).
			Order("created_at DESC").Order("id DESC").
			Find(&files).Error; err != nil {
			return nil, err
		}

		out := make([]types.FileInfo, 0, len(files))
		for i := range files {
			out = append(out, s.FileInfo(&files[i]))
		}

		return out, nil
	}

	var (
		all []types.FileInfo
		err error
	)

	if s.env.Cache != nil {
		all, err = cache.GetOrSet(ctx, s.env.Cache, filesCacheKey(classID, moduleID), load, s.env.Cfg.KV.ListTTL)
	} else {
		all, err = load()
	}

	if err != nil {
		return nil, err
	}

	if len(accepted) == len(s.media().Kinds) {
		return all, nil
	}

	out := make([]types.FileInfo, 0, len(all))

	for _, f := range all {
		for _, k := range accepted {
			if f.Kind == k {
				out = append(out, f)

				break
			}
		}
	}

	return out, nil
}

// FileInfo 文件的响应结构.
func (s *FileService) FileInfo(f *model.File) types.FileInfo {
	return types.FileInfo{
		ID:        f.ID,
		ModuleID:  f.ModuleID,
		Title:     f.Title,
		Filename:  f.Filename,
		Kind:      s.media().KindOf(f.Ext()),
		Preview:   f.Preview,
		Playlist:  f.Playlist,
		FileSize:  f.FileSize,
		Checksum:  f.Checksum,
		CreatedAt: f.CreatedAt,
	}
}
