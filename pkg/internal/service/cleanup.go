package service

import (
	"context"
	"errors"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/internal/types"
	"github.com/yeisme/classmedia/pkg/metrics"
	"github.com/yeisme/classmedia/pkg/queue"
	"github.com/yeisme/classmedia/pkg/tracing"
)

// 并行删除磁盘文件的上限.
const unlinkParallelism = 8

// Cleaner 删除文件行、归还配额并清理磁盘产物.
// 数据库提交后才删除磁盘文件，删除失败只计数，不回滚.
type Cleaner struct {
	env    *Env
	ledger Ledger
}

// NewCleaner 创建 Cleaner.
func NewCleaner(env *Env) *Cleaner {
	return &Cleaner{env: env}
}

// DeleteFile 删除单个文件. 重复删除返回 ErrNotFound，ledger 不变.
func (c *Cleaner) DeleteFile(ctx context.Context, classID, moduleID, fileID string) (resp *types.DeleteFileResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.delete_file", attribute.String("file.id", fileID))
	defer func() { tracing.End(span, err) }()

	var f model.File

	err = c.env.db(ctx).Transaction(func(tx *gorm.DB) error {
		err := tx.Model(&model.File{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Select("files.*").
			Joins("JOIN modules ON modules.id = files.module_id").
			Where("files.id = ? AND files.module_id = ? AND modules.class_id = ?", fileID, moduleID, classID).
			Take(&f).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("file", fileID)
		}

		if err != nil {
			return err
		}

		n, err := c.deleteRow(tx, &f)
		if err != nil {
			return err
		}

		if n == 0 {
			return notFound("file", fileID)
		}

		return c.ledger.Decrement(tx, classID, f.FileSize)
	})
	if err != nil {
		return nil, txError(err)
	}

	failures := c.removeArtifacts(ctx, []model.File{f})

	c.env.invalidateFiles(ctx, classID, moduleID)
	c.env.publishDeleted(ctx, queue.FileDeletedPayload{
		File: queue.FileRef{
			ID: f.ID, ClassID: classID, ModuleID: f.ModuleID, Filename: f.Filename,
			Kind: c.env.Cfg.Media.KindOf(f.Ext()), Size: f.FileSize, Checksum: f.Checksum,
		},
		DiskFailures: failures,
	})

	return &types.DeleteFileResponse{Deleted: f.ID, Freed: f.FileSize}, nil
}

// deleteRow 删除观看记录与文件行，返回删除的文件行数.
func (c *Cleaner) deleteRow(tx *gorm.DB, f *model.File) (int64, error) {
	if err := tx.Where("video_id = ?", f.ID).Delete(&model.VideoTracker{}).Error; err != nil {
		return 0, err
	}

	res := tx.Where("id = ?", f.ID).Delete(&model.File{})

	return res.RowsAffected, res.Error
}

// DeleteModule 删除模块及其全部文件，ledger 一次性扣减实际删除的字节数.
func (c *Cleaner) DeleteModule(ctx context.Context, classID, moduleID string) (resp *types.DeleteModuleResponse, err error) {
	ctx, span := tracing.StartSpan(ctx, "media.delete_module", attribute.String("module.id", moduleID))
	defer func() { tracing.End(span, err) }()

	var deleted []model.File

	var freed int64

	err = c.env.db(ctx).Transaction(func(tx *gorm.DB) error {
		// 排他锁等待进行中的上传提交，之后 Find 能看到它们的文件行
		if _, err := findModule(tx.Clauses(clause.Locking{Strength: "UPDATE"}), classID, moduleID); err != nil {
			return err
		}

		var files []model.File
		if err := tx.Where("module_id = ?", moduleID).Find(&files).Error; err != nil {
			return err
		}

		for i := range files {
			n, err := c.deleteRow(tx, &files[i])
			if err != nil {
				return err
			}

			if n == 1 {
				freed += files[i].FileSize
				deleted = append(deleted, files[i])
			}
		}

		if err := c.ledger.Decrement(tx, classID, freed); err != nil {
			return err
		}

		res := tx.Where("id = ? AND class_id = ?", moduleID, classID).Delete(&model.Module{})
		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 0 {
			return notFound("module", moduleID)
		}

		return nil
	})
	if err != nil {
		return nil, txError(err)
	}

	c.removeArtifacts(ctx, deleted)

	c.env.invalidateFiles(ctx, classID, moduleID)
	c.env.publishModuleDeleted(ctx, queue.ModuleDeletedPayload{
		ClassID: classID, ModuleID: moduleID, Files: len(deleted), Freed: freed,
	})

	return &types.DeleteModuleResponse{Deleted: len(deleted), Freed: freed}, nil
}

// removeArtifacts 并行删除上传文件、预览图与 HLS 产物，返回失败个数.
func (c *Cleaner) removeArtifacts(ctx context.Context, files []model.File) int {
	store := c.env.Disk

	var paths []string

	for i := range files {
		f := &files[i]

		if p, err := store.Path(disk.Modules, f.Filename); err == nil {
			paths = append(paths, p)
		}

		if f.Preview != nil {
			if p, err := store.Path(disk.Previews, *f.Preview); err == nil {
				paths = append(paths, p)
			}
		}

		if hls, err := store.HLSFiles(f.Base()); err == nil {
			paths = append(paths, hls...)
		}
	}

	var failures atomic.Int32

	l := c.env.logger(ctx, "cleanup")

	var g errgroup.Group
	g.SetLimit(unlinkParallelism)

	for _, p := range paths {
		g.Go(func() error {
			if err := disk.RemovePath(p); err != nil {
				failures.Add(1)
				metrics.CleanupDiskFailures.Inc()
				l.Warn().Err(err).Str("path", p).Msg("remove artifact failed")
			}

			return nil
		})
	}

	_ = g.Wait()

	return int(failures.Load())
}
