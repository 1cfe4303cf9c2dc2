package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/storage/disk"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

func TestDeleteFileIsAtomicAndIdempotent(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	ctx := context.Background()

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "t"), filePart("a.mp4", 500))
	require.NoError(t, err)

	preview := "p-" + f.ID + ".png"
	writeArtifact(t, env, disk.Previews, preview, 0)
	require.NoError(t, env.DB.Model(&model.File{}).Where("id = ?", f.ID).Update("preview", preview).Error)
	writeArtifact(t, env, disk.HLS, f.ID+".m3u8", 0)
	writeArtifact(t, env, disk.HLS, f.ID+"_000.ts", 0)

	require.NoError(t, NewTrackerService(env).Record(ctx, c.ID, m.ID, f.ID, "student",
		&types.TrackerRequest{Start: time.Now().Add(-time.Minute), Stop: time.Now()}))

	resp, err := NewCleaner(env).DeleteFile(ctx, c.ID, m.ID, f.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(500), resp.Freed)
	assert.Zero(t, storageUsed(t, env, c.ID))

	assert.Empty(t, dirFiles(t, env, disk.Modules))
	assert.Empty(t, dirFiles(t, env, disk.Previews))
	assert.Empty(t, dirFiles(t, env, disk.HLS))

	var trackers int64
	require.NoError(t, env.DB.Model(&model.VideoTracker{}).Count(&trackers).Error)
	assert.Zero(t, trackers)

	_, err = NewCleaner(env).DeleteFile(ctx, c.ID, m.ID, f.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Zero(t, storageUsed(t, env, c.ID))
}

func TestDeleteFileWrongClass(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	other, _ := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "t"), filePart("a.mp4", 10))
	require.NoError(t, err)

	_, err = NewCleaner(env).DeleteFile(context.Background(), other.ID, m.ID, f.ID)
	require.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, int64(10), storageUsed(t, env, c.ID))
	assert.Len(t, dirFiles(t, env, disk.Modules), 1)
}

func TestDeleteFileLedgerDriftAbortsTransaction(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "t"), filePart("a.mp4", 10))
	require.NoError(t, err)

	// 绕过 ledger 直接改小用量
	require.NoError(t, env.DB.Model(&model.Class{}).Where("id = ?", c.ID).UpdateColumn("storage_used", 3).Error)

	_, err = NewCleaner(env).DeleteFile(context.Background(), c.ID, m.ID, f.ID)
	require.ErrorIs(t, err, ErrLedgerDrift)
	require.ErrorIs(t, err, ErrTransaction)

	var n int64
	require.NoError(t, env.DB.Model(&model.File{}).Where("id = ?", f.ID).Count(&n).Error)
	assert.Equal(t, int64(1), n, "row delete must roll back")
	assert.Len(t, dirFiles(t, env, disk.Modules), 1, "disk is untouched when the transaction fails")
}

func TestDeleteModuleBulkCleanup(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	ctx := context.Background()

	// 另一个模块的文件不受影响
	keep := &model.Module{ID: model.NewID(), ClassID: c.ID, Title: "keep"}
	require.NoError(t, env.DB.Create(keep).Error)

	kept, err := upload(t, env, c.ID, keep.ID, "", textPart("title", "keep"), filePart("k.mp4", 3))
	require.NoError(t, err)

	var total int64

	for i, size := range []int{100, 200, 300, 400} {
		f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "f"), filePart("v.mp4", size))
		require.NoError(t, err)

		total += int64(size)

		preview := f.ID + ".png"
		writeArtifact(t, env, disk.Previews, preview, 0)
		require.NoError(t, env.DB.Model(&model.File{}).Where("id = ?", f.ID).Update("preview", preview).Error)

		if i == 0 {
			writeArtifact(t, env, disk.HLS, f.ID+".m3u8", 0)
		}
	}

	resp, err := NewModuleService(env).Delete(ctx, c.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Deleted)
	assert.Equal(t, total, resp.Freed)
	assert.Equal(t, int64(3), storageUsed(t, env, c.ID))

	assert.Equal(t, []string{kept.Filename}, dirFiles(t, env, disk.Modules))
	assert.Empty(t, dirFiles(t, env, disk.Previews))
	assert.Empty(t, dirFiles(t, env, disk.HLS))

	var modules int64
	require.NoError(t, env.DB.Model(&model.Module{}).Where("id = ?", m.ID).Count(&modules).Error)
	assert.Zero(t, modules)

	_, err = NewModuleService(env).Delete(ctx, c.ID, m.ID)
	require.ErrorIs(t, err, ErrNotFound)
}

func TestRemoveArtifactsCountsFailures(t *testing.T) {
	env := newTestEnv(t)

	// 名称不安全的预览无法定位，直接跳过；缺失的文件不算失败
	bad := "../escape.png"
	failures := NewCleaner(env).removeArtifacts(context.Background(), []model.File{
		{ID: "x", Filename: "missing.mp4", Preview: &bad},
	})
	assert.Zero(t, failures)
}

func TestModuleRowRefusesOrphanFiles(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "a"), filePart("a.mp4", 10))
	require.NoError(t, err)

	// 绕过 Cleaner 直接删除模块必须失败
	require.Error(t, env.DB.Where("id = ?", m.ID).Delete(&model.Module{}).Error)

	orphan := &model.File{ID: model.NewID(), ModuleID: "missing", Title: "x", Filename: "orphan.mp4", FileSize: 1}
	require.Error(t, env.DB.Create(orphan).Error)

	resp, err := NewModuleService(env).Delete(context.Background(), c.ID, m.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Deleted)
	assert.Equal(t, f.FileSize, resp.Freed)
	assert.Zero(t, storageUsed(t, env, c.ID))
}
