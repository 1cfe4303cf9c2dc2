package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
)

func TestListFilesFiltersAfterCache(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	video, err := upload(t, env, c.ID, m.ID, "", textPart("title", "v"), filePart("a.mp4", 8))
	require.NoError(t, err)
	pdf, err := upload(t, env, c.ID, m.ID, configs.KindPDF, textPart("title", "p"), filePart("a.pdf", 8))
	require.NoError(t, err)

	ctx := context.Background()
	svc := NewFileService(env)

	all, err := svc.ListFiles(ctx, c.ID, m.ID, configs.KindAll)
	require.NoError(t, err)
	require.Len(t, all, 2)

	videos, err := svc.ListFiles(ctx, c.ID, m.ID, "")
	require.NoError(t, err)
	require.Len(t, videos, 1)
	assert.Equal(t, video.ID, videos[0].ID)
	assert.Equal(t, configs.KindVideo, videos[0].Kind)

	pdfs, err := svc.ListFiles(ctx, c.ID, m.ID, configs.KindPDF)
	require.NoError(t, err)
	require.Len(t, pdfs, 1)
	assert.Equal(t, pdf.ID, pdfs[0].ID)

	_, err = svc.ListFiles(ctx, c.ID, m.ID, "zip")
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.ListFiles(ctx, "other", m.ID, "")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListFilesInvalidatedOnChange(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	ctx := context.Background()
	svc := NewFileService(env)

	first, err := upload(t, env, c.ID, m.ID, "", textPart("title", "1"), filePart("a.mp4", 8))
	require.NoError(t, err)

	got, err := svc.ListFiles(ctx, c.ID, m.ID, "")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// 绕过服务直接写库，缓存仍返回旧结果
	require.NoError(t, env.DB.Model(&model.File{}).Where("id = ?", first.ID).Update("title", "renamed").Error)

	got, err = svc.ListFiles(ctx, c.ID, m.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "1", got[0].Title)

	_, err = upload(t, env, c.ID, m.ID, "", textPart("title", "2"), filePart("b.mp4", 8))
	require.NoError(t, err)

	got, err = svc.ListFiles(ctx, c.ID, m.ID, "")
	require.NoError(t, err)
	require.Len(t, got, 2)

	_, err = NewCleaner(env).DeleteFile(ctx, c.ID, m.ID, first.ID)
	require.NoError(t, err)

	got, err = svc.ListFiles(ctx, c.ID, m.ID, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
}
