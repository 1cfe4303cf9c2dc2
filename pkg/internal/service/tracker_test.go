package service

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeisme/classmedia/pkg/configs"
	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

func span(minutes int) *types.TrackerRequest {
	start := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	return &types.TrackerRequest{Start: start, Stop: start.Add(time.Duration(minutes) * time.Minute)}
}

func TestTrackerKeepsLongestSpanPerDay(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "lecture"), filePart("a.mp4", 16))
	require.NoError(t, err)

	ctx := context.Background()
	svc := NewTrackerService(env)

	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(10)))
	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(4)))
	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(25)))
	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "bob", span(3)))

	var n int64
	require.NoError(t, env.DB.Model(&model.VideoTracker{}).Count(&n).Error)
	assert.Equal(t, int64(2), n)

	rows, err := svc.List(ctx, c.ID, m.ID, f.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "alice", rows[0].Username)
	assert.Equal(t, int64(25), rows[0].Minutes)
	assert.Equal(t, "bob", rows[1].Username)
	assert.Equal(t, int64(3), rows[1].Minutes)
}

func TestTrackerSeparatesVideos(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	a, err := upload(t, env, c.ID, m.ID, "", textPart("title", "a"), filePart("a.mp4", 16))
	require.NoError(t, err)
	b, err := upload(t, env, c.ID, m.ID, "", textPart("title", "b"), filePart("b.mp4", 16))
	require.NoError(t, err)

	ctx := context.Background()
	svc := NewTrackerService(env)

	require.NoError(t, svc.Record(ctx, c.ID, m.ID, a.ID, "alice", span(30)))
	require.NoError(t, svc.Record(ctx, c.ID, m.ID, b.ID, "alice", span(5)))

	rows, err := svc.List(ctx, c.ID, m.ID, b.ID)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, int64(5), rows[0].Minutes)
}

func TestTrackerValidation(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)
	svc := NewTrackerService(env)
	ctx := context.Background()

	req := span(5)
	req.Start, req.Stop = req.Stop, req.Start
	require.ErrorIs(t, svc.Record(ctx, c.ID, m.ID, "nope", "alice", req), ErrValidation)

	require.ErrorIs(t, svc.Record(ctx, c.ID, m.ID, "nope", "alice", span(5)), ErrNotFound)
	require.ErrorIs(t, svc.Record(ctx, "other", m.ID, "nope", "alice", span(5)), ErrNotFound)
}

func TestTrackerCSV(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "lecture"), filePart("a.mp4", 16))
	require.NoError(t, err)

	ctx := context.Background()
	svc := NewTrackerService(env)
	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(12)))

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(ctx, &buf, c.ID, m.ID, f.ID))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"User", "Minutes Spent", "Date"}, records[0])
	assert.Equal(t, "alice", records[1][0])
	assert.Equal(t, "12", records[1][1])
	assert.Equal(t, time.Now().UTC().Format("02/01/2006"), records[1][2])
}

func TestTrackerRowsFollowDeletedVideo(t *testing.T) {
	env := newTestEnv(t)
	c, m := seedClass(t, env, configs.PlanStandard, 0)

	f, err := upload(t, env, c.ID, m.ID, "", textPart("title", "lecture"), filePart("a.mp4", 16))
	require.NoError(t, err)

	ctx := context.Background()
	svc := NewTrackerService(env)

	require.NoError(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(5)))

	// 直接删除文件行，外键级联删除观看记录
	require.NoError(t, env.DB.Where("id = ?", f.ID).Delete(&model.File{}).Error)

	var n int64
	require.NoError(t, env.DB.Model(&model.VideoTracker{}).Count(&n).Error)
	assert.Zero(t, n)

	require.ErrorIs(t, svc.Record(ctx, c.ID, m.ID, f.ID, "alice", span(5)), ErrNotFound)
	require.NoError(t, env.DB.Model(&model.VideoTracker{}).Count(&n).Error)
	assert.Zero(t, n)

	orphan := &model.VideoTracker{
		ID: model.NewID(), Username: "bob", VideoID: f.ID, Day: "2026-03-01",
		Start: span(1).Start, Stop: span(1).Stop,
	}
	require.Error(t, env.DB.Create(orphan).Error)
}
