package service

import (
	"context"
	"encoding/csv"
	"errors"
	"io"
	"strconv"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yeisme/classmedia/pkg/internal/model"
	"github.com/yeisme/classmedia/pkg/internal/types"
)

const dayLayout = "2006-01-02"

// TrackerService 记录视频观看进度.
type TrackerService struct {
	env *Env
}

// NewTrackerService 创建 TrackerService.
func NewTrackerService(env *Env) *TrackerService {
	return &TrackerService{env: env}
}

// video 校验视频属于该班级的模块.
func (s *TrackerService) video(ctx context.Context, classID, moduleID, videoID string) error {
	return findVideo(s.env.db(ctx), classID, moduleID, videoID)
}

func findVideo(db *gorm.DB, classID, moduleID, videoID string) error {
	if _, err := findModule(db, classID, moduleID); err != nil {
		return err
	}

	var f model.File
	if err := db.Where("id = ? AND module_id = ?", videoID, moduleID).Take(&f).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFound("video", videoID)
		}

		return err
	}

	return nil
}

// Record 每个用户每个视频每天保留一行；同一天再次上报时只保留观看时长更长的区间.
func (s *TrackerService) Record(ctx context.Context, classID, moduleID, videoID, username string, req *types.TrackerRequest) error {
	if req.Stop.Before(req.Start) {
		return invalid("stop", "stop must not be before start")
	}

	now := time.Now().UTC()
	row := model.VideoTracker{
		ID:        model.NewID(),
		Username:  username,
		VideoID:   videoID,
		Start:     req.Start.UTC(),
		Stop:      req.Stop.UTC(),
		Day:       now.Format(dayLayout),
		CreatedAt: now,
	}

	return s.env.db(ctx).Transaction(func(tx *gorm.DB) error {
		// 共享锁与 DeleteFile 的排他锁互斥，删除提交后这里返回 NotFound
		locked := tx.Clauses(clause.Locking{Strength: "SHARE"}).Session(&gorm.Session{})
		if err := findVideo(locked, classID, moduleID, videoID); err != nil {
			return err
		}

		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if errors.Is(res.Error, gorm.ErrForeignKeyViolated) {
			return notFound("video", videoID)
		}

		if res.Error != nil {
			return res.Error
		}

		if res.RowsAffected == 1 {
			return nil
		}

		var cur model.VideoTracker
		if err := tx.Where("username = ? AND video_id = ? AND day = ?", username, videoID, row.Day).
			Take(&cur).Error; err != nil {
			return err
		}

		if row.Spent() <= cur.Spent() {
			return nil
		}

		return tx.Model(&model.VideoTracker{}).Where("id = ?", cur.ID).
			Updates(map[string]any{"start": row.Start, "stop": row.Stop}).Error
	})
}

// List 视频的全部观看记录，按用户与日期排序.
func (s *TrackerService) List(ctx context.Context, classID, moduleID, videoID string) ([]types.TrackerInfo, error) {
	if err := s.video(ctx, classID, moduleID, videoID); err != nil {
		return nil, err
	}

	var rows []model.VideoTracker
	if err := s.env.db(ctx).Where("video_id = ?", videoID).
		Order("username").Order("day").Find(&rows).Error; err != nil {
		return nil, err
	}

	out := make([]types.TrackerInfo, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, types.TrackerInfo{
			Username: r.Username,
			VideoID:  r.VideoID,
			Start:    r.Start,
			Stop:     r.Stop,
			Day:      r.Day,
			Minutes:  int64(r.Spent().Round(time.Minute) / time.Minute),
		})
	}

	return out, nil
}

// WriteCSV 导出观看记录：用户、观看分钟数、日期（DD/MM/YYYY）.
func (s *TrackerService) WriteCSV(ctx context.Context, w io.Writer, classID, moduleID, videoID string) error {
	rows, err := s.List(ctx, classID, moduleID, videoID)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"User", "Minutes Spent", "Date"}); err != nil {
		return err
	}

	for _, r := range rows {
		day, _ := time.Parse(dayLayout, r.Day)
		if err := cw.Write([]string{r.Username, strconv.FormatInt(r.Minutes, 10), day.Format("02/01/2006")}); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}
