package model

import "time"

// VideoTracker 观看进度，每个用户每个视频每天一行，保留最长的一段.
type VideoTracker struct {
	ID       string    `gorm:"primaryKey;size:32"                       json:"id"`
	Username string    `gorm:"size:255;not null;uniqueIndex:idx_tracker_day" json:"username"`
	VideoID  string    `gorm:"size:32;not null;uniqueIndex:idx_tracker_day;index" json:"video_id"`
	Start    time.Time `gorm:"not null"                                 json:"start"`
	Stop     time.Time `gorm:"not null"                                 json:"stop"`
	// Day 为 UTC 日期（YYYY-MM-DD）
	Day       string    `gorm:"size:10;not null;uniqueIndex:idx_tracker_day" json:"day"`
	CreatedAt time.Time `json:"created_at"`

	// 视频删除时观看记录随之删除
	File *File `gorm:"foreignKey:VideoID;constraint:OnDelete:CASCADE" json:"-"`
}

// Spent 观看时长.
func (t *VideoTracker) Spent() time.Duration {
	return t.Stop.Sub(t.Start)
}
