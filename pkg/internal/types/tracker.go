package types

import "time"

// TrackerRequest 上报观看区间.
type TrackerRequest struct {
	Start time.Time `json:"start" rule:"required"`
	Stop  time.Time `json:"stop"  rule:"required,gtefield=Start"`
}

// TrackerInfo 观看记录.
type TrackerInfo struct {
	Username string    `json:"username"`
	VideoID  string    `json:"video_id"`
	Start    time.Time `json:"start"`
	Stop     time.Time `json:"stop"`
	Day      string    `json:"day"`
	Minutes  int64     `json:"minutes"`
}
