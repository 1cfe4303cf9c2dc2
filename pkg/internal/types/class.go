package types

import "time"

// StorageInfo 班级存储用量.
type StorageInfo struct {
	ClassID    string `json:"class_id"`
	PlanID     string `json:"plan_id"`
	Quota      int64  `json:"quota"`
	Used       int64  `json:"used"`
	Remaining  int64  `json:"remaining"`
	PlanActive bool   `json:"plan_active"`
}

// CreateClassRequest 写入班级记录（命令行开发工具）.
type CreateClassRequest struct {
	ID      string     `json:"id"       rule:"omitempty,max=32,safe_name"`
	Owner   string     `json:"owner"    rule:"required,max=255"`
	PlanID  string     `json:"plan_id"  rule:"required,max=32"`
	PayedOn *time.Time `json:"payed_on"`
}
