package model

import "time"

// Class 班级，由外部系统维护，本服务只读写 storage_used.
// storage_used 只能通过 service 层的 ledger 修改.
type Class struct {
	ID          string     `gorm:"primaryKey;size:32"            json:"id"`
	Owner       string     `gorm:"size:255;index;not null"       json:"owner"`
	PlanID      string     `gorm:"size:32;not null"              json:"plan_id"`
	StorageUsed int64      `gorm:"type:bigint;not null;default:0" json:"storage_used"`
	PayedOn     *time.Time `json:"payed_on,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}
