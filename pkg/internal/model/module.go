package model

import "time"

// Module 班级下的课程模块，文件须先于模块删除.
type Module struct {
	ID        string    `gorm:"primaryKey;size:32"     json:"id"`
	ClassID   string    `gorm:"size:32;index;not null" json:"class_id"`
	Title     string    `gorm:"size:255;not null"      json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	// 仍有文件时数据库拒绝删除模块
	Files []File `gorm:"foreignKey:ModuleID;constraint:OnDelete:RESTRICT" json:"-"`
}
