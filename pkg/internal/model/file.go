package model

import (
	"path/filepath"
	"strings"
	"time"
)

// File 已提交的上传文件.
// 除 Preview 与 Playlist 外不可变，二者只能从 NULL 写入一次.
type File struct {
	ID       string  `gorm:"primaryKey;size:32"               json:"id"`
	ModuleID string  `gorm:"size:32;index;not null"           json:"module_id"`
	Title    string  `gorm:"size:64;not null"                 json:"title"`
	Filename string  `gorm:"size:64;uniqueIndex;not null"     json:"filename"`
	Preview  *string `gorm:"size:64;index"                    json:"preview"`
	Playlist *string `gorm:"size:64"                          json:"playlist"`
	FileSize int64   `gorm:"type:bigint;not null"             json:"file_size"`
	Checksum string  `gorm:"size:32"                          json:"checksum"`
	// 创建时间倒序列出
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// Ext 扩展名，不含点，小写.
func (f *File) Ext() string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(f.Filename), "."))
}

// Base 去掉扩展名的文件名，HLS 产物以它为前缀.
func (f *File) Base() string {
	return strings.TrimSuffix(f.Filename, filepath.Ext(f.Filename))
}
