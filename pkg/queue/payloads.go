package queue

import "time"

// EventHeader 所有事件的通用头部.
type EventHeader struct {
	// Topic 冗余记录主题，转储后仍可定位来源.
	Topic      string    `json:"topic"`
	TraceID    string    `json:"trace_id,omitempty"`
	Producer   string    `json:"producer,omitempty"`
	OccurredAt time.Time `json:"occurred_at"` // UTC
	Version    string    `json:"version,omitempty"`
}

// Message 统一的消息信封.
type Message[T any] struct {
	Header  EventHeader `json:"header"`
	Payload T           `json:"payload"`
}

// FileRef 标识一个已提交的文件.
type FileRef struct {
	ID       string `json:"id"`
	ClassID  string `json:"class_id"`
	ModuleID string `json:"module_id"`
	Filename string `json:"filename"`
	Kind     string `json:"kind"`
	Size     int64  `json:"size"`
	Checksum string `json:"checksum,omitempty"`
}

// FileCommittedPayload 上传成功.
type FileCommittedPayload struct {
	File  FileRef `json:"file"`
	Title string  `json:"title"`
	Actor string  `json:"actor,omitempty"`
}

// FileRejectedPayload 上传被拒，文件未落盘.
type FileRejectedPayload struct {
	ClassID  string `json:"class_id"`
	ModuleID string `json:"module_id"`
	Actor    string `json:"actor,omitempty"`
	Reason   string `json:"reason"`
	Size     int64  `json:"size,omitempty"`
}

// FileDeletedPayload 文件删除.
type FileDeletedPayload struct {
	File FileRef `json:"file"`
	// DiskFailures 清理失败的磁盘文件数，对应行已删除.
	DiskFailures int `json:"disk_failures,omitempty"`
}

// FilePreviewedPayload 预览产物写入完成.
type FilePreviewedPayload struct {
	File     FileRef `json:"file"`
	Preview  string  `json:"preview,omitempty"`
	Playlist string  `json:"playlist,omitempty"`
}

// ModuleDeletedPayload 模块批量删除.
type ModuleDeletedPayload struct {
	ClassID  string `json:"class_id"`
	ModuleID string `json:"module_id"`
	Files    int    `json:"files"`
	Freed    int64  `json:"freed"`
}
