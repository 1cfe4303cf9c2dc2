package types

import "time"

// FileInfo 文件信息.
type FileInfo struct {
	ID        string    `json:"id"`
	ModuleID  string    `json:"module_id"`
	Title     string    `json:"title"`
	Filename  string    `json:"filename"`
	Kind      string    `json:"kind"`
	Preview   *string   `json:"preview"`
	Playlist  *string   `json:"playlist"`
	FileSize  int64     `json:"file_size"`
	Checksum  string    `json:"checksum,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// UploadFileResponse 上传结果.
type UploadFileResponse struct {
	File FileInfo `json:"file"`
}

// ListFilesQuery 文件列表过滤.
type ListFilesQuery struct {
	Kind string `form:"t" json:"t" rule:"omitempty,oneof=video pdf doc excel ppt image all"`
}

// DeleteFileResponse 删除结果.
type DeleteFileResponse struct {
	Deleted string `json:"deleted"`
	Freed   int64  `json:"freed"`
}
