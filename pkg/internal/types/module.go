package types

// ModuleRequest 创建或重命名模块.
type ModuleRequest struct {
	Title string `json:"title" rule:"required,max=255,no_ctrl"`
}

// DeleteModuleResponse 批量删除结果.
type DeleteModuleResponse struct {
	Deleted int   `json:"deleted"` // 删除的文件数
	Freed   int64 `json:"freed"`   // 释放的字节数
}
