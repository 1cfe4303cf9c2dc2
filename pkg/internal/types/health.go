package types

// HealthResponse 组件健康状态.
type HealthResponse struct {
	Component string `json:"component"`
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	// Detail 组件相关的附加信息，例如磁盘剩余空间
	Detail map[string]any `json:"detail,omitempty"`
}
