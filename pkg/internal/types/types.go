// Package types 定义 HTTP 请求与响应结构.
package types

// ErrorResponse 错误响应.
type ErrorResponse struct {
	Error string `json:"error"`
}
