// Package queue 定义媒体事件的主题、负载与消息信封.
package queue

// 主题命名：cm.<实体>.<动作>.
const (
	TopicFileCommitted = "cm.file.committed" // 上传已提交，文件行与配额都已写入
	TopicFileRejected  = "cm.file.rejected"  // 上传被拒（配额、扩展名、大小）
	TopicFileDeleted   = "cm.file.deleted"   // 文件行已删除，磁盘清理已执行
	TopicFilePreviewed = "cm.file.previewed" // 预览图或 HLS 已写入
	TopicModuleDeleted = "cm.module.deleted" // 模块及其文件已批量删除
)

// FileTopics 文件相关主题.
var FileTopics = []string{
	TopicFileCommitted, TopicFileRejected, TopicFileDeleted, TopicFilePreviewed,
}

// AllTopics 全部主题，mq ls 使用.
var AllTopics = append(append([]string{}, FileTopics...), TopicModuleDeleted)
