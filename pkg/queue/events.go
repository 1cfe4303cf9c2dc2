package queue

import "github.com/ThreeDotsLabs/watermill/message"

// Publish 封装负载并发布到 topic.
func Publish[T any](pub message.Publisher, topic string, payload T, opts ...func(*EventHeader)) error {
	msg, err := NewWatermillMessage(topic, payload, opts...)
	if err != nil {
		return err
	}

	return pub.Publish(topic, msg)
}

// PublishFileCommitted 发布 cm.file.committed，预览 worker 订阅此主题.
func PublishFileCommitted(pub message.Publisher, payload FileCommittedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicFileCommitted, payload, opts...)
}

// ParseFileCommitted 解析 cm.file.committed.
func ParseFileCommitted(msg *message.Message) (Message[FileCommittedPayload], error) {
	return ParseWatermillMessage[FileCommittedPayload](msg)
}

// PublishFileDeleted 发布 cm.file.deleted.
func PublishFileDeleted(pub message.Publisher, payload FileDeletedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicFileDeleted, payload, opts...)
}

// PublishFileRejected 发布 cm.file.rejected.
func PublishFileRejected(pub message.Publisher, payload FileRejectedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicFileRejected, payload, opts...)
}

// PublishFilePreviewed 发布 cm.file.previewed.
func PublishFilePreviewed(pub message.Publisher, payload FilePreviewedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicFilePreviewed, payload, opts...)
}

// PublishModuleDeleted 发布 cm.module.deleted.
func PublishModuleDeleted(pub message.Publisher, payload ModuleDeletedPayload, opts ...func(*EventHeader)) error {
	return Publish(pub, TopicModuleDeleted, payload, opts...)
}
