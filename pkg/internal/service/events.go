package service

import (
	"context"

	"github.com/ThreeDotsLabs/watermill/message"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/classmedia/pkg/queue"
)

// publish 按 events 配置发布事件，失败只记日志.
func (e *Env) publish(ctx context.Context, enabled bool, name string, fn func(pub message.Publisher, opts ...func(*queue.EventHeader)) error) {
	if !enabled || !e.Cfg.Events.Enabled || e.MQ == nil || e.MQ.Publisher() == nil {
		return
	}

	opts := []func(*queue.EventHeader){queue.WithProducer(e.Cfg.Events.Producer)}
	if sc := trace.SpanFromContext(ctx).SpanContext(); sc.IsValid() {
		opts = append(opts, queue.WithTraceID(sc.TraceID().String()))
	}

	if err := fn(e.MQ.Publisher(), opts...); err != nil {
		l := e.logger(ctx, "events")
		l.Warn().Err(err).Str("event", name).Msg("publish event failed")
	}
}

func (e *Env) publishCommitted(ctx context.Context, p queue.FileCommittedPayload) {
	e.publish(ctx, e.Cfg.Events.File.Committed, queue.TopicFileCommitted,
		func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFileCommitted(pub, p, opts...)
		})
}

func (e *Env) publishRejected(ctx context.Context, p queue.FileRejectedPayload) {
	e.publish(ctx, e.Cfg.Events.File.Rejected, queue.TopicFileRejected,
		func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFileRejected(pub, p, opts...)
		})
}

func (e *Env) publishDeleted(ctx context.Context, p queue.FileDeletedPayload) {
	e.publish(ctx, e.Cfg.Events.File.Deleted, queue.TopicFileDeleted,
		func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFileDeleted(pub, p, opts...)
		})
}

func (e *Env) publishPreviewed(ctx context.Context, p queue.FilePreviewedPayload) {
	e.publish(ctx, e.Cfg.Events.File.Previewed, queue.TopicFilePreviewed,
		func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishFilePreviewed(pub, p, opts...)
		})
}

func (e *Env) publishModuleDeleted(ctx context.Context, p queue.ModuleDeletedPayload) {
	e.publish(ctx, e.Cfg.Events.File.Deleted, queue.TopicModuleDeleted,
		func(pub message.Publisher, opts ...func(*queue.EventHeader)) error {
			return queue.PublishModuleDeleted(pub, p, opts...)
		})
}
