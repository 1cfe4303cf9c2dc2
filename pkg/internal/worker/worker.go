// Package worker 消费媒体事件，目前只有 committed → 预览生成.
package worker

import (
	"context"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	ctxPkg "github.com/yeisme/classmedia/pkg/context"
	"github.com/yeisme/classmedia/pkg/internal/storage/mq"
	"github.com/yeisme/classmedia/pkg/log"
	"github.com/yeisme/classmedia/pkg/queue"
)

const handlerPreview = "preview.on_committed"

// Previewer 处理一个已提交的文件.
type Previewer interface {
	Generate(ctx context.Context, ref queue.FileRef) error
}

// Worker 包装 watermill Router.
type Worker struct {
	router  *message.Router
	preview Previewer
}

// New 创建 Router 并注册处理器，调用 Run 后开始消费.
func New(client *mq.Client, preview Previewer) (*Worker, error) {
	if client == nil || client.Subscriber() == nil {
		return nil, mq.ErrNotInitialized
	}

	if preview == nil {
		return nil, errors.New("worker: previewer is nil")
	}

	router, err := message.NewRouter(message.RouterConfig{}, client.Logger())
	if err != nil {
		return nil, err
	}

	// 处理器自身不返回错误，Recoverer 只兜住 panic
	router.AddMiddleware(middleware.Recoverer)
	client.AddRouterMetrics(router)

	w := &Worker{router: router, preview: preview}

	router.AddConsumerHandler(handlerPreview, queue.TopicFileCommitted, client.Subscriber(), w.onCommitted)

	return w, nil
}

// onCommitted 总是 ack：预览最多处理一次，失败只记录日志.
func (w *Worker) onCommitted(msg *message.Message) error {
	ctx := msg.Context()

	evt, err := queue.ParseFileCommitted(msg)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("msg", msg.UUID).Msg("drop malformed committed event")

		return nil
	}

	if evt.Header.TraceID != "" {
		ctx = ctxPkg.WithRequestID(ctx, evt.Header.TraceID)
	}

	if err := w.preview.Generate(ctx, evt.Payload.File); err != nil {
		log.Ctx(ctx).Warn().Err(err).
			Str("file", evt.Payload.File.ID).
			Str("msg", msg.UUID).
			Msg("preview failed, not retried")
	}

	return nil
}

// Run 阻塞直到 ctx 取消或 Close.
func (w *Worker) Run(ctx context.Context) error {
	return w.router.Run(ctx)
}

// Running 处理器全部启动后关闭.
func (w *Worker) Running() chan struct{} {
	return w.router.Running()
}

// Close 等待处理中的消息完成.
func (w *Worker) Close() error {
	return w.router.Close()
}
