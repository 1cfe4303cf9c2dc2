// Package mq 基于 Watermill 的消息队列客户端，memory/nats/redis 三种实现通过工厂注册.
//
// 使用示例：
//
//	client, err := mq.Open(ctx, &configs.GetConfig().MQ)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
//	msg := message.NewMessage(watermill.NewUUID(), payload)
//	err = client.Publish(ctx, "cm.file.committed", msg)
package mq

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	watermill "github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/metrics"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/yeisme/classmedia/pkg/configs"
	nlog "github.com/yeisme/classmedia/pkg/log"
)

// Factory 创建 Publisher 与 Subscriber.
type Factory func(ctx context.Context, cfg *configs.MQConfig, logger watermill.LoggerAdapter) (message.Publisher, message.Subscriber, error)

var factories = map[configs.MQType]Factory{}

// RegisterFactory 注册指定 MQType 的工厂.
func RegisterFactory(t configs.MQType, f Factory) {
	factories[t] = f
}

// RegisteredTypes 返回已注册的类型.
func RegisteredTypes() []configs.MQType {
	out := make([]configs.MQType, 0, len(factories))
	for t := range factories {
		out = append(out, t)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })

	return out
}

// ErrNotInitialized 客户端为空.
var ErrNotInitialized = errors.New("mq client not initialized")

// Client 封装 watermill Publisher 与 Subscriber.
type Client struct {
	kind       configs.MQType
	publisher  message.Publisher
	subscriber message.Subscriber
	logger     watermill.LoggerAdapter
	metrics    *metrics.PrometheusMetricsBuilder
	closeOnce  sync.Once
	closeErr   error
}

// Open 按配置创建客户端.
func Open(ctx context.Context, cfg *configs.MQConfig) (*Client, error) {
	factory, ok := factories[cfg.Type]
	if !ok {
		return nil, fmt.Errorf("unsupported mq type: %s", cfg.Type)
	}

	logger := NewLogger(*nlog.Logger())

	pub, sub, err := factory(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("init mq (%s): %w", cfg.Type, err)
	}

	c := &Client{kind: cfg.Type, publisher: pub, subscriber: sub, logger: logger}

	if cfg.EnableMetrics {
		mb := metrics.NewPrometheusMetricsBuilder(prometheus.DefaultRegisterer, configs.AppName, "mq")

		if c.publisher, err = mb.DecoratePublisher(pub); err != nil {
			return nil, fmt.Errorf("decorate publisher with metrics: %w", err)
		}

		if c.subscriber, err = mb.DecorateSubscriber(sub); err != nil {
			return nil, fmt.Errorf("decorate subscriber with metrics: %w", err)
		}

		c.metrics = &mb
	}

	nlog.Logger().Info().Str("type", string(cfg.Type)).Bool("metrics", cfg.EnableMetrics).Msg("mq client ready")

	return c, nil
}

// Type 返回队列类型.
func (c *Client) Type() configs.MQType { return c.kind }

// Logger 返回 watermill 日志适配器，构造 Router 使用.
func (c *Client) Logger() watermill.LoggerAdapter { return c.logger }

// Publisher 返回底层 Publisher.
func (c *Client) Publisher() message.Publisher { return c.publisher }

// Subscriber 返回底层 Subscriber.
func (c *Client) Subscriber() message.Subscriber { return c.subscriber }

// AddRouterMetrics 为 Router 挂上 prometheus 指标，未启用时无操作.
func (c *Client) AddRouterMetrics(r *message.Router) {
	if c != nil && c.metrics != nil {
		c.metrics.AddPrometheusRouterMetrics(r)
	}
}

// Publish 发布消息，消息继承 ctx.
func (c *Client) Publish(ctx context.Context, topic string, msgs ...*message.Message) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	for _, m := range msgs {
		m.SetContext(ctx)
	}

	return c.publisher.Publish(topic, msgs...)
}

// Subscribe 订阅主题.
func (c *Client) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	if c == nil || c.subscriber == nil {
		return nil, ErrNotInitialized
	}

	return c.subscriber.Subscribe(ctx, topic)
}

// Ping 健康检查：客户端可用即视为健康，各实现自带重连.
func (c *Client) Ping(_ context.Context) error {
	if c == nil || c.publisher == nil {
		return ErrNotInitialized
	}

	return nil
}

// Close 关闭 Publisher 与 Subscriber，可重复调用.
// memory 实现两者是同一个实例，只关闭一次.
func (c *Client) Close() error {
	if c == nil {
		return nil
	}

	c.closeOnce.Do(func() {
		var errs []error

		if c.publisher != nil {
			errs = append(errs, c.publisher.Close())
		}

		if c.subscriber != nil && any(c.subscriber) != any(c.publisher) {
			errs = append(errs, c.subscriber.Close())
		}

		c.closeErr = errors.Join(errs...)
	})

	return c.closeErr
}
