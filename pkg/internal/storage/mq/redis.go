package mq

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"

	"github.com/yeisme/classmedia/pkg/configs"
)

// redisChannelBuffer 每个订阅的输出缓冲.
const redisChannelBuffer = 64

var errSubscriberClosed = errors.New("redis subscriber closed")

// redisEnvelope Redis PUBLISH 只能带字节，把 UUID 与元数据一起编码.
type redisEnvelope struct {
	UUID     string            `json:"uuid"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Payload  []byte            `json:"payload"`
}

// RedisPublisher 基于 Redis Pub/Sub 的 Publisher，消息不持久化.
type RedisPublisher struct {
	client redis.UniversalClient
}

// RedisSubscriber 基于 Redis Pub/Sub 的 Subscriber.
type RedisSubscriber struct {
	client redis.UniversalClient
	logger watermill.LoggerAdapter

	mu      sync.Mutex
	subs    []*redis.PubSub
	closed  bool
	closeCh chan struct{}
	wg      sync.WaitGroup
}

func init() {
	RegisterFactory(configs.MQTypeRedis, redisFactory)
}

func redisFactory(
	ctx context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()

		return nil, nil, err
	}

	pub, sub := NewRedisPubSub(rdb, logger)

	return pub, sub, nil
}

// NewRedisPubSub 用已有客户端创建 Publisher 与 Subscriber，关闭 Subscriber 时关闭客户端.
func NewRedisPubSub(client redis.UniversalClient, logger watermill.LoggerAdapter) (*RedisPublisher, *RedisSubscriber) {
	return &RedisPublisher{client: client}, &RedisSubscriber{
		client:  client,
		logger:  logger,
		closeCh: make(chan struct{}),
	}
}

// Publish 实现 message.Publisher.
func (p *RedisPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		b, err := sonic.Marshal(redisEnvelope{UUID: msg.UUID, Metadata: msg.Metadata, Payload: msg.Payload})
		if err != nil {
			return fmt.Errorf("encode message %s: %w", msg.UUID, err)
		}

		ctx := msg.Context()
		if err := p.client.Publish(ctx, topic, b).Err(); err != nil {
			return err
		}
	}

	return nil
}

// Close 客户端由 Subscriber 负责关闭.
func (p *RedisPublisher) Close() error {
	return nil
}

// Subscribe 实现 message.Subscriber.
// 逐条投递，等待 Ack 或 Nack 后再投递下一条，Nack 的消息直接丢弃.
func (s *RedisSubscriber) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil, errSubscriberClosed
	}

	ps := s.client.Subscribe(ctx, topic)
	if _, err := ps.Receive(ctx); err != nil {
		_ = ps.Close()

		return nil, fmt.Errorf("subscribe %s: %w", topic, err)
	}

	s.subs = append(s.subs, ps)

	out := make(chan *message.Message, redisChannelBuffer)

	s.wg.Add(1)

	go func() {
		defer s.wg.Done()
		defer close(out)

		in := ps.Channel()

		for {
			select {
			case <-s.closeCh:
				return
			case <-ctx.Done():
				return
			case raw, ok := <-in:
				if !ok {
					return
				}

				if !s.deliver(ctx, topic, raw.Payload, out) {
					return
				}
			}
		}
	}()

	return out, nil
}

// deliver 返回 false 表示订阅应当结束.
func (s *RedisSubscriber) deliver(ctx context.Context, topic, raw string, out chan<- *message.Message) bool {
	var env redisEnvelope
	if err := sonic.UnmarshalString(raw, &env); err != nil {
		s.logger.Error("drop malformed redis message", err, watermill.LogFields{"topic": topic})

		return true
	}

	if env.UUID == "" {
		env.UUID = watermill.NewUUID()
	}

	msg := message.NewMessage(env.UUID, env.Payload)
	for k, v := range env.Metadata {
		msg.Metadata.Set(k, v)
	}

	msgCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	msg.SetContext(msgCtx)

	select {
	case out <- msg:
	case <-s.closeCh:
		return false
	case <-ctx.Done():
		return false
	}

	select {
	case <-msg.Acked():
	case <-msg.Nacked():
		s.logger.Info("redis message nacked and dropped", watermill.LogFields{"topic": topic, "uuid": msg.UUID})
	case <-s.closeCh:
		return false
	case <-ctx.Done():
		return false
	}

	return true
}

// Close 实现 message.Subscriber.
func (s *RedisSubscriber) Close() error {
	s.mu.Lock()

	if s.closed {
		s.mu.Unlock()

		return nil
	}

	s.closed = true
	close(s.closeCh)

	var errs []error

	for _, ps := range s.subs {
		if err := ps.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	s.mu.Unlock()

	s.wg.Wait()

	if err := s.client.Close(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}
