package mq

import (
	"context"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/ThreeDotsLabs/watermill/message"
	nc "github.com/nats-io/nats.go"

	"github.com/yeisme/classmedia/pkg/configs"
)

const (
	natsDrainTimeout   = 30 * time.Second
	natsFlusherTimeout = 10 * time.Second
)

func init() {
	RegisterFactory(configs.MQTypeNATS, natsFactory)
}

// natsOptions 连接与认证选项.
func natsOptions(n *configs.MQNATSConfig) []nc.Option {
	opts := []nc.Option{
		nc.Name(n.ClientName),
		nc.MaxReconnects(n.MaxReconnects),
		nc.ReconnectWait(n.ReconnectWait),
		nc.PingInterval(n.PingInterval),
		nc.MaxPingsOutstanding(n.MaxPingsOut),
		nc.ReconnectBufSize(n.ReconnectBuf),
		nc.DrainTimeout(natsDrainTimeout),
		nc.FlusherTimeout(natsFlusherTimeout),
		nc.RetryOnFailedConnect(!n.StrictConnect),
	}

	switch {
	case n.JWT != "":
		opts = append(opts, nc.UserJWTAndSeed(n.JWT, n.NKey))
	case n.User != "":
		opts = append(opts, nc.UserInfo(n.User, n.Password))
	}

	return opts
}

func jetStreamConfig(j configs.MQJetStreamConfig) nats.JetStreamConfig {
	return nats.JetStreamConfig{
		Disabled:      !j.Enabled,
		AutoProvision: j.AutoProvision,
		TrackMsgId:    j.TrackMsgID,
		AckAsync:      j.AckAsync,
		DurablePrefix: j.DurablePrefix,
	}
}

// natsFactory 创建 NATS Publisher 与 Subscriber，可选 JetStream.
// 配置了 QueueGroup 时多个实例共享订阅，每条事件只被一个实例处理.
func natsFactory(
	_ context.Context,
	cfg *configs.MQConfig,
	logger watermill.LoggerAdapter) (
	message.Publisher, message.Subscriber, error) {
	n := &cfg.NATS
	opts := natsOptions(n)
	js := jetStreamConfig(n.JetStream)
	marshaler := &nats.JSONMarshaler{}

	pub, err := nats.NewPublisher(nats.PublisherConfig{
		URL:         n.NATSURL(),
		NatsOptions: opts,
		JetStream:   js,
		Marshaler:   marshaler,
	}, logger)
	if err != nil {
		return nil, nil, err
	}

	subCfg := nats.SubscriberConfig{
		URL:         n.NATSURL(),
		NatsOptions: opts,
		JetStream:   js,
		Unmarshaler: marshaler,
	}
	if n.QueueGroup != "" {
		subCfg.QueueGroupPrefix = n.QueueGroup
	}

	sub, err := nats.NewSubscriber(subCfg, logger)
	if err != nil {
		_ = pub.Close()

		return nil, nil, err
	}

	logger.Info("nats mq ready", watermill.LogFields{
		"jetstream":   n.JetStream.Enabled,
		"queue_group": n.QueueGroup,
	})

	return pub, sub, nil
}
