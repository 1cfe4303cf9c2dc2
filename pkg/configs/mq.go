package configs

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

// MQType 消息队列类型.
type MQType string

const (
	MQTypeMemory MQType = "memory" // 进程内 gochannel，单节点默认
	MQTypeNATS   MQType = "nats"
	MQTypeRedis  MQType = "redis"

	DefaultNATSURL            = "nats://localhost:4222"
	DefaultNATSMaxReconnects  = 5
	DefaultNATSReconnectWait  = "5s"
	DefaultNATSPingInterval   = "20s"
	DefaultNATSMaxPingsOut    = 3
	DefaultNATSReconnectBuf   = 32 << 10
	DefaultNATSQueueGroup     = "classmedia-workers"
	DefaultMemoryOutputBuffer = 256
)

// MQConfig 事件总线. 预览 worker 订阅 cm.file.committed，多实例部署需要 nats 或 redis.
type MQConfig struct {
	Type          MQType         `mapstructure:"type"           rule:"oneof=memory nats redis"`
	EnableMetrics bool           `mapstructure:"enable_metrics"` // watermill 发布与订阅的 prometheus 装饰器
	NATS          MQNATSConfig   `mapstructure:"nats"`
	Redis         MQRedisConfig  `mapstructure:"redis"`
	Memory        MQMemoryConfig `mapstructure:"memory"`
}

// MQNATSConfig NATS 连接与订阅.
type MQNATSConfig struct {
	URL           string        `mapstructure:"url"            rule:"required"`
	ClusterURLs   []string      `mapstructure:"cluster_urls"` // 非空时覆盖 url
	ClientName    string        `mapstructure:"client_name"`
	User          string        `mapstructure:"user"`
	Password      string        `mapstructure:"password"       json:"-"`
	JWT           string        `mapstructure:"jwt"            json:"-"`
	NKey          string        `mapstructure:"nkey"           json:"-"`
	MaxReconnects int           `mapstructure:"max_reconnects" rule:"min=-1,max=100"`
	ReconnectWait time.Duration `mapstructure:"reconnect_wait"`
	PingInterval  time.Duration `mapstructure:"ping_interval"`
	MaxPingsOut   int           `mapstructure:"max_pings_out"  rule:"min=1,max=10"`
	ReconnectBuf  int           `mapstructure:"reconnect_buf"`
	// StrictConnect 为 true 时启动阶段连不上直接失败，否则后台重试
	StrictConnect bool `mapstructure:"strict_connect"`
	// QueueGroup 多实例加入同一 queue group，每条上传事件只生成一次预览；为空时每个实例都会收到
	QueueGroup string            `mapstructure:"queue_group"`
	JetStream  MQJetStreamConfig `mapstructure:"jetstream"`
}

// MQJetStreamConfig JetStream 持久化. 关闭时使用 core NATS，进程离线期间的事件会丢失.
type MQJetStreamConfig struct {
	Enabled       bool   `mapstructure:"enabled"`
	AutoProvision bool   `mapstructure:"auto_provision"`
	TrackMsgID    bool   `mapstructure:"track_msg_id"`
	AckAsync      bool   `mapstructure:"ack_async"`
	DurablePrefix string `mapstructure:"durable_prefix"`
}

// MQRedisConfig Redis Streams.
type MQRedisConfig struct {
	Addr     string `mapstructure:"addr"     rule:"hostname_port"`
	Password string `mapstructure:"password" json:"-"`
	DB       int    `mapstructure:"db"       rule:"min=0,max=15"`
}

// MQMemoryConfig 进程内队列.
type MQMemoryConfig struct {
	OutputBuffer int64 `mapstructure:"output_buffer" rule:"min=0"`
	Persistent   bool  `mapstructure:"persistent"` // 没有订阅者时保留消息
}

// GetMQType 返回当前配置的消息队列类型.
func (c *MQConfig) GetMQType() MQType {
	return c.Type
}

// NATSURL 集群地址优先，逗号连接.
func (c *MQNATSConfig) NATSURL() string {
	if len(c.ClusterURLs) > 0 {
		return strings.Join(c.ClusterURLs, ",")
	}

	return c.URL
}

func (c *MQConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("mq.type", MQTypeMemory)
	v.SetDefault("mq.enable_metrics", false)

	v.SetDefault("mq.nats.url", DefaultNATSURL)
	v.SetDefault("mq.nats.cluster_urls", []string{})
	v.SetDefault("mq.nats.client_name", AppName)
	v.SetDefault("mq.nats.max_reconnects", DefaultNATSMaxReconnects)
	v.SetDefault("mq.nats.reconnect_wait", DefaultNATSReconnectWait)
	v.SetDefault("mq.nats.ping_interval", DefaultNATSPingInterval)
	v.SetDefault("mq.nats.max_pings_out", DefaultNATSMaxPingsOut)
	v.SetDefault("mq.nats.reconnect_buf", DefaultNATSReconnectBuf)
	v.SetDefault("mq.nats.strict_connect", false)
	v.SetDefault("mq.nats.queue_group", DefaultNATSQueueGroup)
	v.SetDefault("mq.nats.jetstream.enabled", true)
	v.SetDefault("mq.nats.jetstream.auto_provision", true)
	v.SetDefault("mq.nats.jetstream.track_msg_id", true)
	v.SetDefault("mq.nats.jetstream.ack_async", false)
	v.SetDefault("mq.nats.jetstream.durable_prefix", AppName)

	v.SetDefault("mq.redis.addr", "localhost:6379")
	v.SetDefault("mq.redis.password", "")
	v.SetDefault("mq.redis.db", 0)

	v.SetDefault("mq.memory.output_buffer", DefaultMemoryOutputBuffer)
	v.SetDefault("mq.memory.persistent", false)
}
