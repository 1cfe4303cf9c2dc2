package configs

import (
	"time"

	"github.com/spf13/viper"
)

const (
	DefaultCBEnabled     = false
	DefaultCBFailureRate = 0.5
	DefaultCBMinRequests = 20
	DefaultCBInterval    = "1m"
	DefaultCBOpenTimeout = "30s"
	DefaultCBHalfOpenMax = 5
)

// CircuitBreakerConfig HTTP 熔断. 只有 5xx 计为失败，配额与校验错误不计.
type CircuitBreakerConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	FailureRate float64       `mapstructure:"failure_rate"  rule:"gte=0,lte=1"`
	MinRequests uint32        `mapstructure:"min_requests"` // 统计窗口内请求数达到该值才判断
	Interval    time.Duration `mapstructure:"interval"`     // 闭合状态下计数清零的周期
	OpenTimeout time.Duration `mapstructure:"open_timeout"` // 打开后多久进入半开
	HalfOpenMax uint32        `mapstructure:"half_open_max"`
	// SkipPaths 不经过熔断的路径前缀. 健康检查的 503 不应打开熔断，熔断打开后健康检查也要能返回真实状态
	SkipPaths []string `mapstructure:"skip_paths"`
}

func (c *CircuitBreakerConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("circuit_breaker.enabled", DefaultCBEnabled)
	v.SetDefault("circuit_breaker.failure_rate", DefaultCBFailureRate)
	v.SetDefault("circuit_breaker.min_requests", DefaultCBMinRequests)
	v.SetDefault("circuit_breaker.interval", DefaultCBInterval)
	v.SetDefault("circuit_breaker.open_timeout", DefaultCBOpenTimeout)
	v.SetDefault("circuit_breaker.half_open_max", DefaultCBHalfOpenMax)
	v.SetDefault("circuit_breaker.skip_paths", []string{"/api/v1/health", "/metrics"})
}
