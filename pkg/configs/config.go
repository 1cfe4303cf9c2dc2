// Package configs 管理应用程序配置，包括数据库、队列、缓存与媒体存储的配置信息.
// configs 包支持多种配置格式（YAML、JSON、TOML、dotenv）并启用热重载.
//
// Example:
//
//	err := configs.InitConfig("./")
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	config := configs.GetConfig()
//	fmt.Println(config.Server.Port)
//
// Example accessing Media config:
//
//	media := configs.GetConfig().Media
//	fmt.Println(media.ModulesPath(), media.MaxUploadBytes)
//
// Example accessing plan quota:
//
//	quota := configs.GetConfig().Plans.QuotaFor("standard")
//	fmt.Println("quota:", quota)
package configs

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	zlog "github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// EnvPrefix 环境变量前缀，例如 CLASSMEDIA_SERVER_PORT.
const EnvPrefix = "CLASSMEDIA"

type (
	// AppConfig 全局应用程序配置.
	AppConfig struct {
		Server         ServerConfig         `mapstructure:"server"`          // ServerConfig 服务器端口、调试模式等
		DB             DBConfig             `mapstructure:"db"`              // DBConfig 数据库配置
		MQ             MQConfig             `mapstructure:"mq"`              // MQConfig 消息队列配置
		KV             KVConfig             `mapstructure:"kv"`              // KVConfig 键值存储配置
		Log            LogConfig            `mapstructure:"log"`             // LogConfig 日志相关配置
		Metrics        MetricsConfig        `mapstructure:"metrics"`         // MetricsConfig 监控指标
		Tracing        TracingConfig        `mapstructure:"tracing"`         // TracingConfig 分布式追踪
		Auth           AuthConfig           `mapstructure:"auth"`            // AuthConfig 身份认证
		RateLimit      RateLimitConfig      `mapstructure:"rate_limit"`      // RateLimitConfig 限流
		CircuitBreaker CircuitBreakerConfig `mapstructure:"circuit_breaker"` // CircuitBreakerConfig 熔断
		Events         EventsConfig         `mapstructure:"events"`          // EventsConfig 事件开关
		Media          MediaConfig          `mapstructure:"media"`           // MediaConfig 媒体文件存储
		Plans          PlansConfig          `mapstructure:"plans"`           // PlansConfig 套餐配额
	}
)

var (
	// globalConfig 全局配置实例.
	globalConfig AppConfig
	// appViper 全局 Viper 实例.
	appViper *viper.Viper
	// reloadMu 热重载时保护 globalConfig.
	reloadMu sync.RWMutex
)

// InitConfig 加载应用程序配置，支持多种格式(yaml、json、toml、dotenv)并启用热重载.
// 找不到配置文件时使用默认值与环境变量.
func InitConfig(path string) error {
	appViper = viper.New()
	// 设置默认值
	setAllDefaults(appViper)

	// 检查path是否是文件
	if info, err := os.Stat(path); err == nil && !info.IsDir() {
		// 是文件，使用SetConfigFile，Viper会自动检测类型
		appViper.SetConfigFile(path)
	} else {
		// 是目录，设置配置名和路径
		appViper.SetConfigName("config")
		appViper.AddConfigPath(path)
		appViper.AddConfigPath(filepath.Join(path, "configs"))

		exts := []string{"yaml", "yml", "json", "toml", "env", "dotenv"}

		for _, ext := range exts {
			cfg := filepath.Join(path, "config."+ext)
			if _, err := os.Stat(cfg); err == nil {
				appViper.SetConfigFile(cfg)

				break
			}
		}
	}

	// CLASSMEDIA_MEDIA_ROOT 覆盖 media.root
	appViper.SetEnvPrefix(EnvPrefix)
	appViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	appViper.AutomaticEnv()

	// 读取配置，文件缺失不算错误
	if err := appViper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("failed to read config: %w", err)
		}
	}

	reloadMu.Lock()
	err := appViper.Unmarshal(&globalConfig)
	reloadMu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := globalConfig.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	reloadConfigs(appViper, globalConfig.Server.ReloadConfig)

	return nil
}

// setAllDefaults 设置所有配置的默认值.
func setAllDefaults(v *viper.Viper) {
	var c AppConfig

	c.Server.setDefaults(v)
	c.DB.setDefaults(v)
	c.MQ.setDefaults(v)
	c.KV.setDefaults(v)
	c.Log.setDefaults(v)
	c.Metrics.setDefaults(v)
	c.Tracing.setDefaults(v)
	c.Auth.setDefaults(v)
	c.RateLimit.setDefaults(v)
	c.CircuitBreaker.setDefaults(v)
	c.Events.setDefaults(v)
	c.Media.setDefaults(v)
	c.Plans.setDefaults(v)
}

// Defaults 返回只包含默认值的配置，测试与命令行工具使用.
func Defaults() AppConfig {
	v := viper.New()
	setAllDefaults(v)

	var c AppConfig

	_ = v.Unmarshal(&c)

	return c
}

func reloadConfigs(v *viper.Viper, isHotReload bool) {
	if !isHotReload {
		return
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		var next AppConfig
		if err := v.Unmarshal(&next); err != nil {
			zlog.Error().Err(err).Str("file", e.Name).Msg("config reload failed")

			return
		}

		// 校验失败时保留旧配置
		if err := next.Validate(); err != nil {
			zlog.Warn().Err(err).Str("file", e.Name).Msg("reloaded config rejected")

			return
		}

		reloadMu.Lock()
		globalConfig = next
		reloadMu.Unlock()

		zlog.Info().Str("file", e.Name).Msg("config reloaded")
	})
	v.WatchConfig()
}

// GetConfig 返回全局配置实例.
func GetConfig() *AppConfig {
	reloadMu.RLock()
	defer reloadMu.RUnlock()

	return &globalConfig
}

// SetConfig 替换全局配置，仅用于测试与内嵌场景.
func SetConfig(c AppConfig) {
	reloadMu.Lock()
	globalConfig = c
	reloadMu.Unlock()
}

// GetViper 返回全局 Viper 实例.
func GetViper() *viper.Viper {
	return appViper
}
