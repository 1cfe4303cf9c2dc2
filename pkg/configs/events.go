package configs

import "github.com/spf13/viper"

// EventsConfig 控制事件发布的开关（全局与分主题）。
type EventsConfig struct {
	Enabled  bool             `mapstructure:"enabled"` // 总开关
	Producer string           `mapstructure:"producer"`
	File     FileEventsConfig `mapstructure:"file"`
}

// FileEventsConfig 针对媒体文件领域的事件开关。
// committed 事件驱动预览生成，关闭后不再生成预览。
type FileEventsConfig struct {
	Committed bool `mapstructure:"committed"`
	Rejected  bool `mapstructure:"rejected"`
	Deleted   bool `mapstructure:"deleted"`
	Previewed bool `mapstructure:"previewed"`
}

func (c *EventsConfig) setDefaults(v *viper.Viper) {
	// 总开关：默认启用事件系统
	v.SetDefault("events.enabled", true)
	v.SetDefault("events.producer", AppName)

	// 预览生成依赖 committed 事件
	v.SetDefault("events.file.committed", true)
	v.SetDefault("events.file.deleted", true)

	// 可选事件：默认关闭，按需开启
	v.SetDefault("events.file.rejected", false)
	v.SetDefault("events.file.previewed", false)
}
