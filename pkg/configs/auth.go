package configs

import "github.com/spf13/viper"

// AuthConfig 控制统一身份认证（优先支持 oauth2-proxy 注入的请求头）。
// 班级成员关系由外部系统维护，本服务只读取请求方用户名。
type AuthConfig struct {
	Enabled       bool     `mapstructure:"enabled"`         // 开启认证校验
	UserHeaders   []string `mapstructure:"user_headers"`    // 依次尝试读取用户名的请求头
	SkipPaths     []string `mapstructure:"skip_paths"`      // 跳过认证的路径前缀（如 /metrics、/api/v1/health）
	DevAllowQuery bool     `mapstructure:"dev_allow_query"` // 开发模式允许用 ?user= 便于本地调试
	Admins        []string `mapstructure:"admins"`          // 可以管理定时任务的用户
}

func (c *AuthConfig) setDefaults(v *viper.Viper) {
	v.SetDefault("auth.enabled", true)
	v.SetDefault("auth.dev_allow_query", false)
	v.SetDefault("auth.user_headers", []string{
		"X-Auth-Request-User",
		"X-Forwarded-User",
	})
	v.SetDefault("auth.skip_paths", []string{
		"/metrics",
		"/debug/pprof",
		"/api/v1/health",
		"/swagger",
	})
	v.SetDefault("auth.admins", []string{})
}
