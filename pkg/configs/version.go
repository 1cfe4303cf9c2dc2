package configs

// AppName 应用名称，用于日志、追踪与指标标签.
const AppName = "classmedia"

// AppVersion 应用版本，构建时可通过 -ldflags 覆盖.
var AppVersion = "0.1.0"
