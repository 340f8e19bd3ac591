package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"4h" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if parsed, err := time.ParseDuration(raw); err == nil {
		*d = Duration(parsed)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// GlobalConfig 描述服务进程的运行参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
	StoragePath   string `mapstructure:"StoragePath"`
	// CatalogURL 为空时不提供 /-/catalog 与预取。
	CatalogURL      string `mapstructure:"CatalogURL"`
	PrefetchOnStart bool   `mapstructure:"PrefetchOnStart"`
}

// ImageConfig 控制加载管线：有效期、并发、目标尺寸与超时。
type ImageConfig struct {
	CacheTTL       Duration `mapstructure:"CacheTTL"`
	Workers        int      `mapstructure:"Workers"`
	TargetWidth    int      `mapstructure:"TargetWidth"`
	TargetHeight   int      `mapstructure:"TargetHeight"`
	JPEGQuality    int      `mapstructure:"JPEGQuality"`
	ConnectTimeout Duration `mapstructure:"ConnectTimeout"`
	ReadTimeout    Duration `mapstructure:"ReadTimeout"`
	LoadTimeout    Duration `mapstructure:"LoadTimeout"`
}

// Config 是 TOML 文件映射的整体结构，所有键均位于顶层。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Image  ImageConfig  `mapstructure:",squash"`
}

// CatalogEnabled 表示是否配置了目录服务地址。
func (c *Config) CatalogEnabled() bool {
	return strings.TrimSpace(c.Global.CatalogURL) != ""
}
