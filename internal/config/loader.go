package config

import (
	"fmt"
	"path/filepath"
	"reflect"
	"strconv"
	"time"

	"github.com/mitchellh/mapstructure"
	gap "github.com/muesli/go-app-paths"
	"github.com/spf13/viper"
)

const (
	appName          = "imgcache"
	cacheDirName     = "image_cache"
	defaultCacheTTL  = 4 * time.Hour
	defaultTimeout   = 10 * time.Second
	defaultLoadLimit = 30 * time.Second
)

// Load 读取并解析 TOML 配置文件，同时注入默认值与校验逻辑。
func Load(path string) (*Config, error) {
	if path == "" {
		path = "config.toml"
	}

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(durationDecodeHook())); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	if err := applyDefaults(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	absStorage, err := filepath.Abs(cfg.Global.StoragePath)
	if err != nil {
		return nil, fmt.Errorf("无法解析缓存目录: %w", err)
	}
	cfg.Global.StoragePath = absStorage

	return &cfg, nil
}

// DefaultStoragePath 返回当前用户缓存目录下的 imgcache/image_cache。
func DefaultStoragePath() (string, error) {
	dir, err := gap.NewScope(gap.User, appName).CacheDir()
	if err != nil {
		return "", fmt.Errorf("无法定位用户缓存目录: %w", err)
	}
	return filepath.Join(dir, cacheDirName), nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("StoragePath", "")
	v.SetDefault("CatalogURL", "")
	v.SetDefault("PrefetchOnStart", false)
	v.SetDefault("CacheTTL", "4h")
	v.SetDefault("Workers", 4)
	v.SetDefault("TargetWidth", 800)
	v.SetDefault("TargetHeight", 800)
	v.SetDefault("JPEGQuality", 85)
	v.SetDefault("ConnectTimeout", "10s")
	v.SetDefault("ReadTimeout", "10s")
	v.SetDefault("LoadTimeout", "30s")
}

func applyDefaults(cfg *Config) error {
	g := &cfg.Global
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.StoragePath == "" {
		path, err := DefaultStoragePath()
		if err != nil {
			return err
		}
		g.StoragePath = path
	}

	img := &cfg.Image
	if img.CacheTTL.DurationValue() == 0 {
		img.CacheTTL = Duration(defaultCacheTTL)
	}
	if img.ConnectTimeout.DurationValue() == 0 {
		img.ConnectTimeout = Duration(defaultTimeout)
	}
	if img.ReadTimeout.DurationValue() == 0 {
		img.ReadTimeout = Duration(defaultTimeout)
	}
	if img.LoadTimeout.DurationValue() == 0 {
		img.LoadTimeout = Duration(defaultLoadLimit)
	}
	return nil
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
