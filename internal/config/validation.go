package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"
)

// Validate 针对语义级别做进一步校验，防止非法配置启动服务。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if g.LogLevel != "" {
		if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
			return newFieldError("Global.LogLevel", "无法识别的日志级别: "+g.LogLevel)
		}
	}
	if g.LogMaxSize < 0 {
		return newFieldError("Global.LogMaxSize", "不能为负数")
	}
	if g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxBackups", "不能为负数")
	}
	if strings.TrimSpace(g.StoragePath) == "" {
		return newFieldError("Global.StoragePath", "不能为空")
	}
	if g.CatalogURL != "" {
		if err := validateHTTPURL(g.CatalogURL); err != nil {
			return fmt.Errorf("Global.CatalogURL: %w", err)
		}
	}
	if g.PrefetchOnStart && g.CatalogURL == "" {
		return newFieldError("Global.PrefetchOnStart", "需要同时配置 CatalogURL")
	}

	img := c.Image
	if img.CacheTTL.DurationValue() <= 0 {
		return newFieldError("Image.CacheTTL", "必须大于 0")
	}
	if img.Workers <= 0 {
		return newFieldError("Image.Workers", "必须大于 0")
	}
	if img.TargetWidth <= 0 {
		return newFieldError("Image.TargetWidth", "必须大于 0")
	}
	if img.TargetHeight <= 0 {
		return newFieldError("Image.TargetHeight", "必须大于 0")
	}
	if img.JPEGQuality < 1 || img.JPEGQuality > 100 {
		return newFieldError("Image.JPEGQuality", "必须在 1-100")
	}
	if img.ConnectTimeout.DurationValue() <= 0 {
		return newFieldError("Image.ConnectTimeout", "必须大于 0")
	}
	if img.ReadTimeout.DurationValue() <= 0 {
		return newFieldError("Image.ReadTimeout", "必须大于 0")
	}
	if img.LoadTimeout.DurationValue() <= 0 {
		return newFieldError("Image.LoadTimeout", "必须大于 0")
	}

	return nil
}

func validateHTTPURL(raw string) error {
	parsed, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return fmt.Errorf("仅支持 http/https: %s", raw)
	}
	if parsed.Host == "" {
		return fmt.Errorf("缺少 Host: %s", raw)
	}
	return nil
}
