package routes

import (
	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/imgcache/internal/cache"
	"github.com/any-hub/imgcache/internal/loader"
)

// CacheAdmin 是 /-/cache 与 /-/stats 所需的 Loader 能力。
type CacheAdmin interface {
	Invalidate()
	Stats() loader.Stats
}

// UsageReporter 报告磁盘缓存目录占用，实现为 *cache.DiskCache。
type UsageReporter interface {
	Dir() string
	Usage() (cache.Usage, error)
}

type diskPayload struct {
	Dir   string `json:"dir"`
	Files int    `json:"files"`
	Bytes int64  `json:"bytes"`
	Human string `json:"human"`
	Error string `json:"error,omitempty"`
}

// RegisterCacheRoutes 暴露 DELETE /-/cache（失效）与 GET /-/stats（计数器与磁盘占用）。
func RegisterCacheRoutes(app *fiber.App, admin CacheAdmin, disk UsageReporter, logger *logrus.Logger) {
	if app == nil || admin == nil {
		return
	}

	app.Delete("/-/cache", func(c fiber.Ctx) error {
		admin.Invalidate()
		if logger != nil {
			logger.WithField("action", "invalidate").Info("cache invalidation requested")
		}
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"status": "invalidating"})
	})

	app.Get("/-/stats", func(c fiber.Ctx) error {
		payload := fiber.Map{"loader": admin.Stats()}
		if disk != nil {
			payload["disk"] = encodeUsage(disk)
		}
		return c.JSON(payload)
	})
}

func encodeUsage(disk UsageReporter) diskPayload {
	out := diskPayload{Dir: disk.Dir()}
	usage, err := disk.Usage()
	if err != nil {
		out.Error = err.Error()
		return out
	}
	out.Files = usage.Files
	out.Bytes = usage.Bytes
	out.Human = humanize.Bytes(uint64(usage.Bytes))
	return out
}
