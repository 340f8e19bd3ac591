package routes

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/imgcache/internal/catalog"
)

// CatalogSource 返回可展示的图片列表，实现为 *catalog.Client。
type CatalogSource interface {
	Fetch(ctx context.Context) ([]catalog.Image, error)
}

const catalogTimeout = 30 * time.Second

// RegisterCatalogRoutes 暴露 GET /-/catalog，透传目录服务的图片列表。
func RegisterCatalogRoutes(app *fiber.App, source CatalogSource, logger *logrus.Logger) {
	if app == nil || source == nil {
		return
	}

	app.Get("/-/catalog", func(c fiber.Ctx) error {
		parent := c.Context()
		if parent == nil {
			parent = context.Background()
		}
		ctx, cancel := context.WithTimeout(parent, catalogTimeout)
		defer cancel()

		images, err := source.Fetch(ctx)
		if err != nil {
			if logger != nil {
				logger.WithField("action", "catalog_fetch").WithError(err).Warn("catalog unavailable")
			}
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "catalog_unavailable"})
		}
		if images == nil {
			images = []catalog.Image{}
		}
		return c.JSON(fiber.Map{"images": images, "count": len(images)})
	})
}
