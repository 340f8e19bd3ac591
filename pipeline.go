package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/imgcache/internal/cache"
	"github.com/any-hub/imgcache/internal/catalog"
	"github.com/any-hub/imgcache/internal/config"
	"github.com/any-hub/imgcache/internal/fetch"
	"github.com/any-hub/imgcache/internal/loader"
	"github.com/any-hub/imgcache/internal/server"
	"github.com/any-hub/imgcache/internal/server/routes"
	"github.com/any-hub/imgcache/internal/version"
)

// pipeline 持有进程级共享的缓存层、Loader 与目录客户端。
type pipeline struct {
	cfg     *config.Config
	logger  *logrus.Logger
	memory  *cache.MemoryCache
	disk    *cache.DiskCache
	loader  *loader.Loader
	catalog *catalog.Client
}

func buildPipeline(cfg *config.Config, logger *logrus.Logger) (*pipeline, error) {
	memory := cache.NewMemoryCache(nil)
	disk, err := cache.NewDiskCache(cfg.Global.StoragePath, cache.DiskOptions{
		Index:   memory,
		Quality: cfg.Image.JPEGQuality,
	})
	if err != nil {
		return nil, fmt.Errorf("初始化缓存目录失败: %w", err)
	}

	client := fetch.NewClient(cfg.Image.ConnectTimeout.DurationValue(), cfg.Image.ReadTimeout.DurationValue())
	fetcher := fetch.New(fetch.Options{
		Client:       client,
		TargetWidth:  cfg.Image.TargetWidth,
		TargetHeight: cfg.Image.TargetHeight,
		UserAgent:    version.UserAgent(),
	})

	l, err := loader.New(loader.Options{
		Memory:  memory,
		Disk:    disk,
		Fetcher: fetcher,
		Logger:  logger,
		TTL:     cfg.Image.CacheTTL.DurationValue(),
		Workers: cfg.Image.Workers,
	})
	if err != nil {
		return nil, err
	}

	rt := &pipeline{
		cfg:    cfg,
		logger: logger,
		memory: memory,
		disk:   disk,
		loader: l,
	}

	if cfg.CatalogEnabled() {
		rt.catalog, err = catalog.NewClient(cfg.Global.CatalogURL, client)
		if err != nil {
			_ = l.Close()
			return nil, err
		}
	}
	return rt, nil
}

// newApp 组装 Fiber 应用；目录路由仅在配置了 CatalogURL 时注册。
func (rt *pipeline) newApp() (*fiber.App, error) {
	app, err := server.NewApp(server.AppOptions{
		Logger:      rt.logger,
		Images:      rt.loader,
		LoadTimeout: rt.cfg.Image.LoadTimeout.DurationValue(),
		JPEGQuality: rt.cfg.Image.JPEGQuality,
	})
	if err != nil {
		return nil, err
	}
	routes.RegisterCacheRoutes(app, rt.loader, rt.disk, rt.logger)
	if rt.catalog != nil {
		routes.RegisterCatalogRoutes(app, rt.catalog, rt.logger)
	}
	return app, nil
}

// prefetch 拉取目录并通过 Loader 预热全部图片。
func (rt *pipeline) prefetch(ctx context.Context) error {
	if rt.catalog == nil {
		return errors.New("catalog is not configured")
	}

	images, err := rt.catalog.Fetch(ctx)
	if err != nil {
		return err
	}

	result, err := catalog.Prefetch(ctx, rt.loader, images, rt.cfg.Image.Workers)
	rt.logger.WithFields(logrus.Fields{
		"action":     "prefetch",
		"catalog":    rt.catalog.URL(),
		"total":      result.Total,
		"loaded":     result.Loaded,
		"failed":     result.Failed,
		"disk_usage": rt.usageSummary(),
	}).Info("prefetch finished")
	return err
}

func (rt *pipeline) usageSummary() string {
	usage, err := rt.disk.Usage()
	if err != nil {
		return "unknown"
	}
	return fmt.Sprintf("%s in %d files", humanize.Bytes(uint64(usage.Bytes)), usage.Files)
}

func (rt *pipeline) Close() error {
	return rt.loader.Close()
}
