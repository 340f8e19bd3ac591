package catalog

import (
	"context"
	"image"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/any-hub/imgcache/internal/loader"
)

// ImageLoader 是预取所需的最小 Loader 能力。
type ImageLoader interface {
	Load(url string, target loader.RenderTarget, placeholder image.Image)
}

// PrefetchResult 汇总一次预取的结果。
type PrefetchResult struct {
	Total  int `json:"total"`
	Loaded int `json:"loaded"`
	Failed int `json:"failed"`
}

// Prefetch 通过 Loader 预热目录中的所有图片，同时等待的图片数不超过 concurrency。
// 单张失败不会中断其余预取；仅在 ctx 结束时返回错误。
func Prefetch(ctx context.Context, l ImageLoader, images []Image, concurrency int) (PrefetchResult, error) {
	if concurrency <= 0 {
		concurrency = loader.DefaultWorkers
	}

	var loaded, failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for _, item := range images {
		g.Go(func() error {
			slot := loader.NewSlot()
			l.Load(item.URL, slot, nil)
			if _, err := slot.Wait(gctx); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				failed.Add(1)
				return nil
			}
			loaded.Add(1)
			return nil
		})
	}

	err := g.Wait()
	return PrefetchResult{
		Total:  len(images),
		Loaded: int(loaded.Load()),
		Failed: int(failed.Load()),
	}, err
}
