package loader

import (
	"context"
	"crypto"
	"errors"
	"image"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"github.com/any-hub/imgcache/internal/cache"
	"github.com/any-hub/imgcache/internal/cachekey"
	"github.com/any-hub/imgcache/internal/fetch"
	"github.com/any-hub/imgcache/internal/imaging"
	"github.com/any-hub/imgcache/internal/logging"
)

// Fetcher 从网络获取并解码图片，实现为 *fetch.Fetcher。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (image.Image, error)
}

// DiskTier 为磁盘缓存层，实现为 *cache.DiskCache。
type DiskTier interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, img image.Image) error
	Timestamp(key string) (time.Time, bool)
	Clear(ctx context.Context) error
}

// Options 汇总 Loader 的依赖；Memory/Logger/Now/KeyHash 可留空使用默认值。
type Options struct {
	Memory  *cache.MemoryCache
	Disk    DiskTier
	Fetcher Fetcher
	Logger  *logrus.Logger
	TTL     time.Duration
	Workers int
	Now     func() time.Time
	KeyHash crypto.Hash
}

// Loader 串联 内存 → 磁盘 → 网络 三级查找，并保证迟到的结果不会写入已被复用的目标。
type Loader struct {
	memory   *cache.MemoryCache
	disk     DiskTier
	fetcher  Fetcher
	logger   *logrus.Logger
	validity cache.Validity
	keyHash  crypto.Hash

	// applyMu 串行化所有对 RenderTarget 的修改。
	applyMu    sync.Mutex
	pool       *workerPool
	deliveries chan delivery
	applyDone  chan struct{}
	flight     singleflight.Group
	stats      counters
	closeOnce  sync.Once
}

type loadJob struct {
	url    string
	key    string
	target RenderTarget
}

type delivery struct {
	loadJob
	img    image.Image
	source Source
	err    error
}

// New 显式构造 Loader 并启动 worker 池与 apply 协程，使用完毕需调用 Close。
func New(opts Options) (*Loader, error) {
	if opts.Disk == nil {
		return nil, errors.New("disk tier is required")
	}
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}

	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	memory := opts.Memory
	if memory == nil {
		memory = cache.NewMemoryCache(opts.Now)
	}
	keyHash := opts.KeyHash
	if keyHash == 0 {
		keyHash = cachekey.Digest
	}

	l := &Loader{
		memory:     memory,
		disk:       opts.Disk,
		fetcher:    opts.Fetcher,
		logger:     logger,
		validity:   cache.NewValidity(opts.TTL, opts.Now),
		keyHash:    keyHash,
		pool:       newWorkerPool(opts.Workers, logger),
		deliveries: make(chan delivery, 64),
		applyDone:  make(chan struct{}),
	}
	go l.applyLoop()
	return l, nil
}

// Load 把 url 绑定到 target：先打标签并显示占位图，内存命中时同步显示，
// 否则交给后台 worker 依次尝试磁盘与网络。失败时目标保留占位图。
func (l *Loader) Load(url string, target RenderTarget, placeholder image.Image) {
	l.stats.requests.Add(1)
	key := l.key(url)

	l.applyMu.Lock()
	target.SetWantedURL(url)
	if placeholder != nil {
		target.DisplayPlaceholder(placeholder)
	}
	if img, ok := l.freshMemory(key); ok {
		target.Display(img)
		l.applyMu.Unlock()

		l.stats.memoryHits.Add(1)
		l.stats.delivered.Add(1)
		l.logger.WithFields(logging.LoadFields("load", url, key, string(SourceMemory))).Debug("memory hit")
		return
	}
	l.applyMu.Unlock()

	job := loadJob{url: url, key: key, target: target}
	if err := l.pool.Submit(func(ctx context.Context) { l.run(ctx, job) }); err != nil {
		l.logger.WithFields(logging.LoadFields("load", url, key, "")).WithError(err).Warn("load rejected")
	}
}

// Invalidate 同步清空内存层，磁盘目录的删除交给后台异步执行；
// 返回时磁盘文件可能仍在删除中。
func (l *Loader) Invalidate() {
	l.memory.Clear()

	err := l.pool.Submit(func(ctx context.Context) {
		if err := l.disk.Clear(ctx); err != nil {
			l.logger.WithField("action", "invalidate").WithError(err).Warn("disk cache clear failed")
			return
		}
		l.logger.WithField("action", "invalidate").Info("disk cache cleared")
	})
	if err != nil {
		l.logger.WithField("action", "invalidate").WithError(err).Warn("disk cache clear not scheduled")
	}
}

// Stats 返回计数器快照。
func (l *Loader) Stats() Stats {
	s := l.stats.snapshot()
	s.Queued = l.pool.Pending()
	s.MemoryEntries = l.memory.Len()
	return s
}

// Close 停止 worker 与 apply 协程，未投递的结果被丢弃。可重复调用。
func (l *Loader) Close() error {
	l.closeOnce.Do(func() {
		l.pool.Close()
		close(l.deliveries)
		<-l.applyDone
	})
	return nil
}

func (l *Loader) key(url string) string {
	key, fallback := cachekey.DeriveWith(l.keyHash, url)
	if fallback {
		l.stats.keyFallbacks.Add(1)
		l.logger.WithFields(logrus.Fields{
			"action": "key_fallback",
			"url":    url,
			"digest": l.keyHash.String(),
		}).Warn("digest unavailable, using weaker cache key")
	}
	return key
}

func (l *Loader) freshMemory(key string) (image.Image, bool) {
	img, ok := l.memory.Get(key)
	if !ok {
		return nil, false
	}
	written, ok := l.memory.Timestamp(key)
	if !ok || !l.validity.Fresh(written) {
		return nil, false
	}
	return img, true
}

func (l *Loader) run(ctx context.Context, job loadJob) {
	img, source, err := l.resolve(ctx, job)
	if err != nil {
		l.stats.failedLoads.Add(1)
		l.logger.WithFields(logging.LoadFields("load_failed", job.url, job.key, string(source))).
			WithField("kind", string(fetch.KindOf(err))).
			WithError(err).
			Warn("image load failed")
	}

	select {
	case l.deliveries <- delivery{loadJob: job, img: img, source: source, err: err}:
	case <-ctx.Done():
	}
}

func (l *Loader) resolve(ctx context.Context, job loadJob) (image.Image, Source, error) {
	if img, ok := l.fromDisk(ctx, job); ok {
		l.stats.diskHits.Add(1)
		return img, SourceDisk, nil
	}

	v, err, _ := l.flight.Do(job.key, func() (any, error) {
		img, err := l.fetcher.Fetch(ctx, job.url)
		if err != nil {
			return nil, err
		}
		l.stats.networkFetches.Add(1)
		l.memory.Put(job.key, img)
		if err := l.disk.Put(ctx, job.key, img); err != nil {
			l.logger.WithFields(logging.LoadFields("disk_write", job.url, job.key, string(SourceNetwork))).
				WithError(err).Warn("disk cache write failed")
		}
		return img, nil
	})
	if err != nil {
		return nil, SourceNetwork, err
	}
	return v.(image.Image), SourceNetwork, nil
}

// fromDisk 读取有效期内的磁盘条目并回填内存层；任何读取或解码错误都按未命中处理。
func (l *Loader) fromDisk(ctx context.Context, job loadJob) (image.Image, bool) {
	written, ok := l.disk.Timestamp(job.key)
	if !ok || !l.validity.Fresh(written) {
		return nil, false
	}

	data, err := l.disk.Get(ctx, job.key)
	if err != nil {
		if !errors.Is(err, cache.ErrNotFound) {
			l.logger.WithFields(logging.LoadFields("disk_read", job.url, job.key, string(SourceDisk))).
				WithError(err).Warn("disk cache read failed")
		}
		return nil, false
	}

	img, err := imaging.DecodeCached(data)
	if err != nil {
		l.logger.WithFields(logging.LoadFields("disk_read", job.url, job.key, string(SourceDisk))).
			WithError(err).Warn("disk cache entry undecodable")
		return nil, false
	}

	// 保留磁盘条目的写入时间，避免磁盘命中延长有效期。
	l.memory.PutAt(job.key, img, written)
	return img, true
}

func (l *Loader) applyLoop() {
	defer close(l.applyDone)
	for d := range l.deliveries {
		l.apply(d)
	}
}

// apply 在写入目标前再次确认目标仍然想要该 URL，不匹配则静默丢弃。
func (l *Loader) apply(d delivery) {
	l.applyMu.Lock()
	defer l.applyMu.Unlock()

	if d.target.WantedURL() != d.url {
		l.stats.discarded.Add(1)
		l.logger.WithFields(logging.LoadFields("delivery_discarded", d.url, d.key, string(d.source))).Debug("target reassigned")
		return
	}

	if d.err != nil {
		if observer, ok := d.target.(FailureObserver); ok {
			observer.LoadFailed(d.url, d.err)
		}
		return
	}

	d.target.Display(d.img)
	l.stats.delivered.Add(1)
	l.logger.WithFields(logging.LoadFields("load", d.url, d.key, string(d.source))).Debug("image delivered")
}
