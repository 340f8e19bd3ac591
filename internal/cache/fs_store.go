package cache

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/any-hub/imgcache/internal/imaging"
)

// DiskOptions 控制磁盘缓存的依赖注入。
type DiskOptions struct {
	// Index 为共享的时间戳索引，通常是 MemoryCache。
	Index TimestampIndex
	// Encode 为空时使用 JPEG（Quality 指定质量）。
	Encode  Encoder
	Quality int
	Now     func() time.Time
}

// NewDiskCache 以 dir 为缓存目录构建磁盘缓存，目录不存在时自动创建。
func NewDiskCache(dir string, opts DiskOptions) (*DiskCache, error) {
	if dir == "" {
		return nil, errors.New("cache dir required")
	}
	if opts.Index == nil {
		return nil, errors.New("timestamp index required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache dir: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	encode := opts.Encode
	if encode == nil {
		quality := opts.Quality
		encode = func(img image.Image) ([]byte, error) {
			var buf bytes.Buffer
			if err := imaging.EncodeJPEG(&buf, img, quality); err != nil {
				return nil, err
			}
			return buf.Bytes(), nil
		}
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &DiskCache{
		dir:    abs,
		index:  opts.Index,
		encode: encode,
		now:    now,
		locks:  make(map[string]*entryLock),
	}, nil
}

// DiskCache 每个 key 对应目录下一个文件，不维护额外的索引文件；
// 同一 key 的写入通过 entryLock 串行化，结果以最后一次写入为准。
type DiskCache struct {
	dir    string
	index  TimestampIndex
	encode Encoder
	now    func() time.Time

	mu    sync.Mutex
	locks map[string]*entryLock
}

type entryLock struct {
	mu   sync.Mutex
	refs int
}

// Dir 返回缓存目录的绝对路径。
func (d *DiskCache) Dir() string {
	return d.dir
}

// Get 返回 key 对应的已编码字节；文件不存在或为目录时返回 ErrNotFound。
func (d *DiskCache) Get(ctx context.Context, key string) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	filePath, err := d.path(key)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ioError("stat", err)
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, ioError("read", err)
	}
	return data, nil
}

// Put 编码图像后以临时文件 + rename 的方式原子写入，并刷新时间戳。
func (d *DiskCache) Put(ctx context.Context, key string, img image.Image) error {
	filePath, err := d.path(key)
	if err != nil {
		return err
	}

	data, err := d.encode(img)
	if err != nil {
		return err
	}

	unlock := d.lockEntry(key)
	defer unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	tempFile, err := os.CreateTemp(d.dir, ".cache-*")
	if err != nil {
		return ioError("create temp", err)
	}
	tempName := tempFile.Name()

	_, err = tempFile.Write(data)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return ioError("write", err)
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return ioError("rename", err)
	}

	written := d.now()
	if err := os.Chtimes(filePath, written, written); err != nil {
		return ioError("chtimes", err)
	}
	d.index.SetTimestamp(key, written)
	return nil
}

// Timestamp 优先读取共享索引；索引缺失时使用文件修改时间并回填索引，
// 以便进程重启后仍能判断有效期。
func (d *DiskCache) Timestamp(key string) (time.Time, bool) {
	if t, ok := d.index.Timestamp(key); ok {
		return t, true
	}

	filePath, err := d.path(key)
	if err != nil {
		return time.Time{}, false
	}
	info, err := os.Stat(filePath)
	if err != nil || info.IsDir() {
		return time.Time{}, false
	}

	modTime := info.ModTime()
	d.index.SetTimestamp(key, modTime)
	return modTime, true
}

// Clear 删除缓存目录下的所有文件，单个文件失败不会中断其余删除。
func (d *DiskCache) Clear(ctx context.Context) error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return ioError("list", err)
	}

	var errs []error
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return err
		}
		if entry.IsDir() {
			continue
		}
		if err := os.Remove(filepath.Join(d.dir, entry.Name())); err != nil && !errors.Is(err, fs.ErrNotExist) {
			errs = append(errs, ioError("remove", err))
		}
	}
	return errors.Join(errs...)
}

// Usage 统计目录中的文件数与总字节数。
func (d *DiskCache) Usage() (Usage, error) {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return Usage{}, ioError("list", err)
	}

	var usage Usage
	for _, entry := range entries {
		if entry.IsDir() || strings.HasPrefix(entry.Name(), ".cache-") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		usage.Files++
		usage.Bytes += info.Size()
	}
	return usage, nil
}

func (d *DiskCache) lockEntry(key string) func() {
	d.mu.Lock()
	lock := d.locks[key]
	if lock == nil {
		lock = &entryLock{}
		d.locks[key] = lock
	}
	lock.refs++
	d.mu.Unlock()

	lock.mu.Lock()
	return func() {
		lock.mu.Unlock()
		d.mu.Lock()
		lock.refs--
		if lock.refs == 0 {
			delete(d.locks, key)
		}
		d.mu.Unlock()
	}
}

func (d *DiskCache) path(key string) (string, error) {
	if key == "" || key == "." || key == ".." || strings.ContainsAny(key, `/\`) {
		return "", fmt.Errorf("invalid cache key %q", key)
	}
	return filepath.Join(d.dir, key), nil
}

func ioError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrDiskIO, err)
}
