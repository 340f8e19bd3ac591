package cache

import (
	"image"
	"sync"
	"time"
)

// MemoryCache 保存解码后的图像与时间戳索引，进程内有效且不设容量上限。
// 读写通过 RWMutex 保护，同一 key 并发写入时以最后一次为准。
type MemoryCache struct {
	now func() time.Time

	mu      sync.RWMutex
	images  map[string]image.Image
	written map[string]time.Time
}

// NewMemoryCache 创建空的内存缓存，now 为空时使用 time.Now。
func NewMemoryCache(now func() time.Time) *MemoryCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryCache{
		now:     now,
		images:  make(map[string]image.Image),
		written: make(map[string]time.Time),
	}
}

// Get 返回 key 对应的图像；是否有效由调用方结合 Timestamp 判断。
func (m *MemoryCache) Get(key string) (image.Image, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	img, ok := m.images[key]
	return img, ok
}

// Put 记录图像并把时间戳刷新为当前时间。
func (m *MemoryCache) Put(key string, img image.Image) {
	now := m.now()
	m.mu.Lock()
	m.images[key] = img
	m.written[key] = now
	m.mu.Unlock()
}

// PutAt 记录图像并使用给定的写入时间，用于从磁盘回填时保留原有效期。
func (m *MemoryCache) PutAt(key string, img image.Image, written time.Time) {
	m.mu.Lock()
	m.images[key] = img
	m.written[key] = written
	m.mu.Unlock()
}

func (m *MemoryCache) Timestamp(key string) (time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.written[key]
	return t, ok
}

func (m *MemoryCache) SetTimestamp(key string, t time.Time) {
	m.mu.Lock()
	m.written[key] = t
	m.mu.Unlock()
}

// Clear 同步清空图像与时间戳索引。
func (m *MemoryCache) Clear() {
	m.mu.Lock()
	m.images = make(map[string]image.Image)
	m.written = make(map[string]time.Time)
	m.mu.Unlock()
}

// Len 返回当前缓存的图像数量。
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.images)
}
