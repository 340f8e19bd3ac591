package loader

import (
	"context"
	"image"
	"sync"
)

// RenderTarget 是可被重复使用的显示槽位，wanted URL 决定迟到的结果能否写入。
type RenderTarget interface {
	SetWantedURL(url string)
	WantedURL() string
	Display(img image.Image)
	DisplayPlaceholder(img image.Image)
}

// FailureObserver 可由 RenderTarget 选择实现，用于得知当前 URL 加载失败。
// 失败时目标保持占位图，不会收到 Display。
type FailureObserver interface {
	LoadFailed(url string, err error)
}

// Slot is a concurrency-safe RenderTarget for non-UI consumers such as HTTP
// handlers and prefetch jobs. Wait blocks until the currently wanted URL has
// been displayed or has failed.
type Slot struct {
	mu          sync.Mutex
	wanted      string
	img         image.Image
	placeholder bool
	resolved    bool
	err         error
	changed     chan struct{}
}

// NewSlot 创建空槽位。
func NewSlot() *Slot {
	return &Slot{changed: make(chan struct{})}
}

func (s *Slot) SetWantedURL(url string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.wanted = url
	s.resolved = false
	s.err = nil
	s.notifyLocked()
}

func (s *Slot) WantedURL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wanted
}

func (s *Slot) Display(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.placeholder = false
	s.resolved = true
	s.notifyLocked()
}

func (s *Slot) DisplayPlaceholder(img image.Image) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.img = img
	s.placeholder = true
	s.notifyLocked()
}

func (s *Slot) LoadFailed(url string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if url != s.wanted {
		return
	}
	s.err = err
	s.resolved = true
	s.notifyLocked()
}

// Image 返回当前显示的图像，以及它是否为占位图。
func (s *Slot) Image() (image.Image, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.img, s.placeholder
}

// Wait 等待当前 wanted URL 的结果：成功返回图像，失败返回加载错误，
// ctx 结束返回 ctx.Err()。
func (s *Slot) Wait(ctx context.Context) (image.Image, error) {
	for {
		s.mu.Lock()
		if s.resolved {
			img, err := s.img, s.err
			s.mu.Unlock()
			if err != nil {
				return nil, err
			}
			return img, nil
		}
		if s.changed == nil {
			s.changed = make(chan struct{})
		}
		ch := s.changed
		s.mu.Unlock()

		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func (s *Slot) notifyLocked() {
	if s.changed != nil {
		close(s.changed)
	}
	s.changed = make(chan struct{})
}
