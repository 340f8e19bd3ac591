package cache

import (
	"errors"
	"image"
	"time"
)

// TimestampIndex 保存 key → 最后写入时间，内存层与磁盘层共用同一份索引。
type TimestampIndex interface {
	Timestamp(key string) (time.Time, bool)
	SetTimestamp(key string, t time.Time)
}

// Encoder 把解码后的图像写成磁盘格式。
type Encoder func(img image.Image) ([]byte, error)

// Usage 描述磁盘缓存目录的占用情况。
type Usage struct {
	Files int   `json:"files"`
	Bytes int64 `json:"bytes"`
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")

	// ErrDiskIO 包装磁盘层的读写删除错误，调用方一律按未命中/告警处理。
	ErrDiskIO = errors.New("cache disk io")
)
