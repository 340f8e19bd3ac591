package imaging

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	_ "image/png" // register PNG decoder
	"io"

	_ "golang.org/x/image/bmp"  // register BMP decoder
	_ "golang.org/x/image/webp" // register WebP decoder
)

// DefaultJPEGQuality 为磁盘缓存的压缩质量，偏向控制文件体积。
const DefaultJPEGQuality = 85

// ProbeBounds 只读取图片头部信息，不分配像素内存。
func ProbeBounds(r io.Reader) (image.Config, string, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return image.Config{}, "", fmt.Errorf("decode bounds: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return image.Config{}, format, fmt.Errorf("decode bounds: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, format, nil
}

// DecodeSampled 完整解码 r 后按 sample 缩小为 RGB565。
func DecodeSampled(r io.Reader, sample int) (*RGB565, error) {
	img, _, err := image.Decode(r)
	if err != nil {
		return nil, fmt.Errorf("decode pixels: %w", err)
	}
	return Reduce(img, sample), nil
}

// DecodeCached 解码磁盘缓存中的 JPEG 字节，不再缩放。
func DecodeCached(data []byte) (*RGB565, error) {
	return DecodeSampled(bytes.NewReader(data), 1)
}

// EncodeJPEG 以给定质量写出 JPEG；quality 超出 [1,100] 时回退默认值。
func EncodeJPEG(w io.Writer, img image.Image, quality int) error {
	if quality < 1 || quality > 100 {
		quality = DefaultJPEGQuality
	}
	if err := jpeg.Encode(w, img, &jpeg.Options{Quality: quality}); err != nil {
		return fmt.Errorf("encode jpeg: %w", err)
	}
	return nil
}
