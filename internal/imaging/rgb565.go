package imaging

import (
	"image"
	"image/color"
)

// RGB565Color 为 5-6-5 打包的不透明颜色。
type RGB565Color uint16

// RGBA 将 5/6 位分量扩展回 16 位，alpha 恒为不透明。
func (c RGB565Color) RGBA() (r, g, b, a uint32) {
	r5 := uint32(c>>11) & 0x1f
	g6 := uint32(c>>5) & 0x3f
	b5 := uint32(c) & 0x1f

	r8 := r5<<3 | r5>>2
	g8 := g6<<2 | g6>>4
	b8 := b5<<3 | b5>>2
	return r8 * 0x101, g8 * 0x101, b8 * 0x101, 0xffff
}

// RGB565Model 把任意颜色转换为 RGB565Color；alpha 被丢弃（等价于叠加在黑底上）。
var RGB565Model = color.ModelFunc(rgb565Model)

func rgb565Model(c color.Color) color.Color {
	if v, ok := c.(RGB565Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return RGB565Color(uint16(r>>11)<<11 | uint16(g>>10)<<5 | uint16(b>>11))
}

// RGB565 is an in-memory raster storing 2 bytes per pixel, little endian.
// It halves the footprint of image.RGBA at the cost of colour depth.
type RGB565 struct {
	Pix    []uint8
	Stride int
	Rect   image.Rectangle
}

// NewRGB565 returns a zeroed (black) raster with the given bounds.
func NewRGB565(r image.Rectangle) *RGB565 {
	w, h := r.Dx(), r.Dy()
	if w < 0 {
		w = 0
	}
	if h < 0 {
		h = 0
	}
	return &RGB565{
		Pix:    make([]uint8, 2*w*h),
		Stride: 2 * w,
		Rect:   r,
	}
}

func (p *RGB565) ColorModel() color.Model { return RGB565Model }

func (p *RGB565) Bounds() image.Rectangle { return p.Rect }

func (p *RGB565) At(x, y int) color.Color { return p.RGB565At(x, y) }

// RGB565At returns the packed colour at (x, y), or 0 outside the bounds.
func (p *RGB565) RGB565At(x, y int) RGB565Color {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return 0
	}
	i := p.PixOffset(x, y)
	return RGB565Color(uint16(p.Pix[i]) | uint16(p.Pix[i+1])<<8)
}

// PixOffset returns the index of the first byte of the pixel at (x, y).
func (p *RGB565) PixOffset(x, y int) int {
	return (y-p.Rect.Min.Y)*p.Stride + (x-p.Rect.Min.X)*2
}

func (p *RGB565) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	v := RGB565Model.Convert(c).(RGB565Color)
	i := p.PixOffset(x, y)
	p.Pix[i] = uint8(v)
	p.Pix[i+1] = uint8(v >> 8)
}

// Opaque 恒为 true：格式本身不携带 alpha。
func (p *RGB565) Opaque() bool { return true }

// SizeBytes 返回像素缓冲区大小，供统计使用。
func (p *RGB565) SizeBytes() int { return len(p.Pix) }
