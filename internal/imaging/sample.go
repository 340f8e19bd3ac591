package imaging

import (
	"image"

	"golang.org/x/image/draw"
)

// 默认目标尺寸；解码结果在受约束的轴上不会小于该尺寸。
const (
	DefaultTargetWidth  = 800
	DefaultTargetHeight = 800
)

// SampleSize 计算 2 的幂缩放因子：在宽高减半后再除以因子仍不小于目标尺寸时继续翻倍。
// 结果保证缩放后的图像至少与目标框一样大（每个轴最多超出约 2 倍）。
func SampleSize(width, height, reqWidth, reqHeight int) int {
	sample := 1
	if height > reqHeight || width > reqWidth {
		halfHeight := height / 2
		halfWidth := width / 2
		for halfHeight/sample >= reqHeight && halfWidth/sample >= reqWidth {
			sample *= 2
		}
	}
	return sample
}

// Reduce 将 src 按 sample 缩小到 (w/sample)×(h/sample)，输出 RGB565 栅格。
// sample <= 1 时仅做像素格式转换。
func Reduce(src image.Image, sample int) *RGB565 {
	sb := src.Bounds()
	if sample <= 1 {
		dst := NewRGB565(image.Rect(0, 0, sb.Dx(), sb.Dy()))
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
		return dst
	}

	w := max(sb.Dx()/sample, 1)
	h := max(sb.Dy()/sample, 1)
	dst := NewRGB565(image.Rect(0, 0, w, h))
	draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}
