package imaging

import (
	"image"
	"image/color"
	"testing"
)

func TestSampleSize(t *testing.T) {
	testCases := []struct {
		name          string
		width, height int
		want          int
	}{
		{"wide 3200x1600", 3200, 1600, 2},
		{"smaller than target", 640, 480, 1},
		{"exactly target", 800, 800, 1},
		{"twice target", 1600, 1600, 2},
		{"four times target", 3200, 3200, 4},
		{"one axis over", 1000, 200, 1},
		{"huge", 12800, 9600, 8},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := SampleSize(tc.width, tc.height, DefaultTargetWidth, DefaultTargetHeight)
			if got != tc.want {
				t.Fatalf("SampleSize(%d, %d) = %d, want %d", tc.width, tc.height, got, tc.want)
			}
			if got > 1 {
				if tc.width/got < DefaultTargetWidth || tc.height/got < DefaultTargetHeight {
					t.Fatalf("sample %d shrinks below target box", got)
				}
			}
		})
	}
}

func TestReduceHalvesDimensions(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 3200, 1600))
	sample := SampleSize(3200, 1600, DefaultTargetWidth, DefaultTargetHeight)

	dst := Reduce(src, sample)
	if dst.Bounds().Dx() != 1600 || dst.Bounds().Dy() != 800 {
		t.Fatalf("unexpected size %v", dst.Bounds())
	}
	if dst.SizeBytes() != 1600*800*2 {
		t.Fatalf("RGB565 应为每像素 2 字节，得到 %d", dst.SizeBytes())
	}
}

func TestReduceKeepsColour(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 8, 8))
	red := color.RGBA{R: 0xff, A: 0xff}
	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			src.Set(x, y, red)
		}
	}

	dst := Reduce(src, 2)
	r, g, b, a := dst.At(1, 1).RGBA()
	if r != 0xffff || g != 0 || b != 0 || a != 0xffff {
		t.Fatalf("unexpected colour r=%x g=%x b=%x a=%x", r, g, b, a)
	}
}

func TestRGB565RoundTrip(t *testing.T) {
	img := NewRGB565(image.Rect(0, 0, 2, 1))
	img.Set(0, 0, color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff})
	img.Set(1, 0, color.Black)

	if got := img.RGB565At(0, 0); got != 0xffff {
		t.Fatalf("white should pack to 0xffff, got %#x", uint16(got))
	}
	if got := img.RGB565At(1, 0); got != 0 {
		t.Fatalf("black should pack to 0, got %#x", uint16(got))
	}
	if got := img.RGB565At(5, 5); got != 0 {
		t.Fatalf("out of bounds should be 0")
	}
	if !img.Opaque() {
		t.Fatalf("RGB565 is always opaque")
	}
}
