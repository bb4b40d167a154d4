package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

var testNormalize = NormalizeOptions{CellSize: 32, DarkCutoff: 40}

func TestRemoveShadows_WhiteUnchanged(t *testing.T) {
	img := createInMemoryImage(100, 70, color.White)

	out, err := RemoveShadows(img, testNormalize)
	if err != nil {
		t.Fatalf("RemoveShadows failed: %v", err)
	}
	for y := 0; y < 70; y++ {
		for x := 0; x < 100; x++ {
			if out.RGBAAt(x, y) != (color.RGBA{255, 255, 255, 255}) {
				t.Fatalf("pixel (%d,%d) changed to %v", x, y, out.RGBAAt(x, y))
			}
		}
	}
}

func TestRemoveShadows_LiftsShadowedPaper(t *testing.T) {
	// Left half is paper under a shadow (gray 128) with ink (gray 32).
	// Right half is well-lit paper with ink.
	img := createInMemoryImage(64, 32, color.RGBA{128, 128, 128, 255})
	draw.Draw(img, image.Rect(32, 0, 64, 32), &image.Uniform{color.White}, image.Point{}, draw.Src)
	img.Set(10, 10, color.RGBA{32, 32, 32, 255})
	img.Set(40, 10, color.RGBA{32, 32, 32, 255})

	out, err := RemoveShadows(img, testNormalize)
	if err != nil {
		t.Fatalf("RemoveShadows failed: %v", err)
	}

	if got := out.RGBAAt(5, 5).R; got != 255 {
		t.Errorf("shadowed paper should become white, got %d", got)
	}
	// 32 * 255/128 = 63.75
	if got := out.RGBAAt(10, 10).R; got != 64 {
		t.Errorf("ink in shadow: got %d, want 64", got)
	}
	if got := out.RGBAAt(40, 10).R; got != 32 {
		t.Errorf("ink on lit paper should be unchanged, got %d", got)
	}
}

func TestRemoveShadows_DarkCellsUntouched(t *testing.T) {
	img := createInMemoryImage(64, 64, color.RGBA{30, 30, 30, 255})

	out, err := RemoveShadows(img, testNormalize)
	if err != nil {
		t.Fatalf("RemoveShadows failed: %v", err)
	}
	if got := out.RGBAAt(20, 20); got != (color.RGBA{30, 30, 30, 255}) {
		t.Errorf("dark cell should not be amplified, got %v", got)
	}
}

func TestRemoveShadows_DoesNotMutateInput(t *testing.T) {
	img := createInMemoryImage(40, 40, color.RGBA{100, 100, 100, 255})
	if _, err := RemoveShadows(img, testNormalize); err != nil {
		t.Fatalf("RemoveShadows failed: %v", err)
	}
	if img.RGBAAt(0, 0).R != 100 {
		t.Error("input image was modified")
	}
}

func TestRemoveShadows_EmptyImage(t *testing.T) {
	_, err := RemoveShadows(image.NewRGBA(image.Rect(0, 0, 0, 5)), testNormalize)
	if !errors.Is(err, ErrEmptyImage) {
		t.Errorf("got %v, want ErrEmptyImage", err)
	}
}

var testScan = ScanOptions{Contrast: 1.4, Brightness: 20, Clip: 240}

func TestScanValue(t *testing.T) {
	tests := []struct {
		lum  float64
		want uint8
	}{
		{0, 0},     // (0-128)*1.4+148 = -31.2
		{128, 148}, // mid-gray shifted by the offset
		{100, 109}, // -39.2+148 = 108.8
		{190, 235}, // 86.8+148 = 234.8
		{193, 239}, // 91+148 = 239, still below the clip
		{194, 255}, // 240.4 crosses the clip
		{255, 255},
	}

	for _, tt := range tests {
		if got := testScan.ScanValue(tt.lum); got != tt.want {
			t.Errorf("ScanValue(%v): got %d, want %d", tt.lum, got, tt.want)
		}
	}
}

func TestScanValue_MonotonicBelowClip(t *testing.T) {
	prev := testScan.ScanValue(0)
	for lum := 0.0; lum <= 255; lum += 0.25 {
		v := testScan.ScanValue(lum)
		if v < prev {
			t.Fatalf("not monotonic at %v: %d < %d", lum, v, prev)
		}
		prev = v
	}
}

func TestScanFilter(t *testing.T) {
	img := createInMemoryImage(4, 4, color.RGBA{200, 100, 50, 255})

	out, err := ScanFilter(img, testScan)
	if err != nil {
		t.Fatalf("ScanFilter failed: %v", err)
	}
	c := out.NRGBAAt(1, 1)
	if c.R != c.G || c.G != c.B {
		t.Errorf("output should be gray, got %v", c)
	}
	want := testScan.ScanValue(Luma(200, 100, 50))
	if c.R != want {
		t.Errorf("level: got %d, want %d", c.R, want)
	}
	if c.A != 255 {
		t.Errorf("alpha should be preserved, got %d", c.A)
	}
}

var testTrim = TrimOptions{Threshold: 250, MinCount: 5, Padding: 10}

func TestTrimBorders(t *testing.T) {
	img := createInMemoryImage(200, 150, color.White)
	draw.Draw(img, image.Rect(50, 40, 120, 90), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	out := TrimBorders(img, testTrim)

	// minX=50 maxX=119 -> tx=40 tw=69+20; minY=40 maxY=89 -> ty=30 th=49+20
	if out.Bounds().Dx() != 89 || out.Bounds().Dy() != 69 {
		t.Fatalf("dimensions: got %dx%d, want 89x69", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if v := gray8(out, 15, 15); v != 0 {
		t.Errorf("content should be kept, got %d", v)
	}
	if v := gray8(out, 2, 2); v != 255 {
		t.Errorf("padding should be white, got %d", v)
	}
}

func TestTrimBorders_PaddingClampsToImage(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	draw.Draw(img, image.Rect(2, 3, 98, 97), &image.Uniform{color.Black}, image.Point{}, draw.Src)

	out := TrimBorders(img, testTrim)
	b := out.Bounds()
	if b.Dx() > 100 || b.Dy() > 100 {
		t.Errorf("trimmed image larger than source: %dx%d", b.Dx(), b.Dy())
	}
}

func TestTrimBorders_Degenerate(t *testing.T) {
	tests := []struct {
		name string
		img  image.Image
	}{
		{"all white", createInMemoryImage(60, 40, color.White)},
		{"sparse dust", func() image.Image {
			img := createInMemoryImage(60, 40, color.White)
			img.Set(10, 10, color.Black)
			img.Set(50, 30, color.Black)
			return img
		}()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := TrimBorders(tt.img, testTrim)
			if out.Bounds().Dx() != 60 || out.Bounds().Dy() != 40 {
				t.Errorf("degenerate input should be returned unchanged, got %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy())
			}
		})
	}
}
