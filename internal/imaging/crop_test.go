package imaging

import (
	"errors"
	"image"
	"image/color"
	"image/draw"
	"testing"
)

var testRectify = RectifyOptions{Epsilon: 0.5, Fill: color.White, MaxPixels: 50_000_000}

// createSquareImage returns a white image with a black square [lo,hi) on both axes.
func createSquareImage(size, lo, hi int) *image.RGBA {
	img := createInMemoryImage(size, size, color.White)
	draw.Draw(img, image.Rect(lo, lo, hi, hi), &image.Uniform{color.Black}, image.Point{}, draw.Src)
	return img
}

func gray8(img image.Image, x, y int) uint8 {
	r, _, _, _ := img.At(x, y).RGBA()
	return uint8(r >> 8)
}

func TestCrop_PureCopy(t *testing.T) {
	img := createSquareImage(100, 40, 60)

	out, err := Crop(img, Rect{X: 30, Y: 30, Width: 40, Height: 40}, testRectify)
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	if out.Bounds().Dx() != 40 || out.Bounds().Dy() != 40 {
		t.Fatalf("dimensions: got %dx%d, want 40x40", out.Bounds().Dx(), out.Bounds().Dy())
	}
	if v := gray8(out, 20, 20); v != 0 {
		t.Errorf("center should be black, got %d", v)
	}
	if v := gray8(out, 2, 2); v != 255 {
		t.Errorf("corner should be white, got %d", v)
	}
}

func TestRect_Pixels(t *testing.T) {
	tests := []struct {
		name   string
		rect   Rect
		wantDx int
		wantDy int
	}{
		{"rounded", Rect{X: 0.4, Y: 0.6, Width: 9.5, Height: 10.2}, 10, 10},
		{"negative width", Rect{X: 10, Y: 10, Width: -5, Height: 10}, -5, 10},
		{"negative height", Rect{X: 10, Y: 10, Width: 5, Height: -3}, 5, -3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pr := tt.rect.Pixels()
			if pr.Dx() != tt.wantDx || pr.Dy() != tt.wantDy {
				t.Errorf("got %dx%d, want %dx%d", pr.Dx(), pr.Dy(), tt.wantDx, tt.wantDy)
			}
		})
	}
}

func TestRectify_ZeroAngleIsCrop(t *testing.T) {
	img := createSquareImage(200, 50, 150)

	tests := []struct {
		name  string
		rect  Rect
		angle float64
		wantW int
		wantH int
	}{
		{"integral", Rect{X: 10, Y: 20, Width: 100, Height: 80}, 0, 100, 80},
		{"fractional rounds", Rect{X: 10.4, Y: 20.6, Width: 99.6, Height: 80.4}, 0, 100, 80},
		{"below epsilon", Rect{X: 0, Y: 0, Width: 120, Height: 60}, 0.4, 120, 60},
		{"negative below epsilon", Rect{X: 0, Y: 0, Width: 120, Height: 60}, -0.5, 120, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Rectify(img, tt.rect, tt.angle, testRectify)
			if err != nil {
				t.Fatalf("Rectify failed: %v", err)
			}
			if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
				t.Errorf("dimensions: got %dx%d, want %dx%d",
					out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
			}
		})
	}
}

func TestRectify_OutsideSourceIsFilled(t *testing.T) {
	img := createInMemoryImage(50, 50, color.Black)

	out, err := Rectify(img, Rect{X: 25, Y: 25, Width: 50, Height: 50}, 0, testRectify)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	if v := gray8(out, 10, 10); v != 0 {
		t.Errorf("overlapping part should keep source pixels, got %d", v)
	}
	if v := gray8(out, 40, 40); v != 255 {
		t.Errorf("area beyond the source should be fill colour, got %d", v)
	}
}

func TestRectify_CanvasSize(t *testing.T) {
	img := createInMemoryImage(300, 200, color.Black)

	tests := []struct {
		angle        float64
		wantW, wantH int
	}{
		{90, 200, 300},
		{-90, 200, 300},
		{30, 360, 323},  // 300cos30+200sin30=359.8, 300sin30+200cos30=323.2
		{-45, 354, 354}, // (300+200)·√2/2
	}

	for _, tt := range tests {
		out, err := Rectify(img, FullRect(img), tt.angle, testRectify)
		if err != nil {
			t.Fatalf("Rectify(%v) failed: %v", tt.angle, err)
		}
		if out.Bounds().Dx() != tt.wantW || out.Bounds().Dy() != tt.wantH {
			t.Errorf("angle %v: got %dx%d, want %dx%d",
				tt.angle, out.Bounds().Dx(), out.Bounds().Dy(), tt.wantW, tt.wantH)
		}
	}
}

func TestRectify_CornersAreWhite(t *testing.T) {
	img := createInMemoryImage(100, 100, color.Black)

	out, err := Rectify(img, FullRect(img), 30, testRectify)
	if err != nil {
		t.Fatalf("Rectify failed: %v", err)
	}
	b := out.Bounds()
	corners := []image.Point{
		{0, 0}, {b.Dx() - 1, 0}, {0, b.Dy() - 1}, {b.Dx() - 1, b.Dy() - 1},
	}
	for _, p := range corners {
		if v := gray8(out, p.X, p.Y); v < 250 {
			t.Errorf("corner %v should be white, got %d", p, v)
		}
		if _, _, _, a := out.At(p.X, p.Y).RGBA(); a != 0xffff {
			t.Errorf("corner %v should be opaque", p)
		}
	}
	if v := gray8(out, b.Dx()/2, b.Dy()/2); v != 0 {
		t.Errorf("center should stay black, got %d", v)
	}
}

func TestRectify_RoundTrip(t *testing.T) {
	img := createSquareImage(200, 80, 120)

	rotated, err := Rectify(img, FullRect(img), 20, testRectify)
	if err != nil {
		t.Fatalf("Rectify forward failed: %v", err)
	}
	back, err := Rectify(rotated, FullRect(rotated), -20, testRectify)
	if err != nil {
		t.Fatalf("Rectify back failed: %v", err)
	}

	b := back.Bounds()
	if b.Dx() < 200 || b.Dy() < 200 {
		t.Fatalf("round trip should not shrink below the source, got %dx%d", b.Dx(), b.Dy())
	}

	// The square is centered in the source, so it is centered after the round trip.
	cx, cy := b.Dx()/2, b.Dy()/2
	for _, d := range []int{-15, 0, 15} {
		if v := gray8(back, cx+d, cy+d); v > 40 {
			t.Errorf("pixel (%d,%d) inside the square should be dark, got %d", cx+d, cy+d, v)
		}
	}
	for _, d := range []int{-40, 40} {
		if v := gray8(back, cx+d, cy); v < 215 {
			t.Errorf("pixel (%d,%d) outside the square should be light, got %d", cx+d, cy, v)
		}
	}
}

func TestRectify_Errors(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)

	tests := []struct {
		name string
		src  image.Image
		rect Rect
		opts RectifyOptions
		want error
	}{
		{"empty source", image.NewRGBA(image.Rect(0, 0, 0, 0)), Rect{Width: 10, Height: 10}, testRectify, ErrEmptyImage},
		{"zero width crop", img, Rect{X: 10, Y: 10, Width: 0, Height: 10}, testRectify, ErrSurface},
		{"negative crop", img, Rect{X: 10, Y: 10, Width: -5, Height: 10}, testRectify, ErrSurface},
		{"canvas cap", img, Rect{Width: 100, Height: 100}, RectifyOptions{MaxPixels: 100}, ErrSurface},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Rectify(tt.src, tt.rect, 0, tt.opts)
			if !errors.Is(err, tt.want) {
				t.Errorf("got %v, want %v", err, tt.want)
			}
			if out != nil {
				t.Error("failed Rectify must not return a partial image")
			}
		})
	}
}

func TestRectify_RotationCanvasCap(t *testing.T) {
	img := createInMemoryImage(100, 100, color.White)
	opts := testRectify
	opts.MaxPixels = 10_000 // fits the crop but not the rotated canvas

	out, err := Rectify(img, FullRect(img), 45, opts)
	if !errors.Is(err, ErrSurface) {
		t.Fatalf("got %v, want ErrSurface", err)
	}
	if out != nil {
		t.Error("failed Rectify must not return a partial image")
	}
}
