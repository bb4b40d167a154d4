package imaging

import (
	"image"
	"math"
)

// Rect is a crop rectangle in source-image pixel units.
//
// Coordinates are floating point so interactive edits do not accumulate
// rounding error; pixel operations round them with Pixels.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Pixels rounds r to an integer rectangle whose size is the rounded width
// and height. Negative sizes are kept as they are, not canonicalized, so
// Dx and Dy report them.
func (r Rect) Pixels() image.Rectangle {
	x := int(math.Round(r.X))
	y := int(math.Round(r.Y))
	return image.Rectangle{
		Min: image.Pt(x, y),
		Max: image.Pt(x+int(math.Round(r.Width)), y+int(math.Round(r.Height))),
	}
}

// Within reports whether r lies inside a w x h image and is at least
// minSize on both axes.
func (r Rect) Within(w, h, minSize float64) bool {
	return r.X >= 0 && r.Y >= 0 &&
		r.Right() <= w && r.Bottom() <= h &&
		r.Width >= minSize && r.Height >= minSize
}

// FullRect returns the rectangle covering all of img.
func FullRect(img image.Image) Rect {
	b := img.Bounds()
	return Rect{Width: float64(b.Dx()), Height: float64(b.Dy())}
}

// Luma is the ITU-R BT.601 luminance of an 8-bit RGB triple.
func Luma(r, g, b uint8) float64 {
	return 0.299*float64(r) + 0.587*float64(g) + 0.114*float64(b)
}

func clampUint8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(math.Round(v))
}
