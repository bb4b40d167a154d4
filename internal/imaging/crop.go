package imaging

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"github.com/disintegration/imaging"
)

// RectifyOptions controls Rectify.
type RectifyOptions struct {
	// Epsilon is the largest |angle| in degrees treated as "no rotation".
	Epsilon float64

	// Fill paints canvas areas the source does not cover. Nil means white.
	Fill color.Color

	// MaxPixels caps the area of any allocated canvas. Zero means no cap.
	MaxPixels int
}

// Crop copies region r of src into a new canvas of exactly the rounded size
// of r. Parts of r outside src keep the fill colour, and transparent source
// pixels are composited over it.
func Crop(src image.Image, r Rect, opts RectifyOptions) (*image.NRGBA, error) {
	if err := CheckDimensions(src); err != nil {
		return nil, err
	}
	pr := r.Pixels()
	w, h := pr.Dx(), pr.Dy()
	if err := checkCanvas(w, h, opts.MaxPixels); err != nil {
		return nil, err
	}

	bounds := src.Bounds()
	dst := imaging.New(w, h, fillOrWhite(opts.Fill))
	inter := pr.Add(bounds.Min).Intersect(bounds)
	if inter.Empty() {
		return dst, nil
	}
	part := imaging.Crop(src, inter)
	return imaging.Overlay(dst, part, inter.Min.Sub(bounds.Min).Sub(pr.Min), 1.0), nil
}

// Rectify crops r out of src and, when |angle| exceeds opts.Epsilon, rotates
// the crop clockwise by angle degrees (screen orientation) onto a canvas of
//
//	width  = |w·cos θ| + |h·sin θ|
//	height = |w·sin θ| + |h·cos θ|
//
// so no corner of the crop is clipped. Exposed corners take the fill colour.
func Rectify(src image.Image, r Rect, angle float64, opts RectifyOptions) (*image.NRGBA, error) {
	cropped, err := Crop(src, r, opts)
	if err != nil {
		return nil, err
	}
	return Rotate(cropped, angle, opts)
}

// Rotate turns img clockwise by angle degrees onto a canvas sized to fit the
// rotated bounds. Angles within opts.Epsilon return img unchanged.
func Rotate(img *image.NRGBA, angle float64, opts RectifyOptions) (*image.NRGBA, error) {
	if math.Abs(angle) <= opts.Epsilon {
		return img, nil
	}
	w := float64(img.Bounds().Dx())
	h := float64(img.Bounds().Dy())
	sin, cos := math.Sincos(angle * math.Pi / 180)
	cw := int(math.Round(math.Abs(w*cos) + math.Abs(h*sin)))
	ch := int(math.Round(math.Abs(w*sin) + math.Abs(h*cos)))
	if err := checkCanvas(cw, ch, opts.MaxPixels); err != nil {
		return nil, err
	}

	fill := fillOrWhite(opts.Fill)
	// imaging.Rotate turns counter-clockwise.
	rotated := imaging.Rotate(img, -angle, fill)
	return imaging.PasteCenter(imaging.New(cw, ch, fill), rotated), nil
}

func checkCanvas(w, h, maxPixels int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: canvas %dx%d has no area", ErrSurface, w, h)
	}
	if maxPixels > 0 && w > maxPixels/h {
		return fmt.Errorf("%w: canvas %dx%d exceeds %d pixels", ErrSurface, w, h, maxPixels)
	}
	return nil
}

func fillOrWhite(c color.Color) color.Color {
	if c == nil {
		return color.White
	}
	return c
}
