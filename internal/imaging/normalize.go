package imaging

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/clone"
	"github.com/anthonynsimon/bild/parallel"
)

// NormalizeOptions controls RemoveShadows.
type NormalizeOptions struct {
	// CellSize is the side of the square cells used to estimate paper white.
	CellSize int

	// DarkCutoff is the cell brightness below which no correction is applied.
	DarkCutoff float64
}

// RemoveShadows flattens uneven lighting with a coarse flat-field correction.
//
// The image is split into CellSize squares. The brightest pixel of each cell,
// measured as the mean of R, G and B, estimates the paper white under the
// local illumination (ink only darkens). Every pixel is then scaled by
// 255/cellWhite and clamped. Cells darker than DarkCutoff are left alone so
// uniformly dark areas are not amplified into noise.
func RemoveShadows(img image.Image, opts NormalizeOptions) (*image.RGBA, error) {
	if err := CheckDimensions(img); err != nil {
		return nil, err
	}
	cell := opts.CellSize
	if cell < 1 {
		cell = 1
	}

	dst := clone.AsRGBA(img)
	width := dst.Rect.Dx()
	height := dst.Rect.Dy()
	cols := (width + cell - 1) / cell
	rows := (height + cell - 1) / cell

	background := make([]float64, cols*rows)
	parallel.Line(rows, func(start, end int) {
		for r := start; r < end; r++ {
			for c := 0; c < cols; c++ {
				background[r*cols+c] = cellWhite(dst, c*cell, r*cell, cell)
			}
		}
	})

	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := (y / cell) * cols
			for x := 0; x < width; x++ {
				factor := 1.0
				if bg := background[row+x/cell]; bg >= opts.DarkCutoff && bg > 0 {
					factor = 255 / bg
				}
				if factor == 1 {
					continue
				}
				i := y*dst.Stride + x*4
				// Premultiplied channels never exceed alpha.
				limit := float64(dst.Pix[i+3])
				dst.Pix[i+0] = scaleChannel(dst.Pix[i+0], factor, limit)
				dst.Pix[i+1] = scaleChannel(dst.Pix[i+1], factor, limit)
				dst.Pix[i+2] = scaleChannel(dst.Pix[i+2], factor, limit)
			}
		}
	})

	return dst, nil
}

// cellWhite returns the brightest channel mean inside one cell.
func cellWhite(img *image.RGBA, x0, y0, cell int) float64 {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	best := 0.0
	for y := y0; y < y0+cell && y < height; y++ {
		for x := x0; x < x0+cell && x < width; x++ {
			i := y*img.Stride + x*4
			bright := (float64(img.Pix[i]) + float64(img.Pix[i+1]) + float64(img.Pix[i+2])) / 3
			if bright > best {
				best = bright
			}
		}
	}
	return best
}

func scaleChannel(v uint8, factor, limit float64) uint8 {
	return uint8(math.Min(limit, math.Round(float64(v)*factor)))
}
