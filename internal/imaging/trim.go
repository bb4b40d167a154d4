package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// TrimOptions controls TrimBorders.
type TrimOptions struct {
	Threshold float64 // luminance below which a pixel counts as content
	MinCount  int     // rows/columns with fewer content pixels are margin
	Padding   int     // margin kept around the content box
}

// TrimBorders removes uniform white margins left by rotation and cropping.
//
// Row and column projection profiles count content pixels; the tightest box
// whose profile reaches MinCount is padded by Padding and copied onto a
// white canvas. When no such box exists the input is returned as a copy.
func TrimBorders(img image.Image, opts TrimOptions) *image.NRGBA {
	src := imaging.Clone(img)
	width := src.Rect.Dx()
	height := src.Rect.Dy()
	if width == 0 || height == 0 {
		return src
	}

	rowProfile := make([]int, height)
	colProfile := make([]int, width)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			i := y*src.Stride + x*4
			if Luma(src.Pix[i], src.Pix[i+1], src.Pix[i+2]) < opts.Threshold {
				rowProfile[y]++
				colProfile[x]++
			}
		}
	}

	minY, maxY, okY := profileSpan(rowProfile, opts.MinCount)
	minX, maxX, okX := profileSpan(colProfile, opts.MinCount)
	if !okX || !okY {
		return src
	}

	pad := opts.Padding
	tx := max(0, minX-pad)
	ty := max(0, minY-pad)
	tw := min(width-tx, maxX-minX+pad*2)
	th := min(height-ty, maxY-minY+pad*2)
	if tw <= 0 || th <= 0 {
		return src
	}

	part := imaging.Crop(src, image.Rect(tx, ty, tx+tw, ty+th))
	return imaging.Paste(imaging.New(tw, th, color.White), part, image.Point{})
}

// profileSpan scans inward from both ends for the first entries reaching
// minCount. ok is false when the scan does not converge.
func profileSpan(profile []int, minCount int) (lo, hi int, ok bool) {
	lo = 0
	for lo < len(profile) && profile[lo] < minCount {
		lo++
	}
	hi = len(profile) - 1
	for hi > lo && profile[hi] < minCount {
		hi--
	}
	return lo, hi, lo < hi
}
