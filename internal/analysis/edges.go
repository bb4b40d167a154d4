package analysis

import (
	"image"
	"math"

	"github.com/anthonynsimon/bild/parallel"
	"github.com/disintegration/imaging"

	docimg "github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// EdgeMask is a binary edge map in analysis space.
type EdgeMask struct {
	Width  int
	Height int
	Bits   []bool // row-major, Width*Height
}

// NewEdgeMask returns an empty mask.
func NewEdgeMask(width, height int) *EdgeMask {
	return &EdgeMask{Width: width, Height: height, Bits: make([]bool, width*height)}
}

// At reports whether (x, y) is an edge pixel.
func (m *EdgeMask) At(x, y int) bool { return m.Bits[y*m.Width+x] }

// Set marks (x, y) as an edge pixel.
func (m *EdgeMask) Set(x, y int) { m.Bits[y*m.Width+x] = true }

// Count returns the number of edge pixels.
func (m *EdgeMask) Count() int {
	n := 0
	for _, b := range m.Bits {
		if b {
			n++
		}
	}
	return n
}

// Downsample shrinks img so its longest side is at most maxSide, keeping the
// aspect ratio. Smaller images are copied unchanged. Translucent pixels are
// composited onto white so transparent margins read as paper.
func Downsample(img image.Image, maxSide int) *image.NRGBA {
	return imaging.Fit(docimg.Flatten(img), maxSide, maxSide, imaging.Linear)
}

// GrayPlane converts an NRGBA image to BT.601 luminance, row-major.
func GrayPlane(img *image.NRGBA) []float64 {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	gray := make([]float64, width*height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				i := y*img.Stride + x*4
				gray[y*width+x] = docimg.Luma(img.Pix[i], img.Pix[i+1], img.Pix[i+2])
			}
		}
	})
	return gray
}

// BuildEdgeMask marks interior pixels whose summed absolute luminance
// difference to the right and lower neighbours exceeds threshold.
// Border pixels are never edges.
func BuildEdgeMask(img *image.NRGBA, threshold float64) *EdgeMask {
	width := img.Rect.Dx()
	height := img.Rect.Dy()
	mask := NewEdgeMask(width, height)
	if width < 3 || height < 3 {
		return mask
	}

	gray := GrayPlane(img)
	parallel.Line(height-2, func(start, end int) {
		for y := start + 1; y < end+1; y++ {
			for x := 1; x < width-1; x++ {
				c := gray[y*width+x]
				dx := math.Abs(c - gray[y*width+x+1])
				dy := math.Abs(c - gray[(y+1)*width+x])
				if dx+dy > threshold {
					mask.Bits[y*width+x] = true
				}
			}
		}
	})
	return mask
}

// Profiles returns the per-row and per-column edge counts of m.
func (m *EdgeMask) Profiles() (rows, cols []int) {
	rows = make([]int, m.Height)
	cols = make([]int, m.Width)
	for y := 0; y < m.Height; y++ {
		for x := 0; x < m.Width; x++ {
			if m.Bits[y*m.Width+x] {
				rows[y]++
				cols[x]++
			}
		}
	}
	return rows, cols
}
