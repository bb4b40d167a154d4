package analysis

import (
	"math"

	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// BoxScale is the normalized extent of each box axis.
const BoxScale = 1000.0

// Box is a content bounding box [ymin, xmin, ymax, xmax], each axis
// normalized to [0, BoxScale] independently of the image's pixel size.
type Box [4]float64

// FullFrame is the box covering the whole image, returned whenever analysis
// cannot localize content.
var FullFrame = Box{0, 0, BoxScale, BoxScale}

func (b Box) YMin() float64 { return b[0] }
func (b Box) XMin() float64 { return b[1] }
func (b Box) YMax() float64 { return b[2] }
func (b Box) XMax() float64 { return b[3] }

// Valid reports whether b is ordered and inside [0, BoxScale] on both axes.
func (b Box) Valid() bool {
	return b[0] >= 0 && b[1] >= 0 && b[2] <= BoxScale && b[3] <= BoxScale &&
		b[0] < b[2] && b[1] < b[3]
}

// Result is the outcome of content analysis.
type Result struct {
	Box Box `json:"box_2d"`

	// RotationAngle is the clockwise rotation in degrees that straightens the
	// content. 0 means no correction is needed.
	RotationAngle float64 `json:"rotation_angle"`

	// Fallback is true when no content band was found and Box is FullFrame.
	Fallback bool `json:"fallback"`

	// Analyzer names the strategy that produced the result.
	Analyzer string `json:"analyzer"`
}

// CropRect maps the box onto a width x height source image, growing it by
// padding box units on every side and clipping it to the image.
func (r Result) CropRect(width, height int, padding float64) imaging.Rect {
	w := float64(width)
	h := float64(height)
	top := (r.Box.YMin() - padding) / BoxScale * h
	left := (r.Box.XMin() - padding) / BoxScale * w
	spanY := (r.Box.YMax() - r.Box.YMin() + 2*padding) / BoxScale * h
	spanX := (r.Box.XMax() - r.Box.XMin() + 2*padding) / BoxScale * w

	y := math.Max(0, top)
	x := math.Max(0, left)
	return imaging.Rect{
		X:      x,
		Y:      y,
		Width:  math.Min(w-x, spanX),
		Height: math.Min(h-y, spanY),
	}
}

func fallbackResult(name string) Result {
	return Result{Box: FullFrame, Fallback: true, Analyzer: name}
}

// normalize converts a pixel span on each axis to a Box.
func normalize(y0, x0, y1, x1, height, width int) Box {
	h := float64(height)
	w := float64(width)
	return Box{
		float64(y0) / h * BoxScale,
		float64(x0) / w * BoxScale,
		float64(y1) / h * BoxScale,
		float64(x1) / w * BoxScale,
	}
}
