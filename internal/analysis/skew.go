package analysis

import "math"

// SkewOptions controls EstimateSkew.
type SkewOptions struct {
	Range  float64 // fine search half-width in degrees
	Step   float64 // fine search step in degrees
	Stride int     // pixel sampling stride on both axes
}

// coarseMargin is how much the 90° score must beat the 0° score before the
// content is treated as running vertically.
const coarseMargin = 1.1

// EstimateSkew returns the clockwise rotation in degrees that makes the text
// lines of the edge mask horizontal.
//
// Each candidate angle is scored by rotating the sampled edge pixels about
// the mask center, binning their rotated Y into integer rows and taking the
// variance of the non-empty bins: crisp, separated text lines give tall
// peaks and empty valleys. A coarse pass compares 0° with 90°; when 90° wins
// by more than 10% the search is centered on -90°, otherwise on 0°. A fine
// pass then scans ±Range around that base in Step increments.
//
// Document photos are close to axis-aligned, so two hypotheses plus a local
// refinement bound the cost to O(Range/Step) scorings. An empty mask yields 0.
func EstimateSkew(m *EdgeMask, opts SkewOptions) float64 {
	pts := samplePoints(m, max(1, opts.Stride))
	if len(pts) == 0 {
		return 0
	}
	hist := newRowHistogram(m.Width, m.Height)

	base := 0.0
	if hist.score(pts, 90) > hist.score(pts, 0)*coarseMargin {
		base = -90
	}

	step := opts.Step
	if step <= 0 {
		step = 1
	}
	n := int(math.Floor(2*opts.Range/step + 1e-9))
	best := base
	bestScore := math.Inf(-1)
	for i := 0; i <= n; i++ {
		theta := base - opts.Range + float64(i)*step
		if s := hist.score(pts, theta); s > bestScore {
			best, bestScore = theta, s
		}
	}
	return best
}

type point struct{ x, y float64 }

// samplePoints collects edge pixels on a stride grid, relative to the center.
func samplePoints(m *EdgeMask, stride int) []point {
	cx := float64(m.Width) / 2
	cy := float64(m.Height) / 2
	var pts []point
	for y := 0; y < m.Height; y += stride {
		for x := 0; x < m.Width; x += stride {
			if m.Bits[y*m.Width+x] {
				pts = append(pts, point{float64(x) - cx, float64(y) - cy})
			}
		}
	}
	return pts
}

// rowHistogram is a reusable accumulator large enough for any rotation.
type rowHistogram struct {
	offset int
	bins   []int
}

func newRowHistogram(width, height int) *rowHistogram {
	reach := int(math.Ceil(math.Hypot(float64(width), float64(height))/2)) + 1
	return &rowHistogram{offset: reach, bins: make([]int, 2*reach+1)}
}

// score rotates pts by theta degrees clockwise in screen space (the same
// rotation Rectify applies) and returns the variance of the non-empty row bins.
func (h *rowHistogram) score(pts []point, theta float64) float64 {
	for i := range h.bins {
		h.bins[i] = 0
	}
	sin, cos := math.Sincos(theta * math.Pi / 180)
	for _, p := range pts {
		ry := p.x*sin + p.y*cos
		h.bins[int(math.Floor(ry))+h.offset]++
	}

	var sum, n float64
	for _, c := range h.bins {
		if c > 0 {
			sum += float64(c)
			n++
		}
	}
	if n == 0 {
		return 0
	}
	mean := sum / n
	var variance float64
	for _, c := range h.bins {
		if c > 0 {
			d := float64(c) - mean
			variance += d * d
		}
	}
	return variance / n
}
