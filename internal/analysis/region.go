package analysis

import "math"

// RegionOptions controls DetectRegion.
type RegionOptions struct {
	// Padding is added around the detected span, in analysis pixels.
	Padding int

	// ThresholdFraction scales the minimum profile count with the length of
	// the line being counted; MinCount is the floor.
	ThresholdFraction float64
	MinCount          int
}

// threshold returns the count a profile entry must exceed for a line of the
// given length to be treated as content. Counts are integers, so exceeding
// the fractional limit is the same as exceeding its floor.
func (o RegionOptions) threshold(length int) int {
	return max(o.MinCount, int(math.Floor(o.ThresholdFraction*float64(length))))
}

// DetectRegion locates the content bounding box from projection profiles of
// an edge mask.
//
// Rows and columns are scanned inward from each side until their edge count
// exceeds max(MinCount, ThresholdFraction·length), which skips sparse dust
// while accepting text bands. The span is padded and clamped to the mask.
// ok is false, and the box is FullFrame, when either axis does not converge.
func DetectRegion(m *EdgeMask, opts RegionOptions) (box Box, ok bool) {
	if m.Width == 0 || m.Height == 0 {
		return FullFrame, false
	}
	rows, cols := m.Profiles()

	// A row is Width pixels long, a column Height pixels.
	minY, maxY, okY := scanProfile(rows, opts.threshold(m.Width))
	minX, maxX, okX := scanProfile(cols, opts.threshold(m.Height))
	if !okY || !okX {
		return FullFrame, false
	}

	y0 := max(0, minY-opts.Padding)
	x0 := max(0, minX-opts.Padding)
	y1 := min(m.Height, maxY+opts.Padding)
	x1 := min(m.Width, maxX+opts.Padding)
	return normalize(y0, x0, y1, x1, m.Height, m.Width), true
}

// scanProfile walks inward from both ends to the first entries above
// threshold. ok is false when the walk does not converge (lo >= hi).
func scanProfile(profile []int, threshold int) (lo, hi int, ok bool) {
	lo = 0
	for lo < len(profile) && profile[lo] <= threshold {
		lo++
	}
	hi = len(profile) - 1
	for hi > lo && profile[hi] <= threshold {
		hi--
	}
	return lo, hi, lo < hi
}
