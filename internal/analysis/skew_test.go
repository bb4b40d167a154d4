package analysis

import (
	"math"
	"testing"
)

var testSkew = SkewOptions{Range: 5, Step: 1, Stride: 2}

// lineMask draws 2px thick lines of decreasing length into a 400x400 mask.
// Horizontal lines rise by slope per pixel to the right (y-down frame), so a
// positive slope is what a page turned counter-clockwise looks like.
func lineMask(vertical bool, slope float64) *EdgeMask {
	m := NewEdgeMask(400, 400)
	starts := []int{80, 140, 200, 260, 320}
	lengths := []int{300, 250, 200, 150, 100}
	for i, s := range starts {
		for t := 50; t < 50+lengths[i]; t++ {
			off := s - int(math.Round(float64(t-200)*slope))
			for k := 0; k < 2; k++ {
				if vertical {
					m.Set(off+k, t)
				} else {
					m.Set(t, off+k)
				}
			}
		}
	}
	return m
}

func TestEstimateSkew_Horizontal(t *testing.T) {
	got := EstimateSkew(lineMask(false, 0), testSkew)
	if math.Abs(got) > 1 {
		t.Errorf("level lines: got %v, want ~0", got)
	}
}

func TestEstimateSkew_Tilted(t *testing.T) {
	slope := math.Tan(3 * math.Pi / 180)
	got := EstimateSkew(lineMask(false, slope), testSkew)
	if math.Abs(got-3) > 1 {
		t.Errorf("lines rising 3deg: got %v, want ~3", got)
	}
}

func TestEstimateSkew_VerticalContent(t *testing.T) {
	got := EstimateSkew(lineMask(true, 0), testSkew)
	if math.Abs(got+90) > 1 {
		t.Errorf("vertical lines: got %v, want ~-90", got)
	}
}

func TestEstimateSkew_EmptyMask(t *testing.T) {
	if got := EstimateSkew(NewEdgeMask(100, 50), testSkew); got != 0 {
		t.Errorf("empty mask: got %v, want 0", got)
	}
	if got := EstimateSkew(NewEdgeMask(0, 0), testSkew); got != 0 {
		t.Errorf("zero mask: got %v, want 0", got)
	}
}

func TestDetectRegion_Padding(t *testing.T) {
	m := NewEdgeMask(100, 100)
	for x := 20; x < 80; x++ {
		m.Set(x, 30)
		m.Set(x, 70)
	}
	for y := 30; y <= 70; y++ {
		m.Set(20, y)
		m.Set(79, y)
	}

	box, ok := DetectRegion(m, RegionOptions{Padding: 5, MinCount: 5})
	if !ok {
		t.Fatal("expected region")
	}
	want := Box{250, 150, 750, 840}
	if box != want {
		t.Errorf("got %v, want %v", box, want)
	}

	box, ok = DetectRegion(m, RegionOptions{Padding: 50, MinCount: 5})
	if !ok || box != FullFrame {
		t.Errorf("large padding should clamp to full frame, got %v ok=%v", box, ok)
	}
}

func TestDetectRegion_FractionalThreshold(t *testing.T) {
	// 0.005 * 1001 = 5.005, so six edges per line is enough.
	m := NewEdgeMask(1001, 1001)
	for y := 200; y < 800; y++ {
		for x := 200; x < 206; x++ {
			m.Set(x, y)
		}
	}

	box, ok := DetectRegion(m, RegionOptions{ThresholdFraction: 0.005, MinCount: 5})
	if !ok {
		t.Fatal("six edges per line should exceed a threshold of 5.005")
	}
	want := normalize(200, 200, 799, 205, 1001, 1001)
	if box != want {
		t.Errorf("got %v, want %v", box, want)
	}
}

func TestRegionOptions_Threshold(t *testing.T) {
	tests := []struct {
		name   string
		opts   RegionOptions
		length int
		want   int
	}{
		{"floor wins", RegionOptions{ThresholdFraction: 0.005, MinCount: 5}, 800, 5},
		{"fraction rounds down", RegionOptions{ThresholdFraction: 0.005, MinCount: 5}, 1999, 9},
		{"larger fraction", RegionOptions{ThresholdFraction: 0.01, MinCount: 5}, 1001, 10},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.opts.threshold(tt.length); got != tt.want {
				t.Errorf("threshold(%d) = %d, want %d", tt.length, got, tt.want)
			}
		})
	}
}
