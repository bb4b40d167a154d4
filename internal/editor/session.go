package editor

import (
	"errors"
	"fmt"
	"math"

	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

var (
	// ErrImageTooSmall is returned when either image side is below the
	// minimum crop size, so no valid rectangle exists.
	ErrImageTooSmall = errors.New("image too small to edit")

	// ErrNoInteraction is returned by PointerMove when no drag is active.
	ErrNoInteraction = errors.New("no active interaction")
)

// Initial crop placement.
const (
	safePadding   = 10 // seeded crops keep at least this far from the edges
	defaultMargin = 30 // unseeded crops start this far inside the image
	seedMinSize   = 50
	handleReach   = 30 // screen pixels; divided by zoom for hit-testing
	defaultZoom   = 1.0
)

// Session is the crop state of one open editing session. It is not safe
// for concurrent use; callers serialize access.
type Session struct {
	width, height float64
	minSize       float64

	crop     imaging.Rect
	rotation float64
	view     Viewport

	mode     Mode
	anchor   Point        // drag start, image space
	snapshot imaging.Rect // crop at drag start
}

// NewSession opens a session on a width x height image. seed, when not nil,
// is the analysis crop; otherwise a default inset rectangle is used.
func NewSession(width, height int, seed *imaging.Rect, rotation, minSize float64) (*Session, error) {
	w := float64(width)
	h := float64(height)
	if w < minSize || h < minSize {
		return nil, fmt.Errorf("%w: %dx%d, minimum %v", ErrImageTooSmall, width, height, minSize)
	}
	return &Session{
		width:    w,
		height:   h,
		minSize:  minSize,
		crop:     InitialCrop(w, h, seed, minSize),
		rotation: rotation,
		view:     Viewport{CenterX: w / 2, CenterY: h / 2, Zoom: defaultZoom},
	}, nil
}

// InitialCrop returns the starting rectangle for a w x h image.
//
// A seed is pulled at least safePadding inside the image. Without one, the
// crop is inset by defaultMargin, or a quarter of the side on small images.
// The result always satisfies the session invariant for minSize.
func InitialCrop(w, h float64, seed *imaging.Rect, minSize float64) imaging.Rect {
	var r imaging.Rect
	if seed != nil {
		r = imaging.Rect{
			X:      math.Max(safePadding, math.Min(seed.X, w-seedMinSize-safePadding)),
			Y:      math.Max(safePadding, math.Min(seed.Y, h-seedMinSize-safePadding)),
			Width:  math.Min(seed.Width, w-math.Max(safePadding, seed.X)-safePadding),
			Height: math.Min(seed.Height, h-math.Max(safePadding, seed.Y)-safePadding),
		}
	} else {
		x := math.Min(defaultMargin, w/4)
		y := math.Min(defaultMargin, h/4)
		r = imaging.Rect{
			X:      x,
			Y:      y,
			Width:  math.Max(seedMinSize, w-2*x),
			Height: math.Max(seedMinSize, h-2*y),
		}
	}
	return clampRect(r, w, h, minSize)
}

// clampRect forces r inside w x h with both sides at least minSize,
// shrinking before moving.
func clampRect(r imaging.Rect, w, h, minSize float64) imaging.Rect {
	r.Width = clamp(r.Width, minSize, w)
	r.Height = clamp(r.Height, minSize, h)
	r.X = clamp(r.X, 0, w-r.Width)
	r.Y = clamp(r.Y, 0, h-r.Height)
	return r
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) || v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Crop returns the live rectangle.
func (s *Session) Crop() imaging.Rect { return s.crop }

// Rotation returns the display rotation in degrees.
func (s *Session) Rotation() float64 { return s.rotation }

// Mode returns the active interaction.
func (s *Session) Mode() Mode { return s.mode }

// Viewport returns the current display transform.
func (s *Session) Viewport() Viewport { return s.view }

// Size returns the image dimensions.
func (s *Session) Size() (width, height float64) { return s.width, s.height }

// SetViewport replaces the display transform. Zoom must be positive.
func (s *Session) SetViewport(vp Viewport) error {
	if !(vp.Zoom > 0) || math.IsInf(vp.Zoom, 0) {
		return fmt.Errorf("zoom must be positive, got %v", vp.Zoom)
	}
	s.view = vp
	return nil
}

// SetRotation sets the rotation and ends any drag, since the screen mapping
// the drag started with no longer applies.
func (s *Session) SetRotation(deg float64) {
	s.rotation = deg
	s.PointerUp()
}

// QuarterTurn advances the rotation to the next multiple of 90 degrees and
// returns it. A free angle snaps to the nearest multiple first.
func (s *Session) QuarterTurn() float64 {
	s.SetRotation(math.Floor((s.rotation+90)/90+0.5) * 90)
	return s.rotation
}

// toImage maps a screen point through the session's display transform.
func (s *Session) toImage(p Point) Point {
	return ScreenToImage(p, s.view, s.rotation, s.width, s.height)
}

// HitTest returns the interaction a pointer-down at image point p would
// start. Handles are checked corners first, then edge midpoints; a point
// strictly inside the rectangle starts a move.
func (s *Session) HitTest(p Point) Mode {
	tol := handleReach / s.view.Zoom
	c := s.crop
	midX := c.X + c.Width/2
	midY := c.Y + c.Height/2
	right, bottom := c.Right(), c.Bottom()

	handles := []struct {
		x, y float64
		mode Mode
	}{
		{c.X, c.Y, ModeResizeTL},
		{right, c.Y, ModeResizeTR},
		{c.X, bottom, ModeResizeBL},
		{right, bottom, ModeResizeBR},
		{midX, c.Y, ModeResizeTC},
		{midX, bottom, ModeResizeBC},
		{c.X, midY, ModeResizeML},
		{right, midY, ModeResizeMR},
	}
	for _, h := range handles {
		if math.Abs(p.X-h.x) < tol && math.Abs(p.Y-h.y) < tol {
			return h.mode
		}
	}
	if p.X > c.X && p.X < right && p.Y > c.Y && p.Y < bottom {
		return ModeMove
	}
	return ModeNone
}

// PointerDown starts an interaction at screen point p and returns it.
// A miss returns ModeNone and leaves the session idle.
func (s *Session) PointerDown(p Point) Mode {
	pos := s.toImage(p)
	s.mode = s.HitTest(pos)
	if s.mode != ModeNone {
		s.anchor = pos
		s.snapshot = s.crop
	}
	return s.mode
}

// PointerMove drags the active interaction to screen point p. Deltas are
// measured from the drag start and applied to the rectangle as it was then.
func (s *Session) PointerMove(p Point) (imaging.Rect, error) {
	if s.mode == ModeNone {
		return s.crop, ErrNoInteraction
	}
	pos := s.toImage(p)
	dx := pos.X - s.anchor.X
	dy := pos.Y - s.anchor.Y
	if s.mode == ModeMove {
		s.crop = s.move(dx, dy)
	} else {
		s.crop = s.resize(s.mode.sides(), dx, dy)
	}
	return s.crop, nil
}

// PointerUp ends the interaction. It is a no-op when none is active.
func (s *Session) PointerUp() {
	s.mode = ModeNone
	s.anchor = Point{}
	s.snapshot = imaging.Rect{}
}

func (s *Session) move(dx, dy float64) imaging.Rect {
	r := s.snapshot
	r.X = clamp(r.X+dx, 0, s.width-r.Width)
	r.Y = clamp(r.Y+dy, 0, s.height-r.Height)
	return r
}

func (s *Session) resize(sd sides, dx, dy float64) imaging.Rect {
	snap := s.snapshot
	r := snap
	if sd.left {
		r.X = clamp(snap.X+dx, 0, snap.Right()-s.minSize)
		r.Width = snap.Right() - r.X
	}
	if sd.right {
		r.Width = clamp(snap.Width+dx, s.minSize, s.width-r.X)
	}
	if sd.top {
		r.Y = clamp(snap.Y+dy, 0, snap.Bottom()-s.minSize)
		r.Height = snap.Bottom() - r.Y
	}
	if sd.bottom {
		r.Height = clamp(snap.Height+dy, s.minSize, s.height-r.Y)
	}
	return r
}
