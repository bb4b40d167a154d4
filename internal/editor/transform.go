package editor

import "math"

// Point is a position in either screen or image pixel space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Viewport describes how the image is displayed: centered on (CenterX,
// CenterY) in screen space and scaled by Zoom. The display rotation is kept
// separately because it is also the rectification angle.
type Viewport struct {
	CenterX float64 `json:"center_x"`
	CenterY float64 `json:"center_y"`
	Zoom    float64 `json:"zoom"`
}

// ScreenToImage maps a screen position onto the pixel grid of an
// imgW x imgH image shown through vp and rotated clockwise by rotation
// degrees about the display center.
func ScreenToImage(p Point, vp Viewport, rotation, imgW, imgH float64) Point {
	relX := p.X - vp.CenterX
	relY := p.Y - vp.CenterY
	sin, cos := math.Sincos(-rotation * math.Pi / 180)
	rotX := relX*cos - relY*sin
	rotY := relX*sin + relY*cos
	return Point{
		X: rotX/vp.Zoom + imgW/2,
		Y: rotY/vp.Zoom + imgH/2,
	}
}

// ImageToScreen is the inverse of ScreenToImage.
func ImageToScreen(p Point, vp Viewport, rotation, imgW, imgH float64) Point {
	relX := (p.X - imgW/2) * vp.Zoom
	relY := (p.Y - imgH/2) * vp.Zoom
	sin, cos := math.Sincos(rotation * math.Pi / 180)
	return Point{
		X: relX*cos - relY*sin + vp.CenterX,
		Y: relX*sin + relY*cos + vp.CenterY,
	}
}
