// Package editor implements the geometry of interactive crop editing.
//
// A Session holds a crop rectangle in source image pixels and mutates it in
// response to pointer events given in screen space. The image is displayed
// rotated and zoomed, so every pointer position is first mapped back with
// ScreenToImage. After every mutation the rectangle lies inside the image
// and both of its sides are at least the session's minimum size.
//
// Drags are computed from a snapshot taken at pointer-down rather than from
// the live rectangle.
package editor
