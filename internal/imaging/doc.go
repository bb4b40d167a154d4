// Package imaging implements the bitmap stages of the document rectification
// pipeline: decoding, cropping and rotation, shadow removal, the scan filter,
// border trimming and JPEG encoding.
//
// Every stage takes an image.Image and returns a freshly allocated buffer; no
// stage mutates its input, so stages are safe to run concurrently on
// different images.
//
// # Coordinate System
//
// Pixel coordinates are 0-based with the origin at the top-left corner, X
// increasing rightward and Y increasing downward. Crop rectangles (Rect) are
// floating point in source-pixel units and are rounded only when pixels are
// copied.
//
// # Rotation Convention
//
// Positive angles rotate content clockwise as displayed on screen. This is
// the direction the skew estimator reports as "degrees to straighten", so an
// estimated angle can be passed to Rectify unchanged.
//
// # Error Handling
//
//   - ErrDecode: the input bytes are not a decodable image
//   - ErrEmptyImage: the image has zero width or height
//   - ErrSurface: a canvas would have no area or exceed the configured pixel cap
//
// Errors are wrapped with fmt.Errorf("%w"), test them with errors.Is.
package imaging
