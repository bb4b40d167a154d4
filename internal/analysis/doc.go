// Package analysis finds the printed region of a photographed document and
// the rotation that straightens it.
//
// All work happens on a downsampled copy of the image. Results are reported
// as a Box normalized to a 0-1000 scale on each axis, so they can be mapped
// back onto the full-resolution source with Result.CropRect.
//
// When no content can be localized the analyzers return FullFrame with
// Fallback set instead of an error. Errors are reserved for inputs that
// cannot be analyzed at all, such as empty images.
package analysis
