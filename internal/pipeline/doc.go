// Package pipeline composes analysis and the imaging stages into the
// automatic processing path, the editor commit path and batch processing.
package pipeline
