// Package config holds the tunable options of the rectification pipeline.
//
// Options start from Default, can be overridden process-wide through
// DOC_RECTIFY_* environment variables (Load) and per call through a JSON object
// (Merge). Every consumer receives a validated Options value; nothing in the
// pipeline reads the environment directly.
package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"log"
	"os"
	"runtime"
	"strconv"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// Analyzer names accepted by the Analyzer option.
const (
	AnalyzerEdge    = "edge"
	AnalyzerDensity = "density"
)

// Options is the complete option set recognised by the pipeline.
type Options struct {
	// Analyzer selects the content analysis strategy: "edge" or "density".
	Analyzer string `json:"analyzer"`

	// AnalysisMaxSide bounds the longest side of the downsampled analysis image.
	AnalysisMaxSide int `json:"analysis_max_side"`

	// PaddingPx is added around the detected box, in analysis pixels.
	PaddingPx int `json:"padding_px"`

	// CropPadding is added on each side when the normalized box is mapped to a
	// source crop rectangle, in box units (0-1000 scale).
	CropPadding float64 `json:"crop_padding"`

	// MinSizePx is the minimum crop width and height for interactive editing.
	MinSizePx float64 `json:"min_size_px"`

	EdgeThreshold            float64 `json:"edge_threshold"`
	ContentThresholdFraction float64 `json:"content_threshold_fraction"`
	MinContentCount          int     `json:"min_content_count"`

	SkewRange        float64 `json:"skew_range"`
	SkewStep         float64 `json:"skew_step"`
	SkewSampleStride int     `json:"skew_sample_stride"`

	// RotationEpsilon is the smallest |angle| in degrees that triggers rotation.
	RotationEpsilon float64 `json:"rotation_epsilon"`

	GridCellSize   int     `json:"grid_cell_size"`
	DarkCellCutoff float64 `json:"dark_cell_cutoff"`

	ContrastFactor   float64 `json:"contrast_factor"`
	BrightnessOffset float64 `json:"brightness_offset"`
	HighlightClip    float64 `json:"highlight_clip"`

	EnableShadowRemoval bool `json:"enable_shadow_removal"`
	EnableScanFilter    bool `json:"enable_scan_filter"`

	TrimThreshold float64 `json:"trim_threshold"`
	TrimMinCount  int     `json:"trim_min_count"`
	TrimPadding   int     `json:"trim_padding"`

	JPEGQuality       int `json:"jpeg_quality"`
	CommitJPEGQuality int `json:"commit_jpeg_quality"`

	// FillColor paints canvas areas not covered by the source, as "#RRGGBB".
	FillColor string `json:"fill_color"`

	// BatchWorkers bounds concurrent files in a batch. 1 processes sequentially.
	BatchWorkers int `json:"batch_workers"`

	// MaxCanvasPixels caps the area of any canvas the pipeline allocates.
	MaxCanvasPixels int `json:"max_canvas_pixels"`
}

// Default returns the stock option set.
func Default() Options {
	workers := runtime.GOMAXPROCS(0)
	if workers < 1 {
		workers = 1
	}
	return Options{
		Analyzer:                 AnalyzerEdge,
		AnalysisMaxSide:          800,
		PaddingPx:                15,
		CropPadding:              20,
		MinSizePx:                30,
		EdgeThreshold:            20,
		ContentThresholdFraction: 0.005,
		MinContentCount:          5,
		SkewRange:                5,
		SkewStep:                 1,
		SkewSampleStride:         2,
		RotationEpsilon:          0.5,
		GridCellSize:             32,
		DarkCellCutoff:           40,
		ContrastFactor:           1.4,
		BrightnessOffset:         20,
		HighlightClip:            240,
		EnableShadowRemoval:      true,
		EnableScanFilter:         true,
		TrimThreshold:            250,
		TrimMinCount:             5,
		TrimPadding:              10,
		JPEGQuality:              90,
		CommitJPEGQuality:        95,
		FillColor:                "#ffffff",
		BatchWorkers:             workers,
		MaxCanvasPixels:          100_000_000,
	}
}

// Load returns Default with environment overrides applied. Every option is
// read from DOC_RECTIFY_ followed by its upper-cased JSON name, for example
// DOC_RECTIFY_JPEG_QUALITY. Malformed values are logged and ignored.
func Load() Options {
	o := Default()
	o.Analyzer = getEnv("DOC_RECTIFY_ANALYZER", o.Analyzer)
	o.AnalysisMaxSide = getEnvInt("DOC_RECTIFY_ANALYSIS_MAX_SIDE", o.AnalysisMaxSide)
	o.PaddingPx = getEnvInt("DOC_RECTIFY_PADDING_PX", o.PaddingPx)
	o.CropPadding = getEnvFloat("DOC_RECTIFY_CROP_PADDING", o.CropPadding)
	o.MinSizePx = getEnvFloat("DOC_RECTIFY_MIN_SIZE_PX", o.MinSizePx)
	o.EdgeThreshold = getEnvFloat("DOC_RECTIFY_EDGE_THRESHOLD", o.EdgeThreshold)
	o.ContentThresholdFraction = getEnvFloat("DOC_RECTIFY_CONTENT_THRESHOLD_FRACTION", o.ContentThresholdFraction)
	o.MinContentCount = getEnvInt("DOC_RECTIFY_MIN_CONTENT_COUNT", o.MinContentCount)
	o.SkewRange = getEnvFloat("DOC_RECTIFY_SKEW_RANGE", o.SkewRange)
	o.SkewStep = getEnvFloat("DOC_RECTIFY_SKEW_STEP", o.SkewStep)
	o.SkewSampleStride = getEnvInt("DOC_RECTIFY_SKEW_SAMPLE_STRIDE", o.SkewSampleStride)
	o.RotationEpsilon = getEnvFloat("DOC_RECTIFY_ROTATION_EPSILON", o.RotationEpsilon)
	o.GridCellSize = getEnvInt("DOC_RECTIFY_GRID_CELL_SIZE", o.GridCellSize)
	o.DarkCellCutoff = getEnvFloat("DOC_RECTIFY_DARK_CELL_CUTOFF", o.DarkCellCutoff)
	o.ContrastFactor = getEnvFloat("DOC_RECTIFY_CONTRAST_FACTOR", o.ContrastFactor)
	o.BrightnessOffset = getEnvFloat("DOC_RECTIFY_BRIGHTNESS_OFFSET", o.BrightnessOffset)
	o.HighlightClip = getEnvFloat("DOC_RECTIFY_HIGHLIGHT_CLIP", o.HighlightClip)
	o.EnableShadowRemoval = getEnvBool("DOC_RECTIFY_ENABLE_SHADOW_REMOVAL", o.EnableShadowRemoval)
	o.EnableScanFilter = getEnvBool("DOC_RECTIFY_ENABLE_SCAN_FILTER", o.EnableScanFilter)
	o.TrimThreshold = getEnvFloat("DOC_RECTIFY_TRIM_THRESHOLD", o.TrimThreshold)
	o.TrimMinCount = getEnvInt("DOC_RECTIFY_TRIM_MIN_COUNT", o.TrimMinCount)
	o.TrimPadding = getEnvInt("DOC_RECTIFY_TRIM_PADDING", o.TrimPadding)
	o.JPEGQuality = getEnvInt("DOC_RECTIFY_JPEG_QUALITY", o.JPEGQuality)
	o.CommitJPEGQuality = getEnvInt("DOC_RECTIFY_COMMIT_JPEG_QUALITY", o.CommitJPEGQuality)
	o.FillColor = getEnv("DOC_RECTIFY_FILL_COLOR", o.FillColor)
	o.BatchWorkers = getEnvInt("DOC_RECTIFY_BATCH_WORKERS", o.BatchWorkers)
	o.MaxCanvasPixels = getEnvInt("DOC_RECTIFY_MAX_CANVAS_PIXELS", o.MaxCanvasPixels)
	return o
}

// Merge returns a copy of o with the fields present in the JSON object raw
// overwritten. An empty or null raw returns o unchanged.
func (o Options) Merge(raw json.RawMessage) (Options, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return o, nil
	}
	merged := o
	if err := json.Unmarshal(raw, &merged); err != nil {
		return o, fmt.Errorf("invalid options: %w", err)
	}
	if err := merged.Validate(); err != nil {
		return o, err
	}
	return merged, nil
}

// Validate reports the first option that is out of range.
func (o Options) Validate() error {
	switch o.Analyzer {
	case AnalyzerEdge, AnalyzerDensity:
	default:
		return fmt.Errorf("unknown analyzer %q (want %q or %q)", o.Analyzer, AnalyzerEdge, AnalyzerDensity)
	}
	if o.AnalysisMaxSide < 16 {
		return fmt.Errorf("analysis_max_side must be >= 16, got %d", o.AnalysisMaxSide)
	}
	if o.PaddingPx < 0 || o.CropPadding < 0 || o.TrimPadding < 0 {
		return fmt.Errorf("padding values must be non-negative")
	}
	if o.MinSizePx < 1 {
		return fmt.Errorf("min_size_px must be >= 1, got %v", o.MinSizePx)
	}
	if o.ContentThresholdFraction < 0 || o.ContentThresholdFraction > 1 {
		return fmt.Errorf("content_threshold_fraction must be within [0,1], got %v", o.ContentThresholdFraction)
	}
	if o.SkewStep <= 0 || o.SkewRange < 0 {
		return fmt.Errorf("skew_step must be > 0 and skew_range >= 0")
	}
	if o.SkewSampleStride < 1 {
		return fmt.Errorf("skew_sample_stride must be >= 1, got %d", o.SkewSampleStride)
	}
	if o.GridCellSize < 1 {
		return fmt.Errorf("grid_cell_size must be >= 1, got %d", o.GridCellSize)
	}
	if o.ContrastFactor < 0 {
		return fmt.Errorf("contrast_factor must be non-negative, got %v", o.ContrastFactor)
	}
	if o.JPEGQuality < 1 || o.JPEGQuality > 100 || o.CommitJPEGQuality < 1 || o.CommitJPEGQuality > 100 {
		return fmt.Errorf("jpeg qualities must be within [1,100]")
	}
	if o.BatchWorkers < 1 {
		return fmt.Errorf("batch_workers must be >= 1, got %d", o.BatchWorkers)
	}
	if o.MaxCanvasPixels < 1 {
		return fmt.Errorf("max_canvas_pixels must be >= 1, got %d", o.MaxCanvasPixels)
	}
	if _, err := colorful.Hex(o.FillColor); err != nil {
		return fmt.Errorf("invalid fill_color %q: %w", o.FillColor, err)
	}
	return nil
}

// Fill returns FillColor as an opaque color, white when it does not parse.
func (o Options) Fill() color.Color {
	c, err := colorful.Hex(o.FillColor)
	if err != nil {
		return color.White
	}
	r, g, b := c.RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: 255}
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getEnvInt(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return n
}

func getEnvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return f
}

func getEnvBool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("ignoring %s=%q: %v", key, v, err)
		return def
	}
	return b
}
