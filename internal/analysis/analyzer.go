package analysis

import (
	"fmt"
	"image"

	"github.com/anthonynsimon/bild/parallel"

	"github.com/ironsheep/doc-rectify-mcp/internal/config"
	docimg "github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// ContentAnalyzer locates document content and its skew in a decoded image.
// Implementations are stateless and safe for concurrent use.
type ContentAnalyzer interface {
	Name() string
	Analyze(img image.Image) (Result, error)
}

// New returns the analyzer selected by opts.Analyzer.
func New(opts config.Options) (ContentAnalyzer, error) {
	switch opts.Analyzer {
	case config.AnalyzerEdge, "":
		return NewEdgeAnalyzer(opts), nil
	case config.AnalyzerDensity:
		return DensityAnalyzer{}, nil
	default:
		return nil, fmt.Errorf("unknown analyzer %q", opts.Analyzer)
	}
}

// EdgeAnalyzer finds content from the projection profiles of a gradient edge
// mask and estimates skew from the same mask.
type EdgeAnalyzer struct {
	MaxSide   int
	Threshold float64
	Region    RegionOptions
	Skew      SkewOptions
}

// NewEdgeAnalyzer builds an EdgeAnalyzer from the pipeline options.
func NewEdgeAnalyzer(opts config.Options) EdgeAnalyzer {
	return EdgeAnalyzer{
		MaxSide:   opts.AnalysisMaxSide,
		Threshold: opts.EdgeThreshold,
		Region: RegionOptions{
			Padding:           opts.PaddingPx,
			ThresholdFraction: opts.ContentThresholdFraction,
			MinCount:          opts.MinContentCount,
		},
		Skew: SkewOptions{
			Range:  opts.SkewRange,
			Step:   opts.SkewStep,
			Stride: opts.SkewSampleStride,
		},
	}
}

func (EdgeAnalyzer) Name() string { return config.AnalyzerEdge }

// Analyze returns the content box and rotation angle of img. A page without
// detectable content yields the full-frame fallback with rotation 0.
func (a EdgeAnalyzer) Analyze(img image.Image) (Result, error) {
	if err := docimg.CheckDimensions(img); err != nil {
		return Result{}, err
	}
	small := Downsample(img, a.MaxSide)
	mask := BuildEdgeMask(small, a.Threshold)

	box, ok := DetectRegion(mask, a.Region)
	if !ok {
		return fallbackResult(a.Name()), nil
	}
	return Result{
		Box:           box,
		RotationAngle: EstimateSkew(mask, a.Skew),
		Analyzer:      a.Name(),
	}, nil
}

// Density analyzer constants. It predates the edge analyzer and is kept for
// pages where gradient edges are weak, such as pencil on grey paper.
const (
	densityMaxSide  = 600
	densityDarkMean = 130
	densityMinCount = 3
)

// DensityAnalyzer bounds the region of dark pixels. It never estimates skew.
type DensityAnalyzer struct{}

func (DensityAnalyzer) Name() string { return config.AnalyzerDensity }

func (d DensityAnalyzer) Analyze(img image.Image) (Result, error) {
	if err := docimg.CheckDimensions(img); err != nil {
		return Result{}, err
	}
	small := Downsample(img, densityMaxSide)
	width := small.Rect.Dx()
	height := small.Rect.Dy()

	dark := NewEdgeMask(width, height)
	parallel.Line(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				i := y*small.Stride + x*4
				sum := int(small.Pix[i]) + int(small.Pix[i+1]) + int(small.Pix[i+2])
				if float64(sum)/3 < densityDarkMean {
					dark.Bits[y*width+x] = true
				}
			}
		}
	})

	rows, cols := dark.Profiles()
	minY, maxY, okY := scanProfile(rows, densityMinCount-1)
	minX, maxX, okX := scanProfile(cols, densityMinCount-1)
	if !okY || !okX {
		return fallbackResult(d.Name()), nil
	}
	return Result{
		Box:      normalize(minY, minX, maxY, maxX, height, width),
		Analyzer: d.Name(),
	}, nil
}
