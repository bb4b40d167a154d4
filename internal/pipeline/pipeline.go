package pipeline

import (
	"context"
	"fmt"
	"image"
	"time"

	"github.com/ironsheep/doc-rectify-mcp/internal/analysis"
	"github.com/ironsheep/doc-rectify-mcp/internal/config"
	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// Pipeline runs the rectification stages with one option set. It holds no
// per-image state and is safe for concurrent use.
type Pipeline struct {
	opts     config.Options
	analyzer analysis.ContentAnalyzer
	now      func() time.Time
}

// New validates opts and builds a pipeline around the analyzer they select.
func New(opts config.Options) (*Pipeline, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	a, err := analysis.New(opts)
	if err != nil {
		return nil, err
	}
	return &Pipeline{opts: opts, analyzer: a, now: time.Now}, nil
}

// Options returns the option set the pipeline was built with.
func (p *Pipeline) Options() config.Options { return p.opts }

// Analyze locates content and skew in img.
func (p *Pipeline) Analyze(img image.Image) (analysis.Result, error) {
	return p.analyzer.Analyze(img)
}

// CropFor maps an analysis result onto img as a crop rectangle.
func (p *Pipeline) CropFor(img image.Image, res analysis.Result) imaging.Rect {
	b := img.Bounds()
	return res.CropRect(b.Dx(), b.Dy(), p.opts.CropPadding)
}

// Render rectifies r of src by angle, then applies the enabled shadow
// removal and scan filter stages. trim additionally removes white margins.
func (p *Pipeline) Render(src image.Image, r imaging.Rect, angle float64, trim bool) (image.Image, error) {
	rectified, err := imaging.Rectify(src, r, angle, imaging.RectifyOptions{
		Epsilon:   p.opts.RotationEpsilon,
		Fill:      p.opts.Fill(),
		MaxPixels: p.opts.MaxCanvasPixels,
	})
	if err != nil {
		return nil, err
	}

	var out image.Image = rectified
	if p.opts.EnableShadowRemoval {
		out, err = imaging.RemoveShadows(out, imaging.NormalizeOptions{
			CellSize:   p.opts.GridCellSize,
			DarkCutoff: p.opts.DarkCellCutoff,
		})
		if err != nil {
			return nil, fmt.Errorf("shadow removal: %w", err)
		}
	}
	if p.opts.EnableScanFilter {
		out, err = imaging.ScanFilter(out, imaging.ScanOptions{
			Contrast:   p.opts.ContrastFactor,
			Brightness: p.opts.BrightnessOffset,
			Clip:       p.opts.HighlightClip,
		})
		if err != nil {
			return nil, fmt.Errorf("scan filter: %w", err)
		}
	}
	if trim {
		out = imaging.TrimBorders(out, imaging.TrimOptions{
			Threshold: p.opts.TrimThreshold,
			MinCount:  p.opts.TrimMinCount,
			Padding:   p.opts.TrimPadding,
		})
	}
	return out, nil
}

// ProcessImage runs the automatic path on a decoded image: analyze, crop
// with padding, rectify, filter and trim.
func (p *Pipeline) ProcessImage(img image.Image) (image.Image, analysis.Result, imaging.Rect, error) {
	res, err := p.Analyze(img)
	if err != nil {
		return nil, analysis.Result{}, imaging.Rect{}, err
	}
	crop := p.CropFor(img, res)
	out, err := p.Render(img, crop, res.RotationAngle, true)
	if err != nil {
		return nil, res, crop, err
	}
	return out, res, crop, nil
}

// Process decodes data and runs the automatic path, returning a new
// Problem. Decode failures are returned wrapped in imaging.ErrDecode.
func (p *Pipeline) Process(ctx context.Context, name string, data []byte) (*Problem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	img, err := imaging.DecodeBytes(data)
	if err != nil {
		return nil, err
	}
	out, res, crop, err := p.ProcessImage(img)
	if err != nil {
		return nil, err
	}
	encoded, err := imaging.EncodeJPEG(out, p.opts.JPEGQuality)
	if err != nil {
		return nil, err
	}

	prob := newProblem(name, data, p.now())
	prob.Processed = encoded
	prob.Width = img.Bounds().Dx()
	prob.Height = img.Bounds().Dy()
	prob.Crop = &crop
	prob.Rotation = res.RotationAngle
	prob.DetectedRotation = res.RotationAngle
	prob.Analysis = &res
	return prob, nil
}

// Commit renders an editor result: rectify, optional shadow removal and
// scan filter, no trimming, encoded at the commit quality.
func (p *Pipeline) Commit(src image.Image, r imaging.Rect, angle float64) ([]byte, error) {
	out, err := p.Render(src, r, angle, false)
	if err != nil {
		return nil, err
	}
	return imaging.EncodeJPEG(out, p.opts.CommitJPEGQuality)
}
