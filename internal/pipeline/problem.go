package pipeline

import (
	"time"

	"github.com/google/uuid"

	"github.com/ironsheep/doc-rectify-mcp/internal/analysis"
	"github.com/ironsheep/doc-rectify-mcp/internal/imaging"
)

// Problem is one processed document photo.
//
// Original holds the uploaded bytes; Processed the rectified JPEG. When the
// upload could not be decoded, Processed is the original bytes and Analysis
// is nil.
type Problem struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	Original  []byte `json:"-"`
	Processed []byte `json:"-"`

	// Width and Height are the source image dimensions, 0 when undecodable.
	Width  int `json:"width"`
	Height int `json:"height"`

	// Crop and Rotation are the last committed editor state. They start from
	// the analysis and change only on commit.
	Crop             *imaging.Rect `json:"crop,omitempty"`
	Rotation         float64       `json:"rotation"`
	DetectedRotation float64       `json:"detected_rotation"`

	Note      string           `json:"note"`
	CreatedAt time.Time        `json:"created_at"`
	Analysis  *analysis.Result `json:"analysis,omitempty"`
}

func newProblem(name string, original []byte, now time.Time) *Problem {
	return &Problem{
		ID:        uuid.NewString(),
		Name:      name,
		Original:  original,
		Processed: original,
		CreatedAt: now,
	}
}

// Decoded reports whether analysis ran on the upload.
func (p *Problem) Decoded() bool { return p.Analysis != nil }

// Commit records an editor result rendered from r and angle.
func (p *Problem) Commit(encoded []byte, r imaging.Rect, angle float64) {
	p.Processed = encoded
	p.Crop = &r
	p.Rotation = angle
}
