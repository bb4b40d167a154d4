package imaging

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// EncodedImage is a compressed bitmap ready to hand back to a caller.
type EncodedImage struct {
	Width       int    `json:"width"`
	Height      int    `json:"height"`
	ImageBase64 string `json:"image_base64,omitempty"`
	MimeType    string `json:"mime_type"`
}

// EncodeJPEG compresses img as JPEG at the given quality (1-100).
// Translucent images are flattened onto white first.
func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	if err := CheckDimensions(img); err != nil {
		return nil, err
	}
	img = Flatten(img)

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("failed to encode JPEG: %w", err)
	}
	return buf.Bytes(), nil
}

// Flatten composites translucent images onto white. Opaque images are
// returned as they are.
func Flatten(img image.Image) image.Image {
	if o, ok := img.(interface{ Opaque() bool }); ok && o.Opaque() {
		return img
	}
	b := img.Bounds()
	return imaging.Overlay(imaging.New(b.Dx(), b.Dy(), color.White), img, image.Point{}, 1.0)
}

// Describe decodes just enough of data to report its size and wraps the
// bytes as base64 for JSON transport. An empty mimeType is taken from the
// detected format.
func Describe(data []byte, mimeType string) (*EncodedImage, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if mimeType == "" {
		mimeType = "image/" + format
	}
	return &EncodedImage{
		Width:       cfg.Width,
		Height:      cfg.Height,
		ImageBase64: base64.StdEncoding.EncodeToString(data),
		MimeType:    mimeType,
	}, nil
}
