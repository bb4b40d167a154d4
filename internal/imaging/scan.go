package imaging

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"
)

// ScanOptions controls ScanFilter.
type ScanOptions struct {
	Contrast   float64 // expansion factor around mid-gray
	Brightness float64 // offset added after expansion
	Clip       float64 // values above this become pure white
}

// ScanValue maps a luminance to the scan-look output level:
//
//	v = (lum-128)*Contrast + 128 + Brightness
//
// Values above Clip become 255 and the result is clamped to [0,255].
func (o ScanOptions) ScanValue(lum float64) uint8 {
	v := (lum-128)*o.Contrast + 128 + o.Brightness
	if v > o.Clip {
		return 255
	}
	return clampUint8(v)
}

// ScanFilter converts img to a high-contrast grayscale "scan" look. Alpha is
// preserved; R, G and B are set to the same level.
func ScanFilter(img image.Image, opts ScanOptions) (*image.NRGBA, error) {
	if err := CheckDimensions(img); err != nil {
		return nil, err
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		v := opts.ScanValue(Luma(c.R, c.G, c.B))
		return color.NRGBA{R: v, G: v, B: v, A: c.A}
	}), nil
}
