package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"

	icc "github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// ImageInfo contains metadata about an image file.
type ImageInfo struct {
	Format     Format
	Width      int
	Height     int
	ColorModel string
	ICC        []byte           // extracted ICC profile, nil if absent
	Profile    *icc.ProfileInfo // parsed ICC header, nil if absent or unreadable
	ProfileErr error            // why Profile is nil although ICC is not
}

// GetInfo reads image metadata and any embedded ICC profile without decoding
// the pixels.
func GetInfo(data []byte) (*ImageInfo, error) {
	cfg, name, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, &ir.ImageError{Kind: ir.UnsupportedFormat, Err: err}
		}
		return nil, &ir.ImageError{Kind: ir.DecodeFailed, Err: err}
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, err
	}

	profile, err := ExtractICC(data)
	if err != nil {
		return nil, fmt.Errorf("extracting ICC: %w", err)
	}

	info := &ImageInfo{
		Format:     format,
		Width:      cfg.Width,
		Height:     cfg.Height,
		ColorModel: colorModelName(cfg.ColorModel),
		ICC:        profile,
	}
	if profile != nil {
		info.Profile, info.ProfileErr = icc.ParseProfileInfo(profile)
	}
	return info, nil
}

func colorModelName(m color.Model) string {
	switch m {
	case color.RGBAModel, color.NRGBAModel:
		return "RGBA"
	case color.RGBA64Model, color.NRGBA64Model:
		return "RGBA64"
	case color.GrayModel:
		return "Grayscale"
	case color.Gray16Model:
		return "Grayscale16"
	case color.YCbCrModel:
		return "YCbCr"
	case color.NYCbCrAModel:
		return "YCbCrA"
	case color.CMYKModel:
		return "CMYK"
	}
	if _, ok := m.(color.Palette); ok {
		return "Paletted"
	}
	return "Unknown"
}
