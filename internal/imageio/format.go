// Package imageio decodes and encodes image files around the color core. It
// is the only producer of ir.ImageError for file data.
package imageio

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// Format is an image container format.
type Format string

const (
	PNG  Format = "png"
	JPEG Format = "jpeg"
	GIF  Format = "gif"
	BMP  Format = "bmp"
	TIFF Format = "tiff"
	WebP Format = "webp"
)

// Formats lists every format Decode understands.
var Formats = []Format{PNG, JPEG, GIF, BMP, TIFF, WebP}

// ParseFormat converts a format name or file extension to a Format.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "png":
		return PNG, nil
	case "jpeg", "jpg":
		return JPEG, nil
	case "gif":
		return GIF, nil
	case "bmp":
		return BMP, nil
	case "tiff", "tif":
		return TIFF, nil
	case "webp":
		return WebP, nil
	default:
		return "", &ir.ImageError{Kind: ir.UnsupportedFormat, Err: fmt.Errorf("unknown image format %q", s)}
	}
}

// FormatFromPath derives the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", &ir.ImageError{Kind: ir.UnsupportedFormat, Err: fmt.Errorf("%s has no extension", path)}
	}
	return ParseFormat(ext)
}

// CanEncode reports whether Encode supports f.
func (f Format) CanEncode() bool {
	switch f {
	case PNG, JPEG, BMP, TIFF:
		return true
	}
	return false
}

// Ext returns the usual file extension, with the dot.
func (f Format) Ext() string {
	if f == JPEG {
		return ".jpg"
	}
	return "." + string(f)
}

func (f Format) String() string { return string(f) }
