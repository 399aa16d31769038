package imageio

import (
	"fmt"

	"github.com/oovm/ScreenshotSimulator/internal/drift"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// RoundTripStep encodes each frame in format f and decodes it again, the way
// saving and reopening a file would. Lossy formats add their own drift on top
// of the color conversion.
func RoundTripStep(f Format, opts EncodeOptions) (drift.Step, error) {
	if !f.CanEncode() {
		return nil, &ir.ImageError{Kind: ir.UnsupportedFormat, Err: fmt.Errorf("cannot encode %s", f)}
	}
	return drift.StepFunc(func(img *ir.Image) (*ir.Image, error) {
		data, err := EncodeBytes(img, f, opts)
		if err != nil {
			return nil, err
		}
		out, _, err := Decode(data)
		if err != nil {
			return nil, err
		}
		if out.Width != img.Width || out.Height != img.Height {
			return nil, &ir.ImageError{
				Kind: ir.DimensionMismatch,
				Err:  fmt.Errorf("%s round trip changed size %dx%d -> %dx%d", f, img.Width, img.Height, out.Width, out.Height),
			}
		}
		return out, nil
	}), nil
}
