package imageio

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // register GIF decoder
	"image/jpeg"
	"image/png"
	"io"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	_ "golang.org/x/image/webp" // register WebP decoder

	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// DefaultQuality is the JPEG quality used when none is given.
const DefaultQuality = 90

// EncodeOptions controls encoding.
type EncodeOptions struct {
	Quality int    // JPEG quality (1-100); 0 means DefaultQuality
	ICC     []byte // optional ICC profile to embed (PNG and JPEG only)
}

// Decode reads any supported format into an 8-bit RGB image. Alpha is
// discarded.
func Decode(data []byte) (*ir.Image, Format, error) {
	src, name, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, "", &ir.ImageError{Kind: ir.UnsupportedFormat, Err: err}
		}
		return nil, "", &ir.ImageError{Kind: ir.DecodeFailed, Err: err}
	}
	format, err := ParseFormat(name)
	if err != nil {
		return nil, "", err
	}
	return fromImage(src), format, nil
}

func fromImage(src image.Image) *ir.Image {
	b := src.Bounds()
	nrgba, ok := src.(*image.NRGBA)
	if !ok || b.Min != (image.Point{}) {
		nrgba = image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
		draw.Draw(nrgba, nrgba.Bounds(), src, b.Min, draw.Src)
	}

	out := ir.NewImage(b.Dx(), b.Dy())
	for y := range out.Height {
		row := nrgba.Pix[y*nrgba.Stride : y*nrgba.Stride+out.Width*4]
		dst := out.Pix[y*out.Stride() : (y+1)*out.Stride()]
		for x := range out.Width {
			copy(dst[x*3:x*3+3], row[x*4:x*4+3])
		}
	}
	return out
}

func toImage(img *ir.Image) *image.NRGBA {
	out := image.NewNRGBA(image.Rect(0, 0, img.Width, img.Height))
	for y := range img.Height {
		src := img.Pix[y*img.Stride() : (y+1)*img.Stride()]
		row := out.Pix[y*out.Stride : y*out.Stride+img.Width*4]
		for x := range img.Width {
			copy(row[x*4:x*4+3], src[x*3:x*3+3])
			row[x*4+3] = 0xff
		}
	}
	return out
}

// Encode writes img to w in format f.
func Encode(w io.Writer, img *ir.Image, f Format, opts EncodeOptions) error {
	if err := img.Validate(); err != nil {
		return err
	}
	if !f.CanEncode() {
		return &ir.ImageError{Kind: ir.UnsupportedFormat, Err: fmt.Errorf("cannot encode %s", f)}
	}
	if len(opts.ICC) > 0 && f != PNG && f != JPEG {
		return &ir.ImageError{Kind: ir.UnsupportedFormat, Err: fmt.Errorf("cannot embed ICC profile in %s", f)}
	}

	var buf bytes.Buffer
	m := toImage(img)
	var err error
	switch f {
	case PNG:
		err = png.Encode(&buf, m)
	case JPEG:
		q := opts.Quality
		if q == 0 {
			q = DefaultQuality
		}
		if q < 1 || q > 100 {
			return fmt.Errorf("jpeg quality %d out of range 1-100", q)
		}
		err = jpeg.Encode(&buf, m, &jpeg.Options{Quality: q})
	case BMP:
		err = bmp.Encode(&buf, m)
	case TIFF:
		err = tiff.Encode(&buf, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	}
	if err != nil {
		return fmt.Errorf("encode %s: %w", f, err)
	}

	data := buf.Bytes()
	if len(opts.ICC) > 0 {
		if data, err = embedICC(data, f, opts.ICC); err != nil {
			return fmt.Errorf("embed ICC: %w", err)
		}
	}
	_, err = w.Write(data)
	return err
}

// EncodeBytes is Encode into a new byte slice.
func EncodeBytes(img *ir.Image, f Format, opts EncodeOptions) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f, opts); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func embedICC(data []byte, f Format, profile []byte) ([]byte, error) {
	switch f {
	case JPEG:
		return embedJPEGICC(data, profile)
	case PNG:
		return embedPNGICC(data, profile)
	}
	return nil, fmt.Errorf("unsupported format %s", f)
}
