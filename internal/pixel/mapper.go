// Package pixel applies a compiled color pipeline to 8-bit pixels and whole
// images.
package pixel

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/oovm/ScreenshotSimulator/internal/cms"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// Transformer is the part of a Pipeline the mapper needs.
type Transformer interface {
	Transform(in [3]float64) [3]float64
}

// Options tunes image conversion.
type Options struct {
	// Workers caps the number of goroutines ConvertImage uses. Zero means
	// GOMAXPROCS.
	Workers int
}

// Mapper converts 8-bit RGB through a Pipeline. It holds no mutable state and
// is safe for concurrent use.
type Mapper struct {
	xf      Transformer
	workers int
}

// NewMapper returns a Mapper over p.
func NewMapper(p Transformer, opts Options) *Mapper {
	w := opts.Workers
	if w <= 0 {
		w = runtime.GOMAXPROCS(0)
	}
	return &Mapper{xf: p, workers: w}
}

// Pipeline returns the compiled pipeline, or nil when the mapper wraps some
// other Transformer.
func (m *Mapper) Pipeline() *cms.Pipeline {
	p, _ := m.xf.(*cms.Pipeline)
	return p
}

// ConvertPixel normalizes by 255, transforms, and scales back by 255 with
// truncation. Truncation is what makes repeated passes drift, so it must not
// become rounding.
func (m *Mapper) ConvertPixel(r, g, b uint8) (uint8, uint8, uint8) {
	out := m.xf.Transform([3]float64{
		float64(r) / 255,
		float64(g) / 255,
		float64(b) / 255,
	})
	return quantize(out[0]), quantize(out[1]), quantize(out[2])
}

func quantize(v float64) uint8 {
	return uint8(v * 255)
}

// minRowsPerTask keeps tiny images on a single goroutine.
const minRowsPerTask = 16

// ConvertImage returns a new image whose every pixel is ConvertPixel of the
// corresponding src pixel. src is never modified. Rows are split into
// disjoint bands processed concurrently.
//
// ConvertImage panics with an *ir.ImageError when src is nil or its buffer
// does not match its dimensions.
func (m *Mapper) ConvertImage(src *ir.Image) *ir.Image {
	if err := src.Validate(); err != nil {
		panic(err)
	}
	dst := ir.NewImage(src.Width, src.Height)
	if src.Height == 0 || src.Width == 0 {
		return dst
	}

	bands := min(m.workers, (src.Height+minRowsPerTask-1)/minRowsPerTask)
	bands = max(bands, 1)
	rowsPer := (src.Height + bands - 1) / bands
	stride := src.Stride()

	var g errgroup.Group
	for y0 := 0; y0 < src.Height; y0 += rowsPer {
		y1 := min(y0+rowsPer, src.Height)
		g.Go(func() error {
			return m.convertBand(dst.Pix[y0*stride:y1*stride], src.Pix[y0*stride:y1*stride])
		})
	}
	if err := g.Wait(); err != nil {
		panic(err)
	}
	return dst
}

func (m *Mapper) convertBand(out, in []byte) error {
	if len(in)%3 != 0 || len(out) != len(in) {
		return fmt.Errorf("pixel: band of %d bytes into %d", len(in), len(out))
	}
	for i := 0; i < len(in); i += 3 {
		out[i], out[i+1], out[i+2] = m.ConvertPixel(in[i], in[i+1], in[i+2])
	}
	return nil
}
