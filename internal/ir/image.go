// Package ir holds the in-memory image representation passed between the
// codec layer and the color core.
package ir

import "fmt"

// Image is an 8-bit RGB raster. Pixels are stored as interleaved R,G,B bytes
// (3 bytes per pixel, row-major order).
type Image struct {
	Width  int
	Height int
	Pix    []byte // len = Width * Height * 3
}

// NewImage allocates a zeroed image.
func NewImage(width, height int) *Image {
	if width < 0 || height < 0 {
		width, height = 0, 0
	}
	return &Image{Width: width, Height: height, Pix: make([]byte, width*height*3)}
}

// FromPix wraps pix as an image after checking its length.
func FromPix(width, height int, pix []byte) (*Image, error) {
	img := &Image{Width: width, Height: height, Pix: pix}
	if err := img.Validate(); err != nil {
		return nil, err
	}
	return img, nil
}

// Validate checks that the buffer matches the dimensions.
func (m *Image) Validate() error {
	if m == nil {
		return &ImageError{Kind: DimensionMismatch, Err: fmt.Errorf("nil image")}
	}
	if m.Width < 0 || m.Height < 0 {
		return &ImageError{Kind: DimensionMismatch, Err: fmt.Errorf("negative size %dx%d", m.Width, m.Height)}
	}
	if want := m.Width * m.Height * 3; len(m.Pix) != want {
		return &ImageError{
			Kind: DimensionMismatch,
			Err:  fmt.Errorf("%dx%d needs %d bytes, buffer has %d", m.Width, m.Height, want, len(m.Pix)),
		}
	}
	return nil
}

// Stride is the number of bytes per row.
func (m *Image) Stride() int { return m.Width * 3 }

// At returns the pixel at (x, y). It panics if the point is out of range.
func (m *Image) At(x, y int) (r, g, b uint8) {
	i := m.offset(x, y)
	return m.Pix[i], m.Pix[i+1], m.Pix[i+2]
}

// Set stores the pixel at (x, y). It panics if the point is out of range.
func (m *Image) Set(x, y int, r, g, b uint8) {
	i := m.offset(x, y)
	m.Pix[i], m.Pix[i+1], m.Pix[i+2] = r, g, b
}

func (m *Image) offset(x, y int) int {
	if x < 0 || y < 0 || x >= m.Width || y >= m.Height {
		panic(fmt.Sprintf("ir: point (%d,%d) outside %dx%d image", x, y, m.Width, m.Height))
	}
	return (y*m.Width + x) * 3
}

// Clone returns a deep copy.
func (m *Image) Clone() *Image {
	pix := make([]byte, len(m.Pix))
	copy(pix, m.Pix)
	return &Image{Width: m.Width, Height: m.Height, Pix: pix}
}

// Equal reports whether both images have the same size and pixels.
func (m *Image) Equal(o *Image) bool {
	if m == nil || o == nil {
		return m == o
	}
	return m.Width == o.Width && m.Height == o.Height && string(m.Pix) == string(o.Pix)
}
