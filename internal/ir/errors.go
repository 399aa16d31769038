package ir

import "fmt"

// ImageErrorKind classifies an ImageError.
type ImageErrorKind int

const (
	DecodeFailed ImageErrorKind = iota
	UnsupportedFormat
	DimensionMismatch
)

func (k ImageErrorKind) String() string {
	switch k {
	case DecodeFailed:
		return "decode failed"
	case UnsupportedFormat:
		return "unsupported format"
	case DimensionMismatch:
		return "dimension mismatch"
	default:
		return fmt.Sprintf("ImageErrorKind(%d)", int(k))
	}
}

// ImageError is returned by the image and codec layers. The color core never
// produces one.
type ImageError struct {
	Kind ImageErrorKind
	Err  error
}

func (e *ImageError) Error() string {
	if e.Err == nil {
		return "image: " + e.Kind.String()
	}
	return fmt.Sprintf("image: %s: %v", e.Kind, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }

// Is matches another *ImageError of the same kind.
func (e *ImageError) Is(target error) bool {
	t, ok := target.(*ImageError)
	return ok && t.Kind == e.Kind
}
