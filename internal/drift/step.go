package drift

import (
	"fmt"

	"github.com/oovm/ScreenshotSimulator/internal/ir"
	"github.com/oovm/ScreenshotSimulator/internal/pixel"
)

// Step produces the next frame from the previous one. It must not modify its
// input.
type Step interface {
	Apply(img *ir.Image) (*ir.Image, error)
}

// StepFunc adapts a function to Step.
type StepFunc func(img *ir.Image) (*ir.Image, error)

func (f StepFunc) Apply(img *ir.Image) (*ir.Image, error) { return f(img) }

// MapperStep converts each frame through m. The buffer is validated first, so
// the only errors come from the image layer.
func MapperStep(m *pixel.Mapper) Step {
	return StepFunc(func(img *ir.Image) (*ir.Image, error) {
		if err := img.Validate(); err != nil {
			return nil, err
		}
		return m.ConvertImage(img), nil
	})
}

// Chain runs steps in order, feeding each output to the next.
func Chain(steps ...Step) Step {
	return StepFunc(func(img *ir.Image) (*ir.Image, error) {
		for i, s := range steps {
			next, err := s.Apply(img)
			if err != nil {
				return nil, fmt.Errorf("step %d: %w", i, err)
			}
			img = next
		}
		return img, nil
	})
}
