package cms

import (
	"slices"
	"strings"

	"github.com/oovm/ScreenshotSimulator/internal/color"
)

// Pipeline is a compiled, immutable transform from the first profile's device
// space to the last profile's device space. A Pipeline holds no mutable state
// and may be shared by any number of goroutines.
type Pipeline struct {
	stages []Stage
	intent color.Intent
	names  []string
}

// Transform maps one device color through every stage in compiled order.
// Inputs are nominally in [0,1]; the output always is.
func (p *Pipeline) Transform(in [3]float64) [3]float64 {
	v := color.Vec3(in)
	for _, s := range p.stages {
		v = s.Eval(v)
	}
	return [3]float64(v)
}

// Stages returns a copy of the compiled stage list.
func (p *Pipeline) Stages() []Stage {
	return slices.Clone(p.stages)
}

// Intent returns the intent that selects the final clip policy.
func (p *Pipeline) Intent() color.Intent { return p.intent }

// String describes the profile chain and the stage sequence, for logs.
func (p *Pipeline) String() string {
	var b strings.Builder
	b.WriteString(strings.Join(p.names, " -> "))
	b.WriteString(" (")
	b.WriteString(p.intent.String())
	b.WriteString("): ")
	for i, s := range p.stages {
		if i > 0 {
			b.WriteString(" > ")
		}
		b.WriteString(s.Kind().String())
	}
	return b.String()
}
