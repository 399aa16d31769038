package cms

import (
	"fmt"
	"math"

	"github.com/oovm/ScreenshotSimulator/internal/color"
)

// StageKind names the role of a pipeline stage.
type StageKind int

const (
	StageDeviceCurve StageKind = iota
	StageDeviceMatrix
	StagePCSEncode
	StagePCSDecode
	StageAdaptation
	StageBlackPoint
	StagePCSMatrix
	StageOutputCurve
	StageClip
)

func (k StageKind) String() string {
	switch k {
	case StageDeviceCurve:
		return "device-curve"
	case StageDeviceMatrix:
		return "device-matrix"
	case StagePCSEncode:
		return "pcs-encode"
	case StagePCSDecode:
		return "pcs-decode"
	case StageAdaptation:
		return "adaptation"
	case StageBlackPoint:
		return "black-point"
	case StagePCSMatrix:
		return "pcs-matrix"
	case StageOutputCurve:
		return "output-curve"
	case StageClip:
		return "clip"
	default:
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
}

// Stage is one elementary, pure step of a compiled pipeline.
type Stage interface {
	Kind() StageKind
	Eval(v color.Vec3) color.Vec3
}

// curveStage applies one tone curve per channel, forward (device -> linear)
// or inverse (linear -> device).
type curveStage struct {
	kind    StageKind
	curves  [3]color.Curve
	inverse bool
}

func (s curveStage) Kind() StageKind { return s.kind }

func (s curveStage) Eval(v color.Vec3) color.Vec3 {
	var out color.Vec3
	for i, c := range s.curves {
		if s.inverse {
			out[i] = c.Inverse(v[i])
		} else {
			out[i] = c.Eval(v[i])
		}
	}
	return out
}

// matrixStage computes m·v + offset.
type matrixStage struct {
	kind   StageKind
	m      color.Mat3
	offset color.Vec3
}

func (s matrixStage) Kind() StageKind { return s.kind }

func (s matrixStage) Eval(v color.Vec3) color.Vec3 {
	out := s.m.MulVec(v)
	out[0] += s.offset[0]
	out[1] += s.offset[1]
	out[2] += s.offset[2]
	return out
}

// pcsStage converts between the XYZ and Lab encodings of the PCS.
type pcsStage struct {
	toLab bool
}

func (s pcsStage) Kind() StageKind {
	if s.toLab {
		return StagePCSEncode
	}
	return StagePCSDecode
}

func (s pcsStage) Eval(v color.Vec3) color.Vec3 {
	if s.toLab {
		return color.XYZToLab(v)
	}
	return color.LabToXYZ(v)
}

// snapEpsilon absorbs the rounding left by the matrix chain: white comes out
// a few ulps short of 1.0, which truncating quantization would turn into 254.
const snapEpsilon = 1e-9

// clipStage brings device values into [0,1]. Perceptual links compress
// out-of-range colors in the destination's linear light, toward the gray of
// equal luminance, until they touch the gamut boundary; colorimetric links
// clip each channel.
type clipStage struct {
	compress bool
	curves   [3]color.Curve
	luma     color.Vec3 // Y row of the destination's linear RGB -> XYZ matrix
}

func (s clipStage) Kind() StageKind { return StageClip }

func (s clipStage) Eval(v color.Vec3) color.Vec3 {
	for i := range v {
		v[i] = snap(v[i])
	}
	if s.compress && !inGamut(v) {
		v = s.compressToGamut(v)
	}
	for i := range v {
		v[i] = clamp01(v[i])
	}
	return v
}

func snap(x float64) float64 {
	switch {
	case math.Abs(x) < snapEpsilon:
		return 0
	case math.Abs(x-1) < snapEpsilon:
		return 1
	}
	return x
}

func inGamut(v color.Vec3) bool {
	return v[0] >= 0 && v[0] <= 1 && v[1] >= 0 && v[1] <= 1 && v[2] >= 0 && v[2] <= 1
}

// compressToGamut moves v along the line toward the gray of equal
// luminance until every linear channel lies in [0,1]. Luminance is kept and
// hue approximately so.
func (s clipStage) compressToGamut(v color.Vec3) color.Vec3 {
	if math.IsNaN(v[0]) || math.IsNaN(v[1]) || math.IsNaN(v[2]) {
		return color.Vec3{}
	}
	var lin color.Vec3
	for i, c := range s.curves {
		lin[i] = c.Eval(v[i])
	}
	y := clamp01(float64(s.luma[0]*lin[0]) + float64(s.luma[1]*lin[1]) + float64(s.luma[2]*lin[2]))
	t := 1.0
	for _, c := range lin {
		switch {
		case c > 1:
			t = math.Min(t, (1-y)/(c-y))
		case c < 0:
			t = math.Min(t, y/(y-c))
		}
	}
	for i, c := range s.curves {
		v[i] = snap(c.Inverse(y + float64(t*(lin[i]-y))))
	}
	return v
}

func clamp01(x float64) float64 {
	if math.IsNaN(x) {
		return 0
	}
	return max(0, min(x, 1))
}
