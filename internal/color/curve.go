package color

import (
	"fmt"
	"math"
)

// CurveType is an ICC parametricCurveType function type.
type CurveType int

// Supported parametric function types (ICC.1:2022 10.18).
const (
	// CurveGamma is Y = X^g.
	CurveGamma CurveType = 0
	// CurveSRGB is Y = (aX+b)^g for X >= d, Y = cX otherwise.
	CurveSRGB CurveType = 3
	// CurveOffset is Y = (aX+b)^g + e for X >= d, Y = cX + f otherwise.
	CurveOffset CurveType = 4
)

var curveParamCount = map[CurveType]int{
	CurveGamma:  1,
	CurveSRGB:   5,
	CurveOffset: 7,
}

// Curve is a parametric tone curve mapping encoded device values to linear
// light. Eval and Inverse are defined on the whole real line so that
// out-of-gamut values survive until the pipeline's clip stage.
type Curve struct {
	Type   CurveType
	Params []float64 // g, a, b, c, d, e, f (prefix by type)
}

// Gamma returns a pure power curve.
func Gamma(g float64) Curve {
	return Curve{Type: CurveGamma, Params: []float64{g}}
}

// Validate checks the function type and its parameters.
func (c Curve) Validate() error {
	n, ok := curveParamCount[c.Type]
	if !ok {
		return &ProfileError{Kind: UnsupportedTag, Detail: fmt.Sprintf("parametric curve type %d", c.Type)}
	}
	if len(c.Params) != n {
		return &ProfileError{Kind: Malformed, Detail: fmt.Sprintf("curve type %d needs %d parameters, got %d", c.Type, n, len(c.Params))}
	}
	for _, p := range c.Params {
		if math.IsNaN(p) || math.IsInf(p, 0) {
			return &ProfileError{Kind: Malformed, Detail: "non-finite curve parameter"}
		}
	}
	if c.Params[0] <= 0 {
		return &ProfileError{Kind: Malformed, Detail: "curve gamma must be positive"}
	}
	if c.Type != CurveGamma && c.Params[1] <= 0 {
		return &ProfileError{Kind: Malformed, Detail: "curve slope a must be positive"}
	}
	return nil
}

// Eval maps an encoded value to linear light.
func (c Curve) Eval(x float64) float64 {
	p := c.Params
	switch c.Type {
	case CurveGamma:
		if x < 0 {
			return -math.Pow(-x, p[0])
		}
		return math.Pow(x, p[0])
	case CurveSRGB:
		if x >= p[4] {
			return math.Pow(math.Max(float64(p[1]*x)+p[2], 0), p[0])
		}
		return p[3] * x
	case CurveOffset:
		if x >= p[4] {
			return math.Pow(math.Max(float64(p[1]*x)+p[2], 0), p[0]) + p[5]
		}
		return float64(p[3]*x) + p[6]
	}
	return x
}

// Inverse maps linear light back to an encoded value.
func (c Curve) Inverse(y float64) float64 {
	p := c.Params
	switch c.Type {
	case CurveGamma:
		if y < 0 {
			return -math.Pow(-y, 1/p[0])
		}
		return math.Pow(y, 1/p[0])
	case CurveSRGB:
		if y >= p[3]*p[4] {
			return (math.Pow(y, 1/p[0]) - p[2]) / p[1]
		}
		if p[3] == 0 {
			return 0
		}
		return y / p[3]
	case CurveOffset:
		if y >= float64(p[3]*p[4])+p[6] {
			return (math.Pow(math.Max(y-p[5], 0), 1/p[0]) - p[2]) / p[1]
		}
		if p[3] == 0 {
			return 0
		}
		return (y - p[6]) / p[3]
	}
	return y
}
