package color

import (
	"errors"
	"math"
)

// Vec3 is a three-component color or XYZ value.
type Vec3 [3]float64

// Mat3 is a row-major 3x3 matrix.
type Mat3 [3][3]float64

// Identity is the 3x3 identity matrix.
var Identity = Mat3{
	{1, 0, 0},
	{0, 1, 0},
	{0, 0, 1},
}

// D50 is the ICC Profile Connection Space white point.
var D50 = Vec3{0.9642, 1.0, 0.8249}

// Bradford cone response matrix.
var bradford = Mat3{
	{0.8951, 0.2664, -0.1614},
	{-0.7502, 1.7135, 0.0367},
	{0.0389, -0.0685, 1.0296},
}

var errSingular = errors.New("matrix is singular")

// MulVec returns m·v.
//
// The explicit float64 conversions stop the compiler from fusing the
// multiply-adds, so results are bit-identical on every architecture.
func (m Mat3) MulVec(v Vec3) Vec3 {
	return Vec3{
		float64(m[0][0]*v[0]) + float64(m[0][1]*v[1]) + float64(m[0][2]*v[2]),
		float64(m[1][0]*v[0]) + float64(m[1][1]*v[1]) + float64(m[1][2]*v[2]),
		float64(m[2][0]*v[0]) + float64(m[2][1]*v[1]) + float64(m[2][2]*v[2]),
	}
}

// Mul returns m·n.
func (m Mat3) Mul(n Mat3) Mat3 {
	var out Mat3
	for i := range 3 {
		for j := range 3 {
			sum := 0.0
			for k := range 3 {
				sum += float64(m[i][k] * n[k][j])
			}
			out[i][j] = sum
		}
	}
	return out
}

// Invert returns the inverse of m, or an error if m is singular.
func (m Mat3) Invert() (Mat3, error) {
	a, b, c := m[0][0], m[0][1], m[0][2]
	d, e, f := m[1][0], m[1][1], m[1][2]
	g, h, i := m[2][0], m[2][1], m[2][2]

	c00 := float64(e*i) - float64(f*h)
	c01 := float64(d*i) - float64(f*g)
	c02 := float64(d*h) - float64(e*g)
	det := float64(a*c00) - float64(b*c01) + float64(c*c02)
	if math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return Mat3{}, errSingular
	}
	inv := 1.0 / det

	return Mat3{
		{c00 * inv, (float64(c*h) - float64(b*i)) * inv, (float64(b*f) - float64(c*e)) * inv},
		{-c01 * inv, (float64(a*i) - float64(c*g)) * inv, (float64(c*d) - float64(a*f)) * inv},
		{c02 * inv, (float64(g*b) - float64(a*h)) * inv, (float64(a*e) - float64(b*d)) * inv},
	}, nil
}

// Diag returns the diagonal matrix with v on its diagonal.
func Diag(v Vec3) Mat3 {
	return Mat3{
		{v[0], 0, 0},
		{0, v[1], 0},
		{0, 0, v[2]},
	}
}

// Lerp blends m toward n: (1-t)·m + t·n.
func (m Mat3) Lerp(n Mat3, t float64) Mat3 {
	var out Mat3
	for i := range 3 {
		for j := range 3 {
			out[i][j] = float64((1-t)*m[i][j]) + float64(t*n[i][j])
		}
	}
	return out
}

// IsFinite reports whether every entry of m is finite.
func (m Mat3) IsFinite() bool {
	for i := range 3 {
		for j := range 3 {
			if math.IsNaN(m[i][j]) || math.IsInf(m[i][j], 0) {
				return false
			}
		}
	}
	return true
}

// Adaptation returns the Bradford chromatic adaptation matrix mapping XYZ
// values seen under src white to the corresponding values under dst white.
func Adaptation(src, dst Vec3) (Mat3, error) {
	inv, err := bradford.Invert()
	if err != nil {
		return Mat3{}, err
	}
	s := bradford.MulVec(src)
	d := bradford.MulVec(dst)
	if s[0] == 0 || s[1] == 0 || s[2] == 0 {
		return Mat3{}, errSingular
	}
	scale := Diag(Vec3{d[0] / s[0], d[1] / s[1], d[2] / s[2]})
	return inv.Mul(scale.Mul(bradford)), nil
}

// Close reports whether v and w differ by at most eps in every component.
func (v Vec3) Close(w Vec3, eps float64) bool {
	for i := range 3 {
		if math.Abs(v[i]-w[i]) > eps {
			return false
		}
	}
	return true
}

const labDelta = 6.0 / 29.0

// XYZToLab converts D50-relative XYZ to CIELAB.
func XYZToLab(xyz Vec3) Vec3 {
	f := func(t float64) float64 {
		if t > labDelta*labDelta*labDelta {
			return math.Cbrt(t)
		}
		return t/(3*labDelta*labDelta) + 4.0/29.0
	}
	fx := f(xyz[0] / D50[0])
	fy := f(xyz[1] / D50[1])
	fz := f(xyz[2] / D50[2])
	return Vec3{float64(116*fy) - 16, float64(500 * (fx - fy)), float64(200 * (fy - fz))}
}

// LabToXYZ converts CIELAB to D50-relative XYZ.
func LabToXYZ(lab Vec3) Vec3 {
	finv := func(t float64) float64 {
		if t > labDelta {
			return float64(float64(t*t) * t)
		}
		return float64(3 * labDelta * labDelta * (t - 4.0/29.0))
	}
	fy := (lab[0] + 16) / 116
	fx := fy + lab[1]/500
	fz := fy - lab[2]/200
	return Vec3{float64(D50[0] * finv(fx)), float64(D50[1] * finv(fy)), float64(D50[2] * finv(fz))}
}
