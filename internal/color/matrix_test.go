package color

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMat3_Invert(t *testing.T) {
	m := Mat3{
		{2, 0, 1},
		{1, 3, 0},
		{0, 1, 4},
	}
	inv, err := m.Invert()
	require.NoError(t, err)

	got := m.Mul(inv)
	for i := range 3 {
		for j := range 3 {
			assert.InDelta(t, Identity[i][j], got[i][j], 1e-12, "[%d][%d]", i, j)
		}
	}
}

func TestMat3_InvertSingular(t *testing.T) {
	m := Mat3{
		{1, 2, 3},
		{2, 4, 6},
		{0, 1, 1},
	}
	_, err := m.Invert()
	assert.ErrorIs(t, err, errSingular)
}

func TestMat3_Lerp(t *testing.T) {
	m := Diag(Vec3{2, 4, 6})
	assert.Equal(t, m, m.Lerp(Identity, 0))
	assert.Equal(t, Identity, m.Lerp(Identity, 1))
	assert.Equal(t, Diag(Vec3{1.5, 2.5, 3.5}), m.Lerp(Identity, 0.5))
}

func TestAdaptation(t *testing.T) {
	d65 := Chromaticity{X: 0.3127, Y: 0.3290}.XYZ()

	cat, err := Adaptation(d65, D50)
	require.NoError(t, err)
	assert.True(t, cat.MulVec(d65).Close(D50, 1e-12))

	same, err := Adaptation(D50, D50)
	require.NoError(t, err)
	for i := range 3 {
		for j := range 3 {
			assert.InDelta(t, Identity[i][j], same[i][j], 1e-12)
		}
	}

	_, err = Adaptation(Vec3{}, D50)
	assert.Error(t, err)
}

func TestLab_RoundTrip(t *testing.T) {
	tests := []Vec3{
		D50,
		{0, 0, 0},
		{0.2, 0.3, 0.1},
		{0.001, 0.002, 0.003}, // linear segment
		{0.5, 0.2, 0.7},
	}
	for _, xyz := range tests {
		back := LabToXYZ(XYZToLab(xyz))
		assert.True(t, back.Close(xyz, 1e-12), "%v -> %v", xyz, back)
	}

	white := XYZToLab(D50)
	assert.InDelta(t, 100, white[0], 1e-12)
	assert.InDelta(t, 0, white[1], 1e-12)
	assert.InDelta(t, 0, white[2], 1e-12)
}

func TestLab_AnchorsExact(t *testing.T) {
	assert.Equal(t, Vec3{100, 0, 0}, XYZToLab(D50))
	assert.Equal(t, D50, LabToXYZ(Vec3{100, 0, 0}))
	assert.Equal(t, Vec3{0, 0, 0}, LabToXYZ(Vec3{0, 0, 0}))
}

func TestMat3_IsFinite(t *testing.T) {
	assert.True(t, Identity.IsFinite())
	m := Identity
	m[1][2] = math.Inf(1)
	assert.False(t, m.IsFinite())
}
