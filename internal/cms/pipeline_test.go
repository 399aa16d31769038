package cms

import (
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oovm/ScreenshotSimulator/internal/color"
)

func p3ToSRGB(t *testing.T, intent color.Intent) *Pipeline {
	t.Helper()
	p, err := Link(Uniform(LinkOptions{Intent: intent}, color.DisplayP3(), color.SRGB()))
	require.NoError(t, err)
	return p
}

func grid(steps int) [][3]float64 {
	var out [][3]float64
	for r := 0; r <= steps; r++ {
		for g := 0; g <= steps; g++ {
			for b := 0; b <= steps; b++ {
				out = append(out, [3]float64{
					float64(r) / float64(steps),
					float64(g) / float64(steps),
					float64(b) / float64(steps),
				})
			}
		}
	}
	return out
}

func TestPipeline_OutputInUnitCube(t *testing.T) {
	for _, intent := range color.Intents {
		p := p3ToSRGB(t, intent)
		for _, in := range grid(8) {
			out := p.Transform(in)
			for _, v := range out {
				require.GreaterOrEqual(t, v, 0.0, "%s %v -> %v", intent, in, out)
				require.LessOrEqual(t, v, 1.0, "%s %v -> %v", intent, in, out)
			}
		}
	}
}

func TestPipeline_Deterministic(t *testing.T) {
	p := p3ToSRGB(t, color.IntentPerceptual)
	inputs := grid(10)

	want := make([][3]float64, len(inputs))
	for i, in := range inputs {
		want[i] = p.Transform(in)
	}

	var wg sync.WaitGroup
	results := make([][][3]float64, 8)
	for w := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got := make([][3]float64, len(inputs))
			for i, in := range inputs {
				got[i] = p.Transform(in)
			}
			results[w] = got
		}()
	}
	wg.Wait()

	for _, got := range results {
		assert.Equal(t, want, got)
	}
}

func TestPipeline_WhitePreserved(t *testing.T) {
	pairs := [][2]color.Profile{
		{color.DisplayP3(), color.SRGB()},
		{color.SRGB(), color.DisplayP3()},
		{color.SRGB(), color.SRGB()},
		{color.ProPhotoRGB(), color.SRGB()},
	}
	for _, pair := range pairs {
		for _, intent := range []color.Intent{color.IntentPerceptual, color.IntentRelativeColorimetric, color.IntentSaturation} {
			p, err := Link(Uniform(LinkOptions{Intent: intent}, pair[0], pair[1]))
			require.NoError(t, err)
			assert.Equal(t, [3]float64{1, 1, 1}, p.Transform([3]float64{1, 1, 1}), p.String())
			assert.Equal(t, [3]float64{0, 0, 0}, p.Transform([3]float64{0, 0, 0}), p.String())
		}
	}
}

func TestPipeline_PerceptualCompressesOutOfGamut(t *testing.T) {
	red := [3]float64{1, 0, 0}

	clipped := p3ToSRGB(t, color.IntentRelativeColorimetric).Transform(red)
	assert.Equal(t, [3]float64{1, 0, 0}, clipped)

	// Compressed toward the gray of equal luminance rather than clipped.
	got := p3ToSRGB(t, color.IntentPerceptual).Transform(red)
	assert.InDelta(t, 1.0, got[0], 1e-9)
	assert.InDelta(t, 0.16293843387064869, got[1], 1e-9)
	assert.InDelta(t, 0.22092192652119466, got[2], 1e-9)
}

func TestPipeline_InGamutUntouchedByClipPolicy(t *testing.T) {
	// Every sRGB color fits in Display P3, so intents agree exactly.
	var outs [][][3]float64
	for _, intent := range []color.Intent{color.IntentPerceptual, color.IntentRelativeColorimetric, color.IntentSaturation} {
		p, err := Link(Uniform(LinkOptions{Intent: intent}, color.SRGB(), color.DisplayP3()))
		require.NoError(t, err)
		var out [][3]float64
		for _, in := range grid(6) {
			out = append(out, p.Transform(in))
		}
		outs = append(outs, out)
	}
	assert.Equal(t, outs[0], outs[1])
	assert.Equal(t, outs[0], outs[2])

	p, err := Link(Uniform(perceptual(), color.SRGB(), color.DisplayP3()))
	require.NoError(t, err)
	red := p.Transform([3]float64{1, 0, 0})
	assert.InDelta(t, 0.9174875573251657, red[0], 1e-9)
	assert.InDelta(t, 0.20028680774084728, red[1], 1e-9)
	assert.InDelta(t, 0.13856059121111405, red[2], 1e-9)
}

func TestPipeline_StagesIsACopy(t *testing.T) {
	p := p3ToSRGB(t, color.IntentPerceptual)
	stages := p.Stages()
	stages[0] = nil
	assert.NotNil(t, p.Stages()[0])
}

func TestClipStage_NaN(t *testing.T) {
	p := p3ToSRGB(t, color.IntentPerceptual)
	var clip Stage
	for _, s := range p.Stages() {
		if s.Kind() == StageClip {
			clip = s
		}
	}
	require.NotNil(t, clip)
	nan := color.Vec3{0.5, math.NaN(), 0.5}
	assert.Equal(t, color.Vec3{}, clip.Eval(nan))
}
