package pipeline

import (
	"context"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/drift"
	"github.com/oovm/ScreenshotSimulator/internal/imageio"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
	"github.com/oovm/ScreenshotSimulator/internal/pixel"
	"github.com/oovm/ScreenshotSimulator/internal/testutil"
)

func testOptions(t *testing.T) Options {
	return Options{
		Source:     "display-p3",
		Target:     "srgb",
		Intent:     color.IntentPerceptual,
		Iterations: 3,
		Workers:    2,
		Logger:     testutil.NewTestLogger(t),
	}
}

func encodedSource(t *testing.T) []byte {
	t.Helper()
	img := ir.NewImage(12, 7)
	for i := range img.Pix {
		img.Pix[i] = uint8(i * 13)
	}
	data, err := imageio.EncodeBytes(img, imageio.PNG, imageio.EncodeOptions{})
	require.NoError(t, err)
	return data
}

func TestRun_ProducesFrames(t *testing.T) {
	opts := testOptions(t)
	res, err := Run(context.Background(), encodedSource(t), opts)
	require.NoError(t, err)

	assert.Equal(t, drift.Completed, res.State)
	assert.Equal(t, imageio.PNG, res.SourceFormat)
	assert.Equal(t, 12, res.Width)
	assert.Equal(t, 7, res.Height)
	assert.NotEmpty(t, res.ID)
	require.Len(t, res.Frames, 4)

	// Every frame is one mapper pass over the previous one.
	mapper := pixel.NewMapper(res.Pipeline, pixel.Options{Workers: 1})
	for i := 1; i < len(res.Frames); i++ {
		assert.Equal(t, i, res.Frames[i].Index)
		want := mapper.ConvertImage(res.Frames[i-1].Image)
		if diff := cmp.Diff(want, res.Frames[i].Image); diff != "" {
			t.Errorf("frame %d mismatch (-want +got):\n%s", i, diff)
		}
	}
	assert.Equal(t, 3, res.Last().Index)
}

func TestRun_Errors(t *testing.T) {
	opts := testOptions(t)

	_, err := Run(context.Background(), []byte("nope"), opts)
	assert.ErrorIs(t, err, &ir.ImageError{Kind: ir.UnsupportedFormat})
	assert.ErrorContains(t, err, "decode:")

	bad := opts
	bad.Target = "adobe-rgb"
	_, err = Run(context.Background(), encodedSource(t), bad)
	assert.ErrorContains(t, err, "target profile")

	bad = opts
	bad.Iterations = -1
	_, err = Run(context.Background(), encodedSource(t), bad)
	assert.ErrorIs(t, err, drift.ErrInvalidIterations)

	bad = opts
	bad.Reencode = imageio.WebP
	_, err = Run(context.Background(), encodedSource(t), bad)
	assert.ErrorIs(t, err, &ir.ImageError{Kind: ir.UnsupportedFormat})
}

func TestRun_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res, err := Run(ctx, encodedSource(t), testOptions(t))
	require.ErrorIs(t, err, context.Canceled)
	require.NotNil(t, res)
	assert.Equal(t, drift.Cancelled, res.State)
	assert.Len(t, res.Frames, 1)
}

func TestRun_Reencode(t *testing.T) {
	opts := testOptions(t)
	opts.Reencode = imageio.JPEG
	opts.Quality = 75

	var appended []int
	opts.Observers = []drift.Observer{drift.ObserverFuncs{
		OnFrame: func(index int, _ drift.Frame) { appended = append(appended, index) },
	}}

	res, err := Run(context.Background(), encodedSource(t), opts)
	require.NoError(t, err)
	require.Len(t, res.Frames, 4)
	assert.Equal(t, []int{1, 2, 3}, appended)
	for _, f := range res.Frames {
		assert.Equal(t, 12, f.Image.Width)
	}
}

func TestBuild(t *testing.T) {
	opts := testOptions(t)
	opts.BPC = true
	p, err := Build(opts)
	require.NoError(t, err)
	assert.Equal(t, color.IntentPerceptual, p.Intent())
	assert.Contains(t, p.String(), "Display P3 -> sRGB")

	opts.Source = ""
	_, err = Build(opts)
	assert.ErrorContains(t, err, "source profile")
}
