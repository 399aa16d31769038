package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"

	"github.com/oovm/ScreenshotSimulator/internal/cms"
	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/drift"
	"github.com/oovm/ScreenshotSimulator/internal/imageio"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
	"github.com/oovm/ScreenshotSimulator/internal/pixel"
)

// Options controls a full decode → link → drift run.
type Options struct {
	Source          string // built-in source profile name
	Target          string // built-in target profile name
	Intent          color.Intent
	BPC             bool
	AdaptationState float64
	Iterations      int
	Workers         int

	// Reencode, when set, saves and reloads every frame in this format after
	// the color pass, so codec loss compounds with color loss.
	Reencode imageio.Format
	Quality  int // JPEG quality for Reencode

	Logger    hclog.Logger
	Metrics   *drift.Metrics
	Observers []drift.Observer
}

// Result holds the output of a drift run.
type Result struct {
	ID           string
	Frames       []drift.Frame
	State        drift.State
	Width        int
	Height       int
	SourceFormat imageio.Format
	Pipeline     *cms.Pipeline
}

// Last returns the most recent frame.
func (r *Result) Last() drift.Frame {
	return r.Frames[len(r.Frames)-1]
}

// Build links the source and target profiles named in opts.
func Build(opts Options) (*cms.Pipeline, error) {
	src, err := color.Builtin(opts.Source)
	if err != nil {
		return nil, fmt.Errorf("source profile: %w", err)
	}
	dst, err := color.Builtin(opts.Target)
	if err != nil {
		return nil, fmt.Errorf("target profile: %w", err)
	}
	return cms.Link(cms.Uniform(cms.LinkOptions{
		Intent:                 opts.Intent,
		BlackPointCompensation: opts.BPC,
		AdaptationState:        opts.AdaptationState,
	}, src, dst))
}

// Step builds the per-frame step for p: one mapper pass, optionally followed
// by an encode/decode round trip.
func Step(p *cms.Pipeline, opts Options) (drift.Step, error) {
	step := drift.MapperStep(pixel.NewMapper(p, pixel.Options{Workers: opts.Workers}))
	if opts.Reencode == "" {
		return step, nil
	}
	rt, err := imageio.RoundTripStep(opts.Reencode, imageio.EncodeOptions{Quality: opts.Quality})
	if err != nil {
		return nil, fmt.Errorf("reencode: %w", err)
	}
	return drift.Chain(step, rt), nil
}

// Run decodes data and drifts it opts.Iterations times. On failure or
// cancellation the frames produced so far are returned with the error.
func Run(ctx context.Context, data []byte, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	// 1. Decode
	src, format, err := imageio.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	logger.Debug("decoded source", "format", format, "width", src.Width, "height", src.Height)

	// 2. Link profiles
	p, err := Build(opts)
	if err != nil {
		return nil, fmt.Errorf("link: %w", err)
	}
	logger.Debug("linked pipeline", "pipeline", p.String())

	return Drift(ctx, src, format, p, opts)
}

// Drift runs the simulator over an already decoded image.
func Drift(ctx context.Context, src *ir.Image, format imageio.Format, p *cms.Pipeline, opts Options) (*Result, error) {
	step, err := Step(p, opts)
	if err != nil {
		return nil, err
	}

	sim := drift.New(step, drift.Options{
		Logger:    opts.Logger,
		Metrics:   opts.Metrics,
		Observers: opts.Observers,
	})
	if err := sim.Run(ctx, src, opts.Iterations); err != nil {
		return nil, fmt.Errorf("drift: %w", err)
	}
	waitErr := sim.Wait(ctx)
	if waitErr != nil {
		sim.Cancel()
		// The loop always exits once cancelled; collect its final snapshot.
		_ = sim.Wait(context.Background())
	}

	sess := sim.Session()
	res := &Result{
		ID:           sess.ID,
		Frames:       sess.Frames,
		State:        sess.State,
		Width:        src.Width,
		Height:       src.Height,
		SourceFormat: format,
		Pipeline:     p,
	}
	switch sess.State {
	case drift.Failed:
		return res, fmt.Errorf("drift: %w", sess.Err)
	case drift.Cancelled:
		if waitErr != nil {
			return res, waitErr
		}
		if ctx.Err() != nil {
			return res, ctx.Err()
		}
		return res, errors.New("drift: cancelled")
	}
	return res, nil
}
