package drift

import (
	"context"
	"errors"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oovm/ScreenshotSimulator/internal/cms"
	"github.com/oovm/ScreenshotSimulator/internal/color"
	"github.com/oovm/ScreenshotSimulator/internal/ir"
	"github.com/oovm/ScreenshotSimulator/internal/pixel"
	"github.com/oovm/ScreenshotSimulator/internal/testutil"
)

func sourceImage() *ir.Image {
	img := ir.NewImage(8, 4)
	for i := range img.Pix {
		img.Pix[i] = uint8(40 + i*5)
	}
	return img
}

func mapperStep(t *testing.T) Step {
	t.Helper()
	p, err := cms.Link(cms.Uniform(cms.LinkOptions{Intent: color.IntentPerceptual}, color.DisplayP3(), color.SRGB()))
	require.NoError(t, err)
	return MapperStep(pixel.NewMapper(p, pixel.Options{Workers: 2}))
}

// gatedStep blocks every pass until the test releases it.
type gatedStep struct {
	gate chan struct{}
}

func newGatedStep() *gatedStep { return &gatedStep{gate: make(chan struct{})} }

func (g *gatedStep) Apply(img *ir.Image) (*ir.Image, error) {
	<-g.gate
	next := img.Clone()
	next.Pix[0]++
	return next, nil
}

func (g *gatedStep) release() { g.gate <- struct{}{} }

func waitDone(t *testing.T, s *Simulator) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, s.Wait(ctx))
}

func TestSimulator_FrameGrowth(t *testing.T) {
	step := mapperStep(t)
	src := sourceImage()
	orig := src.Clone()

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	s := New(step, Options{Logger: testutil.NewTestLogger(t), Metrics: metrics})
	assert.Equal(t, Idle, s.State())

	require.NoError(t, s.Run(context.Background(), src, 5))
	waitDone(t, s)

	assert.Equal(t, Completed, s.State())
	require.NoError(t, s.Err())
	frames := s.Frames()
	require.Len(t, frames, 6)
	assert.True(t, frames[0].Image.Equal(orig), "frame 0 must equal the source")
	assert.NotSame(t, src, frames[0].Image)

	for i := 1; i < len(frames); i++ {
		assert.Equal(t, i, frames[i].Index)
		want, err := step.Apply(frames[i-1].Image)
		require.NoError(t, err)
		assert.True(t, want.Equal(frames[i].Image), "frame %d is not step(frame %d)", i, i-1)
	}

	// Mutating the caller's image after Run must not leak into frames.
	src.Pix[0] ^= 0xff
	assert.True(t, s.Frames()[0].Image.Equal(orig))

	assert.Equal(t, 5.0, promtest.ToFloat64(metrics.Frames))
	assert.Equal(t, 1.0, promtest.ToFloat64(metrics.Runs.WithLabelValues("completed")))
	assert.Equal(t, 1, promtest.CollectAndCount(metrics.RunDuration))
}

func TestSimulator_ZeroIterations(t *testing.T) {
	s := New(mapperStep(t), Options{})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 0))
	waitDone(t, s)

	assert.Equal(t, Completed, s.State())
	assert.Len(t, s.Frames(), 1)
}

func TestSimulator_RunArguments(t *testing.T) {
	s := New(mapperStep(t), Options{})
	ctx := context.Background()

	assert.ErrorIs(t, s.Run(ctx, sourceImage(), -1), ErrInvalidIterations)
	assert.ErrorIs(t, s.Run(ctx, nil, 3), ErrNilImage)

	bad := &ir.Image{Width: 4, Height: 4, Pix: make([]byte, 5)}
	assert.ErrorIs(t, s.Run(ctx, bad, 3), &ir.ImageError{Kind: ir.DimensionMismatch})
	assert.Equal(t, Idle, s.State())
}

func TestSimulator_Busy(t *testing.T) {
	step := newGatedStep()
	s := New(step, Options{})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 2))

	assert.ErrorIs(t, s.Run(context.Background(), sourceImage(), 2), ErrBusy)

	step.release()
	step.release()
	waitDone(t, s)
	assert.Equal(t, Completed, s.State())

	// Finished runs free the simulator.
	require.NoError(t, s.Run(context.Background(), sourceImage(), 0))
	waitDone(t, s)
}

func TestSimulator_CancelAtBoundary(t *testing.T) {
	const k = 2
	step := newGatedStep()

	var s *Simulator
	s = New(step, Options{Observers: []Observer{ObserverFuncs{
		OnFrame: func(index int, _ Frame) {
			if index == k {
				s.Cancel()
			}
		},
	}}})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 10))

	for range k {
		step.release()
	}
	waitDone(t, s)

	assert.Equal(t, Cancelled, s.State())
	assert.Len(t, s.Frames(), k+1)
}

func TestSimulator_CancelDuringPass(t *testing.T) {
	step := newGatedStep()
	s := New(step, Options{})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 10))

	step.release() // pass 1 completes
	require.Eventually(t, func() bool { return len(s.Frames()) == 2 }, 5*time.Second, time.Millisecond)

	// Pass 2 is in flight; cancel, then let it finish.
	s.Cancel()
	select {
	case step.gate <- struct{}{}:
	case <-time.After(time.Second):
	}
	waitDone(t, s)

	// The pass that was in flight is not appended.
	assert.Equal(t, Cancelled, s.State())
	assert.Len(t, s.Frames(), 2)
}

func TestSimulator_ContextCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	s := New(mapperStep(t), Options{})
	require.NoError(t, s.Run(ctx, sourceImage(), 4))
	waitDone(t, s)

	assert.Equal(t, Cancelled, s.State())
	assert.Len(t, s.Frames(), 1)
}

func TestSimulator_FailurePreservesFrames(t *testing.T) {
	boom := &ir.ImageError{Kind: ir.DecodeFailed, Err: errors.New("truncated data")}
	calls := 0
	step := StepFunc(func(img *ir.Image) (*ir.Image, error) {
		calls++
		if calls == 4 {
			return nil, boom
		}
		return img.Clone(), nil
	})

	var finished []State
	s := New(step, Options{Observers: []Observer{ObserverFuncs{
		OnFinish: func(state State, err error) { finished = append(finished, state) },
	}}})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 10))
	waitDone(t, s)

	assert.Equal(t, Failed, s.State())
	assert.Len(t, s.Frames(), 4)
	require.Error(t, s.Err())
	assert.ErrorIs(t, s.Err(), boom)
	assert.Contains(t, s.Err().Error(), "iteration 4")
	assert.Equal(t, []State{Failed}, finished)
}

// eventLog records observer callbacks from the run goroutine.
type eventLog struct {
	mu       sync.Mutex
	frames   []int
	finished []State
}

func (l *eventLog) FrameAppended(index int, _ Frame) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.frames = append(l.frames, index)
}

func (l *eventLog) RunFinished(state State, _ error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.finished = append(l.finished, state)
}

func (l *eventLog) snapshot() ([]int, []State) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.Clone(l.frames), slices.Clone(l.finished)
}

func TestSimulator_Clear(t *testing.T) {
	step := newGatedStep()
	events := &eventLog{}
	s := New(step, Options{Observers: []Observer{events}})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 5))
	step.release()
	require.Eventually(t, func() bool { return len(s.Frames()) == 2 }, 5*time.Second, time.Millisecond)

	held := s.Frames()
	before := held[1].Image.Clone()

	s.Clear()
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Frames())

	// The cleared run is finished as soon as Clear returns.
	frames, finished := events.snapshot()
	assert.Equal(t, []int{1}, frames)
	assert.Equal(t, []State{Cancelled}, finished)

	// Unblock the abandoned pass; its result must not be published or
	// reported.
	select {
	case step.gate <- struct{}{}:
	case <-time.After(time.Second):
	}
	time.Sleep(10 * time.Millisecond)
	assert.Equal(t, Idle, s.State())
	assert.Empty(t, s.Frames())
	frames, finished = events.snapshot()
	assert.Equal(t, []int{1}, frames)
	assert.Equal(t, []State{Cancelled}, finished)

	require.Len(t, held, 2)
	assert.True(t, held[1].Image.Equal(before))

	// A new run may start right away, and only it reports from now on.
	require.NoError(t, s.Run(context.Background(), sourceImage(), 1))
	step.release()
	waitDone(t, s)
	assert.Equal(t, Completed, s.State())
	assert.Len(t, s.Frames(), 2)
	frames, finished = events.snapshot()
	assert.Equal(t, []int{1, 1}, frames)
	assert.Equal(t, []State{Cancelled, Completed}, finished)

	// Clearing an idle or finished simulator reports nothing.
	s.Clear()
	_, finished = events.snapshot()
	assert.Len(t, finished, 2)
}

func TestSimulator_ClearDuringPass(t *testing.T) {
	step := newGatedStep()
	events := &eventLog{}
	s := New(step, Options{Observers: []Observer{events}})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 3))

	// Pass 1 is blocked inside the step.
	s.Clear()
	step.release()
	time.Sleep(10 * time.Millisecond)

	frames, finished := events.snapshot()
	assert.Empty(t, frames)
	assert.Equal(t, []State{Cancelled}, finished)
	assert.Equal(t, Idle, s.State())
}

func TestSimulator_SetIterationsMidRun(t *testing.T) {
	step := newGatedStep()
	s := New(step, Options{Iterations: 3})
	assert.Equal(t, 3, s.Iterations())

	require.NoError(t, s.RunConfigured(context.Background(), sourceImage()))
	require.NoError(t, s.SetIterations(1))
	assert.ErrorIs(t, s.SetIterations(-2), ErrInvalidIterations)

	for range 3 {
		step.release()
	}
	waitDone(t, s)
	assert.Len(t, s.Frames(), 4)
	assert.Equal(t, 3, s.Session().Iterations)

	require.NoError(t, s.RunConfigured(context.Background(), sourceImage()))
	step.release()
	waitDone(t, s)
	assert.Len(t, s.Frames(), 2)
}

func TestSimulator_SnapshotsAreStable(t *testing.T) {
	s := New(mapperStep(t), Options{})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 3))

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 200 {
				sess := s.Session()
				for i, f := range sess.Frames {
					if f.Index != i || f.Image == nil {
						t.Errorf("torn snapshot: frame %d has index %d", i, f.Index)
						return
					}
				}
			}
		}()
	}
	wg.Wait()
	waitDone(t, s)

	sess := s.Session()
	assert.NotEmpty(t, sess.ID)
	assert.Len(t, sess.Frames, 4)
	sess.Frames[0] = Frame{}
	assert.NotNil(t, s.Frames()[0].Image)
}

func TestSimulator_Notifier(t *testing.T) {
	n := NewNotifier()
	ch := n.Subscribe()
	defer n.Unsubscribe(ch)

	s := New(mapperStep(t), Options{Observers: []Observer{n}})
	require.NoError(t, s.Run(context.Background(), sourceImage(), 3))
	waitDone(t, s)

	var got []Event
	for len(got) < 4 {
		select {
		case ev := <-ch:
			got = append(got, ev)
		case <-time.After(time.Second):
			t.Fatalf("only %d events", len(got))
		}
	}
	for i := range 3 {
		assert.Equal(t, EventFrame, got[i].Kind)
		assert.Equal(t, i+1, got[i].Index)
		assert.Equal(t, i+1, got[i].Frame.Index)
	}
	assert.Equal(t, EventFinished, got[3].Kind)
	assert.Equal(t, Completed, got[3].State)
}

func TestStep_Chain(t *testing.T) {
	inc := StepFunc(func(img *ir.Image) (*ir.Image, error) {
		next := img.Clone()
		next.Pix[0]++
		return next, nil
	})
	fail := StepFunc(func(*ir.Image) (*ir.Image, error) {
		return nil, &ir.ImageError{Kind: ir.UnsupportedFormat}
	})

	out, err := Chain(inc, inc).Apply(sourceImage())
	require.NoError(t, err)
	assert.Equal(t, uint8(42), out.Pix[0])

	_, err = Chain(inc, fail).Apply(sourceImage())
	assert.ErrorIs(t, err, &ir.ImageError{Kind: ir.UnsupportedFormat})
	assert.Contains(t, err.Error(), "step 1")
}

func TestMapperStep_RejectsBadBuffer(t *testing.T) {
	_, err := mapperStep(t).Apply(&ir.Image{Width: 2, Height: 2})
	assert.ErrorIs(t, err, &ir.ImageError{Kind: ir.DimensionMismatch})
}
