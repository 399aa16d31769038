// Package drift reproduces color drift by feeding an image through the same
// conversion again and again, keeping every intermediate frame.
package drift

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"

	"github.com/oovm/ScreenshotSimulator/internal/ir"
)

// State is the lifecycle state of a simulator run.
type State int

const (
	Idle State = iota
	Running
	Completed
	Cancelled
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Running:
		return "running"
	case Completed:
		return "completed"
	case Cancelled:
		return "cancelled"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s ends a run.
func (s State) Terminal() bool {
	return s == Completed || s == Cancelled || s == Failed
}

var (
	ErrBusy              = errors.New("drift: a run is already in progress")
	ErrInvalidIterations = errors.New("drift: iteration count must not be negative")
	ErrNilImage          = errors.New("drift: nil source image")
)

// Frame is one image of the sequence. Index 0 is the source. The image is
// never modified once the frame exists.
type Frame struct {
	Index int
	Image *ir.Image
}

// Session is an immutable snapshot of the simulator.
type Session struct {
	ID         string
	Source     *ir.Image
	Iterations int
	Frames     []Frame
	State      State
	Err        error
}

// Options configures a Simulator.
type Options struct {
	Logger     hclog.Logger
	Metrics    *Metrics
	Observers  []Observer
	Iterations int // default target for RunConfigured
}

// Simulator runs F(i+1) = step(F(i)) in a background goroutine and publishes
// snapshots that readers can take at any time without locking.
type Simulator struct {
	step      Step
	logger    hclog.Logger
	metrics   *Metrics
	observers []Observer

	// notifyMu orders observer delivery against Clear, so a superseded run
	// can never report to observers after its RunFinished. Taken before mu.
	notifyMu sync.Mutex

	mu         sync.Mutex // guards the fields below
	gen        uint64
	active     bool
	cancel     context.CancelFunc
	done       chan struct{}
	iterations int

	snap atomic.Pointer[Session]
}

// New creates an idle Simulator around step.
func New(step Step, opts Options) *Simulator {
	logger := opts.Logger
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	s := &Simulator{
		step:       step,
		logger:     logger,
		metrics:    opts.Metrics,
		observers:  slices.Clone(opts.Observers),
		iterations: max(opts.Iterations, 0),
	}
	s.snap.Store(&Session{State: Idle})
	return s
}

// SetIterations changes the target used by RunConfigured. A run already in
// progress keeps the count it was started with.
func (s *Simulator) SetIterations(n int) error {
	if n < 0 {
		return ErrInvalidIterations
	}
	s.mu.Lock()
	s.iterations = n
	s.mu.Unlock()
	return nil
}

// Iterations returns the configured target.
func (s *Simulator) Iterations() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.iterations
}

// RunConfigured starts a run with the configured iteration count.
func (s *Simulator) RunConfigured(ctx context.Context, src *ir.Image) error {
	return s.Run(ctx, src, s.Iterations())
}

// Run starts producing n frames after src and returns immediately. Frame 0 is
// a private copy of src. The run stops early when ctx is done or Cancel is
// called; both are checked between passes only.
func (s *Simulator) Run(ctx context.Context, src *ir.Image, n int) error {
	if n < 0 {
		return ErrInvalidIterations
	}
	if src == nil {
		return ErrNilImage
	}
	if err := src.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrBusy
	}

	s.gen++
	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.active, s.cancel, s.done = true, cancel, done

	source := src.Clone()
	sess := &Session{
		ID:         uuid.NewString(),
		Source:     source,
		Iterations: n,
		Frames:     []Frame{{Index: 0, Image: source}},
		State:      Running,
	}
	s.snap.Store(sess)

	s.logger.Debug("drift run started", "session", sess.ID, "iterations", n,
		"width", src.Width, "height", src.Height)
	go s.loop(runCtx, cancel, s.gen, sess, done)
	return nil
}

func (s *Simulator) loop(ctx context.Context, cancel context.CancelFunc, gen uint64, sess *Session, done chan struct{}) {
	defer close(done)
	defer cancel()

	start := time.Now()
	frames := sess.Frames
	state := Completed
	var runErr error

	for i := 1; i <= sess.Iterations; i++ {
		if ctx.Err() != nil {
			state = Cancelled
			break
		}
		passStart := time.Now()
		next, err := s.step.Apply(frames[len(frames)-1].Image)
		if err != nil {
			state, runErr = Failed, fmt.Errorf("iteration %d: %w", i, err)
			break
		}
		// A pass that finished after cancellation is discarded, so the
		// frame count matches what was complete when Cancel was called.
		if ctx.Err() != nil {
			state = Cancelled
			break
		}
		frame := Frame{Index: i, Image: next}
		frames = append(frames, frame)
		s.notifyMu.Lock()
		if !s.publish(gen, sess, frames, Running, nil) {
			s.notifyMu.Unlock()
			return
		}
		for _, o := range s.observers {
			o.FrameAppended(i, frame)
		}
		s.notifyMu.Unlock()
		if s.metrics != nil {
			s.metrics.Frames.Inc()
			s.metrics.PassDuration.Observe(time.Since(passStart).Seconds())
		}
		s.logger.Trace("frame appended", "session", sess.ID, "index", i,
			"elapsed", time.Since(passStart))
	}

	s.notifyMu.Lock()
	if !s.finish(gen, sess, frames, state, runErr) {
		// Clear already reported this run as cancelled.
		s.notifyMu.Unlock()
		return
	}
	for _, o := range s.observers {
		o.RunFinished(state, runErr)
	}
	s.notifyMu.Unlock()

	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(state.String()).Inc()
		s.metrics.RunDuration.Observe(time.Since(start).Seconds())
	}
	if runErr != nil {
		s.logger.Error("drift run failed", "session", sess.ID, "frames", len(frames), "error", runErr)
	} else {
		s.logger.Debug("drift run finished", "session", sess.ID, "state", state,
			"frames", len(frames), "elapsed", time.Since(start))
	}
}

// publish stores a new snapshot unless the run was superseded by Clear.
func (s *Simulator) publish(gen uint64, sess *Session, frames []Frame, state State, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.store(sess, frames, state, err)
	return true
}

func (s *Simulator) finish(gen uint64, sess *Session, frames []Frame, state State, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.gen {
		return false
	}
	s.store(sess, frames, state, err)
	s.active = false
	return true
}

func (s *Simulator) store(sess *Session, frames []Frame, state State, err error) {
	next := *sess
	next.Frames = slices.Clip(frames)
	next.State = state
	next.Err = err
	s.snap.Store(&next)
}

// Cancel asks the current run to stop at the next iteration boundary.
func (s *Simulator) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active && s.cancel != nil {
		s.cancel()
	}
}

// Clear cancels any run and resets to Idle with no frames. Snapshots and
// frames returned earlier stay valid. A run that was still active is reported
// to observers as Cancelled before Clear returns, and sends nothing after.
// Observers must not call Clear.
func (s *Simulator) Clear() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.Lock()
	wasActive := s.active
	if s.cancel != nil {
		s.cancel()
	}
	s.gen++
	s.active = false
	s.cancel = nil
	s.done = nil
	s.snap.Store(&Session{State: Idle})
	s.mu.Unlock()

	if !wasActive {
		return
	}
	if s.metrics != nil {
		s.metrics.Runs.WithLabelValues(Cancelled.String()).Inc()
	}
	s.logger.Debug("drift run cleared")
	for _, o := range s.observers {
		o.RunFinished(Cancelled, nil)
	}
}

// Wait blocks until the current run ends or ctx is done.
func (s *Simulator) Wait(ctx context.Context) error {
	s.mu.Lock()
	done := s.done
	s.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Session returns the current snapshot.
func (s *Simulator) Session() Session {
	sess := *s.snap.Load()
	sess.Frames = slices.Clone(sess.Frames)
	return sess
}

// Frames returns the frames produced so far, source first.
func (s *Simulator) Frames() []Frame {
	return slices.Clone(s.snap.Load().Frames)
}

// State returns the current run state.
func (s *Simulator) State() State {
	return s.snap.Load().State
}

// Err returns the error that failed the last run, if any.
func (s *Simulator) Err() error {
	return s.snap.Load().Err
}
