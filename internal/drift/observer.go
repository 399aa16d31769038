package drift

import "sync"

// Observer receives progress from a run. Callbacks are invoked in order and
// must not block for long. Every run ends with exactly one RunFinished; a run
// dropped by Clear reports Cancelled from inside Clear.
type Observer interface {
	FrameAppended(index int, frame Frame)
	RunFinished(state State, err error)
}

// ObserverFuncs adapts plain functions to Observer. Nil fields are skipped.
type ObserverFuncs struct {
	OnFrame  func(index int, frame Frame)
	OnFinish func(state State, err error)
}

func (o ObserverFuncs) FrameAppended(index int, frame Frame) {
	if o.OnFrame != nil {
		o.OnFrame(index, frame)
	}
}

func (o ObserverFuncs) RunFinished(state State, err error) {
	if o.OnFinish != nil {
		o.OnFinish(state, err)
	}
}

// EventKind distinguishes Notifier events.
type EventKind int

const (
	EventFrame EventKind = iota
	EventFinished
)

// Event is what a Notifier delivers to its subscribers.
type Event struct {
	Kind  EventKind
	Index int
	Frame Frame
	State State
	Err   error
}

// eventBuffer is the per-subscriber channel capacity.
const eventBuffer = 16

// Notifier is an Observer that fans events out to channel subscribers.
// Delivery never blocks the run: a subscriber whose buffer is full misses the
// event and can catch up from Simulator.Frames.
type Notifier struct {
	mu        sync.RWMutex
	listeners map[chan Event]struct{}
}

// NewNotifier creates a Notifier with no subscribers.
func NewNotifier() *Notifier {
	return &Notifier{
		listeners: make(map[chan Event]struct{}),
	}
}

// Subscribe returns a channel that receives run events.
// The caller must call Unsubscribe when done.
func (n *Notifier) Subscribe() chan Event {
	ch := make(chan Event, eventBuffer)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

// Unsubscribe removes a listener channel and closes it.
func (n *Notifier) Unsubscribe(ch chan Event) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if _, ok := n.listeners[ch]; !ok {
		return
	}
	delete(n.listeners, ch)
	close(ch)
}

func (n *Notifier) FrameAppended(index int, frame Frame) {
	n.Broadcast(Event{Kind: EventFrame, Index: index, Frame: frame})
}

func (n *Notifier) RunFinished(state State, err error) {
	n.Broadcast(Event{Kind: EventFinished, State: state, Err: err})
}

// Broadcast sends ev to all listeners, skipping any whose buffer is full.
func (n *Notifier) Broadcast(ev Event) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case ch <- ev:
		default:
		}
	}
}
