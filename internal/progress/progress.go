// Package progress models the state of a long running task: how far along it
// is, how far it has to go, and a message describing the current step.
//
// A Tracker owns that state and pushes a snapshot to its observers after
// every change while it is shown. Rendering is up to the observers, see
// TerminalRenderer.
package progress

import (
	"fmt"
	"math"
	"sync"
)

// State is a snapshot of a task's progress.
type State struct {
	Current float64 `json:"current"`
	Maximum float64 `json:"maximum"`
	Message string  `json:"message"`
}

// Ratio returns Current/Maximum, or 0 when Maximum is 0 or the quotient is
// NaN. The value is not clamped.
func (s State) Ratio() float64 {
	if s.Maximum == 0 {
		return 0
	}
	ratio := s.Current / s.Maximum
	if math.IsNaN(ratio) {
		return 0
	}
	return ratio
}

// Percent returns the ratio as a percentage clamped to [0, 100].
func (s State) Percent() float64 {
	return min(max(s.Ratio(), 0), 1) * 100
}

type EventKind int

const (
	EventShown EventKind = iota
	EventUpdated
	EventClosed
)

func (k EventKind) String() string {
	switch k {
	case EventShown:
		return "shown"
	case EventUpdated:
		return "updated"
	case EventClosed:
		return "closed"
	default:
		return fmt.Sprintf("event(%d)", int(k))
	}
}

// Event is delivered to observers.
type Event struct {
	Kind  EventKind
	State State
}

// Observer receives events. Observers are called synchronously, in
// subscription order, and must not call back into the Tracker.
type Observer func(Event)

type subscription struct {
	id       int
	observer Observer
}

// Tracker holds progress state and notifies observers while shown.
// It is safe for concurrent use.
type Tracker struct {
	mu        sync.Mutex
	state     State
	visible   bool
	nextID    int
	observers []subscription
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithMaximum sets the initial maximum. Defaults to 1.
func WithMaximum(maximum float64) Option {
	return func(t *Tracker) {
		t.state.Maximum = maximum
	}
}

func WithMessage(message string) Option {
	return func(t *Tracker) {
		t.state.Message = message
	}
}

// New creates a hidden Tracker with Current 0 and Maximum 1.
func New(opts ...Option) *Tracker {
	t := &Tracker{state: State{Maximum: 1}}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Subscribe registers an observer and returns a function removing it.
func (t *Tracker) Subscribe(observer Observer) (unsubscribe func()) {
	t.mu.Lock()
	defer t.mu.Unlock()

	id := t.nextID
	t.nextID++
	t.observers = append(t.observers, subscription{id: id, observer: observer})

	return func() {
		t.mu.Lock()
		defer t.mu.Unlock()
		for i, sub := range t.observers {
			if sub.id == id {
				t.observers = append(t.observers[:i:i], t.observers[i+1:]...)
				return
			}
		}
	}
}

// State returns the current snapshot.
func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

func (t *Tracker) Visible() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.visible
}

// Show makes the tracker visible and emits EventShown. Showing a visible
// tracker does nothing.
func (t *Tracker) Show() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.visible {
		return
	}
	t.visible = true
	t.emit(EventShown)
}

// Close emits EventClosed and hides the tracker. Closing a hidden tracker
// does nothing.
func (t *Tracker) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.visible {
		return
	}
	t.emit(EventClosed)
	t.visible = false
}

func (t *Tracker) SetProgress(current float64) {
	t.Update(func(s *State) { s.Current = current })
}

func (t *Tracker) SetMaximum(maximum float64) {
	t.Update(func(s *State) { s.Maximum = maximum })
}

func (t *Tracker) SetMessage(message string) {
	t.Update(func(s *State) { s.Message = message })
}

// Increment adds delta to Current.
func (t *Tracker) Increment(delta float64) {
	t.Update(func(s *State) { s.Current += delta })
}

// Update applies fn to the state and notifies observers once if the
// tracker is visible and the state changed.
func (t *Tracker) Update(fn func(*State)) {
	t.mu.Lock()
	defer t.mu.Unlock()

	before := t.state
	fn(&t.state)
	if t.visible && t.state != before {
		t.emit(EventUpdated)
	}
}

// emit must be called with mu held.
func (t *Tracker) emit(kind EventKind) {
	event := Event{Kind: kind, State: t.state}
	for _, sub := range t.observers {
		sub.observer(event)
	}
}
