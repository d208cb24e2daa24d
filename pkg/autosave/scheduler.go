// Package autosave implements the per-question debounce used by the builder.
// A Scheduler owns one cancellable timer per id: arming an id that already
// has a pending timer stops that timer and starts a new one, so only the
// latest edit inside the quiet period is ever committed. Every arm is tagged
// with a sequence number; work started by an older arm can ask IsCurrent to
// find out whether its result is still wanted.
package autosave

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// DefaultDelay is the quiet period applied when none is configured.
const DefaultDelay = 2 * time.Second

// State is the per-id scheduler state.
type State string

const (
	StateIdle     State = "idle"
	StatePending  State = "pending"
	StateInFlight State = "in-flight"
)

// Task runs when the quiet period for an id elapses. seq identifies the arm
// that produced the call.
type Task func(seq uint64)

// Timer is the subset of *time.Timer the scheduler needs.
type Timer interface {
	Stop() bool
}

// AfterFunc starts a timer that calls f after d.
type AfterFunc func(d time.Duration, f func()) Timer

func stdAfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithDelay sets the debounce quiet period.
func WithDelay(d time.Duration) Option {
	return func(s *Scheduler) {
		if d >= 0 {
			s.delay = d
		}
	}
}

// WithAfterFunc swaps the timer source, mainly for deterministic tests.
func WithAfterFunc(fn AfterFunc) Option {
	return func(s *Scheduler) {
		if fn != nil {
			s.afterFunc = fn
		}
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Scheduler) {
		if logger != nil {
			s.logger = logger
		}
	}
}

type entry struct {
	seq   uint64
	timer Timer
	state State
}

// Scheduler debounces work per id. The zero value is not usable; call New.
type Scheduler struct {
	delay     time.Duration
	afterFunc AfterFunc
	logger    *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
	latest  map[string]uint64
	next    uint64
	active  int
	idle    chan struct{}
	stopped bool
}

// New builds a Scheduler.
func New(options ...Option) *Scheduler {
	s := &Scheduler{
		delay:     DefaultDelay,
		afterFunc: stdAfterFunc,
		logger:    zap.NewNop(),
		entries:   make(map[string]*entry),
		latest:    make(map[string]uint64),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Delay reports the configured quiet period.
func (s *Scheduler) Delay() time.Duration {
	return s.delay
}

// Arm (re)starts the quiet period for id and returns the sequence number of
// the new arm. A pending timer for id is stopped first. Arm returns 0 once
// the scheduler has been stopped.
func (s *Scheduler) Arm(id string, task Task) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped || task == nil {
		return 0
	}

	if prev, ok := s.entries[id]; ok && prev.state == StatePending {
		s.stopTimerLocked(prev)
	}

	s.next++
	seq := s.next
	s.latest[id] = seq

	e := &entry{seq: seq, state: StatePending}
	s.entries[id] = e
	s.acquireLocked()
	e.timer = s.afterFunc(s.delay, func() { s.fire(id, seq, task) })

	s.logger.Debug("autosave armed",
		zap.String("question_id", id),
		zap.Uint64("seq", seq),
		zap.Duration("delay", s.delay))
	return seq
}

// Cancel drops the pending timer for id, if any, and invalidates any work
// already in flight for it.
func (s *Scheduler) Cancel(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next++
	s.latest[id] = s.next

	e, ok := s.entries[id]
	if !ok {
		return
	}
	if e.state == StatePending {
		s.stopTimerLocked(e)
	}
	delete(s.entries, id)
	s.logger.Debug("autosave cancelled", zap.String("question_id", id))
}

// IsCurrent reports whether seq is still the latest arm for id.
func (s *Scheduler) IsCurrent(id string, seq uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return !s.stopped && seq != 0 && s.latest[id] == seq
}

// State reports the scheduler state for id.
func (s *Scheduler) State(id string) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok := s.entries[id]; ok {
		return e.state
	}
	return StateIdle
}

// Len reports how many ids are pending or in flight.
func (s *Scheduler) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Stop cancels every pending timer, invalidates in-flight work and rejects
// further arms. It is safe to call more than once.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.stopped {
		return
	}
	s.stopped = true
	for id, e := range s.entries {
		if e.state == StatePending {
			s.stopTimerLocked(e)
		}
		delete(s.entries, id)
	}
}

// WaitIdle blocks until no timer is pending and no task is running, or ctx
// is done.
func (s *Scheduler) WaitIdle(ctx context.Context) error {
	s.mu.Lock()
	if s.active == 0 {
		s.mu.Unlock()
		return nil
	}
	idle := s.idle
	s.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Scheduler) fire(id string, seq uint64, task Task) {
	s.mu.Lock()
	e, ok := s.entries[id]
	if !ok || e.seq != seq || s.stopped {
		// Superseded after the timer had already fired.
		s.releaseLocked()
		s.mu.Unlock()
		return
	}
	e.state = StateInFlight
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		if cur, ok := s.entries[id]; ok && cur.seq == seq {
			delete(s.entries, id)
		}
		s.releaseLocked()
		s.mu.Unlock()
	}()

	task(seq)
}

// stopTimerLocked stops a pending timer. When Stop reports the timer already
// fired, fire observes the stale sequence and releases the slot itself.
func (s *Scheduler) stopTimerLocked(e *entry) {
	if e.timer != nil && e.timer.Stop() {
		s.releaseLocked()
	}
}

func (s *Scheduler) acquireLocked() {
	if s.active == 0 {
		s.idle = make(chan struct{})
	}
	s.active++
}

func (s *Scheduler) releaseLocked() {
	s.active--
	if s.active == 0 {
		close(s.idle)
	}
}
