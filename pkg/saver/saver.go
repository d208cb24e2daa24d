// Package saver holds the save collaborator used by the auto-save pipeline.
// Simulator stands in for a remote endpoint: it delays every call and fails a
// configurable share of them with a typed *Error.
package saver

import (
	"context"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// Saver persists a single question and returns the server's view of it.
type Saver interface {
	Save(ctx context.Context, q question.Question) (question.Question, error)
}

// Func adapts a plain function to Saver.
type Func func(ctx context.Context, q question.Question) (question.Question, error)

// Save calls f.
func (f Func) Save(ctx context.Context, q question.Question) (question.Question, error) {
	return f(ctx, q)
}

const (
	DefaultMinDelay    = time.Second
	DefaultMaxDelay    = 3 * time.Second
	DefaultFailureRate = 0.2
)

// Option configures a Simulator.
type Option func(*Simulator)

// WithDelay bounds the uniformly distributed response delay.
func WithDelay(minDelay, maxDelay time.Duration) Option {
	return func(s *Simulator) {
		if minDelay < 0 {
			minDelay = 0
		}
		if maxDelay < minDelay {
			maxDelay = minDelay
		}
		s.minDelay = minDelay
		s.maxDelay = maxDelay
	}
}

// WithFailureRate sets the share of calls that fail, clamped to [0, 1].
func WithFailureRate(rate float64) Option {
	return func(s *Simulator) {
		switch {
		case rate < 0:
			rate = 0
		case rate > 1:
			rate = 1
		}
		s.failureRate = rate
	}
}

// WithRand injects the random source, for reproducible runs.
func WithRand(r *rand.Rand) Option {
	return func(s *Simulator) {
		if r != nil {
			s.rnd = r
		}
	}
}

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Simulator) {
		if now != nil {
			s.now = now
		}
	}
}

// Simulator is a Saver that behaves like a slow, flaky network endpoint.
type Simulator struct {
	minDelay    time.Duration
	maxDelay    time.Duration
	failureRate float64
	now         func() time.Time

	mu  sync.Mutex
	rnd *rand.Rand
}

var _ Saver = (*Simulator)(nil)

// NewSimulator builds a Simulator with a 1-3s delay and a 20% failure rate.
func NewSimulator(options ...Option) *Simulator {
	s := &Simulator{
		minDelay:    DefaultMinDelay,
		maxDelay:    DefaultMaxDelay,
		failureRate: DefaultFailureRate,
		now:         time.Now,
		rnd:         rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), 0x5eed)),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(s)
	}
	return s
}

// Save waits for the simulated round trip and then either echoes q with a
// server timestamp or fails with one of Failures. Context cancellation ends
// the wait early.
func (s *Simulator) Save(ctx context.Context, q question.Question) (question.Question, error) {
	delay, fail, failure := s.roll()

	if delay > 0 {
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-ctx.Done():
			return question.Question{}, ctx.Err()
		case <-timer.C:
		}
	} else if err := ctx.Err(); err != nil {
		return question.Question{}, err
	}

	now := s.now().UTC()
	if fail {
		failure.Timestamp = now
		return question.Question{}, &failure
	}

	out := q.Clone()
	out.LastUpdated = now.Format(time.RFC3339Nano)
	return out, nil
}

func (s *Simulator) roll() (time.Duration, bool, Error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delay := s.minDelay
	if spread := s.maxDelay - s.minDelay; spread > 0 {
		delay += time.Duration(s.rnd.Int64N(int64(spread) + 1))
	}
	fail := s.failureRate > 0 && s.rnd.Float64() < s.failureRate
	var failure Error
	if fail {
		failure = Failures[s.rnd.IntN(len(Failures))]
	}
	return delay, fail, failure
}
