package builder

import (
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/pkg/autosave"
	"github.com/goliatone/go-formbuilder/pkg/notify"
	"github.com/goliatone/go-formbuilder/pkg/saver"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// Option customises a Collection.
type Option func(*Collection)

// WithSaver sets the save collaborator. Defaults to saver.NewSimulator().
func WithSaver(s saver.Saver) Option {
	return func(c *Collection) {
		if s != nil {
			c.saver = s
		}
	}
}

// Snapshots is the persistence the collection commits to and loads from.
type Snapshots interface {
	store.Reader
	store.Writer
}

// WithStore sets where snapshots are committed. Defaults to an in-memory
// slot.
func WithStore(s Snapshots) Option {
	return func(c *Collection) {
		if s != nil {
			c.store = s
		}
	}
}

// WithHub sets the notification hub views subscribe to.
func WithHub(h *notify.Hub) Option {
	return func(c *Collection) {
		if h != nil {
			c.hub = h
			c.ownsHub = false
		}
	}
}

// WithIDGenerator overrides question id assignment.
func WithIDGenerator(g IDGenerator) Option {
	return func(c *Collection) {
		if g != nil {
			c.ids = g
		}
	}
}

// WithDebounce sets the auto-save quiet period.
func WithDebounce(d time.Duration) Option {
	return func(c *Collection) {
		c.schedulerOpts = append(c.schedulerOpts, autosave.WithDelay(d))
	}
}

// WithSchedulerOptions forwards options to the owned autosave.Scheduler.
func WithSchedulerOptions(options ...autosave.Option) Option {
	return func(c *Collection) {
		c.schedulerOpts = append(c.schedulerOpts, options...)
	}
}

// WithLogger attaches a logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Collection) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// WithRecorder attaches a metrics recorder.
func WithRecorder(r Recorder) Option {
	return func(c *Collection) {
		if r != nil {
			c.recorder = r
		}
	}
}

// Outcome labels how an auto-save attempt ended.
type Outcome string

const (
	OutcomeSaved     Outcome = "saved"
	OutcomeFailed    Outcome = "failed"
	OutcomeInvalid   Outcome = "invalid"
	OutcomeDiscarded Outcome = "discarded"
)

// Recorder observes the auto-save pipeline.
type Recorder interface {
	ObserveSave(outcome Outcome, elapsed time.Duration)
	SetQuestions(n int)
}

type nopRecorder struct{}

func (nopRecorder) ObserveSave(Outcome, time.Duration) {}

func (nopRecorder) SetQuestions(int) {}
