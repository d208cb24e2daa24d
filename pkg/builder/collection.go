// Package builder owns the ordered question list being edited. Every edit is
// applied in memory straight away and queued for a debounced auto-save; the
// save result is reconciled back into the list only when it still belongs to
// the latest edit of a question that still exists.
package builder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/goliatone/go-formbuilder/pkg/autosave"
	"github.com/goliatone/go-formbuilder/pkg/notify"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/saver"
	"github.com/goliatone/go-formbuilder/pkg/store"
)

// ErrClosed is returned by mutating calls made after Close.
var ErrClosed = errors.New("builder: collection closed")

// Collection is safe for concurrent use.
type Collection struct {
	saver         saver.Saver
	store         Snapshots
	hub           *notify.Hub
	ownsHub       bool
	ids           IDGenerator
	logger        *zap.Logger
	recorder      Recorder
	schedulerOpts []autosave.Option

	sched  *autosave.Scheduler
	ctx    context.Context
	cancel context.CancelFunc

	mu        sync.Mutex
	questions []question.Question
	closed    bool
	// saving remembers, per id, the status a question had before a save
	// marked it saving, until a save result settles it.
	saving map[string]pendingSave

	// persistMu serialises commits so the stored snapshot never goes back in
	// time.
	persistMu sync.Mutex
}

type pendingSave struct {
	seq     uint64
	running bool
	status  question.SaveStatus
	err     string
}

// New builds an empty collection.
func New(options ...Option) *Collection {
	c := &Collection{
		hub:      notify.NewHub(),
		ownsHub:  true,
		ids:      NewClockIDs(nil),
		logger:   zap.NewNop(),
		recorder: nopRecorder{},
		saving:   make(map[string]pendingSave),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	if c.saver == nil {
		c.saver = saver.NewSimulator()
	}
	if c.store == nil {
		c.store = store.New(store.NewMemory())
	}

	schedOpts := append([]autosave.Option{autosave.WithLogger(c.logger)}, c.schedulerOpts...)
	c.sched = autosave.New(schedOpts...)
	c.ctx, c.cancel = context.WithCancel(context.Background())
	return c
}

// Load replaces the list with the persisted snapshot. Questions stored while
// a save was running come back as initial, since that save never finished.
func (c *Collection) Load(ctx context.Context) error {
	loaded, err := c.store.Read(ctx)
	if err != nil {
		return fmt.Errorf("builder: load snapshot: %w", err)
	}
	for i := range loaded {
		if loaded[i].SaveStatus == question.StatusSaving || loaded[i].SaveStatus == "" {
			loaded[i].SaveStatus = question.StatusInitial
		}
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return ErrClosed
	}
	previous := c.questions
	c.questions = loaded
	c.saving = make(map[string]pendingSave)
	c.mu.Unlock()

	for _, q := range previous {
		c.sched.Cancel(q.ID)
	}
	c.recorder.SetQuestions(len(loaded))
	c.logger.Info("snapshot loaded", zap.Int("questions", len(loaded)))
	return nil
}

// Add appends a question with default fields and persists the list. New
// questions are not validated.
func (c *Collection) Add(ctx context.Context) (question.Question, error) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return question.Question{}, ErrClosed
	}
	q := question.New(c.ids.NewID())
	c.questions = append(c.questions, q)
	n := len(c.questions)
	c.mu.Unlock()

	c.recorder.SetQuestions(n)
	c.publish(notify.EventAdded, q)
	c.logger.Debug("question added", zap.String("question_id", q.ID))

	if err := c.CommitSnapshot(ctx); err != nil {
		return q.Clone(), err
	}
	return q.Clone(), nil
}

// Update merges patch into the question and schedules an auto-save. It
// reports false when id is unknown. Nothing is persisted until the save
// succeeds.
func (c *Collection) Update(ctx context.Context, id string, patch question.Patch) (question.Question, bool) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return question.Question{}, false
	}
	if patch.Empty() {
		q := c.questions[i].Clone()
		c.mu.Unlock()
		return q, true
	}
	merged := patch.Apply(c.questions[i])
	c.questions[i] = merged
	closed := c.closed
	c.mu.Unlock()

	c.publish(notify.EventUpdated, merged)
	if !closed {
		c.scheduleSave(id)
	}
	return merged.Clone(), true
}

// Delete removes the question, drops its pending save and persists the list.
// A save already in flight is left to finish but its result is ignored.
func (c *Collection) Delete(ctx context.Context, id string) (bool, error) {
	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 {
		c.mu.Unlock()
		return false, nil
	}
	c.questions = append(c.questions[:i:i], c.questions[i+1:]...)
	delete(c.saving, id)
	n := len(c.questions)
	c.sched.Cancel(id)
	c.mu.Unlock()

	c.recorder.SetQuestions(n)
	c.hub.Publish(notify.Event{Type: notify.EventDeleted, QuestionID: id})
	c.logger.Debug("question deleted", zap.String("question_id", id))

	if err := c.CommitSnapshot(ctx); err != nil {
		return true, err
	}
	return true, nil
}

// CommitSnapshot writes the full ordered list to the store.
func (c *Collection) CommitSnapshot(ctx context.Context) error {
	c.persistMu.Lock()
	defer c.persistMu.Unlock()

	snapshot := c.Questions()
	if err := c.store.Write(ctx, snapshot); err != nil {
		c.logger.Error("snapshot commit failed", zap.Error(err))
		return fmt.Errorf("builder: commit snapshot: %w", err)
	}
	return nil
}

// Questions returns a copy of the list in display order.
func (c *Collection) Questions() []question.Question {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := question.CloneAll(c.questions)
	if out == nil {
		out = []question.Question{}
	}
	return out
}

// Get returns a copy of the question with id.
func (c *Collection) Get(id string) (question.Question, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.questions[i].Clone(), true
	}
	return question.Question{}, false
}

// Len reports how many questions the list holds.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.questions)
}

// SaveState reports whether an auto-save for id is pending or running.
func (c *Collection) SaveState(id string) autosave.State {
	return c.sched.State(id)
}

// Subscribe streams change events and toasts. Call the returned func to stop.
func (c *Collection) Subscribe() (<-chan notify.Event, func()) {
	return c.hub.Subscribe()
}

// Notifications returns toasts that have not yet auto-dismissed.
func (c *Collection) Notifications() []notify.Notification {
	return c.hub.Active()
}

// Delay reports the auto-save quiet period.
func (c *Collection) Delay() time.Duration {
	return c.sched.Delay()
}

// WaitIdle blocks until no auto-save is pending or running.
func (c *Collection) WaitIdle(ctx context.Context) error {
	return c.sched.WaitIdle(ctx)
}

// Close cancels pending auto-saves, aborts running ones and waits for them to
// return. It is safe to call more than once.
func (c *Collection) Close() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	c.mu.Unlock()

	c.sched.Stop()
	c.cancel()
	err := c.sched.WaitIdle(context.Background())
	if c.ownsHub {
		c.hub.Close()
	}
	return err
}

func (c *Collection) scheduleSave(id string) {
	c.sched.Arm(id, func(seq uint64) {
		c.runSave(id, seq)
	})
}

func (c *Collection) runSave(id string, seq uint64) {
	start := time.Now()

	c.mu.Lock()
	i := c.indexLocked(id)
	if i < 0 || !c.sched.IsCurrent(id, seq) {
		c.mu.Unlock()
		c.discard(id, seq, start, "superseded before save")
		return
	}
	if !c.questions[i].Valid() {
		var reverted *question.Question
		if p, ok := c.saving[id]; ok && !p.running {
			reverted = c.revertLocked(i, p)
		}
		c.mu.Unlock()
		if reverted != nil {
			c.publish(notify.EventStatus, *reverted)
		}
		c.recorder.ObserveSave(OutcomeInvalid, time.Since(start))
		c.hub.Notify(notify.Invalid(id))
		return
	}
	p, ok := c.saving[id]
	if !ok {
		p = pendingSave{status: c.questions[i].SaveStatus, err: c.questions[i].Error}
	}
	p.seq, p.running = seq, true
	c.saving[id] = p
	c.questions[i].SaveStatus = question.StatusSaving
	c.questions[i].Error = ""
	pending := c.questions[i].Clone()
	c.mu.Unlock()

	c.publish(notify.EventStatus, pending)

	saved, err := c.saver.Save(c.ctx, pending)

	c.mu.Lock()
	i = c.indexLocked(id)
	if i < 0 || !c.sched.IsCurrent(id, seq) {
		reverted := c.settleStaleLocked(id, i, seq)
		c.mu.Unlock()
		if reverted != nil {
			c.publish(notify.EventStatus, *reverted)
		}
		c.discard(id, seq, start, "result arrived for stale edit")
		return
	}
	delete(c.saving, id)
	if err != nil {
		message := failureMessage(err)
		c.questions[i].SaveStatus = question.StatusError
		c.questions[i].Error = message
		failed := c.questions[i].Clone()
		c.mu.Unlock()

		c.logger.Warn("auto-save failed",
			zap.String("question_id", id),
			zap.Uint64("seq", seq),
			zap.Error(err))
		c.recorder.ObserveSave(OutcomeFailed, time.Since(start))
		c.publish(notify.EventStatus, failed)
		c.hub.Notify(notify.Failed(id, message))
		return
	}

	c.questions[i].SaveStatus = question.StatusSaved
	c.questions[i].Error = ""
	if saved.LastUpdated != "" {
		c.questions[i].LastUpdated = saved.LastUpdated
	}
	done := c.questions[i].Clone()
	c.mu.Unlock()

	c.logger.Debug("auto-save succeeded",
		zap.String("question_id", id),
		zap.Uint64("seq", seq))
	c.recorder.ObserveSave(OutcomeSaved, time.Since(start))
	c.publish(notify.EventStatus, done)
	if err := c.CommitSnapshot(c.ctx); err != nil {
		c.logger.Warn("snapshot after save not written", zap.String("question_id", id), zap.Error(err))
	}
	c.hub.Notify(notify.Saved(id, done.Label))
}

// settleStaleLocked handles the end of a save whose result is no longer
// wanted. The question keeps showing saving only while a newer edit can still
// produce a save; otherwise it goes back to its status from before the save.
func (c *Collection) settleStaleLocked(id string, i int, seq uint64) *question.Question {
	p, ok := c.saving[id]
	if !ok || p.seq != seq {
		return nil
	}
	if i < 0 {
		delete(c.saving, id)
		return nil
	}
	p.running = false
	c.saving[id] = p
	if c.questions[i].SaveStatus != question.StatusSaving {
		return nil
	}
	if c.closed || !c.questions[i].Valid() {
		return c.revertLocked(i, p)
	}
	return nil
}

func (c *Collection) revertLocked(i int, p pendingSave) *question.Question {
	id := c.questions[i].ID
	delete(c.saving, id)
	if c.questions[i].SaveStatus != question.StatusSaving {
		return nil
	}
	c.questions[i].SaveStatus = p.status
	c.questions[i].Error = p.err
	reverted := c.questions[i].Clone()
	return &reverted
}

func (c *Collection) discard(id string, seq uint64, start time.Time, reason string) {
	c.recorder.ObserveSave(OutcomeDiscarded, time.Since(start))
	c.logger.Debug("auto-save discarded",
		zap.String("question_id", id),
		zap.Uint64("seq", seq),
		zap.String("reason", reason))
}

func (c *Collection) publish(t notify.EventType, q question.Question) {
	snapshot := q.Clone()
	c.hub.Publish(notify.Event{Type: t, QuestionID: q.ID, Question: &snapshot})
}

func (c *Collection) indexLocked(id string) int {
	for i := range c.questions {
		if c.questions[i].ID == id {
			return i
		}
	}
	return -1
}

func failureMessage(err error) string {
	if se, ok := saver.AsError(err); ok {
		return se.Message
	}
	return err.Error()
}
