package testsupport

import (
	"context"
	"sync"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// SaveResult scripts the outcome of one RecordingSaver call.
type SaveResult struct {
	LastUpdated string
	Err         error
	// Gate, when set, blocks the call until it is closed.
	Gate chan struct{}
}

// RecordingSaver records every question it is asked to save and replays
// scripted results in order. Once the script runs out every call succeeds.
type RecordingSaver struct {
	mu      sync.Mutex
	calls   []question.Question
	script  []SaveResult
	started chan question.Question
}

// NewRecordingSaver returns a saver replaying results in order.
func NewRecordingSaver(results ...SaveResult) *RecordingSaver {
	return &RecordingSaver{
		script:  results,
		started: make(chan question.Question, 64),
	}
}

// Save implements saver.Saver.
func (s *RecordingSaver) Save(ctx context.Context, q question.Question) (question.Question, error) {
	s.mu.Lock()
	s.calls = append(s.calls, q.Clone())
	var result SaveResult
	if len(s.script) > 0 {
		result = s.script[0]
		s.script = s.script[1:]
	}
	s.mu.Unlock()

	select {
	case s.started <- q.Clone():
	default:
	}

	if result.Gate != nil {
		select {
		case <-result.Gate:
		case <-ctx.Done():
			return question.Question{}, ctx.Err()
		}
	}
	if result.Err != nil {
		return question.Question{}, result.Err
	}
	out := q.Clone()
	out.LastUpdated = result.LastUpdated
	return out, nil
}

// Calls returns copies of every question passed to Save.
func (s *RecordingSaver) Calls() []question.Question {
	s.mu.Lock()
	defer s.mu.Unlock()
	return question.CloneAll(s.calls)
}

// Started delivers each question as its save begins.
func (s *RecordingSaver) Started() <-chan question.Question {
	return s.started
}
