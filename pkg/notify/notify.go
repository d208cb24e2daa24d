// Package notify carries the builder's user-facing feedback: transient
// toasts for save outcomes and the change events views subscribe to instead
// of polling the collection.
package notify

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/goliatone/go-formbuilder/pkg/question"
)

// Kind classifies a toast.
type Kind string

const (
	KindInvalid Kind = "invalid"
	KindSuccess Kind = "success"
	KindFailure Kind = "failure"
)

// Status is the visual severity of a toast.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

const (
	InvalidDuration = 3 * time.Second
	SuccessDuration = 2 * time.Second
	FailureDuration = 3 * time.Second
)

// Notification is a transient toast. It auto-dismisses Duration after
// CreatedAt, which Hub.Notify stamps from its clock when left zero.
type Notification struct {
	ID          string        `json:"id"`
	Kind        Kind          `json:"kind"`
	Status      Status        `json:"status"`
	Title       string        `json:"title"`
	Description string        `json:"description,omitempty"`
	QuestionID  string        `json:"questionId,omitempty"`
	Duration    time.Duration `json:"duration"`
	CreatedAt   time.Time     `json:"createdAt"`
}

// Expired reports whether the toast has auto-dismissed at now.
func (n Notification) Expired(now time.Time) bool {
	return !now.Before(n.CreatedAt.Add(n.Duration))
}

// Invalid reports a question that cannot be saved because its label is blank.
func Invalid(questionID string) Notification {
	return newNotification(KindInvalid, StatusError, "Invalid question, cannot save.", "", questionID, InvalidDuration)
}

// Saved reports a successful save, naming the question by label.
func Saved(questionID, label string) Notification {
	return newNotification(KindSuccess, StatusSuccess, fmt.Sprintf("Question \"%s\" saved.", label), "", questionID, SuccessDuration)
}

// Failed reports a failed save with the server message as description.
func Failed(questionID, message string) Notification {
	return newNotification(KindFailure, StatusError, "Auto-save failed.", message, questionID, FailureDuration)
}

func newNotification(kind Kind, status Status, title, description, questionID string, d time.Duration) Notification {
	return Notification{
		ID:          uuid.NewString(),
		Kind:        kind,
		Status:      status,
		Title:       title,
		Description: description,
		QuestionID:  questionID,
		Duration:    d,
	}
}

// EventType names a collection change.
type EventType string

const (
	EventAdded   EventType = "added"
	EventUpdated EventType = "updated"
	EventDeleted EventType = "deleted"
	EventStatus  EventType = "status"
	EventToast   EventType = "toast"
)

// Event is published on every collection change and every toast.
type Event struct {
	Type         EventType          `json:"type"`
	QuestionID   string             `json:"questionId,omitempty"`
	Question     *question.Question `json:"question,omitempty"`
	Notification *Notification      `json:"notification,omitempty"`
	At           time.Time          `json:"at"`
}

// Notifier receives toasts.
type Notifier interface {
	Notify(Notification)
}
