package notify_test

import (
	"testing"
	"time"

	"github.com/goliatone/go-formbuilder/pkg/notify"
)

func TestHub_PublishAndUnsubscribe(t *testing.T) {
	hub := notify.NewHub()
	events, unsubscribe := hub.Subscribe()

	hub.Publish(notify.Event{Type: notify.EventAdded, QuestionID: "1"})

	select {
	case ev := <-events:
		if ev.Type != notify.EventAdded || ev.QuestionID != "1" || ev.At.IsZero() {
			t.Fatalf("unexpected event %+v", ev)
		}
	default:
		t.Fatalf("expected buffered event")
	}

	unsubscribe()
	unsubscribe()
	if _, ok := <-events; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	hub.Publish(notify.Event{Type: notify.EventDeleted})
}

func TestHub_FullSubscriberDoesNotBlock(t *testing.T) {
	hub := notify.NewHub(notify.WithBuffer(1))
	_, unsubscribe := hub.Subscribe()
	defer unsubscribe()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 10; i++ {
			hub.Publish(notify.Event{Type: notify.EventUpdated})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("publish blocked on a full subscriber")
	}
}

func TestHub_ActiveExpiresToasts(t *testing.T) {
	now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	hub := notify.NewHub(notify.WithNow(func() time.Time { return now }))

	hub.Notify(notify.Saved("1", "Age"))
	hub.Notify(notify.Failed("2", "Permission denied"))
	active := hub.Active()
	if len(active) != 2 {
		t.Fatalf("active = %d, want 2", len(active))
	}
	for _, n := range active {
		if !n.CreatedAt.Equal(now) {
			t.Fatalf("createdAt = %s, want the hub clock %s", n.CreatedAt, now)
		}
	}

	now = now.Add(notify.SuccessDuration - time.Millisecond)
	if got := len(hub.Active()); got != 2 {
		t.Fatalf("active just before 2s = %d, want 2", got)
	}
	now = now.Add(time.Millisecond)

	active = hub.Active()
	if len(active) != 1 || active[0].Kind != notify.KindFailure {
		t.Fatalf("success toast should dismiss after 2s, got %+v", active)
	}

	now = now.Add(notify.FailureDuration)
	if got := len(hub.Active()); got != 0 {
		t.Fatalf("all toasts should be dismissed, got %d", got)
	}
}

func TestNotifications_Text(t *testing.T) {
	if got := notify.Saved("1", "Age").Title; got != `Question "Age" saved.` {
		t.Fatalf("saved title = %q", got)
	}
	invalid := notify.Invalid("1")
	if invalid.Title != "Invalid question, cannot save." || invalid.Duration != 3*time.Second {
		t.Fatalf("invalid toast = %+v", invalid)
	}
	failed := notify.Failed("1", "Internal server error")
	if failed.Title != "Auto-save failed." || failed.Description != "Internal server error" || failed.Status != notify.StatusError {
		t.Fatalf("failed toast = %+v", failed)
	}
	if invalid.ID == "" || invalid.ID == failed.ID {
		t.Fatalf("toast ids should be unique")
	}
}

func TestHub_CloseDisconnects(t *testing.T) {
	hub := notify.NewHub()
	events, _ := hub.Subscribe()
	hub.Close()
	if _, ok := <-events; ok {
		t.Fatalf("expected closed channel")
	}
	late, _ := hub.Subscribe()
	if _, ok := <-late; ok {
		t.Fatalf("subscribe after close should yield a closed channel")
	}
}
