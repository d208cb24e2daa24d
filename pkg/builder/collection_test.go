package builder_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/goliatone/go-formbuilder/pkg/autosave"
	"github.com/goliatone/go-formbuilder/pkg/builder"
	"github.com/goliatone/go-formbuilder/pkg/notify"
	"github.com/goliatone/go-formbuilder/pkg/question"
	"github.com/goliatone/go-formbuilder/pkg/saver"
	"github.com/goliatone/go-formbuilder/pkg/store"
	"github.com/goliatone/go-formbuilder/pkg/testsupport"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const quiet = 2 * time.Second

type fixture struct {
	c     *builder.Collection
	clock *testsupport.FakeClock
	saver *testsupport.RecordingSaver
	store *store.Store
}

func newFixture(t *testing.T, results ...testsupport.SaveResult) fixture {
	t.Helper()
	clock := testsupport.NewFakeClock()
	rec := testsupport.NewRecordingSaver(results...)
	st := store.New(store.NewMemory())
	c := builder.New(
		builder.WithSaver(rec),
		builder.WithStore(st),
		builder.WithIDGenerator(&sequentialIDs{}),
		builder.WithDebounce(quiet),
		builder.WithSchedulerOptions(autosave.WithAfterFunc(clock.AfterFunc)),
	)
	t.Cleanup(func() { _ = c.Close() })
	return fixture{c: c, clock: clock, saver: rec, store: st}
}

type sequentialIDs struct{ n int }

func (g *sequentialIDs) NewID() string {
	g.n++
	return string(rune('0' + g.n))
}

func mustAdd(t *testing.T, c *builder.Collection) question.Question {
	t.Helper()
	q, err := c.Add(context.Background())
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return q
}

func mustGet(t *testing.T, c *builder.Collection, id string) question.Question {
	t.Helper()
	q, ok := c.Get(id)
	if !ok {
		t.Fatalf("question %s missing", id)
	}
	return q
}

func titles(ns []notify.Notification) []string {
	out := make([]string, 0, len(ns))
	for _, n := range ns {
		out = append(out, n.Title)
	}
	return out
}

func TestCollection_AddUsesDefaultsAndPersists(t *testing.T) {
	f := newFixture(t)
	q := mustAdd(t, f.c)

	want := question.New("1")
	if diff := cmp.Diff(want, q); diff != "" {
		t.Fatalf("added question mismatch (-want +got):\n%s", diff)
	}

	stored, err := f.store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]question.Question{want}, stored); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_EditIsSavedAfterQuietPeriod(t *testing.T) {
	f := newFixture(t, testsupport.SaveResult{LastUpdated: "2024-05-01T10:00:00Z"})
	q := mustAdd(t, f.c)

	f.c.Update(context.Background(), q.ID, question.Patch{
		Label: question.String("Age"),
		Type:  question.Kind(question.TypeNumber),
		Min:   question.Float(0),
		Max:   question.Float(120),
	})

	if got := mustGet(t, f.c, q.ID).SaveStatus; got != question.StatusInitial {
		t.Fatalf("status before quiet period = %s, want initial", got)
	}
	f.clock.Advance(quiet)

	got := mustGet(t, f.c, q.ID)
	if got.SaveStatus != question.StatusSaved {
		t.Fatalf("status = %s, want saved", got.SaveStatus)
	}
	if got.LastUpdated != "2024-05-01T10:00:00Z" {
		t.Fatalf("lastUpdated = %q", got.LastUpdated)
	}
	if got.Error != "" {
		t.Fatalf("unexpected error %q", got.Error)
	}

	stored, err := f.store.Read(context.Background())
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if diff := cmp.Diff([]question.Question{got}, stored); diff != "" {
		t.Fatalf("snapshot mismatch (-want +got):\n%s", diff)
	}

	if diff := cmp.Diff([]string{`Question "Age" saved.`}, titles(f.c.Notifications())); diff != "" {
		t.Fatalf("toasts mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_BlankLabelIsNotSaved(t *testing.T) {
	f := newFixture(t)
	q := mustAdd(t, f.c)

	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("   "), Required: question.Bool(true)})
	f.clock.Advance(quiet)

	if calls := f.saver.Calls(); len(calls) != 0 {
		t.Fatalf("expected no save calls, got %d", len(calls))
	}
	if got := mustGet(t, f.c, q.ID).SaveStatus; got != question.StatusInitial {
		t.Fatalf("status = %s, want initial", got)
	}
	toasts := f.c.Notifications()
	if len(toasts) != 1 || toasts[0].Kind != notify.KindInvalid {
		t.Fatalf("expected one invalid toast, got %+v", toasts)
	}
	if toasts[0].Title != "Invalid question, cannot save." {
		t.Fatalf("title = %q", toasts[0].Title)
	}
}

func TestCollection_DebounceCoalescesEdits(t *testing.T) {
	f := newFixture(t)
	q := mustAdd(t, f.c)
	ctx := context.Background()

	for _, label := range []string{"A", "Ag", "Age"} {
		f.c.Update(ctx, q.ID, question.Patch{Label: question.String(label)})
		f.clock.Advance(time.Second)
	}
	f.clock.Advance(time.Second)

	calls := f.saver.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one save, got %d", len(calls))
	}
	if calls[0].Label != "Age" {
		t.Fatalf("saved label = %q, want Age", calls[0].Label)
	}
	if calls[0].SaveStatus != question.StatusSaving {
		t.Fatalf("saver saw status %s, want saving", calls[0].SaveStatus)
	}
}

func TestCollection_IdsSaveIndependently(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	a := mustAdd(t, f.c)
	b := mustAdd(t, f.c)

	f.c.Update(ctx, a.ID, question.Patch{Label: question.String("Name")})
	f.clock.Advance(time.Second)
	f.c.Update(ctx, b.ID, question.Patch{Label: question.String("Colour")})
	f.clock.Advance(time.Second)

	if got := mustGet(t, f.c, a.ID).SaveStatus; got != question.StatusSaved {
		t.Fatalf("a status = %s, want saved", got)
	}
	if got := mustGet(t, f.c, b.ID).SaveStatus; got != question.StatusInitial {
		t.Fatalf("b status = %s, want initial", got)
	}
	f.clock.Advance(time.Second)
	if got := mustGet(t, f.c, b.ID).SaveStatus; got != question.StatusSaved {
		t.Fatalf("b status = %s, want saved", got)
	}
}

func TestCollection_DeleteCancelsPendingSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	q := mustAdd(t, f.c)

	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("Age")})
	ok, err := f.c.Delete(ctx, q.ID)
	if err != nil || !ok {
		t.Fatalf("delete = %v, %v", ok, err)
	}
	if n := f.clock.Pending(); n != 0 {
		t.Fatalf("expected no pending timers, got %d", n)
	}
	f.clock.Advance(quiet)

	if calls := f.saver.Calls(); len(calls) != 0 {
		t.Fatalf("expected no save calls, got %d", len(calls))
	}
	stored, err := f.store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("snapshot should be empty, got %+v", stored)
	}
}

func TestCollection_DeleteDiscardsInFlightResult(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, testsupport.SaveResult{LastUpdated: "late", Gate: gate})
	ctx := context.Background()
	q := mustAdd(t, f.c)
	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("Age")})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(quiet)
	}()
	<-f.saver.Started()

	if got := f.c.SaveState(q.ID); got != autosave.StateInFlight {
		t.Fatalf("scheduler state = %s, want in-flight", got)
	}
	if _, err := f.c.Delete(ctx, q.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	close(gate)
	<-done

	if _, ok := f.c.Get(q.ID); ok {
		t.Fatal("deleted question came back")
	}
	stored, err := f.store.Read(ctx)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if len(stored) != 0 {
		t.Fatalf("snapshot should be empty, got %+v", stored)
	}
	for _, n := range f.c.Notifications() {
		if n.Kind == notify.KindSuccess {
			t.Fatalf("unexpected success toast %q", n.Title)
		}
	}
}

func TestCollection_FailureMarksError(t *testing.T) {
	failure := &saver.Error{Status: 403, Code: saver.CodeForbidden, Message: "Permission denied"}
	f := newFixture(t, testsupport.SaveResult{Err: failure})
	q := mustAdd(t, f.c)

	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("Age")})
	f.clock.Advance(quiet)

	got := mustGet(t, f.c, q.ID)
	if got.SaveStatus != question.StatusError || got.Error != "Permission denied" {
		t.Fatalf("got status %s error %q", got.SaveStatus, got.Error)
	}
	toasts := f.c.Notifications()
	if len(toasts) != 1 {
		t.Fatalf("expected one toast, got %d", len(toasts))
	}
	if toasts[0].Title != "Auto-save failed." || toasts[0].Description != "Permission denied" {
		t.Fatalf("toast = %+v", toasts[0])
	}
	if calls := f.saver.Calls(); len(calls) != 1 {
		t.Fatalf("failure must not retry, got %d calls", len(calls))
	}
}

func TestCollection_PlainErrorMessageIsKept(t *testing.T) {
	f := newFixture(t, testsupport.SaveResult{Err: errors.New("connection reset")})
	q := mustAdd(t, f.c)

	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("Age")})
	f.clock.Advance(quiet)

	if got := mustGet(t, f.c, q.ID).Error; got != "connection reset" {
		t.Fatalf("error = %q", got)
	}
}

func TestCollection_StaleResultIsDiscarded(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t,
		testsupport.SaveResult{LastUpdated: "first", Gate: gate},
		testsupport.SaveResult{LastUpdated: "second"},
	)
	ctx := context.Background()
	q := mustAdd(t, f.c)
	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("A")})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(quiet)
	}()
	<-f.saver.Started()

	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("B")})
	close(gate)
	<-done

	mid := mustGet(t, f.c, q.ID)
	if mid.SaveStatus != question.StatusSaving || mid.LastUpdated != "" {
		t.Fatalf("stale result applied: %+v", mid)
	}

	f.clock.Advance(quiet)
	got := mustGet(t, f.c, q.ID)
	if got.SaveStatus != question.StatusSaved || got.LastUpdated != "second" || got.Label != "B" {
		t.Fatalf("got %+v", got)
	}
	if diff := cmp.Diff([]string{`Question "B" saved.`}, titles(f.c.Notifications())); diff != "" {
		t.Fatalf("toasts mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_BlankingDuringSaveDoesNotStickAtSaving(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, testsupport.SaveResult{LastUpdated: "first", Gate: gate})
	ctx := context.Background()
	q := mustAdd(t, f.c)
	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("A")})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(quiet)
	}()
	<-f.saver.Started()

	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("")})
	close(gate)
	<-done
	f.clock.Advance(quiet)

	got := mustGet(t, f.c, q.ID)
	if got.SaveStatus != question.StatusInitial {
		t.Fatalf("status = %s, want initial", got.SaveStatus)
	}
	if state := f.c.SaveState(q.ID); state != autosave.StateIdle {
		t.Fatalf("scheduler state = %s, want idle", state)
	}
	if calls := f.saver.Calls(); len(calls) != 1 {
		t.Fatalf("saver calls = %d, want 1", len(calls))
	}
	if diff := cmp.Diff([]string{"Invalid question, cannot save."}, titles(f.c.Notifications())); diff != "" {
		t.Fatalf("toasts mismatch (-want +got):\n%s", diff)
	}
}

func TestCollection_BlankFireBeforeStaleResultReturns(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t,
		testsupport.SaveResult{Err: &saver.Error{Status: 500, Code: saver.CodeServerError, Message: "Internal server error"}},
		testsupport.SaveResult{LastUpdated: "late", Gate: gate},
	)
	ctx := context.Background()
	q := mustAdd(t, f.c)
	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("A")})
	f.clock.Advance(quiet)
	if got := mustGet(t, f.c, q.ID).SaveStatus; got != question.StatusError {
		t.Fatalf("status = %s, want error", got)
	}

	f.c.Update(ctx, q.ID, question.Patch{Label: question.String("B")})
	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(quiet)
	}()
	<-f.saver.Started()
	<-f.saver.Started()

	f.c.Update(ctx, q.ID, question.Patch{Label: question.String(" ")})
	f.clock.Advance(quiet)
	if got := mustGet(t, f.c, q.ID).SaveStatus; got != question.StatusSaving {
		t.Fatalf("status while older save runs = %s, want saving", got)
	}

	close(gate)
	<-done

	got := mustGet(t, f.c, q.ID)
	if got.SaveStatus != question.StatusError || got.Error != "Internal server error" {
		t.Fatalf("got status %s error %q, want the earlier failure back", got.SaveStatus, got.Error)
	}
}

func TestCollection_CloseDuringSaveRestoresStatus(t *testing.T) {
	gate := make(chan struct{})
	f := newFixture(t, testsupport.SaveResult{Gate: gate})
	q := mustAdd(t, f.c)
	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("A")})

	done := make(chan struct{})
	go func() {
		defer close(done)
		f.clock.Advance(quiet)
	}()
	<-f.saver.Started()

	if err := f.c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	<-done

	if got := mustGet(t, f.c, q.ID).SaveStatus; got != question.StatusInitial {
		t.Fatalf("status = %s, want initial", got)
	}
}

func TestCollection_UpdateUnknownIsNoop(t *testing.T) {
	f := newFixture(t)
	if _, ok := f.c.Update(context.Background(), "missing", question.Patch{Label: question.String("x")}); ok {
		t.Fatal("update of unknown id reported success")
	}
	if ok, err := f.c.Delete(context.Background(), "missing"); ok || err != nil {
		t.Fatalf("delete unknown = %v, %v", ok, err)
	}
	if n := f.clock.Pending(); n != 0 {
		t.Fatalf("pending timers = %d", n)
	}
}

func TestCollection_LoadResetsInterruptedSaves(t *testing.T) {
	ctx := context.Background()
	st := store.New(store.NewMemory())
	interrupted := testsupport.Question("7", "Age", question.TypeNumber)
	interrupted.SaveStatus = question.StatusSaving
	saved := testsupport.Question("8", "Name", question.TypeText)
	saved.SaveStatus = question.StatusSaved
	if err := st.Write(ctx, []question.Question{interrupted, saved}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	c := builder.New(builder.WithStore(st), builder.WithSaver(testsupport.NewRecordingSaver()))
	defer c.Close()
	if err := c.Load(ctx); err != nil {
		t.Fatalf("load: %v", err)
	}

	got := c.Questions()
	if len(got) != 2 {
		t.Fatalf("loaded %d questions", len(got))
	}
	if got[0].SaveStatus != question.StatusInitial || got[1].SaveStatus != question.StatusSaved {
		t.Fatalf("statuses = %s, %s", got[0].SaveStatus, got[1].SaveStatus)
	}
}

func TestCollection_SubscribeSeesChanges(t *testing.T) {
	f := newFixture(t)
	events, stop := f.c.Subscribe()
	defer stop()

	q := mustAdd(t, f.c)
	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("Age")})

	want := []notify.EventType{notify.EventAdded, notify.EventUpdated}
	for _, typ := range want {
		select {
		case ev := <-events:
			if ev.Type != typ || ev.QuestionID != q.ID {
				t.Fatalf("event = %s/%s, want %s/%s", ev.Type, ev.QuestionID, typ, q.ID)
			}
		case <-time.After(time.Second):
			t.Fatalf("no %s event", typ)
		}
	}
}

func TestCollection_CloseStopsEverything(t *testing.T) {
	f := newFixture(t)
	q := mustAdd(t, f.c)
	f.c.Update(context.Background(), q.ID, question.Patch{Label: question.String("Age")})

	if err := f.c.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if err := f.c.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
	f.clock.Advance(quiet)
	if calls := f.saver.Calls(); len(calls) != 0 {
		t.Fatalf("save ran after close: %d calls", len(calls))
	}
	if _, err := f.c.Add(context.Background()); !errors.Is(err, builder.ErrClosed) {
		t.Fatalf("add after close err = %v", err)
	}
}

func TestClockIDs_AreUniqueWithinOneMillisecond(t *testing.T) {
	fixed := time.UnixMilli(1_700_000_000_000)
	ids := builder.NewClockIDs(func() time.Time { return fixed })

	got := []string{ids.NewID(), ids.NewID(), ids.NewID()}
	want := []string{"1700000000000", "1700000000001", "1700000000002"}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
}
