package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"homeboard/internal/models"
)

type fakeStore struct {
	mu        sync.Mutex
	items     map[models.Kind][]*models.ReminderItem
	scanErr   map[models.Kind]error
	commitErr error
	commits   [][]models.ItemMutation
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:   make(map[models.Kind][]*models.ReminderItem),
		scanErr: make(map[models.Kind]error),
	}
}

func (f *fakeStore) ScanDue(ctx context.Context, kind models.Kind, now time.Time, limit int) ([]*models.ReminderItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.scanErr[kind]; err != nil {
		return nil, err
	}
	var due []*models.ReminderItem
	for _, item := range f.items[kind] {
		if item.Status == kind.PendingStatus() && item.NextTriggerAt != nil && !item.NextTriggerAt.After(now) {
			due = append(due, item)
			if len(due) == limit {
				break
			}
		}
	}
	return due, nil
}

func (f *fakeStore) CommitMutations(ctx context.Context, muts []models.ItemMutation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.commitErr != nil {
		return f.commitErr
	}
	f.commits = append(f.commits, muts)
	for _, mut := range muts {
		for _, kindItems := range f.items {
			for _, item := range kindItems {
				if item.ID == mut.ID {
					item.Status = mut.Status
					item.NextTriggerAt = mut.NextTriggerAt
				}
			}
		}
	}
	return nil
}

func (f *fakeStore) committed() []models.ItemMutation {
	f.mu.Lock()
	defer f.mu.Unlock()
	var all []models.ItemMutation
	for _, c := range f.commits {
		all = append(all, c...)
	}
	return all
}

type fakeNotifier struct {
	mu       sync.Mutex
	notified []string
	failFor  map[string]error
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{failFor: make(map[string]error)}
}

func (f *fakeNotifier) Notify(ctx context.Context, item *models.ReminderItem) (DeliveryOutcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.notified = append(f.notified, item.ID)
	if err := f.failFor[item.ID]; err != nil {
		return OutcomeFailed, err
	}
	return OutcomeDelivered, nil
}

func (f *fakeNotifier) count(id string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, got := range f.notified {
		if got == id {
			n++
		}
	}
	return n
}

func newTestScheduler(store *fakeStore, notifier *fakeNotifier, now time.Time) *Scheduler {
	s := New(store, notifier, "*/5 * * * *", 50, time.Minute, zerolog.Nop())
	s.now = func() time.Time { return now }
	return s
}

func eventItem(id string, anchor time.Time, freq models.Recurrence, lead models.LeadTime, trigger time.Time) *models.ReminderItem {
	return &models.ReminderItem{
		ID:            id,
		OwnerID:       "user-1",
		Kind:          models.KindEvent,
		Title:         "Event " + id,
		AnchorTime:    anchor,
		LeadTime:      lead,
		Recurrence:    freq,
		NextTriggerAt: &trigger,
		Status:        models.StatusActive,
	}
}

func todoItem(id string, due time.Time, trigger time.Time) *models.ReminderItem {
	return &models.ReminderItem{
		ID:            id,
		OwnerID:       "user-1",
		Kind:          models.KindTodo,
		Title:         "Todo " + id,
		AnchorTime:    due,
		LeadTime:      models.LeadNone,
		Recurrence:    models.RecurNone,
		NextTriggerAt: &trigger,
		Status:        models.StatusPending,
	}
}

func findMut(t *testing.T, muts []models.ItemMutation, id string) models.ItemMutation {
	t.Helper()
	for _, m := range muts {
		if m.ID == id {
			return m
		}
	}
	t.Fatalf("no mutation committed for %s", id)
	return models.ItemMutation{}
}

func TestOneShotEventFinalized(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	// Due right now: anchor 15 minutes out, 15 minute lead.
	store.items[models.KindEvent] = []*models.ReminderItem{
		eventItem("ev1", now.Add(15*time.Minute), models.RecurNone, models.Lead15Min, now),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	if got := notifier.count("ev1"); got != 1 {
		t.Fatalf("notified %d times, want 1", got)
	}
	mut := findMut(t, store.committed(), "ev1")
	if mut.Status != models.StatusSent || mut.NextTriggerAt != nil {
		t.Fatalf("mutation = %+v, want sent with nil trigger", mut)
	}
}

func TestDailyEventReArms(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	anchor := now.AddDate(0, 0, -1)
	store.items[models.KindEvent] = []*models.ReminderItem{
		eventItem("ev1", anchor, models.RecurDaily, models.LeadNone, anchor),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	mut := findMut(t, store.committed(), "ev1")
	if mut.Status != models.StatusActive {
		t.Fatalf("status = %s, want active", mut.Status)
	}
	if mut.NextTriggerAt == nil || !mut.NextTriggerAt.Equal(now) {
		t.Fatalf("next trigger = %v, want %v", mut.NextTriggerAt, now)
	}
}

func TestStaleRecurringEventRetired(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	// One period forward is still in the past, so the event retires.
	anchor := now.AddDate(0, 0, -10)
	store.items[models.KindEvent] = []*models.ReminderItem{
		eventItem("ev1", anchor, models.RecurDaily, models.LeadNone, anchor),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	mut := findMut(t, store.committed(), "ev1")
	if mut.Status != models.StatusCompleted || mut.NextTriggerAt != nil {
		t.Fatalf("mutation = %+v, want completed with nil trigger", mut)
	}
	if got := notifier.count("ev1"); got != 1 {
		t.Fatalf("notified %d times, want 1", got)
	}
}

func TestTodoNeverRecurs(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	// Even an erroneously stored recurrence must not re-arm a todo.
	todo := todoItem("td1", now, now)
	todo.Recurrence = models.RecurDaily
	store.items[models.KindTodo] = []*models.ReminderItem{todo}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	mut := findMut(t, store.committed(), "td1")
	if mut.Status != models.StatusSent || mut.NextTriggerAt != nil {
		t.Fatalf("mutation = %+v, want sent with nil trigger", mut)
	}
}

func TestDispatchFailureIsolatedPerItem(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()
	notifier.failFor["ev1"] = errors.New("transport exploded")

	store.items[models.KindEvent] = []*models.ReminderItem{
		eventItem("ev1", now, models.RecurNone, models.LeadNone, now),
		eventItem("ev2", now, models.RecurNone, models.LeadNone, now),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	// Both items transition: a failed send still counts as processed.
	muts := store.committed()
	if len(muts) != 2 {
		t.Fatalf("committed %d mutations, want 2", len(muts))
	}
	for _, id := range []string{"ev1", "ev2"} {
		mut := findMut(t, muts, id)
		if mut.Status != models.StatusSent {
			t.Fatalf("%s status = %s, want sent", id, mut.Status)
		}
	}
}

func TestScanFailureIsolatedPerKind(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()
	store.scanErr[models.KindEvent] = errors.New("collection unavailable")

	store.items[models.KindTodo] = []*models.ReminderItem{
		todoItem("td1", now, now),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	if got := notifier.count("td1"); got != 1 {
		t.Fatalf("todo notified %d times despite event scan failure, want 1", got)
	}
	mut := findMut(t, store.committed(), "td1")
	if mut.Status != models.StatusSent {
		t.Fatalf("status = %s, want sent", mut.Status)
	}
}

func TestCommitFailureLeavesItemsDue(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()
	store.commitErr = errors.New("batch write refused")

	item := todoItem("td1", now, now)
	store.items[models.KindTodo] = []*models.ReminderItem{item}

	sched := newTestScheduler(store, notifier, now)
	sched.RunOnce(context.Background())

	// Nothing committed, notification already out: documented at-least-once.
	if len(store.committed()) != 0 {
		t.Fatal("expected no committed mutations")
	}
	if item.Status != models.StatusPending {
		t.Fatalf("status = %s, want still pending", item.Status)
	}

	// Next sweep re-processes the same item once the store recovers.
	store.mu.Lock()
	store.commitErr = nil
	store.mu.Unlock()
	sched.RunOnce(context.Background())

	if got := notifier.count("td1"); got != 2 {
		t.Fatalf("notified %d times across two sweeps, want 2", got)
	}
	mut := findMut(t, store.committed(), "td1")
	if mut.Status != models.StatusSent {
		t.Fatalf("status = %s, want sent", mut.Status)
	}
}

func TestTerminalStateIdempotent(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	item := todoItem("td1", now, now)
	store.items[models.KindTodo] = []*models.ReminderItem{item}

	sched := newTestScheduler(store, notifier, now)
	sched.RunOnce(context.Background())
	sched.RunOnce(context.Background())

	// Second sweep must not pick the now-terminal item up again.
	if got := notifier.count("td1"); got != 1 {
		t.Fatalf("notified %d times, want 1", got)
	}
	if item.Status != models.StatusSent || item.NextTriggerAt != nil {
		t.Fatalf("item = %s/%v, want sent/nil", item.Status, item.NextTriggerAt)
	}
}

func TestNoDueItemsNoCommit(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	future := now.Add(time.Hour)
	store.items[models.KindEvent] = []*models.ReminderItem{
		eventItem("ev1", future, models.RecurNone, models.LeadNone, future),
	}

	newTestScheduler(store, notifier, now).RunOnce(context.Background())

	if len(notifier.notified) != 0 {
		t.Fatalf("notified %v, want none", notifier.notified)
	}
	if len(store.commits) != 0 {
		t.Fatal("expected no commit for an empty sweep")
	}
}

func TestScanLimitBoundsRun(t *testing.T) {
	t.Parallel()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	notifier := newFakeNotifier()

	for i := 0; i < 5; i++ {
		store.items[models.KindTodo] = append(store.items[models.KindTodo],
			todoItem(string(rune('a'+i)), now, now))
	}

	sched := New(store, notifier, "*/5 * * * *", 2, time.Minute, zerolog.Nop())
	sched.now = func() time.Time { return now }
	sched.RunOnce(context.Background())

	if len(notifier.notified) != 2 {
		t.Fatalf("processed %d items, want scan limit of 2", len(notifier.notified))
	}

	// The remainder is still due and picked up by the following sweeps.
	sched.RunOnce(context.Background())
	sched.RunOnce(context.Background())
	if len(notifier.notified) != 5 {
		t.Fatalf("processed %d items across sweeps, want 5", len(notifier.notified))
	}
}
