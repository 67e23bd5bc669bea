package download

import (
	"testing"

	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/eventbus"
	"github.com/ytget/dlcore/internal/model"
	"github.com/ytget/dlcore/internal/platform"
	"github.com/ytget/dlcore/internal/storage"
)

// idleManager builds a Manager without starting its supervisor loop, for
// tests that only exercise queue mutation bookkeeping.
func idleManager(t *testing.T) *Manager {
	t.Helper()
	reg := platform.NewRegistry()
	svc := storage.New(t.TempDir())
	bus := eventbus.New()
	return New(reg, svc, bus)
}

func assertKind(t *testing.T, err error, want errs.Kind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected an error of kind %s, got nil", want)
	}
	e, ok := errs.As(err)
	if !ok || e.Kind != want {
		t.Errorf("err = %v, want kind %s", err, want)
	}
}

func TestEnqueueRejectsDuplicateID(t *testing.T) {
	m := idleManager(t)
	item := model.DownloadItem{ID: "a", Platform: "stub", URL: "u1"}
	if err := m.Enqueue([]model.DownloadItem{item}); err != nil {
		t.Fatalf("first Enqueue: %v", err)
	}
	err := m.Enqueue([]model.DownloadItem{item})
	assertKind(t, err, errs.DuplicateID)

	if len(m.Snapshot()) != 1 {
		t.Errorf("rejected batch should not have mutated the queue")
	}
}

func TestEnqueueSetsInitialStatusQueued(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	if got := itemStatus(m, "a"); got != model.StatusQueued {
		t.Errorf("initial status = %v, want queued", got)
	}
}

func TestPauseUnknownIDReturnsUnknownID(t *testing.T) {
	m := idleManager(t)
	assertKind(t, m.Pause("missing"), errs.UnknownID)
}

func TestResumeOnNonPausedItemIsIllegalTransition(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	assertKind(t, m.Resume("a"), errs.IllegalTransition)
}

func TestCancelUnknownIDReturnsUnknownID(t *testing.T) {
	m := idleManager(t)
	assertKind(t, m.Cancel("missing"), errs.UnknownID)
}

func TestCancelCompletedItemIsIllegalTransition(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Status: model.StatusCompleted}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	assertKind(t, m.Cancel("a"), errs.IllegalTransition)
}

func TestReorderMovesItemAndIsReversible(t *testing.T) {
	m := idleManager(t)
	items := []model.DownloadItem{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	if err := m.Enqueue(items); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}

	if err := m.Reorder(0, 2); err != nil {
		t.Fatalf("Reorder: %v", err)
	}
	got := idsOf(m.Snapshot())
	want := []string{"b", "c", "a"}
	if !equalStrings(got, want) {
		t.Fatalf("after reorder(0,2) = %v, want %v", got, want)
	}

	if err := m.Reorder(2, 0); err != nil {
		t.Fatalf("Reorder back: %v", err)
	}
	got = idsOf(m.Snapshot())
	if !equalStrings(got, idsOf(items)) {
		t.Fatalf("reorder(2,0) did not restore original order: got %v", got)
	}
}

func TestReorderOutOfRangeIsRejected(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a"}, {ID: "b"}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	assertKind(t, m.Reorder(0, 5), errs.OutOfRange)
	assertKind(t, m.Reorder(-1, 1), errs.OutOfRange)
}

func TestSnapshotIsADeepCopy(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Progress: 10}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	snap := m.Snapshot()
	snap[0].Progress = 99

	if got := itemStatus(m, "a"); got != model.StatusQueued {
		t.Fatalf("mutating the snapshot must not affect the live queue status: %v", got)
	}
	for _, item := range m.Snapshot() {
		if item.ID == "a" && item.Progress == 99 {
			t.Error("mutating the returned snapshot leaked into the manager's own queue")
		}
	}
}

func idsOf(items []model.DownloadItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
