package download

import (
	"testing"

	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/model"
)

func TestMaybeRetryNonRetryableKindStaysFailed(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Status: model.StatusFailed}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	m.Configure(model.Settings{AutoRetryOnFailure: true, MaxRetryAttempts: 3})

	retried := m.maybeRetry("a", errs.New(errs.VideoUnavailable, "private video"))
	if retried {
		t.Error("VideoUnavailable must never be retried")
	}
}

func TestMaybeRetryDisabledNeverRequeues(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Status: model.StatusFailed}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	m.Configure(model.Settings{AutoRetryOnFailure: false, MaxRetryAttempts: 3})

	retried := m.maybeRetry("a", errs.New(errs.NetworkError, "connection reset"))
	if retried {
		t.Error("auto-retry disabled must never requeue")
	}
}

func TestMaybeRetryRequeuesUntilAttemptsExhausted(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Status: model.StatusFailed}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	m.Configure(model.Settings{AutoRetryOnFailure: true, MaxRetryAttempts: 2})

	cause := errs.New(errs.NetworkError, "connection reset")
	if !m.maybeRetry("a", cause) {
		t.Fatal("attempt 1 should be retried")
	}
	if got := itemStatus(m, "a"); got != model.StatusQueued {
		t.Fatalf("status after retry = %v, want queued", got)
	}

	// maybeRetry re-queues; simulate the item failing again from queued.
	m.setStatus("a", model.StatusFailed, cause.Error())
	if !m.maybeRetry("a", cause) {
		t.Fatal("attempt 2 should still be retried (within MaxRetryAttempts)")
	}

	m.setStatus("a", model.StatusFailed, cause.Error())
	if m.maybeRetry("a", cause) {
		t.Fatal("attempt 3 exceeds MaxRetryAttempts and must stay failed")
	}
}

func TestDownloadFailedRetryableOnlyWithTransientSubstring(t *testing.T) {
	m := idleManager(t)
	if err := m.Enqueue([]model.DownloadItem{{ID: "a", Status: model.StatusFailed}}); err != nil {
		t.Fatalf("Enqueue: %v", err)
	}
	m.Configure(model.Settings{AutoRetryOnFailure: true, MaxRetryAttempts: 3})

	terminal := errs.New(errs.DownloadFailed, "unsupported format requested")
	if m.maybeRetry("a", terminal) {
		t.Error("a DownloadFailed without a transient marker must not retry")
	}

	m.setStatus("a", model.StatusFailed, "")
	transient := errs.New(errs.DownloadFailed, "connection timed out").WithRetryable(true)
	if !m.maybeRetry("a", transient) {
		t.Error("a DownloadFailed with a transient marker (WithRetryable(true)) must retry")
	}
}
