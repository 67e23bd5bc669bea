package download

import (
	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/model"
)

// maybeRetry implements §4.7.5: if auto-retry is enabled and cause's kind
// is retryable, the item's per-item attempt counter (never persisted) is
// incremented and, while under the configured maximum, the item is
// re-queued with progress reset to zero instead of being left failed.
func (m *Manager) maybeRetry(id string, cause error) bool {
	autoRetry, maxAttempts := m.retryPolicy()
	if !autoRetry {
		return false
	}

	retryable := false
	if e, ok := errs.As(cause); ok {
		retryable = e.Retryable()
	}
	if !retryable {
		return false
	}

	m.retryMu.Lock()
	attempts := m.retryAttempts[id] + 1
	m.retryAttempts[id] = attempts
	m.retryMu.Unlock()

	if attempts > maxAttempts {
		return false
	}

	m.queueMu.Lock()
	for i := range m.queue {
		if m.queue[i].ID == id && model.CanTransition(m.queue[i].Status, model.StatusQueued) {
			m.queue[i].Status = model.StatusQueued
			m.queue[i].Progress = 0
			m.queue[i].Speed = 0
			m.queue[i].ETA = 0
			m.queue[i].Error = ""
		}
	}
	m.queueMu.Unlock()

	m.publishStatusChange(id, model.StatusQueued)
	m.wake()
	return true
}
