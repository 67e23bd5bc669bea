package download

import (
	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/model"
)

// Enqueue appends items to the queue, rejecting the whole batch if any id
// already exists (at-most-once by identity; the caller may retry with
// fresh ids). On success it notifies the scheduler and checkpoints.
func (m *Manager) Enqueue(items []model.DownloadItem) error {
	m.queueMu.Lock()
	for _, incoming := range items {
		for _, existing := range m.queue {
			if existing.ID == incoming.ID {
				m.queueMu.Unlock()
				return errs.Newf(errs.DuplicateID, "item %q already exists in the queue", incoming.ID)
			}
		}
	}
	for i := range items {
		if items[i].Status == "" {
			items[i].Status = model.StatusQueued
		}
	}
	m.queue = append(m.queue, items...)
	m.queueMu.Unlock()

	m.checkpoint()
	m.wake()
	return nil
}

func (m *Manager) findIndex(id string) int {
	for i := range m.queue {
		if m.queue[i].ID == id {
			return i
		}
	}
	return -1
}

// Pause cancels an in-flight download or, for a still-queued item,
// rewrites its status directly — a paused item is skipped by the selector
// until resumed.
func (m *Manager) Pause(id string) error {
	m.queueMu.Lock()
	idx := m.findIndex(id)
	if idx == -1 {
		m.queueMu.Unlock()
		return errs.Newf(errs.UnknownID, "no queue item with id %q", id)
	}
	current := m.queue[idx].Status
	if !model.CanTransition(current, model.StatusPaused) {
		m.queueMu.Unlock()
		return errs.Newf(errs.IllegalTransition, "cannot pause item %q in state %s", id, current)
	}
	m.queue[idx].Status = model.StatusPaused
	m.queueMu.Unlock()

	if current == model.StatusDownloading {
		m.activeMu.Lock()
		if handle, ok := m.active[id]; ok {
			handle.cancel.Cancel()
		}
		m.activeMu.Unlock()
	}

	m.publishStatusChange(id, model.StatusPaused)
	m.checkpoint()
	return nil
}

// Resume transitions a paused item back to queued and wakes the scheduler.
// The item restarts from scratch (§4.7.4): no partial-file reuse.
func (m *Manager) Resume(id string) error {
	m.queueMu.Lock()
	idx := m.findIndex(id)
	if idx == -1 {
		m.queueMu.Unlock()
		return errs.Newf(errs.UnknownID, "no queue item with id %q", id)
	}
	if !model.CanTransition(m.queue[idx].Status, model.StatusQueued) {
		status := m.queue[idx].Status
		m.queueMu.Unlock()
		return errs.Newf(errs.IllegalTransition, "cannot resume item %q in state %s", id, status)
	}
	m.queue[idx].Status = model.StatusQueued
	m.queue[idx].Progress = 0
	m.queue[idx].Speed = 0
	m.queue[idx].ETA = 0
	m.queueMu.Unlock()

	m.publishStatusChange(id, model.StatusQueued)
	m.checkpoint()
	m.wake()
	return nil
}

// Cancel sends a cancel signal to any active handle and rewrites state to
// cancelled. The item remains visible in the queue until the caller
// removes it.
func (m *Manager) Cancel(id string) error {
	m.queueMu.Lock()
	idx := m.findIndex(id)
	if idx == -1 {
		m.queueMu.Unlock()
		return errs.Newf(errs.UnknownID, "no queue item with id %q", id)
	}
	current := m.queue[idx].Status
	if !model.CanTransition(current, model.StatusCancelled) {
		m.queueMu.Unlock()
		return errs.Newf(errs.IllegalTransition, "cannot cancel item %q in state %s", id, current)
	}
	m.queue[idx].Status = model.StatusCancelled
	m.queueMu.Unlock()

	m.activeMu.Lock()
	if handle, ok := m.active[id]; ok {
		handle.cancel.Cancel()
	}
	m.activeMu.Unlock()

	m.publishStatusChange(id, model.StatusCancelled)
	m.checkpoint()
	return nil
}

// Reorder removes the item at fromIndex and reinserts it at toIndex.
// Active items keep their handles; only queue position changes. Indices
// outside the current queue bounds are rejected; the reinsertion position
// is clamped to the queue's new length after removal.
func (m *Manager) Reorder(fromIndex, toIndex int) error {
	m.queueMu.Lock()
	if fromIndex < 0 || fromIndex >= len(m.queue) || toIndex < 0 || toIndex >= len(m.queue) {
		m.queueMu.Unlock()
		return errs.Newf(errs.OutOfRange, "reorder indices out of range: from=%d to=%d len=%d", fromIndex, toIndex, len(m.queue))
	}

	item := m.queue[fromIndex]
	m.queue = append(m.queue[:fromIndex], m.queue[fromIndex+1:]...)

	insertAt := toIndex
	if insertAt > len(m.queue) {
		insertAt = len(m.queue)
	}
	m.queue = append(m.queue[:insertAt], append([]model.DownloadItem{item}, m.queue[insertAt:]...)...)
	m.queueMu.Unlock()

	m.checkpoint()
	return nil
}

// Snapshot returns a deep copy of the queue, safe to hand to a caller
// outside the manager's lock.
func (m *Manager) Snapshot() []model.DownloadItem {
	m.queueMu.Lock()
	defer m.queueMu.Unlock()
	out := make([]model.DownloadItem, len(m.queue))
	copy(out, m.queue)
	return out
}
