package download

import "github.com/ytget/dlcore/internal/eventbus"

// checkpoint persists the current queue asynchronously and publishes a
// queue:update snapshot. Every mutating operation ends with one of these,
// per the manager's contract: the write never blocks the caller, but the
// event carries the same snapshot that will land on disk.
func (m *Manager) checkpoint() {
	snapshot := m.Snapshot()
	go func() {
		if err := m.storage.SaveQueueState(snapshot); err != nil {
			m.log.WithError(err).Error("failed to persist queue checkpoint")
		}
	}()
	m.bus.Publish(eventbus.Event{Kind: eventbus.KindQueueUpdate, Payload: eventbus.QueueUpdatePayload{Items: snapshot}})
}
