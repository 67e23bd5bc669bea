// Package eventbus delivers progress, status-change, error, and
// queue-snapshot events from the download core to the UI host. Delivery is
// fire-and-forget: the bus never blocks the manager, and a host that isn't
// currently listening simply misses the event.
package eventbus

import "github.com/ytget/dlcore/internal/model"

// Kind names one of the channels in the event surface.
type Kind string

const (
	KindProgress     Kind = "download:progress"
	KindStatusChange Kind = "download:status_change"
	KindError        Kind = "download:error"
	KindQueueUpdate  Kind = "queue:update"
	KindInstallLog   Kind = "install:progress"
)

// ProgressPayload is the payload for KindProgress.
type ProgressPayload struct {
	ID       string          `json:"id"`
	Progress ProgressDetails `json:"progress"`
}

// ProgressDetails mirrors the percentage/bytes/speed/eta shape named in
// the event surface.
type ProgressDetails struct {
	Percentage      float64 `json:"percentage"`
	DownloadedBytes uint64  `json:"downloaded_bytes"`
	TotalBytes      uint64  `json:"total_bytes"`
	Speed           float64 `json:"speed"`
	ETA             uint64  `json:"eta"`
}

// StatusChangePayload is the payload for KindStatusChange.
type StatusChangePayload struct {
	ID     string       `json:"id"`
	Status model.Status `json:"status"`
}

// ErrorPayload is the payload for KindError.
type ErrorPayload struct {
	ID    string `json:"id"`
	Error string `json:"error"`
}

// QueueUpdatePayload is the payload for KindQueueUpdate: a full snapshot.
type QueueUpdatePayload struct {
	Items []model.DownloadItem `json:"items"`
}

// InstallLogPayload is the payload for KindInstallLog.
type InstallLogPayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

// Event is one published message; Payload's concrete type depends on Kind.
type Event struct {
	Kind    Kind
	Payload interface{}
}
