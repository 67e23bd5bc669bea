package model

// QueueState is the durable mirror of the manager's in-memory queue.
type QueueState struct {
	Items       []DownloadItem `json:"items"`
	LastUpdated string         `json:"last_updated"` // RFC3339
}
