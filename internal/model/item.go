package model

// DownloadItem is the unit of scheduling. It is created by the command
// facade from a video record, mutated exclusively by the download manager,
// and retired to history or discarded on cancel.
type DownloadItem struct {
	ID        string  `json:"id"`
	VideoID   string  `json:"video_id"`
	Title     string  `json:"title"`
	Thumbnail string  `json:"thumbnail"`
	Status    Status  `json:"status"`
	Progress  float64 `json:"progress"`
	Speed     float64 `json:"speed"` // bytes/s
	ETA       uint64  `json:"eta"`   // seconds
	SavePath  string  `json:"save_path"`
	URL       string  `json:"url"`
	Platform  string  `json:"platform"`
	Error     string  `json:"error,omitempty"`

	// Options captures the per-item preferences the item was enqueued
	// with; the provider consults it when building the download's
	// argument vector.
	Options DownloadOptions `json:"options"`
}

// Clone returns a deep copy suitable for handing to callers outside the
// manager's lock (snapshot()).
func (d *DownloadItem) Clone() *DownloadItem {
	if d == nil {
		return nil
	}
	c := *d
	return &c
}

// Quality is the closed set of resolution preferences a caller may request.
type Quality string

const (
	QualityBest Quality = "best"
	Quality1080 Quality = "1080p"
	Quality720  Quality = "720p"
	Quality480  Quality = "480p"
)

// Container is the closed set of output container formats.
type Container string

const (
	ContainerMP4  Container = "mp4"
	ContainerWebM Container = "webm"
	ContainerMKV  Container = "mkv"
)

// DownloadOptions governs how a video is fetched and muxed.
type DownloadOptions struct {
	Quality   Quality   `json:"quality"`
	Format    Container `json:"format"`
	AudioOnly bool      `json:"audio_only"`
}

// DefaultDownloadOptions returns the options applied when a caller omits
// its own preferences.
func DefaultDownloadOptions() DownloadOptions {
	return DownloadOptions{
		Quality: QualityBest,
		Format:  ContainerMP4,
	}
}
