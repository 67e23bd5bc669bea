package storage

import (
	"os"
	"path/filepath"
	"time"

	"github.com/ytget/dlcore/internal/model"
)

const (
	settingsFile = "settings.json"
	queueFile    = "queue.json"
	historyFile  = "history.json"
)

// Service is the single storage dependency the download manager and
// command facade hold: filename sanitization, path validation, directory
// construction, free-space checks, and the three durable JSON documents.
type Service struct {
	dataDir string
}

// New returns a Service persisting its documents under dataDir (the
// application's per-user data directory).
func New(dataDir string) *Service {
	return &Service{dataDir: dataDir}
}

func (s *Service) path(name string) string {
	return filepath.Join(s.dataDir, name)
}

// DefaultSavePath returns the user's home Downloads directory, falling
// back to the current directory if the home directory can't be resolved.
func DefaultSavePath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// LoadSettings reads settings.json, writing and returning a populated
// default document if the file doesn't exist yet.
func (s *Service) LoadSettings() (model.Settings, error) {
	var settings model.Settings
	if err := readJSON(s.path(settingsFile), &settings); err != nil {
		return model.Settings{}, err
	}
	if settings.DefaultSavePath == "" && settings.MaxConcurrentDownloads == 0 {
		settings = model.DefaultSettings(DefaultSavePath())
		if err := s.SaveSettings(settings); err != nil {
			return model.Settings{}, err
		}
	}
	return settings, nil
}

// SaveSettings persists settings.json atomically.
func (s *Service) SaveSettings(settings model.Settings) error {
	return writeJSONAtomic(s.path(settingsFile), settings)
}

// LoadQueueState reads queue.json, returning an empty queue if the file
// doesn't exist yet.
func (s *Service) LoadQueueState() (model.QueueState, error) {
	var qs model.QueueState
	if err := readJSON(s.path(queueFile), &qs); err != nil {
		return model.QueueState{}, err
	}
	return qs, nil
}

// SaveQueueState persists queue.json atomically, stamping LastUpdated.
func (s *Service) SaveQueueState(items []model.DownloadItem) error {
	qs := model.QueueState{Items: items, LastUpdated: time.Now().UTC().Format(time.RFC3339)}
	return writeJSONAtomic(s.path(queueFile), qs)
}

// LoadHistory reads history.json, returning an empty history if the file
// doesn't exist yet.
func (s *Service) LoadHistory() (model.History, error) {
	var h model.History
	if err := readJSON(s.path(historyFile), &h); err != nil {
		return model.History{}, err
	}
	return h, nil
}

// SaveHistory persists history.json atomically.
func (s *Service) SaveHistory(h model.History) error {
	return writeJSONAtomic(s.path(historyFile), h)
}

// AppendHistory loads, appends, caps at model.MaxHistoryEntries, and
// re-persists the history document.
func (s *Service) AppendHistory(entry model.CompletedDownload) error {
	h, err := s.LoadHistory()
	if err != nil {
		return err
	}
	h.Append(entry)
	return s.SaveHistory(h)
}
