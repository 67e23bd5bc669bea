// Package command implements the Command Facade: one thin method per
// externally callable command, wiring the platform registry, the download
// manager, the storage service, the metadata cache, and the executable
// locator behind a single boundary a UI host calls into.
package command

import (
	"context"
	"os/exec"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/ytget/dlcore/internal/cache"
	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/download"
	"github.com/ytget/dlcore/internal/eventbus"
	"github.com/ytget/dlcore/internal/executable"
	"github.com/ytget/dlcore/internal/model"
	"github.com/ytget/dlcore/internal/platform"
	"github.com/ytget/dlcore/internal/storage"
)

// Facade is the single entry point a UI host holds.
type Facade struct {
	registry *platform.Registry
	manager  *download.Manager
	storage  *storage.Service
	cache    *cache.MetadataCache
	locator  *executable.Locator
	bus      *eventbus.Bus
	log      *logrus.Entry
}

// New assembles a Facade over its already-constructed dependencies.
func New(registry *platform.Registry, manager *download.Manager, storageSvc *storage.Service, metadataCache *cache.MetadataCache, locator *executable.Locator, bus *eventbus.Bus) *Facade {
	return &Facade{
		registry: registry,
		manager:  manager,
		storage:  storageSvc,
		cache:    metadataCache,
		locator:  locator,
		bus:      bus,
		log:      logrus.WithField("component", "command.Facade"),
	}
}

// Events returns the event bus subscribers use to observe progress,
// status changes, errors, and queue snapshots.
func (f *Facade) Events() *eventbus.Bus { return f.bus }

func normalizedURL(raw string) (string, error) {
	cleaned := platform.NormalizeURL(raw)
	if !strings.HasPrefix(cleaned, "http://") && !strings.HasPrefix(cleaned, "https://") {
		return "", errs.Newf(errs.InvalidURL, "not a valid http(s) URL: %q", raw)
	}
	return cleaned, nil
}

func (f *Facade) detectProvider(raw string) (platform.Provider, string, error) {
	url, err := normalizedURL(raw)
	if err != nil {
		return nil, "", err
	}
	provider, ok := f.registry.Detect(url)
	if !ok {
		return nil, "", errs.Newf(errs.Unsupported, "no registered provider matches %q", url)
	}
	return provider, url, nil
}

// DetectPlatform implements the detect_platform command.
func (f *Facade) DetectPlatform(raw string) (string, error) {
	provider, _, err := f.detectProvider(raw)
	if err != nil {
		return "", err
	}
	return provider.Name(), nil
}

// PlatformInfo describes one registered provider for get_supported_platforms.
type PlatformInfo struct {
	Name         string                     `json:"name"`
	Patterns     []string                   `json:"supported_patterns"`
	Dependencies []platform.Dependency      `json:"dependencies"`
	Settings     []platform.PlatformSetting `json:"settings"`
}

// GetSupportedPlatforms implements get_supported_platforms.
func (f *Facade) GetSupportedPlatforms(ctx context.Context) []PlatformInfo {
	providers := f.registry.All()
	out := make([]PlatformInfo, 0, len(providers))
	for _, p := range providers {
		out = append(out, PlatformInfo{
			Name:         p.Name(),
			Patterns:     p.SupportedPatterns(),
			Dependencies: p.VerifyDependencies(ctx),
			Settings:     p.PlatformSettings(),
		})
	}
	return out
}

// GetVideoInfo implements get_video_info, serving from the metadata cache
// when possible and retrying a transient network failure with backoff
// (withNetworkRetry) otherwise.
func (f *Facade) GetVideoInfo(ctx context.Context, raw string) (model.VideoRecord, error) {
	provider, url, err := f.detectProvider(raw)
	if err != nil {
		return model.VideoRecord{}, err
	}
	if cached, ok := f.cache.GetVideo(url); ok {
		return cached, nil
	}
	var record model.VideoRecord
	err = withNetworkRetry(ctx, func() error {
		var fetchErr error
		record, fetchErr = provider.GetVideoInfo(ctx, url)
		return fetchErr
	})
	if err != nil {
		return model.VideoRecord{}, err
	}
	f.cache.PutVideo(url, record)
	return record, nil
}

// GetPlaylistInfo implements get_playlist_info, serving from the metadata
// cache when possible and retrying a transient network failure with backoff
// otherwise.
func (f *Facade) GetPlaylistInfo(ctx context.Context, raw string) (model.PlaylistRecord, error) {
	provider, url, err := f.detectProvider(raw)
	if err != nil {
		return model.PlaylistRecord{}, err
	}
	if cached, ok := f.cache.GetPlaylist(url); ok {
		return cached, nil
	}
	var record model.PlaylistRecord
	err = withNetworkRetry(ctx, func() error {
		var fetchErr error
		record, fetchErr = provider.GetPlaylistInfo(ctx, url)
		return fetchErr
	})
	if err != nil {
		return model.PlaylistRecord{}, err
	}
	f.cache.PutPlaylist(url, record)
	return record, nil
}

// GetChannelInfo implements get_channel_info, serving from the metadata
// cache when possible and retrying a transient network failure with backoff
// otherwise.
func (f *Facade) GetChannelInfo(ctx context.Context, raw string) (model.ChannelRecord, error) {
	provider, url, err := f.detectProvider(raw)
	if err != nil {
		return model.ChannelRecord{}, err
	}
	if cached, ok := f.cache.GetChannel(url); ok {
		return cached, nil
	}
	var record model.ChannelRecord
	err = withNetworkRetry(ctx, func() error {
		var fetchErr error
		record, fetchErr = provider.GetChannelInfo(ctx, url)
		return fetchErr
	})
	if err != nil {
		return model.ChannelRecord{}, err
	}
	f.cache.PutChannel(url, record)
	return record, nil
}

// AddToDownloadQueue implements add_to_download_queue: every item's save
// path is validated against the configured default root before the batch
// reaches the scheduler. An item without a caller-supplied ID (the queue
// entry's own identity, distinct from VideoID) is assigned one, so the same
// video can be queued more than once without a collision. It returns the
// finalized items (generated IDs, validated paths) as they were enqueued.
func (f *Facade) AddToDownloadQueue(items []model.DownloadItem) ([]model.DownloadItem, error) {
	settings, err := f.storage.LoadSettings()
	if err != nil {
		return nil, err
	}

	validated := make([]model.DownloadItem, len(items))
	for i, item := range items {
		path, err := storage.ValidatePath(item.SavePath, settings.DefaultSavePath)
		if err != nil {
			return nil, err
		}
		item.SavePath = path
		item.URL = platform.NormalizeURL(item.URL)
		if item.ID == "" {
			id, err := uuid.NewV7()
			if err != nil {
				return nil, errs.Newf(errs.Unknown, "generating queue item id: %v", err)
			}
			item.ID = id.String()
		}
		if item.Status == "" {
			item.Status = model.StatusQueued
		}
		validated[i] = item
	}

	if err := f.manager.Enqueue(validated); err != nil {
		return nil, err
	}
	return validated, nil
}

// PauseDownload implements pause_download.
func (f *Facade) PauseDownload(id string) error { return f.manager.Pause(id) }

// ResumeDownload implements resume_download.
func (f *Facade) ResumeDownload(id string) error { return f.manager.Resume(id) }

// CancelDownload implements cancel_download.
func (f *Facade) CancelDownload(id string) error { return f.manager.Cancel(id) }

// ReorderQueue implements reorder_queue.
func (f *Facade) ReorderQueue(fromIndex, toIndex int) error {
	return f.manager.Reorder(fromIndex, toIndex)
}

// GetSettings implements get_settings.
func (f *Facade) GetSettings() (model.Settings, error) {
	return f.storage.LoadSettings()
}

// SaveSettings implements save_settings, clamping concurrency and applying
// the new retry/concurrency policy to the running manager immediately.
func (f *Facade) SaveSettings(settings model.Settings) error {
	settings.MaxConcurrentDownloads = model.ClampConcurrency(settings.MaxConcurrentDownloads)
	if err := f.storage.SaveSettings(settings); err != nil {
		return err
	}
	f.manager.Configure(settings)
	return nil
}

// SelectDirectory implements select_directory. A CLI host has no native
// file-picker surface, so it collects the candidate path itself and hands
// it here purely for validation; an empty candidate means the user
// declined, returned as "" with no error (the result is "path or null").
func (f *Facade) SelectDirectory(candidate string) (string, error) {
	if candidate == "" {
		return "", nil
	}
	settings, err := f.storage.LoadSettings()
	if err != nil {
		return "", err
	}
	return storage.ValidatePath(candidate, settings.DefaultSavePath)
}

// CheckDependencies implements check_dependencies. An empty platformName
// checks every registered provider.
func (f *Facade) CheckDependencies(ctx context.Context, platformName string) ([]platform.Dependency, error) {
	if platformName == "" {
		var all []platform.Dependency
		for _, p := range f.registry.All() {
			all = append(all, p.VerifyDependencies(ctx)...)
		}
		return all, nil
	}
	p, ok := f.registry.Get(platformName)
	if !ok {
		return nil, errs.Newf(errs.Unsupported, "no registered provider named %q", platformName)
	}
	return p.VerifyDependencies(ctx), nil
}

// VerifyBundledExecutables implements verify_bundled_executables. Locator
// failures (missing or corrupted binaries) are reported as false rather
// than surfaced as an error, matching the command's error-free contract.
func (f *Facade) VerifyBundledExecutables() bool {
	_, err := f.locator.Locate()
	if err != nil {
		f.log.WithError(err).Warn("bundled executable verification failed")
		return false
	}
	return true
}

// InstallMissingDependency implements install_missing_dependency: a
// fallback path for hosts where the bundled, checksum-verified executables
// (the primary distribution path, see VerifyBundledExecutables) aren't
// available for the current platform. It shells out to Homebrew, the only
// package manager this falls back to, and publishes an eventbus.KindInstallLog
// message when the install starts and another when it succeeds. The
// install's own output is not streamed: it is collected and only surfaced
// in the returned error when the install fails.
func (f *Facade) InstallMissingDependency(ctx context.Context, name string) error {
	if _, err := exec.LookPath("brew"); err != nil {
		return errs.New(errs.MissingDependency, "Homebrew is not installed; install it from https://brew.sh first")
	}

	f.publishInstallLog(name, "installing "+name+" via Homebrew...")
	cmd := exec.CommandContext(ctx, "brew", "install", name)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return errs.Newf(errs.MissingDependency, "failed to install %s: %s", name, strings.TrimSpace(string(output)))
	}
	f.publishInstallLog(name, name+" installed successfully")
	return nil
}

func (f *Facade) publishInstallLog(name, message string) {
	f.bus.Publish(eventbus.Event{
		Kind:    eventbus.KindInstallLog,
		Payload: eventbus.InstallLogPayload{Name: name, Message: message},
	})
}

// TestDownload implements test_download: it resolves metadata for url and
// returns the video's title, proving the provider and its dependencies
// work end to end without committing to a full download.
func (f *Facade) TestDownload(ctx context.Context, raw string) (string, error) {
	record, err := f.GetVideoInfo(ctx, raw)
	if err != nil {
		return "", err
	}
	return record.Title, nil
}
