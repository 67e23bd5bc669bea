package download

import (
	"context"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ytget/dlcore/internal/command/errs"
	"github.com/ytget/dlcore/internal/eventbus"
	"github.com/ytget/dlcore/internal/model"
	"github.com/ytget/dlcore/internal/platform"
	"github.com/ytget/dlcore/internal/storage"
	"github.com/ytget/dlcore/internal/throttle"
)

// activeHandle is what the manager keeps for a running item: enough to
// cancel it, never the child process itself. The execution task
// exclusively owns the child handle, preventing double-wait and orphans.
type activeHandle struct {
	cancel *platform.CancelSignal
}

// Manager is the scheduler: it owns the queue, the active set, the
// concurrency gate, and wires providers, storage, and the event bus
// together for each execution task.
type Manager struct {
	queueMu sync.Mutex
	queue   []model.DownloadItem

	activeMu sync.Mutex
	active   map[string]*activeHandle

	configMu         sync.RWMutex
	maxConcurrent    int
	autoRetry        bool
	maxRetryAttempts int

	retryMu       sync.Mutex
	retryAttempts map[string]int

	registry *platform.Registry
	storage  *storage.Service
	bus      *eventbus.Bus

	notifyCh chan struct{}
	wg       sync.WaitGroup
	log      *logrus.Entry
}

// New returns a Manager with a default concurrency of 3 (clamped into
// [model.MinConcurrent, model.MaxConcurrent] like every other concurrency
// setting).
func New(registry *platform.Registry, storageSvc *storage.Service, bus *eventbus.Bus) *Manager {
	return &Manager{
		active:           make(map[string]*activeHandle),
		maxConcurrent:    3,
		autoRetry:        true,
		maxRetryAttempts: 3,
		retryAttempts:    make(map[string]int),
		registry:         registry,
		storage:          storageSvc,
		bus:              bus,
		notifyCh:         make(chan struct{}, 1),
		log:              logrus.WithField("component", "download.Manager"),
	}
}

// Configure applies settings that affect scheduling: the concurrency cap
// (clamped) and the retry policy (§4.7.5).
func (m *Manager) Configure(settings model.Settings) {
	m.configMu.Lock()
	defer m.configMu.Unlock()
	m.maxConcurrent = model.ClampConcurrency(settings.MaxConcurrentDownloads)
	m.autoRetry = settings.AutoRetryOnFailure
	m.maxRetryAttempts = settings.MaxRetryAttempts
}

func (m *Manager) concurrencyLimit() int {
	m.configMu.RLock()
	defer m.configMu.RUnlock()
	return m.maxConcurrent
}

func (m *Manager) retryPolicy() (bool, int) {
	m.configMu.RLock()
	defer m.configMu.RUnlock()
	return m.autoRetry, m.maxRetryAttempts
}

// Start loads the persisted queue, performs crash recovery (§4.7.6 — any
// item caught mid-download is rewritten to queued with progress reset),
// and launches the supervisor loop. It returns once recovery is done; the
// loop itself runs until ctx is cancelled.
func (m *Manager) Start(ctx context.Context) error {
	qs, err := m.storage.LoadQueueState()
	if err != nil {
		return err
	}

	recovered := make([]model.DownloadItem, len(qs.Items))
	for i, item := range qs.Items {
		if item.Status == model.StatusDownloading {
			item.Status = model.StatusQueued
			item.Progress = 0
			item.Speed = 0
			item.ETA = 0
		}
		recovered[i] = item
	}

	m.queueMu.Lock()
	m.queue = recovered
	m.queueMu.Unlock()

	m.wg.Add(1)
	go m.superviseLoop(ctx)
	return nil
}

// Wait blocks until the supervisor loop has exited after ctx cancellation.
func (m *Manager) Wait() { m.wg.Wait() }

func (m *Manager) wake() {
	select {
	case m.notifyCh <- struct{}{}:
	default:
	}
}

// superviseLoop is the single supervisor task (§4.7.2). It parks on the
// notify channel whenever there is no work, so an empty queue costs no
// CPU, and re-evaluates dispatch on every wake.
func (m *Manager) superviseLoop(ctx context.Context) {
	defer m.wg.Done()
	for {
		m.dispatch(ctx)
		select {
		case <-ctx.Done():
			return
		case <-m.notifyCh:
		}
	}
}

// dispatch fills every available slot with the next queued items in
// front-to-back order. Locks are acquired queue-before-active, per the
// fixed ordering policy that avoids deadlock with pause/cancel.
func (m *Manager) dispatch(ctx context.Context) {
	for {
		m.queueMu.Lock()
		m.activeMu.Lock()

		limit := m.concurrencyLimit()
		if len(m.active) >= limit {
			m.activeMu.Unlock()
			m.queueMu.Unlock()
			return
		}

		idx := -1
		for i, item := range m.queue {
			if item.Status == model.StatusQueued {
				idx = i
				break
			}
		}
		if idx == -1 {
			m.activeMu.Unlock()
			m.queueMu.Unlock()
			return
		}

		m.queue[idx].Status = model.StatusDownloading
		item := m.queue[idx]
		handle := &activeHandle{cancel: platform.NewCancelSignal(ctx)}
		m.active[item.ID] = handle

		m.activeMu.Unlock()
		m.queueMu.Unlock()

		m.publishStatusChange(item.ID, model.StatusDownloading)
		m.checkpoint()

		m.wg.Add(1)
		go m.execute(ctx, item, handle)
	}
}

// execute runs one item to completion: builds the save path (the item's
// own, or the settings' default save path when the item has none), performs
// a best-effort free-space check, invokes the provider, and resolves the
// item's final state.
func (m *Manager) execute(ctx context.Context, item model.DownloadItem, handle *activeHandle) {
	defer m.wg.Done()
	defer m.finishActive(item.ID)

	provider, ok := m.registry.Get(item.Platform)
	if !ok {
		m.fail(item.ID, errs.Newf(errs.Unsupported, "no registered provider for platform %q", item.Platform))
		return
	}

	savePath := item.SavePath
	if savePath == "" {
		settings, err := m.storage.LoadSettings()
		if err != nil {
			m.fail(item.ID, err)
			return
		}
		savePath = settings.DefaultSavePath
	}
	outputDir, err := storage.CreateDirectoryStructure(savePath, "", "")
	if err != nil {
		m.fail(item.ID, err)
		return
	}
	outputTemplate := filepath.Join(outputDir, storage.SanitizeFilename(displayName(item))+".%(ext)s")

	if err := storage.CheckFreeSpace(outputDir, 0); err != nil {
		m.log.WithField("item_id", item.ID).WithError(err).Warn("free-space pre-flight check failed, continuing best-effort")
	}

	runCtx, cancelTimeout := context.WithTimeout(handle.cancel.Context(), platform.DownloadTimeout)
	defer cancelTimeout()

	throttler := throttle.WithDefaultInterval()
	sink := func(p platform.Progress) {
		if handle.cancel.Done() {
			// Cancel(), Pause(), or manager shutdown fired the signal; the
			// provider's stdout-drain goroutine may still be flushing
			// buffered lines during teardown, but none of them are
			// eligible to reach the bus once cancellation has fired.
			return
		}
		if !throttler.ShouldEmit(p.Percentage) {
			return
		}
		m.updateProgress(item.ID, p)
	}

	downloadErr := provider.Download(runCtx, item.URL, item.Options, outputTemplate, sink, handle.cancel)

	if downloadErr == nil {
		m.updateProgress(item.ID, platform.Progress{Percentage: 100})
		m.complete(item)
		return
	}

	if runCtx.Err() == context.DeadlineExceeded {
		m.fail(item.ID, errs.Newf(errs.Timeout, "download exceeded the %s timeout", platform.DownloadTimeout))
		return
	}
	if handle.cancel.Done() {
		// The cancel signal fires via Pause or Cancel, both of which
		// already rewrote the item's status and checkpointed before the
		// execution task noticed, or via cancellation of the manager's
		// context at shutdown, which leaves the item downloading for the
		// next Start's crash recovery; nothing further to resolve here.
		return
	}
	m.fail(item.ID, downloadErr)
}

func displayName(item model.DownloadItem) string {
	if item.Title != "" {
		return item.Title
	}
	return item.VideoID
}

func (m *Manager) finishActive(id string) {
	m.activeMu.Lock()
	delete(m.active, id)
	m.activeMu.Unlock()
	m.wake()
}

func (m *Manager) updateProgress(id string, p platform.Progress) {
	m.queueMu.Lock()
	for i := range m.queue {
		if m.queue[i].ID == id {
			m.queue[i].Progress = p.Percentage
			m.queue[i].Speed = p.Speed
			m.queue[i].ETA = p.ETA
			break
		}
	}
	m.queueMu.Unlock()

	m.bus.Publish(eventbus.Event{
		Kind: eventbus.KindProgress,
		Payload: eventbus.ProgressPayload{
			ID: id,
			Progress: eventbus.ProgressDetails{
				Percentage:      p.Percentage,
				DownloadedBytes: p.DownloadedBytes,
				TotalBytes:      p.TotalBytes,
				Speed:           p.Speed,
				ETA:             p.ETA,
			},
		},
	})
}

func (m *Manager) complete(item model.DownloadItem) {
	m.setStatus(item.ID, model.StatusCompleted, "")
	m.publishStatusChange(item.ID, model.StatusCompleted)

	if err := m.storage.AppendHistory(model.CompletedDownload{
		ID:          item.ID,
		VideoID:     item.VideoID,
		Title:       item.Title,
		CompletedAt: time.Now().UTC().Format(time.RFC3339),
		SavePath:    item.SavePath,
		Platform:    item.Platform,
	}); err != nil {
		m.log.WithField("item_id", item.ID).WithError(err).Warn("failed to append history entry")
	}

	m.checkpoint()
}

// fail resolves a failed execution: records the message, decides retry vs.
// terminal per §4.7.5, and publishes both download:error and the
// resulting status change.
func (m *Manager) fail(id string, cause error) {
	message := cause.Error()
	m.setStatus(id, model.StatusFailed, message)
	m.bus.Publish(eventbus.Event{Kind: eventbus.KindError, Payload: eventbus.ErrorPayload{ID: id, Error: message}})

	if m.maybeRetry(id, cause) {
		m.checkpoint()
		return
	}

	m.publishStatusChange(id, model.StatusFailed)
	m.checkpoint()
}

func (m *Manager) setStatus(id string, status model.Status, errMessage string) {
	m.queueMu.Lock()
	for i := range m.queue {
		if m.queue[i].ID == id {
			m.queue[i].Status = status
			m.queue[i].Error = errMessage
			break
		}
	}
	m.queueMu.Unlock()
}

func (m *Manager) publishStatusChange(id string, status model.Status) {
	m.bus.Publish(eventbus.Event{
		Kind:    eventbus.KindStatusChange,
		Payload: eventbus.StatusChangePayload{ID: id, Status: status},
	})
}
