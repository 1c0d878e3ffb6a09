package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"murmur/internal/config"
	"murmur/internal/events"
	"murmur/internal/language"
	"murmur/internal/logging"
	"murmur/internal/media/ffprobe"
	"murmur/internal/store"
)

// ErrDirectory reports an inaccessible watch target.
var ErrDirectory = errors.New("watcher: directory inaccessible")

// audioExtensions is the ingestion allow-list. Anything else is ignored
// without logging.
var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".ogg":  {},
	".flac": {},
	".aac":  {},
	".wma":  {},
}

type retryEntry struct {
	attempts int
	timer    *time.Timer
}

// probeFunc matches ffprobe.Inspect; replaced in tests.
type probeFunc func(ctx context.Context, binary, path string) (ffprobe.Result, error)

// Manager keeps the recording store consistent with a set of watched
// directories: initial scans, live change events, debounce, and bounded
// retries for files that fail extraction.
type Manager struct {
	cfg    *config.Config
	store  *store.Store
	bus    *events.Bus
	logger *slog.Logger
	probe  probeFunc

	mu       sync.Mutex
	fsw      *fsnotify.Watcher
	watched  map[string]struct{}
	debounce map[string]*time.Timer
	inFlight map[string]struct{}
	retries  map[string]*retryEntry
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New builds a manager and starts its filesystem event loop.
func New(cfg *config.Config, st *store.Store, bus *events.Bus, logger *slog.Logger) (*Manager, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("watcher: init: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	m := &Manager{
		cfg:      cfg,
		store:    st,
		bus:      bus,
		logger:   logging.NewComponentLogger(logger, "watcher"),
		probe:    ffprobe.Inspect,
		fsw:      fsw,
		watched:  make(map[string]struct{}),
		debounce: make(map[string]*time.Timer),
		inFlight: make(map[string]struct{}),
		retries:  make(map[string]*retryEntry),
		ctx:      ctx,
		cancel:   cancel,
	}

	m.wg.Add(1)
	go m.eventLoop()
	return m, nil
}

func (m *Manager) debounceDelay() time.Duration {
	return time.Duration(m.cfg.Ingest.DebounceMillis) * time.Millisecond
}

func (m *Manager) retryDelay() time.Duration {
	return time.Duration(m.cfg.Ingest.RetryDelaySecs) * time.Second
}

// Watch starts watching a directory. Re-watching an already watched path
// is a no-op; a new path gets a full initial scan before live events.
func (m *Manager) Watch(ctx context.Context, dir string) error {
	dir = filepath.Clean(dir)
	info, err := os.Stat(dir)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrDirectory, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s: not a directory", ErrDirectory, dir)
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("watcher: closed")
	}
	if _, ok := m.watched[dir]; ok {
		m.mu.Unlock()
		return nil
	}
	if err := m.fsw.Add(dir); err != nil {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s: %v", ErrDirectory, dir, err)
	}
	m.watched[dir] = struct{}{}
	m.mu.Unlock()

	m.logger.Info("watching directory", logging.String(logging.FieldPath, dir))
	m.scan(ctx, dir)
	return nil
}

// Unwatch stops watching a directory. No-op for unwatched paths.
func (m *Manager) Unwatch(dir string) {
	dir = filepath.Clean(dir)
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.watched[dir]; !ok {
		return
	}
	delete(m.watched, dir)
	_ = m.fsw.Remove(dir)
	m.logger.Info("stopped watching directory", logging.String(logging.FieldPath, dir))
}

// Watched snapshots the watched directory set, sorted.
func (m *Manager) Watched() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	dirs := make([]string, 0, len(m.watched))
	for dir := range m.watched {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)
	return dirs
}

// PathState describes where a path sits in the ingestion pipeline.
type PathState struct {
	// Debouncing is true while change events are still being coalesced.
	Debouncing bool
	// InFlight is true while the path is being probed and upserted.
	InFlight bool
	// RetryAttempts counts failed attempts for a path awaiting retry.
	RetryAttempts int
}

// ProcessingStatus reports the pipeline state for a path. A zero PathState
// means the path is idle as far as the watcher is concerned.
func (m *Manager) ProcessingStatus(path string) PathState {
	path = filepath.Clean(path)
	m.mu.Lock()
	defer m.mu.Unlock()
	var st PathState
	if _, ok := m.debounce[path]; ok {
		st.Debouncing = true
	}
	if _, ok := m.inFlight[path]; ok {
		st.InFlight = true
	}
	if entry, ok := m.retries[path]; ok {
		st.RetryAttempts = entry.attempts
	}
	return st
}

// Close tears everything down: pending retry timers, debounce timers, and
// the filesystem watcher itself. Safe to call more than once.
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	for path, timer := range m.debounce {
		timer.Stop()
		delete(m.debounce, path)
	}
	for path, entry := range m.retries {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(m.retries, path)
	}
	for dir := range m.watched {
		delete(m.watched, dir)
	}
	m.mu.Unlock()

	m.cancel()
	_ = m.fsw.Close()
	m.wg.Wait()
}

// scan processes every audio file already present in a directory, emitting
// one scan-progress notification per file. Scan failures are reported once
// and not retried.
func (m *Manager) scan(ctx context.Context, dir string) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		m.logger.Error("initial scan failed", logging.String(logging.FieldPath, dir), logging.Error(err))
		m.bus.Publish(events.WatcherError(dir, fmt.Sprintf("scan failed: %v", err)))
		return
	}

	var candidates []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if !isAudioFile(entry.Name()) {
			continue
		}
		candidates = append(candidates, filepath.Join(dir, entry.Name()))
	}

	total := len(candidates)
	for processed, path := range candidates {
		if ctx.Err() != nil {
			return
		}
		m.processPath(path)
		m.bus.Publish(events.ScanProgress(dir, processed+1, total))
	}
	m.logger.Info("initial scan complete", logging.String(logging.FieldPath, dir), logging.Int("files", total))
}

func (m *Manager) eventLoop() {
	defer m.wg.Done()
	for {
		select {
		case event, ok := <-m.fsw.Events:
			if !ok {
				return
			}
			m.handleEvent(event)
		case err, ok := <-m.fsw.Errors:
			if !ok {
				return
			}
			m.logger.Error("watch error", logging.Error(err))
			m.bus.Publish(events.WatcherError("", err.Error()))
		case <-m.ctx.Done():
			return
		}
	}
}

func (m *Manager) handleEvent(event fsnotify.Event) {
	path := filepath.Clean(event.Name)
	if !isAudioFile(filepath.Base(path)) {
		return
	}

	switch {
	case event.Op.Has(fsnotify.Remove) || event.Op.Has(fsnotify.Rename):
		m.handleRemoval(path)
	case event.Op.Has(fsnotify.Create) || event.Op.Has(fsnotify.Write):
		m.scheduleProcess(path)
	}
}

// scheduleProcess coalesces rapid events for one path into a single
// processing attempt after the debounce window.
func (m *Manager) scheduleProcess(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	if timer, ok := m.debounce[path]; ok {
		timer.Reset(m.debounceDelay())
		return
	}
	m.debounce[path] = time.AfterFunc(m.debounceDelay(), func() {
		m.mu.Lock()
		delete(m.debounce, path)
		m.mu.Unlock()
		m.processPath(path)
	})
}

// processPath probes one file and upserts its recording. A path already
// being processed is skipped; failures feed the retry scheduler.
func (m *Manager) processPath(path string) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	if _, busy := m.inFlight[path]; busy {
		m.mu.Unlock()
		return
	}
	m.inFlight[path] = struct{}{}
	m.mu.Unlock()

	defer func() {
		m.mu.Lock()
		delete(m.inFlight, path)
		m.mu.Unlock()
	}()

	if _, err := m.ingest(path); err != nil {
		m.logger.Warn("ingest failed", logging.String(logging.FieldPath, path), logging.Error(err))
		m.scheduleRetry(path, err)
		return
	}
	m.clearRetry(path)
}

// IngestFile probes and registers a single audio file outside the watch
// flow, for explicit adds. Unlike watch-driven processing it does not
// retry: the caller gets the failure directly.
func (m *Manager) IngestFile(path string) (*store.Recording, error) {
	path = filepath.Clean(path)
	if !isAudioFile(filepath.Base(path)) {
		return nil, fmt.Errorf("watcher: %s: not a supported audio file", path)
	}
	return m.ingest(path)
}

func (m *Manager) ingest(path string) (*store.Recording, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}

	probed, err := m.probe(m.ctx, m.cfg.Ingest.FFprobeBinary, path)
	if err != nil {
		return nil, err
	}

	metadata := &store.Metadata{
		Format:     probed.Format.FormatName,
		BitRate:    probed.BitRate(),
		SampleRate: probed.SampleRate(),
	}
	if audio, ok := probed.AudioStream(); ok {
		metadata.Codec = audio.CodecName
		metadata.Channels = audio.Channels
	}

	if lang := language.ExtractFromTags(probed.Format.Tags); lang != "" {
		metadata.Language = lang
		m.logger.Debug("detected language tag",
			logging.String(logging.FieldPath, path), logging.String("language", lang))
	}

	ctx := m.ctx
	_, existedErr := m.store.GetRecordingByPath(ctx, path)
	isNew := errors.Is(existedErr, store.ErrNotFound)

	rec, err := m.store.UpsertByPath(ctx, store.NewFileRecording{
		Filepath:   path,
		Filesize:   info.Size(),
		Duration:   probed.DurationSeconds(),
		ModifiedAt: info.ModTime(),
		Metadata:   metadata,
	})
	if err != nil {
		return nil, err
	}

	if isNew {
		m.bus.Publish(events.RecordingAdded(rec.ID, rec.Filepath))
		m.logger.Info("recording added",
			logging.String(logging.FieldRecordingID, rec.ID),
			logging.String(logging.FieldPath, path))
	} else {
		m.bus.Publish(events.RecordingChanged(rec.ID, string(rec.Status), rec.ErrorMessage))
	}
	return rec, nil
}

// scheduleRetry books another attempt for a failed path, abandoning it
// with an error notification once attempts are exhausted.
func (m *Manager) scheduleRetry(path string, cause error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	entry, ok := m.retries[path]
	if !ok {
		entry = &retryEntry{}
		m.retries[path] = entry
	}
	entry.attempts++
	if entry.attempts >= m.cfg.Ingest.MaxRetryAttempts {
		delete(m.retries, path)
		m.mu.Unlock()
		m.logger.Error("abandoning path after repeated failures",
			logging.String(logging.FieldPath, path),
			logging.Int("attempts", m.cfg.Ingest.MaxRetryAttempts),
			logging.Error(cause))
		m.bus.Publish(events.WatcherError(path, cause.Error()))
		return
	}
	entry.timer = time.AfterFunc(m.retryDelay(), func() {
		m.processPath(path)
	})
	m.mu.Unlock()
}

func (m *Manager) clearRetry(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entry, ok := m.retries[path]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(m.retries, path)
	}
}

// handleRemoval deletes the recording for an unlinked file and announces
// the removal. Paths with no recording are ignored.
func (m *Manager) handleRemoval(path string) {
	m.mu.Lock()
	if timer, ok := m.debounce[path]; ok {
		timer.Stop()
		delete(m.debounce, path)
	}
	if entry, ok := m.retries[path]; ok {
		if entry.timer != nil {
			entry.timer.Stop()
		}
		delete(m.retries, path)
	}
	m.mu.Unlock()

	rec, err := m.store.RemoveRecordingByPath(m.ctx, path)
	if errors.Is(err, store.ErrNotFound) {
		return
	}
	if err != nil {
		m.logger.Error("remove recording", logging.String(logging.FieldPath, path), logging.Error(err))
		return
	}
	m.bus.Publish(events.RecordingRemoved(rec.ID, path))
	m.logger.Info("recording removed",
		logging.String(logging.FieldRecordingID, rec.ID),
		logging.String(logging.FieldPath, path))
}

// isAudioFile filters by the extension allow-list and skips hidden files.
func isAudioFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return false
	}
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(name))]
	return ok
}
