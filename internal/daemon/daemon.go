package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync/atomic"

	"github.com/gofrs/flock"

	"murmur/internal/config"
	"murmur/internal/events"
	"murmur/internal/logging"
	"murmur/internal/store"
	"murmur/internal/transcription"
	"murmur/internal/watcher"
)

// Daemon owns the long-running components and enforces single-instance
// execution through a lock file.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	bus    *events.Bus
	files  *watcher.Manager
	queue  *transcription.Manager

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	ctx     context.Context
	cancel  context.CancelFunc
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, st *store.Store, bus *events.Bus, files *watcher.Manager, queue *transcription.Manager, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || st == nil || bus == nil || files == nil || queue == nil {
		return nil, errors.New("daemon requires config, store, bus, watcher, and queue manager")
	}

	lockPath := cfg.LockPath()
	return &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    st,
		bus:      bus,
		files:    files,
		queue:    queue,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}, nil
}

// Start acquires the daemon lock and restores the persisted watch set.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another murmur daemon instance is already running")
	}

	d.ctx, d.cancel = context.WithCancel(ctx)

	dirs, err := d.store.WatchedDirectories(d.ctx)
	if err != nil {
		_ = d.lock.Unlock()
		d.cancel()
		return fmt.Errorf("load watched directories: %w", err)
	}
	for _, dir := range dirs {
		if watchErr := d.files.Watch(d.ctx, dir); watchErr != nil {
			d.logger.Warn("could not restore watch",
				logging.String(logging.FieldPath, dir), logging.Error(watchErr))
		}
	}

	d.running.Store(true)
	d.logger.Info("daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop stops background processing and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}

	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	d.queue.Stop()
	d.files.Close()
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("failed to release daemon lock", logging.Error(err))
	}
	d.ctx = nil
	d.running.Store(false)
	d.logger.Info("daemon stopped")
}

// Close releases resources held by the daemon.
func (d *Daemon) Close() error {
	d.Stop()
	return d.store.Close()
}

// Status reports the daemon's runtime state.
type Status struct {
	Running      bool
	PID          int
	DatabasePath string
	LockFilePath string
	WatchedDirs  []string
	QueueLength  int
	Stats        map[store.Status]int
}

// Status summarizes the daemon for IPC consumers.
func (d *Daemon) Status(ctx context.Context) Status {
	status := Status{
		Running:      d.running.Load(),
		PID:          os.Getpid(),
		DatabasePath: d.store.Path(),
		LockFilePath: d.lockPath,
		WatchedDirs:  d.files.Watched(),
		QueueLength:  len(d.queue.Queue()),
	}
	if stats, err := d.store.Stats(ctx); err == nil {
		status.Stats = stats
	}
	return status
}
