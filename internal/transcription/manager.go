package transcription

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"murmur/internal/config"
	"murmur/internal/events"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/services/whisper"
	"murmur/internal/store"
)

// ItemStatus is the transient state of an in-memory queue item.
type ItemStatus string

const (
	ItemQueued     ItemStatus = "queued"
	ItemProcessing ItemStatus = "processing"
)

// ItemState is the externally visible snapshot of a queue item.
type ItemState struct {
	RecordingID string
	Status      ItemStatus
	Percent     int
}

type item struct {
	req       Request
	status    ItemStatus
	percent   int
	cancelled bool
}

// Manager owns the transcription queue. It is the sole writer of
// transcription-related recording status and guarantees at most one
// engine process runs at a time.
type Manager struct {
	store   *store.Store
	bus     *events.Bus
	client  whisper.Client
	cfg     *config.Config
	logger  *slog.Logger
	timeout time.Duration

	mu       sync.Mutex
	queue    []*item
	active   *Supervisor
	draining bool
	closed   bool

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a queue manager. The client defaults to the CLI engine
// named in the configuration when nil.
func NewManager(st *store.Store, bus *events.Bus, cfg *config.Config, client whisper.Client, logger *slog.Logger) *Manager {
	if client == nil {
		client = whisper.NewCLI(whisper.WithBinary(cfg.Whisper.Binary))
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		store:   st,
		bus:     bus,
		client:  client,
		cfg:     cfg,
		logger:  logging.NewComponentLogger(logger, "queue"),
		timeout: time.Duration(cfg.Whisper.TimeoutSeconds) * time.Second,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Add enqueues a recording for transcription. Enqueueing an id that is
// already queued or processing is a no-op. The recording's persisted
// status moves to pending before the change notification goes out.
func (m *Manager) Add(ctx context.Context, req Request) error {
	if req.RecordingID == "" {
		return errors.New("transcription: recording id required")
	}

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("transcription: manager stopped")
	}
	if m.queued(req.RecordingID) {
		m.mu.Unlock()
		return nil
	}
	m.mu.Unlock()

	// The pending status must be on disk before the item can reach the
	// drain goroutine; appending first would let the job's processing or
	// terminal write race this one and be overwritten by it.
	if err := m.store.UpdateStatus(ctx, req.RecordingID, store.StatusPending, ""); err != nil {
		return err
	}
	m.bus.Publish(events.RecordingChanged(req.RecordingID, string(store.StatusPending), ""))
	m.logger.Info("queued", logging.String(logging.FieldRecordingID, req.RecordingID))

	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return errors.New("transcription: manager stopped")
	}
	if m.queued(req.RecordingID) {
		m.mu.Unlock()
		return nil
	}
	m.queue = append(m.queue, &item{req: req, status: ItemQueued})
	shouldDrain := !m.draining
	if shouldDrain {
		m.draining = true
		m.wg.Add(1)
	}
	m.mu.Unlock()
	if shouldDrain {
		go m.drain()
	}
	return nil
}

// queued reports whether an id is already in the queue. Callers hold mu.
func (m *Manager) queued(recordingID string) bool {
	for _, existing := range m.queue {
		if existing.req.RecordingID == recordingID {
			return true
		}
	}
	return false
}

// Cancel removes a recording from the queue. The active job is terminated
// first so draining can resume with the next item; an id that is neither
// queued nor processing is a no-op.
func (m *Manager) Cancel(ctx context.Context, recordingID string) error {
	m.mu.Lock()
	var target *item
	index := -1
	for i, existing := range m.queue {
		if existing.req.RecordingID == recordingID {
			target, index = existing, i
			break
		}
	}
	if target == nil {
		m.mu.Unlock()
		return nil
	}

	if target.status == ItemProcessing {
		target.cancelled = true
		supervisor := m.active
		m.mu.Unlock()
		if supervisor != nil {
			supervisor.Terminate()
		}
		return nil
	}

	m.queue = append(m.queue[:index], m.queue[index+1:]...)
	m.mu.Unlock()

	if err := m.store.UpdateStatus(ctx, recordingID, store.StatusCancelled, ""); err != nil {
		return err
	}
	m.bus.Publish(events.RecordingChanged(recordingID, string(store.StatusCancelled), ""))
	m.logger.Info("cancelled before start", logging.String(logging.FieldRecordingID, recordingID))
	return nil
}

// Status reports the transient state of an enqueued recording. The second
// return is false when the id is not in the queue, in which case the
// persisted recording status is authoritative.
func (m *Manager) Status(recordingID string) (ItemState, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.queue {
		if existing.req.RecordingID == recordingID {
			return ItemState{
				RecordingID: recordingID,
				Status:      existing.status,
				Percent:     existing.percent,
			}, true
		}
	}
	return ItemState{}, false
}

// Queue snapshots the queue contents in FIFO order.
func (m *Manager) Queue() []ItemState {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]ItemState, 0, len(m.queue))
	for _, existing := range m.queue {
		snapshot = append(snapshot, ItemState{
			RecordingID: existing.req.RecordingID,
			Status:      existing.status,
			Percent:     existing.percent,
		})
	}
	return snapshot
}

// Stop terminates the active job, rejects further enqueues, and waits for
// the drain goroutine to settle.
func (m *Manager) Stop() {
	m.mu.Lock()
	m.closed = true
	supervisor := m.active
	m.mu.Unlock()

	if supervisor != nil {
		supervisor.Terminate()
	}
	m.cancel()
	m.wg.Wait()
}

func (m *Manager) drain() {
	defer m.wg.Done()
	for {
		m.mu.Lock()
		if m.closed || len(m.queue) == 0 {
			m.draining = false
			m.mu.Unlock()
			return
		}
		head := m.queue[0]
		head.status = ItemProcessing
		supervisor := NewSupervisor(m.client, m.cfg.Whisper.ModelPath, m.timeout, m.bus, m.logger)
		m.active = supervisor
		m.mu.Unlock()

		m.process(head, supervisor)

		m.mu.Lock()
		m.active = nil
		if len(m.queue) > 0 && m.queue[0] == head {
			m.queue = m.queue[1:]
		}
		m.mu.Unlock()
	}
}

// process runs one job to a terminal state. Store writes always land
// before the matching notification is published.
func (m *Manager) process(head *item, supervisor *Supervisor) {
	ctx := services.WithRecordingID(services.WithRequestID(m.ctx, ""), head.req.RecordingID)
	recordingID := head.req.RecordingID

	if err := m.store.UpdateStatus(ctx, recordingID, store.StatusProcessing, ""); err != nil {
		m.logger.Error("persist processing status", logging.Error(err),
			logging.String(logging.FieldRecordingID, recordingID))
		return
	}
	m.bus.Publish(events.RecordingChanged(recordingID, string(store.StatusProcessing), ""))

	language := head.req.Language
	if language == "" {
		language = m.cfg.Whisper.Language
	}

	result, err := supervisor.Transcribe(ctx, Request{
		RecordingID: recordingID,
		FilePath:    head.req.FilePath,
		Language:    language,
	}, func(percent int) {
		m.mu.Lock()
		head.percent = percent
		m.mu.Unlock()
	})

	m.mu.Lock()
	wasCancelled := head.cancelled
	m.mu.Unlock()

	// Terminal status writes must land even when the job's context was
	// cancelled, so they run on a detached context.
	ctx = context.WithoutCancel(ctx)

	switch {
	case err == nil:
		segments := make([]store.Segment, 0, len(result.Segments))
		var confidenceSum float64
		for _, segment := range result.Segments {
			segments = append(segments, store.Segment{
				StartTime:  segment.StartTime,
				EndTime:    segment.EndTime,
				Text:       segment.Text,
				Confidence: segment.Confidence,
			})
			confidenceSum += segment.Confidence
		}
		var confidence float64
		if len(segments) > 0 {
			confidence = confidenceSum / float64(len(segments))
		}
		if _, storeErr := m.store.CompleteRecording(ctx, recordingID, store.TranscriptionResult{
			Content:    result.Text,
			Language:   result.Language,
			Confidence: confidence,
			Segments:   segments,
		}); storeErr != nil {
			m.failJob(ctx, recordingID, storeErr)
			return
		}
		m.bus.Publish(events.RecordingChanged(recordingID, string(store.StatusCompleted), ""))
		m.bus.Publish(events.TranscriptionCompleted(recordingID))

	case wasCancelled || errors.Is(err, context.Canceled):
		if storeErr := m.store.UpdateStatus(ctx, recordingID, store.StatusCancelled, ""); storeErr != nil {
			m.logger.Error("persist cancelled status", logging.Error(storeErr),
				logging.String(logging.FieldRecordingID, recordingID))
		}
		m.bus.Publish(events.RecordingChanged(recordingID, string(store.StatusCancelled), ""))
		m.logger.Info("cancelled", logging.String(logging.FieldRecordingID, recordingID))

	default:
		m.failJob(ctx, recordingID, err)
	}
}

func (m *Manager) failJob(ctx context.Context, recordingID string, err error) {
	message := err.Error()
	if storeErr := m.store.UpdateStatus(ctx, recordingID, store.StatusError, message); storeErr != nil {
		m.logger.Error("persist error status", logging.Error(storeErr),
			logging.String(logging.FieldRecordingID, recordingID))
	}
	m.bus.Publish(events.RecordingChanged(recordingID, string(store.StatusError), message))
	m.bus.Publish(events.TranscriptionError(recordingID, message))
	m.logger.Error("transcription failed",
		logging.String(logging.FieldRecordingID, recordingID),
		logging.Error(err),
		logging.String(logging.FieldErrorHint, services.Hint(err)))
}
