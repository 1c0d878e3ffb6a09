package transcription

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"murmur/internal/events"
	"murmur/internal/logging"
	"murmur/internal/services"
	"murmur/internal/services/whisper"
)

// SupervisorState tracks one job's lifecycle.
type SupervisorState string

const (
	StateIdle      SupervisorState = "idle"
	StateStarting  SupervisorState = "starting"
	StateRunning   SupervisorState = "running"
	StateSucceeded SupervisorState = "succeeded"
	StateFailed    SupervisorState = "failed"
	StateCancelled SupervisorState = "cancelled"
)

// ErrSupervisorBusy reports a Transcribe call on a supervisor that already
// ran or is running a job. Supervisors are single-use.
var ErrSupervisorBusy = errors.New("transcription: supervisor already used")

// Request identifies one transcription job.
type Request struct {
	RecordingID string
	FilePath    string
	Language    string
}

// Supervisor owns the lifecycle of one external engine process. Each
// instance runs at most one job; the queue manager constructs a fresh
// supervisor per dequeued item.
type Supervisor struct {
	client    whisper.Client
	modelPath string
	timeout   time.Duration
	bus       *events.Bus
	logger    *slog.Logger

	mu          sync.Mutex
	state       SupervisorState
	cancel      context.CancelFunc
	lastPercent int
}

// NewSupervisor builds a single-use supervisor around the given engine
// client. A nil logger disables supervisor logging.
func NewSupervisor(client whisper.Client, modelPath string, timeout time.Duration, bus *events.Bus, logger *slog.Logger) *Supervisor {
	return &Supervisor{
		client:      client,
		modelPath:   modelPath,
		timeout:     timeout,
		bus:         bus,
		logger:      logging.NewComponentLogger(logger, "supervisor"),
		state:       StateIdle,
		lastPercent: -1,
	}
}

// State returns the supervisor's current lifecycle state.
func (s *Supervisor) State() SupervisorState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Transcribe runs one job to completion, forwarding de-duplicated progress
// to the event bus and the optional onProgress hook. It returns exactly
// once per supervisor; a second call fails with ErrSupervisorBusy.
func (s *Supervisor) Transcribe(ctx context.Context, req Request, onProgress func(percent int)) (whisper.Result, error) {
	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return whisper.Result{}, ErrSupervisorBusy
	}
	s.state = StateStarting
	s.mu.Unlock()

	if strings.TrimSpace(req.RecordingID) == "" {
		return whisper.Result{}, s.finish(StateFailed, whisper.Result{},
			services.Wrap(services.ErrValidation, "supervisor", "start", "recording id required", nil))
	}
	if strings.TrimSpace(req.FilePath) == "" {
		return whisper.Result{}, s.finish(StateFailed, whisper.Result{},
			services.Wrap(services.ErrValidation, "supervisor", "start", "file path required", nil))
	}

	jobCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	s.mu.Lock()
	s.cancel = cancel
	s.state = StateRunning
	s.mu.Unlock()

	s.logger.Info("transcription started",
		logging.String(logging.FieldRecordingID, req.RecordingID),
		logging.String(logging.FieldPath, req.FilePath))

	result, err := s.client.Transcribe(jobCtx, whisper.Request{
		AudioPath: req.FilePath,
		ModelPath: s.modelPath,
		Language:  req.Language,
	}, func(update whisper.ProgressUpdate) {
		s.forwardProgress(req.RecordingID, update.Percent, onProgress)
	})

	switch {
	case err == nil:
		s.logger.Info("transcription finished",
			logging.String(logging.FieldRecordingID, req.RecordingID))
		return result, s.finish(StateSucceeded, result, nil)
	case errors.Is(err, context.Canceled):
		return whisper.Result{}, s.finish(StateCancelled, whisper.Result{}, err)
	default:
		s.logger.Error("transcription failed",
			logging.String(logging.FieldRecordingID, req.RecordingID),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, services.Hint(err)))
		return whisper.Result{}, s.finish(StateFailed, whisper.Result{}, err)
	}
}

// Terminate asks the running engine process to exit, escalating to a kill
// after the grace period. Idempotent and safe on a supervisor that never
// started or already finished.
func (s *Supervisor) Terminate() {
	s.mu.Lock()
	cancel := s.cancel
	running := s.state == StateRunning || s.state == StateStarting
	s.mu.Unlock()

	if running && cancel != nil {
		cancel()
	}
}

func (s *Supervisor) finish(state SupervisorState, _ whisper.Result, err error) error {
	s.mu.Lock()
	if s.state == StateRunning || s.state == StateStarting {
		s.state = state
	}
	s.cancel = nil
	s.mu.Unlock()
	return err
}

// forwardProgress suppresses repeated and regressing percentages so
// observers see a strictly increasing sequence.
func (s *Supervisor) forwardProgress(recordingID string, percent int, onProgress func(int)) {
	s.mu.Lock()
	if percent <= s.lastPercent {
		s.mu.Unlock()
		return
	}
	s.lastPercent = percent
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(events.TranscriptionProgress(recordingID, percent))
	}
	if onProgress != nil {
		onProgress(percent)
	}
}
