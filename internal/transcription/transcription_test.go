package transcription

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"murmur/internal/config"
	"murmur/internal/events"
	"murmur/internal/services"
	"murmur/internal/services/whisper"
	"murmur/internal/store"
	"murmur/internal/testsupport"
)

// stubEngine stands in for the external engine. It replays scripted
// progress, optionally blocks until released, and honors cancellation.
type stubEngine struct {
	mu       sync.Mutex
	calls    int
	block    chan struct{}
	result   whisper.Result
	err      error
	progress []int
}

func (s *stubEngine) Transcribe(ctx context.Context, _ whisper.Request, progress func(whisper.ProgressUpdate)) (whisper.Result, error) {
	s.mu.Lock()
	s.calls++
	block := s.block
	s.mu.Unlock()

	for _, percent := range s.progress {
		if progress != nil {
			progress(whisper.ProgressUpdate{Percent: percent})
		}
	}
	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return whisper.Result{}, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return whisper.Result{}, err
	}
	return s.result, s.err
}

func (s *stubEngine) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func newTestConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Whisper.TimeoutSeconds = 5
	return cfg
}

func newTestManager(t *testing.T, engine whisper.Client) (*Manager, *store.Store, *events.Bus) {
	t.Helper()
	cfg := newTestConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	bus := events.NewBus(256)
	mgr := NewManager(st, bus, cfg, engine, nil)
	t.Cleanup(mgr.Stop)
	return mgr, st, bus
}

func addRecording(t *testing.T, st *store.Store, path string) *store.Recording {
	t.Helper()
	rec, err := st.UpsertByPath(context.Background(), store.NewFileRecording{
		Filepath:   path,
		Filesize:   100,
		Duration:   4,
		ModifiedAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertByPath: %v", err)
	}
	return rec
}

func waitForStatus(t *testing.T, st *store.Store, id string, want store.Status) *store.Recording {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		rec, err := st.GetRecording(context.Background(), id)
		if err != nil {
			t.Fatalf("GetRecording: %v", err)
		}
		if rec.Status == want {
			return rec
		}
		time.Sleep(10 * time.Millisecond)
	}
	rec, _ := st.GetRecording(context.Background(), id)
	t.Fatalf("recording %s never reached %s (last %s)", id, want, rec.Status)
	return nil
}

func TestSupervisorSuppressesDuplicateProgress(t *testing.T) {
	engine := &stubEngine{
		progress: []int{10, 10, 25, 20, 80, 80, 100},
		result:   whisper.Result{Text: "done"},
	}
	bus := events.NewBus(64)
	sub := bus.Subscribe()
	defer sub.Close()

	sup := NewSupervisor(engine, "/models/tiny.bin", time.Minute, bus, nil)
	var seen []int
	if _, err := sup.Transcribe(context.Background(), Request{RecordingID: "rec-1", FilePath: "/audio/a.wav"}, func(percent int) {
		seen = append(seen, percent)
	}); err != nil {
		t.Fatalf("Transcribe: %v", err)
	}

	want := []int{10, 25, 80, 100}
	if len(seen) != len(want) {
		t.Fatalf("progress = %v, want %v", seen, want)
	}
	for i := range want {
		if seen[i] != want[i] {
			t.Fatalf("progress = %v, want %v", seen, want)
		}
	}
	if sup.State() != StateSucceeded {
		t.Fatalf("state = %s", sup.State())
	}
}

func TestSupervisorIsSingleUse(t *testing.T) {
	engine := &stubEngine{result: whisper.Result{Text: "x"}}
	sup := NewSupervisor(engine, "/models/tiny.bin", time.Minute, events.NewBus(8), nil)
	req := Request{RecordingID: "rec-1", FilePath: "/audio/a.wav"}

	if _, err := sup.Transcribe(context.Background(), req, nil); err != nil {
		t.Fatalf("first Transcribe: %v", err)
	}
	if _, err := sup.Transcribe(context.Background(), req, nil); !errors.Is(err, ErrSupervisorBusy) {
		t.Fatalf("second Transcribe = %v, want ErrSupervisorBusy", err)
	}
}

func TestSupervisorRejectsBlankRequest(t *testing.T) {
	sup := NewSupervisor(&stubEngine{}, "/models/tiny.bin", time.Minute, events.NewBus(8), nil)
	if _, err := sup.Transcribe(context.Background(), Request{FilePath: "/audio/a.wav"}, nil); !errors.Is(err, services.ErrValidation) {
		t.Fatalf("err = %v, want validation error", err)
	}
	if sup.State() != StateFailed {
		t.Fatalf("state = %s", sup.State())
	}
}

func TestSupervisorTerminateSafeWhenNeverStarted(t *testing.T) {
	sup := NewSupervisor(&stubEngine{}, "/models/tiny.bin", time.Minute, events.NewBus(8), nil)
	sup.Terminate()
	sup.Terminate()
	if sup.State() != StateIdle {
		t.Fatalf("state = %s", sup.State())
	}
}

func TestManagerCompletesJobAndStoresTranscript(t *testing.T) {
	engine := &stubEngine{
		progress: []int{50, 100},
		result: whisper.Result{
			Text:     "hello world",
			Language: "en",
			Segments: []whisper.Segment{
				{StartTime: 0, EndTime: 1, Text: "hello", Confidence: 0.9},
				{StartTime: 1, EndTime: 2, Text: "world", Confidence: 0.7},
			},
		},
	}
	mgr, st, bus := newTestManager(t, engine)
	sub := bus.Subscribe()
	defer sub.Close()

	rec := addRecording(t, st, "/audio/hello.wav")
	if err := mgr.Add(context.Background(), Request{RecordingID: rec.ID, FilePath: rec.Filepath}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	waitForStatus(t, st, rec.ID, store.StatusCompleted)

	tr, err := st.GetTranscription(context.Background(), rec.ID)
	if err != nil {
		t.Fatalf("GetTranscription: %v", err)
	}
	if tr.Content != "hello world" || len(tr.Segments) != 2 {
		t.Fatalf("transcription = %+v", tr)
	}
	// Overall confidence is the mean of the segment confidences.
	if tr.Confidence < 0.799 || tr.Confidence > 0.801 {
		t.Fatalf("confidence = %v, want 0.8", tr.Confidence)
	}
}

func TestManagerAddIsIdempotent(t *testing.T) {
	engine := &stubEngine{block: make(chan struct{}), result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	rec := addRecording(t, st, "/audio/dup.wav")
	req := Request{RecordingID: rec.ID, FilePath: rec.Filepath}
	if err := mgr.Add(context.Background(), req); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if err := mgr.Add(context.Background(), req); err != nil {
		t.Fatalf("second Add: %v", err)
	}
	if got := len(mgr.Queue()); got != 1 {
		t.Fatalf("queue length = %d, want 1", got)
	}
	close(engine.block)
	waitForStatus(t, st, rec.ID, store.StatusCompleted)
}

func TestManagerDrainsSeriallyInOrder(t *testing.T) {
	engine := &stubEngine{result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	first := addRecording(t, st, "/audio/first.wav")
	second := addRecording(t, st, "/audio/second.wav")

	if err := mgr.Add(context.Background(), Request{RecordingID: first.ID, FilePath: first.Filepath}); err != nil {
		t.Fatalf("Add first: %v", err)
	}
	if err := mgr.Add(context.Background(), Request{RecordingID: second.ID, FilePath: second.Filepath}); err != nil {
		t.Fatalf("Add second: %v", err)
	}

	waitForStatus(t, st, first.ID, store.StatusCompleted)
	waitForStatus(t, st, second.ID, store.StatusCompleted)
	if engine.callCount() != 2 {
		t.Fatalf("engine calls = %d, want 2", engine.callCount())
	}
}

func TestManagerEnqueueNeverRegressesTerminalStatus(t *testing.T) {
	engine := &stubEngine{result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	// An instantly completing engine makes each job race its own enqueue:
	// if the pending write landed after the item became visible to the
	// drain goroutine, it would overwrite the terminal status.
	const jobs = 60
	ids := make([]string, 0, jobs)
	for i := 0; i < jobs; i++ {
		rec := addRecording(t, st, fmt.Sprintf("/audio/burst-%02d.wav", i))
		ids = append(ids, rec.ID)
		if err := mgr.Add(context.Background(), Request{RecordingID: rec.ID, FilePath: rec.Filepath}); err != nil {
			t.Fatalf("Add %d: %v", i, err)
		}
	}

	deadline := time.Now().Add(10 * time.Second)
	for time.Now().Before(deadline) && len(mgr.Queue()) > 0 {
		time.Sleep(10 * time.Millisecond)
	}
	if remaining := mgr.Queue(); len(remaining) > 0 {
		t.Fatalf("queue not drained, %d items left", len(remaining))
	}

	for _, id := range ids {
		rec, err := st.GetRecording(context.Background(), id)
		if err != nil {
			t.Fatalf("GetRecording %s: %v", id, err)
		}
		if rec.Status != store.StatusCompleted {
			t.Fatalf("recording %s finished as %q with empty queue", id, rec.Status)
		}
	}
	if engine.callCount() != jobs {
		t.Fatalf("engine calls = %d, want %d", engine.callCount(), jobs)
	}
}

func TestManagerPersistsFailure(t *testing.T) {
	engine := &stubEngine{err: services.Wrap(services.ErrExternalTool, "transcriber", "run", "process failed", errors.New("exit 2"))}
	mgr, st, _ := newTestManager(t, engine)

	rec := addRecording(t, st, "/audio/bad.wav")
	if err := mgr.Add(context.Background(), Request{RecordingID: rec.ID, FilePath: rec.Filepath}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	failed := waitForStatus(t, st, rec.ID, store.StatusError)
	if failed.ErrorMessage == "" {
		t.Fatal("expected persisted error message")
	}
}

func TestManagerCancelQueuedItem(t *testing.T) {
	engine := &stubEngine{block: make(chan struct{}), result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	running := addRecording(t, st, "/audio/running.wav")
	waiting := addRecording(t, st, "/audio/waiting.wav")

	if err := mgr.Add(context.Background(), Request{RecordingID: running.ID, FilePath: running.Filepath}); err != nil {
		t.Fatalf("Add running: %v", err)
	}
	if err := mgr.Add(context.Background(), Request{RecordingID: waiting.ID, FilePath: waiting.Filepath}); err != nil {
		t.Fatalf("Add waiting: %v", err)
	}

	waitForStatus(t, st, running.ID, store.StatusProcessing)
	if err := mgr.Cancel(context.Background(), waiting.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	waitForStatus(t, st, waiting.ID, store.StatusCancelled)

	close(engine.block)
	waitForStatus(t, st, running.ID, store.StatusCompleted)
	if engine.callCount() != 1 {
		t.Fatalf("cancelled item still ran: calls = %d", engine.callCount())
	}
}

func TestManagerCancelActiveJobResumesDraining(t *testing.T) {
	engine := &stubEngine{block: make(chan struct{}), result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	active := addRecording(t, st, "/audio/active.wav")
	next := addRecording(t, st, "/audio/next.wav")

	if err := mgr.Add(context.Background(), Request{RecordingID: active.ID, FilePath: active.Filepath}); err != nil {
		t.Fatalf("Add active: %v", err)
	}
	if err := mgr.Add(context.Background(), Request{RecordingID: next.ID, FilePath: next.Filepath}); err != nil {
		t.Fatalf("Add next: %v", err)
	}

	waitForStatus(t, st, active.ID, store.StatusProcessing)
	engine.mu.Lock()
	engine.block = nil // let the next job run straight through
	engine.mu.Unlock()

	if err := mgr.Cancel(context.Background(), active.ID); err != nil {
		t.Fatalf("Cancel: %v", err)
	}

	waitForStatus(t, st, active.ID, store.StatusCancelled)
	waitForStatus(t, st, next.ID, store.StatusCompleted)
}

func TestManagerCancelUnknownIsNoOp(t *testing.T) {
	mgr, _, _ := newTestManager(t, &stubEngine{})
	if err := mgr.Cancel(context.Background(), "no-such-id"); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
}

func TestManagerStatusReportsQueueState(t *testing.T) {
	engine := &stubEngine{block: make(chan struct{}), progress: []int{40}, result: whisper.Result{Text: "x"}}
	mgr, st, _ := newTestManager(t, engine)

	rec := addRecording(t, st, "/audio/status.wav")
	if err := mgr.Add(context.Background(), Request{RecordingID: rec.ID, FilePath: rec.Filepath}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	waitForStatus(t, st, rec.ID, store.StatusProcessing)
	state, ok := mgr.Status(rec.ID)
	if !ok || state.Status != ItemProcessing {
		t.Fatalf("state = %+v, ok = %v", state, ok)
	}
	if state.Percent != 40 {
		t.Fatalf("percent = %d, want 40", state.Percent)
	}

	close(engine.block)
	waitForStatus(t, st, rec.ID, store.StatusCompleted)
	if _, ok := mgr.Status(rec.ID); ok {
		t.Fatal("expected item to leave the queue after completion")
	}
}
