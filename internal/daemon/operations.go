package daemon

import (
	"context"
	"errors"
	"fmt"

	"murmur/internal/events"
	"murmur/internal/store"
	"murmur/internal/transcription"
)

// ListRecordings returns recordings filtered by optional statuses.
func (d *Daemon) ListRecordings(ctx context.Context, statuses ...store.Status) ([]*store.Recording, error) {
	return d.store.ListRecordings(ctx, statuses...)
}

// GetRecording fetches one recording by id.
func (d *Daemon) GetRecording(ctx context.Context, id string) (*store.Recording, error) {
	return d.store.GetRecording(ctx, id)
}

// AddRecording registers an audio file explicitly, bypassing the watch flow.
func (d *Daemon) AddRecording(ctx context.Context, path string) (*store.Recording, error) {
	return d.files.IngestFile(path)
}

// UpdateRecordingStatus moves a recording to the given status and
// publishes the change after the write lands.
func (d *Daemon) UpdateRecordingStatus(ctx context.Context, id string, status store.Status, errorMessage string) error {
	if err := d.store.UpdateStatus(ctx, id, status, errorMessage); err != nil {
		return err
	}
	d.bus.Publish(events.RecordingChanged(id, string(status), errorMessage))
	return nil
}

// RemoveRecording deletes a recording (and its transcription via cascade)
// and publishes the removal.
func (d *Daemon) RemoveRecording(ctx context.Context, id string) error {
	rec, err := d.store.GetRecording(ctx, id)
	if err != nil {
		return err
	}
	if err := d.store.RemoveRecording(ctx, id); err != nil {
		return err
	}
	d.bus.Publish(events.RecordingRemoved(rec.ID, rec.Filepath))
	return nil
}

// StartTranscription enqueues a recording for transcription. When the
// file path is omitted it is resolved from the stored recording, and when
// no language is given the one probed from the file's metadata applies.
func (d *Daemon) StartTranscription(ctx context.Context, recordingID, filePath, language string) error {
	if filePath == "" || language == "" {
		rec, err := d.store.GetRecording(ctx, recordingID)
		if err != nil {
			return fmt.Errorf("resolve recording: %w", err)
		}
		if filePath == "" {
			filePath = rec.Filepath
		}
		if language == "" && rec.Metadata != nil {
			language = rec.Metadata.Language
		}
	}
	return d.queue.Add(ctx, transcription.Request{
		RecordingID: recordingID,
		FilePath:    filePath,
		Language:    language,
	})
}

// CancelTranscription removes a recording from the transcription queue,
// terminating the engine process when it is the active job.
func (d *Daemon) CancelTranscription(ctx context.Context, recordingID string) error {
	return d.queue.Cancel(ctx, recordingID)
}

// TranscriptionStatus reports the authoritative status for a recording:
// the in-memory queue state while queued or processing, and the persisted
// recording status otherwise.
func (d *Daemon) TranscriptionStatus(ctx context.Context, recordingID string) (string, string, error) {
	if state, ok := d.queue.Status(recordingID); ok {
		switch state.Status {
		case transcription.ItemProcessing:
			return string(store.StatusProcessing), "", nil
		default:
			return string(store.StatusPending), "", nil
		}
	}
	rec, err := d.store.GetRecording(ctx, recordingID)
	if err != nil {
		return "", "", err
	}
	return string(rec.Status), rec.ErrorMessage, nil
}

// TranscriptionProgress reports the active job's percent complete. Zero
// for recordings that are not currently in the queue.
func (d *Daemon) TranscriptionProgress(recordingID string) int {
	if state, ok := d.queue.Status(recordingID); ok {
		return state.Percent
	}
	return 0
}

// GetTranscription fetches the transcript attached to a recording, or nil
// when none exists yet.
func (d *Daemon) GetTranscription(ctx context.Context, recordingID string) (*store.Transcription, error) {
	tr, err := d.store.GetTranscription(ctx, recordingID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	return tr, err
}

// SaveTranscription replaces the edited content of a stored transcript.
func (d *Daemon) SaveTranscription(ctx context.Context, recordingID, content string) (*store.Transcription, error) {
	return d.store.UpdateTranscriptionContent(ctx, recordingID, content)
}

// WatchDirectory adds a directory to the watch set and persists it.
func (d *Daemon) WatchDirectory(ctx context.Context, dir string) error {
	if err := d.files.Watch(ctx, dir); err != nil {
		return err
	}
	return d.store.SetWatchedDirectories(ctx, d.files.Watched())
}

// UnwatchDirectory removes a directory from the watch set and persists
// the reduced set.
func (d *Daemon) UnwatchDirectory(ctx context.Context, dir string) error {
	d.files.Unwatch(dir)
	return d.store.SetWatchedDirectories(ctx, d.files.Watched())
}

// WatchedDirectories lists the live watch set.
func (d *Daemon) WatchedDirectories() []string {
	return d.files.Watched()
}

// Settings returns every stored setting.
func (d *Daemon) Settings(ctx context.Context) (map[string]string, error) {
	return d.store.AllSettings(ctx)
}

// Setting returns the value stored for one key, or store.ErrNotFound.
func (d *Daemon) Setting(ctx context.Context, key string) (string, error) {
	return d.store.GetSetting(ctx, key)
}

// SaveSetting stores one key/value pair.
func (d *Daemon) SaveSetting(ctx context.Context, key, value string) error {
	return d.store.SetSetting(ctx, key, value)
}

// Events long-polls the bus for notifications after the given sequence.
func (d *Daemon) Events(ctx context.Context, since uint64, limit int, wait bool) ([]events.Event, uint64, error) {
	return d.bus.Fetch(ctx, since, limit, wait)
}
