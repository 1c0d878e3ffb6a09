package ipc

import (
	"murmur/internal/api"
	"murmur/internal/events"
)

// Recording mirrors the API recording DTO for IPC callers.
type Recording = api.Recording

// Transcription mirrors the API transcription DTO for IPC callers.
type Transcription = api.Transcription

// StatusRequest fetches daemon status.
type StatusRequest struct{}

// StatusResponse represents daemon runtime information.
type StatusResponse struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"database_path"`
	LockPath     string         `json:"lock_path"`
	WatchedDirs  []string       `json:"watched_dirs"`
	QueueLength  int            `json:"queue_length"`
	Stats        map[string]int `json:"stats"`
}

// StopRequest stops the daemon.
type StopRequest struct{}

// StopResponse indicates stop result.
type StopResponse struct {
	Stopped bool `json:"stopped"`
}

// SettingsListRequest fetches all settings.
type SettingsListRequest struct{}

// SettingsListResponse contains stored settings.
type SettingsListResponse struct {
	Settings map[string]string `json:"settings"`
}

// SettingGetRequest fetches one setting by key.
type SettingGetRequest struct {
	Key string `json:"key"`
}

// SettingGetResponse carries one setting value. Found is false when the
// key has no stored value.
type SettingGetResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
	Found bool   `json:"found"`
}

// SettingSaveRequest stores one setting.
type SettingSaveRequest struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// SettingSaveResponse reports save result.
type SettingSaveResponse struct {
	Success bool `json:"success"`
}

// RecordingListRequest filters recordings by status.
type RecordingListRequest struct {
	Statuses []string `json:"statuses"`
}

// RecordingListResponse contains recording entries.
type RecordingListResponse struct {
	Recordings []Recording `json:"recordings"`
}

// RecordingGetRequest fetches a single recording by id.
type RecordingGetRequest struct {
	ID string `json:"id"`
}

// RecordingGetResponse contains a single recording; nil when absent.
type RecordingGetResponse struct {
	Recording *Recording `json:"recording"`
}

// RecordingAddRequest registers an audio file explicitly.
type RecordingAddRequest struct {
	Path string `json:"path"`
}

// RecordingAddResponse returns the new recording's id.
type RecordingAddResponse struct {
	ID string `json:"id"`
}

// RecordingUpdateStatusRequest moves a recording to a new status.
type RecordingUpdateStatusRequest struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
}

// RecordingUpdateStatusResponse reports update result.
type RecordingUpdateStatusResponse struct {
	Success bool `json:"success"`
}

// RecordingRemoveRequest deletes a recording.
type RecordingRemoveRequest struct {
	ID string `json:"id"`
}

// RecordingRemoveResponse reports removal result.
type RecordingRemoveResponse struct {
	Success bool `json:"success"`
}

// TranscribeStartRequest enqueues a transcription job.
type TranscribeStartRequest struct {
	RecordingID string `json:"recording_id"`
	FilePath    string `json:"file_path"`
	Language    string `json:"language"`
}

// TranscribeStartResponse reports enqueue result.
type TranscribeStartResponse struct {
	Success bool `json:"success"`
}

// TranscribeCancelRequest cancels a queued or active job.
type TranscribeCancelRequest struct {
	RecordingID string `json:"recording_id"`
}

// TranscribeCancelResponse reports cancel result.
type TranscribeCancelResponse struct {
	Success bool `json:"success"`
}

// TranscribeStatusRequest fetches transcription status for a recording.
type TranscribeStatusRequest struct {
	RecordingID string `json:"recording_id"`
}

// TranscribeStatusResponse carries the authoritative status.
type TranscribeStatusResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// TranscribeProgressRequest fetches live job progress.
type TranscribeProgressRequest struct {
	RecordingID string `json:"recording_id"`
}

// TranscribeProgressResponse carries the latest percentage.
type TranscribeProgressResponse struct {
	PercentComplete int `json:"percent_complete"`
}

// TranscriptionGetRequest fetches the transcript for a recording.
type TranscriptionGetRequest struct {
	RecordingID string `json:"recording_id"`
}

// TranscriptionGetResponse contains the transcript; nil when absent.
type TranscriptionGetResponse struct {
	Transcription *Transcription `json:"transcription"`
}

// TranscriptionSaveRequest replaces the edited transcript content.
type TranscriptionSaveRequest struct {
	RecordingID string `json:"recording_id"`
	Content     string `json:"content"`
}

// TranscriptionSaveResponse reports save result.
type TranscriptionSaveResponse struct {
	Success bool `json:"success"`
}

// WatchAddRequest starts watching a directory.
type WatchAddRequest struct {
	Path string `json:"path"`
}

// WatchAddResponse reports watch result.
type WatchAddResponse struct {
	Success bool `json:"success"`
}

// WatchRemoveRequest stops watching a directory.
type WatchRemoveRequest struct {
	Path string `json:"path"`
}

// WatchRemoveResponse reports unwatch result.
type WatchRemoveResponse struct {
	Success bool `json:"success"`
}

// WatchListRequest fetches the watched directory set.
type WatchListRequest struct{}

// WatchListResponse contains the watched directories.
type WatchListResponse struct {
	Paths []string `json:"paths"`
}

// EventsRequest long-polls for notifications after a sequence number.
type EventsRequest struct {
	Since      uint64 `json:"since"`
	Limit      int    `json:"limit"`
	Wait       bool   `json:"wait"`
	WaitMillis int    `json:"wait_millis"`
}

// EventsResponse returns notifications and the next sequence cursor.
type EventsResponse struct {
	Events []events.Event `json:"events"`
	Next   uint64         `json:"next"`
}
