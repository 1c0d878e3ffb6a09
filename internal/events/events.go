package events

import "time"

// Type identifies an event variant. The set is closed: every publisher uses
// one of the constructors below.
type Type string

const (
	TypeRecordingAdded         Type = "recording-added"
	TypeRecordingChanged       Type = "recording-changed"
	TypeRecordingRemoved       Type = "recording-removed"
	TypeTranscriptionProgress  Type = "transcription-progress"
	TypeTranscriptionCompleted Type = "transcription-completed"
	TypeTranscriptionError     Type = "transcription-error"
	TypeScanProgress           Type = "scan-progress"
	TypeWatcherError           Type = "watcher-error"
)

// Event is one bus notification. Sequence and Timestamp are assigned by the
// bus on publish; the remaining fields depend on Type.
type Event struct {
	Sequence  uint64    `json:"seq"`
	Timestamp time.Time `json:"ts"`
	Type      Type      `json:"type"`

	RecordingID string `json:"recording_id,omitempty"`
	Path        string `json:"path,omitempty"`
	Status      string `json:"status,omitempty"`
	Error       string `json:"error,omitempty"`

	// PercentComplete is set for transcription-progress events.
	PercentComplete int `json:"percent_complete,omitempty"`

	// Directory, Processed, and Total are set for scan-progress events.
	Directory string `json:"directory,omitempty"`
	Processed int    `json:"processed,omitempty"`
	Total     int    `json:"total,omitempty"`
}

// RecordingAdded reports a newly ingested recording.
func RecordingAdded(recordingID, path string) Event {
	return Event{Type: TypeRecordingAdded, RecordingID: recordingID, Path: path}
}

// RecordingChanged reports a status change on a recording.
func RecordingChanged(recordingID, status, errMessage string) Event {
	return Event{Type: TypeRecordingChanged, RecordingID: recordingID, Status: status, Error: errMessage}
}

// RecordingRemoved reports deletion of a recording.
func RecordingRemoved(recordingID, path string) Event {
	return Event{Type: TypeRecordingRemoved, RecordingID: recordingID, Path: path}
}

// TranscriptionProgress reports engine percentage for an active job.
func TranscriptionProgress(recordingID string, percent int) Event {
	return Event{Type: TypeTranscriptionProgress, RecordingID: recordingID, PercentComplete: percent}
}

// TranscriptionCompleted reports a finished transcription.
func TranscriptionCompleted(recordingID string) Event {
	return Event{Type: TypeTranscriptionCompleted, RecordingID: recordingID}
}

// TranscriptionError reports a failed transcription.
func TranscriptionError(recordingID, message string) Event {
	return Event{Type: TypeTranscriptionError, RecordingID: recordingID, Error: message}
}

// ScanProgress reports per-file progress of an initial directory scan.
func ScanProgress(directory string, processed, total int) Event {
	return Event{Type: TypeScanProgress, Directory: directory, Processed: processed, Total: total}
}

// WatcherError reports an ingestion failure surfaced to observers.
func WatcherError(path, message string) Event {
	return Event{Type: TypeWatcherError, Path: path, Error: message}
}
