package api

// dateTimeFormat is used for RFC3339 timestamps in API payloads.
const dateTimeFormat = "2006-01-02T15:04:05.000Z07:00"

// Recording describes a tracked audio file in a transport-friendly format.
type Recording struct {
	ID           string    `json:"id"`
	Filepath     string    `json:"filepath"`
	Filename     string    `json:"filename"`
	Filesize     int64     `json:"filesize"`
	Duration     float64   `json:"duration"`
	Status       string    `json:"status"`
	ErrorMessage string    `json:"errorMessage,omitempty"`
	CreatedAt    string    `json:"createdAt,omitempty"`
	ModifiedAt   string    `json:"modifiedAt,omitempty"`
	Metadata     *Metadata `json:"metadata,omitempty"`
}

// Metadata carries the probed structural properties of an audio file.
type Metadata struct {
	Format     string `json:"format"`
	Codec      string `json:"codec"`
	BitRate    int64  `json:"bitRate"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sampleRate"`
	Language   string `json:"language,omitempty"`
}

// Segment is one timed span of a transcript.
type Segment struct {
	StartTime  float64 `json:"startTime"`
	EndTime    float64 `json:"endTime"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the transcript attached to a recording.
type Transcription struct {
	ID          string    `json:"id"`
	RecordingID string    `json:"recordingId"`
	Content     string    `json:"content"`
	Language    string    `json:"language"`
	Confidence  float64   `json:"confidence"`
	Segments    []Segment `json:"segments"`
	CreatedAt   string    `json:"createdAt,omitempty"`
	ModifiedAt  string    `json:"modifiedAt,omitempty"`
}

// TranscriptionProgress reports live progress for an active job.
type TranscriptionProgress struct {
	RecordingID     string `json:"recordingId"`
	PercentComplete int    `json:"percentComplete"`
}

// DaemonStatus aggregates daemon runtime information for API consumers.
type DaemonStatus struct {
	Running      bool           `json:"running"`
	PID          int            `json:"pid"`
	DatabasePath string         `json:"databasePath"`
	LockFilePath string         `json:"lockFilePath"`
	WatchedDirs  []string       `json:"watchedDirs"`
	QueueLength  int            `json:"queueLength"`
	Stats        map[string]int `json:"stats"`
}
