package store

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Status represents the transcription lifecycle of a recording.
type Status string

const (
	StatusUnprocessed Status = "unprocessed"
	StatusPending     Status = "pending"
	StatusProcessing  Status = "processing"
	StatusCompleted   Status = "completed"
	StatusError       Status = "error"
	StatusCancelled   Status = "cancelled"
)

var allStatuses = []Status{
	StatusUnprocessed,
	StatusPending,
	StatusProcessing,
	StatusCompleted,
	StatusError,
	StatusCancelled,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a status ends the transcription lifecycle.
func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusError, StatusCancelled:
		return true
	default:
		return false
	}
}

// Metadata holds the structural properties probed from an audio file.
// Immutable once extracted.
type Metadata struct {
	Format     string `json:"format"`
	Codec      string `json:"codec"`
	BitRate    int64  `json:"bit_rate"`
	Channels   int    `json:"channels"`
	SampleRate int    `json:"sample_rate"`
	// Language is the normalized language tag from the container
	// metadata, when present. Used as the default transcription language.
	Language string `json:"language,omitempty"`
}

// Recording represents one managed audio file.
type Recording struct {
	ID           string
	Filepath     string
	Filename     string
	Filesize     int64
	Duration     float64
	CreatedAt    time.Time
	ModifiedAt   time.Time
	Status       Status
	ErrorMessage string
	Metadata     *Metadata
}

// Segment is one timed span of transcribed speech.
type Segment struct {
	StartTime  float64 `json:"start_time"`
	EndTime    float64 `json:"end_time"`
	Text       string  `json:"text"`
	Confidence float64 `json:"confidence"`
}

// Transcription is the output artifact for exactly one recording. It is
// replaced wholesale on re-transcription, never mutated in place.
type Transcription struct {
	ID          string
	RecordingID string
	Content     string
	Language    string
	Confidence  float64
	Segments    []Segment
	CreatedAt   time.Time
	ModifiedAt  time.Time
}

func marshalMetadata(meta *Metadata) (any, error) {
	if meta == nil {
		return nil, nil
	}
	data, err := json.Marshal(meta)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func unmarshalMetadata(raw string) (*Metadata, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var meta Metadata
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &meta, nil
}

func marshalSegments(segments []Segment) (any, error) {
	if len(segments) == 0 {
		return "[]", nil
	}
	for i, segment := range segments {
		if segment.StartTime > segment.EndTime {
			return nil, fmt.Errorf("segment %d: start %.3f after end %.3f", i, segment.StartTime, segment.EndTime)
		}
	}
	data, err := json.Marshal(segments)
	if err != nil {
		return nil, fmt.Errorf("marshal segments: %w", err)
	}
	return string(data), nil
}

func unmarshalSegments(raw string) ([]Segment, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var segments []Segment
	if err := json.Unmarshal([]byte(raw), &segments); err != nil {
		return nil, fmt.Errorf("unmarshal segments: %w", err)
	}
	return segments, nil
}
