package api

import (
	"testing"
	"time"

	"murmur/internal/store"
)

func TestFromRecording(t *testing.T) {
	created := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	rec := &store.Recording{
		ID:           "rec-1",
		Filepath:     "/music/memo.wav",
		Filename:     "memo.wav",
		Filesize:     2048,
		Duration:     12.5,
		CreatedAt:    created,
		ModifiedAt:   created,
		Status:       store.StatusError,
		ErrorMessage: "probe failed",
		Metadata:     &store.Metadata{Format: "wav", Codec: "pcm_s16le", Channels: 1, SampleRate: 16000},
	}

	dto := FromRecording(rec)
	if dto.ID != "rec-1" || dto.Status != "error" || dto.ErrorMessage != "probe failed" {
		t.Fatalf("dto = %+v", dto)
	}
	if dto.CreatedAt != "2025-03-01T12:00:00.000Z" {
		t.Fatalf("created at = %q", dto.CreatedAt)
	}
	if dto.Metadata == nil || dto.Metadata.SampleRate != 16000 {
		t.Fatalf("metadata = %+v", dto.Metadata)
	}
}

func TestFromRecordingNil(t *testing.T) {
	if dto := FromRecording(nil); dto.ID != "" {
		t.Fatalf("expected zero dto, got %+v", dto)
	}
}

func TestFromRecordingsSkipsNil(t *testing.T) {
	dtos := FromRecordings([]*store.Recording{nil, {ID: "a"}, nil})
	if len(dtos) != 1 || dtos[0].ID != "a" {
		t.Fatalf("dtos = %+v", dtos)
	}
}

func TestFromTranscription(t *testing.T) {
	tr := &store.Transcription{
		ID:          "tr-1",
		RecordingID: "rec-1",
		Content:     "hello",
		Language:    "en",
		Confidence:  0.9,
		Segments:    []store.Segment{{StartTime: 0, EndTime: 1, Text: "hello", Confidence: 0.9}},
	}
	dto := FromTranscription(tr)
	if dto.RecordingID != "rec-1" || len(dto.Segments) != 1 {
		t.Fatalf("dto = %+v", dto)
	}
	if dto.Segments[0].Text != "hello" {
		t.Fatalf("segment = %+v", dto.Segments[0])
	}
}
