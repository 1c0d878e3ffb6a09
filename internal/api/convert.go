package api

import (
	"murmur/internal/store"
)

// FromRecording converts a stored recording to its API representation.
func FromRecording(rec *store.Recording) Recording {
	if rec == nil {
		return Recording{}
	}

	dto := Recording{
		ID:           rec.ID,
		Filepath:     rec.Filepath,
		Filename:     rec.Filename,
		Filesize:     rec.Filesize,
		Duration:     rec.Duration,
		Status:       string(rec.Status),
		ErrorMessage: rec.ErrorMessage,
	}
	if !rec.CreatedAt.IsZero() {
		dto.CreatedAt = rec.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !rec.ModifiedAt.IsZero() {
		dto.ModifiedAt = rec.ModifiedAt.UTC().Format(dateTimeFormat)
	}
	if rec.Metadata != nil {
		dto.Metadata = &Metadata{
			Format:     rec.Metadata.Format,
			Codec:      rec.Metadata.Codec,
			BitRate:    rec.Metadata.BitRate,
			Channels:   rec.Metadata.Channels,
			SampleRate: rec.Metadata.SampleRate,
			Language:   rec.Metadata.Language,
		}
	}
	return dto
}

// FromRecordings converts a slice of stored recordings, skipping nils.
func FromRecordings(recs []*store.Recording) []Recording {
	dtos := make([]Recording, 0, len(recs))
	for _, rec := range recs {
		if rec == nil {
			continue
		}
		dtos = append(dtos, FromRecording(rec))
	}
	return dtos
}

// FromTranscription converts a stored transcription to its API form.
func FromTranscription(tr *store.Transcription) Transcription {
	if tr == nil {
		return Transcription{}
	}

	dto := Transcription{
		ID:          tr.ID,
		RecordingID: tr.RecordingID,
		Content:     tr.Content,
		Language:    tr.Language,
		Confidence:  tr.Confidence,
		Segments:    make([]Segment, 0, len(tr.Segments)),
	}
	for _, segment := range tr.Segments {
		dto.Segments = append(dto.Segments, Segment{
			StartTime:  segment.StartTime,
			EndTime:    segment.EndTime,
			Text:       segment.Text,
			Confidence: segment.Confidence,
		})
	}
	if !tr.CreatedAt.IsZero() {
		dto.CreatedAt = tr.CreatedAt.UTC().Format(dateTimeFormat)
	}
	if !tr.ModifiedAt.IsZero() {
		dto.ModifiedAt = tr.ModifiedAt.UTC().Format(dateTimeFormat)
	}
	return dto
}
