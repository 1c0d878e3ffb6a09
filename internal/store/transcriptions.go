package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const transcriptionColumns = `id, recording_id, content, language, confidence, segments_json, created_at, modified_at`

// TranscriptionResult holds the material produced by one transcription run.
type TranscriptionResult struct {
	Content    string
	Language   string
	Confidence float64
	Segments   []Segment
}

// CompleteRecording stores a transcription for the recording and marks it
// completed in one transaction. Any prior transcription for the recording
// is replaced, so a re-run never leaves two transcripts behind.
func (s *Store) CompleteRecording(ctx context.Context, recordingID string, result TranscriptionResult) (*Transcription, error) {
	segmentsJSON, err := marshalSegments(result.Segments)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin complete: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM transcriptions WHERE recording_id = ?`, recordingID); err != nil {
		return nil, fmt.Errorf("replace transcription for %s: %w", recordingID, err)
	}

	id := uuid.NewString()
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO transcriptions (`+transcriptionColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, recordingID, result.Content, nullableString(result.Language),
		result.Confidence, segmentsJSON, timestamp(now), timestamp(now)); err != nil {
		return nil, fmt.Errorf("insert transcription for %s: %w", recordingID, err)
	}

	updated, err := tx.ExecContext(ctx,
		`UPDATE recordings SET status = ?, error_message = NULL WHERE id = ?`,
		string(StatusCompleted), recordingID)
	if err != nil {
		return nil, fmt.Errorf("mark %s completed: %w", recordingID, err)
	}
	affected, err := updated.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("mark %s completed: %w", recordingID, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit complete for %s: %w", recordingID, err)
	}

	return s.GetTranscription(ctx, recordingID)
}

// GetTranscription fetches the transcription attached to a recording.
func (s *Store) GetTranscription(ctx context.Context, recordingID string) (*Transcription, error) {
	tr, err := scanTranscription(s.db.QueryRowContext(ctx,
		`SELECT `+transcriptionColumns+` FROM transcriptions WHERE recording_id = ?`, recordingID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transcription for %s: %w", recordingID, err)
	}
	return tr, nil
}

// UpdateTranscriptionContent replaces the edited text of a stored
// transcription and bumps its modification time.
func (s *Store) UpdateTranscriptionContent(ctx context.Context, recordingID, content string) (*Transcription, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE transcriptions SET content = ?, modified_at = ? WHERE recording_id = ?`,
		content, timestamp(time.Now()), recordingID)
	if err != nil {
		return nil, fmt.Errorf("update transcription for %s: %w", recordingID, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("update transcription for %s: %w", recordingID, err)
	}
	if affected == 0 {
		return nil, ErrNotFound
	}
	return s.GetTranscription(ctx, recordingID)
}

func scanTranscription(row rowScanner) (*Transcription, error) {
	var (
		tr           Transcription
		language     sql.NullString
		segmentsJSON sql.NullString
		createdAt    string
		modifiedAt   string
	)
	err := row.Scan(
		&tr.ID, &tr.RecordingID, &tr.Content, &language, &tr.Confidence,
		&segmentsJSON, &createdAt, &modifiedAt,
	)
	if err != nil {
		return nil, err
	}

	tr.Language = language.String
	if tr.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if tr.ModifiedAt, err = parseTimeString(modifiedAt); err != nil {
		return nil, fmt.Errorf("parse modified_at: %w", err)
	}

	if segmentsJSON.Valid {
		if tr.Segments, err = unmarshalSegments(segmentsJSON.String); err != nil {
			return nil, fmt.Errorf("transcription %s: %w", tr.ID, err)
		}
	}

	return &tr, nil
}
