package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrNotFound is returned when a lookup matches no row.
var ErrNotFound = errors.New("store: not found")

const recordingColumns = `id, filepath, filename, filesize, duration, created_at, modified_at, status, error_message, metadata_json`

// NewFileRecording describes a file observed on disk, before any
// transcription state exists for it.
type NewFileRecording struct {
	Filepath   string
	Filesize   int64
	Duration   float64
	ModifiedAt time.Time
	Metadata   *Metadata
}

// UpsertByPath inserts a recording for the given path, or refreshes the
// file-derived fields of the existing row. The recording's identity and
// transcription status survive re-ingestion of the same path.
func (s *Store) UpsertByPath(ctx context.Context, file NewFileRecording) (*Recording, error) {
	if strings.TrimSpace(file.Filepath) == "" {
		return nil, errors.New("store: filepath required")
	}

	metadataJSON, err := marshalMetadata(file.Metadata)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin upsert: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	existing, err := scanRecording(tx.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE filepath = ?`, file.Filepath))
	switch {
	case err == nil:
		_, err = tx.ExecContext(ctx,
			`UPDATE recordings
             SET filesize = ?, duration = ?, modified_at = ?, metadata_json = COALESCE(?, metadata_json)
             WHERE id = ?`,
			file.Filesize, file.Duration, timestamp(file.ModifiedAt), metadataJSON, existing.ID)
		if err != nil {
			return nil, fmt.Errorf("refresh recording %s: %w", existing.ID, err)
		}
	case errors.Is(err, sql.ErrNoRows):
		existing = &Recording{
			ID:         uuid.NewString(),
			Filepath:   file.Filepath,
			Filename:   filepath.Base(file.Filepath),
			Status:     StatusUnprocessed,
			CreatedAt:  now,
			ModifiedAt: file.ModifiedAt,
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO recordings (`+recordingColumns+`)
             VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			existing.ID, existing.Filepath, existing.Filename,
			file.Filesize, file.Duration,
			timestamp(now), timestamp(file.ModifiedAt),
			string(StatusUnprocessed), nil, metadataJSON)
		if err != nil {
			return nil, fmt.Errorf("insert recording %s: %w", file.Filepath, err)
		}
	default:
		return nil, fmt.Errorf("lookup recording by path: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit upsert: %w", err)
	}

	return s.GetRecording(ctx, existing.ID)
}

// GetRecording fetches one recording by id.
func (s *Store) GetRecording(ctx context.Context, id string) (*Recording, error) {
	rec, err := scanRecording(s.db.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recording %s: %w", id, err)
	}
	return rec, nil
}

// GetRecordingByPath fetches one recording by its absolute file path.
func (s *Store) GetRecordingByPath(ctx context.Context, path string) (*Recording, error) {
	rec, err := scanRecording(s.db.QueryRowContext(ctx,
		`SELECT `+recordingColumns+` FROM recordings WHERE filepath = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get recording by path %s: %w", path, err)
	}
	return rec, nil
}

// ListRecordings returns recordings newest first, optionally filtered by status.
func (s *Store) ListRecordings(ctx context.Context, statuses ...Status) ([]*Recording, error) {
	query := `SELECT ` + recordingColumns + ` FROM recordings`
	args := make([]any, 0, len(statuses))
	if len(statuses) > 0 {
		query += ` WHERE status IN (` + makePlaceholders(len(statuses)) + `)`
		for _, status := range statuses {
			args = append(args, string(status))
		}
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list recordings: %w", err)
	}
	defer rows.Close()

	var recordings []*Recording
	for rows.Next() {
		rec, scanErr := scanRecording(rows)
		if scanErr != nil {
			return nil, fmt.Errorf("scan recording: %w", scanErr)
		}
		recordings = append(recordings, rec)
	}
	return recordings, rows.Err()
}

// UpdateStatus moves a recording to the given status. The error message is
// stored only for StatusError and cleared on every other transition.
func (s *Store) UpdateStatus(ctx context.Context, id string, status Status, errorMessage string) error {
	if _, ok := statusSet[status]; !ok {
		return fmt.Errorf("store: unknown status %q", status)
	}
	if status != StatusError {
		errorMessage = ""
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE recordings SET status = ?, error_message = ? WHERE id = ?`,
		string(status), nullableString(errorMessage), id)
	if err != nil {
		return fmt.Errorf("update status for %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update status for %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRecording deletes a recording and, through the schema's cascade,
// any transcription attached to it.
func (s *Store) RemoveRecording(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM recordings WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("remove recording %s: %w", id, err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove recording %s: %w", id, err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

// RemoveRecordingByPath deletes the recording for a path, returning the
// removed row so callers can announce the deletion.
func (s *Store) RemoveRecordingByPath(ctx context.Context, path string) (*Recording, error) {
	rec, err := s.GetRecordingByPath(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := s.RemoveRecording(ctx, rec.ID); err != nil {
		return nil, err
	}
	return rec, nil
}

// Stats counts recordings per status.
func (s *Store) Stats(ctx context.Context) (map[Status]int, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM recordings GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("recording stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[Status]int, len(allStatuses))
	for _, status := range allStatuses {
		stats[status] = 0
	}
	for rows.Next() {
		var raw string
		var count int
		if err := rows.Scan(&raw, &count); err != nil {
			return nil, fmt.Errorf("scan stats: %w", err)
		}
		if status, ok := ParseStatus(raw); ok {
			stats[status] = count
		}
	}
	return stats, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecording(row rowScanner) (*Recording, error) {
	var (
		rec          Recording
		createdAt    string
		modifiedAt   string
		status       string
		errorMessage sql.NullString
		metadataJSON sql.NullString
	)
	err := row.Scan(
		&rec.ID, &rec.Filepath, &rec.Filename, &rec.Filesize, &rec.Duration,
		&createdAt, &modifiedAt, &status, &errorMessage, &metadataJSON,
	)
	if err != nil {
		return nil, err
	}

	if rec.CreatedAt, err = parseTimeString(createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if rec.ModifiedAt, err = parseTimeString(modifiedAt); err != nil {
		return nil, fmt.Errorf("parse modified_at: %w", err)
	}

	parsed, ok := ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q for recording %s", status, rec.ID)
	}
	rec.Status = parsed
	rec.ErrorMessage = errorMessage.String

	if metadataJSON.Valid {
		if rec.Metadata, err = unmarshalMetadata(metadataJSON.String); err != nil {
			return nil, fmt.Errorf("recording %s: %w", rec.ID, err)
		}
	}

	return &rec, nil
}

func makePlaceholders(count int) string {
	if count <= 0 {
		return ""
	}
	return strings.TrimSuffix(strings.Repeat("?, ", count), ", ")
}
