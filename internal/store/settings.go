package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

const watchedDirectoriesKey = "watched_directories"

// GetSetting returns the value stored for a key, or ErrNotFound.
func (s *Store) GetSetting(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM settings WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("get setting %s: %w", key, err)
	}
	return value, nil
}

// SetSetting stores a key/value pair, replacing any existing value.
func (s *Store) SetSetting(ctx context.Context, key, value string) error {
	if key == "" {
		return errors.New("store: setting key required")
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settings (key, value) VALUES (?, ?)
         ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("set setting %s: %w", key, err)
	}
	return nil
}

// AllSettings returns every stored setting keyed by name.
func (s *Store) AllSettings(ctx context.Context) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM settings`)
	if err != nil {
		return nil, fmt.Errorf("list settings: %w", err)
	}
	defer rows.Close()

	settings := make(map[string]string)
	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			return nil, fmt.Errorf("scan setting: %w", err)
		}
		settings[key] = value
	}
	return settings, rows.Err()
}

// WatchedDirectories returns the persisted set of watched directories,
// sorted for stable output.
func (s *Store) WatchedDirectories(ctx context.Context) ([]string, error) {
	raw, err := s.GetSetting(ctx, watchedDirectoriesKey)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var dirs []string
	if err := json.Unmarshal([]byte(raw), &dirs); err != nil {
		return nil, fmt.Errorf("decode %s: %w", watchedDirectoriesKey, err)
	}
	sort.Strings(dirs)
	return dirs, nil
}

// SetWatchedDirectories replaces the persisted set of watched directories.
func (s *Store) SetWatchedDirectories(ctx context.Context, dirs []string) error {
	if dirs == nil {
		dirs = []string{}
	}
	sorted := make([]string, len(dirs))
	copy(sorted, dirs)
	sort.Strings(sorted)
	data, err := json.Marshal(sorted)
	if err != nil {
		return fmt.Errorf("encode %s: %w", watchedDirectoriesKey, err)
	}
	return s.SetSetting(ctx, watchedDirectoriesKey, string(data))
}
