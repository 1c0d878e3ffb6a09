// Package store persists recordings, transcriptions, and settings in a
// SQLite database. It owns the schema, applies embedded migrations on
// open, and keeps multi-statement updates transactional so callers never
// observe a recording marked completed without its transcript.
package store
