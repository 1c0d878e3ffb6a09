// Package daemon wires the long-running components together: the store,
// the event bus, the file-system ingestion pipeline, and the
// transcription queue. It enforces single-instance execution with a lock
// file and exposes the operations the IPC layer serves.
package daemon
