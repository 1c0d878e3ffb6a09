// Package transcription drives the transcription pipeline: an in-memory
// FIFO queue drained strictly serially by a manager, and a single-use
// supervisor per job that owns the external engine process, relays
// de-duplicated progress, and enforces the wall-clock timeout.
//
// The manager is the only component that writes transcription-related
// status to the store, and every notification it publishes follows the
// store write it describes.
package transcription
