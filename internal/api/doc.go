// Package api defines the transport-friendly representations of
// recordings and transcriptions exchanged over IPC, plus the converters
// from the persistence-layer structs. Timestamps are rendered as RFC3339
// strings so payloads stay engine-agnostic.
package api
