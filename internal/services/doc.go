// Package services defines shared utilities consumed by the transcription
// pipeline and external integrations.
//
// Key responsibilities:
//   - Context helpers that stamp recording IDs and correlation identifiers
//     for logging and tracing.
//   - Structured error markers plus the Wrap helper that classify failures
//     (configuration vs crash vs unparseable output vs timeout) so callers
//     can log a useful hint next to the error.
package services
