// Package whisper wraps the whisper command-line speech-recognition
// engine. It handles argument construction, progress extraction from the
// diagnostic stream, and transcript parsing, leaving process lifecycle
// policy (timeouts, termination) to the supervisor that drives it.
package whisper
