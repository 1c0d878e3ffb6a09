package logging

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldRecordingID is the standardized structured logging key for recording identifiers.
	FieldRecordingID = "recording_id"
	// FieldPath is the standardized structured logging key for filesystem paths.
	FieldPath = "path"
	// FieldEventType classifies log events for filtering.
	FieldEventType = "event_type"
	// FieldCorrelationID is the standardized structured logging key for per-job correlation identifiers.
	FieldCorrelationID = "correlation_id"
	// FieldErrorHint carries the suggested next step for a logged failure.
	FieldErrorHint = "error_hint"
)
