package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker for later classification. The marker should be
// one of the exported sentinel errors above.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint suggests an operator action for a classified error. Used as a log
// attribute alongside the error itself.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrConfiguration):
		return "check transcriber binary and model paths in the config file"
	case errors.Is(err, ErrNotFound):
		return "verify the audio file still exists at its recorded path"
	case errors.Is(err, ErrTimeout):
		return "the job exceeded its wall-clock limit; consider a smaller model or longer timeout"
	case errors.Is(err, ErrValidation):
		return "the transcriber produced output this version cannot parse"
	case errors.Is(err, ErrExternalTool):
		return "inspect the transcriber's own logs for the underlying failure"
	default:
		return ""
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
