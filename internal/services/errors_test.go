package services_test

import (
	"errors"
	"strings"
	"testing"

	"murmur/internal/services"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := services.Wrap(services.ErrExternalTool, "transcriber", "run", "failed", base)
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"transcriber", "run", "failed"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapNilMarkerDefaultsTransient(t *testing.T) {
	err := services.Wrap(nil, "ingest", "probe", "flaky", nil)
	if !errors.Is(err, services.ErrTransient) {
		t.Fatalf("expected transient marker, got %v", err)
	}
}

func TestHint(t *testing.T) {
	err := services.Wrap(services.ErrConfiguration, "transcriber", "start", "model missing", nil)
	if hint := services.Hint(err); !strings.Contains(hint, "model") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := services.Hint(errors.New("plain")); hint != "" {
		t.Fatalf("expected empty hint for unclassified error, got %q", hint)
	}
}

func TestRequestIDRoundTrip(t *testing.T) {
	ctx := services.WithRequestID(t.Context(), "req-1")
	if id, ok := services.RequestIDFromContext(ctx); !ok || id != "req-1" {
		t.Fatalf("request id = %q, %v", id, ok)
	}

	minted := services.WithRequestID(t.Context(), "")
	if id, ok := services.RequestIDFromContext(minted); !ok || id == "" {
		t.Fatal("expected minted request id")
	}
}

func TestRecordingIDRoundTrip(t *testing.T) {
	if _, ok := services.RecordingIDFromContext(t.Context()); ok {
		t.Fatal("expected no recording id on bare context")
	}
	ctx := services.WithRecordingID(t.Context(), "rec-1")
	if id, ok := services.RecordingIDFromContext(ctx); !ok || id != "rec-1" {
		t.Fatalf("recording id = %q, %v", id, ok)
	}
}
