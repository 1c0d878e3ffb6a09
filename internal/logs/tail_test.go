package logs_test

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/logs"
)

func writeLog(t *testing.T, lines ...string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "murmur.log")
	if err := os.WriteFile(path, []byte(strings.Join(lines, "\n")+"\n"), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func appendLog(t *testing.T, path string, lines ...string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(strings.Join(lines, "\n") + "\n"); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestTailReturnsTrailingLines(t *testing.T) {
	var lines []string
	for i := 0; i < 10; i++ {
		lines = append(lines, fmt.Sprintf("line %d", i))
	}
	path := writeLog(t, lines...)

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 3})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	want := []string{"line 7", "line 8", "line 9"}
	if len(result.Lines) != len(want) {
		t.Fatalf("got %d lines, want %d: %#v", len(result.Lines), len(want), result.Lines)
	}
	for i, line := range want {
		if result.Lines[i] != line {
			t.Fatalf("line %d = %q, want %q", i, result.Lines[i], line)
		}
	}
	if result.Offset == 0 {
		t.Fatal("expected resume offset past the read lines")
	}
}

func TestTailMissingFileIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "murmur.log")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("Tail on missing file: %v", err)
	}
	if len(result.Lines) != 0 || result.Offset != 0 {
		t.Fatalf("expected empty result, got %#v", result)
	}
}

func TestTailResumesFromOffset(t *testing.T) {
	path := writeLog(t, "first")

	initial, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("initial Tail: %v", err)
	}

	appendLog(t, path, "second", "third")
	next, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: initial.Offset})
	if err != nil {
		t.Fatalf("resumed Tail: %v", err)
	}
	if len(next.Lines) != 2 || next.Lines[0] != "second" || next.Lines[1] != "third" {
		t.Fatalf("unexpected resumed lines: %#v", next.Lines)
	}
	if next.Offset <= initial.Offset {
		t.Fatalf("offset did not advance: %d -> %d", initial.Offset, next.Offset)
	}
}

func TestTailClampsOffsetPastEnd(t *testing.T) {
	path := writeLog(t, "only")

	result, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: 1 << 20})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(result.Lines) != 0 {
		t.Fatalf("expected no lines past end, got %#v", result.Lines)
	}
}

func TestTailFollowDeliversAppendedLines(t *testing.T) {
	path := writeLog(t, "start")

	initial, err := logs.Tail(context.Background(), path, logs.TailOptions{Offset: -1, Limit: 1})
	if err != nil {
		t.Fatalf("initial Tail: %v", err)
	}

	done := make(chan logs.TailResult, 1)
	errs := make(chan error, 1)
	go func() {
		res, err := logs.Tail(context.Background(), path, logs.TailOptions{
			Offset: initial.Offset,
			Follow: true,
			Wait:   5 * time.Second,
		})
		if err != nil {
			errs <- err
			return
		}
		done <- res
	}()

	time.Sleep(200 * time.Millisecond)
	appendLog(t, path, "later")

	select {
	case res := <-done:
		if len(res.Lines) != 1 || res.Lines[0] != "later" {
			t.Fatalf("unexpected follow lines: %#v", res.Lines)
		}
	case err := <-errs:
		t.Fatalf("follow Tail: %v", err)
	case <-time.After(10 * time.Second):
		t.Fatal("follow Tail did not return")
	}
}

func TestTailFollowStopsOnCancel(t *testing.T) {
	path := writeLog(t, "start")

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(100 * time.Millisecond)
		cancel()
	}()

	_, err := logs.Tail(ctx, path, logs.TailOptions{Offset: 6, Follow: true, Wait: 10 * time.Second})
	if err == nil {
		t.Fatal("expected context error from cancelled follow")
	}
}
