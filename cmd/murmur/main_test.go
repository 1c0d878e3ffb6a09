package main

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"murmur/internal/events"
	"murmur/internal/ipc"
)

func TestShortID(t *testing.T) {
	if got := shortID("0123456789abcdef"); got != "01234567" {
		t.Fatalf("shortID = %q", got)
	}
	if got := shortID("abc"); got != "abc" {
		t.Fatalf("shortID short input = %q", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{0, "-"},
		{59, "0:59"},
		{61, "1:01"},
		{3661, "1:01:01"},
	}
	for _, tc := range cases {
		if got := formatDuration(tc.seconds); got != tc.want {
			t.Errorf("formatDuration(%v) = %q, want %q", tc.seconds, got, tc.want)
		}
	}
}

func TestFormatClock(t *testing.T) {
	if got := formatClock(65.5); got != "1:05.5" {
		t.Fatalf("formatClock = %q", got)
	}
	if got := formatClock(-1); got != "0:00.0" {
		t.Fatalf("formatClock negative = %q", got)
	}
}

func TestFormatTimestampFallsBackToRaw(t *testing.T) {
	if got := formatTimestamp(""); got != "-" {
		t.Fatalf("empty timestamp = %q", got)
	}
	if got := formatTimestamp("not-a-time"); got != "not-a-time" {
		t.Fatalf("unparseable timestamp = %q", got)
	}
	stamp := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC).Format(time.RFC3339)
	if got := formatTimestamp(stamp); got == stamp {
		t.Fatalf("expected reformatted timestamp, got %q", got)
	}
}

func TestBuildStatsRowsSkipsZeroCounts(t *testing.T) {
	rows := buildStatsRows(map[string]int{
		"completed":   3,
		"error":       0,
		"unprocessed": 1,
	})
	if len(rows) != 2 {
		t.Fatalf("rows = %v", rows)
	}
	if rows[0][0] != "completed" || rows[1][0] != "unprocessed" {
		t.Fatalf("row order = %v", rows)
	}
}

func TestBuildRecordingRows(t *testing.T) {
	rows := buildRecordingRows([]ipc.Recording{{
		ID:       "0123456789abcdef",
		Filename: "take1.wav",
		Status:   "completed",
		Duration: 75,
	}})
	if len(rows) != 1 {
		t.Fatalf("rows = %v", rows)
	}
	row := rows[0]
	if row[0] != "01234567" || row[1] != "take1.wav" || row[2] != "completed" || row[3] != "1:15" {
		t.Fatalf("row = %v", row)
	}
}

func TestFormatEventVariants(t *testing.T) {
	progress := events.TranscriptionProgress("0123456789abcdef", 42)
	progress.Timestamp = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	line := formatEvent(progress)
	if !strings.Contains(line, "42%") || !strings.Contains(line, "01234567") {
		t.Fatalf("progress line = %q", line)
	}

	scan := events.ScanProgress("/music", 2, 5)
	if line := formatEvent(scan); !strings.Contains(line, "2/5") {
		t.Fatalf("scan line = %q", line)
	}

	failure := events.TranscriptionError("0123456789abcdef", "engine exited")
	if line := formatEvent(failure); !strings.Contains(line, "engine exited") {
		t.Fatalf("failure line = %q", line)
	}
}

func TestShouldColorizeNonTerminal(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatal("io.Discard should not colorize")
	}
}

func TestRenderTableAlignsColumns(t *testing.T) {
	out := renderTable(
		[]string{"Status", "Count"},
		[][]string{{"completed", "3"}},
		[]columnAlignment{alignLeft, alignRight},
	)
	if !strings.Contains(out, "completed") || !strings.Contains(out, "3") {
		t.Fatalf("table output = %q", out)
	}
}

func TestTranscribeStartRejectsUnknownLanguage(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	root := newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"transcribe", "start", "rec-1", "-l", "klingon"})

	err := root.Execute()
	if err == nil || !strings.Contains(err.Error(), "unsupported language") {
		t.Fatalf("err = %v, want unsupported-language rejection", err)
	}
}

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "config.toml")

	root := newRootCommand()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetArgs([]string{"config", "init", "--path", target})

	if err := root.Execute(); err != nil {
		t.Fatalf("config init: %v", err)
	}
	if !strings.Contains(buf.String(), target) {
		t.Fatalf("output = %q", buf.String())
	}

	root = newRootCommand()
	root.SetOut(io.Discard)
	root.SetErr(io.Discard)
	root.SetArgs([]string{"config", "init", "--path", target})
	if err := root.Execute(); err == nil {
		t.Fatal("expected second init to refuse overwrite")
	}
}
