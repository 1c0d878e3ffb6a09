package whisper

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"murmur/internal/services"
)

func writeTempFile(t *testing.T, name string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func setHelperCommand(t *testing.T, mode string) *[]string {
	t.Helper()
	var captured []string
	original := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		captured = append([]string(nil), args...)
		cmd := exec.CommandContext(ctx, os.Args[0], "-test.run=TestHelperProcess")
		cmd.Env = append(os.Environ(), "GO_WANT_HELPER_PROCESS=1", fmt.Sprintf("WHISPER_HELPER_MODE=%s", mode))
		return cmd
	}
	t.Cleanup(func() {
		commandContext = original
	})
	return &captured
}

func TestNewCLIWithBinary(t *testing.T) {
	cli := NewCLI(WithBinary("/opt/whisper"))
	if cli.binary != "/opt/whisper" {
		t.Fatalf("expected binary override to be applied, got %q", cli.binary)
	}
}

func TestTranscribeMissingModelIsConfigurationError(t *testing.T) {
	cli := NewCLI(WithBinary(os.Args[0]))
	audio := writeTempFile(t, "memo.wav")
	_, err := cli.Transcribe(context.Background(), Request{AudioPath: audio, ModelPath: "/nonexistent/model.bin"}, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestTranscribeMissingAudioIsNotFound(t *testing.T) {
	cli := NewCLI(WithBinary(os.Args[0]))
	model := writeTempFile(t, "model.bin")
	_, err := cli.Transcribe(context.Background(), Request{AudioPath: "/nonexistent/memo.wav", ModelPath: model}, nil)
	if !errors.Is(err, services.ErrNotFound) {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestTranscribeSuccessParsesTranscriptAndProgress(t *testing.T) {
	captured := setHelperCommand(t, "success")

	cli := NewCLI(WithBinary(os.Args[0]))
	audio := writeTempFile(t, "memo.wav")
	model := writeTempFile(t, "model.bin")

	var updates []ProgressUpdate
	result, err := cli.Transcribe(context.Background(), Request{
		AudioPath: audio,
		ModelPath: model,
		Language:  "english",
	}, func(update ProgressUpdate) {
		updates = append(updates, update)
	})
	if err != nil {
		t.Fatalf("Transcribe returned error: %v", err)
	}

	if result.Text != "hello there" {
		t.Fatalf("text = %q", result.Text)
	}
	if result.Language != "en" {
		t.Fatalf("language = %q", result.Language)
	}
	if len(result.Segments) != 2 {
		t.Fatalf("segments = %d, want 2", len(result.Segments))
	}
	if result.Segments[1].StartTime != 1.5 || result.Segments[1].EndTime != 3.0 {
		t.Fatalf("segment timing wrong: %+v", result.Segments[1])
	}

	if len(updates) != 3 {
		t.Fatalf("progress updates = %d, want 3", len(updates))
	}
	if updates[0].Percent != 10 || updates[2].Percent != 100 {
		t.Fatalf("progress values wrong: %+v", updates)
	}

	args := *captured
	if idx := findArg(args, "-l"); idx < 0 || args[idx+1] != "en" {
		t.Fatalf("expected normalized -l en in args %v", args)
	}
	if findArg(args, "--output-json") < 0 || findArg(args, "--print-progress") < 0 {
		t.Fatalf("expected output flags in args %v", args)
	}
}

func TestTranscribeCrashIsExternalToolError(t *testing.T) {
	setHelperCommand(t, "crash")

	cli := NewCLI(WithBinary(os.Args[0]))
	audio := writeTempFile(t, "memo.wav")
	model := writeTempFile(t, "model.bin")

	_, err := cli.Transcribe(context.Background(), Request{AudioPath: audio, ModelPath: model}, nil)
	if !errors.Is(err, services.ErrExternalTool) {
		t.Fatalf("expected external tool error, got %v", err)
	}
}

func TestTranscribeGarbageOutputIsValidationError(t *testing.T) {
	setHelperCommand(t, "garbage")

	cli := NewCLI(WithBinary(os.Args[0]))
	audio := writeTempFile(t, "memo.wav")
	model := writeTempFile(t, "model.bin")

	_, err := cli.Transcribe(context.Background(), Request{AudioPath: audio, ModelPath: model}, nil)
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestParseOutputSkipsEmptySegments(t *testing.T) {
	result, err := ParseOutput([]byte(`{
        "result": {"language": "en"},
        "transcription": [
            {"offsets": {"from": 0, "to": 500}, "text": "  "},
            {"offsets": {"from": 500, "to": 900}, "text": "ok"}
        ]
    }`))
	if err != nil {
		t.Fatalf("ParseOutput: %v", err)
	}
	if len(result.Segments) != 1 || result.Text != "ok" {
		t.Fatalf("result = %+v", result)
	}
}

func TestHelperProcess(t *testing.T) {
	if os.Getenv("GO_WANT_HELPER_PROCESS") != "1" {
		return
	}

	switch os.Getenv("WHISPER_HELPER_MODE") {
	case "success":
		fmt.Fprintln(os.Stderr, "whisper_full: progress = begin")
		fmt.Fprintln(os.Stderr, "progress: 10%")
		fmt.Fprintln(os.Stderr, "progress: 55%")
		fmt.Fprintln(os.Stderr, "progress: 100%")
		fmt.Println(`{"result":{"language":"en"},"transcription":[{"offsets":{"from":0,"to":1500},"text":" hello"},{"offsets":{"from":1500,"to":3000},"text":"there "}]}`)
		os.Exit(0)
	case "crash":
		fmt.Fprintln(os.Stderr, "progress: 20%")
		fmt.Fprintln(os.Stderr, "segmentation fault")
		os.Exit(2)
	case "garbage":
		fmt.Println("not-json at all")
		os.Exit(0)
	default:
		os.Exit(0)
	}
}

func findArg(args []string, target string) int {
	for i, arg := range args {
		if arg == target {
			return i
		}
	}
	return -1
}
