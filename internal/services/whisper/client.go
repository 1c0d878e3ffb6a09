package whisper

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	langpkg "murmur/internal/language"
	"murmur/internal/services"
)

var commandContext = exec.CommandContext

// terminateGrace is how long a cancelled engine process gets to exit on
// its own before it is killed.
const terminateGrace = 100 * time.Millisecond

// progressPattern matches the percentage lines whisper prints on its
// diagnostic stream while decoding.
var progressPattern = regexp.MustCompile(`progress:\s*(\d+)%`)

// ProgressUpdate captures one progress report from the engine.
type ProgressUpdate struct {
	Percent int
}

// Request identifies the audio to transcribe and how.
type Request struct {
	AudioPath string
	ModelPath string
	Language  string
}

// Segment is one timed span from the engine's transcript.
type Segment struct {
	StartTime  float64
	EndTime    float64
	Text       string
	Confidence float64
}

// Result is the parsed transcript from a clean engine run.
type Result struct {
	Text     string
	Language string
	Segments []Segment
}

// Client defines transcription engine behaviour.
type Client interface {
	Transcribe(ctx context.Context, req Request, progress func(ProgressUpdate)) (Result, error)
}

// Option configures the CLI client.
type Option func(*CLI)

// WithBinary overrides the default binary name.
func WithBinary(binary string) Option {
	return func(c *CLI) {
		if binary != "" {
			c.binary = binary
		}
	}
}

// CLI wraps the whisper command-line engine.
type CLI struct {
	binary string
}

// NewCLI constructs a CLI client using defaults.
func NewCLI(opts ...Option) *CLI {
	cli := &CLI{binary: "whisper"}
	for _, opt := range opts {
		opt(cli)
	}
	return cli
}

// Binary returns the configured engine binary for logging.
func (c *CLI) Binary() string {
	return c.binary
}

// Transcribe runs the engine against one audio file, forwarding progress
// reports as they arrive on the diagnostic stream. Precondition failures
// (missing binary, model, or audio) are reported before the process starts
// and carry services.ErrConfiguration or services.ErrNotFound; failures of
// a started process distinguish a crash (services.ErrExternalTool) from
// unparseable output (services.ErrValidation).
func (c *CLI) Transcribe(ctx context.Context, req Request, progress func(ProgressUpdate)) (Result, error) {
	var result Result

	if strings.TrimSpace(req.AudioPath) == "" {
		return result, services.Wrap(services.ErrValidation, "transcriber", "start", "audio path required", nil)
	}
	if strings.TrimSpace(req.ModelPath) == "" {
		return result, services.Wrap(services.ErrConfiguration, "transcriber", "start", "model path required", nil)
	}
	if _, err := exec.LookPath(c.binary); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "transcriber", "start", fmt.Sprintf("binary %q not found", c.binary), err)
	}
	if _, err := os.Stat(req.ModelPath); err != nil {
		return result, services.Wrap(services.ErrConfiguration, "transcriber", "start", "model file missing", err)
	}
	if _, err := os.Stat(req.AudioPath); err != nil {
		return result, services.Wrap(services.ErrNotFound, "transcriber", "start", "audio file missing", err)
	}

	args := []string{"-m", req.ModelPath, "-f", req.AudioPath}
	if lang := langpkg.Normalize(req.Language); lang != "" {
		args = append(args, "-l", lang)
	}
	args = append(args, "--output-json", "--print-progress")

	cmd := commandContext(ctx, c.binary, args...) //nolint:gosec
	// On cancellation ask the engine to exit cleanly, then force-kill it
	// once the grace period lapses so the execution slot always frees up.
	cmd.Cancel = func() error {
		return cmd.Process.Signal(unix.SIGTERM)
	}
	cmd.WaitDelay = terminateGrace
	var stdout bytes.Buffer
	cmd.Stdout = &stdout
	stderr, err := cmd.StderrPipe()
	if err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcriber", "start", "stderr pipe", err)
	}
	if err := cmd.Start(); err != nil {
		return result, services.Wrap(services.ErrExternalTool, "transcriber", "start", "spawn failed", err)
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		match := progressPattern.FindSubmatch(scanner.Bytes())
		if match == nil {
			continue
		}
		percent, convErr := strconv.Atoi(string(match[1]))
		if convErr != nil || percent < 0 || percent > 100 {
			continue
		}
		if progress != nil {
			progress(ProgressUpdate{Percent: percent})
		}
	}

	if err := cmd.Wait(); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			if errors.Is(ctxErr, context.DeadlineExceeded) {
				return result, services.Wrap(services.ErrTimeout, "transcriber", "run", "wall-clock limit exceeded", ctxErr)
			}
			return result, ctxErr
		}
		return result, services.Wrap(services.ErrExternalTool, "transcriber", "run", "process failed", err)
	}

	parsed, err := ParseOutput(stdout.Bytes())
	if err != nil {
		return result, services.Wrap(services.ErrValidation, "transcriber", "parse", "unreadable transcript", err)
	}
	if parsed.Language == "" {
		parsed.Language = langpkg.Normalize(req.Language)
	}
	return parsed, nil
}

// enginePayload mirrors the JSON the engine writes on clean exit.
type enginePayload struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []struct {
		Offsets struct {
			From int64 `json:"from"`
			To   int64 `json:"to"`
		} `json:"offsets"`
		Text       string  `json:"text"`
		Confidence float64 `json:"confidence"`
	} `json:"transcription"`
}

// ParseOutput decodes the engine's JSON transcript. Offsets arrive in
// milliseconds and convert to seconds here.
func ParseOutput(output []byte) (Result, error) {
	var payload enginePayload
	if err := json.Unmarshal(output, &payload); err != nil {
		return Result{}, fmt.Errorf("parse transcript: %w", err)
	}

	result := Result{Language: langpkg.Normalize(payload.Result.Language)}
	var parts []string
	for _, entry := range payload.Transcription {
		text := strings.TrimSpace(entry.Text)
		if text == "" {
			continue
		}
		parts = append(parts, text)
		result.Segments = append(result.Segments, Segment{
			StartTime:  float64(entry.Offsets.From) / 1000,
			EndTime:    float64(entry.Offsets.To) / 1000,
			Text:       text,
			Confidence: entry.Confidence,
		})
	}
	result.Text = strings.Join(parts, " ")
	return result, nil
}

var _ Client = (*CLI)(nil)
