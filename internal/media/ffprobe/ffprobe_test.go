package ffprobe_test

import (
	"context"
	"errors"
	"testing"

	"murmur/internal/media/ffprobe"
)

const sampleOutput = `{
  "streams": [
    {"index": 0, "codec_name": "mp3", "codec_type": "audio", "sample_rate": "44100", "channels": 2, "bit_rate": "192000"}
  ],
  "format": {
    "filename": "/music/song.mp3",
    "duration": "183.42",
    "size": "4404480",
    "bit_rate": "192000",
    "format_name": "mp3"
  }
}`

func TestParseAudioMetadata(t *testing.T) {
	result, err := ffprobe.Parse([]byte(sampleOutput))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	stream, ok := result.AudioStream()
	if !ok {
		t.Fatal("expected audio stream")
	}
	if stream.CodecName != "mp3" || stream.Channels != 2 {
		t.Fatalf("unexpected stream: %+v", stream)
	}
	if got := result.DurationSeconds(); got != 183.42 {
		t.Fatalf("unexpected duration: %v", got)
	}
	if got := result.SizeBytes(); got != 4404480 {
		t.Fatalf("unexpected size: %d", got)
	}
	if got := result.BitRate(); got != 192000 {
		t.Fatalf("unexpected bitrate: %d", got)
	}
	if got := result.SampleRate(); got != 44100 {
		t.Fatalf("unexpected sample rate: %d", got)
	}
}

func TestParseRejectsMalformedJSON(t *testing.T) {
	if _, err := ffprobe.Parse([]byte("not json")); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestAudioStreamMissing(t *testing.T) {
	result, err := ffprobe.Parse([]byte(`{"streams": [{"index":0,"codec_type":"video"}], "format": {}}`))
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if _, ok := result.AudioStream(); ok {
		t.Fatal("expected no audio stream")
	}
	if result.SampleRate() != 0 {
		t.Fatal("expected zero sample rate without audio stream")
	}
}

func TestInspectMissingFileReturnsExtractionError(t *testing.T) {
	_, err := ffprobe.Inspect(context.Background(), "ffprobe", "/nonexistent/file.mp3")
	if err == nil {
		t.Skip("ffprobe unexpectedly succeeded")
	}
	var extractErr *ffprobe.ExtractionError
	if !errors.As(err, &extractErr) {
		t.Fatalf("expected ExtractionError, got %T: %v", err, err)
	}
	if extractErr.Path != "/nonexistent/file.mp3" {
		t.Fatalf("unexpected path: %s", extractErr.Path)
	}
}

func TestInspectEmptyPath(t *testing.T) {
	if _, err := ffprobe.Inspect(context.Background(), "ffprobe", "  "); err == nil {
		t.Fatal("expected error for empty path")
	}
}
