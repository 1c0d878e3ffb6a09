// Package ffprobe wraps the ffprobe binary to extract container and audio
// stream metadata from files under ingestion.
package ffprobe
