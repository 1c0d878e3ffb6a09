// Package watcher is the file-system ingestion pipeline. It maintains the
// set of watched directories, coalesces rapid filesystem events per path,
// probes audio files for metadata, and retries failed extractions a
// bounded number of times before abandoning a path.
package watcher
