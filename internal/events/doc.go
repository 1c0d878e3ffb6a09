// Package events defines murmur's in-process notification bus: a closed set
// of tagged event variants with multi-subscriber fan-out plus a bounded
// replay buffer that IPC consumers drain by long-polling.
package events
