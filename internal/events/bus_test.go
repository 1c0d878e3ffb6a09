package events_test

import (
	"context"
	"testing"
	"time"

	"murmur/internal/events"
)

func TestPublishAssignsSequence(t *testing.T) {
	bus := events.NewBus(8)

	first := bus.Publish(events.RecordingAdded("rec-1", "/a.wav"))
	second := bus.Publish(events.RecordingChanged("rec-1", "pending", ""))

	if first.Sequence != 1 || second.Sequence != 2 {
		t.Fatalf("unexpected sequences: %d, %d", first.Sequence, second.Sequence)
	}
	if first.Timestamp.IsZero() {
		t.Fatal("expected timestamp to be assigned")
	}
}

func TestSubscribeReceivesFanOut(t *testing.T) {
	bus := events.NewBus(8)
	subA := bus.Subscribe()
	subB := bus.Subscribe()
	defer subA.Close()
	defer subB.Close()

	bus.Publish(events.TranscriptionProgress("rec-1", 10))

	for _, sub := range []*events.Subscription{subA, subB} {
		select {
		case evt := <-sub.C:
			if evt.Type != events.TypeTranscriptionProgress || evt.PercentComplete != 10 {
				t.Fatalf("unexpected event: %+v", evt)
			}
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for event")
		}
	}
}

func TestCloseStopsDelivery(t *testing.T) {
	bus := events.NewBus(8)
	sub := bus.Subscribe()
	sub.Close()
	sub.Close() // idempotent

	bus.Publish(events.RecordingRemoved("rec-1", "/a.wav"))

	if _, ok := <-sub.C; ok {
		t.Fatal("expected closed channel after Close")
	}
}

func TestFetchReturnsEventsAfterSequence(t *testing.T) {
	bus := events.NewBus(8)
	bus.Publish(events.RecordingAdded("rec-1", "/a.wav"))
	bus.Publish(events.RecordingAdded("rec-2", "/b.wav"))
	bus.Publish(events.RecordingAdded("rec-3", "/c.wav"))

	evts, next, err := bus.Fetch(context.Background(), 1, 10, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 2 || evts[0].RecordingID != "rec-2" || evts[1].RecordingID != "rec-3" {
		t.Fatalf("unexpected events: %+v", evts)
	}
	if next != 3 {
		t.Fatalf("unexpected next sequence: %d", next)
	}
}

func TestFetchWaitsForNewEvents(t *testing.T) {
	bus := events.NewBus(8)
	done := make(chan struct{})

	go func() {
		defer close(done)
		evts, _, err := bus.Fetch(context.Background(), 0, 10, true)
		if err != nil || len(evts) != 1 {
			t.Errorf("Fetch returned evts=%v err=%v", evts, err)
		}
	}()

	time.Sleep(20 * time.Millisecond)
	bus.Publish(events.ScanProgress("/music", 1, 5))

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Fetch did not wake on publish")
	}
}

func TestFetchHonorsContextCancellation(t *testing.T) {
	bus := events.NewBus(8)
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, _, err := bus.Fetch(ctx, 0, 10, true)
	if err == nil {
		t.Fatal("expected context error")
	}
}

func TestRingBufferEvictsOldest(t *testing.T) {
	bus := events.NewBus(2)
	bus.Publish(events.RecordingAdded("rec-1", "/a.wav"))
	bus.Publish(events.RecordingAdded("rec-2", "/b.wav"))
	bus.Publish(events.RecordingAdded("rec-3", "/c.wav"))

	evts, _, err := bus.Fetch(context.Background(), 0, 10, false)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if len(evts) != 2 || evts[0].RecordingID != "rec-2" {
		t.Fatalf("expected oldest event evicted, got %+v", evts)
	}
}
