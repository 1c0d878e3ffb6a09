package events

import (
	"context"
	"sync"
	"time"
)

const subscriberBuffer = 64

// DefaultCapacity is the ring size used when NewBus receives a
// non-positive capacity.
const DefaultCapacity = 512

// Bus stores recent events in a bounded ring and fans them out to
// subscribers. Publish never blocks: a subscriber that falls more than
// subscriberBuffer events behind misses intermediate events and can
// resynchronize through Fetch.
type Bus struct {
	mu       sync.Mutex
	cond     *sync.Cond
	capacity int
	buffer   []Event
	nextSeq  uint64
	subs     map[*Subscription]struct{}
}

// Subscription delivers published events on C until Close is called.
type Subscription struct {
	C   <-chan Event
	ch  chan Event
	bus *Bus
}

// Close removes the subscription from the bus and closes its channel.
func (s *Subscription) Close() {
	if s == nil || s.bus == nil {
		return
	}
	s.bus.unsubscribe(s)
}

// NewBus constructs a bus retaining up to capacity events for long-polling.
func NewBus(capacity int) *Bus {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	b := &Bus{
		capacity: capacity,
		subs:     make(map[*Subscription]struct{}),
	}
	b.cond = sync.NewCond(&b.mu)
	return b
}

// Publish assigns a sequence number and timestamp, buffers the event, and
// fans it out to all current subscribers.
func (b *Bus) Publish(evt Event) Event {
	if b == nil {
		return evt
	}
	b.mu.Lock()
	b.nextSeq++
	evt.Sequence = b.nextSeq
	if evt.Timestamp.IsZero() {
		evt.Timestamp = time.Now().UTC()
	}
	if len(b.buffer) == b.capacity {
		copy(b.buffer, b.buffer[1:])
		b.buffer = b.buffer[:b.capacity-1]
	}
	b.buffer = append(b.buffer, evt)
	for sub := range b.subs {
		select {
		case sub.ch <- evt:
		default:
		}
	}
	b.cond.Broadcast()
	b.mu.Unlock()
	return evt
}

// Subscribe registers a new subscriber receiving events published after this
// call.
func (b *Bus) Subscribe() *Subscription {
	ch := make(chan Event, subscriberBuffer)
	sub := &Subscription{C: ch, ch: ch, bus: b}
	b.mu.Lock()
	b.subs[sub] = struct{}{}
	b.mu.Unlock()
	return sub
}

func (b *Bus) unsubscribe(sub *Subscription) {
	b.mu.Lock()
	if _, ok := b.subs[sub]; ok {
		delete(b.subs, sub)
		close(sub.ch)
	}
	b.mu.Unlock()
}

// Fetch returns buffered events with sequence greater than since. When wait is
// true and nothing is available, Fetch blocks until an event arrives or the
// context ends.
func (b *Bus) Fetch(ctx context.Context, since uint64, limit int, wait bool) ([]Event, uint64, error) {
	if b == nil {
		return nil, since, nil
	}
	if limit <= 0 || limit > b.capacity {
		limit = b.capacity
	}

	cancelWait := make(chan struct{})
	if wait && ctx != nil && ctx.Done() != nil {
		go func() {
			select {
			case <-ctx.Done():
				b.cond.Broadcast()
			case <-cancelWait:
			}
		}()
	}
	defer close(cancelWait)

	b.mu.Lock()
	defer b.mu.Unlock()

	for {
		evts, next := b.snapshotLocked(since, limit)
		if len(evts) > 0 || !wait {
			return evts, next, contextError(ctx)
		}
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
		b.cond.Wait()
		if err := contextError(ctx); err != nil {
			return nil, next, err
		}
	}
}

func (b *Bus) snapshotLocked(since uint64, limit int) ([]Event, uint64) {
	if len(b.buffer) == 0 {
		return nil, b.nextSeq
	}
	start := len(b.buffer)
	for i, evt := range b.buffer {
		if evt.Sequence > since {
			start = i
			break
		}
	}
	if start == len(b.buffer) {
		return nil, b.nextSeq
	}
	end := start + limit
	if end > len(b.buffer) {
		end = len(b.buffer)
	}
	out := make([]Event, end-start)
	copy(out, b.buffer[start:end])
	return out, out[len(out)-1].Sequence
}

func contextError(ctx context.Context) error {
	if ctx == nil {
		return nil
	}
	return ctx.Err()
}
