// Package eventbus fans scheduler run events out to app-level consumers
// (run history, diagnostics) without coupling them to the engine.
package eventbus

import (
	"sync"
	"sync/atomic"
	"time"
)

// RunEvent describes one executed entry, flattened for consumers that
// serialize or persist it.
//
// Contract:
//   - Publish MUST be non-blocking.
//   - Subscribers MUST drain promptly; slow subscribers drop events.
type RunEvent struct {
	ID       string        `json:"id"`
	Name     string        `json:"name,omitempty"`
	Mode     string        `json:"mode"`
	Started  time.Time     `json:"started"`
	Duration time.Duration `json:"duration"`
	Error    string        `json:"error,omitempty"`
}

// Failed reports whether the run ended in a task failure.
func (e RunEvent) Failed() bool { return e.Error != "" }

// Bus is a simple in-memory fanout. It owns no background goroutines.
type Bus struct {
	mu   sync.RWMutex
	subs map[uint64]chan RunEvent
	seq  atomic.Uint64
}

func New() *Bus {
	return &Bus{subs: map[uint64]chan RunEvent{}}
}

// Publish delivers e to every subscriber without blocking. Subscribers whose
// buffers are full miss the event.
func (b *Bus) Publish(e RunEvent) {
	// Snapshot subscribers so Publish doesn't hold locks while attempting sends.
	b.mu.RLock()
	chs := make([]chan RunEvent, 0, len(b.subs))
	for _, ch := range b.subs {
		chs = append(chs, ch)
	}
	b.mu.RUnlock()

	for _, ch := range chs {
		// If a subscriber unsubscribes concurrently and the channel closes,
		// recover from the send panic instead of taking down the publisher.
		func() {
			defer func() { _ = recover() }()
			select {
			case ch <- e:
			default:
			}
		}()
	}
}

// Subscribe registers a buffered subscription. The returned unsubscribe
// function is idempotent and closes the channel.
func (b *Bus) Subscribe(buffer int) (<-chan RunEvent, func()) {
	if buffer <= 0 {
		buffer = 8
	}
	ch := make(chan RunEvent, buffer)
	id := b.seq.Add(1)

	b.mu.Lock()
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	unsub := func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.subs, id)
			b.mu.Unlock()
			// Closing is safe because Publish recovers from send panics.
			close(ch)
		})
	}
	return ch, unsub
}
