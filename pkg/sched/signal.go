package sched

import (
	"context"
	"sync"
	"time"
)

// Signal is the wakeup stream the executor drains on. Trigger appends one
// event; Next consumes one, blocking until an event is available or the
// stream ends.
//
// Trigger never blocks and never drops events: pending wakeups are counted,
// so ten triggers wake the consumer ten times. The stream supports a single
// consumer; Trigger may be called from any number of goroutines.
type Signal struct {
	mu      sync.Mutex
	pending int
	closed  bool

	// wake carries at most one token; pending carries the actual count.
	wake chan struct{}
	stop func()
}

// NewSignal returns a manually driven signal: events appear only through
// Trigger.
func NewSignal() *Signal {
	return &Signal{wake: make(chan struct{}, 1)}
}

// NewTickingSignal returns a signal that triggers itself every interval.
// Close stops the internal ticker. Manual Trigger calls still work.
func NewTickingSignal(interval time.Duration) *Signal {
	s := NewSignal()
	t := time.NewTicker(interval)
	done := make(chan struct{})
	s.stop = func() {
		t.Stop()
		close(done)
	}
	go func() {
		for {
			select {
			case <-done:
				return
			case <-t.C:
				s.Trigger()
			}
		}
	}()
	return s
}

// Trigger appends one event to the stream. Triggering a closed signal is a
// no-op.
func (s *Signal) Trigger() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.pending++
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Next consumes one event. It returns false when the stream has ended
// (Close was called and all pending events were delivered) or when ctx is
// done.
func (s *Signal) Next(ctx context.Context) bool {
	for {
		s.mu.Lock()
		if s.pending > 0 {
			s.pending--
			s.mu.Unlock()
			return true
		}
		if s.closed {
			s.mu.Unlock()
			return false
		}
		s.mu.Unlock()

		select {
		case <-s.wake:
		case <-ctx.Done():
			return false
		}
	}
}

// Close ends the stream. Pending events are still delivered; after that,
// Next returns false. Close is idempotent.
func (s *Signal) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	stop := s.stop
	s.stop = nil
	s.mu.Unlock()

	if stop != nil {
		stop()
	}
	select {
	case s.wake <- struct{}{}:
	default:
	}
}
