package sched

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestSignalCountsTriggers(t *testing.T) {
	t.Parallel()
	s := NewSignal()
	for i := 0; i < 10; i++ {
		s.Trigger()
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	for i := 0; i < 10; i++ {
		if !s.Next(ctx) {
			t.Fatalf("Next returned false after %d of 10 events", i)
		}
	}

	// No more events: Next must now block until the context expires.
	short, cancel2 := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel2()
	if s.Next(short) {
		t.Fatal("Next returned an eleventh event")
	}
}

func TestSignalDeliversPendingBeforeClose(t *testing.T) {
	t.Parallel()
	s := NewSignal()
	s.Trigger()
	s.Trigger()
	s.Close()
	s.Close() // idempotent

	ctx := context.Background()
	if !s.Next(ctx) || !s.Next(ctx) {
		t.Fatal("pending events lost on Close")
	}
	if s.Next(ctx) {
		t.Fatal("Next returned true after the stream ended")
	}
	if s.Next(ctx) {
		t.Fatal("ended stream came back to life")
	}

	// Triggering after Close stays a no-op.
	s.Trigger()
	if s.Next(ctx) {
		t.Fatal("Trigger on a closed signal produced an event")
	}
}

func TestSignalCloseUnblocksConsumer(t *testing.T) {
	t.Parallel()
	s := NewSignal()
	got := make(chan bool, 1)
	go func() {
		got <- s.Next(context.Background())
	}()

	time.Sleep(20 * time.Millisecond) // let the consumer block
	s.Close()

	select {
	case v := <-got:
		if v {
			t.Fatal("Next returned true on a closed empty stream")
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not unblock the blocked consumer")
	}
}

func TestSignalConcurrentTriggers(t *testing.T) {
	t.Parallel()
	const n = 200
	s := NewSignal()

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			s.Trigger()
		}()
	}
	wg.Wait()
	s.Close()

	count := 0
	for s.Next(context.Background()) {
		count++
	}
	if count != n {
		t.Fatalf("delivered %d events, want %d", count, n)
	}
}

func TestTickingSignal(t *testing.T) {
	t.Parallel()
	s := NewTickingSignal(10 * time.Millisecond)
	defer s.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	for i := 0; i < 3; i++ {
		if !s.Next(ctx) {
			t.Fatalf("tick %d never arrived", i)
		}
	}
}

func TestTickingSignalStopsOnClose(t *testing.T) {
	t.Parallel()
	s := NewTickingSignal(5 * time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	s.Close()

	// Drain whatever accumulated; the stream must then end for good.
	ctx := context.Background()
	for s.Next(ctx) {
	}
	time.Sleep(20 * time.Millisecond)
	if s.Next(ctx) {
		t.Fatal("ticker kept producing after Close")
	}
}
