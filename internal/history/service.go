package history

import (
	"context"
	"sync"

	"taskloop/internal/eventbus"
	"taskloop/pkg/logx"
)

// Service consumes run events from the bus and persists them, keeping the
// engine itself free of any storage dependency.
type Service struct {
	store *Store
	bus   *eventbus.Bus
	log   logx.Logger

	mu    sync.Mutex
	unsub func()
	wg    sync.WaitGroup
}

func NewService(store *Store, bus *eventbus.Bus, log logx.Logger) *Service {
	return &Service{store: store, bus: bus, log: log}
}

// Start subscribes to the bus and begins persisting in the background.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.unsub != nil {
		return
	}

	ch, unsub := s.bus.Subscribe(64)
	s.unsub = unsub

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				rec := Record{
					EntryID:  ev.ID,
					Name:     ev.Name,
					Mode:     ev.Mode,
					Started:  ev.Started,
					Duration: ev.Duration,
					Error:    ev.Error,
				}
				if err := s.store.Append(ctx, rec); err != nil && ctx.Err() == nil {
					s.log.Warn("history append failed", logx.String("entry", ev.ID), logx.Err(err))
				}
			}
		}
	}()
	s.log.Debug("history service started")
}

// Stop unsubscribes and waits for the writer goroutine to drain.
func (s *Service) Stop() {
	s.mu.Lock()
	unsub := s.unsub
	s.unsub = nil
	s.mu.Unlock()

	if unsub != nil {
		unsub()
	}
	s.wg.Wait()
	s.log.Debug("history service stopped")
}
