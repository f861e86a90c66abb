package sched

import "context"

// Handle is the surface the engine exposes to external trigger sources.
// Backends must not depend on any other executor method.
type Handle interface {
	// JustNext runs at most one due entry, bypassing the wakeup stream and
	// the executor lifecycle entirely.
	JustNext(ctx context.Context) (bool, error)
}

// Backend is an external trigger source (an OS background scheduler, a push
// event source, a cron service). It receives a Handle at registration and
// calls JustNext whenever its own trigger fires.
type Backend interface {
	Register(h Handle)
	Unregister()
}

// BindBackend registers h with the backend and returns a signal that is
// otherwise manually driven. Closing the signal unregisters the backend.
//
// Registration is explicit composition at startup; the engine makes no
// assumption about the backend beyond the Register/Unregister contract.
func BindBackend(b Backend, h Handle) *Signal {
	s := NewSignal()
	b.Register(h)
	s.stop = b.Unregister
	return s
}
