package sched

import (
	"context"
	"sync"

	"taskloop/pkg/box"
	"taskloop/pkg/logx"
)

// State is the executor lifecycle state.
type State int

const (
	StateIdle State = iota
	StateRunning
	StatePaused
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "running"
	case StatePaused:
		return "paused"
	default:
		return "idle"
	}
}

// Executor turns wakeup events into queue drains.
//
// Lifecycle: idle until the first Resume, then running; Pause moves it to
// paused (the in-flight entry finishes, the loop exits before consuming the
// next event); Resume starts a fresh drain loop. There is no way back to
// idle.
type Executor struct {
	queue  *Queue
	signal *Signal
	state  *box.Cell[State]

	log     logx.Logger
	failLog logx.Logger

	mu   sync.Mutex
	loop *Loop
}

var _ Handle = (*Executor)(nil)

func NewExecutor(q *Queue, sig *Signal, log logx.Logger) *Executor {
	e := &Executor{
		queue:  q,
		signal: sig,
		state:  box.New(StateIdle),
		log:    log,
	}
	// Task failures can repeat every cycle; keep them from flooding sinks.
	e.failLog = log.Limited(5, 10)
	return e
}

// State returns the current lifecycle state.
func (e *Executor) State() State {
	st, _ := e.state.Read(StateIdle)
	return st
}

// Loop is a handle to one drain-loop instance.
type Loop struct {
	done chan struct{}
}

// Wait blocks until this loop instance has exited.
func (l *Loop) Wait() { <-l.done }

// Done returns a channel closed when this loop instance exits.
func (l *Loop) Done() <-chan struct{} { return l.done }

func (l *Loop) finished() bool {
	select {
	case <-l.done:
		return true
	default:
		return false
	}
}

// Resume moves the executor to running and ensures a drain loop is active,
// returning the handle of that loop. Calling Resume while already running
// returns the existing loop's handle.
func (e *Executor) Resume() *Loop {
	e.mu.Lock()
	defer e.mu.Unlock()

	prev := box.Access(e.state, func(v *State, present *bool) State {
		old := StateIdle
		if *present {
			old = *v
		}
		*v = StateRunning
		*present = true
		return old
	})

	if e.loop != nil && !e.loop.finished() {
		return e.loop
	}
	l := &Loop{done: make(chan struct{})}
	e.loop = l
	go e.drain(l)
	e.log.Debug("executor resumed", logx.String("from", prev.String()))

	// Entries queued while paused must not wait for an external event.
	if e.queue.HasPendingWork() {
		e.signal.Trigger()
	}
	return l
}

// Pause moves the executor to paused. The currently executing entry, if
// any, finishes; the drain loop then exits without consuming further
// events. Queued entries stay queued.
func (e *Executor) Pause() {
	prev := box.Access(e.state, func(v *State, present *bool) State {
		old := StateIdle
		if *present {
			old = *v
		}
		*v = StatePaused
		*present = true
		return old
	})
	if prev == StateRunning {
		e.log.Debug("executor pausing")
	}
	// Wake the loop so it observes the new state instead of blocking on an
	// empty stream.
	e.signal.Trigger()
}

// PauseAndWait pauses and then blocks until the current drain loop has
// fully exited. Useful for deterministic shutdown.
func (e *Executor) PauseAndWait() {
	e.mu.Lock()
	l := e.loop
	e.mu.Unlock()

	e.Pause()
	if l != nil {
		l.Wait()
	}
}

// JustNext runs at most one due entry directly, bypassing the signal and
// the lifecycle state. Usable regardless of whether the executor is
// running, paused, or idle.
func (e *Executor) JustNext(ctx context.Context) (bool, error) {
	return e.queue.RunNext(ctx)
}

func (e *Executor) drain(l *Loop) {
	defer close(l.done)
	defer e.detach(l)

	ctx := context.Background()
	for e.signal.Next(ctx) {
		st, err := e.state.Read()
		if err != nil || st != StateRunning {
			if e.keepRunning(l) {
				continue
			}
			if err != nil {
				// State cleared or never set: terminal for this loop
				// instance only. A fresh Resume starts a healthy loop.
				e.log.Error("executor state missing; drain loop exiting", logx.Err(err))
			} else {
				e.log.Debug("drain loop exiting", logx.String("state", st.String()))
			}
			return
		}

		ran, err := e.queue.RunNext(ctx)
		if err != nil {
			e.failLog.Warn("task failed", logx.Err(err))
		}
		// Re-arm only after a cycle that ran something: backlog must drain
		// without an external event, but an entry that is merely armed for
		// the future must not spin the loop.
		if ran && e.queue.HasPendingWork() {
			e.signal.Trigger()
		}
	}
	e.log.Debug("wakeup stream ended; drain loop exiting")
}

// keepRunning re-checks the lifecycle under the executor lock after the loop
// observed a non-running (or missing) state: a Resume racing with a Pause may
// have flipped the state back while still counting on this loop instance.
// When the loop must exit, it is detached here, inside the same critical
// section, so a concurrent Resume starts a fresh loop instead of reusing one
// that has already committed to exiting.
func (e *Executor) keepRunning(l *Loop) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.loop == l {
		if st, err := e.state.Read(); err == nil && st == StateRunning {
			return true
		}
		e.loop = nil
	}
	return false
}

func (e *Executor) detach(l *Loop) {
	e.mu.Lock()
	if e.loop == l {
		e.loop = nil
	}
	e.mu.Unlock()
}
