package sched

import (
	"context"
	"sync"

	"taskloop/pkg/logx"
)

// Scheduler bundles a queue, a wakeup signal, and an executor into one
// engine instance. It is the type most callers want; the underlying pieces
// stay reachable for code that composes them differently.
type Scheduler struct {
	queue  *Queue
	signal *Signal
	exec   *Executor

	log logx.Logger
	obs Observer
}

type Option func(*Scheduler)

// WithSignal replaces the default manual signal, e.g. with a ticking one.
func WithSignal(sig *Signal) Option {
	return func(s *Scheduler) { s.signal = sig }
}

func WithLogger(log logx.Logger) Option {
	return func(s *Scheduler) { s.log = log }
}

// WithObserver installs a hook that receives a RunReport after every
// executed entry.
func WithObserver(obs Observer) Option {
	return func(s *Scheduler) { s.obs = obs }
}

func New(opts ...Option) *Scheduler {
	s := &Scheduler{log: logx.Nop()}
	for _, opt := range opts {
		opt(s)
	}
	if s.signal == nil {
		s.signal = NewSignal()
	}
	s.queue = NewQueue(s.obs)
	s.exec = NewExecutor(s.queue, s.signal, s.log)
	return s
}

// Enqueue inserts a task under the given mode. It does not wake the
// executor; that is the wakeup source's job (call Trigger for an immediate
// nudge).
func (s *Scheduler) Enqueue(task Task, mode Mode, opts ...EnqueueOption) ID {
	return s.queue.Enqueue(task, mode, opts...)
}

// Cancel removes a waiting entry by ID.
func (s *Scheduler) Cancel(id ID) bool { return s.queue.Cancel(id) }

// Trigger fires the wakeup signal.
func (s *Scheduler) Trigger() { s.signal.Trigger() }

func (s *Scheduler) Resume() *Loop { return s.exec.Resume() }
func (s *Scheduler) Pause()        { s.exec.Pause() }
func (s *Scheduler) PauseAndWait() { s.exec.PauseAndWait() }
func (s *Scheduler) State() State  { return s.exec.State() }

// JustNext runs at most one due entry directly; see Executor.JustNext.
func (s *Scheduler) JustNext(ctx context.Context) (bool, error) {
	return s.exec.JustNext(ctx)
}

func (s *Scheduler) Queue() *Queue       { return s.queue }
func (s *Scheduler) Signal() *Signal     { return s.signal }
func (s *Scheduler) Executor() *Executor { return s.exec }

// Close pauses the executor, waits for the drain loop to exit, and closes
// the wakeup signal (stopping a ticking signal's timer). The queue's
// entries are left in place; a closed scheduler can still serve JustNext.
func (s *Scheduler) Close() {
	s.exec.PauseAndWait()
	s.signal.Close()
}

// ---- Process-wide default instance ----

var (
	defaultMu   sync.Mutex
	defaultInst *Scheduler
)

// Default returns the process-wide scheduler, created on first use with a
// manual signal and no logging. Prefer passing an explicit *Scheduler;
// Default exists for code without an obvious composition root.
func Default() *Scheduler {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultInst == nil {
		defaultInst = New()
	}
	return defaultInst
}

// ResetDefault tears down the default instance (deterministically stopping
// its drain loop) so the next Default call starts fresh. Intended for test
// isolation.
func ResetDefault() {
	defaultMu.Lock()
	inst := defaultInst
	defaultInst = nil
	defaultMu.Unlock()

	if inst != nil {
		inst.Close()
	}
}
