// Package sched implements a minimal in-process task scheduling engine.
//
// # Overview
//
// Callers enqueue units of work tagged with a schedule mode (run now, run
// once after a delay, run repeatedly at an interval). A separate executor
// drains the queue when woken by a signal; nothing in the engine polls.
//
// The three moving parts are:
//
//   - Queue: owns the scheduled entries and decides what is due.
//   - Signal: the wakeup stream that decouples "something should run" from
//     "run it now". Trigger never blocks and may be called from any
//     goroutine; variants exist for manual, timer-driven, and
//     backend-driven firing.
//   - Executor: consumes the signal, runs one due entry per wakeup, and
//     exposes an idle/running/paused lifecycle.
//
// # Ordering
//
// Immediate entries run in enqueue order (FIFO). When several entries are
// due at the same instant, immediate entries win over delayed ones, and
// delayed over periodic: immediate work expresses explicit urgency and must
// not be starved by recurring background work. Among equally due delayed (or
// periodic) entries, the earlier dueAt runs first, with ties broken by
// enqueue order.
//
// # Timing
//
// A delayed entry never runs before its due time, but there is no promptness
// guarantee: it runs on the first drain cycle at or after that time. A
// periodic entry re-arms from the completion time of its previous run, not
// from the missed due time, so a stalled scheduler does not produce a
// catch-up burst.
//
// # Failure
//
// A failing task does not stop the scheduler. The error is propagated to the
// caller of RunNext/JustNext (the drain loop logs it), and a failing
// periodic entry still fires again at its next interval.
//
// # Concurrency
//
// Enqueue and the queue's bookkeeping are serialized; the queue lock is
// never held while a task runs, so tasks may schedule more work from inside
// their own Run. Pause is cooperative: the in-flight task finishes, then the
// drain loop exits before consuming the next wakeup.
//
// A drain cycle that ran an entry re-fires the signal when more work
// remains, so a backlog drains without further external events. A cycle that
// found nothing due does not re-fire: entries armed for the future are woken
// by the signal's own source (ticker, backend), never by the loop spinning
// on itself.
package sched
