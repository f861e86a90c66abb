package sched

import (
	"container/heap"
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// ID identifies one scheduled entry. Assigned at enqueue time, stable for
// the entry's lifetime.
type ID string

type entry struct {
	id    ID
	name  string
	task  Task
	mode  Mode
	dueAt time.Time // zero for immediate entries
	seq   uint64
	idx   int // position in its heap; -1 while not heap-resident
}

// entryHeap is a min-heap ordered by dueAt, with the enqueue sequence number
// as a stable tie-break for equal due times.
type entryHeap []*entry

func (h entryHeap) Len() int { return len(h) }

func (h entryHeap) Less(i, j int) bool {
	if h[i].dueAt.Equal(h[j].dueAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].dueAt.Before(h[j].dueAt)
}

func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].idx = i
	h[j].idx = j
}

func (h *entryHeap) Push(x any) {
	e := x.(*entry)
	e.idx = len(*h)
	*h = append(*h, e)
}

func (h *entryHeap) Pop() any {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil // allow GC
	e.idx = -1
	*h = old[:n-1]
	return e
}

func (h entryHeap) peek() *entry {
	if len(h) == 0 {
		return nil
	}
	return h[0]
}

// Queue owns the scheduled entries. Every entry lives in exactly one of
// three collections: ready (immediate, FIFO), delayed (single-shot,
// min-heap by due time), periodic (repeating, min-heap by due time).
//
// All methods are safe for concurrent use. The internal lock is never held
// while a task executes, so a running task may call Enqueue.
type Queue struct {
	mu  sync.Mutex
	seq uint64

	ready    []*entry
	delayed  entryHeap
	periodic entryHeap

	obs Observer
}

// NewQueue returns an empty queue. obs may be nil; when set, it receives a
// RunReport after every executed entry.
func NewQueue(obs Observer) *Queue {
	return &Queue{obs: obs}
}

type EnqueueOption func(*entry)

// Named attaches a human-readable name to the entry. Names show up in run
// reports and logs; they carry no identity (use the returned ID for that).
func Named(name string) EnqueueOption {
	return func(e *entry) { e.name = name }
}

// Enqueue inserts a task under the given mode and returns the entry's ID.
// It always succeeds and never blocks on task execution.
func (q *Queue) Enqueue(task Task, mode Mode, opts ...EnqueueOption) ID {
	e := &entry{
		id:   ID(uuid.NewString()),
		task: task,
		mode: mode,
		idx:  -1,
	}
	for _, opt := range opts {
		opt(e)
	}

	q.mu.Lock()
	defer q.mu.Unlock()
	q.seq++
	e.seq = q.seq
	now := time.Now()
	switch {
	case mode.kind == modeAfter:
		e.dueAt = now.Add(mode.d)
		heap.Push(&q.delayed, e)
	case mode.kind == modeEvery:
		e.dueAt = now.Add(mode.d)
		heap.Push(&q.periodic, e)
	default:
		q.ready = append(q.ready, e)
	}
	return e.id
}

// Cancel removes a waiting entry by ID. It returns false when no waiting
// entry has that ID — including an entry that is executing right now (a
// periodic entry can only be cancelled between runs).
func (q *Queue) Cancel(id ID) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	for i, e := range q.ready {
		if e.id == id {
			q.ready = append(q.ready[:i], q.ready[i+1:]...)
			return true
		}
	}
	for _, h := range []*entryHeap{&q.delayed, &q.periodic} {
		for _, e := range *h {
			if e.id == id {
				heap.Remove(h, e.idx)
				return true
			}
		}
	}
	return false
}

// RunNext performs one scheduling cycle: it selects at most one due entry,
// removes it from its collection, executes it, and re-arms it if periodic.
//
// Selection order when multiple entries are due: ready first (FIFO), then
// the earliest-due delayed entry, then the earliest-due periodic entry.
//
// The first return reports whether an entry ran at all; the error is the
// failure of that entry's task, if any. A task failure leaves the queue
// consistent — the entry was removed (or re-armed) before the error is
// returned, so a failing periodic task still fires at its next interval.
func (q *Queue) RunNext(ctx context.Context) (bool, error) {
	q.mu.Lock()
	e := q.popDueLocked(time.Now())
	q.mu.Unlock()
	if e == nil {
		return false, nil
	}

	started := time.Now()
	err := runTask(ctx, e.task)
	dur := time.Since(started)

	if e.mode.Periodic() {
		// Re-arm from completion time, not the missed due time, so a stall
		// does not produce a catch-up burst.
		q.mu.Lock()
		e.dueAt = time.Now().Add(e.mode.d)
		heap.Push(&q.periodic, e)
		q.mu.Unlock()
	}

	if q.obs != nil {
		q.obs.RunDone(RunReport{
			ID:       e.id,
			Name:     e.name,
			Mode:     e.mode,
			Started:  started,
			Duration: dur,
			Err:      err,
		})
	}
	return true, err
}

func (q *Queue) popDueLocked(now time.Time) *entry {
	if len(q.ready) > 0 {
		e := q.ready[0]
		q.ready[0] = nil
		q.ready = q.ready[1:]
		return e
	}
	if e := q.delayed.peek(); e != nil && !e.dueAt.After(now) {
		return heap.Pop(&q.delayed).(*entry)
	}
	if e := q.periodic.peek(); e != nil && !e.dueAt.After(now) {
		return heap.Pop(&q.periodic).(*entry)
	}
	return nil
}

// HasPendingWork reports whether any collection is non-empty. Entries that
// are not yet due still count as pending.
func (q *Queue) HasPendingWork() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.ready) > 0 || len(q.delayed) > 0 || len(q.periodic) > 0
}

// Stats is a point-in-time view of the queue's collection sizes.
type Stats struct {
	Ready    int
	Delayed  int
	Periodic int
}

func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Ready: len(q.ready), Delayed: len(q.delayed), Periodic: len(q.periodic)}
}

// runTask converts a panicking task into a failed one, so one misbehaving
// task cannot take down the drain loop.
func runTask(ctx context.Context, t Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return t.Run(ctx)
}
