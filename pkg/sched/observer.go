package sched

import "time"

// RunReport describes one executed entry. It is delivered to the queue's
// Observer after the entry has been removed (and, for periodic entries,
// re-armed), so observers see a consistent queue.
type RunReport struct {
	ID       ID
	Name     string
	Mode     Mode
	Started  time.Time
	Duration time.Duration
	Err      error
}

// Observer receives a report after every executed entry, success or failure.
//
// Implementations must be safe for concurrent use and should return quickly;
// the report is delivered synchronously on the drain loop.
type Observer interface {
	RunDone(r RunReport)
}

// ObserverFunc adapts a function to the Observer interface.
type ObserverFunc func(r RunReport)

func (f ObserverFunc) RunDone(r RunReport) { f(r) }
