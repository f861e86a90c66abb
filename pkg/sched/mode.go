package sched

import (
	"fmt"
	"time"
)

type modeKind int

const (
	modeNow modeKind = iota
	modeAfter
	modeEvery
)

// Mode describes when, and how often, an enqueued task becomes due.
// Construct values with Now, After, or Every; the zero value equals Now().
type Mode struct {
	kind modeKind
	d    time.Duration
}

// Now schedules the task to run on the next drain cycle.
func Now() Mode { return Mode{kind: modeNow} }

// After schedules the task to run once, no earlier than d from enqueue time.
// A non-positive d behaves like Now.
func After(d time.Duration) Mode {
	if d < 0 {
		d = 0
	}
	return Mode{kind: modeAfter, d: d}
}

// Every schedules the task to run repeatedly. Each successive due time is
// computed from the completion of the previous run plus interval.
func Every(interval time.Duration) Mode {
	if interval < 0 {
		interval = 0
	}
	return Mode{kind: modeEvery, d: interval}
}

// Periodic reports whether the mode re-arms after each run.
func (m Mode) Periodic() bool { return m.kind == modeEvery }

// Interval returns the delay (After) or interval (Every); zero for Now.
func (m Mode) Interval() time.Duration { return m.d }

func (m Mode) String() string {
	switch m.kind {
	case modeAfter:
		return fmt.Sprintf("after %s", m.d)
	case modeEvery:
		return fmt.Sprintf("every %s", m.d)
	default:
		return "now"
	}
}
