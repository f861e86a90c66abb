package sched

import "context"

// Task is a fallible unit of work. The engine knows nothing else about it.
type Task interface {
	Run(ctx context.Context) error
}

// TaskFunc adapts a function to the Task interface.
type TaskFunc func(ctx context.Context) error

func (f TaskFunc) Run(ctx context.Context) error { return f(ctx) }
