// Package box provides a generic single-slot container that is safe for
// concurrent use.
//
// A Cell holds at most one value. Readers may supply a fallback for the empty
// case; reading an empty cell without a fallback fails with ErrEmpty rather
// than returning a zero value, so "never initialized" and "legitimately zero"
// stay distinguishable.
//
// The zero value of Cell is an empty cell ready for use.
package box

import (
	"errors"
	"sync"
)

// ErrEmpty is returned by Read when the cell holds no value and no fallback
// was supplied.
var ErrEmpty = errors.New("box: cell is empty")

// Cell is a concurrency-safe box around an optional value of type T.
type Cell[T any] struct {
	mu  sync.Mutex
	val T
	set bool
}

// New returns a cell holding v.
func New[T any](v T) *Cell[T] {
	return &Cell[T]{val: v, set: true}
}

// Override unconditionally replaces the cell's content with v.
func (c *Cell[T]) Override(v T) {
	c.mu.Lock()
	c.val = v
	c.set = true
	c.mu.Unlock()
}

// Clear empties the cell.
func (c *Cell[T]) Clear() {
	var zero T
	c.mu.Lock()
	c.val = zero
	c.set = false
	c.mu.Unlock()
}

// Read returns the current value. If the cell is empty, the first fallback is
// returned when one is given; otherwise Read fails with ErrEmpty.
func (c *Cell[T]) Read(fallback ...T) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.set {
		return c.val, nil
	}
	if len(fallback) > 0 {
		return fallback[0], nil
	}
	var zero T
	return zero, ErrEmpty
}

// Access runs fn under the cell's lock, allowing an atomic read-modify-write.
//
// fn receives a pointer to the stored value and a pointer to the presence
// flag; mutations through either are committed when fn returns. The result of
// fn is returned as-is.
//
// This is a package function rather than a method because methods cannot
// introduce the extra result type parameter.
func Access[T, R any](c *Cell[T], fn func(val *T, present *bool) R) R {
	c.mu.Lock()
	defer c.mu.Unlock()
	r := fn(&c.val, &c.set)
	if !c.set {
		var zero T
		c.val = zero
	}
	return r
}
