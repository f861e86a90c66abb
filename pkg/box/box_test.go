package box

import (
	"errors"
	"sync"
	"testing"
)

func TestReadEmpty(t *testing.T) {
	t.Parallel()
	var c Cell[int]

	if _, err := c.Read(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty, got %v", err)
	}
	v, err := c.Read(42)
	if err != nil {
		t.Fatalf("Read with fallback: %v", err)
	}
	if v != 42 {
		t.Fatalf("fallback = %d, want 42", v)
	}
}

func TestOverrideAndClear(t *testing.T) {
	t.Parallel()
	c := New("a")

	v, err := c.Read()
	if err != nil || v != "a" {
		t.Fatalf("Read = %q, %v", v, err)
	}

	c.Override("b")
	if v, _ := c.Read(); v != "b" {
		t.Fatalf("after Override, Read = %q", v)
	}

	c.Clear()
	if _, err := c.Read(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("after Clear, expected ErrEmpty, got %v", err)
	}
	// Fallback must not resurrect the cleared value.
	if v, _ := c.Read("z"); v != "z" {
		t.Fatalf("after Clear, fallback = %q", v)
	}
}

func TestAccessReturnsResult(t *testing.T) {
	t.Parallel()
	c := New(10)

	doubled := Access(c, func(v *int, present *bool) int {
		*v *= 2
		return *v
	})
	if doubled != 20 {
		t.Fatalf("Access result = %d, want 20", doubled)
	}
	if v, _ := c.Read(); v != 20 {
		t.Fatalf("stored = %d, want 20", v)
	}
}

func TestAccessCanEmpty(t *testing.T) {
	t.Parallel()
	c := New(7)

	_ = Access(c, func(v *int, present *bool) struct{} {
		*present = false
		return struct{}{}
	})
	if _, err := c.Read(); !errors.Is(err, ErrEmpty) {
		t.Fatalf("expected ErrEmpty after emptying via Access, got %v", err)
	}
}

func TestAccessAtomicUnderConcurrency(t *testing.T) {
	t.Parallel()
	c := New(0)

	const n = 200
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			Access(c, func(v *int, present *bool) int {
				*v++
				return *v
			})
		}()
	}
	wg.Wait()

	if v, _ := c.Read(); v != n {
		t.Fatalf("counter = %d, want %d", v, n)
	}
}
