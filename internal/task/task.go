// Package task runs a function on its own goroutine and hands the result
// back through a future. Panics in the function are converted to errors,
// and the function's context is cancelled by Cancel or by the parent.
package task

import (
	"context"
	"fmt"
)

// Task is the future of a single background call.
type Task[T any] struct {
	done   chan struct{}
	cancel context.CancelFunc
	val    T
	err    error
}

// Go starts fn on a new goroutine with a context derived from ctx.
func Go[T any](ctx context.Context, fn func(ctx context.Context) (T, error)) *Task[T] {
	ctx, cancel := context.WithCancel(ctx)
	t := &Task[T]{done: make(chan struct{}), cancel: cancel}
	go func() {
		defer close(t.done)
		defer cancel()
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("task: panic: %v", r)
			}
		}()
		t.val, t.err = fn(ctx)
	}()
	return t
}

// Done is closed once the call has returned.
func (t *Task[T]) Done() <-chan struct{} { return t.done }

// Cancel asks the call to stop. It does not wait.
func (t *Task[T]) Cancel() { t.cancel() }

// Wait blocks until the call returns or ctx ends. When ctx ends first the
// call keeps running; its result can still be collected by a later Wait.
func (t *Task[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-t.done:
		return t.val, t.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Result returns the outcome of a finished call and whether it has finished.
func (t *Task[T]) Result() (T, error, bool) {
	select {
	case <-t.done:
		return t.val, t.err, true
	default:
		var zero T
		return zero, nil, false
	}
}
