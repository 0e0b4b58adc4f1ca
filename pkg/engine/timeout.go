package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chazu/platen/internal/task"
	"github.com/chazu/platen/pkg/graph"
)

// EvalTimeout is the default limit for a single evaluation.
const EvalTimeout = 5 * time.Second

var (
	// ErrTimeout is returned when a script runs past the engine's timeout.
	ErrTimeout = errors.New("engine: evaluation timed out")
	// ErrSuperseded is returned by an evaluation that finished after a
	// newer one had started.
	ErrSuperseded = errors.New("engine: evaluation superseded by newer request")
)

type evalResult struct {
	root   *graph.Node
	errors []EvalError
}

// run evaluates source on a background task and waits at most the engine
// timeout. The interpreter cannot be interrupted, so a timed-out script
// keeps running; its result is dropped.
func (e *Engine) run(ctx context.Context, gen uint64, source string) (evalResult, error) {
	t := task.Go(ctx, func(ctx context.Context) (evalResult, error) {
		return e.evaluate(ctx, source)
	})

	timer := time.NewTimer(e.timeout)
	defer timer.Stop()

	select {
	case <-t.Done():
	case <-timer.C:
		t.Cancel()
		return evalResult{}, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	case <-ctx.Done():
		t.Cancel()
		return evalResult{}, ctx.Err()
	}

	res, err, _ := t.Result()
	if e.generation.Load() != gen {
		return evalResult{}, ErrSuperseded
	}
	return res, err
}
