package engine

import (
	"context"
	"fmt"
	"time"
)

// EvalTimeout is the default hard limit for a single script run.
const EvalTimeout = 5 * time.Second

// evalResult passes evaluation results through channels.
type evalResult struct {
	result Result
	err    error
}

// waitWithTimeout waits for a result from ch, but returns ErrTimeout if the
// run exceeds timeout, or the context error if ctx ends first.
//
// On timeout the evaluating goroutine may still be running; ch is buffered
// so it can deliver its result and exit without a reader.
func waitWithTimeout(ctx context.Context, ch <-chan evalResult, timeout time.Duration) (Result, error) {
	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case res := <-ch:
		return res.result, res.err
	case <-timer.C:
		return Result{}, fmt.Errorf("%w after %s", ErrTimeout, timeout)
	case <-ctx.Done():
		return Result{}, ctx.Err()
	}
}
