package pipeline

import (
	"context"

	"github.com/dagflow/dagflow/internal/task"
)

type callResult struct {
	value any
	err   error
}

// execGoroutine runs def.Call on its own goroutine and races it against
// ctx.Done, realizing both Async and Thread run_in modes (see
// task.RunMode's doc comment for why the two are not distinguished).
func execGoroutine(ctx context.Context, def *task.Definition, args []any) (any, error) {
	resultCh := make(chan callResult, 1)
	go func() {
		v, err := def.Call(ctx, args)
		resultCh <- callResult{v, err}
	}()

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-resultCh:
		return r.value, r.err
	}
}

// baseInvoker returns the innermost Invoker for def, selecting the
// goroutine or subprocess execution strategy by RunIn. sem throttles
// concurrent subprocesses to the Runtime's ProcessPoolMaxWorkers; it is
// ignored for goroutine-based modes.
func baseInvoker(def *task.Definition, sem chan struct{}) task.Invoker {
	if def.RunIn == task.Process {
		return func(ctx context.Context, args []any) (any, error) {
			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			defer func() { <-sem }()
			return execProcess(ctx, def, args)
		}
	}
	return func(ctx context.Context, args []any) (any, error) {
		return execGoroutine(ctx, def, args)
	}
}
