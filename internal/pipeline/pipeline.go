// Package pipeline implements the per-node dispatch pipeline: cache lookup,
// single-flight join, the middleware onion, timeout + retry, result
// persistence, and the task_* observability events around every call.
package pipeline

import (
	"context"
	"time"

	flowerrors "github.com/dagflow/dagflow/internal/errors"
	"github.com/dagflow/dagflow/internal/observability"
	"github.com/dagflow/dagflow/internal/runtime"
	"github.com/dagflow/dagflow/internal/task"
)

// Dispatcher executes a single task.Definition with its full policy set
// against a Runtime's shared resources.
type Dispatcher struct {
	rt         *runtime.Runtime
	processSem chan struct{}
}

// New builds a Dispatcher bound to rt, sizing the process-mode subprocess
// semaphore from rt.ProcessPoolMaxWorkers.
func New(rt *runtime.Runtime) *Dispatcher {
	workers := rt.ProcessPoolMaxWorkers
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		rt:         rt,
		processSem: make(chan struct{}, workers),
	}
}

// Result carries a dispatch's outcome plus metadata the scheduler records
// against the node (cache hit, attempts used, persisted artifact ref).
type Result struct {
	Value      any
	CacheHit   bool
	Attempts   int
	Persisted  bool
	ArtifactID string
}

// Dispatch runs def against args, identified to observability/tracing as
// nodeID: cache lookup, single-flight join, retry-wrapped timeout-bounded
// execution through the middleware chain, then cache store and optional
// persistence on success.
func (d *Dispatcher) Dispatch(ctx context.Context, nodeID string, def *task.Definition, args []any) (Result, error) {
	var cacheKey string
	if def.HasCache {
		keyFn := def.CacheKeyFn
		if keyFn == nil {
			keyFn = task.DefaultCacheKey
		}
		cacheKey = keyFn(def.Name, args)

		if v, ok, err := d.rt.Cache.Get(cacheKey, time.Duration(def.CacheTTL*float64(time.Second))); err != nil {
			return Result{}, flowerrors.NewCacheError("cache read failed", err)
		} else if ok {
			d.rt.Metrics.IncCacheHits()
			return Result{Value: v, CacheHit: true}, nil
		}
	}

	run := func() (any, error) {
		return d.execute(ctx, nodeID, def, args)
	}

	var value any
	var joined bool
	var err error
	if def.HasCache {
		value, joined, err = d.rt.SingleFlight.Do(cacheKey, run)
		if joined {
			d.rt.Metrics.IncDedupJoins()
		}
	} else {
		value, err = run()
	}

	if err != nil {
		return Result{}, err
	}

	res := Result{Value: value}
	if def.HasCache && !joined {
		if err := d.rt.Cache.Set(cacheKey, value); err != nil {
			return Result{}, flowerrors.NewCacheError("cache write failed", err)
		}
		d.rt.Metrics.IncCacheSets()
	}

	if def.Persist {
		ref, err := d.rt.Artifacts.Put(value)
		if err != nil {
			return Result{}, flowerrors.NewArtifactError("artifact store failed", err)
		}
		res.Persisted = true
		res.ArtifactID = ref.String()
		res.Value = ref
	}

	return res, nil
}

// execute runs the retry/timeout/middleware/tracing stack for a single
// dispatch, independent of caching.
func (d *Dispatcher) execute(ctx context.Context, nodeID string, def *task.Definition, args []any) (any, error) {
	span := d.rt.Tracer.Start("task:"+def.Name, map[string]any{"node_id": nodeID})
	defer span.End()

	d.rt.Events.Emit(observability.EventTaskStarted, map[string]any{
		"node": nodeID,
		"task": taskMeta(def),
	})

	base := baseInvoker(def, d.processSem)
	mws := append(append([]task.Middleware{}, def.Middleware...), d.rt.GlobalMiddleware()...)
	invoke := chain(base, def, args, mws)

	policy := newRetryPolicy(def.Retries, def.RetryBackoff, def.RetryJitter)

	var lastErr error
	start := time.Now()
	for attempt := 0; attempt <= def.Retries; attempt++ {
		if attempt > 0 {
			if err := policy.sleep(ctx, attempt); err != nil {
				d.rt.Metrics.IncTasksFailed()
				return nil, err
			}
			d.rt.Events.Emit(observability.EventTaskRetry, map[string]any{
				"node":    nodeID,
				"task":    taskMeta(def),
				"attempt": attempt,
			})
		}

		attemptCtx := ctx
		var cancel context.CancelFunc
		if def.HasTimeout {
			attemptCtx, cancel = context.WithTimeout(ctx, time.Duration(def.Timeout*float64(time.Second)))
		}

		value, err := invoke(attemptCtx, args)
		if cancel != nil {
			cancel()
		}

		if err == nil {
			d.rt.Metrics.IncTasksSucceeded()
			d.rt.Metrics.ObserveTaskDuration(time.Since(start))
			d.rt.Events.Emit(observability.EventTaskSucceeded, map[string]any{
				"node": nodeID,
				"task": taskMeta(def),
			})
			return value, nil
		}

		if attemptCtx.Err() != nil && ctx.Err() == nil {
			lastErr = flowerrors.NewTimeoutError(def.Name, nodeID)
		} else {
			lastErr = flowerrors.NewTaskExecutionError(def.Name, nodeID, err)
		}

		if ctx.Err() != nil {
			break
		}
	}

	d.rt.Metrics.IncTasksFailed()
	d.rt.Events.Emit(observability.EventTaskFailed, map[string]any{
		"node":  nodeID,
		"task":  taskMeta(def),
		"error": lastErr.Error(),
	})
	if def.Retries > 0 {
		return nil, flowerrors.NewRetryExhaustedError(def.Name, nodeID, def.Retries+1, lastErr)
	}
	return nil, lastErr
}

func taskMeta(def *task.Definition) map[string]any {
	tags := make([]any, 0, len(def.Tags))
	for t := range def.Tags {
		tags = append(tags, t)
	}
	return map[string]any{
		"name": def.Name,
		"tags": tags,
	}
}
