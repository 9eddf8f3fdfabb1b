// Package dagflow is an embeddable in-process workflow engine: declare
// typed, policy-bearing tasks, compose them into a DAG inside a flow body,
// and let the scheduler execute that DAG with bounded concurrency, priority
// ordering, dynamic fan-out, and a choice of failure policy.
package dagflow

import (
	"context"

	"github.com/dagflow/dagflow/internal/dag"
	"github.com/dagflow/dagflow/internal/observability"
	"github.com/dagflow/dagflow/internal/registry"
	"github.com/dagflow/dagflow/internal/runtime"
	"github.com/dagflow/dagflow/internal/scheduler"
	"github.com/dagflow/dagflow/internal/secrets"
	"github.com/dagflow/dagflow/internal/task"
)

// Re-exported building blocks from internal/task and internal/dag: the
// facade a caller outside this module actually sees.
type (
	Definition    = task.Definition
	Option        = task.Option
	RunMode       = task.RunMode
	Placeholder   = task.Placeholder
	FanOutHandle  = task.FanOutHandle
	Builder       = dag.Builder
	RootID        = dag.RootID
	FanOutOption  = dag.FanOutOption
	FailurePolicy = scheduler.FailurePolicy
	RunResult     = scheduler.RunResult
)

// Run modes a task can declare via WithRunIn.
const (
	Async   = task.Async
	Thread  = task.Thread
	Process = task.Process
)

// Failure policies a flow run can select.
const (
	FailFast  = scheduler.FailFast
	Continue  = scheduler.Continue
	Aggregate = scheduler.Aggregate
)

// Task-declaration options, re-exported for callers composing Task(...).
var (
	WithRunIn        = task.WithRunIn
	WithRetries      = task.WithRetries
	WithBackoff      = task.WithBackoff
	WithJitter       = task.WithJitter
	WithTimeout      = task.WithTimeout
	WithCacheTTL     = task.WithCacheTTL
	WithCacheKeyFunc = task.WithCacheKeyFunc
	WithPersist      = task.WithPersist
	WithPriority     = task.WithPriority
	WithTags         = task.WithTags
	WithMiddleware   = task.WithMiddleware

	WithMaxConcurrency = dag.WithMaxConcurrency

	L = task.L
	R = task.R

	NodeRoot = dag.NodeRoot
)

// Task declares a callable unit of work. fn must look like
// func(context.Context, ...) (T, error) or func(context.Context, ...) error.
// The task is registered under name for CLI/process-mode resolution; a
// second Task call with the same name panics.
func Task(name string, fn any, opts ...Option) *Definition {
	def := task.New(name, fn, opts...)
	registry.RegisterTask(def)
	return def
}

// FanOut is a thin convenience wrapper over Builder.FanOutDynamic, included
// at the top level since fan-out is as central to building a flow body as
// invoking a task.
func FanOut(b *Builder, childTask *Definition, source *Placeholder, opts ...FanOutOption) *FanOutHandle {
	return b.FanOutDynamic(childTask, source, opts...)
}

// GetContext reports the run ID the currently executing flow run injected
// into ctx. Task bodies may use it to correlate their own logging with a
// specific run.
func GetContext(ctx context.Context) (runID string, ok bool) {
	return runtime.RunIDFromContext(ctx)
}

// GetParams returns the key/value parameters the current run was started
// with via WithRunParams, or nil if none were supplied.
func GetParams(ctx context.Context) map[string]string {
	return runtime.ParamsFromContext(ctx)
}

// Subscribe registers handler for eventName against the default Runtime's
// event bus, invoked unconditionally (see internal/observability).
func Subscribe(eventName string, handler func(payload map[string]any)) {
	runtime.Default().Events.Subscribe(eventName, handler)
}

// SubscribeFiltered registers handler for eventName, invoked only when the
// CEL filterExpr evaluates true against the event's payload.
func SubscribeFiltered(eventName, filterExpr string, handler func(payload map[string]any)) error {
	return runtime.Default().Events.SubscribeFiltered(eventName, filterExpr, handler)
}

// SetTracer replaces the default Runtime's tracer.
func SetTracer(t observability.Tracer) {
	runtime.Default().Tracer = t
}

// SetMetricsProvider replaces the default Runtime's metrics sink.
func SetMetricsProvider(m observability.MetricsProvider) {
	runtime.Default().Metrics = m
}

// SetSecretsProvider replaces the process-wide secrets.Provider consulted by
// tasks that need credentials without reading the environment directly.
func SetSecretsProvider(p secrets.Provider) {
	secrets.SetProvider(p)
}

// GetSecret resolves key via the active secrets.Provider.
func GetSecret(key string) (string, bool) {
	return secrets.Get(key)
}
