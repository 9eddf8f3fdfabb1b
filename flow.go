package dagflow

import (
	"context"

	"github.com/dagflow/dagflow/internal/dag"
	"github.com/dagflow/dagflow/internal/registry"
	"github.com/dagflow/dagflow/internal/runtime"
	"github.com/dagflow/dagflow/internal/scheduler"
)

// FlowBody builds a flow's DAG against b, returning the RootID anchoring
// reachability (a Placeholder's NodeID or a FanOutHandle's ID, wrapped with
// NodeRoot).
type FlowBody func(b *Builder) RootID

// Flow is a named, declared workflow: a build-time FlowBody. Scheduling
// settings are not stored on it; each Run call starts from its own defaults
// and applies its RunOptions.
type Flow struct {
	Name string
	body FlowBody
}

// NewFlow declares a named flow body, registering it for CLI name
// resolution. A second NewFlow call with the same name panics.
func NewFlow(name string, body FlowBody) *Flow {
	f := &Flow{Name: name, body: body}
	registry.RegisterFlow(name, f)
	return f
}

// Build walks the flow body once, producing a fresh DAG. Each call
// re-declares every node from scratch; a Flow carries no run-to-run state.
func (f *Flow) Build() (*dag.DAG, error) {
	b := dag.NewBuilder()
	root := f.body(b)
	return b.Build(root)
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

type runConfig struct {
	maxConcurrency int
	failurePolicy  FailurePolicy
	params         map[string]string
}

// WithRunMaxConcurrency bounds how many nodes this run dispatches at once.
func WithRunMaxConcurrency(n int) RunOption {
	return func(c *runConfig) { c.maxConcurrency = n }
}

// WithRunFailurePolicy selects how this run reacts to a task failure.
func WithRunFailurePolicy(p FailurePolicy) RunOption {
	return func(c *runConfig) { c.failurePolicy = p }
}

// WithRunParams attaches caller-supplied key/value parameters a task body
// can read back via GetParams(ctx), e.g. values passed through the CLI's
// --params flag.
func WithRunParams(params map[string]string) RunOption {
	return func(c *runConfig) { c.params = params }
}

// Run builds the flow and drives it to completion against the default
// Runtime.
func (f *Flow) Run(ctx context.Context, opts ...RunOption) (*RunResult, error) {
	d, err := f.Build()
	if err != nil {
		return nil, err
	}

	cfg := runConfig{maxConcurrency: 8, failurePolicy: FailFast}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.params != nil {
		ctx = runtime.WithParams(ctx, cfg.params)
	}

	rt := runtime.Default()
	s := scheduler.New(rt, scheduler.WithMaxConcurrency(cfg.maxConcurrency), scheduler.WithFailurePolicy(cfg.failurePolicy))
	return s.Run(ctx, d)
}
