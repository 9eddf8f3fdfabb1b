package runtime

import "context"

type ctxKey int

const (
	runIDKey ctxKey = iota
	paramsKey
)

// WithRunID returns a context carrying runID, read back by RunIDFromContext.
// internal/scheduler calls this once per Run; task bodies read it back via
// the root package's GetContext.
func WithRunID(ctx context.Context, runID string) context.Context {
	return context.WithValue(ctx, runIDKey, runID)
}

// RunIDFromContext returns the run ID a scheduler run injected into ctx, if
// any.
func RunIDFromContext(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(runIDKey).(string)
	return v, ok
}

// WithParams returns a context carrying a run's caller-supplied parameters
// (e.g. from the CLI's --params flag), read back by ParamsFromContext.
func WithParams(ctx context.Context, params map[string]string) context.Context {
	return context.WithValue(ctx, paramsKey, params)
}

// ParamsFromContext returns the parameters a run was started with, or nil.
func ParamsFromContext(ctx context.Context) map[string]string {
	v, _ := ctx.Value(paramsKey).(map[string]string)
	return v
}
