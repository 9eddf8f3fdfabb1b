package runtime_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/dagflow/dagflow/internal/runtime"
	"github.com/dagflow/dagflow/internal/task"
)

func TestNewAppliesDefaults(t *testing.T) {
	rt := runtime.New()
	assert.NotNil(t, rt.Cache)
	assert.NotNil(t, rt.SingleFlight)
	assert.NotNil(t, rt.Artifacts)
	assert.NotNil(t, rt.Events)
	assert.NotNil(t, rt.Metrics)
	assert.NotNil(t, rt.Tracer)
	assert.Equal(t, task.Thread, rt.DefaultExecutor)
}

func TestOptionsOverrideDefaults(t *testing.T) {
	rt := runtime.New(
		runtime.WithProcessPoolMaxWorkers(8),
		runtime.WithMaxDynamicTasks(50),
		runtime.WithDefaultExecutor(task.Process),
	)
	assert.Equal(t, 8, rt.ProcessPoolMaxWorkers)
	assert.Equal(t, 50, rt.MaxDynamicTasks)
	assert.Equal(t, task.Process, rt.DefaultExecutor)
}

func TestUseAccumulatesGlobalMiddleware(t *testing.T) {
	rt := runtime.New()
	rt.Use(func(next task.Invoker, def *task.Definition, args []any) task.Invoker {
		return func(ctx context.Context, a []any) (any, error) {
			return next(ctx, a)
		}
	})
	assert.Len(t, rt.GlobalMiddleware(), 1)
}

func TestDefaultIsSingleton(t *testing.T) {
	a := runtime.Default()
	b := runtime.Default()
	assert.Same(t, a, b)
}
