package task_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow/internal/task"
)

func square(ctx context.Context, x int) (int, error) {
	return x * x, nil
}

func TestDefineAndCall(t *testing.T) {
	def := task.Define("square", square, task.WithPriority(5))
	assert.Equal(t, "square", def.Name)
	assert.Equal(t, 5, def.Priority)
	assert.Equal(t, task.Thread, def.RunIn) // default run mode

	out, err := def.Call(context.Background(), []any{4})
	require.NoError(t, err)
	assert.Equal(t, 16, out)
}

func TestCallPropagatesError(t *testing.T) {
	boom := task.New("boom", func(ctx context.Context, x int) (int, error) {
		return 0, errors.New("kaboom")
	})
	_, err := boom.Call(context.Background(), []any{1})
	assert.EqualError(t, err, "kaboom")
}

func TestNewPanicsOnBadSignature(t *testing.T) {
	assert.Panics(t, func() {
		task.New("bad", func(x int) int { return x })
	})
}

func TestDefaultCacheKeyStable(t *testing.T) {
	k1 := task.DefaultCacheKey("f", []any{1, "a"})
	k2 := task.DefaultCacheKey("f", []any{1, "a"})
	k3 := task.DefaultCacheKey("f", []any{"a", 1})
	assert.Equal(t, k1, k2)
	assert.NotEqual(t, k1, k3)
}

func TestWithTags(t *testing.T) {
	def := task.New("t", func(ctx context.Context) error { return nil }, task.WithTags("critical", "io"))
	assert.True(t, def.HasTag("critical"))
	assert.False(t, def.HasTag("missing"))
}
