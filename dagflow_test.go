package dagflow_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow"
)

func TestFlowRunComposesTasks(t *testing.T) {
	square := dagflow.Task("dagflow_test.square", func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	addOne := dagflow.Task("dagflow_test.add_one", func(ctx context.Context, n int) (int, error) {
		return n + 1, nil
	})

	flow := dagflow.NewFlow("dagflow_test.square_then_add_one", func(b *dagflow.Builder) dagflow.RootID {
		sq := b.Invoke(square, dagflow.L(5))
		total := b.Invoke(addOne, dagflow.R(sq))
		return dagflow.NodeRoot(total.NodeID)
	})

	res, err := flow.Run(context.Background())
	require.NoError(t, err)
	d, err := flow.Build()
	require.NoError(t, err)
	root, ok := res.Root(d)
	require.True(t, ok)
	assert.Equal(t, 26, root)
}

func TestFlowRunWithDynamicFanOut(t *testing.T) {
	values := dagflow.Task("dagflow_test.values", func(ctx context.Context) ([]int, error) {
		return []int{2, 4, 6}, nil
	})
	triple := dagflow.Task("dagflow_test.triple", func(ctx context.Context, n int) (int, error) {
		return n * 3, nil
	})

	flow := dagflow.NewFlow("dagflow_test.fanout_demo", func(b *dagflow.Builder) dagflow.RootID {
		src := b.Invoke(values)
		handle := dagflow.FanOut(b, triple, src)
		return dagflow.NodeRoot(handle.ID)
	})

	res, err := flow.Run(context.Background(), dagflow.WithRunFailurePolicy(dagflow.Continue))
	require.NoError(t, err)
	d, err := flow.Build()
	require.NoError(t, err)
	root, ok := res.Root(d)
	require.True(t, ok)
	assert.ElementsMatch(t, []any{6, 12, 18}, root)
}

func TestGetContextReturnsRunID(t *testing.T) {
	var seen string
	probe := dagflow.Task("dagflow_test.probe", func(ctx context.Context) (int, error) {
		id, _ := dagflow.GetContext(ctx)
		seen = id
		return 1, nil
	})
	flow := dagflow.NewFlow("dagflow_test.probe_flow", func(b *dagflow.Builder) dagflow.RootID {
		n := b.Invoke(probe)
		return dagflow.NodeRoot(n.NodeID)
	})

	_, err := flow.Run(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, seen)
}
