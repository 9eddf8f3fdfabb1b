package internal

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow"
)

func TestDescribeCmdPrintsJSONByDefault(t *testing.T) {
	square := dagflow.Task("internal_test.describe.square", func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	dagflow.NewFlow("internal_test.describe.flow", func(b *dagflow.Builder) dagflow.RootID {
		sq := b.Invoke(square, dagflow.L(3))
		return dagflow.NodeRoot(sq.NodeID)
	})

	cmd := NewDescribeCmd()
	out := bytes.NewBufferString("")
	cmd.SetOut(out)
	cmd.SetArgs([]string{"internal_test.describe.flow"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `"flow": "internal_test.describe.flow"`)
}

func TestDescribeCmdDOTFormat(t *testing.T) {
	square := dagflow.Task("internal_test.describe_dot.square", func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	dagflow.NewFlow("internal_test.describe_dot.flow", func(b *dagflow.Builder) dagflow.RootID {
		sq := b.Invoke(square, dagflow.L(3))
		return dagflow.NodeRoot(sq.NodeID)
	})

	cmd := NewDescribeCmd()
	out := bytes.NewBufferString("")
	cmd.SetOut(out)
	cmd.SetArgs([]string{"internal_test.describe_dot.flow", "--format", "dot"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "digraph")
}

func TestDescribeCmdUnknownFlow(t *testing.T) {
	cmd := NewDescribeCmd()
	cmd.SetArgs([]string{"internal_test.describe.does_not_exist"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeOf(err))
}
