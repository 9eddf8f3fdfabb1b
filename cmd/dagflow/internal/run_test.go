package internal

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dagflow/dagflow"
)

func TestRunCmdSucceeds(t *testing.T) {
	square := dagflow.Task("internal_test.run.square", func(ctx context.Context, n int) (int, error) {
		return n * n, nil
	})
	dagflow.NewFlow("internal_test.run.flow", func(b *dagflow.Builder) dagflow.RootID {
		sq := b.Invoke(square, dagflow.L(4))
		return dagflow.NodeRoot(sq.NodeID)
	})

	cmd := NewRunCmd()
	out := bytes.NewBufferString("")
	cmd.SetOut(out)
	cmd.SetArgs([]string{"internal_test.run.flow"})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), `flow "internal_test.run.flow" completed`)
}

func TestRunCmdUnknownFlowExitsWithUsageCode(t *testing.T) {
	cmd := NewRunCmd()
	cmd.SetArgs([]string{"internal_test.run.does_not_exist"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeOf(err))
}

func TestRunCmdBadFailurePolicyExitsWithUsageCode(t *testing.T) {
	noop := dagflow.Task("internal_test.run.bad_policy.noop", func(ctx context.Context) (int, error) {
		return 0, nil
	})
	dagflow.NewFlow("internal_test.run.bad_policy.flow", func(b *dagflow.Builder) dagflow.RootID {
		n := b.Invoke(noop)
		return dagflow.NodeRoot(n.NodeID)
	})

	cmd := NewRunCmd()
	cmd.SetArgs([]string{"internal_test.run.bad_policy.flow", "--failure-policy", "nonsense"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 2, exitCodeOf(err))
}

func TestRunCmdTaskFailureExitsWithRunErrorCode(t *testing.T) {
	boom := dagflow.Task("internal_test.run.boom", func(ctx context.Context) (int, error) {
		return 0, assert.AnError
	})
	dagflow.NewFlow("internal_test.run.failing_flow", func(b *dagflow.Builder) dagflow.RootID {
		n := b.Invoke(boom)
		return dagflow.NodeRoot(n.NodeID)
	})

	cmd := NewRunCmd()
	cmd.SetOut(bytes.NewBufferString(""))
	cmd.SetErr(bytes.NewBufferString(""))
	cmd.SetArgs([]string{"internal_test.run.failing_flow"})
	err := cmd.Execute()
	require.Error(t, err)
	assert.Equal(t, 1, exitCodeOf(err))
}

func TestParseParamsRejectsMissingEquals(t *testing.T) {
	_, err := parseParams([]string{"no-equals-sign"})
	assert.Error(t, err)
}

func TestParseParamsParsesKeyValuePairs(t *testing.T) {
	m, err := parseParams([]string{"a=1", "b=2"})
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"a": "1", "b": "2"}, m)
}
