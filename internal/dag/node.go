// Package dag implements the DAG and FanOut primitive components: the graph
// of task/fan-out nodes produced by walking a flow body, its build-time
// invariants (acyclicity, reachability), and its runtime expansion.
package dag

import "github.com/dagflow/dagflow/internal/task"

// NodeKind distinguishes a plain task node from a dynamic fan-out barrier.
type NodeKind int

const (
	KindTask NodeKind = iota
	KindFanOut
)

func (k NodeKind) String() string {
	if k == KindFanOut {
		return "fanout"
	}
	return "task"
}

// NodeState is the scheduler-owned per-run state of a node.
type NodeState int

const (
	Pending NodeState = iota
	Ready
	Running
	Expanding // FanOut only: source succeeded, children not yet spliced
	Succeeded
	Failed
	Cancelled
	Skipped
)

func (s NodeState) String() string {
	switch s {
	case Pending:
		return "pending"
	case Ready:
		return "ready"
	case Running:
		return "running"
	case Expanding:
		return "expanding"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	case Skipped:
		return "skipped"
	default:
		return "unknown"
	}
}

// Node is one vertex of the DAG: either a task invocation or a fan-out
// barrier. BuildCounter orders nodes that become ready simultaneously.
type Node struct {
	ID           string
	Kind         NodeKind
	Label        string
	BuildCounter int

	// KindTask fields.
	Def  *task.Definition
	Args []task.Arg

	// KindFanOut fields.
	FanOutSource   string // node ID of the source task
	ChildTask      *task.Definition
	MaxConcurrency *int // advisory hint, not enforced
	Children       []string
}

// Priority returns the node's scheduling priority: the task's own priority
// for a task node, or its child task's priority for a fan-out barrier (the
// barrier itself never runs user code).
func (n *Node) Priority() int {
	if n.Kind == KindFanOut {
		if n.ChildTask != nil {
			return n.ChildTask.Priority
		}
		return 0
	}
	return n.Def.Priority
}

// DependsOn returns the set of node/fan-out IDs this node's arguments
// reference.
func (n *Node) DependsOn() (nodeIDs []string, fanOutIDs []string) {
	for _, a := range n.Args {
		nodeID, fanOutID := task.DependsOn(a)
		if nodeID != "" {
			nodeIDs = append(nodeIDs, nodeID)
		}
		if fanOutID != "" {
			fanOutIDs = append(fanOutIDs, fanOutID)
		}
	}
	if n.Kind == KindFanOut {
		nodeIDs = append(nodeIDs, n.FanOutSource)
	}
	return nodeIDs, fanOutIDs
}
