package dag

import (
	"fmt"

	"github.com/dagflow/dagflow/internal/task"
)

// Builder accumulates nodes as a flow body invokes tasks and fan-outs. It is
// not safe for concurrent use: a flow body runs on a single goroutine during
// the build phase.
type Builder struct {
	counter  int
	nodes    map[string]*Node
	order    []string
	fanOutN  int
	rootNode string
}

// NewBuilder creates an empty Builder.
func NewBuilder() *Builder {
	return &Builder{nodes: make(map[string]*Node)}
}

func (b *Builder) next() int {
	b.counter++
	return b.counter
}

// Invoke records a task invocation and returns its build-time placeholder.
// It does not execute def's function.
func (b *Builder) Invoke(def *task.Definition, args ...task.Arg) *task.Placeholder {
	n := b.next()
	id := fmt.Sprintf("%s:%d", def.Name, n)
	node := &Node{
		ID:           id,
		Kind:         KindTask,
		Label:        def.Name,
		BuildCounter: n,
		Def:          def,
		Args:         args,
	}
	b.nodes[id] = node
	b.order = append(b.order, id)
	return &task.Placeholder{NodeID: id, Def: def}
}

// FanOutOption configures a dynamic fan-out.
type FanOutOption func(*Node)

// WithMaxConcurrency sets the advisory (non-enforced) concurrency hint for a
// dynamic fan-out's children.
func WithMaxConcurrency(n int) FanOutOption {
	return func(node *Node) { node.MaxConcurrency = &n }
}

// FanOutDynamic declares a fan-out whose children are created at runtime
// once source succeeds.
func (b *Builder) FanOutDynamic(childTask *task.Definition, source *task.Placeholder, opts ...FanOutOption) *task.FanOutHandle {
	b.fanOutN++
	id := fmt.Sprintf("fanout:%d", b.fanOutN)
	n := b.next()
	node := &Node{
		ID:           id,
		Kind:         KindFanOut,
		Label:        fmt.Sprintf("fan_out(%s)", childTask.Name),
		BuildCounter: n,
		FanOutSource: source.NodeID,
		ChildTask:    childTask,
	}
	for _, opt := range opts {
		opt(node)
	}
	b.nodes[id] = node
	b.order = append(b.order, id)
	return &task.FanOutHandle{ID: id, ChildTask: childTask, SourceNode: source.NodeID}
}

// FanOutStatic expands a concrete, build-time-known collection into one
// Invocation per element, returning them in source order.
func FanOutStatic[T any](b *Builder, childTask *task.Definition, items []T) []*task.Placeholder {
	out := make([]*task.Placeholder, 0, len(items))
	for _, item := range items {
		out = append(out, b.Invoke(childTask, task.Literal{Value: item}))
	}
	return out
}

// SetRoot records the placeholder/handle the flow body returned. Build does
// not read it: reachability is anchored at the RootID passed to Build.
func (b *Builder) SetRoot(nodeID string) {
	b.rootNode = nodeID
}

// Lookup returns a node by ID, or nil.
func (b *Builder) Lookup(id string) *Node {
	return b.nodes[id]
}
