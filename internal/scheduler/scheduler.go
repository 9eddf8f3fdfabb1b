// Package scheduler is the bounded-concurrency, priority-ordered driver
// that walks a built dag.DAG to completion, expanding dynamic fan-outs as
// their sources resolve and applying one of three failure policies.
package scheduler

import (
	"container/heap"
	"context"
	"sort"

	"github.com/dagflow/dagflow/internal/dag"
	flowerrors "github.com/dagflow/dagflow/internal/errors"
	"github.com/dagflow/dagflow/internal/observability"
	"github.com/dagflow/dagflow/internal/pipeline"
	"github.com/dagflow/dagflow/internal/runtime"
	"github.com/dagflow/dagflow/internal/task"
)

// FailurePolicy selects how a run reacts to a task failure.
type FailurePolicy int

const (
	// FailFast cancels every other in-flight and not-yet-started node the
	// instant one task fails, and the run returns that task's error.
	FailFast FailurePolicy = iota
	// Continue lets independent branches keep running; a failed node's
	// transitive dependents are marked Skipped. The run itself does not
	// error unless the root node is skipped or failed.
	Continue
	// Aggregate behaves like Continue but collects every failure and
	// returns them together as an AggregateTaskError once the run drains.
	Aggregate
)

// Scheduler drives one dag.DAG to completion against a Runtime's dispatch
// pipeline.
type Scheduler struct {
	rt             *runtime.Runtime
	dispatcher     *pipeline.Dispatcher
	maxConcurrency int
	failurePolicy  FailurePolicy
}

// Option configures a Scheduler.
type Option func(*Scheduler)

func WithMaxConcurrency(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.maxConcurrency = n
		}
	}
}

func WithFailurePolicy(p FailurePolicy) Option {
	return func(s *Scheduler) { s.failurePolicy = p }
}

// New builds a Scheduler bound to rt, defaulting to a concurrency bound of 8
// and the fail_fast policy.
func New(rt *runtime.Runtime, opts ...Option) *Scheduler {
	s := &Scheduler{
		rt:             rt,
		dispatcher:     pipeline.New(rt),
		maxConcurrency: 8,
		failurePolicy:  FailFast,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunResult is the outcome of driving a DAG to completion.
type RunResult struct {
	RunID   string
	Results map[string]any
	State   map[string]dag.NodeState
	Failed  []string
	Skipped []string
	Errors  []error
}

// Root returns the resolved value of the DAG's root node, if it completed.
func (r *RunResult) Root(d *dag.DAG) (any, bool) {
	v, ok := r.Results[d.Root]
	return v, ok
}

type completion struct {
	nodeID string
	value  any
	err    error
}

// run is the mutable per-invocation state the single-threaded main loop
// owns; only the completion channel crosses goroutine boundaries.
type run struct {
	d          *dag.DAG
	s          *Scheduler
	indegree   map[string]int
	state      map[string]dag.NodeState
	results    map[string]any
	pending    int
	nextCount  int
	remainChildren map[string]int
	done       chan completion
	errs       []error
	failedIDs  []string
	skippedIDs []string
}

// Run executes d to completion. ctx cancellation stops dispatching new
// nodes and cancels in-flight dispatches; it always returns whatever
// RunResult was assembled so far alongside the resulting error.
func (s *Scheduler) Run(ctx context.Context, d *dag.DAG) (*RunResult, error) {
	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	runID := newRunID()
	runCtx = runtime.WithRunID(runCtx, runID)

	span := s.rt.Tracer.Start("flow", map[string]any{"run_id": runID})
	defer span.End()

	r := &run{
		d:              d,
		s:              s,
		indegree:       make(map[string]int, len(d.Nodes)),
		state:          make(map[string]dag.NodeState, len(d.Nodes)),
		results:        make(map[string]any, len(d.Nodes)),
		remainChildren: make(map[string]int),
		done:           make(chan completion),
	}

	s.rt.Events.Emit(observability.EventFlowStarted, map[string]any{"run_id": runID})

	ready := &readyQueue{}
	heap.Init(ready)
	for _, id := range d.Order {
		n := d.Nodes[id]
		nodeDeps, fanOutDeps := n.DependsOn()
		deg := len(nodeDeps) + len(fanOutDeps)
		r.indegree[id] = deg
		r.state[id] = dag.Pending
		r.pending++
		r.nextCount = maxInt(r.nextCount, n.BuildCounter+1)
		if deg == 0 {
			r.state[id] = dag.Ready
			heap.Push(ready, n)
		}
	}

	inFlight := 0
	var finalErr error

loop:
	for r.pending > 0 {
		for inFlight < s.maxConcurrency && ready.Len() > 0 && runCtx.Err() == nil {
			n := heap.Pop(ready).(*dag.Node)
			r.state[n.ID] = dag.Running
			inFlight++
			go r.execute(runCtx, n)
		}

		if inFlight == 0 {
			if runCtx.Err() != nil || ready.Len() == 0 {
				break loop
			}
		}

		c := <-r.done
		inFlight--
		r.onCompletion(ready, c, cancel)

		if s.failurePolicy == FailFast && c.err != nil && finalErr == nil {
			finalErr = c.err
			cancel()
		}
	}

	for inFlight > 0 {
		<-r.done
		inFlight--
	}

	s.rt.Events.Emit(observability.EventFlowCompleted, map[string]any{"run_id": runID, "errors": len(r.errs)})

	result := &RunResult{
		RunID:   runID,
		Results: r.results,
		State:   r.state,
		Failed:  r.failedIDs,
		Skipped: r.skippedIDs,
		Errors:  r.errs,
	}

	switch s.failurePolicy {
	case FailFast:
		if finalErr != nil {
			return result, finalErr
		}
		if runCtx.Err() != nil {
			return result, runCtx.Err()
		}
	case Aggregate:
		if len(r.errs) > 0 {
			// r.errs is in completion order; r.failedIDs runs parallel to it.
			idx := make([]int, len(r.errs))
			for i := range idx {
				idx[i] = i
			}
			sort.SliceStable(idx, func(a, b int) bool {
				return d.Nodes[r.failedIDs[idx[a]]].BuildCounter < d.Nodes[r.failedIDs[idx[b]]].BuildCounter
			})
			ordered := make([]error, len(idx))
			for i, j := range idx {
				ordered[i] = r.errs[j]
			}
			return result, flowerrors.NewAggregateTaskError(ordered)
		}
	case Continue:
		if st, ok := r.state[d.Root]; ok && (st == dag.Failed || st == dag.Skipped) {
			return result, flowerrors.NewFlowBuildError("root node did not complete: " + st.String())
		}
	}
	return result, nil
}

// execute resolves n's arguments and dispatches it, sending the outcome on
// r.done. Fan-out barrier nodes are handled inline since expansion itself
// cannot block a worker slot.
func (r *run) execute(ctx context.Context, n *dag.Node) {
	if n.Kind == dag.KindFanOut {
		r.expandBarrier(ctx, n)
		return
	}

	args, err := r.resolveArgs(n)
	if err != nil {
		r.done <- completion{nodeID: n.ID, err: err}
		return
	}

	res, err := r.s.dispatcher.Dispatch(ctx, n.ID, n.Def, args)
	if err != nil {
		r.done <- completion{nodeID: n.ID, err: err}
		return
	}
	r.done <- completion{nodeID: n.ID, value: res.Value}
}

func (r *run) resolveArgs(n *dag.Node) ([]any, error) {
	out := make([]any, len(n.Args))
	for i, a := range n.Args {
		switch v := a.(type) {
		case task.Literal:
			out[i] = v.Value
		case task.Ref:
			val, ok := r.results[v.NodeID]
			if !ok {
				return nil, flowerrors.NewFlowBuildError("node " + n.ID + " depends on unresolved node " + v.NodeID)
			}
			out[i] = val
		case task.FanOutRef:
			list, ok := r.results[v.FanOutID].([]any)
			if !ok {
				return nil, flowerrors.NewFlowBuildError("node " + n.ID + " depends on unresolved fan-out " + v.FanOutID)
			}
			if v.Index != nil {
				if *v.Index < 0 || *v.Index >= len(list) {
					return nil, flowerrors.NewDynamicExpansionError(v.FanOutID, "index out of range")
				}
				out[i] = list[*v.Index]
			} else {
				out[i] = list
			}
		}
	}
	return out, nil
}

// expandBarrier resolves a dynamic fan-out's source value, splices in its
// children, and reports completion only once every child has resolved.
func (r *run) expandBarrier(ctx context.Context, barrier *dag.Node) {
	source, ok := r.results[barrier.FanOutSource]
	if !ok {
		r.done <- completion{nodeID: barrier.ID, err: flowerrors.NewFlowBuildError("fan-out source unresolved")}
		return
	}

	children, err := expandFanOut(barrier, source, r.s.rt.MaxDynamicTasks, r.nextCount)
	if err != nil {
		r.done <- completion{nodeID: barrier.ID, err: err}
		return
	}

	r.done <- completion{nodeID: barrier.ID, value: barrierExpanded{children: children}}
}

// barrierExpanded is an internal completion payload distinguishing "the
// barrier's children are now known" from "the barrier itself resolved".
type barrierExpanded struct {
	children []*dag.Node
}

func (r *run) onCompletion(ready *readyQueue, c completion, cancel context.CancelFunc) {
	if expanded, ok := c.value.(barrierExpanded); ok {
		r.spliceChildren(ready, c.nodeID, expanded.children)
		return
	}

	if c.err != nil {
		r.fail(ready, c.nodeID, c.err)
		return
	}

	r.succeed(ready, c.nodeID, c.value)
}

func (r *run) spliceChildren(ready *readyQueue, barrierID string, children []*dag.Node) {
	barrier := r.d.Nodes[barrierID]
	r.d.AddChildren(barrierID, children)
	r.nextCount += len(children)

	if len(children) == 0 {
		r.succeed(ready, barrierID, []any{})
		return
	}

	r.remainChildren[barrierID] = len(children)
	r.state[barrierID] = dag.Expanding
	for _, child := range children {
		r.indegree[child.ID] = 0
		r.state[child.ID] = dag.Ready
		r.pending++
		heap.Push(ready, child)
	}
	_ = barrier
}

func (r *run) succeed(ready *readyQueue, nodeID string, value any) {
	r.state[nodeID] = dag.Succeeded
	r.results[nodeID] = value
	r.pending--

	if barrierID := r.barrierOwning(nodeID); barrierID != "" {
		r.remainChildren[barrierID]--
		if r.remainChildren[barrierID] == 0 {
			r.finishBarrier(ready, barrierID)
		}
		return
	}

	for _, dep := range r.d.Dependents(nodeID) {
		r.indegree[dep]--
		if r.indegree[dep] == 0 && r.state[dep] == dag.Pending {
			r.state[dep] = dag.Ready
			heap.Push(ready, r.d.Nodes[dep])
		}
	}
}

func (r *run) finishBarrier(ready *readyQueue, barrierID string) {
	barrier := r.d.Nodes[barrierID]
	values := make([]any, len(barrier.Children))
	for i, childID := range barrier.Children {
		values[i] = r.results[childID]
	}
	r.state[barrierID] = dag.Succeeded
	r.results[barrierID] = values
	r.pending--

	for _, dep := range r.d.Dependents(barrierID) {
		r.indegree[dep]--
		if r.indegree[dep] == 0 && r.state[dep] == dag.Pending {
			r.state[dep] = dag.Ready
			heap.Push(ready, r.d.Nodes[dep])
		}
	}
}

// barrierOwning returns the fan-out barrier ID nodeID was dynamically
// spliced under, or "" if nodeID is not a fan-out child.
func (r *run) barrierOwning(nodeID string) string {
	for barrierID := range r.remainChildren {
		barrier := r.d.Nodes[barrierID]
		for _, c := range barrier.Children {
			if c == nodeID {
				return barrierID
			}
		}
	}
	return ""
}

func (r *run) fail(ready *readyQueue, nodeID string, err error) {
	r.state[nodeID] = dag.Failed
	r.pending--
	r.errs = append(r.errs, err)
	r.failedIDs = append(r.failedIDs, nodeID)

	if barrierID := r.barrierOwning(nodeID); barrierID != "" {
		r.remainChildren[barrierID]--
		r.skip(ready, barrierID)
		return
	}

	for _, dep := range r.d.Dependents(nodeID) {
		r.skip(ready, dep)
	}
}

// skip recursively marks id and its transitive dependents Skipped, never
// dispatching them. It is a no-op if id already reached a terminal state.
func (r *run) skip(ready *readyQueue, id string) {
	switch r.state[id] {
	case dag.Succeeded, dag.Failed, dag.Skipped, dag.Cancelled:
		return
	}
	r.state[id] = dag.Skipped
	r.skippedIDs = append(r.skippedIDs, id)
	r.pending--
	for _, dep := range r.d.Dependents(id) {
		r.skip(ready, dep)
	}
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
