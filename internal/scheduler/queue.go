package scheduler

import (
	"container/heap"

	"github.com/dagflow/dagflow/internal/dag"
)

// readyQueue orders ready nodes by descending task priority, breaking ties
// by ascending build_counter (declaration order): a "(-priority,
// build_counter)" ordering.
type readyQueue []*dag.Node

func (q readyQueue) Len() int { return len(q) }

func (q readyQueue) Less(i, j int) bool {
	pi, pj := q[i].Priority(), q[j].Priority()
	if pi != pj {
		return pi > pj
	}
	return q[i].BuildCounter < q[j].BuildCounter
}

func (q readyQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *readyQueue) Push(x any) { *q = append(*q, x.(*dag.Node)) }

func (q *readyQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

var _ heap.Interface = (*readyQueue)(nil)
