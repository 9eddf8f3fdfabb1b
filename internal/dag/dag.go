package dag

import (
	"fmt"
	"sort"

	flowerrors "github.com/dagflow/dagflow/internal/errors"
)

// DAG is the graph of nodes reachable from a flow's root placeholder, with
// edges pointing from a dependency to its dependents. It is a single run
// artifact: scheduler state is not shared across runs.
type DAG struct {
	Nodes map[string]*Node
	Order []string // declaration order, reachable subset only

	// edges[dep] = list of node IDs that depend on dep.
	edges map[string][]string
	Root  string
}

// RootID is a reference to a placeholder or fan-out handle's node ID, used
// to anchor a Build call.
type RootID interface {
	rootNodeID() string
}

type rootID string

func (r rootID) rootNodeID() string { return string(r) }

// NodeRoot wraps a raw node ID (from task.Placeholder.NodeID or
// task.FanOutHandle.ID) as a RootID.
func NodeRoot(id string) RootID { return rootID(id) }

// Build validates and materializes the DAG reachable from root.
func (b *Builder) Build(root RootID) (*DAG, error) {
	rootID := root.rootNodeID()
	if _, ok := b.nodes[rootID]; !ok {
		return nil, flowerrors.NewFlowBuildError(fmt.Sprintf("root node %q not found", rootID))
	}

	if err := detectCycle(b.nodes); err != nil {
		return nil, err
	}

	reachable, err := reachableFrom(b.nodes, rootID)
	if err != nil {
		return nil, err
	}

	d := &DAG{
		Nodes: make(map[string]*Node, len(reachable)),
		edges: make(map[string][]string),
		Root:  rootID,
	}
	for _, id := range b.order {
		if _, ok := reachable[id]; !ok {
			continue // tree-shaken: unreferenced placeholder
		}
		d.Nodes[id] = b.nodes[id]
		d.Order = append(d.Order, id)
	}
	for _, n := range d.Nodes {
		depNodes, depFanOuts := n.DependsOn()
		for _, dep := range depNodes {
			d.edges[dep] = append(d.edges[dep], n.ID)
		}
		for _, dep := range depFanOuts {
			d.edges[dep] = append(d.edges[dep], n.ID)
		}
	}
	return d, nil
}

// Dependents returns the node IDs that directly depend on id.
func (d *DAG) Dependents(id string) []string {
	return d.edges[id]
}

// InDegree counts id's required dependencies (nodes plus fan-out barriers).
func (d *DAG) InDegree(id string) int {
	n := d.Nodes[id]
	nodeDeps, fanOutDeps := n.DependsOn()
	return len(nodeDeps) + len(fanOutDeps)
}

// AddChildren splices fan-out children into the DAG at runtime: new nodes
// are added, an edge source->fanout already exists, and edges fanout->child
// and child->(fanout's dependents) are NOT created here directly — children
// feed the barrier, and the barrier's existing dependents are promoted once
// every child succeeds. See scheduler.go.
func (d *DAG) AddChildren(fanOutID string, children []*Node) {
	barrier := d.Nodes[fanOutID]
	for _, c := range children {
		d.Nodes[c.ID] = c
		d.Order = append(d.Order, c.ID)
		barrier.Children = append(barrier.Children, c.ID)
		d.edges[c.ID] = append(d.edges[c.ID], fanOutID)
	}
}

func detectCycle(nodes map[string]*Node) error {
	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make(map[string]int, len(nodes))
	var path []string

	var visit func(id string) error
	visit = func(id string) error {
		color[id] = gray
		path = append(path, id)
		n, ok := nodes[id]
		if ok {
			depNodes, depFanOuts := n.DependsOn()
			all := append(append([]string{}, depNodes...), depFanOuts...)
			for _, dep := range all {
				switch color[dep] {
				case white:
					if err := visit(dep); err != nil {
						return err
					}
				case gray:
					cycle := append(append([]string{}, path...), dep)
					return flowerrors.NewFlowBuildError(fmt.Sprintf("cycle detected: %v", cycle))
				}
			}
		}
		path = path[:len(path)-1]
		color[id] = black
		return nil
	}

	ids := make([]string, 0, len(nodes))
	for id := range nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	for _, id := range ids {
		if color[id] == white {
			if err := visit(id); err != nil {
				return err
			}
		}
	}
	return nil
}

func reachableFrom(nodes map[string]*Node, rootID string) (map[string]struct{}, error) {
	reachable := make(map[string]struct{})
	var visit func(id string) error
	visit = func(id string) error {
		if _, ok := reachable[id]; ok {
			return nil
		}
		n, ok := nodes[id]
		if !ok {
			return flowerrors.NewFlowBuildError(fmt.Sprintf("referenced node %q does not exist", id))
		}
		reachable[id] = struct{}{}
		depNodes, depFanOuts := n.DependsOn()
		for _, dep := range depNodes {
			if err := visit(dep); err != nil {
				return err
			}
		}
		for _, dep := range depFanOuts {
			if err := visit(dep); err != nil {
				return err
			}
		}
		return nil
	}
	if err := visit(rootID); err != nil {
		return nil, err
	}
	return reachable, nil
}
