package dag

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ExportNode is the adjacency-JSON representation of one node.
type ExportNode struct {
	ID    string `json:"id"`
	Label string `json:"label"`
	Kind  string `json:"kind"`
}

// ExportEdge is the adjacency-JSON representation of one dependency edge.
type ExportEdge struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Adjacency is the stable JSON export shape for a DAG's graph.
type Adjacency struct {
	Flow  string       `json:"flow"`
	Nodes []ExportNode `json:"nodes"`
	Edges []ExportEdge `json:"edges"`
	Count int          `json:"count"`
}

// ExportJSON builds the adjacency-JSON export of the DAG as it exists right
// now (build time or any point during a run).
func (d *DAG) ExportJSON(flowName string) Adjacency {
	adj := Adjacency{Flow: flowName}
	ids := append([]string{}, d.Order...)
	sort.Strings(ids) // stable regardless of map iteration order upstream
	for _, id := range ids {
		n := d.Nodes[id]
		adj.Nodes = append(adj.Nodes, ExportNode{ID: n.ID, Label: n.Label, Kind: n.Kind.String()})
		depNodes, depFanOuts := n.DependsOn()
		for _, dep := range append(depNodes, depFanOuts...) {
			adj.Edges = append(adj.Edges, ExportEdge{From: dep, To: n.ID})
		}
	}
	adj.Count = len(adj.Nodes)
	return adj
}

// MarshalJSON is a convenience wrapper around ExportJSON + json.Marshal.
func (d *DAG) MarshalJSON(flowName string) ([]byte, error) {
	return json.Marshal(d.ExportJSON(flowName))
}

// ExportDOT renders the DAG as Graphviz DOT. Fan-out barriers render as
// diamond nodes labeled fan_out(<task>); every dependency is wired through
// the barrier, never bypassing it with a direct source->consumer edge.
func (d *DAG) ExportDOT(flowName string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "digraph %s {\n", sanitizeID(flowName))

	ids := append([]string{}, d.Order...)
	sort.Strings(ids)
	for _, id := range ids {
		n := d.Nodes[id]
		if n.Kind == KindFanOut {
			fmt.Fprintf(&b, "  %q [shape=diamond label=%q];\n", n.ID, n.Label)
		} else {
			fmt.Fprintf(&b, "  %q [label=%q];\n", n.ID, n.Label)
		}
	}
	for _, id := range ids {
		n := d.Nodes[id]
		depNodes, depFanOuts := n.DependsOn()
		for _, dep := range append(depNodes, depFanOuts...) {
			fmt.Fprintf(&b, "  %q -> %q;\n", dep, n.ID)
		}
	}
	b.WriteString("}\n")
	return b.String()
}

func sanitizeID(s string) string {
	r := strings.NewReplacer(" ", "_", "-", "_", ":", "_")
	return r.Replace(s)
}
