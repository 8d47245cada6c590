package graph

import (
	"fmt"
	"strings"
)

// DOT renders the graph for Graphviz.
func (g *PrecedenceGraph) DOT() string {
	var b strings.Builder
	b.WriteString("digraph PrecedenceGraph {\n")
	b.WriteString("  rankdir=LR;\n")
	b.WriteString("  node [shape=circle];\n")
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "  %s;\n", n)
	}
	for _, e := range g.edges {
		w := g.witnesses[e]
		fmt.Fprintf(&b, "  %s -> %s [label=\"%s < %s\"];\n", e.From, e.To, w.First, w.Second)
	}
	b.WriteString("}\n")
	return b.String()
}

// String renders a terminal listing of nodes, edges and the serial order.
func (g *PrecedenceGraph) String() string {
	var b strings.Builder
	b.WriteString("=== Precedence Graph ===\n")
	b.WriteString("Nodes:\n")
	for _, n := range g.nodes {
		fmt.Fprintf(&b, "  %s\n", n)
	}
	b.WriteString("\nEdges:\n")
	if len(g.edges) == 0 {
		b.WriteString("  (no edges)\n")
	}
	for _, e := range g.edges {
		w := g.witnesses[e]
		fmt.Fprintf(&b, "  %s --> %s   (%s before %s)\n", e.From, e.To, w.First, w.Second)
	}

	order, err := g.TopologicalOrder()
	fmt.Fprintf(&b, "\nConflict-serializable: %v\n", err == nil)
	if err == nil {
		fmt.Fprintf(&b, "Equivalent serial order: %s\n", FormatOrder(order))
	} else {
		fmt.Fprintf(&b, "No serial order, cycle: %s\n", FormatCycle(g.FindCycle()))
	}
	return b.String()
}
