package main

import (
	"flag"
	"fmt"
	"io"

	"github.com/sdrshn-nmbr/txsched/internal/graph"
	"github.com/sdrshn-nmbr/txsched/internal/report"
	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

func runGraph(state *cliState, args []string) error {
	fs := flag.NewFlagSet("graph", flag.ContinueOnError)
	var file string
	var dot bool
	fs.StringVar(&file, "file", "", "read the history from a file")
	fs.BoolVar(&dot, "dot", false, "print Graphviz DOT source")
	if err := fs.Parse(args); err != nil {
		return err
	}

	history, err := historyInput(file, fs.Args())
	if err != nil {
		return err
	}

	ctx, cancel := state.withContext()
	defer cancel()

	if dot {
		source, err := state.graphDOT(ctx, history)
		if err != nil {
			return err
		}
		_, err = io.WriteString(state.out, source)
		return err
	}

	g, err := state.graph(ctx, history)
	if err != nil {
		return err
	}
	if state.format == "json" {
		return report.WriteJSON(state.out, g)
	}
	printGraph(state.out, g)
	return nil
}

func printGraph(w io.Writer, g client.Graph) {
	fmt.Fprintln(w, "=== Precedence Graph ===")
	fmt.Fprintf(w, "Nodes: %s\n", graph.FormatOrder(g.Nodes))
	fmt.Fprintln(w, "Edges:")
	if len(g.Edges) == 0 {
		fmt.Fprintln(w, "  (none)")
	}
	for _, e := range g.Edges {
		fmt.Fprintf(w, "  %s -> %s  (%s)\n", e.From, e.To, e.Witness)
	}
	if g.Acyclic {
		fmt.Fprintf(w, "Equivalent serial order: %s\n", graph.FormatOrder(g.SerialOrder))
		return
	}
	fmt.Fprintf(w, "No serial order, cycle: %s\n", graph.FormatCycle(g.Cycle))
}
