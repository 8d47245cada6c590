package main

import (
	"flag"
	"io"

	"github.com/sdrshn-nmbr/txsched/internal/report"
)

func runDiagram(state *cliState, args []string) error {
	fs := flag.NewFlagSet("diagram", flag.ContinueOnError)
	var file string
	fs.StringVar(&file, "file", "", "read the history from a file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	history, err := historyInput(file, fs.Args())
	if err != nil {
		return err
	}

	ctx, cancel := state.withContext()
	defer cancel()

	d, err := state.diagram(ctx, history)
	if err != nil {
		return err
	}
	if state.format == "json" {
		return report.WriteJSON(state.out, d)
	}
	_, err = io.WriteString(state.out, d.String())
	return err
}
