package main

import (
	"flag"
	"fmt"

	"github.com/sdrshn-nmbr/txsched/internal/report"
)

func runAnalyze(state *cliState, args []string) error {
	fs := flag.NewFlagSet("analyze", flag.ContinueOnError)
	var file string
	var save bool
	fs.StringVar(&file, "file", "", "read the history from a file")
	fs.BoolVar(&save, "save", false, "store the report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	history, err := historyInput(file, fs.Args())
	if err != nil {
		return err
	}

	ctx, cancel := state.withContext()
	defer cancel()

	rec, err := state.analyze(ctx, history, save)
	if err != nil {
		return err
	}

	if state.format == "json" {
		return report.WriteJSON(state.out, rec)
	}
	if err := report.WriteText(state.out, rec.Result); err != nil {
		return err
	}
	if rec.ID != "" {
		fmt.Fprintf(state.out, "report id: %s\n", rec.ID)
	}
	return nil
}
