package main

import (
	"errors"
	"flag"
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/catalog"
	"github.com/sdrshn-nmbr/txsched/internal/report"
	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

var errCatalogMismatch = errors.New("catalog scenarios disagree with the analyzer")

func runCatalog(state *cliState, args []string) error {
	fs := flag.NewFlagSet("catalog", flag.ContinueOnError)
	var run bool
	fs.BoolVar(&run, "run", false, "analyze the scenarios and compare with their expected verdicts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() > 1 {
		return errors.New("usage: catalog [--run] [name]")
	}

	ctx, cancel := state.withContext()
	defer cancel()

	scenarios, err := state.catalog(ctx)
	if err != nil {
		return err
	}
	if fs.NArg() == 1 {
		scenarios, err = selectScenario(scenarios, fs.Arg(0))
		if err != nil {
			return err
		}
	}

	if !run {
		if state.format == "json" {
			return report.WriteJSON(state.out, scenarios)
		}
		for _, sc := range scenarios {
			fmt.Fprintf(state.out, "%-22s %s\n", sc.Name, sc.History)
			fmt.Fprintf(state.out, "%-22s %s\n", "", sc.Description)
		}
		return nil
	}

	failed := 0
	for _, sc := range scenarios {
		rec, err := state.analyze(ctx, sc.History, false)
		if err != nil {
			return fmt.Errorf("%s: %w", sc.Name, err)
		}
		mismatches := compareVerdicts(sc, rec.Result)
		status := "ok"
		if len(mismatches) > 0 {
			status = "MISMATCH " + strings.Join(mismatches, ", ")
			failed++
		}
		fmt.Fprintf(state.out, "%-22s %s\n", sc.Name, status)
	}
	if failed > 0 {
		return fmt.Errorf("%w: %d of %d", errCatalogMismatch, failed, len(scenarios))
	}
	return nil
}

func selectScenario(scenarios []client.Scenario, name string) ([]client.Scenario, error) {
	for _, sc := range scenarios {
		if strings.EqualFold(sc.Name, name) {
			return []client.Scenario{sc}, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", catalog.ErrScenarioNotFound, name)
}

func compareVerdicts(sc client.Scenario, result analysis.Result) []string {
	var mismatches []string
	for _, pr := range result.Properties() {
		want, ok := sc.Expect[pr.Property]
		if ok && want != pr.Verdict {
			mismatches = append(mismatches, fmt.Sprintf("%s want %s got %s", pr.Property, want, pr.Verdict))
		}
	}
	return mismatches
}
