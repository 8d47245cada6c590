package main

import (
	"errors"
	"flag"
	"fmt"

	"github.com/sdrshn-nmbr/txsched/internal/report"
)

func runReports(state *cliState, args []string) error {
	fs := flag.NewFlagSet("reports", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		return errors.New("usage: reports list|get <id>|delete <id>")
	}

	ctx, cancel := state.withContext()
	defer cancel()

	switch fs.Arg(0) {
	case "list":
		summaries, err := state.listReports(ctx)
		if err != nil {
			return err
		}
		if state.format == "json" {
			return report.WriteJSON(state.out, summaries)
		}
		for _, s := range summaries {
			fmt.Fprintf(state.out, "%s\t%s\tSR=%s\tRC=%s\t%s\n",
				s.ID, s.CreatedAt.Format("2006-01-02T15:04:05Z07:00"), yesNo(s.Serializable), yesNo(s.Recoverable), s.History)
		}
		return nil
	case "get":
		if fs.NArg() != 2 {
			return errors.New("usage: reports get <id>")
		}
		rec, err := state.getReport(ctx, fs.Arg(1))
		if err != nil {
			return err
		}
		if state.format == "json" {
			return report.WriteJSON(state.out, rec)
		}
		return report.WriteText(state.out, rec.Result)
	case "delete":
		if fs.NArg() != 2 {
			return errors.New("usage: reports delete <id>")
		}
		if err := state.deleteReport(ctx, fs.Arg(1)); err != nil {
			return err
		}
		fmt.Fprintln(state.out, "deleted")
		return nil
	default:
		return fmt.Errorf("unknown reports subcommand: %s", fs.Arg(0))
	}
}

func yesNo(v bool) string {
	if v {
		return "YES"
	}
	return "NO"
}
