package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/parser"
	"github.com/sdrshn-nmbr/txsched/internal/report"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
)

var errQuit = errors.New("quit")

func isQuit(line string) bool {
	switch strings.ToLower(line) {
	case "quit", "exit", "q":
		return true
	}
	return false
}

// prompt prints label and returns the next trimmed line. End of input and
// the quit words both end the session.
func (c *cliState) prompt(label string) (string, error) {
	fmt.Fprint(c.out, label)
	line, err := c.in.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		fmt.Fprintln(c.out)
		return "", errQuit
	}
	line = strings.TrimSpace(line)
	if isQuit(line) {
		return "", errQuit
	}
	return line, nil
}

func runInteractive(state *cliState, args []string) error {
	fs := flag.NewFlagSet("interactive", flag.ContinueOnError)
	var save bool
	fs.BoolVar(&save, "save", false, "store every report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	fmt.Fprintln(state.out, strings.Repeat("=", 60))
	fmt.Fprintln(state.out, "Transaction Schedule Analyzer")
	fmt.Fprintln(state.out, strings.Repeat("=", 60))
	fmt.Fprintln(state.out, "\nEnter 'quit' or 'exit' to terminate.")

	for {
		err := interactiveRound(state, save)
		if errors.Is(err, errQuit) {
			fmt.Fprintln(state.out, "Exiting. Goodbye!")
			return nil
		}
		if err != nil {
			fmt.Fprintf(state.out, "\nError: %v\n\n", err)
		}
	}
}

func interactiveRound(state *cliState, save bool) error {
	line, err := state.prompt("\nEnter the number of transactions: ")
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(line)
	if err != nil {
		fmt.Fprintln(state.out, "Error: Please enter a valid number.")
		return nil
	}
	if count < 1 {
		fmt.Fprintln(state.out, "Error: Number of transactions must be at least 1.")
		return nil
	}

	fmt.Fprintf(state.out, "\nEnter %d transaction sequence(s) in format: T1: r1[x] w1[x] c1\n", count)
	declared := make([]*transaction.Transaction, 0, count)
	for i := 0; i < count; i++ {
		for {
			line, err := state.prompt(fmt.Sprintf("Transaction %d: ", i+1))
			if err != nil {
				return err
			}
			txn, err := parser.ParseTransaction(line)
			if err != nil {
				fmt.Fprintf(state.out, "  Error: %v\n", err)
				fmt.Fprintln(state.out, "  Please enter in format: T1: r1[x] w1[x] c1")
				continue
			}
			fmt.Fprintf(state.out, "  Parsed: %s\n", txn)
			declared = append(declared, txn)
			break
		}
	}

	fmt.Fprintln(state.out, "\nEnter the history (schedule) in one line:")
	fmt.Fprintln(state.out, "Example: r1[x] w1[x] r2[y] w2[y] c1 c2")
	var history string
	for {
		line, err := state.prompt("History: ")
		if err != nil {
			return err
		}
		if line == "" {
			fmt.Fprintln(state.out, "Error: History cannot be empty.")
			continue
		}
		s, err := parser.ParseSchedule(line)
		if err == nil {
			err = parser.CheckAgainst(s, declared)
		}
		if err != nil {
			fmt.Fprintf(state.out, "  Error: %v\n", err)
			fmt.Fprintln(state.out, "  Please enter in format: r1[x] w1[x] r2[y] w2[y] c1 c2")
			continue
		}
		fmt.Fprintf(state.out, "  Parsed schedule: %s\n", s)
		history = s.String()
		break
	}

	ctx, cancel := state.withContext()
	defer cancel()
	rec, err := state.analyze(ctx, history, save)
	if err != nil {
		return err
	}
	if err := report.WriteText(state.out, rec.Result); err != nil {
		return err
	}
	if rec.ID != "" {
		fmt.Fprintf(state.out, "report id: %s\n", rec.ID)
	}
	return nil
}
