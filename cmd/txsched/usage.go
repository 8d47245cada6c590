package main

import (
	"fmt"
	"io"
)

func dispatchCommand(state *cliState, args []string) error {
	if len(args) == 0 {
		printUsage(state.out)
		return nil
	}

	switch args[0] {
	case "analyze":
		return runAnalyze(state, args[1:])
	case "graph":
		return runGraph(state, args[1:])
	case "diagram":
		return runDiagram(state, args[1:])
	case "catalog":
		return runCatalog(state, args[1:])
	case "reports":
		return runReports(state, args[1:])
	case "interactive":
		return runInteractive(state, args[1:])
	case "help", "-h", "--help":
		printUsage(state.out)
		return nil
	default:
		return fmt.Errorf("unknown command: %s", args[0])
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "usage: txsched [global flags] <command> [command flags]")
	fmt.Fprintln(w, "commands: analyze, graph, diagram, catalog, reports, interactive, help")
	fmt.Fprintln(w, "  analyze [--file path] [--save] [history]   check SR, RC, ACA, ST, RG and VSR")
	fmt.Fprintln(w, "  graph [--dot] [--file path] [history]      print the precedence graph")
	fmt.Fprintln(w, "  diagram [--file path] [history]            print the operation-level conflict diagram")
	fmt.Fprintln(w, "  catalog [--run] [name]                     list or analyze built-in scenarios")
	fmt.Fprintln(w, "  reports list|get <id>|delete <id>          manage saved reports")
	fmt.Fprintln(w, "  interactive                                declare transactions, then enter a history")
}
