package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sdrshn-nmbr/txsched/pkg/client"
)

func newTestState(t *testing.T, input string, globals ...string) (*cliState, *bytes.Buffer) {
	t.Helper()
	cfg, rest, err := parseConfig(globals)
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if len(rest) != 0 {
		t.Fatalf("unexpected args: %v", rest)
	}
	var out bytes.Buffer
	state, err := newCLIState(cfg, strings.NewReader(input), &out)
	if err != nil {
		t.Fatalf("newCLIState failed: %v", err)
	}
	t.Cleanup(state.Close)
	return state, &out
}

func TestParseConfig(t *testing.T) {
	cfg, args, err := parseConfig([]string{"-format", "json", "-max-view-txns", "4", "analyze", "r1[x]"})
	if err != nil {
		t.Fatalf("parseConfig failed: %v", err)
	}
	if cfg.format != "json" || cfg.local.MaxViewTransactions != 4 {
		t.Fatalf("unexpected config: %+v", cfg)
	}
	if len(args) != 2 || args[0] != "analyze" {
		t.Fatalf("unexpected args: %v", args)
	}

	for _, bad := range [][]string{
		{"-mode", "grpc"},
		{"-format", "xml"},
		{"-log-level", "loud"},
		{"-max-view-txns", "0"},
	} {
		if _, _, err := parseConfig(bad); err == nil {
			t.Fatalf("expected error for %v", bad)
		}
	}
}

func TestAnalyzeCommand(t *testing.T) {
	state, out := newTestState(t, "")
	if err := dispatchCommand(state, []string{"analyze", "w1[x]", "r2[x]", "c2", "c1"}); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}
	text := out.String()
	if !strings.Contains(text, "[Recoverable (RC)]\n  Result: NO") {
		t.Fatalf("expected RC failure in output:\n%s", text)
	}
}

func TestAnalyzeCommandFromFileAsJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.txt")
	content := "# lost update\nr1[x] r2[x]\nw1[x] w2[x]\n\nc1 c2\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	state, out := newTestState(t, "", "-format", "json")
	if err := dispatchCommand(state, []string{"analyze", "--file", path, "--save"}); err != nil {
		t.Fatalf("analyze failed: %v", err)
	}

	var rec client.Report
	if err := json.Unmarshal(out.Bytes(), &rec); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if rec.ID == "" || rec.History != "r1[x] r2[x] w1[x] w2[x] c1 c2" {
		t.Fatalf("unexpected report: %+v", rec)
	}
	if rec.Result.Serializable.Holds() {
		t.Fatalf("lost update must not be serializable")
	}

	out.Reset()
	if err := dispatchCommand(state, []string{"reports", "list"}); err != nil {
		t.Fatalf("reports list failed: %v", err)
	}
	if !strings.Contains(out.String(), rec.ID) {
		t.Fatalf("expected %s in report list: %s", rec.ID, out.String())
	}
}

func TestGraphAndDiagramCommands(t *testing.T) {
	state, out := newTestState(t, "")
	if err := dispatchCommand(state, []string{"graph", "r1[x] w2[x] r2[y] w1[y] c1 c2"}); err != nil {
		t.Fatalf("graph failed: %v", err)
	}
	if !strings.Contains(out.String(), "No serial order, cycle: T1 -> T2 -> T1") {
		t.Fatalf("unexpected graph output:\n%s", out.String())
	}

	out.Reset()
	if err := dispatchCommand(state, []string{"graph", "--dot", "r1[x] w2[x] c1 c2"}); err != nil {
		t.Fatalf("graph --dot failed: %v", err)
	}
	if !strings.HasPrefix(out.String(), "digraph") {
		t.Fatalf("expected DOT output:\n%s", out.String())
	}

	out.Reset()
	if err := dispatchCommand(state, []string{"diagram", "r1[x] w2[x] c1 c2"}); err != nil {
		t.Fatalf("diagram failed: %v", err)
	}
	if !strings.Contains(out.String(), "r1[x]  -->  w2[x]") {
		t.Fatalf("unexpected diagram output:\n%s", out.String())
	}

	if err := dispatchCommand(state, []string{"graph"}); err == nil {
		t.Fatalf("expected missing history error")
	}
}

func TestCatalogCommand(t *testing.T) {
	state, out := newTestState(t, "")
	if err := dispatchCommand(state, []string{"catalog", "--run"}); err != nil {
		t.Fatalf("catalog --run failed: %v\n%s", err, out.String())
	}
	if strings.Contains(out.String(), "MISMATCH") {
		t.Fatalf("unexpected mismatch:\n%s", out.String())
	}

	out.Reset()
	if err := dispatchCommand(state, []string{"catalog", "lost-update"}); err != nil {
		t.Fatalf("catalog lookup failed: %v", err)
	}
	if !strings.Contains(out.String(), "r1[x] r2[x] w1[x] w2[x] c1 c2") {
		t.Fatalf("unexpected catalog output:\n%s", out.String())
	}
	if err := dispatchCommand(state, []string{"catalog", "missing"}); err == nil {
		t.Fatalf("expected unknown scenario error")
	}
}

func TestInteractiveCommand(t *testing.T) {
	input := strings.Join([]string{
		"two",
		"2",
		"T1 r1[x]",
		"T1: r1[x] w1[x] c1",
		"T2: r2[x] c2",
		"r2[x] c2 r3[x]",
		"w1[x] r1[x] r2[x] c1 c2",
		"r1[x] w1[x] r2[x] c1 c2",
		"quit",
	}, "\n") + "\n"

	state, out := newTestState(t, input)
	if err := dispatchCommand(state, []string{"interactive"}); err != nil {
		t.Fatalf("interactive failed: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"Error: Please enter a valid number.",
		"Please enter in format: T1: r1[x] w1[x] c1",
		"Parsed: T1: r1[x] w1[x] c1",
		"undeclared transaction",
		"not an interleaving",
		"Parsed schedule: r1[x] w1[x] r2[x] c1 c2",
		"SCHEDULE ANALYSIS RESULTS",
		"Goodbye!",
	} {
		if !strings.Contains(text, want) {
			t.Fatalf("expected %q in session:\n%s", want, text)
		}
	}
}

func TestUnknownCommand(t *testing.T) {
	state, _ := newTestState(t, "")
	if err := dispatchCommand(state, []string{"compact"}); err == nil {
		t.Fatalf("expected unknown command error")
	}
}
