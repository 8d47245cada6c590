package logging

import (
	"bytes"
	"errors"
	"log/slog"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"":        slog.LevelInfo,
		"INFO":    slog.LevelInfo,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
	}
	for input, want := range cases {
		got, err := ParseLevel(input)
		if err != nil {
			t.Fatalf("ParseLevel(%q) failed: %v", input, err)
		}
		if got != want {
			t.Fatalf("ParseLevel(%q): expected %v, got %v", input, want, got)
		}
	}

	if _, err := ParseLevel("loud"); !errors.Is(err, ErrUnknownLevel) {
		t.Fatalf("Expected ErrUnknownLevel, got %v", err)
	}
}

func TestNewFiltersByLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := Component(New(&buf, slog.LevelWarn), "analyzer")

	logger.Info("hidden")
	logger.Warn("shown", slog.Int("transactions", 2))

	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("Info record should be filtered: %s", out)
	}
	for _, want := range []string{"shown", "component=analyzer", "transactions=2"} {
		if !strings.Contains(out, want) {
			t.Fatalf("Expected %q in %s", want, out)
		}
	}
}
