package main

import (
	"errors"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/parser"
)

var errHistoryRequired = errors.New("a history is required: pass it as arguments or with --file")

// historyInput returns the history from --file when set, otherwise the
// remaining arguments joined by spaces.
func historyInput(file string, args []string) (string, error) {
	if file != "" {
		return parser.ReadHistoryFile(file)
	}
	history := strings.TrimSpace(strings.Join(args, " "))
	if history == "" {
		return "", errHistoryRequired
	}
	return history, nil
}
