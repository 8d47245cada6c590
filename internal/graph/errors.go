package graph

import (
	"errors"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/types"
)

var ErrCycle = errors.New("precedence graph is cyclic")

// CycleError is returned by TopologicalOrder when no serial order exists.
type CycleError struct {
	Cycle []types.TxnID
}

func (e *CycleError) Error() string {
	return "precedence graph has a cycle: " + FormatCycle(e.Cycle)
}

func (e *CycleError) Unwrap() error {
	return ErrCycle
}

// FormatCycle renders a cycle as T1 -> T2 -> T1.
func FormatCycle(cycle []types.TxnID) string {
	if len(cycle) == 0 {
		return ""
	}
	parts := make([]string, 0, len(cycle)+1)
	for _, id := range cycle {
		parts = append(parts, id.String())
	}
	parts = append(parts, cycle[0].String())
	return strings.Join(parts, " -> ")
}

// FormatOrder renders a serial order as T1 -> T2.
func FormatOrder(order []types.TxnID) string {
	parts := make([]string, 0, len(order))
	for _, id := range order {
		parts = append(parts, id.String())
	}
	return strings.Join(parts, " -> ")
}
