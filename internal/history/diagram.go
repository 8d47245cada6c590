package history

import (
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

// ConflictEdge links two conflicting operations of different transactions,
// by their positions in the history.
type ConflictEdge struct {
	Before int `json:"before"`
	After  int `json:"after"`
}

type Chain struct {
	Txn        types.TxnID             `json:"txn"`
	Operations []transaction.Operation `json:"operations"`
}

// Diagram is the operation-level view of a history: one chain per
// transaction plus the conflict order between transactions.
type Diagram struct {
	Operations []transaction.Operation `json:"operations"`
	Chains     []Chain                 `json:"chains"`
	Conflicts  []ConflictEdge          `json:"conflicts"`
}

func Build(s *schedule.Schedule) *Diagram {
	ops := s.Operations()
	d := &Diagram{Operations: ops}

	for _, txn := range s.Transactions() {
		d.Chains = append(d.Chains, Chain{Txn: txn.ID, Operations: txn.Operations})
	}
	for i := range ops {
		for j := i + 1; j < len(ops); j++ {
			if ops[i].ConflictsWith(ops[j]) {
				d.Conflicts = append(d.Conflicts, ConflictEdge{Before: i, After: j})
			}
		}
	}
	return d
}

func (d *Diagram) String() string {
	var b strings.Builder
	b.WriteString("=== History Diagram ===\n\n")
	b.WriteString("Schedule (order):\n  ")
	labels := make([]string, 0, len(d.Operations))
	for _, op := range d.Operations {
		labels = append(labels, op.String())
	}
	b.WriteString(strings.Join(labels, "  "))
	b.WriteString("\n\nPer-transaction chains:\n")
	for _, chain := range d.Chains {
		parts := make([]string, 0, len(chain.Operations))
		for _, op := range chain.Operations {
			parts = append(parts, op.String())
		}
		fmt.Fprintf(&b, "  %s: %s\n", chain.Txn, strings.Join(parts, " ----+ "))
	}
	b.WriteString("\nConflict edges (before --> after):\n")
	if len(d.Conflicts) == 0 {
		b.WriteString("  (none)\n")
	}
	for _, e := range d.Conflicts {
		fmt.Fprintf(&b, "  %s  -->  %s\n", d.Operations[e.Before], d.Operations[e.After])
	}
	return b.String()
}
