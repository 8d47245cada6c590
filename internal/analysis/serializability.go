package analysis

import (
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/graph"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

func checkSerializable(g *graph.PrecedenceGraph) (PropertyResult, []types.TxnID, []types.TxnID) {
	result := PropertyResult{Property: Serializable}

	order, err := g.TopologicalOrder()
	if err == nil {
		result.Verdict = Holds
		if len(g.Edges()) == 0 {
			result.Explanation = fmt.Sprintf("precedence graph has no edges; equivalent serial order: %s",
				graph.FormatOrder(order))
		} else {
			result.Explanation = fmt.Sprintf("precedence graph is acyclic (%d edges); equivalent serial order: %s",
				len(g.Edges()), graph.FormatOrder(order))
		}
		return result, order, nil
	}

	cycle := g.FindCycle()
	result.Verdict = Fails
	steps := make([]string, 0, len(cycle))
	for i, from := range cycle {
		to := cycle[(i+1)%len(cycle)]
		w, _ := g.Witness(graph.Edge{From: from, To: to})
		steps = append(steps, fmt.Sprintf("%s -> %s (%s before %s)", from, to, w.First, w.Second))
		result.Violations = append(result.Violations, Violation{
			Earlier: w.First,
			Later:   w.Second,
			Reason:  fmt.Sprintf("%s at position %d precedes conflicting %s at position %d", w.First, w.First.Position, w.Second, w.Second.Position),
		})
	}
	result.Explanation = fmt.Sprintf("precedence graph has a cycle %s: %s",
		graph.FormatCycle(cycle), strings.Join(steps, "; "))
	return result, nil, cycle
}
