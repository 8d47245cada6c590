package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/graph"
)

const rule = "============================================================"

func verdictWord(v analysis.Verdict) string {
	switch v {
	case analysis.Holds:
		return "YES"
	case analysis.Fails:
		return "NO"
	default:
		return "N/A"
	}
}

// WriteText renders the result the way the CLI prints it.
func WriteText(w io.Writer, result analysis.Result) error {
	var b strings.Builder
	b.WriteString("\n" + rule + "\n")
	b.WriteString("SCHEDULE ANALYSIS RESULTS\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "History: %s\n", result.History)

	if len(result.Transactions) > 0 {
		parts := make([]string, 0, len(result.Transactions))
		for _, txn := range result.Transactions {
			parts = append(parts, fmt.Sprintf("%s (%s)", txn.ID, txn.Status))
		}
		fmt.Fprintf(&b, "Transactions: %s\n", strings.Join(parts, ", "))
	}

	for _, pr := range result.Properties() {
		fmt.Fprintf(&b, "\n[%s (%s)]\n", pr.Property.Title(), pr.Property)
		fmt.Fprintf(&b, "  Result: %s\n", verdictWord(pr.Verdict))
		if pr.Property == analysis.Serializable && len(result.SerialOrder) > 0 {
			fmt.Fprintf(&b, "  Serial Order: %s\n", graph.FormatOrder(result.SerialOrder))
		}
		fmt.Fprintf(&b, "  Explanation: %s\n", pr.Explanation)
	}
	b.WriteString("\n" + rule + "\n")

	_, err := io.WriteString(w, b.String())
	return err
}

func WriteJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
