package analysis

import (
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

type Property string

const (
	Serializable     Property = "SR"
	Recoverable      Property = "RC"
	Cascadeless      Property = "ACA"
	Strict           Property = "ST"
	Rigorous         Property = "RG"
	ViewSerializable Property = "VSR"
)

// Title is the long name used in reports.
func (p Property) Title() string {
	switch p {
	case Serializable:
		return "Conflict-Serializable"
	case Recoverable:
		return "Recoverable"
	case Cascadeless:
		return "Avoids Cascading Aborts"
	case Strict:
		return "Strict"
	case Rigorous:
		return "Rigorous"
	case ViewSerializable:
		return "View-Serializable"
	default:
		return string(p)
	}
}

func ParseProperty(value string) (Property, error) {
	switch strings.ToUpper(strings.TrimSpace(value)) {
	case "SR", "CSR":
		return Serializable, nil
	case "RC":
		return Recoverable, nil
	case "ACA":
		return Cascadeless, nil
	case "ST":
		return Strict, nil
	case "RG":
		return Rigorous, nil
	case "VSR":
		return ViewSerializable, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProperty, value)
	}
}

type Verdict string

const (
	Holds        Verdict = "holds"
	Fails        Verdict = "fails"
	Inapplicable Verdict = "inapplicable"
)

// Violation is one ordered pair of operations that breaks a property.
// Outcome is the commit or abort of Earlier's transaction, when it has one.
type Violation struct {
	Earlier transaction.Operation  `json:"earlier"`
	Later   transaction.Operation  `json:"later"`
	Outcome *transaction.Operation `json:"outcome,omitempty"`
	Reason  string                 `json:"reason"`
}

type PropertyResult struct {
	Property    Property    `json:"property"`
	Verdict     Verdict     `json:"verdict"`
	Explanation string      `json:"explanation"`
	Violations  []Violation `json:"violations,omitempty"`
}

func (r PropertyResult) Holds() bool {
	return r.Verdict == Holds
}

type TransactionSummary struct {
	ID     types.TxnID `json:"id"`
	Status string      `json:"status"`
}

// Result is the verdict set for one schedule.
type Result struct {
	History          string               `json:"history"`
	Transactions     []TransactionSummary `json:"transactions"`
	Serializable     PropertyResult       `json:"serializable"`
	Recoverable      PropertyResult       `json:"recoverable"`
	Cascadeless      PropertyResult       `json:"cascadeless"`
	Strict           PropertyResult       `json:"strict"`
	Rigorous         PropertyResult       `json:"rigorous"`
	ViewSerializable PropertyResult       `json:"view_serializable"`
	SerialOrder      []types.TxnID        `json:"serial_order,omitempty"`
	Cycle            []types.TxnID        `json:"cycle,omitempty"`
}

// Properties lists the results in report order.
func (r Result) Properties() []PropertyResult {
	return []PropertyResult{
		r.Serializable,
		r.Recoverable,
		r.Cascadeless,
		r.Strict,
		r.Rigorous,
		r.ViewSerializable,
	}
}

func (r Result) Property(p Property) (PropertyResult, error) {
	for _, pr := range r.Properties() {
		if pr.Property == p {
			return pr, nil
		}
	}
	return PropertyResult{}, fmt.Errorf("%w: %q", ErrUnknownProperty, p)
}

// CheckImplications verifies RG => ST => ACA => RC and SR => VSR.
func (r Result) CheckImplications() error {
	chain := []PropertyResult{r.Rigorous, r.Strict, r.Cascadeless, r.Recoverable}
	for i := 0; i+1 < len(chain); i++ {
		if chain[i].Holds() && !chain[i+1].Holds() {
			return fmt.Errorf("%w: %s holds but %s does not",
				ErrImplicationViolated, chain[i].Property, chain[i+1].Property)
		}
	}
	if r.Serializable.Holds() && r.ViewSerializable.Verdict == Fails {
		return fmt.Errorf("%w: SR holds but VSR does not", ErrImplicationViolated)
	}
	return nil
}
