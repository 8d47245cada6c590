package parser

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

var (
	terminalPattern    = regexp.MustCompile(`(?i)^(c|a)(\d+)$`)
	dataPattern        = regexp.MustCompile(`(?i)^(r|w|inc|dec)(\d+)\[([A-Za-z0-9_]+)\]$`)
	transactionPattern = regexp.MustCompile(`(?i)^T(\d+):\s*(.*)$`)
)

// ParseOperation reads one token such as r1[x], inc3[z], c1 or a2.
func ParseOperation(token string) (transaction.Operation, error) {
	token = strings.TrimSpace(token)

	if m := terminalPattern.FindStringSubmatch(token); m != nil {
		txn, err := parseTxnID(m[2])
		if err != nil {
			return transaction.Operation{}, err
		}
		if strings.EqualFold(m[1], "c") {
			return transaction.NewCommit(txn), nil
		}
		return transaction.NewAbort(txn), nil
	}

	if m := dataPattern.FindStringSubmatch(token); m != nil {
		opType, err := types.ParseOperationType(m[1])
		if err != nil {
			return transaction.Operation{}, err
		}
		txn, err := parseTxnID(m[2])
		if err != nil {
			return transaction.Operation{}, err
		}
		return transaction.NewData(opType, txn, types.Item(m[3])), nil
	}

	return transaction.Operation{}, fmt.Errorf("invalid operation format: %q", token)
}

func parseTxnID(raw string) (types.TxnID, error) {
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid transaction id %q", raw)
	}
	if n <= 0 {
		return 0, fmt.Errorf("transaction id must be positive, got %d", n)
	}
	return types.TxnID(n), nil
}

// ParseOperations splits text on whitespace and parses every token. The
// position of each operation is its token index.
func ParseOperations(text string) ([]transaction.Operation, error) {
	tokens := strings.Fields(text)
	ops := make([]transaction.Operation, 0, len(tokens))
	for i, token := range tokens {
		op, err := ParseOperation(token)
		if err != nil {
			return nil, &ParseError{Index: i, Token: token, Reason: err.Error()}
		}
		op.Position = i
		ops = append(ops, op)
	}
	return ops, nil
}

// ParseSchedule parses a whole history, e.g. "r1[x] w1[x] r2[y] c1 c2".
func ParseSchedule(text string) (*schedule.Schedule, error) {
	ops, err := ParseOperations(text)
	if err != nil {
		return nil, err
	}
	if len(ops) == 0 {
		return nil, ErrEmptyHistory
	}
	s, err := schedule.New(ops)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParse, err)
	}
	return s, nil
}

// MustParseSchedule is ParseSchedule for tests and fixed catalog entries.
func MustParseSchedule(text string) *schedule.Schedule {
	s, err := ParseSchedule(text)
	if err != nil {
		panic(err)
	}
	return s
}

// ParseTransaction reads a declaration such as "T1: r1[x] w1[x] c1".
func ParseTransaction(line string) (*transaction.Transaction, error) {
	m := transactionPattern.FindStringSubmatch(strings.TrimSpace(line))
	if m == nil {
		return nil, &ParseError{Token: line, Reason: "expected format T1: r1[x] w1[x] c1"}
	}
	id, err := parseTxnID(m[1])
	if err != nil {
		return nil, &ParseError{Token: line, Reason: err.Error()}
	}

	ops, err := ParseOperations(m[2])
	if err != nil {
		return nil, err
	}
	txn := transaction.NewTransaction(id)
	for i, op := range ops {
		if err := txn.Add(op); err != nil {
			return nil, &ParseError{Index: i, Token: op.String(), Reason: err.Error()}
		}
	}
	return txn, nil
}

// CheckAgainst verifies that s only uses declared transactions and that
// each declared transaction appears in s in its declared order.
func CheckAgainst(s *schedule.Schedule, declared []*transaction.Transaction) error {
	byID := make(map[types.TxnID]*transaction.Transaction, len(declared))
	for _, txn := range declared {
		byID[txn.ID] = txn
	}

	for _, id := range s.IDs() {
		want, ok := byID[id]
		if !ok {
			return fmt.Errorf("%w: %s", ErrUndeclared, id)
		}
		got, _ := s.Transaction(id)
		if !sameSequence(got.Operations, want.Operations) {
			return fmt.Errorf("%w: %s declared as %q", ErrNotInterleaved, id, want.String())
		}
	}
	for _, txn := range declared {
		if _, ok := s.Transaction(txn.ID); !ok && len(txn.Operations) > 0 {
			return fmt.Errorf("%w: %s is missing from the history", ErrNotInterleaved, txn.ID)
		}
	}
	return nil
}

func sameSequence(got, want []transaction.Operation) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i].Type != want[i].Type || got[i].Item != want[i].Item {
			return false
		}
	}
	return true
}
