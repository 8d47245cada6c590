package schedule

import (
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
	"golang.org/x/exp/slices"
)

// Schedule is a history: the total order of operations plus a view per
// transaction. It is read-only once built.
type Schedule struct {
	operations   []transaction.Operation
	transactions map[types.TxnID]*transaction.Transaction
	ids          []types.TxnID
}

// New builds a schedule from operations in history order. Positions are
// reassigned to the slice index.
func New(ops []transaction.Operation) (*Schedule, error) {
	s := &Schedule{
		operations:   make([]transaction.Operation, 0, len(ops)),
		transactions: make(map[types.TxnID]*transaction.Transaction),
	}

	for i, op := range ops {
		op.Position = i
		if err := checkOperation(op); err != nil {
			return nil, err
		}

		txn, ok := s.transactions[op.Txn]
		if !ok {
			txn = transaction.NewTransaction(op.Txn)
			s.transactions[op.Txn] = txn
			s.ids = append(s.ids, op.Txn)
		}
		if outcome, done := txn.Outcome(); done {
			return nil, fmt.Errorf("%w: %s at position %d follows %s at position %d",
				ErrOperationAfterOutcome, op, i, outcome, outcome.Position)
		}
		if err := txn.Add(op); err != nil {
			return nil, err
		}
		s.operations = append(s.operations, op)
	}

	slices.Sort(s.ids)
	return s, nil
}

func checkOperation(op transaction.Operation) error {
	if op.Type < types.Read || op.Type > types.Abort {
		return fmt.Errorf("%w: %v at position %d", types.ErrUnknownOperationType, op.Type, op.Position)
	}
	if op.Txn <= 0 {
		return fmt.Errorf("%w: non-positive transaction id %d at position %d", ErrInvalidOperation, op.Txn, op.Position)
	}
	if op.IsData() && op.Item == "" {
		return fmt.Errorf("%w: %s at position %d has no data item", ErrInvalidOperation, op.Type, op.Position)
	}
	if !op.IsData() && op.Item != "" {
		return fmt.Errorf("%w: %s at position %d carries data item %q", ErrInvalidOperation, op.Type, op.Position, op.Item)
	}
	return nil
}

// Validate checks that the log and the per-transaction views agree. A
// schedule produced by New always passes.
func (s *Schedule) Validate() error {
	cursor := make(map[types.TxnID]int, len(s.transactions))
	for i, op := range s.operations {
		if op.Position != i {
			return fmt.Errorf("%w: operation %s has position %d but sits at %d",
				ErrMalformedConflictInput, op, op.Position, i)
		}
		txn, ok := s.transactions[op.Txn]
		if !ok {
			return fmt.Errorf("%w: operation %s at position %d references unknown transaction %s",
				ErrMalformedConflictInput, op, i, op.Txn)
		}
		next := cursor[op.Txn]
		if next >= len(txn.Operations) || txn.Operations[next] != op {
			return fmt.Errorf("%w: view of %s disagrees with the history at position %d",
				ErrMalformedConflictInput, op.Txn, i)
		}
		cursor[op.Txn] = next + 1
	}
	for id, txn := range s.transactions {
		if cursor[id] != len(txn.Operations) {
			return fmt.Errorf("%w: %s has operations missing from the history",
				ErrMalformedConflictInput, id)
		}
	}
	return nil
}

// Operations returns the history in schedule order. Callers must not modify
// the returned slice.
func (s *Schedule) Operations() []transaction.Operation {
	return s.operations
}

func (s *Schedule) Len() int {
	return len(s.operations)
}

func (s *Schedule) Transaction(id types.TxnID) (*transaction.Transaction, bool) {
	txn, ok := s.transactions[id]
	return txn, ok
}

// IDs returns the transaction ids in ascending order.
func (s *Schedule) IDs() []types.TxnID {
	return slices.Clone(s.ids)
}

func (s *Schedule) Transactions() []*transaction.Transaction {
	out := make([]*transaction.Transaction, 0, len(s.ids))
	for _, id := range s.ids {
		out = append(out, s.transactions[id])
	}
	return out
}

func (s *Schedule) Committed() []*transaction.Transaction {
	return s.withStatus(transaction.Committed)
}

func (s *Schedule) Aborted() []*transaction.Transaction {
	return s.withStatus(transaction.Aborted)
}

func (s *Schedule) Active() []*transaction.Transaction {
	return s.withStatus(transaction.Active)
}

func (s *Schedule) withStatus(status transaction.TransactionStatus) []*transaction.Transaction {
	var out []*transaction.Transaction
	for _, id := range s.ids {
		if txn := s.transactions[id]; txn.Status() == status {
			out = append(out, txn)
		}
	}
	return out
}

// Outcome returns the commit or abort of txn, if it has one.
func (s *Schedule) Outcome(id types.TxnID) (transaction.Operation, bool) {
	txn, ok := s.transactions[id]
	if !ok {
		return transaction.Operation{}, false
	}
	return txn.Outcome()
}

// Project returns the sub-history made of the given transactions only,
// renumbered from zero.
func (s *Schedule) Project(keep func(*transaction.Transaction) bool) *Schedule {
	ops := make([]transaction.Operation, 0, len(s.operations))
	for _, op := range s.operations {
		if keep(s.transactions[op.Txn]) {
			ops = append(ops, op)
		}
	}
	projected, err := New(ops)
	if err != nil {
		// a subsequence of a valid schedule is valid
		panic(err)
	}
	return projected
}

func (s *Schedule) String() string {
	parts := make([]string, 0, len(s.operations))
	for _, op := range s.operations {
		parts = append(parts, op.String())
	}
	return strings.Join(parts, " ")
}
