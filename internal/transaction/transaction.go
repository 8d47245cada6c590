package transaction

import (
	"fmt"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/types"
)

// Operation is one event of a history. Position is its index in the
// schedule and defines the total order.
type Operation struct {
	Type     types.OperationType `json:"type"`
	Txn      types.TxnID         `json:"txn"`
	Item     types.Item          `json:"item,omitempty"`
	Position int                 `json:"position"`
}

func NewData(opType types.OperationType, txn types.TxnID, item types.Item) Operation {
	return Operation{Type: opType, Txn: txn, Item: item}
}

func NewCommit(txn types.TxnID) Operation {
	return Operation{Type: types.Commit, Txn: txn}
}

func NewAbort(txn types.TxnID) Operation {
	return Operation{Type: types.Abort, Txn: txn}
}

func (o Operation) IsRead() bool       { return o.Type == types.Read }
func (o Operation) IsWriteClass() bool { return o.Type.IsWriteClass() }
func (o Operation) IsData() bool       { return o.Type.IsData() }
func (o Operation) IsCommit() bool     { return o.Type == types.Commit }
func (o Operation) IsAbort() bool      { return o.Type == types.Abort }
func (o Operation) IsTerminal() bool   { return o.Type.IsTerminal() }

// ConflictsWith reports whether o and other belong to different
// transactions, touch the same item and at least one of them writes it.
func (o Operation) ConflictsWith(other Operation) bool {
	if !o.IsData() || !other.IsData() {
		return false
	}
	if o.Txn == other.Txn || o.Item != other.Item {
		return false
	}
	return o.IsWriteClass() || other.IsWriteClass()
}

// String renders the operation in history notation, e.g. r1[x] or c2.
func (o Operation) String() string {
	if o.IsData() {
		return fmt.Sprintf("%s%d[%s]", o.Type.Token(), int(o.Txn), o.Item)
	}
	return fmt.Sprintf("%s%d", o.Type.Token(), int(o.Txn))
}

type TransactionStatus int

const (
	Active TransactionStatus = iota
	Committed
	Aborted
)

func (s TransactionStatus) String() string {
	switch s {
	case Committed:
		return "committed"
	case Aborted:
		return "aborted"
	default:
		return "active"
	}
}

// Transaction is the per-transaction view of a schedule: its operations in
// schedule order.
type Transaction struct {
	ID         types.TxnID
	Operations []Operation
}

func NewTransaction(id types.TxnID) *Transaction {
	return &Transaction{
		ID:         id,
		Operations: make([]Operation, 0),
	}
}

func (t *Transaction) Add(op Operation) error {
	if op.Txn != t.ID {
		return fmt.Errorf("operation %s does not belong to %s", op, t.ID)
	}
	t.Operations = append(t.Operations, op)
	return nil
}

func (t *Transaction) Read(item types.Item) {
	t.Operations = append(t.Operations, NewData(types.Read, t.ID, item))
}

func (t *Transaction) Write(item types.Item) {
	t.Operations = append(t.Operations, NewData(types.Write, t.ID, item))
}

func (t *Transaction) Commit() {
	t.Operations = append(t.Operations, NewCommit(t.ID))
}

func (t *Transaction) Abort() {
	t.Operations = append(t.Operations, NewAbort(t.ID))
}

// Outcome returns the commit or abort that terminated the transaction.
func (t *Transaction) Outcome() (Operation, bool) {
	for _, op := range t.Operations {
		if op.IsTerminal() {
			return op, true
		}
	}
	return Operation{}, false
}

func (t *Transaction) Status() TransactionStatus {
	op, ok := t.Outcome()
	switch {
	case !ok:
		return Active
	case op.IsCommit():
		return Committed
	default:
		return Aborted
	}
}

func (t *Transaction) IsCommitted() bool { return t.Status() == Committed }
func (t *Transaction) IsAborted() bool   { return t.Status() == Aborted }
func (t *Transaction) IsActive() bool    { return t.Status() == Active }

func (t *Transaction) String() string {
	parts := make([]string, 0, len(t.Operations))
	for _, op := range t.Operations {
		parts = append(parts, op.String())
	}
	return fmt.Sprintf("%s: %s", t.ID, strings.Join(parts, " "))
}
