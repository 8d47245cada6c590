package analysis

import (
	"fmt"

	"github.com/anishathalye/porcupine"
	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

// viewStep is one data operation replayed by the model. For reads, From
// is the writer the read observed in the history (0 for the initial value).
type viewStep struct {
	Type types.OperationType
	Item types.Item
	From types.TxnID
}

type viewInput struct {
	Txn   types.TxnID
	Steps []viewStep
}

// lastWriters is the model state: the transaction that last wrote each item.
type lastWriters map[types.Item]types.TxnID

// viewModel replays whole transactions one at a time. A linearization of
// the committed transactions followed by the final observer is a serial
// schedule with the same reads-from relation and the same final writes.
var viewModel = porcupine.Model{
	Init: func() interface{} {
		return lastWriters{}
	},
	Step: func(state, input, _ interface{}) (bool, interface{}) {
		current := state.(lastWriters)
		in := input.(viewInput)
		next := maps.Clone(current)
		for _, step := range in.Steps {
			if step.Type == types.Read {
				if next[step.Item] != step.From {
					return false, current
				}
				continue
			}
			next[step.Item] = in.Txn
		}
		return true, next
	},
	Equal: func(a, b interface{}) bool {
		return maps.Equal(a.(lastWriters), b.(lastWriters))
	},
	DescribeOperation: func(input, _ interface{}) string {
		in := input.(viewInput)
		if in.Txn == 0 {
			return "final writes"
		}
		return in.Txn.String()
	},
}

func checkViewSerializable(s *schedule.Schedule, maxTransactions int) PropertyResult {
	result := PropertyResult{Property: ViewSerializable}
	committed := s.Project(func(txn *transaction.Transaction) bool { return txn.IsCommitted() })
	ids := committed.IDs()

	switch {
	case len(ids) == 0:
		result.Verdict = Holds
		result.Explanation = "no committed transactions; the committed projection is empty"
		return result
	case len(ids) > maxTransactions:
		result.Verdict = Inapplicable
		result.Explanation = fmt.Sprintf("committed projection has %d transactions, above the search limit of %d",
			len(ids), maxTransactions)
		return result
	}

	if linearizable(viewHistory(committed)) {
		result.Verdict = Holds
		result.Explanation = fmt.Sprintf("the committed projection (%d transactions) is view-equivalent to a serial schedule: same reads-from relation and final writes",
			len(ids))
		return result
	}
	result.Verdict = Fails
	result.Explanation = fmt.Sprintf("no serial order of the %d committed transactions reproduces the reads-from relation and final writes of the committed projection",
		len(ids))
	return result
}

func linearizable(history []porcupine.Operation) bool {
	return porcupine.CheckOperations(viewModel, history)
}

// viewHistory turns the committed projection into porcupine operations.
// All transactions overlap in time so any order is allowed; the observer
// starts after all of them and checks the final writer of every item.
func viewHistory(committed *schedule.Schedule) []porcupine.Operation {
	source := make(map[int]types.TxnID)
	for _, rf := range computeReadsFrom(committed) {
		if !rf.Initial {
			source[rf.Read.Position] = rf.Writer.Txn
		}
	}

	var history []porcupine.Operation
	for _, txn := range committed.Transactions() {
		in := viewInput{Txn: txn.ID}
		for _, op := range txn.Operations {
			if !op.IsData() {
				continue
			}
			in.Steps = append(in.Steps, viewStep{Type: op.Type, Item: op.Item, From: source[op.Position]})
		}
		history = append(history, porcupine.Operation{
			ClientId: int(txn.ID),
			Input:    in,
			Call:     0,
			Return:   1,
		})
	}

	final := make(map[types.Item]types.TxnID)
	var items []types.Item
	for _, op := range committed.Operations() {
		if !op.IsData() {
			continue
		}
		if _, ok := final[op.Item]; !ok {
			items = append(items, op.Item)
			final[op.Item] = 0
		}
		if op.IsWriteClass() {
			final[op.Item] = op.Txn
		}
	}
	slices.Sort(items)

	observer := viewInput{}
	for _, item := range items {
		observer.Steps = append(observer.Steps, viewStep{Type: types.Read, Item: item, From: final[item]})
	}
	history = append(history, porcupine.Operation{
		ClientId: 0,
		Input:    observer,
		Call:     2,
		Return:   3,
	})
	return history
}
