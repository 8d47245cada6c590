package analysis

import (
	"fmt"

	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
	"golang.org/x/exp/slices"
)

// ReadsFrom records which write a read observed. A write whose transaction
// aborted before the read is rolled back and cannot be observed. Initial
// reads see the value the item had before the history started.
type ReadsFrom struct {
	Read    transaction.Operation `json:"read"`
	Writer  transaction.Operation `json:"writer"`
	Initial bool                  `json:"initial"`
}

// Dependent reports whether the read depends on another transaction.
func (rf ReadsFrom) Dependent() bool {
	return !rf.Initial && rf.Writer.Txn != rf.Read.Txn
}

func (rf ReadsFrom) String() string {
	if rf.Initial {
		return fmt.Sprintf("%s reads the initial value of %s", rf.Read, rf.Read.Item)
	}
	return fmt.Sprintf("%s reads %s from %s", rf.Read, rf.Read.Item, rf.Writer)
}

func computeReadsFrom(s *schedule.Schedule) []ReadsFrom {
	ops := s.Operations()
	var out []ReadsFrom
	for _, read := range ops {
		if !read.IsRead() {
			continue
		}
		rf := ReadsFrom{Read: read, Initial: true}
		for k := read.Position - 1; k >= 0; k-- {
			w := ops[k]
			if !w.IsWriteClass() || w.Item != read.Item {
				continue
			}
			if outcome, ok := s.Outcome(w.Txn); ok && outcome.IsAbort() && outcome.Position < read.Position {
				continue
			}
			rf.Writer = w
			rf.Initial = false
			break
		}
		out = append(out, rf)
	}
	return out
}

// dependency is an ordered pair: Later must wait for the fate of Earlier's
// transaction.
type dependency struct {
	earlier transaction.Operation
	later   transaction.Operation
}

type pairSelector func(s *schedule.Schedule, readsFrom []ReadsFrom) []dependency

// temporalCheck returns a reason when the dependency is violated.
type temporalCheck func(s *schedule.Schedule, d dependency) (string, bool)

type dependencyRule struct {
	property Property
	pairs    pairSelector
	check    temporalCheck
	noPairs  string
	holds    string
}

var (
	recoverableRule = dependencyRule{
		property: Recoverable,
		pairs:    readsFromPairs,
		check:    writerDecidedBeforeReaderCommit,
		noPairs:  "no transaction reads a value written by another transaction",
		holds:    "every committed reader commits after the transaction it read from has committed or aborted (%d reads-from dependencies checked)",
	}
	cascadelessRule = dependencyRule{
		property: Cascadeless,
		pairs:    readsFromPairs,
		check:    writerCommittedBeforeAccess,
		noPairs:  "no transaction reads a value written by another transaction",
		holds:    "every read of another transaction's write happens after that writer committed (%d reads-from dependencies checked)",
	}
	strictRule = dependencyRule{
		property: Strict,
		pairs:    writeThenAccessPairs,
		check:    earlierDecidedBeforeAccess,
		noPairs:  "no item is read or overwritten after another transaction wrote it",
		holds:    "no item is read or overwritten before its previous writer committed or aborted (%d write-access pairs checked)",
	}
	rigorousRule = dependencyRule{
		property: Rigorous,
		pairs:    conflictPairs,
		check:    earlierDecidedBeforeAccess,
		noPairs:  "the history contains no conflicting operations",
		holds:    "every conflicting access waits until the earlier transaction committed or aborted (%d conflicting pairs checked)",
	}
)

func (r dependencyRule) run(s *schedule.Schedule, readsFrom []ReadsFrom) PropertyResult {
	deps := r.pairs(s, readsFrom)
	result := PropertyResult{Property: r.property, Verdict: Holds}

	for _, d := range deps {
		reason, ok := r.check(s, d)
		if ok {
			continue
		}
		v := Violation{Earlier: d.earlier, Later: d.later, Reason: reason}
		if outcome, decided := s.Outcome(d.earlier.Txn); decided {
			v.Outcome = &outcome
		}
		result.Violations = append(result.Violations, v)
	}

	switch {
	case len(result.Violations) > 0:
		result.Verdict = Fails
		first := result.Violations[0].Reason
		if n := len(result.Violations); n > 1 {
			result.Explanation = fmt.Sprintf("%s (and %d more violations)", first, n-1)
		} else {
			result.Explanation = first
		}
	case len(deps) == 0:
		result.Explanation = r.noPairs
	default:
		result.Explanation = fmt.Sprintf(r.holds, len(deps))
	}
	return result
}

func readsFromPairs(_ *schedule.Schedule, readsFrom []ReadsFrom) []dependency {
	var deps []dependency
	for _, rf := range readsFrom {
		if rf.Dependent() {
			deps = append(deps, dependency{earlier: rf.Writer, later: rf.Read})
		}
	}
	return deps
}

func writeThenAccessPairs(s *schedule.Schedule, _ []ReadsFrom) []dependency {
	return orderedPairs(s, func(earlier, later transaction.Operation) bool {
		return earlier.IsWriteClass() && earlier.ConflictsWith(later)
	})
}

func conflictPairs(s *schedule.Schedule, _ []ReadsFrom) []dependency {
	return orderedPairs(s, func(earlier, later transaction.Operation) bool {
		return earlier.ConflictsWith(later)
	})
}

// orderedPairs keeps, for each later operation and each earlier
// transaction, only the latest matching earlier operation: the check
// depends on that transaction's outcome, not on which of its operations
// formed the pair.
func orderedPairs(s *schedule.Schedule, match func(earlier, later transaction.Operation) bool) []dependency {
	ops := s.Operations()
	var deps []dependency
	for _, later := range ops {
		if !later.IsData() {
			continue
		}
		var found []dependency
		seen := make(map[types.TxnID]bool)
		for k := later.Position - 1; k >= 0; k-- {
			earlier := ops[k]
			if seen[earlier.Txn] || !match(earlier, later) {
				continue
			}
			seen[earlier.Txn] = true
			found = append(found, dependency{earlier: earlier, later: later})
		}
		slices.SortFunc(found, func(a, b dependency) int {
			return a.earlier.Position - b.earlier.Position
		})
		deps = append(deps, found...)
	}
	return deps
}

func describeOutcome(s *schedule.Schedule, txn types.TxnID) string {
	outcome, ok := s.Outcome(txn)
	if !ok {
		return fmt.Sprintf("%s never commits or aborts", txn)
	}
	if outcome.IsCommit() {
		return fmt.Sprintf("%s commits only at position %d", txn, outcome.Position)
	}
	return fmt.Sprintf("%s aborts at position %d", txn, outcome.Position)
}

func writerDecidedBeforeReaderCommit(s *schedule.Schedule, d dependency) (string, bool) {
	readerCommit, ok := s.Outcome(d.later.Txn)
	if !ok || !readerCommit.IsCommit() {
		return "", true
	}
	writerOutcome, ok := s.Outcome(d.earlier.Txn)
	if ok && writerOutcome.Position < readerCommit.Position {
		return "", true
	}
	return fmt.Sprintf("%s reads %s from %s (%s at position %d, %s at position %d) and commits at position %d, but %s",
		d.later.Txn, d.later.Item, d.earlier.Txn,
		d.earlier, d.earlier.Position, d.later, d.later.Position,
		readerCommit.Position, describeOutcome(s, d.earlier.Txn)), false
}

func writerCommittedBeforeAccess(s *schedule.Schedule, d dependency) (string, bool) {
	writerOutcome, ok := s.Outcome(d.earlier.Txn)
	if ok && writerOutcome.IsCommit() && writerOutcome.Position < d.later.Position {
		return "", true
	}
	return fmt.Sprintf("%s at position %d reads from %s (%s at position %d) before %s commits: %s",
		d.later, d.later.Position, d.earlier.Txn, d.earlier, d.earlier.Position,
		d.earlier.Txn, describeOutcome(s, d.earlier.Txn)), false
}

func earlierDecidedBeforeAccess(s *schedule.Schedule, d dependency) (string, bool) {
	outcome, ok := s.Outcome(d.earlier.Txn)
	if ok && outcome.Position < d.later.Position {
		return "", true
	}
	return fmt.Sprintf("%s at position %d conflicts with %s at position %d, but %s",
		d.later, d.later.Position, d.earlier, d.earlier.Position,
		describeOutcome(s, d.earlier.Txn)), false
}
