package analysis

import (
	"github.com/sdrshn-nmbr/txsched/internal/graph"
	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/types"
)

const DefaultMaxViewTransactions = 10

type Options struct {
	// MaxViewTransactions bounds the view-serializability search; larger
	// committed projections report VSR as inapplicable.
	MaxViewTransactions int
}

func DefaultOptions() Options {
	return Options{MaxViewTransactions: DefaultMaxViewTransactions}
}

// Analyzer checks one schedule. Every check is a pure function of the
// schedule and the precedence graph, so checks can run in any order.
type Analyzer struct {
	schedule  *schedule.Schedule
	graph     *graph.PrecedenceGraph
	readsFrom []ReadsFrom
	opts      Options
}

func New(s *schedule.Schedule, opts Options) (*Analyzer, error) {
	if s == nil {
		return nil, ErrNilSchedule
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}
	if opts.MaxViewTransactions <= 0 {
		opts.MaxViewTransactions = DefaultMaxViewTransactions
	}
	return &Analyzer{
		schedule:  s,
		graph:     graph.Build(s),
		readsFrom: computeReadsFrom(s),
		opts:      opts,
	}, nil
}

// Analyze is a shortcut for New followed by Analyzer.Analyze.
func Analyze(s *schedule.Schedule, opts Options) (Result, error) {
	a, err := New(s, opts)
	if err != nil {
		return Result{}, err
	}
	return a.Analyze(), nil
}

func (a *Analyzer) Analyze() Result {
	sr, order, cycle := a.CheckSerializable()
	result := Result{
		History:          a.schedule.String(),
		Serializable:     sr,
		Recoverable:      a.CheckRecoverable(),
		Cascadeless:      a.CheckCascadeless(),
		Strict:           a.CheckStrict(),
		Rigorous:         a.CheckRigorous(),
		ViewSerializable: a.CheckViewSerializable(),
		SerialOrder:      order,
		Cycle:            cycle,
	}
	for _, txn := range a.schedule.Transactions() {
		result.Transactions = append(result.Transactions, TransactionSummary{
			ID:     txn.ID,
			Status: txn.Status().String(),
		})
	}
	return result
}

func (a *Analyzer) Schedule() *schedule.Schedule {
	return a.schedule
}

func (a *Analyzer) PrecedenceGraph() *graph.PrecedenceGraph {
	return a.graph
}

// ReadsFrom returns the reads-from relation in read order, including
// reads of initial values.
func (a *Analyzer) ReadsFrom() []ReadsFrom {
	out := make([]ReadsFrom, len(a.readsFrom))
	copy(out, a.readsFrom)
	return out
}

// CheckSerializable returns the SR verdict with either the serial order or
// the cycle that prevents one.
func (a *Analyzer) CheckSerializable() (PropertyResult, []types.TxnID, []types.TxnID) {
	return checkSerializable(a.graph)
}

func (a *Analyzer) CheckRecoverable() PropertyResult {
	return recoverableRule.run(a.schedule, a.readsFrom)
}

func (a *Analyzer) CheckCascadeless() PropertyResult {
	return cascadelessRule.run(a.schedule, a.readsFrom)
}

func (a *Analyzer) CheckStrict() PropertyResult {
	return strictRule.run(a.schedule, a.readsFrom)
}

func (a *Analyzer) CheckRigorous() PropertyResult {
	return rigorousRule.run(a.schedule, a.readsFrom)
}

func (a *Analyzer) CheckViewSerializable() PropertyResult {
	return checkViewSerializable(a.schedule, a.opts.MaxViewTransactions)
}
