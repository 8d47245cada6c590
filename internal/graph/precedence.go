package graph

import (
	"github.com/sdrshn-nmbr/txsched/internal/schedule"
	"github.com/sdrshn-nmbr/txsched/internal/transaction"
	"github.com/sdrshn-nmbr/txsched/internal/types"
	"github.com/tidwall/btree"
	"golang.org/x/exp/slices"
)

// Edge Ti -> Tj means Ti must come before Tj in any equivalent serial
// schedule.
type Edge struct {
	From types.TxnID `json:"from"`
	To   types.TxnID `json:"to"`
}

// Conflict is the pair of operations that produced an edge.
type Conflict struct {
	First  transaction.Operation `json:"first"`
	Second transaction.Operation `json:"second"`
}

// PrecedenceGraph is the serialization graph of a schedule, kept as an
// adjacency map keyed by transaction id.
type PrecedenceGraph struct {
	nodes     []types.TxnID
	adj       map[types.TxnID][]types.TxnID
	edges     []Edge
	witnesses map[Edge]Conflict
}

// Build derives the precedence graph of s. Every transaction is a node,
// including ones without conflicts.
func Build(s *schedule.Schedule) *PrecedenceGraph {
	g := &PrecedenceGraph{
		nodes:     s.IDs(),
		adj:       make(map[types.TxnID][]types.TxnID),
		witnesses: make(map[Edge]Conflict),
	}

	var byItem btree.Map[types.Item, []transaction.Operation]
	for _, op := range s.Operations() {
		if !op.IsData() {
			continue
		}
		ops, _ := byItem.Get(op.Item)
		byItem.Set(op.Item, append(ops, op))
	}

	byItem.Scan(func(_ types.Item, ops []transaction.Operation) bool {
		for i := range ops {
			for j := i + 1; j < len(ops); j++ {
				if ops[i].ConflictsWith(ops[j]) {
					g.addEdge(ops[i], ops[j])
				}
			}
		}
		return true
	})

	slices.SortFunc(g.edges, compareEdges)
	for from := range g.adj {
		slices.Sort(g.adj[from])
	}
	return g
}

func (g *PrecedenceGraph) addEdge(first, second transaction.Operation) {
	e := Edge{From: first.Txn, To: second.Txn}
	w, ok := g.witnesses[e]
	if !ok {
		g.edges = append(g.edges, e)
		g.adj[e.From] = append(g.adj[e.From], e.To)
		g.witnesses[e] = Conflict{First: first, Second: second}
		return
	}
	if second.Position < w.Second.Position ||
		(second.Position == w.Second.Position && first.Position < w.First.Position) {
		g.witnesses[e] = Conflict{First: first, Second: second}
	}
}

func compareEdges(a, b Edge) int {
	if a.From != b.From {
		return int(a.From) - int(b.From)
	}
	return int(a.To) - int(b.To)
}

// Nodes returns the transaction ids in ascending order.
func (g *PrecedenceGraph) Nodes() []types.TxnID {
	return slices.Clone(g.nodes)
}

// Edges returns the edge set sorted by (From, To).
func (g *PrecedenceGraph) Edges() []Edge {
	return slices.Clone(g.edges)
}

func (g *PrecedenceGraph) HasEdge(from, to types.TxnID) bool {
	_, ok := g.witnesses[Edge{From: from, To: to}]
	return ok
}

// Successors returns the targets of edges leaving id, ascending.
func (g *PrecedenceGraph) Successors(id types.TxnID) []types.TxnID {
	return slices.Clone(g.adj[id])
}

// Witness returns the earliest conflicting pair behind e.
func (g *PrecedenceGraph) Witness(e Edge) (Conflict, bool) {
	w, ok := g.witnesses[e]
	return w, ok
}

const (
	white = iota
	grey
	black
)

func (g *PrecedenceGraph) HasCycle() bool {
	return g.FindCycle() != nil
}

// FindCycle returns the first cycle met by a depth-first search that visits
// nodes and successors in ascending order, or nil if the graph is acyclic.
func (g *PrecedenceGraph) FindCycle() []types.TxnID {
	color := make(map[types.TxnID]int, len(g.nodes))
	var stack []types.TxnID
	var cycle []types.TxnID

	var visit func(types.TxnID) bool
	visit = func(n types.TxnID) bool {
		color[n] = grey
		stack = append(stack, n)
		for _, next := range g.adj[n] {
			switch color[next] {
			case grey:
				start := slices.Index(stack, next)
				cycle = slices.Clone(stack[start:])
				return true
			case white:
				if visit(next) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		color[n] = black
		return false
	}

	for _, n := range g.nodes {
		if color[n] == white && visit(n) {
			return cycle
		}
	}
	return nil
}

// TopologicalOrder returns the canonical serial order: Kahn's algorithm
// always taking the smallest ready id.
func (g *PrecedenceGraph) TopologicalOrder() ([]types.TxnID, error) {
	if cycle := g.FindCycle(); cycle != nil {
		return nil, &CycleError{Cycle: cycle}
	}

	inDegree := make(map[types.TxnID]int, len(g.nodes))
	for _, e := range g.edges {
		inDegree[e.To]++
	}

	var ready []types.TxnID
	for _, n := range g.nodes {
		if inDegree[n] == 0 {
			ready = append(ready, n)
		}
	}

	order := make([]types.TxnID, 0, len(g.nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		order = append(order, n)
		for _, next := range g.adj[n] {
			inDegree[next]--
			if inDegree[next] == 0 {
				ready = append(ready, next)
				slices.Sort(ready)
			}
		}
	}
	return order, nil
}
