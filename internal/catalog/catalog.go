package catalog

import (
	"errors"
	"strings"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
)

var ErrScenarioNotFound = errors.New("scenario not found")

// Scenario is a named history with the verdicts it is known to have.
type Scenario struct {
	Name        string                                 `json:"name"`
	Description string                                 `json:"description"`
	History     string                                 `json:"history"`
	Expect      map[analysis.Property]analysis.Verdict `json:"expect"`
}

func expect(sr, rc, aca, st, rg, vsr analysis.Verdict) map[analysis.Property]analysis.Verdict {
	return map[analysis.Property]analysis.Verdict{
		analysis.Serializable:     sr,
		analysis.Recoverable:      rc,
		analysis.Cascadeless:      aca,
		analysis.Strict:           st,
		analysis.Rigorous:         rg,
		analysis.ViewSerializable: vsr,
	}
}

const (
	yes = analysis.Holds
	no  = analysis.Fails
)

var scenarios = []Scenario{
	{
		Name:        "serializable",
		Description: "classic serializable history, equivalent to T1 then T2",
		History:     "r1[x] w1[x] r2[x] w2[x] c1 c2",
		Expect:      expect(yes, yes, no, no, no, yes),
	},
	{
		Name:        "non-serializable",
		Description: "each transaction reads an item the other later overwrites",
		History:     "r1[x] w2[x] r2[y] w1[y] c1 c2",
		Expect:      expect(no, yes, yes, yes, no, no),
	},
	{
		Name:        "unrecoverable",
		Description: "T2 reads T1's write and commits before T1",
		History:     "w1[x] r2[x] c2 c1",
		Expect:      expect(yes, no, no, no, no, yes),
	},
	{
		Name:        "cascading-abort",
		Description: "T2 reads T1's uncommitted write, then T1 aborts",
		History:     "w1[x] r2[x] a1",
		Expect:      expect(yes, yes, no, no, no, yes),
	},
	{
		Name:        "strict",
		Description: "every conflicting access follows the writer's commit",
		History:     "w1[x] c1 w2[x] c2",
		Expect:      expect(yes, yes, yes, yes, yes, yes),
	},
	{
		Name:        "strict-not-rigorous",
		Description: "T2 overwrites an item T1 read before T1 finishes",
		History:     "r1[x] w2[x] c2 c1",
		Expect:      expect(yes, yes, yes, yes, no, yes),
	},
	{
		Name:        "blind-overwrite",
		Description: "T2 overwrites T1's uncommitted write without reading it",
		History:     "w1[x] w2[x] c1 c2",
		Expect:      expect(yes, yes, yes, no, no, yes),
	},
	{
		Name:        "lost-update",
		Description: "both transactions read x and then overwrite it",
		History:     "r1[x] r2[x] w1[x] w2[x] c1 c2",
		Expect:      expect(no, yes, yes, no, no, no),
	},
	{
		Name:        "view-not-conflict",
		Description: "blind writes make the history view- but not conflict-serializable",
		History:     "r1[x] w2[x] w1[x] w3[x] c1 c2 c3",
		Expect:      expect(no, yes, yes, no, no, yes),
	},
	{
		Name:        "counter",
		Description: "increments and decrements conflict like writes",
		History:     "inc1[x] dec2[y] c2 r1[y] inc1[y] c1",
		Expect:      expect(yes, yes, yes, yes, yes, yes),
	},
	{
		Name:        "rolled-back-writer",
		Description: "a read after the writer's abort sees the earlier committed value",
		History:     "w3[x] c3 w1[x] a1 r2[x] c2",
		Expect:      expect(yes, yes, yes, yes, yes, yes),
	},
}

// All returns the scenarios in catalog order.
func All() []Scenario {
	out := make([]Scenario, len(scenarios))
	copy(out, scenarios)
	return out
}

func Lookup(name string) (Scenario, error) {
	for _, sc := range scenarios {
		if strings.EqualFold(sc.Name, strings.TrimSpace(name)) {
			return sc, nil
		}
	}
	return Scenario{}, ErrScenarioNotFound
}
