package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sdrshn-nmbr/txsched/internal/analysis"
	"github.com/sdrshn-nmbr/txsched/internal/parser"
)

func TestScenariosMatchAnalyzer(t *testing.T) {
	for _, sc := range All() {
		sc := sc
		t.Run(sc.Name, func(t *testing.T) {
			s, err := parser.ParseSchedule(sc.History)
			require.NoError(t, err)

			result, err := analysis.Analyze(s, analysis.DefaultOptions())
			require.NoError(t, err)
			require.NoError(t, result.CheckImplications())

			for property, want := range sc.Expect {
				got, err := result.Property(property)
				require.NoError(t, err)
				assert.Equal(t, want, got.Verdict, "%s: %s", property, got.Explanation)
			}
		})
	}
}

func TestLookup(t *testing.T) {
	sc, err := Lookup(" Lost-Update ")
	require.NoError(t, err)
	assert.Equal(t, "lost-update", sc.Name)

	_, err = Lookup("missing")
	assert.True(t, errors.Is(err, ErrScenarioNotFound))
}

func TestAllReturnsCopy(t *testing.T) {
	first := All()
	first[0].Name = "changed"
	assert.NotEqual(t, "changed", All()[0].Name)
}
