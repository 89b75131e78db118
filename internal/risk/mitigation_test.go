package risk

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPlaybook() *Playbook {
	return &Playbook{
		ExposureUnit: 10000,
		Activation:   0.4,
		Actions: map[string][]PlaybookAction{
			"schedule": {
				{Description: "re-sequence critical path", BaseCost: 1000, RiskReduction: 0.3, SuccessProbability: 0.7},
			},
			"quality": {
				{Description: "stop-the-line triage", BaseCost: 2000, RiskReduction: 0.4, SuccessProbability: 0.75},
			},
		},
	}
}

func TestAdvisorSuggest(t *testing.T) {
	t.Run("deterministic state yields no suggestions", func(t *testing.T) {
		a := NewAdvisor(testPlaybook(), nil)
		assert.Empty(t, a.Suggest(StateDeterministic, uniform(0.05)))
	})

	t.Run("dimensions below activation are skipped", func(t *testing.T) {
		a := NewAdvisor(testPlaybook(), nil)
		v := Vector{0.1, 0.1, 0.1, 0.8, 0.1} // only quality is elevated
		got := a.Suggest(StateQuantum, v)

		require.Len(t, got, 1)
		assert.Equal(t, "quality", got[0].Dimension)
	})

	t.Run("roi follows the contract formula", func(t *testing.T) {
		a := NewAdvisor(testPlaybook(), nil)
		v := Vector{0, 0.5, 0, 0, 0}
		got := a.Suggest(StateQuantum, v)

		require.Len(t, got, 1)
		s := got[0]
		// risk_cost = 0.5 * 10000 * 1.0 (quantum); cost = 1000.
		wantROI := (0.5*10000*0.7 - 1000) / 1000
		assert.InDelta(t, wantROI, s.ROI, 1e-9)
		assert.Equal(t, 1000.0, s.EstimatedCost)
		assert.NotEmpty(t, s.ID)
	})

	t.Run("sorted descending by roi", func(t *testing.T) {
		a := NewAdvisor(testPlaybook(), nil)
		got := a.Suggest(StateChaotic, Neutral())
		require.NotEmpty(t, got)

		assert.True(t, sort.SliceIsSorted(got, func(i, j int) bool {
			return got[i].ROI > got[j].ROI
		}))
	})

	t.Run("volatile states raise both exposure and cost", func(t *testing.T) {
		a := NewAdvisor(testPlaybook(), nil)
		v := Vector{0, 0.5, 0, 0, 0}

		quantum := a.Suggest(StateQuantum, v)
		void := a.Suggest(StateVoid, v)
		require.Len(t, quantum, 1)
		require.Len(t, void, 1)

		assert.Greater(t, void[0].EstimatedCost, quantum[0].EstimatedCost)
		assert.Greater(t, void[0].ROI, quantum[0].ROI)
	})
}

func TestLoadPlaybook(t *testing.T) {
	t.Run("embedded default", func(t *testing.T) {
		pb, err := LoadPlaybook("")
		require.NoError(t, err)

		assert.Greater(t, pb.ExposureUnit, 0.0)
		assert.Greater(t, pb.Activation, 0.0)
		for _, dim := range []string{"technical", "schedule", "budget", "quality", "team"} {
			assert.NotEmpty(t, pb.Actions[dim], "playbook covers %s", dim)
		}
	})

	t.Run("missing override file", func(t *testing.T) {
		_, err := LoadPlaybook("/nonexistent/playbook.yml")
		assert.Error(t, err)
	})
}
