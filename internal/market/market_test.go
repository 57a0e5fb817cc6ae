package market

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

func TestReportValidatesBeliefVector(t *testing.T) {
	pm := NewPredictionMarket(0, 0.5)

	require.ErrorIs(t, pm.Report([]float64{0.2, 0.3, 0.5}), domain.ErrBeliefSize)
	require.ErrorIs(t, pm.Report([]float64{0.7}), domain.ErrBeliefSize)
	require.ErrorIs(t, pm.Report([]float64{0.5, 0.5000020}), domain.ErrBeliefSum)
	require.ErrorIs(t, pm.Report([]float64{0.6, 0.6}), domain.ErrBeliefSum)

	assert.Zero(t, pm.Reports(), "rejected reports must not enter the history")

	require.NoError(t, pm.Report([]float64{0.5, 0.5000005}), "deviation within tolerance")
	require.NoError(t, pm.Report([]float64{0.8, 0.2}))
	assert.Equal(t, 2, pm.Reports())
	assert.Equal(t, []float64{0.8, 0.2}, pm.Current())
}

func TestReportCopiesBelief(t *testing.T) {
	pm := NewPredictionMarket(0, 0.5)
	belief := []float64{0.8, 0.2}
	require.NoError(t, pm.Report(belief))

	belief[0] = 0
	assert.Equal(t, 0.8, pm.CurrentRed(), "history must not alias caller memory")
}

func TestQuadraticScoreStep(t *testing.T) {
	pm := NewPredictionMarket(0, 0.5)
	require.NoError(t, pm.Report([]float64{0.8, 0.2}))

	scores, err := pm.Resolve(domain.ScoreFunctionQuadratic, domain.BucketColourRed)
	require.NoError(t, err)
	require.Len(t, scores, 1)

	// (0.8 - (0.64+0.04)/2) - (0.5 - (0.25+0.25)/2) = 0.46 - 0.25
	assert.InDelta(t, 0.21, scores[0], 1e-12)
}

func TestResolveScoresTelescope(t *testing.T) {
	reports := [][]float64{{0.6, 0.4}, {6.0 / 7.0, 1.0 / 7.0}, {0.3, 0.7}}

	for _, tc := range []struct {
		name  string
		f     domain.ScoreFunction
		total func(final, initial []float64, idx int) float64
	}{
		{
			name: "log",
			f:    domain.ScoreFunctionLog,
			total: func(final, initial []float64, idx int) float64 {
				return math.Log(final[idx]) - math.Log(initial[idx])
			},
		},
		{
			name: "quadratic",
			f:    domain.ScoreFunctionQuadratic,
			total: func(final, initial []float64, idx int) float64 {
				return brierScore(final, idx) - brierScore(initial, idx)
			},
		},
	} {
		t.Run(tc.name, func(t *testing.T) {
			pm := NewPredictionMarket(0, 0.75)
			for _, r := range reports {
				require.NoError(t, pm.Report(r))
			}

			for _, outcome := range []domain.BucketColour{domain.BucketColourRed, domain.BucketColourBlue} {
				scores, err := pm.Resolve(tc.f, outcome)
				require.NoError(t, err)
				require.Len(t, scores, len(reports))

				var sum float64
				for _, s := range scores {
					sum += s
				}
				want := tc.total(reports[len(reports)-1], []float64{0.75, 0.25}, outcome.Index())
				assert.InDelta(t, want, sum, 1e-12)
			}
		})
	}
}

func TestResolveWithoutReportsFails(t *testing.T) {
	pm := NewPredictionMarket(0, 0.5)
	_, err := pm.Resolve(domain.ScoreFunctionLog, domain.BucketColourRed)
	require.ErrorIs(t, err, domain.ErrNoReports)
}

func TestResolveUnknownScoreFunctionFails(t *testing.T) {
	pm := NewPredictionMarket(0, 0.5)
	require.NoError(t, pm.Report([]float64{0.6, 0.4}))

	_, err := pm.Resolve(domain.ScoreFunction(99), domain.BucketColourRed)
	require.ErrorIs(t, err, domain.ErrUnknownScoreFunction)
}

func TestNewDecisionMarketValidation(t *testing.T) {
	t.Run("unknown rule", func(t *testing.T) {
		_, err := NewDecisionMarket([]float64{0.5}, domain.DecisionRule(42), domain.BucketColourRed, nil)
		require.ErrorIs(t, err, domain.ErrUnknownDecisionRule)
	})
	t.Run("prior out of range", func(t *testing.T) {
		_, err := NewDecisionMarket([]float64{0.5, 1.2}, domain.DecisionRuleDeterministic, domain.BucketColourRed, nil)
		require.ErrorIs(t, err, domain.ErrInvalidProbability)
	})
	t.Run("selection weights must match options", func(t *testing.T) {
		_, err := NewDecisionMarket([]float64{0.5, 0.5}, domain.DecisionRuleStochastic, domain.BucketColourRed, []float64{1})
		require.Error(t, err)
	})
	t.Run("selection weights must sum to one", func(t *testing.T) {
		_, err := NewDecisionMarket([]float64{0.5, 0.5}, domain.DecisionRuleStochastic, domain.BucketColourRed, []float64{0.8, 0.3})
		require.Error(t, err)
	})
}

func TestDecisionMarketReportValidation(t *testing.T) {
	dm, err := NewDecisionMarket([]float64{0.5, 0.5}, domain.DecisionRuleDeterministic, domain.BucketColourRed, nil)
	require.NoError(t, err)

	require.ErrorIs(t, dm.Report([]float64{0.7}), domain.ErrBeliefSize)
	require.ErrorIs(t, dm.Report([]float64{0.7, 1.3}), domain.ErrInvalidProbability)

	require.NoError(t, dm.Report([]float64{0.7, 0.4}))
	assert.Equal(t, []float64{0.7, 0.4}, dm.CurrentPredictions())
}

func TestDeterministicResolvePicksArgmax(t *testing.T) {
	dm, err := NewDecisionMarket([]float64{0.5, 0.5, 0.5}, domain.DecisionRuleDeterministic, domain.BucketColourRed, nil)
	require.NoError(t, err)
	require.NoError(t, dm.Report([]float64{0.4, 0.9, 0.6}))

	colours := []domain.BucketColour{domain.BucketColourBlue, domain.BucketColourRed, domain.BucketColourBlue}
	rng := rand.New(rand.NewSource(1))
	rewards, selected, err := dm.Resolve(domain.ScoreFunctionLog, colours, rng)
	require.NoError(t, err)

	assert.Equal(t, 1, selected)
	require.Len(t, rewards, 1)
	assert.InDelta(t, math.Log(0.9)-math.Log(0.5), rewards[0][1], 1e-12)
	assert.Zero(t, rewards[0][0], "unselected options carry zero reward")
	assert.Zero(t, rewards[0][2], "unselected options carry zero reward")
}

func TestDeterministicResolvePrefersBlueWhenConfigured(t *testing.T) {
	dm, err := NewDecisionMarket([]float64{0.5, 0.5}, domain.DecisionRuleDeterministic, domain.BucketColourBlue, nil)
	require.NoError(t, err)
	require.NoError(t, dm.Report([]float64{0.9, 0.2}))

	colours := []domain.BucketColour{domain.BucketColourRed, domain.BucketColourBlue}
	rng := rand.New(rand.NewSource(1))
	_, selected, err := dm.Resolve(domain.ScoreFunctionLog, colours, rng)
	require.NoError(t, err)

	assert.Equal(t, 1, selected, "option 1 has the higher blue belief")
}

func TestSingleOptionStochasticResolvesDirectly(t *testing.T) {
	dm, err := NewDecisionMarket([]float64{0.5}, domain.DecisionRuleStochastic, domain.BucketColourRed, nil)
	require.NoError(t, err)
	require.NoError(t, dm.Report([]float64{0.8}))

	rng := rand.New(rand.NewSource(1))
	rewards, selected, err := dm.Resolve(domain.ScoreFunctionLog, []domain.BucketColour{domain.BucketColourRed}, rng)
	require.NoError(t, err)

	assert.Equal(t, 0, selected)
	require.Len(t, rewards, 1)
	assert.InDelta(t, math.Log(0.8)-math.Log(0.5), rewards[0][0], 1e-12, "no propensity division with a single option")
}

func TestStochasticResolveIsUnbiased(t *testing.T) {
	dm, err := NewDecisionMarket([]float64{0.5, 0.5}, domain.DecisionRuleStochastic, domain.BucketColourRed, []float64{0.8, 0.2})
	require.NoError(t, err)
	require.NoError(t, dm.Report([]float64{0.7, 0.4}))

	colours := []domain.BucketColour{domain.BucketColourRed, domain.BucketColourRed}
	rng := rand.New(rand.NewSource(9))

	const draws = 200000
	mean := make([]float64, 2)
	topSelected := 0
	for n := 0; n < draws; n++ {
		rewards, selected, err := dm.Resolve(domain.ScoreFunctionLog, colours, rng)
		require.NoError(t, err)
		if selected == 0 {
			topSelected++
		}
		mean[0] += rewards[0][0] / draws
		mean[1] += rewards[0][1] / draws
	}

	// Inverse-propensity weighting makes each option's expected reward equal
	// the score of always resolving that option; for the top-ranked option
	// that is exactly the deterministic-rule reward.
	assert.InDelta(t, math.Log(0.7)-math.Log(0.5), mean[0], 0.01)
	assert.InDelta(t, math.Log(0.4)-math.Log(0.5), mean[1], 0.01)
	assert.InDelta(t, 0.8, float64(topSelected)/draws, 0.01, "top rank drawn with its configured weight")
}
