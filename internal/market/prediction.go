// Package market implements the belief-aggregation mechanism: one prediction
// market per decision option, scored by a proper scoring rule, and the
// decision market that selects which option's scores materialise.
package market

import (
	"fmt"
	"math"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// Reported belief vectors may deviate from exact unit sum by at most this
// much.
const beliefSumTolerance = 1e-6

// PredictionMarket tracks the belief history of one decision option. The
// history starts at the option's prior and grows by one entry per report;
// entries are appended only, never rewritten.
type PredictionMarket struct {
	no      int
	history [][]float64
}

// NewPredictionMarket opens a market for option no at the given prior
// probability of a red bucket.
func NewPredictionMarket(no int, priorRed float64) *PredictionMarket {
	return &PredictionMarket{
		no:      no,
		history: [][]float64{{priorRed, 1 - priorRed}},
	}
}

// No returns the option index this market belongs to.
func (pm *PredictionMarket) No() int { return pm.no }

// Current returns a copy of the latest belief vector.
func (pm *PredictionMarket) Current() []float64 {
	cur := pm.history[len(pm.history)-1]
	out := make([]float64, len(cur))
	copy(out, cur)
	return out
}

// CurrentRed returns the latest probability assigned to a red bucket.
func (pm *PredictionMarket) CurrentRed() float64 {
	return pm.history[len(pm.history)-1][0]
}

// Reports returns how many reports the market has received, excluding the
// opening prior.
func (pm *PredictionMarket) Reports() int { return len(pm.history) - 1 }

// Report appends a belief vector to the history. The vector must hold
// exactly one probability per outcome and sum to one within
// beliefSumTolerance; anything else signals a caller bug and leaves the
// market unchanged.
func (pm *PredictionMarket) Report(belief []float64) error {
	if len(belief) != 2 {
		return fmt.Errorf("market %d: report has %d entries, want 2: %w", pm.no, len(belief), domain.ErrBeliefSize)
	}
	sum := belief[0] + belief[1]
	if math.Abs(sum-1) > beliefSumTolerance {
		return fmt.Errorf("market %d: report sums to %v: %w", pm.no, sum, domain.ErrBeliefSum)
	}
	entry := make([]float64, len(belief))
	copy(entry, belief)
	pm.history = append(pm.history, entry)
	return nil
}

// Resolve scores every report against the belief immediately preceding it at
// the materialised outcome, one score per report in arrival order. The
// difference form makes the scores telescope: their sum equals the score of
// the final belief against the opening prior, so each sequential reporter is
// paid exactly for their marginal contribution.
func (pm *PredictionMarket) Resolve(f domain.ScoreFunction, outcome domain.BucketColour) ([]float64, error) {
	if len(pm.history) < 2 {
		return nil, fmt.Errorf("market %d: %w", pm.no, domain.ErrNoReports)
	}
	idx := outcome.Index()
	scores := make([]float64, 0, len(pm.history)-1)
	for i := 1; i < len(pm.history); i++ {
		s, err := scoreStep(f, pm.history[i], pm.history[i-1], idx)
		if err != nil {
			return nil, fmt.Errorf("market %d: %w", pm.no, err)
		}
		scores = append(scores, s)
	}
	return scores, nil
}

// scoreStep computes the marginal score of moving the market from prev to
// cur when outcome idx materialised.
func scoreStep(f domain.ScoreFunction, cur, prev []float64, idx int) (float64, error) {
	switch f {
	case domain.ScoreFunctionLog:
		return math.Log(cur[idx]) - math.Log(prev[idx]), nil
	case domain.ScoreFunctionQuadratic:
		return brierScore(cur, idx) - brierScore(prev, idx), nil
	default:
		return 0, fmt.Errorf("%v: %w", f, domain.ErrUnknownScoreFunction)
	}
}

func brierScore(belief []float64, idx int) float64 {
	var squares float64
	for _, p := range belief {
		squares += p * p
	}
	return belief[idx] - squares/2
}
