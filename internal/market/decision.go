package market

import (
	"fmt"
	"math"
	"math/rand"
	"sort"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// DecisionMarket owns one conditional prediction market per decision option
// and the rule deciding which single option's scores materialise at the end
// of a round. It lives for exactly one round; priors are redrawn and a fresh
// market is opened for the next one.
type DecisionMarket struct {
	markets      []*PredictionMarket
	rule         domain.DecisionRule
	preferred    domain.BucketColour
	selectionPrs []float64
}

// NewDecisionMarket opens one conditional market per prior. Under the
// stochastic rule selectionPrs gives the selection probability per belief
// rank (highest first) and must match the option count and sum to one;
// the deterministic rule ignores it.
func NewDecisionMarket(priors []float64, rule domain.DecisionRule, preferred domain.BucketColour, selectionPrs []float64) (*DecisionMarket, error) {
	if len(priors) == 0 {
		return nil, fmt.Errorf("decision market: no option priors")
	}
	switch rule {
	case domain.DecisionRuleDeterministic, domain.DecisionRuleStochastic:
	default:
		return nil, fmt.Errorf("decision market: %v: %w", rule, domain.ErrUnknownDecisionRule)
	}
	switch preferred {
	case domain.BucketColourRed, domain.BucketColourBlue:
	default:
		return nil, fmt.Errorf("decision market: %v: %w", preferred, domain.ErrUnknownBucketColour)
	}
	if rule == domain.DecisionRuleStochastic && len(priors) > 1 {
		if len(selectionPrs) != len(priors) {
			return nil, fmt.Errorf("decision market: %d selection weights for %d options", len(selectionPrs), len(priors))
		}
		var sum float64
		for rank, pr := range selectionPrs {
			if pr < 0 || pr > 1 {
				return nil, fmt.Errorf("decision market: selection weight %v at rank %d: %w", pr, rank, domain.ErrInvalidProbability)
			}
			sum += pr
		}
		if math.Abs(sum-1) > 1e-9 {
			return nil, fmt.Errorf("decision market: selection weights sum to %v", sum)
		}
	}

	markets := make([]*PredictionMarket, len(priors))
	for no, prior := range priors {
		if prior < 0 || prior > 1 {
			return nil, fmt.Errorf("decision market: option %d prior %v: %w", no, prior, domain.ErrInvalidProbability)
		}
		markets[no] = NewPredictionMarket(no, prior)
	}
	return &DecisionMarket{
		markets:      markets,
		rule:         rule,
		preferred:    preferred,
		selectionPrs: selectionPrs,
	}, nil
}

// ActionNum returns the number of decision options.
func (dm *DecisionMarket) ActionNum() int { return len(dm.markets) }

// Market returns the conditional market of option no.
func (dm *DecisionMarket) Market(no int) *PredictionMarket { return dm.markets[no] }

// CurrentPredictions returns the latest red-bucket probability per option,
// in option order. This is the belief state an agent conditions on before
// reporting.
func (dm *DecisionMarket) CurrentPredictions() []float64 {
	out := make([]float64, len(dm.markets))
	for i, pm := range dm.markets {
		out[i] = pm.CurrentRed()
	}
	return out
}

// Report forwards one trader's red-bucket probability per option to every
// conditional market as a two-entry belief vector. Each probability must lie
// in [0,1]; the first failing option aborts the report.
func (dm *DecisionMarket) Report(redBeliefs []float64) error {
	if len(redBeliefs) != len(dm.markets) {
		return fmt.Errorf("decision market: report has %d entries, want %d: %w", len(redBeliefs), len(dm.markets), domain.ErrBeliefSize)
	}
	for no, p := range redBeliefs {
		if p < 0 || p > 1 {
			return fmt.Errorf("decision market: option %d belief %v: %w", no, p, domain.ErrInvalidProbability)
		}
		if err := dm.markets[no].Report([]float64{p, 1 - p}); err != nil {
			return err
		}
	}
	return nil
}

// Resolve selects the materialising option under the decision rule and
// scores its conditional market against that option's realised bucket
// colour. The result has one row per report received, each row a per-option
// reward vector that is zero everywhere except the selected option.
//
// Under the stochastic rule the selected option's scores are divided by the
// probability of having selected it. That inverse-propensity weighting makes
// the expected reward across repeated draws match the score of always
// resolving the top-ranked option; dropping it would bias every gradient
// estimate built on these rewards.
func (dm *DecisionMarket) Resolve(f domain.ScoreFunction, colours []domain.BucketColour, rng *rand.Rand) ([][]float64, int, error) {
	if len(colours) != len(dm.markets) {
		return nil, 0, fmt.Errorf("decision market: %d bucket colours for %d options", len(colours), len(dm.markets))
	}

	var selected int
	invPr := 1.0
	switch {
	case dm.rule == domain.DecisionRuleDeterministic || len(dm.markets) == 1:
		selected = dm.argmaxPreferred()
	case dm.rule == domain.DecisionRuleStochastic:
		rank, order := dm.drawRank(rng)
		selected = order[rank]
		invPr = 1 / dm.selectionPrs[rank]
	default:
		return nil, 0, fmt.Errorf("decision market: %v: %w", dm.rule, domain.ErrUnknownDecisionRule)
	}

	scores, err := dm.markets[selected].Resolve(f, colours[selected])
	if err != nil {
		return nil, 0, err
	}
	rewards := make([][]float64, len(scores))
	for i, s := range scores {
		row := make([]float64, len(dm.markets))
		row[selected] = s * invPr
		rewards[i] = row
	}
	return rewards, selected, nil
}

// beliefInPreferred reads option no's current probability of the preferred
// colour.
func (dm *DecisionMarket) beliefInPreferred(no int) float64 {
	return dm.markets[no].Current()[dm.preferred.Index()]
}

// argmaxPreferred picks the option with the highest current belief in the
// preferred colour, first on ties.
func (dm *DecisionMarket) argmaxPreferred() int {
	best := 0
	for no := 1; no < len(dm.markets); no++ {
		if dm.beliefInPreferred(no) > dm.beliefInPreferred(best) {
			best = no
		}
	}
	return best
}

// drawRank sorts options by current belief in the preferred colour,
// descending, and draws a rank from the selection weights. It returns the
// drawn rank and the rank order, so the caller can map rank back to an
// option and to its selection probability.
func (dm *DecisionMarket) drawRank(rng *rand.Rand) (int, []int) {
	order := make([]int, len(dm.markets))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return dm.beliefInPreferred(order[i]) > dm.beliefInPreferred(order[j])
	})

	u := rng.Float64()
	rank := len(order) - 1
	var acc float64
	for r, pr := range dm.selectionPrs {
		acc += pr
		if u < acc {
			rank = r
			break
		}
	}
	return rank, order
}
