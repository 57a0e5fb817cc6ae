// Package bayes implements the posterior engine: the exact two-hypothesis
// Bayes update, its vectorized log-odds formulation, the logit/expit pair,
// and the closed-form oracles used for regret evaluation.
package bayes

import (
	"math"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// Logit maps a probability to log-odds space.
func Logit(p float64) float64 {
	return math.Log(p / (1 - p))
}

// Expit is the inverse of Logit.
func Expit(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

// NaiveBayesOneIter applies one exact Bayes update to the belief at a single
// option index and returns the updated belief vector as a fresh slice. prior
// holds the probability of a red bucket per option. A red ball weighs the
// hypotheses by the red-ball emission probabilities, a blue ball by their
// complements.
//
// Degenerate priors of exactly 0 or 1 combined with a zero likelihood divide
// zero by zero; the resulting NaN propagates unclamped.
func NaiveBayesOneIter(prior []float64, ball domain.Ball, option int, prRedBallRedBucket, prRedBallBlueBucket float64) []float64 {
	posterior := make([]float64, len(prior))
	copy(posterior, prior)

	p := prior[option]
	likeRed, likeBlue := prRedBallRedBucket, prRedBallBlueBucket
	if ball == domain.BallBlue {
		likeRed, likeBlue = 1-prRedBallRedBucket, 1-prRedBallBlueBucket
	}
	posterior[option] = p * likeRed / (p*likeRed + (1-p)*likeBlue)
	return posterior
}

// UpdateMatrix is the sparse linear map equivalent of repeated Bayes updates
// across all options at once, expressed in log-odds space. Each option owns
// three consecutive rows of the feature vector: red-ball count, blue-ball
// count, and a unit passthrough for the prior logit.
type UpdateMatrix struct {
	actionNum int
	rows      [][]float64
}

// NewUpdateMatrix builds the 3A by A map for actionNum options with shared
// emission probabilities.
func NewUpdateMatrix(actionNum int, prRedBallRedBucket, prRedBallBlueBucket float64) *UpdateMatrix {
	redWeight := math.Log(prRedBallRedBucket) - math.Log(prRedBallBlueBucket)
	blueWeight := math.Log(1-prRedBallRedBucket) - math.Log(1-prRedBallBlueBucket)

	rows := make([][]float64, 3*actionNum)
	for r := range rows {
		rows[r] = make([]float64, actionNum)
	}
	for k := 0; k < actionNum; k++ {
		rows[3*k][k] = redWeight
		rows[3*k+1][k] = blueWeight
		rows[3*k+2][k] = 1
	}
	return &UpdateMatrix{actionNum: actionNum, rows: rows}
}

// ActionNum returns the number of options the matrix was built for.
func (m *UpdateMatrix) ActionNum() int { return m.actionNum }

// Apply multiplies the signal feature vector through the matrix and returns
// per-option posterior logits. signal must have length 3*ActionNum: per
// option [red count, blue count, prior logit].
func (m *UpdateMatrix) Apply(signal []float64) []float64 {
	out := make([]float64, m.actionNum)
	for r, row := range m.rows {
		s := signal[r]
		if s == 0 {
			continue
		}
		for k, w := range row {
			out[k] += s * w
		}
	}
	return out
}

// FeatureWidth returns the width of the signal feature vector for actionNum
// options.
func FeatureWidth(actionNum int) int { return 3 * actionNum }

// EncodeSignal builds the feature vector for a single observation: the prior
// logits fill every option's passthrough slot and the observed ball
// increments its own count slot.
func EncodeSignal(option int, ball domain.Ball, priorLogits []float64) []float64 {
	sig := make([]float64, 3*len(priorLogits))
	for k, l := range priorLogits {
		sig[3*k+2] = l
	}
	sig[3*option+int(ball)]++
	return sig
}

// AnalyticalBestReportRedSignal is the closed-form posterior probability of a
// red bucket after observing one red ball.
func AnalyticalBestReportRedSignal(priorRed, prRedBallRedBucket, prRedBallBlueBucket float64) float64 {
	jointRed := priorRed * prRedBallRedBucket
	jointBlue := (1 - priorRed) * prRedBallBlueBucket
	return jointRed / (jointRed + jointBlue)
}

// AnalyticalBestReportBlueSignal is the closed-form posterior probability of
// a red bucket after observing one blue ball. The arguments are the blue-ball
// emission probabilities, i.e. the complements of the red ones.
func AnalyticalBestReportBlueSignal(priorRed, prBlueBallRedBucket, prBlueBallBlueBucket float64) float64 {
	jointRed := priorRed * prBlueBallRedBucket
	jointBlue := (1 - priorRed) * prBlueBallBlueBucket
	return jointRed / (jointRed + jointBlue)
}

// AnalyticalBestReport dispatches on the observed ball colour and returns the
// optimal posterior for the signalled option given the current belief vector.
func AnalyticalBestReport(option int, ball domain.Ball, current []float64, prRedBallRedBucket, prRedBallBlueBucket float64) float64 {
	if ball == domain.BallRed {
		return AnalyticalBestReportRedSignal(current[option], prRedBallRedBucket, prRedBallBlueBucket)
	}
	return AnalyticalBestReportBlueSignal(current[option], 1-prRedBallRedBucket, 1-prRedBallBlueBucket)
}

// ExpectedLogReward is the expected logarithmic market score of reporting
// estimated when the true posterior is actual and the market stood at
// priorRed. Strict propriety of the log rule maximizes it at
// estimated == actual, so the gap to that maximum serves as regret.
func ExpectedLogReward(actual, estimated, priorRed float64) float64 {
	return actual*(math.Log(estimated)-math.Log(priorRed)) +
		(1-actual)*(math.Log(1-estimated)-math.Log(1-priorRed))
}
