package agent

import (
	"fmt"
	"math"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

const adamEpsilon = 1e-8

// optimizer applies gradient-ascent steps to one parameter matrix under the
// configured scheme. Momentum keeps an exponential moving average of the
// gradient; Adam additionally tracks the second moment with bias correction.
type optimizer struct {
	algo  domain.Algorithm
	beta1 float64
	beta2 float64
	m     [][]float64
	v     [][]float64
	step  int
}

func newOptimizer(algo domain.Algorithm, beta1, beta2 float64, rows, cols int) (*optimizer, error) {
	o := &optimizer{algo: algo, beta1: beta1, beta2: beta2}
	switch algo {
	case domain.AlgorithmRegular:
	case domain.AlgorithmMomentum:
		o.m = zerosMat(rows, cols)
	case domain.AlgorithmAdam:
		o.m = zerosMat(rows, cols)
		o.v = zerosMat(rows, cols)
	default:
		return nil, fmt.Errorf("%v: %w", algo, domain.ErrUnknownAlgorithm)
	}
	return o, nil
}

// Step ascends weights along grad scaled by lr. weights and grad must share
// the shape the optimizer was built with.
func (o *optimizer) Step(weights, grad [][]float64, lr float64) {
	switch o.algo {
	case domain.AlgorithmRegular:
		for r := range weights {
			for c := range weights[r] {
				weights[r][c] += lr * grad[r][c]
			}
		}
	case domain.AlgorithmMomentum:
		for r := range weights {
			for c := range weights[r] {
				o.m[r][c] = o.beta1*o.m[r][c] + (1-o.beta1)*grad[r][c]
				weights[r][c] += lr * o.m[r][c]
			}
		}
	case domain.AlgorithmAdam:
		o.step++
		mCorr := 1 - math.Pow(o.beta1, float64(o.step))
		vCorr := 1 - math.Pow(o.beta2, float64(o.step))
		for r := range weights {
			for c := range weights[r] {
				g := grad[r][c]
				o.m[r][c] = o.beta1*o.m[r][c] + (1-o.beta1)*g
				o.v[r][c] = o.beta2*o.v[r][c] + (1-o.beta2)*g*g
				mHat := o.m[r][c] / mCorr
				vHat := o.v[r][c] / vCorr
				weights[r][c] += lr * mHat / (math.Sqrt(vHat) + adamEpsilon)
			}
		}
	}
}
