// Package explore implements the Gaussian exploration policy that perturbs
// an externally supplied action mean and learns its log-std weights from
// realised rewards via the likelihood-ratio (REINFORCE) estimator.
package explore

import (
	"fmt"
	"math"
	"math/rand"
)

const defaultInitLearningRate = 3e-4

// Config carries the Explorer construction parameters.
type Config struct {
	// FeatureNum is the per-option width of the signal feature vector.
	FeatureNum int
	// ActionNum is the number of decision options, i.e. the action width.
	ActionNum int
	// Learning switches the log-std weights on. When false the std is fixed
	// externally through SetParameters and Update is a no-op.
	Learning bool
	// InitLearningRate is the step size before decay. Zero picks the
	// default.
	InitLearningRate float64
	// MinStd floors the learned std elementwise so the policy cannot
	// collapse to zero variance, which would degenerate the gradient
	// estimator.
	MinStd float64
}

// Explorer samples perturbed actions h ~ Normal(mean, std) and adjusts its
// std weights towards rewarded noise. The mean is never learned here; it is
// installed per round by the acting agent.
type Explorer struct {
	actionNum        int
	mean             []float64
	std              []float64
	thetaStd         [][]float64
	initLearningRate float64
	learningRate     float64
	learning         bool
	minStd           float64
	h                []float64
}

// New builds an Explorer with zero mean, unit std and zero std weights.
func New(cfg Config) (*Explorer, error) {
	if cfg.FeatureNum < 1 {
		return nil, fmt.Errorf("explorer: feature_num %d, want >= 1", cfg.FeatureNum)
	}
	if cfg.ActionNum < 1 {
		return nil, fmt.Errorf("explorer: action_num %d, want >= 1", cfg.ActionNum)
	}
	if cfg.Learning && cfg.MinStd <= 0 {
		return nil, fmt.Errorf("explorer: min_std %v, want > 0 in learning mode", cfg.MinStd)
	}
	lr := cfg.InitLearningRate
	if lr == 0 {
		lr = defaultInitLearningRate
	}
	if lr < 0 {
		return nil, fmt.Errorf("explorer: init_learning_rate %v, want >= 0", lr)
	}

	width := cfg.FeatureNum * cfg.ActionNum
	thetaStd := make([][]float64, width)
	for r := range thetaStd {
		thetaStd[r] = make([]float64, cfg.ActionNum)
	}
	std := make([]float64, cfg.ActionNum)
	for a := range std {
		std[a] = 1
	}
	return &Explorer{
		actionNum:        cfg.ActionNum,
		mean:             make([]float64, cfg.ActionNum),
		std:              std,
		thetaStd:         thetaStd,
		initLearningRate: lr,
		learningRate:     lr,
		learning:         cfg.Learning,
		minStd:           cfg.MinStd,
	}, nil
}

// SetParameters installs the action mean and a uniform fixed std for the next
// sample. mean must have ActionNum entries. In learning mode the std is
// recomputed from the weights at the next Report and the fixed value only
// seeds the interim state.
func (e *Explorer) SetParameters(mean []float64, fixedStd float64) {
	copy(e.mean, mean)
	for a := range e.std {
		e.std[a] = fixedStd
	}
}

// Report samples the perturbed action for one feature vector and caches it
// for the Update that follows. In learning mode the std is first recomputed
// as exp(signal dot thetaStd), floored elementwise at MinStd.
func (e *Explorer) Report(signal []float64, rng *rand.Rand) []float64 {
	if e.learning {
		for a := 0; a < e.actionNum; a++ {
			var x float64
			for r, s := range signal {
				x += s * e.thetaStd[r][a]
			}
			std := math.Exp(x)
			if std < e.minStd {
				std = e.minStd
			}
			e.std[a] = std
		}
	}
	h := make([]float64, e.actionNum)
	for a := range h {
		h[a] = e.mean[a] + e.std[a]*rng.NormFloat64()
	}
	e.h = h

	out := make([]float64, len(h))
	copy(out, h)
	return out
}

// Update takes one gradient-ascent step on the log-std weights for the
// per-option reward earned by the action sampled in the preceding Report:
// the score-function estimator signal outer [reward * ((h-mean)^2/std^2 - 1)].
// No-op outside learning mode or before the first Report.
func (e *Explorer) Update(reward, signal []float64) {
	if !e.learning || e.h == nil {
		return
	}
	coeff := make([]float64, e.actionNum)
	for a := range coeff {
		d := e.h[a] - e.mean[a]
		coeff[a] = reward[a] * (d*d/(e.std[a]*e.std[a]) - 1)
	}
	for r, s := range signal {
		if s == 0 {
			continue
		}
		for a, c := range coeff {
			e.thetaStd[r][a] += e.learningRate * s * c
		}
	}
}

// LearningRateDecay moves the step size along the 1/(1+decayRate*epoch)
// schedule and returns the new rate.
func (e *Explorer) LearningRateDecay(epoch int, decayRate float64) float64 {
	e.learningRate = e.initLearningRate / (1 + decayRate*float64(epoch))
	return e.learningRate
}

// Learning reports whether the std weights are being trained.
func (e *Explorer) Learning() bool { return e.learning }

// LearningRate returns the current step size.
func (e *Explorer) LearningRate() float64 { return e.learningRate }

// Mean returns a copy of the current action mean.
func (e *Explorer) Mean() []float64 {
	out := make([]float64, len(e.mean))
	copy(out, e.mean)
	return out
}

// Std returns a copy of the std in effect for the next sample.
func (e *Explorer) Std() []float64 {
	out := make([]float64, len(e.std))
	copy(out, e.std)
	return out
}
