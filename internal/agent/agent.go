// Package agent implements the policy-gradient traders that turn private
// ball observations into belief reports and learn from the market rewards
// those reports earn. Two kinds exist: a stochastic agent that samples its
// own reports from a learned Gaussian policy, and a deterministic agent
// whose fixed mean report is perturbed externally by an exploration policy.
package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/bayes"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// Agent kinds registered in the default registry.
const (
	KindStochastic    = "stochastic"
	KindDeterministic = "deterministic"
)

// The signal encoder emits this many features per decision option: red
// count, blue count and the prior logit.
const featuresPerOption = 3

// Report is the outcome of one policy evaluation. Signal is the encoded
// feature vector, Mean the policy mean in logit space. Stochastic agents
// also fill Action (the sampled logit report) and Std; deterministic agents
// leave both nil and rely on an external explorer for the perturbation.
type Report struct {
	Signal []float64
	Action []float64
	Mean   []float64
	Std    []float64
}

// Experience is one round's learning sample: what the agent saw, what was
// reported on its behalf and what the market paid for it.
type Experience struct {
	Signal []float64
	Action []float64
	Mean   []float64
	Std    []float64
	Reward []float64
	Epoch  int
}

// Agent is the learning capability consumed by the round loop.
type Agent interface {
	// Report evaluates the policy on one observation given the market's
	// current per-option beliefs.
	Report(option int, ball domain.Ball, currentBelief []float64, rng *rand.Rand) (*Report, error)
	// StoreExperience buffers one round's sample for a later batch step.
	StoreExperience(exp *Experience) error
	// BatchUpdate applies one optimizer step once a full batch of
	// experiences has accumulated; otherwise it is a no-op. A failed update
	// leaves all parameters unmodified and is recoverable at the caller.
	BatchUpdate(epoch int) error
	// LearningRateDecay moves all step sizes along the decay schedule.
	LearningRateDecay(epoch int, decayRate float64)
	// Name identifies the agent in logs and recordings.
	Name() string
}

// Config carries the construction parameters shared by both agent kinds.
type Config struct {
	Name              string
	FeatureNum        int
	ActionNum         int
	LearningRateTheta float64
	LearningRateWv    float64
	// LearningRateWq drives the critic of the deterministic agent and is
	// ignored by the stochastic one.
	LearningRateWq float64
	MemorySize     int
	BatchSize      int
	Beta1          float64
	Beta2          float64
	Algorithm      domain.Algorithm
	// LearningStd switches the stochastic agent's std from FixedStd to a
	// learned exp(signal dot thetaStd) floored at MinStd.
	LearningStd bool
	FixedStd    float64
	MinStd      float64
}

func (cfg Config) validate() error {
	if cfg.FeatureNum != featuresPerOption {
		return fmt.Errorf("agent %s: feature_num %d: signal encoder emits %d features per option", cfg.Name, cfg.FeatureNum, featuresPerOption)
	}
	if cfg.ActionNum < 1 {
		return fmt.Errorf("agent %s: action_num %d, want >= 1", cfg.Name, cfg.ActionNum)
	}
	if cfg.MemorySize < 1 {
		return fmt.Errorf("agent %s: memory_size %d, want >= 1", cfg.Name, cfg.MemorySize)
	}
	if cfg.BatchSize < 1 || cfg.BatchSize > cfg.MemorySize {
		return fmt.Errorf("agent %s: batch_size %d, want 1..%d", cfg.Name, cfg.BatchSize, cfg.MemorySize)
	}
	if cfg.LearningRateTheta < 0 || cfg.LearningRateWv < 0 || cfg.LearningRateWq < 0 {
		return fmt.Errorf("agent %s: learning rates must not be negative", cfg.Name)
	}
	switch cfg.Algorithm {
	case domain.AlgorithmRegular, domain.AlgorithmMomentum, domain.AlgorithmAdam:
	default:
		return fmt.Errorf("agent %s: %v: %w", cfg.Name, cfg.Algorithm, domain.ErrUnknownAlgorithm)
	}
	return nil
}

// featureWidth is the full width of the encoded signal vector.
func (cfg Config) featureWidth() int { return cfg.FeatureNum * cfg.ActionNum }

// encodeObservation builds the feature vector for one ball observation
// against the market's current beliefs: prior logits in every option's
// passthrough slot, a unit count in the observed ball's slot.
func encodeObservation(option int, ball domain.Ball, currentBelief []float64) []float64 {
	priorLogits := make([]float64, len(currentBelief))
	for k, p := range currentBelief {
		priorLogits[k] = bayes.Logit(p)
	}
	return bayes.EncodeSignal(option, ball, priorLogits)
}

func zerosMat(rows, cols int) [][]float64 {
	m := make([][]float64, rows)
	for r := range m {
		m[r] = make([]float64, cols)
	}
	return m
}

// matVec computes signal times weights for a (width x actions) matrix.
func matVec(signal []float64, w [][]float64, actions int) []float64 {
	out := make([]float64, actions)
	for r, s := range signal {
		if s == 0 {
			continue
		}
		for a, wv := range w[r] {
			out[a] += s * wv
		}
	}
	return out
}

func dot(a, b []float64) float64 {
	var sum float64
	for i, v := range a {
		sum += v * b[i]
	}
	return sum
}

func matFinite(m [][]float64) bool {
	for _, row := range m {
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

func vecFinite(v []float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
