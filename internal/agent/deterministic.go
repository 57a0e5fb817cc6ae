package agent

import (
	"fmt"
	"math/rand"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// DeterministicGradientAgent reports the policy mean without noise of its
// own; exploration is injected externally by perturbing that mean. It learns
// actor weights by following the action-gradient of a compatible linear
// critic (weights wq) that regresses the realised reward around a
// state-value baseline (weights wv).
type DeterministicGradientAgent struct {
	cfg       Config
	thetaMean [][]float64
	wq        [][]float64
	wv        []float64

	optMean *optimizer

	memory  *Memory
	pending int

	lrTheta float64
	lrWv    float64
	lrWq    float64
}

// NewDeterministicGradientAgent builds the agent with zero-initialised
// weights.
func NewDeterministicGradientAgent(cfg Config) (*DeterministicGradientAgent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	width := cfg.featureWidth()
	optMean, err := newOptimizer(cfg.Algorithm, cfg.Beta1, cfg.Beta2, width, cfg.ActionNum)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	return &DeterministicGradientAgent{
		cfg:       cfg,
		thetaMean: zerosMat(width, cfg.ActionNum),
		wq:        zerosMat(width, cfg.ActionNum),
		wv:        make([]float64, width),
		optMean:   optMean,
		memory:    NewMemory(cfg.MemorySize),
		lrTheta:   cfg.LearningRateTheta,
		lrWv:      cfg.LearningRateWv,
		lrWq:      cfg.LearningRateWq,
	}, nil
}

var _ Agent = (*DeterministicGradientAgent)(nil)

// Name returns the configured agent name.
func (ag *DeterministicGradientAgent) Name() string { return ag.cfg.Name }

// Report encodes the observation and returns the deterministic policy mean.
// Action and Std stay nil; the caller perturbs the mean through the
// exploration policy before reporting it to the market.
func (ag *DeterministicGradientAgent) Report(option int, ball domain.Ball, currentBelief []float64, _ *rand.Rand) (*Report, error) {
	if len(currentBelief) != ag.cfg.ActionNum {
		return nil, fmt.Errorf("agent %s: current belief has %d entries, want %d", ag.cfg.Name, len(currentBelief), ag.cfg.ActionNum)
	}
	if option < 0 || option >= ag.cfg.ActionNum {
		return nil, fmt.Errorf("agent %s: option %d outside 0..%d", ag.cfg.Name, option, ag.cfg.ActionNum-1)
	}

	signal := encodeObservation(option, ball, currentBelief)
	mean := matVec(signal, ag.thetaMean, ag.cfg.ActionNum)
	return &Report{Signal: signal, Mean: mean}, nil
}

// StoreExperience buffers one sample. Action must carry the externally
// perturbed report; Std is ignored.
func (ag *DeterministicGradientAgent) StoreExperience(exp *Experience) error {
	if exp == nil {
		return fmt.Errorf("agent %s: nil experience: %w", ag.cfg.Name, domain.ErrMalformedBatch)
	}
	if len(exp.Signal) != ag.cfg.featureWidth() {
		return fmt.Errorf("agent %s: signal has %d entries, want %d: %w", ag.cfg.Name, len(exp.Signal), ag.cfg.featureWidth(), domain.ErrMalformedBatch)
	}
	for _, part := range []struct {
		name string
		v    []float64
	}{
		{"action", exp.Action},
		{"mean", exp.Mean},
		{"reward", exp.Reward},
	} {
		if len(part.v) != ag.cfg.ActionNum {
			return fmt.Errorf("agent %s: %s has %d entries, want %d: %w", ag.cfg.Name, part.name, len(part.v), ag.cfg.ActionNum, domain.ErrMalformedBatch)
		}
	}
	ag.memory.Add(exp)
	ag.pending++
	return nil
}

// BatchUpdate applies one actor-critic step over the most recent batch once
// enough samples have accumulated since the last step. The actor ascends the
// critic's action-gradient; the critic and baseline regress the realised
// total reward. A non-finite gradient aborts the step with every parameter
// unchanged.
func (ag *DeterministicGradientAgent) BatchUpdate(epoch int) error {
	if ag.pending < ag.cfg.BatchSize {
		return nil
	}
	window := ag.memory.Last(ag.cfg.BatchSize)

	width, actions := ag.cfg.featureWidth(), ag.cfg.ActionNum
	gTheta := zerosMat(width, actions)
	gWq := zerosMat(width, actions)
	gWv := make([]float64, width)

	for _, exp := range window {
		baseline := dot(exp.Signal, ag.wv)
		var total float64
		for _, r := range exp.Reward {
			total += r
		}

		// qGrad is the critic's gradient with respect to the action.
		qGrad := matVec(exp.Signal, ag.wq, actions)
		qPred := baseline
		for a := 0; a < actions; a++ {
			qPred += (exp.Action[a] - exp.Mean[a]) * qGrad[a]
		}
		tdErr := total - qPred

		for a := 0; a < actions; a++ {
			excursion := exp.Action[a] - exp.Mean[a]
			for r, s := range exp.Signal {
				if s == 0 {
					continue
				}
				gTheta[r][a] += s * qGrad[a]
				gWq[r][a] += s * tdErr * excursion
			}
		}
		for r, s := range exp.Signal {
			gWv[r] += s * tdErr
		}
	}

	scale := 1 / float64(ag.cfg.BatchSize)
	for r := 0; r < width; r++ {
		for a := 0; a < actions; a++ {
			gTheta[r][a] *= scale
			gWq[r][a] *= scale
		}
		gWv[r] *= scale
	}

	if !matFinite(gTheta) || !matFinite(gWq) || !vecFinite(gWv) {
		return fmt.Errorf("agent %s: non-finite gradient at epoch %d: %w", ag.cfg.Name, epoch, domain.ErrMalformedBatch)
	}

	ag.optMean.Step(ag.thetaMean, gTheta, ag.lrTheta)
	for r := 0; r < width; r++ {
		for a := 0; a < actions; a++ {
			ag.wq[r][a] += ag.lrWq * gWq[r][a]
		}
		ag.wv[r] += ag.lrWv * gWv[r]
	}
	ag.pending = 0
	return nil
}

// LearningRateDecay moves all three step sizes along 1/(1+decayRate*epoch).
func (ag *DeterministicGradientAgent) LearningRateDecay(epoch int, decayRate float64) {
	f := 1 / (1 + decayRate*float64(epoch))
	ag.lrTheta = ag.cfg.LearningRateTheta * f
	ag.lrWv = ag.cfg.LearningRateWv * f
	ag.lrWq = ag.cfg.LearningRateWq * f
}
