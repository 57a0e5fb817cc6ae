package agent

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// StochasticGradientAgent reports through a linear Gaussian policy in logit
// space: mean = signal dot thetaMean, std either fixed or learned as
// exp(signal dot thetaStd) with a floor. It learns by REINFORCE with a
// linear state-value baseline for variance reduction.
type StochasticGradientAgent struct {
	cfg       Config
	thetaMean [][]float64
	thetaStd  [][]float64
	wv        []float64

	optMean *optimizer
	optStd  *optimizer

	memory  *Memory
	pending int

	lrTheta float64
	lrWv    float64
}

// NewStochasticGradientAgent builds the agent with zero-initialised weights.
func NewStochasticGradientAgent(cfg Config) (*StochasticGradientAgent, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	if cfg.LearningStd {
		if cfg.MinStd <= 0 {
			return nil, fmt.Errorf("agent %s: min_std %v, want > 0 when learning the std", cfg.Name, cfg.MinStd)
		}
	} else if cfg.FixedStd <= 0 {
		return nil, fmt.Errorf("agent %s: fixed_std %v, want > 0", cfg.Name, cfg.FixedStd)
	}

	width := cfg.featureWidth()
	optMean, err := newOptimizer(cfg.Algorithm, cfg.Beta1, cfg.Beta2, width, cfg.ActionNum)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	optStd, err := newOptimizer(cfg.Algorithm, cfg.Beta1, cfg.Beta2, width, cfg.ActionNum)
	if err != nil {
		return nil, fmt.Errorf("agent %s: %w", cfg.Name, err)
	}
	return &StochasticGradientAgent{
		cfg:       cfg,
		thetaMean: zerosMat(width, cfg.ActionNum),
		thetaStd:  zerosMat(width, cfg.ActionNum),
		wv:        make([]float64, width),
		optMean:   optMean,
		optStd:    optStd,
		memory:    NewMemory(cfg.MemorySize),
		lrTheta:   cfg.LearningRateTheta,
		lrWv:      cfg.LearningRateWv,
	}, nil
}

var _ Agent = (*StochasticGradientAgent)(nil)

// Name returns the configured agent name.
func (ag *StochasticGradientAgent) Name() string { return ag.cfg.Name }

// Report encodes the observation, evaluates mean and std and samples the
// logit-space report.
func (ag *StochasticGradientAgent) Report(option int, ball domain.Ball, currentBelief []float64, rng *rand.Rand) (*Report, error) {
	if len(currentBelief) != ag.cfg.ActionNum {
		return nil, fmt.Errorf("agent %s: current belief has %d entries, want %d", ag.cfg.Name, len(currentBelief), ag.cfg.ActionNum)
	}
	if option < 0 || option >= ag.cfg.ActionNum {
		return nil, fmt.Errorf("agent %s: option %d outside 0..%d", ag.cfg.Name, option, ag.cfg.ActionNum-1)
	}

	signal := encodeObservation(option, ball, currentBelief)
	mean := matVec(signal, ag.thetaMean, ag.cfg.ActionNum)

	std := make([]float64, ag.cfg.ActionNum)
	if ag.cfg.LearningStd {
		logStd := matVec(signal, ag.thetaStd, ag.cfg.ActionNum)
		for a, x := range logStd {
			std[a] = math.Exp(x)
			if std[a] < ag.cfg.MinStd {
				std[a] = ag.cfg.MinStd
			}
		}
	} else {
		for a := range std {
			std[a] = ag.cfg.FixedStd
		}
	}

	action := make([]float64, ag.cfg.ActionNum)
	for a := range action {
		action[a] = mean[a] + std[a]*rng.NormFloat64()
	}
	return &Report{Signal: signal, Action: action, Mean: mean, Std: std}, nil
}

// StoreExperience buffers one sample after checking its shape against the
// policy dimensions.
func (ag *StochasticGradientAgent) StoreExperience(exp *Experience) error {
	if err := ag.checkShape(exp); err != nil {
		return err
	}
	ag.memory.Add(exp)
	ag.pending++
	return nil
}

func (ag *StochasticGradientAgent) checkShape(exp *Experience) error {
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
		{"std", exp.Std},
		{"reward", exp.Reward},
	} {
		if len(part.v) != ag.cfg.ActionNum {
			return fmt.Errorf("agent %s: %s has %d entries, want %d: %w", ag.cfg.Name, part.name, len(part.v), ag.cfg.ActionNum, domain.ErrMalformedBatch)
		}
	}
	return nil
}

// BatchUpdate applies one REINFORCE step over the most recent batch once
// enough samples have accumulated since the last step. A non-finite gradient
// (degenerate rewards or features) aborts the step with every parameter
// unchanged.
func (ag *StochasticGradientAgent) BatchUpdate(epoch int) error {
	if ag.pending < ag.cfg.BatchSize {
		return nil
	}
	window := ag.memory.Last(ag.cfg.BatchSize)

	width, actions := ag.cfg.featureWidth(), ag.cfg.ActionNum
	gMean := zerosMat(width, actions)
	gStd := zerosMat(width, actions)
	gWv := make([]float64, width)

	for _, exp := range window {
		baseline := dot(exp.Signal, ag.wv)
		var total float64
		for _, r := range exp.Reward {
			total += r
		}
		for a := 0; a < actions; a++ {
			adv := exp.Reward[a] - baseline
			d := exp.Action[a] - exp.Mean[a]
			varA := exp.Std[a] * exp.Std[a]
			cMean := adv * d / varA
			cStd := adv * (d*d/varA - 1)
			for r, s := range exp.Signal {
				if s == 0 {
					continue
				}
				gMean[r][a] += s * cMean
				gStd[r][a] += s * cStd
			}
		}
		vErr := total - baseline
		for r, s := range exp.Signal {
			gWv[r] += s * vErr
		}
	}

	scale := 1 / float64(ag.cfg.BatchSize)
	for r := 0; r < width; r++ {
		for a := 0; a < actions; a++ {
			gMean[r][a] *= scale
			gStd[r][a] *= scale
		}
		gWv[r] *= scale
	}

	if !matFinite(gMean) || !matFinite(gStd) || !vecFinite(gWv) {
		return fmt.Errorf("agent %s: non-finite gradient at epoch %d: %w", ag.cfg.Name, epoch, domain.ErrMalformedBatch)
	}

	ag.optMean.Step(ag.thetaMean, gMean, ag.lrTheta)
	if ag.cfg.LearningStd {
		ag.optStd.Step(ag.thetaStd, gStd, ag.lrTheta)
	}
	for r := range ag.wv {
		ag.wv[r] += ag.lrWv * gWv[r]
	}
	ag.pending = 0
	return nil
}

// LearningRateDecay moves both step sizes along 1/(1+decayRate*epoch).
func (ag *StochasticGradientAgent) LearningRateDecay(epoch int, decayRate float64) {
	f := 1 / (1 + decayRate*float64(epoch))
	ag.lrTheta = ag.cfg.LearningRateTheta * f
	ag.lrWv = ag.cfg.LearningRateWv * f
}
