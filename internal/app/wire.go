package app

import (
	"fmt"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/agent"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/config"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/explore"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/sim"
)

// Dependencies bundles the shared collaborators that the application modes
// need to operate. It is constructed by Wire and torn down by the returned
// cleanup function.
type Dependencies struct {
	// Registry creates agents by kind. Modes build a fresh agent set from it
	// for every run so replicas never share learner state.
	Registry *agent.Registry
}

// Wire constructs the concrete dependency implementations from the given
// configuration and returns them together with a cleanup function that should
// be called on shutdown to release resources.
func Wire(cfg *config.Config) (*Dependencies, func(), error) {
	deps := &Dependencies{
		Registry: agent.DefaultRegistry(),
	}
	return deps, func() {}, nil
}

// simConfig converts the validated file configuration into the engine's run
// configuration.
func simConfig(cfg *config.Config) (sim.Config, error) {
	scoreFn, err := domain.ParseScoreFunction(cfg.Market.ScoreFunction)
	if err != nil {
		return sim.Config{}, fmt.Errorf("wire: %w", err)
	}
	rule, err := domain.ParseDecisionRule(cfg.Market.DecisionRule)
	if err != nil {
		return sim.Config{}, fmt.Errorf("wire: %w", err)
	}
	colour, err := domain.ParseBucketColour(cfg.Market.PreferredColour)
	if err != nil {
		return sim.Config{}, fmt.Errorf("wire: %w", err)
	}
	order, err := domain.ParseReportOrder(cfg.Training.ReportOrder)
	if err != nil {
		return sim.Config{}, fmt.Errorf("wire: %w", err)
	}
	return sim.Config{
		ActionNum:           cfg.Market.ActionNum,
		PriorRedList:        cfg.Bucket.PriorRedList,
		PrRedBallRedBucket:  cfg.Bucket.PrRedBallRedBucket,
		PrRedBallBlueBucket: cfg.Bucket.PrRedBallBlueBucket,
		ScoreFunction:       scoreFn,
		DecisionRule:        rule,
		PreferredColour:     colour,
		SelectionPrs:        cfg.Market.PreferredColourPrList,
		ExplorerFixedStd:    cfg.Agents.FixedStd,
		Episodes:            cfg.Training.Episodes,
		DecayRate:           cfg.Training.DecayRate,
		ReportOrder:         order,
		LogEvery:            cfg.Training.LogEvery,
	}, nil
}

// buildAgents creates cfg.Agents.Count identically configured agents named
// agent0..agentN-1.
func buildAgents(reg *agent.Registry, cfg *config.Config) ([]agent.Agent, error) {
	algo, err := domain.ParseAlgorithm(cfg.Agents.Algorithm)
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	agents := make([]agent.Agent, cfg.Agents.Count)
	for i := range agents {
		ag, err := reg.Create(cfg.Agents.Kind, agent.Config{
			Name:              fmt.Sprintf("agent%d", i),
			FeatureNum:        cfg.Agents.FeatureNum,
			ActionNum:         cfg.Market.ActionNum,
			LearningRateTheta: cfg.Agents.LearningRateTheta,
			LearningRateWv:    cfg.Agents.LearningRateWv,
			LearningRateWq:    cfg.Agents.LearningRateWq,
			MemorySize:        cfg.Agents.MemorySize,
			BatchSize:         cfg.Agents.BatchSize,
			Beta1:             cfg.Agents.Beta1,
			Beta2:             cfg.Agents.Beta2,
			Algorithm:         algo,
			LearningStd:       cfg.Agents.LearningStd,
			FixedStd:          cfg.Agents.FixedStd,
			MinStd:            cfg.Agents.MinStd,
		})
		if err != nil {
			return nil, fmt.Errorf("wire: %w", err)
		}
		agents[i] = ag
	}
	return agents, nil
}

// buildExplorer creates the exploration policy, or nil when disabled.
func buildExplorer(cfg *config.Config) (*explore.Explorer, error) {
	if !cfg.Explorer.Enabled {
		return nil, nil
	}
	e, err := explore.New(explore.Config{
		FeatureNum:       cfg.Agents.FeatureNum,
		ActionNum:        cfg.Market.ActionNum,
		Learning:         cfg.Explorer.Learning,
		InitLearningRate: cfg.Explorer.InitLearningRate,
		MinStd:           cfg.Explorer.MinStd,
	})
	if err != nil {
		return nil, fmt.Errorf("wire: %w", err)
	}
	return e, nil
}
