package app

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"

	"golang.org/x/sync/errgroup"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/sim"
)

// TrainMode runs a single training run with the configured seed.
func (a *App) TrainMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting train mode",
		slog.Int64("seed", a.cfg.Training.Seed))

	engine, err := a.buildEngine(deps, a.cfg.Training.Seed)
	if err != nil {
		return fmt.Errorf("train mode: %w", err)
	}
	return engine.Run(ctx)
}

// SweepMode runs several training replicas concurrently, one per seed,
// starting at sweep.base_seed. Replicas share nothing mutable, so a sweep
// over n seeds behaves exactly like n sequential train runs.
func (a *App) SweepMode(ctx context.Context, deps *Dependencies) error {
	a.logger.InfoContext(ctx, "starting sweep mode",
		slog.Int("runs", a.cfg.Sweep.Runs),
		slog.Int64("base_seed", a.cfg.Sweep.BaseSeed))

	g, ctx := errgroup.WithContext(ctx)
	for i := 0; i < a.cfg.Sweep.Runs; i++ {
		seed := a.cfg.Sweep.BaseSeed + int64(i)
		engine, err := a.buildEngine(deps, seed)
		if err != nil {
			return fmt.Errorf("sweep mode: replica %d: %w", i, err)
		}
		g.Go(func() error {
			if err := engine.Run(ctx); err != nil {
				return fmt.Errorf("sweep replica seed %d: %w", seed, err)
			}
			summary := engine.Summary()
			a.logger.InfoContext(ctx, "sweep replica finished",
				slog.String("run_id", engine.RunID()),
				slog.Int64("seed", seed),
				slog.Float64("mean_reward", summary.MeanReward),
				slog.Float64("mean_report_gap", summary.MeanReportGap))
			return nil
		})
	}
	return g.Wait()
}

// buildEngine assembles a fully independent engine for one run. Every call
// constructs fresh agents, a fresh explorer and a fresh random source so
// concurrent replicas never share mutable state.
func (a *App) buildEngine(deps *Dependencies, seed int64) (*sim.Engine, error) {
	simCfg, err := simConfig(a.cfg)
	if err != nil {
		return nil, err
	}
	agents, err := buildAgents(deps.Registry, a.cfg)
	if err != nil {
		return nil, err
	}
	explorer, err := buildExplorer(a.cfg)
	if err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(seed))
	return sim.NewEngine(simCfg, agents, explorer, rng, a.logger)
}
