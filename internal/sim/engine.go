// Package sim drives the training loop: every episode draws fresh buckets
// and a fresh decision market, lets each agent observe one ball and move the
// market, resolves the market into per-option rewards and feeds those back
// into the learners.
package sim

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"github.com/google/uuid"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/agent"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/bayes"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/bucket"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/explore"
	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/market"
)

// Config carries everything one training run needs beyond its collaborators.
type Config struct {
	// ActionNum is the number of decision options, each backed by its own
	// bucket and prediction market.
	ActionNum int
	// PriorRedList is the pool of red priors. Every episode draws one entry
	// per option uniformly at random.
	PriorRedList []float64
	// Ball emission likelihoods conditioned on the hidden bucket colour.
	PrRedBallRedBucket  float64
	PrRedBallBlueBucket float64

	ScoreFunction   domain.ScoreFunction
	DecisionRule    domain.DecisionRule
	PreferredColour domain.BucketColour
	// SelectionPrs weights the belief ranks under the stochastic rule.
	SelectionPrs []float64

	// ExplorerFixedStd is handed to the explorer whenever an agent reports a
	// bare policy mean.
	ExplorerFixedStd float64

	Episodes    int
	DecayRate   float64
	ReportOrder domain.ReportOrder
	// LogEvery emits a progress summary every that many episodes. Zero
	// disables intermediate logging.
	LogEvery int
	// WindowSize bounds the recorder's trailing window. Zero picks a default.
	WindowSize int
}

// Engine runs the episode loop for one set of agents. It is not safe for
// concurrent use; parallel sweeps run one engine per goroutine.
type Engine struct {
	cfg      Config
	agents   []agent.Agent
	explorer *explore.Explorer
	rng      *rand.Rand
	logger   *slog.Logger
	recorder *Recorder
	runID    string
}

// NewEngine validates the run configuration and assembles an engine. The
// explorer may be nil when every agent samples its own reports.
func NewEngine(cfg Config, agents []agent.Agent, explorer *explore.Explorer, rng *rand.Rand, logger *slog.Logger) (*Engine, error) {
	if cfg.ActionNum < 1 {
		return nil, fmt.Errorf("sim: action_num %d, want >= 1", cfg.ActionNum)
	}
	if len(cfg.PriorRedList) == 0 {
		return nil, fmt.Errorf("sim: prior_red_list must not be empty")
	}
	for _, p := range cfg.PriorRedList {
		if math.IsNaN(p) || p < 0 || p > 1 {
			return nil, fmt.Errorf("sim: prior red %v: %w", p, domain.ErrInvalidProbability)
		}
	}
	switch cfg.ScoreFunction {
	case domain.ScoreFunctionLog, domain.ScoreFunctionQuadratic:
	default:
		return nil, fmt.Errorf("sim: score function %d: %w", int(cfg.ScoreFunction), domain.ErrUnknownScoreFunction)
	}
	switch cfg.ReportOrder {
	case domain.ReportOrderFixed, domain.ReportOrderRandom:
	default:
		return nil, fmt.Errorf("sim: report order %d: %w", int(cfg.ReportOrder), domain.ErrUnknownReportOrder)
	}
	if cfg.Episodes < 1 {
		return nil, fmt.Errorf("sim: episodes %d, want >= 1", cfg.Episodes)
	}
	if cfg.DecayRate < 0 {
		return nil, fmt.Errorf("sim: decay_rate %v, want >= 0", cfg.DecayRate)
	}
	if len(agents) == 0 {
		return nil, fmt.Errorf("sim: at least one agent is required")
	}
	if rng == nil {
		return nil, fmt.Errorf("sim: rng is required")
	}
	if logger == nil {
		logger = slog.Default()
	}

	// Probe the market constructor so rule, colour and selection weight
	// mistakes surface here instead of mid-run.
	probe := make([]float64, cfg.ActionNum)
	for i := range probe {
		probe[i] = 0.5
	}
	if _, err := market.NewDecisionMarket(probe, cfg.DecisionRule, cfg.PreferredColour, cfg.SelectionPrs); err != nil {
		return nil, fmt.Errorf("sim: %w", err)
	}

	return &Engine{
		cfg:      cfg,
		agents:   agents,
		explorer: explorer,
		rng:      rng,
		logger:   logger.With(slog.String("component", "sim")),
		recorder: NewRecorder(cfg.WindowSize, cfg.ActionNum),
		runID:    uuid.Must(uuid.NewRandom()).String(),
	}, nil
}

// RunID identifies this engine's run in logs and summaries.
func (e *Engine) RunID() string { return e.runID }

// Summary exposes the recorder's current trailing-window statistics.
func (e *Engine) Summary() Summary { return e.recorder.Summary() }

// Run executes the configured number of episodes. It stops early only when
// the context is cancelled or a round fails in a way learning cannot recover
// from, such as a malformed market report.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.InfoContext(ctx, "training run starting",
		slog.String("run_id", e.runID),
		slog.Int("episodes", e.cfg.Episodes),
		slog.Int("agents", len(e.agents)),
		slog.Int("options", e.cfg.ActionNum),
		slog.String("decision_rule", e.cfg.DecisionRule.String()),
		slog.String("score_function", e.cfg.ScoreFunction.String()),
	)

	for epoch := 0; epoch < e.cfg.Episodes; epoch++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		if err := e.round(ctx, epoch); err != nil {
			return fmt.Errorf("sim: episode %d: %w", epoch, err)
		}
		if e.cfg.LogEvery > 0 && (epoch+1)%e.cfg.LogEvery == 0 {
			s := e.recorder.Summary()
			e.logger.InfoContext(ctx, "training progress",
				slog.String("run_id", e.runID),
				slog.Int("episode", epoch+1),
				slog.Float64("mean_reward", s.MeanReward),
				slog.Float64("mean_report_gap", s.MeanReportGap),
			)
		}
	}

	s := e.recorder.Summary()
	e.logger.InfoContext(ctx, "training run finished",
		slog.String("run_id", e.runID),
		slog.Int("rounds", s.Rounds),
		slog.Float64("mean_reward", s.MeanReward),
		slog.Float64("mean_report_gap", s.MeanReportGap),
	)
	return nil
}

// round plays one episode. The market is resolved after every report so each
// agent is paid for its own belief movement, and under the stochastic rule
// each agent also gets its own selection draw.
func (e *Engine) round(ctx context.Context, epoch int) error {
	priors := make([]float64, e.cfg.ActionNum)
	for i := range priors {
		priors[i] = e.cfg.PriorRedList[e.rng.Intn(len(e.cfg.PriorRedList))]
	}

	buckets, err := bucket.NewMulti(priors, e.cfg.PrRedBallRedBucket, e.cfg.PrRedBallBlueBucket, e.rng)
	if err != nil {
		return err
	}
	dm, err := market.NewDecisionMarket(priors, e.cfg.DecisionRule, e.cfg.PreferredColour, e.cfg.SelectionPrs)
	if err != nil {
		return err
	}
	colours := make([]domain.BucketColour, buckets.Len())
	for i := range colours {
		colours[i] = buckets.Bucket(i).Colour()
	}

	for _, idx := range e.reportOrder() {
		ag := e.agents[idx]

		option, ball := buckets.Signal(e.rng)
		pre := dm.CurrentPredictions()
		rep, err := ag.Report(option, ball, pre, e.rng)
		if err != nil {
			return fmt.Errorf("agent %s: report: %w", ag.Name(), err)
		}

		action := rep.Action
		if action == nil {
			if e.explorer == nil {
				return fmt.Errorf("agent %s: deterministic policy needs an explorer", ag.Name())
			}
			e.explorer.SetParameters(rep.Mean, e.cfg.ExplorerFixedStd)
			action = e.explorer.Report(rep.Signal, e.rng)
		}

		beliefs := make([]float64, len(action))
		for i, h := range action {
			beliefs[i] = bayes.Expit(h)
		}
		if err := dm.Report(beliefs); err != nil {
			return fmt.Errorf("agent %s: market report: %w", ag.Name(), err)
		}

		rewards, selected, err := dm.Resolve(e.cfg.ScoreFunction, colours, e.rng)
		if err != nil {
			return fmt.Errorf("agent %s: resolve: %w", ag.Name(), err)
		}
		row := rewards[len(rewards)-1]

		if err := ag.StoreExperience(&agent.Experience{
			Signal: rep.Signal,
			Action: action,
			Mean:   rep.Mean,
			Std:    rep.Std,
			Reward: row,
			Epoch:  epoch,
		}); err != nil {
			return fmt.Errorf("agent %s: store experience: %w", ag.Name(), err)
		}

		if rep.Action == nil {
			e.explorer.Update(row, rep.Signal)
		}

		// A failed batch step leaves the parameters untouched, so the run
		// carries on and the next rounds refill the batch.
		if err := ag.BatchUpdate(epoch); err != nil {
			e.logger.WarnContext(ctx, "batch update skipped",
				slog.String("run_id", e.runID),
				slog.String("agent", ag.Name()),
				slog.Int("episode", epoch),
				slog.String("error", err.Error()),
			)
		}
		ag.LearningRateDecay(epoch, e.cfg.DecayRate)

		best := bayes.AnalyticalBestReport(option, ball, pre, e.cfg.PrRedBallRedBucket, e.cfg.PrRedBallBlueBucket)
		e.recorder.Record(RoundRecord{
			Epoch:     epoch,
			Agent:     ag.Name(),
			Option:    option,
			Ball:      ball,
			Selected:  selected,
			Reward:    row[selected],
			ReportGap: math.Abs(beliefs[option] - best),
		})
	}
	return nil
}

// reportOrder yields agent indices for one round. Fixed order replays the
// construction order; random order reshuffles every round.
func (e *Engine) reportOrder() []int {
	order := make([]int, len(e.agents))
	for i := range order {
		order[i] = i
	}
	if e.cfg.ReportOrder == domain.ReportOrderRandom {
		e.rng.Shuffle(len(order), func(i, j int) {
			order[i], order[j] = order[j], order[i]
		})
	}
	return order
}
