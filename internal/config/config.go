// Package config defines the top-level configuration for the decision market
// simulator and provides validation helpers.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// Config is the root configuration structure. Fields are populated from a TOML
// file and then optionally overridden by DMSIM_* environment variables.
type Config struct {
	Bucket   BucketConfig   `toml:"bucket"`
	Market   MarketConfig   `toml:"market"`
	Agents   AgentsConfig   `toml:"agents"`
	Explorer ExplorerConfig `toml:"explorer"`
	Training TrainingConfig `toml:"training"`
	Sweep    SweepConfig    `toml:"sweep"`
	Mode     string         `toml:"mode"`
	LogLevel string         `toml:"log_level"`
}

// BucketConfig holds the environment parameters: the pool of red priors and
// the ball emission likelihoods conditioned on the hidden bucket colour.
type BucketConfig struct {
	PriorRedList        []float64 `toml:"prior_red_list"`
	PrRedBallRedBucket  float64   `toml:"pr_red_ball_red_bucket"`
	PrRedBallBlueBucket float64   `toml:"pr_red_ball_blue_bucket"`
}

// MarketConfig holds the decision market parameters.
type MarketConfig struct {
	ActionNum     int    `toml:"action_num"`
	ScoreFunction string `toml:"score_function"`
	DecisionRule  string `toml:"decision_rule"`
	// PreferredColour is the outcome the decision maker wants; option
	// ranking maximises the market belief in it.
	PreferredColour string `toml:"preferred_colour"`
	// PreferredColourPrList weights the belief ranks under the stochastic
	// rule, best rank first.
	PreferredColourPrList []float64 `toml:"preferred_colour_pr_list"`
}

// AgentsConfig holds the learner parameters shared by every agent in a run.
type AgentsConfig struct {
	Count             int     `toml:"count"`
	Kind              string  `toml:"kind"`
	Algorithm         string  `toml:"algorithm"`
	FeatureNum        int     `toml:"feature_num"`
	LearningRateTheta float64 `toml:"learning_rate_theta"`
	LearningRateWv    float64 `toml:"learning_rate_wv"`
	LearningRateWq    float64 `toml:"learning_rate_wq"`
	MemorySize        int     `toml:"memory_size"`
	BatchSize         int     `toml:"batch_size"`
	Beta1             float64 `toml:"beta1"`
	Beta2             float64 `toml:"beta2"`
	// LearningStd switches stochastic agents from FixedStd to a learned,
	// state-dependent std floored at MinStd.
	LearningStd bool    `toml:"learning_std"`
	FixedStd    float64 `toml:"fixed_std"`
	MinStd      float64 `toml:"min_std"`
}

// ExplorerConfig holds the external exploration policy parameters used with
// deterministic agents.
type ExplorerConfig struct {
	Enabled          bool    `toml:"enabled"`
	Learning         bool    `toml:"learning"`
	InitLearningRate float64 `toml:"init_learning_rate"`
	MinStd           float64 `toml:"min_std"`
}

// TrainingConfig holds the episode loop parameters.
type TrainingConfig struct {
	Episodes    int     `toml:"episodes"`
	DecayRate   float64 `toml:"decay_rate"`
	ReportOrder string  `toml:"report_order"`
	Seed        int64   `toml:"seed"`
	LogEvery    int     `toml:"log_every"`
}

// SweepConfig holds the parameters for sweep mode, which runs several
// independently seeded replicas of the configured training run.
type SweepConfig struct {
	Runs     int   `toml:"runs"`
	BaseSeed int64 `toml:"base_seed"`
}

// Defaults returns a Config populated with the reference experiment values.
// These match the values in config.example.toml.
func Defaults() Config {
	return Config{
		Bucket: BucketConfig{
			PriorRedList:        []float64{3.0 / 4.0, 1.0 / 4.0},
			PrRedBallRedBucket:  2.0 / 3.0,
			PrRedBallBlueBucket: 1.0 / 3.0,
		},
		Market: MarketConfig{
			ActionNum:             2,
			ScoreFunction:         "log",
			DecisionRule:          "deterministic",
			PreferredColour:       "red",
			PreferredColourPrList: []float64{0.8, 0.2},
		},
		Agents: AgentsConfig{
			Count:             1,
			Kind:              "deterministic",
			Algorithm:         "regular",
			FeatureNum:        3,
			LearningRateTheta: 1e-4,
			LearningRateWv:    1e-4,
			LearningRateWq:    1e-2,
			MemorySize:        16,
			BatchSize:         16,
			Beta1:             0.9,
			Beta2:             0.9999,
			LearningStd:       false,
			FixedStd:          0.3,
			MinStd:            0.1,
		},
		Explorer: ExplorerConfig{
			Enabled:          true,
			Learning:         false,
			InitLearningRate: 3e-4,
			MinStd:           0.1,
		},
		Training: TrainingConfig{
			Episodes:    100_000,
			DecayRate:   0.0,
			ReportOrder: "fixed",
			Seed:        42,
			LogEvery:    5000,
		},
		Sweep: SweepConfig{
			Runs:     4,
			BaseSeed: 1,
		},
		Mode:     "train",
		LogLevel: "info",
	}
}

// validModes enumerates the accepted values for Config.Mode.
var validModes = map[string]bool{
	"train": true,
	"sweep": true,
}

// validLogLevels enumerates the accepted values for Config.LogLevel.
var validLogLevels = map[string]bool{
	"debug": true,
	"info":  true,
	"warn":  true,
	"error": true,
}

// validKinds enumerates the accepted values for AgentsConfig.Kind.
var validKinds = map[string]bool{
	"stochastic":    true,
	"deterministic": true,
}

// Validate checks Config for obviously invalid or missing values and returns a
// combined error describing every problem found.
func (c *Config) Validate() error {
	var errs []string

	// Mode
	if !validModes[strings.ToLower(c.Mode)] {
		errs = append(errs, fmt.Sprintf("unknown mode %q (valid: train, sweep)", c.Mode))
	}

	// LogLevel
	if !validLogLevels[strings.ToLower(c.LogLevel)] {
		errs = append(errs, fmt.Sprintf("unknown log_level %q (valid: debug, info, warn, error)", c.LogLevel))
	}

	// Bucket
	if len(c.Bucket.PriorRedList) == 0 {
		errs = append(errs, "bucket: prior_red_list must not be empty")
	}
	for i, p := range c.Bucket.PriorRedList {
		if badProbability(p) {
			errs = append(errs, fmt.Sprintf("bucket: prior_red_list[%d] = %v outside [0, 1]", i, p))
		}
	}
	if badProbability(c.Bucket.PrRedBallRedBucket) {
		errs = append(errs, fmt.Sprintf("bucket: pr_red_ball_red_bucket = %v outside [0, 1]", c.Bucket.PrRedBallRedBucket))
	}
	if badProbability(c.Bucket.PrRedBallBlueBucket) {
		errs = append(errs, fmt.Sprintf("bucket: pr_red_ball_blue_bucket = %v outside [0, 1]", c.Bucket.PrRedBallBlueBucket))
	}

	// Market
	if c.Market.ActionNum < 1 {
		errs = append(errs, fmt.Sprintf("market: action_num must be >= 1, got %d", c.Market.ActionNum))
	}
	if _, err := domain.ParseScoreFunction(c.Market.ScoreFunction); err != nil {
		errs = append(errs, "market: "+err.Error()+" (valid: log, quadratic)")
	}
	rule, ruleErr := domain.ParseDecisionRule(c.Market.DecisionRule)
	if ruleErr != nil {
		errs = append(errs, "market: "+ruleErr.Error()+" (valid: deterministic, stochastic)")
	}
	if _, err := domain.ParseBucketColour(c.Market.PreferredColour); err != nil {
		errs = append(errs, "market: "+err.Error()+" (valid: red, blue)")
	}
	if ruleErr == nil && rule == domain.DecisionRuleStochastic && c.Market.ActionNum > 1 {
		if len(c.Market.PreferredColourPrList) != c.Market.ActionNum {
			errs = append(errs, fmt.Sprintf("market: preferred_colour_pr_list needs %d entries under the stochastic rule, got %d",
				c.Market.ActionNum, len(c.Market.PreferredColourPrList)))
		} else {
			sum := 0.0
			for i, p := range c.Market.PreferredColourPrList {
				if badProbability(p) {
					errs = append(errs, fmt.Sprintf("market: preferred_colour_pr_list[%d] = %v outside [0, 1]", i, p))
				}
				sum += p
			}
			if math.Abs(sum-1) > 1e-9 {
				errs = append(errs, fmt.Sprintf("market: preferred_colour_pr_list sums to %v, want 1", sum))
			}
		}
	}

	// Agents
	if c.Agents.Count < 1 {
		errs = append(errs, fmt.Sprintf("agents: count must be >= 1, got %d", c.Agents.Count))
	}
	if !validKinds[c.Agents.Kind] {
		errs = append(errs, fmt.Sprintf("agents: unknown kind %q (valid: stochastic, deterministic)", c.Agents.Kind))
	}
	if _, err := domain.ParseAlgorithm(c.Agents.Algorithm); err != nil {
		errs = append(errs, "agents: "+err.Error()+" (valid: regular, momentum, adam)")
	}
	if c.Agents.FeatureNum != 3 {
		errs = append(errs, fmt.Sprintf("agents: feature_num must be 3 (red count, blue count, prior logit), got %d", c.Agents.FeatureNum))
	}
	if c.Agents.LearningRateTheta < 0 || c.Agents.LearningRateWv < 0 || c.Agents.LearningRateWq < 0 {
		errs = append(errs, "agents: learning rates must not be negative")
	}
	if c.Agents.MemorySize < 1 {
		errs = append(errs, fmt.Sprintf("agents: memory_size must be >= 1, got %d", c.Agents.MemorySize))
	}
	if c.Agents.BatchSize < 1 || c.Agents.BatchSize > c.Agents.MemorySize {
		errs = append(errs, fmt.Sprintf("agents: batch_size must be 1..memory_size, got %d", c.Agents.BatchSize))
	}
	if c.Agents.Algorithm != "regular" {
		if c.Agents.Beta1 < 0 || c.Agents.Beta1 >= 1 {
			errs = append(errs, fmt.Sprintf("agents: beta1 must be in [0, 1) for %s, got %v", c.Agents.Algorithm, c.Agents.Beta1))
		}
		if c.Agents.Beta2 < 0 || c.Agents.Beta2 >= 1 {
			errs = append(errs, fmt.Sprintf("agents: beta2 must be in [0, 1) for %s, got %v", c.Agents.Algorithm, c.Agents.Beta2))
		}
	}
	if c.Agents.Kind == "stochastic" {
		if c.Agents.LearningStd {
			if c.Agents.MinStd <= 0 {
				errs = append(errs, fmt.Sprintf("agents: min_std must be > 0 when learning_std is set, got %v", c.Agents.MinStd))
			}
		} else if c.Agents.FixedStd <= 0 {
			errs = append(errs, fmt.Sprintf("agents: fixed_std must be > 0, got %v", c.Agents.FixedStd))
		}
	}

	// Explorer
	if c.Agents.Kind == "deterministic" {
		if !c.Explorer.Enabled {
			errs = append(errs, "explorer: must be enabled for deterministic agents")
		}
		if c.Agents.FixedStd <= 0 {
			errs = append(errs, fmt.Sprintf("agents: fixed_std must be > 0 for the explorer perturbation, got %v", c.Agents.FixedStd))
		}
	}
	if c.Explorer.Enabled {
		if c.Explorer.InitLearningRate < 0 {
			errs = append(errs, fmt.Sprintf("explorer: init_learning_rate must not be negative, got %v", c.Explorer.InitLearningRate))
		}
		if c.Explorer.Learning && c.Explorer.MinStd <= 0 {
			errs = append(errs, fmt.Sprintf("explorer: min_std must be > 0 when learning is set, got %v", c.Explorer.MinStd))
		}
	}

	// Training
	if c.Training.Episodes < 1 {
		errs = append(errs, fmt.Sprintf("training: episodes must be >= 1, got %d", c.Training.Episodes))
	}
	if c.Training.DecayRate < 0 {
		errs = append(errs, fmt.Sprintf("training: decay_rate must not be negative, got %v", c.Training.DecayRate))
	}
	if _, err := domain.ParseReportOrder(c.Training.ReportOrder); err != nil {
		errs = append(errs, "training: "+err.Error()+" (valid: fixed, random)")
	}
	if c.Training.LogEvery < 0 {
		errs = append(errs, fmt.Sprintf("training: log_every must not be negative, got %d", c.Training.LogEvery))
	}

	// Sweep
	if strings.ToLower(c.Mode) == "sweep" && c.Sweep.Runs < 1 {
		errs = append(errs, fmt.Sprintf("sweep: runs must be >= 1, got %d", c.Sweep.Runs))
	}

	if len(errs) > 0 {
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// badProbability reports whether p cannot serve as a probability.
func badProbability(p float64) bool {
	return math.IsNaN(p) || p < 0 || p > 1
}
