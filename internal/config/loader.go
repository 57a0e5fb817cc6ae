package config

import (
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// Load reads a TOML configuration file at path, merges it on top of the
// built-in defaults, applies DMSIM_* environment variable overrides, and
// returns the final Config. The returned Config has NOT been validated; the
// caller should invoke Config.Validate() after Load.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}

	// Load .env file if present (silently ignore if missing).
	_ = godotenv.Load()

	applyEnvOverrides(&cfg)

	return &cfg, nil
}

// applyEnvOverrides reads well-known DMSIM_* environment variables and
// overwrites the corresponding Config fields when a variable is set (i.e. not
// empty). This lets sweep scripts vary a run without touching the TOML file.
func applyEnvOverrides(cfg *Config) {
	// ── Bucket ──
	setFloatSlice(&cfg.Bucket.PriorRedList, "DMSIM_BUCKET_PRIOR_RED_LIST")
	setFloat64(&cfg.Bucket.PrRedBallRedBucket, "DMSIM_BUCKET_PR_RED_BALL_RED_BUCKET")
	setFloat64(&cfg.Bucket.PrRedBallBlueBucket, "DMSIM_BUCKET_PR_RED_BALL_BLUE_BUCKET")

	// ── Market ──
	setInt(&cfg.Market.ActionNum, "DMSIM_MARKET_ACTION_NUM")
	setStr(&cfg.Market.ScoreFunction, "DMSIM_MARKET_SCORE_FUNCTION")
	setStr(&cfg.Market.DecisionRule, "DMSIM_MARKET_DECISION_RULE")
	setStr(&cfg.Market.PreferredColour, "DMSIM_MARKET_PREFERRED_COLOUR")
	setFloatSlice(&cfg.Market.PreferredColourPrList, "DMSIM_MARKET_PREFERRED_COLOUR_PR_LIST")

	// ── Agents ──
	setInt(&cfg.Agents.Count, "DMSIM_AGENTS_COUNT")
	setStr(&cfg.Agents.Kind, "DMSIM_AGENTS_KIND")
	setStr(&cfg.Agents.Algorithm, "DMSIM_AGENTS_ALGORITHM")
	setInt(&cfg.Agents.FeatureNum, "DMSIM_AGENTS_FEATURE_NUM")
	setFloat64(&cfg.Agents.LearningRateTheta, "DMSIM_AGENTS_LEARNING_RATE_THETA")
	setFloat64(&cfg.Agents.LearningRateWv, "DMSIM_AGENTS_LEARNING_RATE_WV")
	setFloat64(&cfg.Agents.LearningRateWq, "DMSIM_AGENTS_LEARNING_RATE_WQ")
	setInt(&cfg.Agents.MemorySize, "DMSIM_AGENTS_MEMORY_SIZE")
	setInt(&cfg.Agents.BatchSize, "DMSIM_AGENTS_BATCH_SIZE")
	setFloat64(&cfg.Agents.Beta1, "DMSIM_AGENTS_BETA1")
	setFloat64(&cfg.Agents.Beta2, "DMSIM_AGENTS_BETA2")
	setBool(&cfg.Agents.LearningStd, "DMSIM_AGENTS_LEARNING_STD")
	setFloat64(&cfg.Agents.FixedStd, "DMSIM_AGENTS_FIXED_STD")
	setFloat64(&cfg.Agents.MinStd, "DMSIM_AGENTS_MIN_STD")

	// ── Explorer ──
	setBool(&cfg.Explorer.Enabled, "DMSIM_EXPLORER_ENABLED")
	setBool(&cfg.Explorer.Learning, "DMSIM_EXPLORER_LEARNING")
	setFloat64(&cfg.Explorer.InitLearningRate, "DMSIM_EXPLORER_INIT_LEARNING_RATE")
	setFloat64(&cfg.Explorer.MinStd, "DMSIM_EXPLORER_MIN_STD")

	// ── Training ──
	setInt(&cfg.Training.Episodes, "DMSIM_TRAINING_EPISODES")
	setFloat64(&cfg.Training.DecayRate, "DMSIM_TRAINING_DECAY_RATE")
	setStr(&cfg.Training.ReportOrder, "DMSIM_TRAINING_REPORT_ORDER")
	setInt64(&cfg.Training.Seed, "DMSIM_TRAINING_SEED")
	setInt(&cfg.Training.LogEvery, "DMSIM_TRAINING_LOG_EVERY")

	// ── Sweep ──
	setInt(&cfg.Sweep.Runs, "DMSIM_SWEEP_RUNS")
	setInt64(&cfg.Sweep.BaseSeed, "DMSIM_SWEEP_BASE_SEED")

	// ── Top-level ──
	setStr(&cfg.Mode, "DMSIM_MODE")
	setStr(&cfg.LogLevel, "DMSIM_LOG_LEVEL")
}

// ---------------------------------------------------------------------------
// Typed env-var helpers. Each only mutates the target when the environment
// variable is present and non-empty.
// ---------------------------------------------------------------------------

func setStr(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func setInt64(dst *int64, key string) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			*dst = n
		}
	}
}

func setFloat64(dst *float64, key string) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

func setBool(dst *bool, key string) {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}

func setFloatSlice(dst *[]float64, key string) {
	if v := os.Getenv(key); v != "" {
		parts := strings.Split(v, ",")
		parsed := make([]float64, 0, len(parts))
		for _, p := range parts {
			p = strings.TrimSpace(p)
			if p == "" {
				continue
			}
			f, err := strconv.ParseFloat(p, 64)
			if err != nil {
				return
			}
			parsed = append(parsed, f)
		}
		if len(parsed) > 0 {
			*dst = parsed
		}
	}
}
