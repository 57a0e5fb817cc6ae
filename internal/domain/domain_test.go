package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBucketColour(t *testing.T) {
	for _, tag := range []string{"red", "blue"} {
		c, err := ParseBucketColour(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, c.String())
	}

	_, err := ParseBucketColour("green")
	require.ErrorIs(t, err, ErrUnknownBucketColour)
	assert.Contains(t, err.Error(), `"green"`)
}

func TestParseScoreFunction(t *testing.T) {
	for _, tag := range []string{"log", "quadratic"} {
		f, err := ParseScoreFunction(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, f.String())
	}

	_, err := ParseScoreFunction("brier")
	require.ErrorIs(t, err, ErrUnknownScoreFunction)
}

func TestParseDecisionRule(t *testing.T) {
	for _, tag := range []string{"stochastic", "deterministic"} {
		r, err := ParseDecisionRule(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, r.String())
	}

	_, err := ParseDecisionRule("greedy")
	require.ErrorIs(t, err, ErrUnknownDecisionRule)
}

func TestParseAlgorithm(t *testing.T) {
	for _, tag := range []string{"regular", "momentum", "adam"} {
		a, err := ParseAlgorithm(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, a.String())
	}

	_, err := ParseAlgorithm("rmsprop")
	require.ErrorIs(t, err, ErrUnknownAlgorithm)
}

func TestParseReportOrder(t *testing.T) {
	for _, tag := range []string{"fixed", "random"} {
		o, err := ParseReportOrder(tag)
		require.NoError(t, err)
		assert.Equal(t, tag, o.String())
	}

	_, err := ParseReportOrder("round_robin")
	require.ErrorIs(t, err, ErrUnknownReportOrder)
}

func TestOutcomeIndices(t *testing.T) {
	// Ball values and realised bucket colours share the outcome indexing used
	// by the scoring rules.
	assert.Equal(t, int(BallRed), BucketColourRed.Index())
	assert.Equal(t, int(BallBlue), BucketColourBlue.Index())
	assert.Equal(t, 0, BucketColourRed.Index())
	assert.Equal(t, 1, BucketColourBlue.Index())
}

func TestStringFallbackForUnknownValues(t *testing.T) {
	assert.Equal(t, "ScoreFunction(99)", ScoreFunction(99).String())
	assert.Equal(t, "DecisionRule(-1)", DecisionRule(-1).String())
}
