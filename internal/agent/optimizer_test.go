package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

func TestRegularStepIsPlainAscent(t *testing.T) {
	o, err := newOptimizer(domain.AlgorithmRegular, 0, 0, 2, 1)
	require.NoError(t, err)

	w := zerosMat(2, 1)
	g := [][]float64{{0.5}, {-0.25}}
	o.Step(w, g, 0.1)

	assert.InDelta(t, 0.05, w[0][0], 1e-15)
	assert.InDelta(t, -0.025, w[1][0], 1e-15)
}

func TestMomentumStepAveragesGradients(t *testing.T) {
	o, err := newOptimizer(domain.AlgorithmMomentum, 0.9, 0, 1, 1)
	require.NoError(t, err)

	w := zerosMat(1, 1)
	g := [][]float64{{1}}

	o.Step(w, g, 0.1)
	assert.InDelta(t, 0.1*0.1, w[0][0], 1e-15, "first step uses (1-beta1)*g")

	o.Step(w, g, 0.1)
	// m = 0.9*0.1 + 0.1 = 0.19
	assert.InDelta(t, 0.01+0.1*0.19, w[0][0], 1e-15)
}

func TestAdamFirstStepIsBiasCorrected(t *testing.T) {
	o, err := newOptimizer(domain.AlgorithmAdam, 0.9, 0.9999, 2, 1)
	require.NoError(t, err)

	w := zerosMat(2, 1)
	g := [][]float64{{0.5}, {-0.002}}
	o.Step(w, g, 0.01)

	// With full bias correction the first step is lr * g/(|g|+eps),
	// i.e. close to lr in magnitude regardless of gradient scale.
	assert.InDelta(t, 0.01, w[0][0], 1e-6)
	assert.InDelta(t, -0.01, w[1][0], 1e-6)
}

func TestOptimizerRejectsUnknownAlgorithm(t *testing.T) {
	_, err := newOptimizer(domain.Algorithm(77), 0.9, 0.9999, 1, 1)
	require.ErrorIs(t, err, domain.ErrUnknownAlgorithm)
}
