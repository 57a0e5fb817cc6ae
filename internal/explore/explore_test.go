package explore

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{FeatureNum: 0, ActionNum: 2, MinStd: 0.1})
	require.Error(t, err)

	_, err = New(Config{FeatureNum: 3, ActionNum: 0, MinStd: 0.1})
	require.Error(t, err)

	_, err = New(Config{FeatureNum: 3, ActionNum: 2, Learning: true, MinStd: 0})
	require.Error(t, err)

	e, err := New(Config{FeatureNum: 3, ActionNum: 2, Learning: true, MinStd: 0.1})
	require.NoError(t, err)
	assert.Equal(t, defaultInitLearningRate, e.LearningRate())
	assert.Equal(t, []float64{0, 0}, e.Mean())
	assert.Equal(t, []float64{1, 1}, e.Std())
}

func TestReportFloorsLearnedStd(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 2, Learning: true, MinStd: 0.1})
	require.NoError(t, err)

	// Strongly negative weights push exp(signal dot theta) towards zero for
	// option 0; option 1 keeps a weight giving a std above the floor.
	e.thetaStd[0][0] = -5
	e.thetaStd[0][1] = math.Log(0.5)

	rng := rand.New(rand.NewSource(2))
	for i := 0; i < 100; i++ {
		e.Report([]float64{1, 0, 0, 0, 0, 0}, rng)
		std := e.Std()
		assert.Equal(t, 0.1, std[0], "std must never drop below the floor")
		assert.InDelta(t, 0.5, std[1], 1e-12)
	}
}

func TestFixedStdIsNotRecomputed(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 2, Learning: false})
	require.NoError(t, err)

	e.SetParameters([]float64{1.5, -0.5}, 0.3)
	rng := rand.New(rand.NewSource(5))

	const samples = 20000
	sum := make([]float64, 2)
	sumSq := make([]float64, 2)
	for i := 0; i < samples; i++ {
		h := e.Report([]float64{1, 0, 0, 0, 0, 0}, rng)
		for a, v := range h {
			sum[a] += v
			sumSq[a] += v * v
		}
	}
	assert.Equal(t, []float64{0.3, 0.3}, e.Std())

	for a, want := range []float64{1.5, -0.5} {
		mean := sum[a] / samples
		std := math.Sqrt(sumSq[a]/samples - mean*mean)
		assert.InDelta(t, want, mean, 0.01)
		assert.InDelta(t, 0.3, std, 0.01)
	}
}

func TestReportIsReproducibleBySeed(t *testing.T) {
	build := func() *Explorer {
		e, err := New(Config{FeatureNum: 3, ActionNum: 2, Learning: true, MinStd: 0.1})
		require.NoError(t, err)
		return e
	}
	a, b := build(), build()
	rngA := rand.New(rand.NewSource(17))
	rngB := rand.New(rand.NewSource(17))

	signal := []float64{1, 0, 0.4, 0, 1, -0.2}
	for i := 0; i < 50; i++ {
		assert.Equal(t, a.Report(signal, rngA), b.Report(signal, rngB))
	}
}

func TestUpdateMatchesScoreFunctionGradient(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 1, Learning: true, MinStd: 0.1, InitLearningRate: 0.01})
	require.NoError(t, err)

	signal := []float64{1, 0, 0.5}
	rng := rand.New(rand.NewSource(3))
	h := e.Report(signal, rng)

	// Zero weights give std exp(0) = 1 on the first sample.
	require.Equal(t, []float64{1}, e.Std())

	reward := []float64{0.7}
	e.Update(reward, signal)

	coeff := reward[0] * ((h[0]-0)*(h[0]-0)/1 - 1)
	for r, s := range signal {
		assert.InDelta(t, 0.01*s*coeff, e.thetaStd[r][0], 1e-12, "row %d", r)
	}
}

func TestUpdateIsNoOpOutsideLearningMode(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 1, Learning: false})
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(4))
	signal := []float64{1, 1, 1}
	e.Report(signal, rng)
	e.Update([]float64{5}, signal)

	for r := range e.thetaStd {
		assert.Zero(t, e.thetaStd[r][0])
	}
}

func TestUpdateBeforeReportIsNoOp(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 1, Learning: true, MinStd: 0.1})
	require.NoError(t, err)

	e.Update([]float64{1}, []float64{1, 0, 0})
	for r := range e.thetaStd {
		assert.Zero(t, e.thetaStd[r][0])
	}
}

func TestLearningRateDecaySchedule(t *testing.T) {
	e, err := New(Config{FeatureNum: 3, ActionNum: 1, Learning: true, MinStd: 0.1, InitLearningRate: 0.02})
	require.NoError(t, err)

	assert.InDelta(t, 0.02, e.LearningRateDecay(0, 0.001), 1e-15)
	assert.InDelta(t, 0.01, e.LearningRateDecay(1000, 0.001), 1e-15)
	assert.InDelta(t, 0.02, e.LearningRateDecay(123, 0), 1e-15, "zero decay keeps the initial rate")
}
