package bucket

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

func TestNewValidatesProbabilities(t *testing.T) {
	rng := rand.New(rand.NewSource(1))

	cases := []struct {
		name             string
		prior, prRR, prRB float64
	}{
		{"prior negative", -0.1, 0.5, 0.5},
		{"prior above one", 1.1, 0.5, 0.5},
		{"red emission negative", 0.5, -0.2, 0.5},
		{"blue emission above one", 0.5, 0.5, 1.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := New(0, tc.prior, tc.prRR, tc.prRB, rng)
			require.ErrorIs(t, err, domain.ErrInvalidProbability)
		})
	}

	b, err := New(3, 0.5, 1, 0, rng)
	require.NoError(t, err)
	assert.Equal(t, 3, b.No())
	assert.Equal(t, 0.5, b.PriorRed())
}

func TestDegeneratePriorsFixColour(t *testing.T) {
	rng := rand.New(rand.NewSource(7))

	red, err := New(0, 1, 0.5, 0.5, rng)
	require.NoError(t, err)
	assert.Equal(t, domain.BucketColourRed, red.Colour())

	blue, err := New(1, 0, 0.5, 0.5, rng)
	require.NoError(t, err)
	assert.Equal(t, domain.BucketColourBlue, blue.Colour())
}

func TestSignalFollowsEmissionDistribution(t *testing.T) {
	rng := rand.New(rand.NewSource(11))

	// Deterministic emissions leave no room for sampling noise.
	red, err := New(0, 1, 1, 0, rng)
	require.NoError(t, err)
	blue, err := New(1, 0, 1, 0, rng)
	require.NoError(t, err)
	for i := 0; i < 50; i++ {
		assert.Equal(t, domain.BallRed, red.Signal(rng))
		assert.Equal(t, domain.BallBlue, blue.Signal(rng))
	}

	// Noisy emissions from a red bucket should land near 2/3 red with a
	// fixed seed.
	noisy, err := New(2, 1, 2.0/3.0, 1.0/3.0, rng)
	require.NoError(t, err)
	reds := 0
	const draws = 6000
	for i := 0; i < draws; i++ {
		if noisy.Signal(rng) == domain.BallRed {
			reds++
		}
	}
	assert.InDelta(t, 2.0/3.0, float64(reds)/draws, 0.03)
}

func TestMultiBucketsReproducibleBySeed(t *testing.T) {
	priors := []float64{0.2, 0.5, 0.8}

	build := func(seed int64) (*MultiBuckets, *rand.Rand) {
		rng := rand.New(rand.NewSource(seed))
		m, err := NewMulti(priors, 2.0/3.0, 1.0/3.0, rng)
		require.NoError(t, err)
		return m, rng
	}

	a, rngA := build(42)
	b, rngB := build(42)

	require.Equal(t, len(priors), a.Len())
	for i := 0; i < a.Len(); i++ {
		assert.Equal(t, i, a.Bucket(i).No())
		assert.Equal(t, a.Bucket(i).Colour(), b.Bucket(i).Colour())
	}
	for i := 0; i < 200; i++ {
		noA, ballA := a.Signal(rngA)
		noB, ballB := b.Signal(rngB)
		assert.Equal(t, noA, noB)
		assert.Equal(t, ballA, ballB)
	}
}

func TestNewMultiRejectsEmptyPriors(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	_, err := NewMulti(nil, 0.5, 0.5, rng)
	require.Error(t, err)
}

func TestSignalBatchCountsObservations(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	m, err := NewMulti([]float64{0.5, 0.5, 0.5, 0.5}, 2.0/3.0, 1.0/3.0, rng)
	require.NoError(t, err)

	const size = 120
	sig := m.SignalBatch(rng, size)
	require.Len(t, sig, 3*m.Len())

	total := 0.0
	for i := 0; i < m.Len(); i++ {
		total += sig[i*3] + sig[i*3+1]
		assert.Zero(t, sig[i*3+2], "prior slot must stay empty")
	}
	assert.Equal(t, float64(size), total)
}
