// Package bucket implements the signal source of the simulation: hidden-state
// buckets that emit noisy ball observations. A bucket's colour is drawn once
// from its prior at construction and is immutable afterwards; balls are drawn
// from the emission distribution conditioned on that colour.
package bucket

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/realwenlongwang/Decision-Market-Based-Multi-Agent-Bandit-System/internal/domain"
)

// Bucket is one decision option's hidden state. All probability parameters
// are validated into [0,1] at construction.
type Bucket struct {
	no                  int
	priorRed            float64
	prRedBallRedBucket  float64
	prRedBallBlueBucket float64
	colour              domain.BucketColour
}

// New constructs a bucket and draws its hidden colour from priorRed using
// rng. The colour never changes afterwards.
func New(no int, priorRed, prRedBallRedBucket, prRedBallBlueBucket float64, rng *rand.Rand) (*Bucket, error) {
	if err := checkProbability("prior_red", priorRed); err != nil {
		return nil, fmt.Errorf("bucket %d: %w", no, err)
	}
	if err := checkProbability("pr_red_ball_red_bucket", prRedBallRedBucket); err != nil {
		return nil, fmt.Errorf("bucket %d: %w", no, err)
	}
	if err := checkProbability("pr_red_ball_blue_bucket", prRedBallBlueBucket); err != nil {
		return nil, fmt.Errorf("bucket %d: %w", no, err)
	}

	colour := domain.BucketColourBlue
	if rng.Float64() < priorRed {
		colour = domain.BucketColourRed
	}
	return &Bucket{
		no:                  no,
		priorRed:            priorRed,
		prRedBallRedBucket:  prRedBallRedBucket,
		prRedBallBlueBucket: prRedBallBlueBucket,
		colour:              colour,
	}, nil
}

// No returns the option index of this bucket.
func (b *Bucket) No() int { return b.no }

// PriorRed returns the prior probability that this bucket is red.
func (b *Bucket) PriorRed() float64 { return b.priorRed }

// Colour returns the realised hidden colour.
func (b *Bucket) Colour() domain.BucketColour { return b.colour }

// Signal draws one ball from the emission distribution conditioned on the
// bucket's realised colour.
func (b *Bucket) Signal(rng *rand.Rand) domain.Ball {
	prRed := b.prRedBallBlueBucket
	if b.colour == domain.BucketColourRed {
		prRed = b.prRedBallRedBucket
	}
	if rng.Float64() < prRed {
		return domain.BallRed
	}
	return domain.BallBlue
}

// MultiBuckets is an ordered collection of buckets, one per decision option.
// All buckets share emission parameters but have independently drawn priors
// and colours. A MultiBuckets lives for exactly one simulated round.
type MultiBuckets struct {
	buckets             []*Bucket
	prRedBallRedBucket  float64
	prRedBallBlueBucket float64
}

// NewMulti constructs one bucket per entry of priors, drawing colours in
// option order (this ordering is part of the reproducible draw sequence).
func NewMulti(priors []float64, prRedBallRedBucket, prRedBallBlueBucket float64, rng *rand.Rand) (*MultiBuckets, error) {
	if len(priors) == 0 {
		return nil, fmt.Errorf("multibuckets: no priors given")
	}
	m := &MultiBuckets{
		buckets:             make([]*Bucket, 0, len(priors)),
		prRedBallRedBucket:  prRedBallRedBucket,
		prRedBallBlueBucket: prRedBallBlueBucket,
	}
	for no, prior := range priors {
		b, err := New(no, prior, prRedBallRedBucket, prRedBallBlueBucket, rng)
		if err != nil {
			return nil, err
		}
		m.buckets = append(m.buckets, b)
	}
	return m, nil
}

// Len returns the number of options.
func (m *MultiBuckets) Len() int { return len(m.buckets) }

// Bucket returns the bucket for option i.
func (m *MultiBuckets) Bucket(i int) *Bucket { return m.buckets[i] }

// Buckets returns the underlying bucket slice in option order. Callers must
// not mutate it.
func (m *MultiBuckets) Buckets() []*Bucket { return m.buckets }

// Signal picks one bucket uniformly at random and draws a ball from it,
// returning the option index together with the observation. This is the
// per-report form used by the sequential round loop.
func (m *MultiBuckets) Signal(rng *rand.Rand) (int, domain.Ball) {
	i := rng.Intn(len(m.buckets))
	return i, m.buckets[i].Signal(rng)
}

// SignalBatch draws size observations across all options at once (each
// observation picks its bucket uniformly) and returns the sparse count
// vector of width 3 per option: [red count, blue count, prior slot]. The
// prior slot is left zero, the uninformative logit; callers feed real prior
// logits through the feature encoder when they have them. This is the
// batched form used for single-shot feature construction.
func (m *MultiBuckets) SignalBatch(rng *rand.Rand, size int) []float64 {
	sig := make([]float64, 3*len(m.buckets))
	for n := 0; n < size; n++ {
		i, ball := m.Signal(rng)
		sig[i*3+int(ball)]++
	}
	return sig
}

func checkProbability(name string, p float64) error {
	if math.IsNaN(p) || p < 0 || p > 1 {
		return fmt.Errorf("%s %v: %w", name, p, domain.ErrInvalidProbability)
	}
	return nil
}
