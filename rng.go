package pimc

import "math/rand"

// Rand is the random source the move engine consumes. The core never
// constructs entropy itself beyond this interface, matching spec section 6:
// the random number source is an external collaborator.
type Rand interface {
	// Float64 returns a uniform deviate in [0,1).
	Float64() float64
	// Intn returns a uniform integer in [0,n).
	Intn(n int) int
	// Norm returns a Gaussian deviate with the given mean and standard
	// deviation.
	Norm(mean, stddev float64) float64
}

// MathRand wraps math/rand.Rand behind the Rand interface, following the
// teacher's own precedent of a seeded rand.New(rand.NewSource(seed))
// rather than reimplementing a generator.
type MathRand struct {
	r *rand.Rand
}

// NewMathRand builds a MathRand seeded deterministically, suitable for
// reproducible test runs.
func NewMathRand(seed int64) *MathRand {
	return &MathRand{r: rand.New(rand.NewSource(seed))}
}

func (m *MathRand) Float64() float64 {
	return m.r.Float64()
}

// Intn returns a uniform integer in [0,n). Panics on n<=0, mirroring
// math/rand's own contract; callers in this package always guard n>0.
func (m *MathRand) Intn(n int) int {
	return m.r.Intn(n)
}

func (m *MathRand) Norm(mean, stddev float64) float64 {
	return mean + stddev*m.r.NormFloat64()
}

// RandInt draws a uniform integer in the closed interval [0,k], matching
// the original engine's rand_int(k) convention (inclusive upper bound),
// which differs from Rand.Intn's exclusive bound.
func RandInt(r Rand, k int) int {
	return r.Intn(k + 1)
}
