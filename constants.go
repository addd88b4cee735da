package pimc

import "math"

// LBIG is the log of a "big" number: action differences beyond this are
// numerically saturated rather than exponentiated, matching common.h's
// LBIG constant from the reference PIMC engine.
const LBIG = 69.07755279

// EPS is a small tolerance used for log2-boundary rounding (gap-length and
// bisection-level computations) and for invariant comparisons.
const EPS = 1.0e-7

// Constants bundles the simulation parameters the move engine treats as
// external, read-only configuration: temperature, imaginary-time
// discretization, and per-move tuning knobs. It is built directly (not
// parsed from flags or files), since configuration parsing is out of
// scope for the core.
type Constants struct {
	T    float64 // temperature
	Beta float64 // inverse temperature, 1/T
	Mu   float64 // chemical potential
	Lam  float64 // lambda = hbar^2 / 2m
	Delta float64 // center-of-mass move step size
	C    float64 // worm open/close tuning constant
	Mbar int     // maximum slices a single worm move spans
	B    int     // number of bisection levels (stage length 2^B)
	M    int     // number of imaginary-time slices
	D    int     // number of spatial dimensions

	// attemptProb holds the relative attempt probability of each named
	// move, consulted by complementary move pairs (open/close,
	// insert/remove, advance/recede) to correct detailed balance for
	// asymmetric proposal frequencies. Moves absent from this map are
	// treated as having attempt probability 1.
	attemptProb map[string]float64
}

// NewConstants builds a Constants value with tau derived from beta and M,
// and a default (uniform) attempt-probability table.
func NewConstants(t, mu, lam, delta, c float64, mbar, b, m, d int) *Constants {
	return &Constants{
		T:     t,
		Beta:  1.0 / t,
		Mu:    mu,
		Lam:   lam,
		Delta: delta,
		C:     c,
		Mbar:  mbar,
		B:     b,
		M:     m,
		D:     d,
		attemptProb: make(map[string]float64),
	}
}

// Tau returns the imaginary-time step beta/M.
func (c *Constants) Tau() float64 {
	return c.Beta / float64(c.M)
}

// SetAttemptProb records the relative attempt probability for a named move.
func (c *Constants) SetAttemptProb(name string, p float64) {
	c.attemptProb[name] = p
}

// AttemptProb returns the relative attempt probability of a named move,
// defaulting to 1 when unset.
func (c *Constants) AttemptProb(name string) float64 {
	if p, ok := c.attemptProb[name]; ok {
		return p
	}
	return 1.0
}

// DBWavelength returns the thermal de Broglie wavelength, Lambda =
// sqrt(4*pi*lambda/T), used by the classical grand-canonical fugacity.
func (c *Constants) DBWavelength() float64 {
	return math.Sqrt(4.0 * math.Pi * c.Lam / c.T)
}

// NumLevels returns the number of bisection-style levels needed to bisect
// a stage of the given length down to single links: ceil(log2(length)).
func NumLevels(length int) int {
	return int(math.Ceil(math.Log(float64(length))/math.Log(2.0) - EPS))
}

// IPow computes base raised to a non-negative integer power using
// floating-point exponentiation and rounding, matching the reference
// engine's ipow helper.
func IPow(base, power int) int {
	return int(math.Floor(math.Pow(float64(base), float64(power)) + EPS))
}
