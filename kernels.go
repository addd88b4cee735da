package pimc

import "math"

// kernels.go implements the kinetic-density-matrix sampling primitives
// (spec section 4.1). Each exactly samples the free-particle propagator
// conditioned on its endpoints, so a Metropolis test built around one of
// these proposals only ever needs to weigh the potential-action
// difference.

// NewFreeParticlePosition draws a position around neighbor exactly
// sampling the free-particle density matrix: each coordinate is Gaussian
// with mean neighbor[i] and stddev sqrt(2*lambda*tau).
func NewFreeParticlePosition(p *Path, r Rand, lam, tau float64, neighbor []float64) []float64 {
	stddev := math.Sqrt(2.0 * lam * tau)
	pos := make([]float64, len(neighbor))
	for i := range pos {
		pos[i] = r.Norm(neighbor[i], stddev)
	}
	p.Box.PutInside(pos)
	return pos
}

// NewStagingPosition draws the position of the k'th interior bead of a
// stage of length stageLength, given the previous bead on the stage
// (neighbor) and the fixed segment endpoint. It exactly samples the
// kinetic action conditioned on both endpoints via the classic staging
// recursion: shrink toward the endpoint by 1/(L-k), then apply a Gaussian
// kick with variance scaled by (L-k-1)/(L-k).
func NewStagingPosition(p *Path, r Rand, lam, tau float64, neighbor, end []float64, stageLength, k int) []float64 {
	f1 := float64(stageLength - k - 1)
	f2 := 1.0 / float64(stageLength-k)
	stddev := math.Sqrt(2.0*lam*tau) * math.Sqrt(f1*f2)

	sep := make([]float64, len(neighbor))
	for i := range sep {
		sep[i] = end[i] - neighbor[i]
	}
	p.Box.PutInBC(sep)

	mid := make([]float64, len(neighbor))
	for i := range mid {
		mid[i] = neighbor[i] + sep[i]*f2
	}

	pos := make([]float64, len(mid))
	for i := range pos {
		pos[i] = r.Norm(mid[i], stddev)
	}
	p.Box.PutInside(pos)
	return pos
}

// NewBisectionPosition draws the midpoint bead between the previous and
// next beads at bisection distance shift, given directly (not via Path
// links, since the bisection loop computes prevPos/nextPos itself),
// exactly sampling the kinetic action at this bisection level: midpoint of
// the minimum-image separation, then a Gaussian kick with stddev
// sqrt(lambda*tau*shift).
func NewBisectionPosition(p *Path, r Rand, lam, tau float64, prevPos, nextPos []float64, shift int) []float64 {
	stddev := math.Sqrt(lam * tau * float64(shift))

	sep := make([]float64, len(prevPos))
	for i := range sep {
		sep[i] = nextPos[i] - prevPos[i]
	}
	p.Box.PutInBC(sep)

	mid := make([]float64, len(prevPos))
	for i := range mid {
		mid[i] = prevPos[i] + 0.5*sep[i]
	}

	pos := make([]float64, len(mid))
	for i := range pos {
		pos[i] = r.Norm(mid[i], stddev)
	}
	p.Box.PutInside(pos)
	return pos
}
