package pimc

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func meanOf(samples [][]float64, dim int) []float64 {
	mean := make([]float64, dim)
	for _, s := range samples {
		for i := range mean {
			mean[i] += s[i]
		}
	}
	for i := range mean {
		mean[i] /= float64(len(samples))
	}
	return mean
}

func TestNewFreeParticlePositionCentersOnNeighbor(t *testing.T) {
	p := newTestPath(t, 4)
	r := NewMathRand(1)
	neighbor := []float64{1.0, -2.0}

	samples := make([][]float64, 4000)
	for i := range samples {
		samples[i] = NewFreeParticlePosition(p, r, 0.5, 0.1, neighbor)
	}
	mean := meanOf(samples, 2)
	require.InDelta(t, neighbor[0], mean[0], 0.1)
	require.InDelta(t, neighbor[1], mean[1], 0.1)
}

func TestNewStagingPositionInterpolatesTowardEnd(t *testing.T) {
	p := newTestPath(t, 8)
	r := NewMathRand(2)
	neighbor := []float64{0, 0}
	end := []float64{4, 0}

	// k=0 of a 4-stage segment should land close to 1/4 of the way to end.
	samples := make([][]float64, 4000)
	for i := range samples {
		samples[i] = NewStagingPosition(p, r, 0.5, 0.1, neighbor, end, 4, 0)
	}
	mean := meanOf(samples, 2)
	require.InDelta(t, 1.0, mean[0], 0.2)
	require.InDelta(t, 0.0, mean[1], 0.2)
}

func TestNewStagingPositionLastStepLandsHalfwayToEnd(t *testing.T) {
	p := newTestPath(t, 8)
	r := NewMathRand(3)
	neighbor := []float64{0, 0}
	end := []float64{4, 0}

	// k = stageLength-2 is the final interior bead: f2 = 1/(stageLength-k)
	// = 1/2, so the mean sits halfway between neighbor and end, with the
	// variance scaled by f1*f2 = 1/2.
	samples := make([][]float64, 4000)
	for i := range samples {
		samples[i] = NewStagingPosition(p, r, 0.5, 0.1, neighbor, end, 2, 0)
	}
	mean := meanOf(samples, 2)
	require.InDelta(t, 2.0, mean[0], 0.3)
}

func TestNewBisectionPositionCentersOnMidpoint(t *testing.T) {
	p := newTestPath(t, 8)
	r := NewMathRand(4)
	prevPos := []float64{0, 0}
	nextPos := []float64{2, 4}

	samples := make([][]float64, 4000)
	for i := range samples {
		samples[i] = NewBisectionPosition(p, r, 0.5, 0.1, prevPos, nextPos, 2)
	}
	mean := meanOf(samples, 2)
	require.InDelta(t, 1.0, mean[0], 0.2)
	require.InDelta(t, 2.0, mean[1], 0.2)
}

func TestKernelsRespectBoxWrapping(t *testing.T) {
	box := NewBox([]float64{2, 2})
	p := NewPath(box, 4)
	r := NewMathRand(5)
	pos := NewFreeParticlePosition(p, r, 5.0, 5.0, []float64{0, 0})
	for i, x := range pos {
		require.False(t, math.IsNaN(x))
		require.GreaterOrEqual(t, x, -1.0)
		require.Less(t, x, 1.0, "coordinate %d should be wrapped inside the box", i)
	}
}
