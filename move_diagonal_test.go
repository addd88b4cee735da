package pimc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestConstants(m int) *Constants {
	return NewConstants(1.0, 0.0, 0.5, 1.0, 8.0, 4, 2, m, 2)
}

func zeroAction(box *Box, c *Constants) *LocalAction {
	return NewLocalAction(box, c, nil, nil)
}

func TestCenterOfMassMoveAlwaysAcceptsUnderZeroAction(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	action := zeroAction(p.Box, c)
	r := NewMathRand(42)

	before := make([][]float64, p.NumTimeSlices)
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		before[slice] = cloneVec(p.Pos(bead(slice, 0)))
	}

	move := NewCenterOfMassMove(p, action, r, c)
	require.True(t, move.Attempt())
	require.Equal(t, 1, move.Stats().Accepted)

	for slice := 0; slice < p.NumTimeSlices; slice++ {
		got := p.Pos(bead(slice, 0))
		want := addVec(before[slice], move.shift)
		p.Box.PutInside(want)
		require.InDeltaSlice(t, want, got, 1e-9)
	}
	require.NoError(t, p.CheckInvariants())
}

func TestCenterOfMassMoveRejectsUnderSaturatingPotential(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	harsh := NewLocalAction(p.Box, c, func(pos []float64) float64 { return 1e12 * pos[0] * pos[0] }, nil)
	r := NewMathRand(1)

	before := make([][]float64, p.NumTimeSlices)
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		before[slice] = cloneVec(p.Pos(bead(slice, 0)))
	}

	move := NewCenterOfMassMove(p, harsh, r, c)
	accepted := move.Attempt()
	require.False(t, accepted)

	for slice := 0; slice < p.NumTimeSlices; slice++ {
		require.InDeltaSlice(t, before[slice], p.Pos(bead(slice, 0)), 1e-9)
	}
}

func TestStagingMovePreservesEndpointsAndInvariants(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	c.Mbar = 4
	action := zeroAction(p.Box, c)
	r := NewMathRand(7)

	move := NewStagingMove(p, action, r, c)
	accepted := move.Attempt()
	require.True(t, accepted, "zero action should always accept")
	require.InDeltaSlice(t, []float64{0, 0}, p.Pos(move.startBead), 1e-12)
	require.InDeltaSlice(t, []float64{0, 0}, p.Pos(move.endBead), 1e-12)
	require.NoError(t, p.CheckInvariants())
}

func TestBisectionMoveAcceptsUnderZeroActionAndPreservesInvariants(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	c.B = 2
	action := zeroAction(p.Box, c)
	r := NewMathRand(9)

	move := NewBisectionMove(p, action, r, c)
	accepted := move.Attempt()
	require.True(t, accepted)
	require.NoError(t, p.CheckInvariants())
}

func TestBisectionMoveRejectsUnderSaturatingPotential(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	c.B = 2
	harsh := NewLocalAction(p.Box, c, func(pos []float64) float64 { return 1e12 * pos[0] * pos[0] }, nil)
	r := NewMathRand(11)

	before := make([][]float64, p.NumTimeSlices)
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		before[slice] = cloneVec(p.Pos(bead(slice, 0)))
	}

	move := NewBisectionMove(p, harsh, r, c)
	accepted := move.Attempt()
	require.False(t, accepted)

	for slice := 0; slice < p.NumTimeSlices; slice++ {
		require.InDeltaSlice(t, before[slice], p.Pos(bead(slice, 0)), 1e-9)
	}
	require.NoError(t, p.CheckInvariants())
}
