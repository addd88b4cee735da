package pimc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSwapHeadMovePreservesInvariantsWhetherAcceptedOrNot(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 5) // a second worldline near the worm for swap candidates

	c := newTestConstants(p.NumTimeSlices)
	action := zeroAction(p.Box, c)
	r := acceptingRand()

	insert := NewInsertMove(p, action, r, c)
	require.True(t, insert.Attempt())
	beadsBefore := p.TotalBeadsOn()

	lookup := NewGridLookup(100) // one huge cell: every bead is a candidate
	swap := NewSwapHeadMove(p, action, r, c, lookup)

	_ = swap.Attempt() // either outcome is a valid detailed-balance move
	require.NoError(t, p.CheckInvariants())
	require.False(t, p.Worm.IsDiagonal)

	// A swap only ever relinks/restages within the affected segment; it
	// never changes the total live bead count.
	require.Equal(t, beadsBefore, p.TotalBeadsOn())
}

func TestSwapHeadMoveRejectsOnDiagonalPath(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	action := zeroAction(p.Box, c)
	r := acceptingRand()
	lookup := NewGridLookup(100)

	swap := NewSwapHeadMove(p, action, r, c, lookup)
	require.False(t, swap.Attempt())
}

func TestSwapTailMovePreservesInvariantsWhetherAcceptedOrNot(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 5)

	c := newTestConstants(p.NumTimeSlices)
	action := zeroAction(p.Box, c)
	r := acceptingRand()

	insert := NewInsertMove(p, action, r, c)
	require.True(t, insert.Attempt())
	beadsBefore := p.TotalBeadsOn()

	lookup := NewGridLookup(100)
	swap := NewSwapTailMove(p, action, r, c, lookup)

	_ = swap.Attempt()
	require.NoError(t, p.CheckInvariants())
	require.False(t, p.Worm.IsDiagonal)
	require.Equal(t, beadsBefore, p.TotalBeadsOn())
}

// wormOfOne drops a length-one worm (head and tail are the same bead) at
// slice 0, positioned far from the candidate ring buildRing lays down. This isolates the swap segment's math to
// exactly two worldlines with hand-computable positions, unlike the
// InsertMove-seeded tests above where the worm's own placement is random.
func wormOfOne(p *Path, pos []float64) BeadLocator {
	b := p.AddBead(0, pos)
	p.Worm.Update(p, b, b)
	p.Worm.IsDiagonal = false
	return b
}

// TestSwapHeadMoveWeighsTheFullInclusiveSegment pins down the endpoint
// bug SegmentAction's inclusive contract guards against: with ext(x) =
// x*x, mbar = 4 and a candidate ring sitting at x = -10, splicing the
// worm's head (x = 20) onto the ring costs, per slice tau = beta/M =
// 1/8:
//
//	old segment (prevPivot..pivot, inclusive, all on the ring at -10):
//	  5 beads * (-10)^2 = 500
//	new segment (head..pivot, inclusive, staged linearly from 20 to -10):
//	  head 20^2 + interior 12.5^2+5^2+(-2.5)^2 + pivot (-10)^2
//	  = 400 + 187.5 + 100 = 687.5
//	delta = tau*(687.5-500) = 23.4375, so exp(-delta) is negligible and
//	a mid-range draw (0.5) must reject.
//
// Summing only the interior beads (the old bug) instead gives
// delta = tau*(187.5-300) = -14.0625, an automatic accept regardless of
// the draw — the opposite outcome, which is exactly what this test would
// have caught.
//
// Lam is raised so that rho0 across the 30-unit head-pivot distance stays
// finite (at the default it underflows to 0 and the move gives up before
// computing any action); the staged positions above do not depend on Lam
// because every Gaussian kick is zero.
func TestSwapHeadMoveWeighsTheFullInclusiveSegment(t *testing.T) {
	box := NewBox([]float64{100, 100})
	p := NewPath(box, 8)
	buildRing(p, -10)
	headBead := wormOfOne(p, []float64{20, 0})

	c := newTestConstants(p.NumTimeSlices)
	c.Lam = 100
	ext := func(pos []float64) float64 { return pos[0] * pos[0] }
	action := NewLocalAction(box, c, ext, nil)
	lookup := NewGridLookup(100)
	r := &fakeRand{floats: []float64{0, 0, 0.5}, norms: []float64{0}}

	beadsBefore := p.TotalBeadsOn()
	swap := NewSwapHeadMove(p, action, r, c, lookup)
	require.False(t, swap.Attempt())

	require.NoError(t, p.CheckInvariants())
	require.True(t, p.Worm.Head.Eq(headBead))
	require.Equal(t, beadsBefore, p.TotalBeadsOn())
	require.InDeltaSlice(t, []float64{-10, 0}, p.Pos(bead(4, 0)), 1e-9)
}

// TestSwapTailMoveWeighsTheFullInclusiveSegment mirrors the head-side
// test above: the tail bead plays the role of the far endpoint and the
// ring is searched backward instead of forward, but the hand-computed
// inclusive delta is identical by symmetry. Lam is raised for the same
// reason as in the head-side test.
func TestSwapTailMoveWeighsTheFullInclusiveSegment(t *testing.T) {
	box := NewBox([]float64{100, 100})
	p := NewPath(box, 8)
	buildRing(p, -10)
	tailBead := wormOfOne(p, []float64{20, 0})

	c := newTestConstants(p.NumTimeSlices)
	c.Lam = 100
	ext := func(pos []float64) float64 { return pos[0] * pos[0] }
	action := NewLocalAction(box, c, ext, nil)
	lookup := NewGridLookup(100)
	r := &fakeRand{floats: []float64{0, 0, 0.5}, norms: []float64{0}}

	beadsBefore := p.TotalBeadsOn()
	swap := NewSwapTailMove(p, action, r, c, lookup)
	require.False(t, swap.Attempt())

	require.NoError(t, p.CheckInvariants())
	require.True(t, p.Worm.Tail.Eq(tailBead))
	require.Equal(t, beadsBefore, p.TotalBeadsOn())
	require.InDeltaSlice(t, []float64{-10, 0}, p.Pos(bead(4, 0)), 1e-9)
}
