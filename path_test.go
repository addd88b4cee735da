package pimc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestPath(t *testing.T, numSlices int) *Path {
	t.Helper()
	box := NewBox([]float64{10, 10})
	return NewPath(box, numSlices)
}

// buildRing adds a closed worldline of length numSlices, one bead per
// slice, all linked in a cycle, and returns the slice-0 bead.
func buildRing(p *Path, x0 float64) BeadLocator {
	// Every bead sits at the same position: keeps kinetic separations (and
	// hence TooCostly / Rho0 weighting) trivial so move tests can reason
	// about acceptance purely from the action and RNG script, not geometry.
	first := p.AddBead(0, []float64{x0, 0})
	prev := first
	for slice := 1; slice < p.NumTimeSlices; slice++ {
		next := p.AddNextBead(prev, []float64{x0, 0})
		prev = next
	}
	p.setNext(prev, first)
	p.setPrev(first, prev)
	return first
}

func TestAddNextBeadLinksBothWays(t *testing.T) {
	p := newTestPath(t, 4)
	a := p.AddBead(0, []float64{1, 1})
	b := p.AddNextBead(a, []float64{2, 2})

	require.True(t, p.Next(a).Eq(b))
	require.True(t, p.Prev(b).Eq(a))
	require.Equal(t, 1, b.Slice)
}

func TestDelBeadGetNextCompactsAndRelinks(t *testing.T) {
	p := newTestPath(t, 4)
	a := p.AddBead(1, []float64{0, 0})
	b := p.AddBead(1, []float64{1, 1})
	c := p.AddBead(1, []float64{2, 2})
	_, _ = b, c

	// Give a a real chain through adjacent slices so DelBeadGetNext has
	// next/prev to relink.
	prevA := p.AddPrevBead(a, []float64{9, 9})
	nextA := p.AddNextBead(a, []float64{8, 8})

	got := p.DelBeadGetNext(a)
	require.True(t, got.Eq(nextA))
	require.True(t, p.Next(prevA).Eq(nextA))
	require.True(t, p.Prev(nextA).Eq(prevA))

	// c, the last bead on slice 1, is compacted into a's freed slot.
	require.Equal(t, 2, p.NumBeadsAtSlice(1))
	require.Equal(t, []float64{2, 2}, p.Pos(bead(1, 0)))
}

func TestDelBeadCompactionFixesUpWormRefs(t *testing.T) {
	p := newTestPath(t, 4)
	b0 := p.AddBead(2, []float64{0, 0})
	b1 := p.AddBead(2, []float64{1, 1})
	p.Worm.Head = b1 // pretend b1 (the last bead on slice 2) is the worm head

	p.RawDelete(b0) // frees offset 0, compacts b1 into offset 0

	require.True(t, p.Worm.Head.Eq(bead(2, 0)), "worm head should follow the relocated bead")
	require.Equal(t, 1, p.NumBeadsAtSlice(2))
}

func TestLinkUnlinkRoundTrip(t *testing.T) {
	p := newTestPath(t, 4)
	a := p.AddBead(0, []float64{0, 0})
	b := p.AddBead(1, []float64{1, 1})

	p.Link(a, b)
	require.True(t, p.Next(a).Eq(b))
	require.True(t, p.Prev(b).Eq(a))

	p.UnlinkNext(a)
	p.UnlinkPrev(b)
	require.True(t, p.Next(a).IsNil())
	require.True(t, p.Prev(b).IsNil())
}

func TestTotalBeadsOnCountsAcrossSlices(t *testing.T) {
	p := newTestPath(t, 3)
	buildRing(p, 0)
	require.Equal(t, 3, p.TotalBeadsOn())
}

func TestCheckInvariantsPassesOnClosedRing(t *testing.T) {
	p := newTestPath(t, 5)
	buildRing(p, 0)
	require.NoError(t, p.CheckInvariants())
}

func TestGetTrueNumParticlesCountsSliceZero(t *testing.T) {
	p := newTestPath(t, 3)
	buildRing(p, 0)
	buildRing(p, 5)
	require.Equal(t, 2, p.GetTrueNumParticles())
}
