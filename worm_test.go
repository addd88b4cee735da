package pimc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewWormIsDiagonal(t *testing.T) {
	w := NewWorm()
	require.True(t, w.IsDiagonal)
	require.True(t, w.Head.IsNil())
	require.True(t, w.Tail.IsNil())
}

func TestWormUpdateComputesLengthAndGap(t *testing.T) {
	p := newTestPath(t, 10)
	tail := p.AddBead(2, []float64{0, 0})
	mid := p.AddNextBead(tail, []float64{0, 0})
	head := p.AddNextBead(mid, []float64{0, 0})

	p.Worm.Update(p, head, tail)
	require.Equal(t, 3, p.Worm.Length)
	require.Equal(t, 8, p.Worm.Gap)
}

func TestWormContainsWalksTailToHead(t *testing.T) {
	p := newTestPath(t, 10)
	tail := p.AddBead(2, []float64{0, 0})
	mid := p.AddNextBead(tail, []float64{0, 0})
	head := p.AddNextBead(mid, []float64{0, 0})
	p.Worm.Update(p, head, tail)
	p.Worm.IsDiagonal = false

	require.True(t, p.Worm.Contains(p, mid))
	require.True(t, p.Worm.Contains(p, tail))
	require.True(t, p.Worm.Contains(p, head))

	outside := p.AddBead(7, []float64{5, 5})
	require.False(t, p.Worm.Contains(p, outside))
}

func TestWormTooCostlyRejectsFarSeparations(t *testing.T) {
	w := NewWorm()
	c := NewConstants(1.0, 0.0, 0.5, 1.0, 1.0, 8, 3, 16, 2)
	require.False(t, w.TooCostly([]float64{0, 0}, 2, c))
	require.True(t, w.TooCostly([]float64{1000, 1000}, 2, c))
}

func TestModWrapsNegative(t *testing.T) {
	require.Equal(t, 3, mod(-1, 4))
	require.Equal(t, 0, mod(4, 4))
	require.Equal(t, 2, mod(2, 4))
}
