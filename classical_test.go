package pimc

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassicalMCTotalEnergyMatchesDrift(t *testing.T) {
	box := NewBox([]float64{10, 10})
	c := NewConstants(2.0, -1.0, 0.5, 1.0, 1.0, 4, 2, 1, 2)
	r := NewMathRand(21)
	initial := [][]float64{{0, 0}, {1, 1}, {-1, 2}}

	pair := func(sep []float64) float64 {
		r2 := sep[0]*sep[0] + sep[1]*sep[1]
		return 1.0 / (r2 + 0.1)
	}
	cm := NewClassicalMC(box, c, nil, pair, r, initial)

	require.InDelta(t, 0.0, cm.Drift(), 1e-9)
	require.Equal(t, 3, cm.NumParticles())
}

func TestClassicalMCUpdateMoveKeepsParticleCount(t *testing.T) {
	box := NewBox([]float64{10, 10})
	c := NewConstants(2.0, -1.0, 0.5, 1.0, 1.0, 4, 2, 1, 2)
	r := NewMathRand(22)
	initial := [][]float64{{0, 0}, {1, 1}}
	cm := NewClassicalMC(box, c, nil, nil, r, initial)

	for i := 0; i < 50; i++ {
		cm.UpdateMove()
	}
	require.Equal(t, 2, cm.NumParticles())
	require.InDelta(t, 0.0, cm.Drift(), 1e-6)
}

func TestClassicalMCInsertGrowsAndDeleteShrinks(t *testing.T) {
	box := NewBox([]float64{10, 10})
	c := NewConstants(2.0, 100.0, 0.5, 1.0, 1.0, 4, 2, 1, 2)
	r := &fakeRand{floats: []float64{0}, norms: []float64{0}, ints: []int{0}}
	initial := [][]float64{{0, 0}}
	cm := NewClassicalMC(box, c, nil, nil, r, initial)

	require.True(t, cm.InsertMove())
	require.Equal(t, 2, cm.NumParticles())

	require.True(t, cm.DeleteMove())
	require.Equal(t, 1, cm.NumParticles())
}

func TestClassicalMCObserverFiresOnPeriod(t *testing.T) {
	box := NewBox([]float64{10, 10})
	c := NewConstants(2.0, -1.0, 0.5, 1.0, 1.0, 4, 2, 1, 2)
	r := NewMathRand(23)
	initial := [][]float64{{0, 0}, {1, 1}}
	cm := NewClassicalMC(box, c, nil, nil, r, initial)

	fired := 0
	cm.Observer = func(step int, energy, density float64) { fired++ }

	for i := 0; i < 10; i++ {
		cm.Step(5)
	}
	require.Equal(t, 2, fired)
}
