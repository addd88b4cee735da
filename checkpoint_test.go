package pimc

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPathEncodeDecodeRoundTripsDiagonalRing(t *testing.T) {
	p := newTestPath(t, 6)
	buildRing(p, 3)

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	decoded, err := DecodePath(&buf, p.Box)
	require.NoError(t, err)

	require.Equal(t, p.NumTimeSlices, decoded.NumTimeSlices)
	require.Equal(t, p.Dim, decoded.Dim)
	require.NoError(t, decoded.CheckInvariants())

	for slice := 0; slice < p.NumTimeSlices; slice++ {
		require.Equal(t, p.NumBeadsAtSlice(slice), decoded.NumBeadsAtSlice(slice))
		for offset := 0; offset < p.NumBeadsAtSlice(slice); offset++ {
			b := bead(slice, offset)
			require.InDeltaSlice(t, p.Pos(b), decoded.Pos(b), 1e-12)
		}
	}
	require.Equal(t, p.Worm.IsDiagonal, decoded.Worm.IsDiagonal)
}

func TestPathEncodeDecodeRoundTripsOffDiagonalWorm(t *testing.T) {
	p := newTestPath(t, 8)
	buildRing(p, 0)
	c := newTestConstants(p.NumTimeSlices)
	action := zeroAction(p.Box, c)
	r := acceptingRand()

	insert := NewInsertMove(p, action, r, c)
	require.True(t, insert.Attempt())

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	decoded, err := DecodePath(&buf, p.Box)
	require.NoError(t, err)

	require.False(t, decoded.Worm.IsDiagonal)
	require.Equal(t, p.Worm.Length, decoded.Worm.Length)
	require.Equal(t, p.Worm.Gap, decoded.Worm.Gap)
	require.Equal(t, p.Worm.Head, decoded.Worm.Head)
	require.Equal(t, p.Worm.Tail, decoded.Worm.Tail)
	require.NoError(t, decoded.CheckInvariants())
}

func TestDecodePathRejectsDimensionMismatch(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)

	var buf bytes.Buffer
	require.NoError(t, p.Encode(&buf))

	wrongBox := NewBox([]float64{10, 10, 10})
	_, err := DecodePath(&buf, wrongBox)
	require.Error(t, err)
}
