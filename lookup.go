package pimc

import "math"

// Lookup accelerates the swap moves' search for candidate beads near a
// given center by avoiding an O(N) scan of every bead on a slice. The core
// only depends on this interface (spec section 6); GridLookup below is a
// reference implementation sufficient to exercise SwapHead/SwapTail.
type Lookup interface {
	// UpdateFullInteractionList rebuilds the candidate bead list around
	// center at the given slice.
	UpdateFullInteractionList(p *Path, center BeadLocator, slice int)
	// FullNumBeads returns the number of candidates in the current list.
	FullNumBeads() int
	// FullBeadList returns the i'th candidate bead in the current list.
	FullBeadList(i int) BeadLocator
	// GridNeighbors reports whether a and b occupy neighboring grid cells.
	GridNeighbors(p *Path, a, b BeadLocator) bool
	// GridShare reports whether a and b occupy the same grid cell.
	GridShare(p *Path, a, b BeadLocator) bool
}

// GridLookup partitions the box into uniform cells of side >= cellSize and
// answers neighbor queries against that grid, grounded on common.h's
// description of the reference engine's NN_TABLE nearest-neighbor lookup.
type GridLookup struct {
	cellSize float64
	list     []BeadLocator
}

// NewGridLookup builds a grid lookup with the given minimum cell size.
func NewGridLookup(cellSize float64) *GridLookup {
	return &GridLookup{cellSize: cellSize}
}

func (g *GridLookup) cellOf(p *Path, b BeadLocator) []int {
	pos := p.Pos(b)
	cell := make([]int, len(pos))
	for i, x := range pos {
		cell[i] = int(math.Floor(x / g.cellSize))
	}
	return cell
}

// UpdateFullInteractionList scans every live bead on the given slice and
// keeps those within one grid cell of center's cell (including center's
// own cell), the same neighborhood SwapHead/SwapTail draw candidates from.
func (g *GridLookup) UpdateFullInteractionList(p *Path, center BeadLocator, slice int) {
	slice = mod(slice, p.NumTimeSlices)
	centerCell := g.cellOf(p, center)
	g.list = g.list[:0]
	n := p.NumBeadsAtSlice(slice)
	for offset := 0; offset < n; offset++ {
		cand := bead(slice, offset)
		if cellNeighbors(centerCell, g.cellOf(p, cand)) {
			g.list = append(g.list, cand)
		}
	}
}

func (g *GridLookup) FullNumBeads() int {
	return len(g.list)
}

func (g *GridLookup) FullBeadList(i int) BeadLocator {
	return g.list[i]
}

func (g *GridLookup) GridNeighbors(p *Path, a, b BeadLocator) bool {
	return cellNeighbors(g.cellOf(p, a), g.cellOf(p, b))
}

func (g *GridLookup) GridShare(p *Path, a, b BeadLocator) bool {
	ca, cb := g.cellOf(p, a), g.cellOf(p, b)
	for i := range ca {
		if ca[i] != cb[i] {
			return false
		}
	}
	return true
}

func cellNeighbors(a, b []int) bool {
	for i := range a {
		if abs(a[i]-b[i]) > 1 {
			return false
		}
	}
	return true
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
