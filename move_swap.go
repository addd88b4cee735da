package pimc

import "sort"

// move_swap.go implements the two permutation-sampling moves, SwapHead and
// SwapTail (spec section 4.5), grounded on move.cpp's SwapMove class and
// common.h's NN_TABLE-driven candidate search (reference implementation:
// GridLookup in lookup.go). A swap hops the worm's dangling end onto a
// nearby worldline chosen with probability proportional to its free-particle
// propagator weight, splicing the crossed segment with a fresh staged draw
// exactly as Close does for its own gap.

// cumulantPick builds a running-sum table over weights and draws an index
// with probability proportional to weight, returning the chosen index, the
// draw's weight, and the table's total. Returns -1 if total is zero.
func cumulantPick(r Rand, weights []float64) (idx int, w, total float64) {
	if len(weights) == 0 {
		return -1, 0, 0
	}
	cumulant := make([]float64, len(weights))
	running := 0.0
	for i, wt := range weights {
		running += wt
		cumulant[i] = running
	}
	total = running
	if total <= 0 {
		return -1, 0, 0
	}
	u := r.Float64() * total
	idx = sort.Search(len(cumulant), func(i int) bool { return cumulant[i] >= u })
	if idx == len(cumulant) {
		idx = len(cumulant) - 1
	}
	return idx, weights[idx], total
}

// SwapHeadMove reassigns which worldline continues from the worm head: it
// picks a nearby bead mbar slices ahead of the head, weighted by the
// free-particle propagator linking them, and splices the head onto that
// worldline while releasing its old continuation as the new head.
type SwapHeadMove struct {
	base
	lookup Lookup

	headBead, pivotBead, prevPivot BeadLocator
	oldInteriorPos                 [][]float64
	newInterior                    []BeadLocator
}

// NewSwapHeadMove builds a SwapHead move using the given Lookup to find
// candidate beads.
func NewSwapHeadMove(path *Path, action Action, r Rand, c *Constants, lookup Lookup) *SwapHeadMove {
	return &SwapHeadMove{base: newBase("swap head", OffDiagonal, path, action, r, c), lookup: lookup}
}

func (m *SwapHeadMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	mbar := c.Mbar
	headBead := p.Worm.Head
	targetSlice := mod(headBead.Slice+mbar, p.NumTimeSlices)

	m.lookup.UpdateFullInteractionList(p, headBead, targetSlice)
	n := m.lookup.FullNumBeads()
	if n == 0 {
		return false
	}
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = m.action.Rho0(p, headBead, m.lookup.FullBeadList(i), mbar)
	}
	idx, _, forwardTotal := cumulantPick(r, weights)
	if idx < 0 {
		return false
	}
	pivotBead := m.lookup.FullBeadList(idx)
	if pivotBead.Eq(headBead) {
		return false
	}
	prevPivot := p.Prev(pivotBead, mbar)
	if prevPivot.Eq(p.Worm.Tail) || !p.BeadOn(prevPivot) {
		return false
	}
	if !m.lookup.GridNeighbors(p, prevPivot, pivotBead) {
		return false
	}

	numLevels := NumLevels(mbar)
	m.countAttempt(numLevels)
	m.headBead, m.pivotBead, m.prevPivot = headBead, pivotBead, prevPivot
	m.oldInteriorPos = m.oldInteriorPos[:0]
	m.newInterior = m.newInterior[:0]

	if !m.lookup.GridShare(p, headBead, prevPivot) {
		m.lookup.UpdateFullInteractionList(p, prevPivot, targetSlice)
	}
	rn := m.lookup.FullNumBeads()
	reverseTotal := 0.0
	for i := 0; i < rn; i++ {
		reverseTotal += m.action.Rho0(p, prevPivot, m.lookup.FullBeadList(i), mbar)
	}
	if reverseTotal <= 0 {
		return false
	}

	if !metropolisAcceptRatio(r, forwardTotal/reverseTotal) {
		return false
	}

	oldAction := m.action.SegmentAction(p, prevPivot, pivotBead)
	cur := p.Next(prevPivot)
	for !cur.Eq(pivotBead) {
		m.oldInteriorPos = append(m.oldInteriorPos, cloneVec(p.Pos(cur)))
		cur = p.Next(cur)
	}
	m.deleteInterior(prevPivot, pivotBead)
	p.UnlinkNext(prevPivot)
	p.UnlinkPrev(pivotBead)

	beadIndex := headBead
	for k := 0; k < mbar-1; k++ {
		np := NewStagingPosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex), p.Pos(pivotBead), mbar, k)
		beadIndex = p.AddNextBead(beadIndex, np)
		m.newInterior = append(m.newInterior, beadIndex)
	}
	p.Link(beadIndex, pivotBead)
	newAction := m.action.SegmentAction(p, headBead, pivotBead)

	if metropolisAccept(r, newAction-oldAction) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *SwapHeadMove) deleteInterior(from, to BeadLocator) {
	p := m.path
	cur := p.Next(from)
	for !cur.Eq(to) {
		next := p.Next(cur)
		p.RawDelete(cur)
		cur = next
	}
}

func (m *SwapHeadMove) keep(level int) {
	p := m.path
	p.Worm.Update(p, m.prevPivot, p.Worm.Tail)
	m.base.keep(level)
}

func (m *SwapHeadMove) undo() {
	p := m.path
	for i := len(m.newInterior) - 1; i >= 0; i-- {
		p.RawDelete(m.newInterior[i])
	}
	m.newInterior = m.newInterior[:0]
	p.UnlinkNext(m.headBead)

	cur := m.prevPivot
	for _, pos := range m.oldInteriorPos {
		cur = p.AddNextBead(cur, pos)
	}
	p.Link(cur, m.pivotBead)
	m.undoShift()
}

// SwapTailMove is the mirror image of SwapHead: it splices the worm's tail
// onto a nearby worldline mbar slices behind it.
type SwapTailMove struct {
	base
	lookup Lookup

	tailBead, pivotBead, nextPivot BeadLocator
	oldInteriorPos                 [][]float64
	newInterior                    []BeadLocator
}

// NewSwapTailMove builds a SwapTail move using the given Lookup.
func NewSwapTailMove(path *Path, action Action, r Rand, c *Constants, lookup Lookup) *SwapTailMove {
	return &SwapTailMove{base: newBase("swap tail", OffDiagonal, path, action, r, c), lookup: lookup}
}

func (m *SwapTailMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	mbar := c.Mbar
	tailBead := p.Worm.Tail
	targetSlice := mod(tailBead.Slice-mbar, p.NumTimeSlices)

	m.lookup.UpdateFullInteractionList(p, tailBead, targetSlice)
	n := m.lookup.FullNumBeads()
	if n == 0 {
		return false
	}
	weights := make([]float64, n)
	for i := 0; i < n; i++ {
		weights[i] = m.action.Rho0(p, tailBead, m.lookup.FullBeadList(i), mbar)
	}
	idx, _, forwardTotal := cumulantPick(r, weights)
	if idx < 0 {
		return false
	}
	pivotBead := m.lookup.FullBeadList(idx)
	if pivotBead.Eq(tailBead) {
		return false
	}
	nextPivot := p.Next(pivotBead, mbar)
	if nextPivot.Eq(p.Worm.Head) || !p.BeadOn(nextPivot) {
		return false
	}
	if !m.lookup.GridNeighbors(p, nextPivot, pivotBead) {
		return false
	}

	numLevels := NumLevels(mbar)
	m.countAttempt(numLevels)
	m.tailBead, m.pivotBead, m.nextPivot = tailBead, pivotBead, nextPivot
	m.oldInteriorPos = m.oldInteriorPos[:0]
	m.newInterior = m.newInterior[:0]

	if !m.lookup.GridShare(p, tailBead, nextPivot) {
		m.lookup.UpdateFullInteractionList(p, nextPivot, targetSlice)
	}
	rn := m.lookup.FullNumBeads()
	reverseTotal := 0.0
	for i := 0; i < rn; i++ {
		reverseTotal += m.action.Rho0(p, nextPivot, m.lookup.FullBeadList(i), mbar)
	}
	if reverseTotal <= 0 {
		return false
	}

	if !metropolisAcceptRatio(r, forwardTotal/reverseTotal) {
		return false
	}

	oldAction := m.action.SegmentAction(p, pivotBead, nextPivot)
	cur := p.Next(pivotBead)
	for !cur.Eq(nextPivot) {
		m.oldInteriorPos = append(m.oldInteriorPos, cloneVec(p.Pos(cur)))
		cur = p.Next(cur)
	}
	m.deleteInterior(pivotBead, nextPivot)
	p.UnlinkNext(pivotBead)
	p.UnlinkPrev(nextPivot)

	beadIndex := pivotBead
	for k := 0; k < mbar-1; k++ {
		np := NewStagingPosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex), p.Pos(tailBead), mbar, k)
		beadIndex = p.AddNextBead(beadIndex, np)
		m.newInterior = append(m.newInterior, beadIndex)
	}
	p.Link(beadIndex, tailBead)
	newAction := m.action.SegmentAction(p, pivotBead, tailBead)

	if metropolisAccept(r, newAction-oldAction) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *SwapTailMove) deleteInterior(from, to BeadLocator) {
	p := m.path
	cur := p.Next(from)
	for !cur.Eq(to) {
		next := p.Next(cur)
		p.RawDelete(cur)
		cur = next
	}
}

func (m *SwapTailMove) keep(level int) {
	p := m.path
	p.Worm.Update(p, p.Worm.Head, m.nextPivot)
	m.base.keep(level)
}

func (m *SwapTailMove) undo() {
	p := m.path
	for i := len(m.newInterior) - 1; i >= 0; i-- {
		p.RawDelete(m.newInterior[i])
	}
	m.newInterior = m.newInterior[:0]
	p.UnlinkPrev(m.tailBead)

	cur := m.pivotBead
	for _, pos := range m.oldInteriorPos {
		cur = p.AddNextBead(cur, pos)
	}
	p.Link(cur, m.nextPivot)
	m.undoShift()
}
