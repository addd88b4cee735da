package pimc

import "math"

// move_worm.go implements the eight sector-changing worm moves (spec
// section 4.4), grounded on move.cpp's OpenMove/CloseMove/InsertMove/
// RemoveMove/AdvanceHeadMove/AdvanceTailMove/RecedeHeadMove/RecedeTailMove.
//
// Every move here assumes Mbar <= NumTimeSlices, so the interior beads a
// gap/length spans never share a slice with the fixed anchor bead(s) of
// that same move; that keeps cached BeadLocator values for head/tail/pivot
// stable across the interior deletions each move performs (see path.go's
// note on RawDelete's compaction relocating a slice's *other* live beads).

// rejectionWalk runs the worm algorithm's per-slice rejection sampling
// scheme (spec section 4.4): repeatedly test min(1, exp(-deltaAction)/PNorm)
// against a fresh uniform deviate, updating a running deltaAction and
// PNorm via successive calls to step, until steps is exhausted or a test
// fails. Returns the accumulated deltaAction, the final PNorm, and whether
// every step passed.
func rejectionWalk(r Rand, steps int, step func(i int) float64) (deltaAction, pNorm float64, ok bool) {
	pNorm = 1.0
	for i := 0; i < steps; i++ {
		deltaAction += step(i)
		p := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
		if r.Float64() >= p {
			return deltaAction, pNorm, false
		}
		pNorm *= p
	}
	return deltaAction, pNorm, true
}

// OpenMove removes a segment of worldline, replacing it with a worm head
// and tail: the diagonal -> off-diagonal sector change.
type OpenMove struct {
	base
	headBead, tailBead BeadLocator
	gapLength          int
}

func NewOpenMove(path *Path, action Action, r Rand, c *Constants) *OpenMove {
	return &OpenMove{base: newBase("open", Diagonal, path, action, r, c)}
}

func (m *OpenMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if !p.Worm.IsDiagonal {
		return false
	}

	gapLength := 2 * (1 + RandInt(r, c.Mbar/2-1))
	numLevels := NumLevels(gapLength)

	sliceH := 2 * RandInt(r, p.NumTimeSlices/2-1)
	if p.NumBeadsAtSlice(sliceH) == 0 {
		return false
	}
	headBead := bead(sliceH, r.Intn(p.NumBeadsAtSlice(sliceH)))
	tailBead := p.Next(headBead, gapLength)

	sep := p.GetSeparation(headBead, tailBead)
	if p.Worm.TooCostly(sep, gapLength, c) {
		return false
	}

	m.headBead, m.tailBead, m.gapLength = headBead, tailBead, gapLength
	m.countAttempt(numLevels)

	norm := c.C * float64(c.Mbar) * float64(p.TotalBeadsOn()) / m.action.Rho0(p, headBead, tailBead, gapLength)
	norm *= c.AttemptProb("close") / c.AttemptProb("open")
	norm *= m.action.EnsembleWeight(-gapLength + 1)
	muShift := float64(gapLength) * c.Mu * c.Tau()

	p.Worm.Special1, p.Worm.Special2 = headBead, tailBead

	if m.action.Local() {
		actionShift := (-math.Log(norm) + muShift) / float64(gapLength)

		beadIndex := headBead
		deltaAction, pNorm, ok := rejectionWalk(r, gapLength, func(i int) float64 {
			factor := 1.0
			if i == 0 {
				factor = 0.5
			}
			d := -(m.action.BareBeadAction(p, beadIndex) - factor*actionShift)
			if i < gapLength-1 {
				beadIndex = p.Next(beadIndex)
			}
			return d
		})
		if !ok {
			m.undo()
			return false
		}
		deltaAction -= m.action.BareBeadAction(p, tailBead) - 0.5*actionShift
		deltaAction -= m.action.ActionCorrection(p, headBead, tailBead)
		if metropolisAcceptRatio(r, math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	oldAction := m.action.SegmentAction(p, headBead, tailBead)
	if metropolisAcceptRatio(r, norm*math.Exp(oldAction-muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *OpenMove) keep(level int) {
	p := m.path
	cur := p.Next(m.headBead)
	for !cur.Eq(m.tailBead) {
		cur = p.DelBeadGetNext(cur)
	}
	// DelBeadGetNext relinks across each deleted bead, leaving head linked
	// straight to tail; cut that link to open the worm.
	p.UnlinkNext(m.headBead)
	p.UnlinkPrev(m.tailBead)
	p.Worm.Update(p, m.headBead, m.tailBead)
	p.Worm.IsDiagonal = false
	p.Worm.Special1, p.Worm.Special2 = XXX, XXX
	m.base.keep(level)
}

func (m *OpenMove) undo() {
	m.path.Worm.Reset()
	m.path.Worm.IsDiagonal = true
	m.undoShift()
}

// CloseMove is the inverse of Open: it fills the worm's gap with new
// interior beads and restores a diagonal configuration.
type CloseMove struct {
	base
	headBead, tailBead BeadLocator
	added              []BeadLocator
}

func NewCloseMove(path *Path, action Action, r Rand, c *Constants) *CloseMove {
	return &CloseMove{base: newBase("close", OffDiagonal, path, action, r, c)}
}

func (m *CloseMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal || p.Worm.Gap > c.Mbar || p.Worm.Gap == 0 {
		return false
	}
	sep := p.GetSeparation(p.Worm.Head, p.Worm.Tail)
	if p.Worm.TooCostly(sep, p.Worm.Gap, c) {
		return false
	}

	numLevels := NumLevels(p.Worm.Gap)
	m.countAttempt(numLevels)

	headBead, tailBead, gap := p.Worm.Head, p.Worm.Tail, p.Worm.Gap
	m.headBead, m.tailBead = headBead, tailBead
	m.added = m.added[:0]

	norm := m.action.Rho0(p, headBead, tailBead, gap) / (c.C * float64(c.Mbar) * (float64(p.TotalBeadsOn()) + float64(gap) - 1))
	norm *= c.AttemptProb("open") / c.AttemptProb("close")
	norm *= m.action.EnsembleWeight(gap - 1)
	muShift := float64(gap) * c.Mu * c.Tau()

	if m.action.Local() {
		actionShift := (math.Log(norm) + muShift) / float64(gap)

		beadIndex := headBead
		deltaAction := m.action.BareBeadAction(p, beadIndex) - 0.5*actionShift
		pNorm := math.Min(math.Exp(-deltaAction), 1.0)
		if r.Float64() >= pNorm {
			m.undo()
			return false
		}
		ok := true
		for k := 0; k < gap-1 && ok; k++ {
			neighbor := p.Pos(beadIndex)
			np := NewStagingPosition(p, r, c.Lam, c.Tau(), neighbor, p.Pos(tailBead), gap, k)
			beadIndex = p.AddNextBead(beadIndex, np)
			m.added = append(m.added, beadIndex)
			deltaAction += m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
		}
		if !ok {
			m.undo()
			return false
		}
		p.Link(beadIndex, tailBead)

		deltaAction += m.action.BareBeadAction(p, tailBead) - 0.5*actionShift
		deltaAction += m.action.ActionCorrection(p, headBead, tailBead)
		if metropolisAcceptRatio(r, math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := headBead
	for k := 0; k < gap-1; k++ {
		np := NewStagingPosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex), p.Pos(tailBead), gap, k)
		beadIndex = p.AddNextBead(beadIndex, np)
		m.added = append(m.added, beadIndex)
	}
	p.Link(beadIndex, tailBead)

	newAction := m.action.SegmentAction(p, headBead, tailBead)
	if metropolisAcceptRatio(r, norm*math.Exp(-newAction+muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *CloseMove) keep(level int) {
	m.path.Worm.Reset()
	m.path.Worm.IsDiagonal = true
	m.base.keep(level)
}

func (m *CloseMove) undo() {
	p := m.path
	for _, b := range m.added {
		p.RawDelete(b)
	}
	m.added = m.added[:0]
	p.UnlinkNext(p.Worm.Head)
	p.UnlinkPrev(p.Worm.Tail)
	p.Worm.IsDiagonal = false
	m.undoShift()
}

// InsertMove grows a brand new worm out of thin air: a diagonal
// configuration gains a worm without shrinking any existing worldline.
type InsertMove struct {
	base
	headBead, tailBead BeadLocator
	added              []BeadLocator
}

func NewInsertMove(path *Path, action Action, r Rand, c *Constants) *InsertMove {
	return &InsertMove{base: newBase("insert", Diagonal, path, action, r, c)}
}

func (m *InsertMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if !p.Worm.IsDiagonal {
		return false
	}

	wormLength := 2 * (1 + RandInt(r, c.Mbar/2-1))
	numLevels := NumLevels(wormLength)
	m.countAttempt(numLevels)

	norm := c.C * float64(c.Mbar) * float64(p.NumTimeSlices) * p.Box.Volume()
	muShift := float64(wormLength) * c.Tau() * c.Mu
	norm *= c.AttemptProb("remove") / c.AttemptProb("insert")
	norm *= m.action.EnsembleWeight(wormLength)

	slice := 2 * RandInt(r, p.NumTimeSlices/2-1)
	tailBead := p.AddBead(slice, p.Box.RandPosition(r))
	m.tailBead = tailBead
	m.added = []BeadLocator{tailBead}
	p.Worm.Special2 = tailBead

	if m.action.Local() {
		actionShift := (math.Log(norm) + muShift) / float64(wormLength)

		beadIndex := tailBead
		deltaAction := m.action.BareBeadAction(p, beadIndex) - 0.5*actionShift
		pNorm := math.Min(math.Exp(-deltaAction), 1.0)
		if r.Float64() >= pNorm {
			m.undo()
			return false
		}
		ok := true
		for k := 1; k < wormLength && ok; k++ {
			np := NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex))
			beadIndex = p.AddNextBead(beadIndex, np)
			m.added = append(m.added, beadIndex)
			deltaAction += m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
		}
		if !ok {
			m.undo()
			return false
		}
		headBead := p.AddNextBead(beadIndex, NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex)))
		m.added = append(m.added, headBead)
		m.headBead = headBead
		p.Worm.Special1 = headBead

		deltaAction += m.action.BareBeadAction(p, headBead) - 0.5*actionShift
		deltaAction += m.action.ActionCorrection(p, tailBead, headBead)
		if metropolisAcceptRatio(r, math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := tailBead
	for k := 0; k < wormLength; k++ {
		beadIndex = p.AddNextBead(beadIndex, NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex)))
		m.added = append(m.added, beadIndex)
	}
	m.headBead = beadIndex
	p.Worm.Special1 = beadIndex

	newAction := m.action.SegmentAction(p, tailBead, beadIndex)
	if metropolisAcceptRatio(r, norm*math.Exp(-newAction+muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *InsertMove) keep(level int) {
	p := m.path
	p.Worm.Update(p, m.headBead, m.tailBead)
	p.Worm.IsDiagonal = false
	p.Worm.Special1, p.Worm.Special2 = XXX, XXX
	m.base.keep(level)
}

func (m *InsertMove) undo() {
	p := m.path
	for i := len(m.added) - 1; i >= 0; i-- {
		p.RawDelete(m.added[i])
	}
	m.added = m.added[:0]
	p.Worm.Reset()
	p.Worm.IsDiagonal = true
	m.undoShift()
}

// RemoveMove is the inverse of Insert: it deletes the entire worm,
// restoring a diagonal configuration.
type RemoveMove struct {
	base
	headBead, tailBead BeadLocator
	removed            []BeadLocator
}

func NewRemoveMove(path *Path, action Action, r Rand, c *Constants) *RemoveMove {
	return &RemoveMove{base: newBase("remove", OffDiagonal, path, action, r, c)}
}

func (m *RemoveMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal || p.Worm.Length > c.Mbar || p.Worm.Length < 1 || p.GetTrueNumParticles() < 1 {
		return false
	}

	numLevels := NumLevels(p.Worm.Length)
	m.countAttempt(numLevels)

	headBead, tailBead, length := p.Worm.Head, p.Worm.Tail, p.Worm.Length
	m.headBead, m.tailBead = headBead, tailBead

	norm := 1.0 / (c.C * float64(c.Mbar) * float64(p.NumTimeSlices) * p.Box.Volume())
	muShift := float64(length) * c.Mu * c.Tau()
	norm *= c.AttemptProb("insert") / c.AttemptProb("remove")
	norm *= m.action.EnsembleWeight(-length)

	if m.action.Local() {
		actionShift := (-math.Log(norm) + muShift) / float64(length)

		beadIndex := headBead
		deltaAction := -(m.action.BareBeadAction(p, beadIndex) - 0.5*actionShift)
		pNorm := math.Min(math.Exp(-deltaAction), 1.0)
		if r.Float64() >= pNorm {
			m.undo()
			return false
		}
		ok := true
		for !beadIndex.Eq(tailBead) && ok {
			beadIndex = p.Prev(beadIndex)
			if beadIndex.Eq(tailBead) {
				break
			}
			deltaAction -= m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
		}
		if !ok {
			m.undo()
			return false
		}
		deltaAction -= m.action.BareBeadAction(p, tailBead) - 0.5*actionShift
		deltaAction -= m.action.ActionCorrection(p, tailBead, headBead)
		if metropolisAcceptRatio(r, math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	oldAction := m.action.SegmentAction(p, tailBead, headBead)
	if metropolisAcceptRatio(r, norm*math.Exp(oldAction-muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *RemoveMove) keep(level int) {
	p := m.path
	m.removed = m.removed[:0]
	cur := m.tailBead
	for {
		next := p.Next(cur)
		p.RawDelete(cur)
		if cur.Eq(m.headBead) {
			break
		}
		cur = next
	}
	p.Worm.Reset()
	p.Worm.IsDiagonal = true
	m.base.keep(level)
}

func (m *RemoveMove) undo() {
	m.path.Worm.IsDiagonal = false
	m.undoShift()
}

// AdvanceHeadMove grows the worm forward in imaginary time by grafting a
// freshly-sampled segment onto the current head, mirroring Insert's growth
// phase but attached to an existing worm rather than creating one.
type AdvanceHeadMove struct {
	base
	oldHead, newHead BeadLocator
	added            []BeadLocator
}

func NewAdvanceHeadMove(path *Path, action Action, r Rand, c *Constants) *AdvanceHeadMove {
	return &AdvanceHeadMove{base: newBase("advance head", OffDiagonal, path, action, r, c)}
}

func (m *AdvanceHeadMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	numAdd := 2 * (1 + RandInt(r, c.Mbar/2-1))
	if p.Worm.Length+numAdd > p.NumTimeSlices {
		return false
	}
	numLevels := NumLevels(numAdd)
	m.countAttempt(numLevels)

	oldHead := p.Worm.Head
	m.oldHead = oldHead
	m.added = m.added[:0]

	muShift := float64(numAdd) * c.Mu * c.Tau()
	norm := c.AttemptProb("recede head") / c.AttemptProb("advance head")
	norm *= m.action.EnsembleWeight(numAdd)

	if m.action.Local() {
		actionShift := muShift / float64(numAdd)
		beadIndex := oldHead
		deltaAction, pNorm := 0.0, 1.0
		ok := true
		for k := 0; k < numAdd; k++ {
			np := NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex))
			beadIndex = p.AddNextBead(beadIndex, np)
			m.added = append(m.added, beadIndex)
			deltaAction += m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
		}
		if !ok {
			m.undo()
			return false
		}
		m.newHead = beadIndex
		if metropolisAcceptRatio(r, norm*math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := oldHead
	for k := 0; k < numAdd; k++ {
		beadIndex = p.AddNextBead(beadIndex, NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex)))
		m.added = append(m.added, beadIndex)
	}
	m.newHead = beadIndex
	newAction := m.action.SegmentAction(p, p.Next(oldHead), beadIndex)
	if metropolisAcceptRatio(r, norm*math.Exp(-newAction+muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *AdvanceHeadMove) keep(level int) {
	p := m.path
	p.Worm.Update(p, m.newHead, p.Worm.Tail)
	m.base.keep(level)
}

func (m *AdvanceHeadMove) undo() {
	p := m.path
	for i := len(m.added) - 1; i >= 0; i-- {
		p.RawDelete(m.added[i])
	}
	m.added = m.added[:0]
	p.UnlinkNext(m.oldHead)
	m.undoShift()
}

// RecedeHeadMove is the inverse of AdvanceHead: it deletes beads back from
// the current head, shortening the worm without touching the tail.
type RecedeHeadMove struct {
	base
	oldHead, newHead BeadLocator
	removed          []BeadLocator
}

func NewRecedeHeadMove(path *Path, action Action, r Rand, c *Constants) *RecedeHeadMove {
	return &RecedeHeadMove{base: newBase("recede head", OffDiagonal, path, action, r, c)}
}

func (m *RecedeHeadMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	numRemove := 2 * (1 + RandInt(r, c.Mbar/2-1))
	if numRemove >= p.Worm.Length {
		return false
	}
	numLevels := NumLevels(numRemove)
	m.countAttempt(numLevels)

	oldHead := p.Worm.Head
	m.oldHead = oldHead
	m.removed = m.removed[:0]

	muShift := float64(numRemove) * c.Mu * c.Tau()
	norm := c.AttemptProb("advance head") / c.AttemptProb("recede head")
	norm *= m.action.EnsembleWeight(-numRemove)

	if m.action.Local() {
		actionShift := muShift / float64(numRemove)
		beadIndex := oldHead
		deltaAction, pNorm := 0.0, 1.0
		ok := true
		for k := 0; k < numRemove; k++ {
			deltaAction -= m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
			m.removed = append(m.removed, beadIndex)
			beadIndex = p.Prev(beadIndex)
		}
		if !ok {
			m.undo()
			return false
		}
		m.newHead = beadIndex
		if metropolisAcceptRatio(r, norm*math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := oldHead
	for k := 0; k < numRemove; k++ {
		m.removed = append(m.removed, beadIndex)
		beadIndex = p.Prev(beadIndex)
	}
	m.newHead = beadIndex
	oldAction := m.action.SegmentAction(p, p.Next(beadIndex), oldHead)
	if metropolisAcceptRatio(r, norm*math.Exp(oldAction-muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *RecedeHeadMove) keep(level int) {
	p := m.path
	for _, b := range m.removed {
		p.RawDelete(b)
	}
	m.removed = m.removed[:0]
	p.UnlinkNext(m.newHead)
	p.Worm.Update(p, m.newHead, p.Worm.Tail)
	m.base.keep(level)
}

func (m *RecedeHeadMove) undo() {
	m.undoShift()
}

// AdvanceTailMove grows the worm backward in imaginary time by grafting a
// freshly-sampled segment onto the current tail, symmetric to AdvanceHead.
type AdvanceTailMove struct {
	base
	oldTail, newTail BeadLocator
	added            []BeadLocator
}

func NewAdvanceTailMove(path *Path, action Action, r Rand, c *Constants) *AdvanceTailMove {
	return &AdvanceTailMove{base: newBase("advance tail", OffDiagonal, path, action, r, c)}
}

func (m *AdvanceTailMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	numAdd := 2 * (1 + RandInt(r, c.Mbar/2-1))
	if p.Worm.Length+numAdd > p.NumTimeSlices {
		return false
	}
	numLevels := NumLevels(numAdd)
	m.countAttempt(numLevels)

	oldTail := p.Worm.Tail
	m.oldTail = oldTail
	m.added = m.added[:0]

	muShift := float64(numAdd) * c.Mu * c.Tau()
	norm := c.AttemptProb("recede tail") / c.AttemptProb("advance tail")
	norm *= m.action.EnsembleWeight(numAdd)

	if m.action.Local() {
		actionShift := muShift / float64(numAdd)
		beadIndex := oldTail
		deltaAction, pNorm := 0.0, 1.0
		ok := true
		for k := 0; k < numAdd; k++ {
			np := NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex))
			beadIndex = p.AddPrevBead(beadIndex, np)
			m.added = append(m.added, beadIndex)
			deltaAction += m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
		}
		if !ok {
			m.undo()
			return false
		}
		m.newTail = beadIndex
		if metropolisAcceptRatio(r, norm*math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := oldTail
	for k := 0; k < numAdd; k++ {
		beadIndex = p.AddPrevBead(beadIndex, NewFreeParticlePosition(p, r, c.Lam, c.Tau(), p.Pos(beadIndex)))
		m.added = append(m.added, beadIndex)
	}
	m.newTail = beadIndex
	newAction := m.action.SegmentAction(p, beadIndex, p.Prev(oldTail))
	if metropolisAcceptRatio(r, norm*math.Exp(-newAction+muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *AdvanceTailMove) keep(level int) {
	p := m.path
	p.Worm.Update(p, p.Worm.Head, m.newTail)
	m.base.keep(level)
}

func (m *AdvanceTailMove) undo() {
	p := m.path
	for i := len(m.added) - 1; i >= 0; i-- {
		p.RawDelete(m.added[i])
	}
	m.added = m.added[:0]
	p.UnlinkPrev(m.oldTail)
	m.undoShift()
}

// RecedeTailMove is the inverse of AdvanceTail: it deletes beads forward
// from the current tail, shortening the worm without touching the head.
type RecedeTailMove struct {
	base
	oldTail, newTail BeadLocator
	removed          []BeadLocator
}

func NewRecedeTailMove(path *Path, action Action, r Rand, c *Constants) *RecedeTailMove {
	return &RecedeTailMove{base: newBase("recede tail", OffDiagonal, path, action, r, c)}
}

func (m *RecedeTailMove) Attempt() bool {
	p, c, r := m.path, m.constants, m.rand
	if p.Worm.IsDiagonal {
		return false
	}
	numRemove := 2 * (1 + RandInt(r, c.Mbar/2-1))
	if numRemove >= p.Worm.Length {
		return false
	}
	numLevels := NumLevels(numRemove)
	m.countAttempt(numLevels)

	oldTail := p.Worm.Tail
	m.oldTail = oldTail
	m.removed = m.removed[:0]

	muShift := float64(numRemove) * c.Mu * c.Tau()
	norm := c.AttemptProb("advance tail") / c.AttemptProb("recede tail")
	norm *= m.action.EnsembleWeight(-numRemove)

	if m.action.Local() {
		actionShift := muShift / float64(numRemove)
		beadIndex := oldTail
		deltaAction, pNorm := 0.0, 1.0
		ok := true
		for k := 0; k < numRemove; k++ {
			deltaAction -= m.action.BareBeadAction(p, beadIndex) - actionShift
			step := math.Min(math.Exp(-deltaAction)/pNorm, 1.0)
			if r.Float64() >= step {
				ok = false
				break
			}
			pNorm *= step
			m.removed = append(m.removed, beadIndex)
			beadIndex = p.Next(beadIndex)
		}
		if !ok {
			m.undo()
			return false
		}
		m.newTail = beadIndex
		if metropolisAcceptRatio(r, norm*math.Exp(-deltaAction)/pNorm) {
			m.keep(numLevels)
			return true
		}
		m.undo()
		return false
	}

	beadIndex := oldTail
	for k := 0; k < numRemove; k++ {
		m.removed = append(m.removed, beadIndex)
		beadIndex = p.Next(beadIndex)
	}
	m.newTail = beadIndex
	oldAction := m.action.SegmentAction(p, oldTail, p.Prev(beadIndex))
	if metropolisAcceptRatio(r, norm*math.Exp(oldAction-muShift)) {
		m.keep(numLevels)
		return true
	}
	m.undo()
	return false
}

func (m *RecedeTailMove) keep(level int) {
	p := m.path
	for _, b := range m.removed {
		p.RawDelete(b)
	}
	m.removed = m.removed[:0]
	p.UnlinkPrev(m.newTail)
	p.Worm.Update(p, p.Worm.Head, m.newTail)
	m.base.keep(level)
}

func (m *RecedeTailMove) undo() {
	m.undoShift()
}
