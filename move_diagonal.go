package pimc

// move_diagonal.go implements the three diagonal-sector moves: CenterOfMass,
// Staging, and Bisection (spec section 4.3), grounded on move.cpp's
// CenterOfMassMove/StagingMove/BisectionMove classes.

// CenterOfMassMove rigidly translates a whole worldline by a single random
// shift vector.
type CenterOfMassMove struct {
	base
	startBead, endBead BeadLocator
	shift              []float64
}

// NewCenterOfMassMove builds a CenterOfMass move; it operates on any
// configuration since it can act on either a closed worldline or the open
// segment of a worm.
func NewCenterOfMassMove(path *Path, action Action, r Rand, c *Constants) *CenterOfMassMove {
	return &CenterOfMassMove{base: newBase("center of mass", Any, path, action, r, c)}
}

// Attempt follows spec's preserved Open Question #1: the start bead is
// always drawn from slice 0 only (the reference engine's
// `startBead[0] = 0, random.randInt(...)` comma is not a typo we introduce
// bugs to reproduce — in Go there's no comma-operator pitfall, so we simply
// always set Slice: 0 directly, matching the observed "slice 0 only"
// behavior).
func (m *CenterOfMassMove) Attempt() bool {
	p := m.path
	if p.NumBeadsAtSlice(0) == 0 {
		return false
	}
	startBead := bead(0, m.rand.Intn(p.NumBeadsAtSlice(0)))

	var endBead BeadLocator
	if p.Worm.Contains(p, startBead) {
		if p.Worm.Length >= p.NumTimeSlices {
			return false
		}
		startBead = p.Worm.Tail
		endBead = p.Worm.Head
	} else {
		endBead = p.Prev(startBead)
		wlLength := 0
		cur := startBead
		for {
			wlLength++
			cur = p.Next(cur)
			if cur.Eq(p.Next(endBead)) {
				break
			}
		}
		if wlLength > p.NumTimeSlices {
			return false
		}
	}
	m.startBead, m.endBead = startBead, endBead

	m.countAttempt(0)

	shift := make([]float64, p.Dim)
	for i := range shift {
		shift[i] = m.constants.Delta * (m.rand.Float64() - 0.5)
	}
	m.shift = shift

	allPeriodic := true
	for _, periodic := range p.Box.Periodic {
		if !periodic {
			allPeriodic = false
			break
		}
	}
	if !allPeriodic {
		cur := startBead
		for {
			pos := addVec(p.Pos(cur), shift)
			for i, periodic := range p.Box.Periodic {
				if !periodic && (pos[i] < -0.5*p.Box.Side[i] || pos[i] >= 0.5*p.Box.Side[i]) {
					return false
				}
			}
			if cur.Eq(endBead) {
				break
			}
			cur = p.Next(cur)
		}
	}

	oldAction := m.action.SegmentAction(p, startBead, endBead)

	cur := startBead
	for {
		pos := addVec(p.Pos(cur), shift)
		p.Box.PutInside(pos)
		p.UpdateBead(cur, pos)
		if cur.Eq(endBead) {
			break
		}
		cur = p.Next(cur)
	}

	newAction := m.action.SegmentAction(p, startBead, endBead)

	if metropolisAccept(m.rand, newAction-oldAction) {
		m.keep(0)
		return true
	}
	m.undo()
	return false
}

func (m *CenterOfMassMove) undo() {
	p := m.path
	cur := m.startBead
	for {
		pos := subVec(p.Pos(cur), m.shift)
		p.Box.PutInside(pos)
		p.UpdateBead(cur, pos)
		if cur.Eq(m.endBead) {
			break
		}
		cur = p.Next(cur)
	}
	m.undoShift()
}

func addVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] + b[i]
	}
	return out
}

func subVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range out {
		out[i] = a[i] - b[i]
	}
	return out
}

// StagingMove replaces the interior Mbar-1 beads of a segment by exact
// kinetic-density-matrix draws, then accepts on the potential-action change
// alone.
type StagingMove struct {
	base
	startBead, endBead BeadLocator
	originalPos        [][]float64
}

// NewStagingMove builds a Staging move.
func NewStagingMove(path *Path, action Action, r Rand, c *Constants) *StagingMove {
	return &StagingMove{
		base:        newBase("staging", Any, path, action, r, c),
		originalPos: make([][]float64, c.Mbar-1),
	}
}

func (m *StagingMove) Attempt() bool {
	p := m.path
	if p.GetTrueNumParticles() == 0 {
		return false
	}

	sliceIdx := m.rand.Intn(p.NumTimeSlices)
	if p.NumBeadsAtSlice(sliceIdx) == 0 {
		return false
	}
	startBead := bead(sliceIdx, m.rand.Intn(p.NumBeadsAtSlice(sliceIdx)))

	mbar := m.constants.Mbar
	cur := startBead
	for k := 0; k < mbar; k++ {
		if !p.BeadOn(cur) || cur.Eq(p.Worm.Head) {
			return false
		}
		cur = p.Next(cur)
	}
	endBead := cur
	m.startBead, m.endBead = startBead, endBead

	m.countAttempt(0)

	oldAction := m.action.SegmentAction(p, startBead, p.Prev(endBead))

	beadIndex := startBead
	for k := 0; k < mbar-1; k++ {
		beadIndex = p.Next(beadIndex)
		m.originalPos[k] = cloneVec(p.Pos(beadIndex))
		neighbor := p.Pos(p.Prev(beadIndex))
		end := p.Pos(endBead)
		newPos := NewStagingPosition(p, m.rand, m.constants.Lam, m.constants.Tau(), neighbor, end, mbar, k)
		p.UpdateBead(beadIndex, newPos)
	}

	newAction := m.action.SegmentAction(p, startBead, p.Prev(endBead))

	if metropolisAccept(m.rand, newAction-oldAction) {
		m.keep(0)
		return true
	}
	m.undo()
	return false
}

func (m *StagingMove) undo() {
	p := m.path
	beadIndex := m.startBead
	for k := 0; k < m.constants.Mbar-1; k++ {
		beadIndex = p.Next(beadIndex)
		p.UpdateBead(beadIndex, m.originalPos[k])
	}
	m.undoShift()
}

func cloneVec(v []float64) []float64 {
	out := make([]float64, len(v))
	copy(out, v)
	return out
}

// BisectionMove implements Ceperley's telescoping bisection algorithm: it
// only ever operates on local actions, generating midpoint beads level by
// level and applying an intermediate Metropolis test at each level so that
// unpromising proposals are rejected before deeper (and more expensive)
// levels are attempted.
type BisectionMove struct {
	base
	startBead, endBead BeadLocator
	numActiveBeads     int
	include            []bool
	originalPos        [][]float64
	newPos             [][]float64
}

// NewBisectionMove builds a Bisection move spanning 2^b slices.
func NewBisectionMove(path *Path, action Action, r Rand, c *Constants) *BisectionMove {
	numActive := IPow(2, c.B) - 1
	return &BisectionMove{
		base:           newBase("bisection", Any, path, action, r, c),
		numActiveBeads: numActive,
		include:        make([]bool, numActive),
		originalPos:    make([][]float64, numActive),
		newPos:         make([][]float64, numActive),
	}
}

func (m *BisectionMove) Attempt() bool {
	p := m.path
	if !m.action.Local() {
		return false
	}

	sliceIdx := m.rand.Intn(p.NumTimeSlices)
	if p.NumBeadsAtSlice(sliceIdx) == 0 {
		return false
	}
	startBead := bead(sliceIdx, m.rand.Intn(p.NumBeadsAtSlice(sliceIdx)))

	cur := startBead
	for k := 0; k < m.numActiveBeads+1; k++ {
		if !p.BeadOn(cur) || cur.Eq(p.Worm.Head) {
			return false
		}
		cur = p.Next(cur)
	}
	endBead := cur
	m.startBead, m.endBead = startBead, endBead

	numLevels := m.constants.B
	m.countAttempt(numLevels)
	for i := range m.include {
		m.include[i] = true
	}

	oldDeltaAction := 0.0
	accepted := false

	for level := numLevels; level > 0; level-- {
		shift := IPow(2, level-1)
		m.action.SetShift(shift)

		oldAction, newAction := 0.0, 0.0
		beadIndex := p.Next(startBead, shift)
		k := 1
		for {
			n := k*shift - 1
			switch {
			case m.include[n]:
				m.originalPos[n] = cloneVec(p.Pos(beadIndex))
				oldAction += m.action.BeadAction(p, beadIndex)

				prevPos := p.Pos(p.Prev(beadIndex, shift))
				nextPos := p.Pos(p.Next(beadIndex, shift))
				np := NewBisectionPosition(p, m.rand, m.constants.Lam, m.constants.Tau(), prevPos, nextPos, shift)
				m.newPos[n] = np
				p.UpdateBead(beadIndex, np)
				newAction += m.action.BeadAction(p, beadIndex)

				m.include[n] = false
			case level == 1:
				newAction += m.action.BeadAction(p, beadIndex)
				p.UpdateBead(beadIndex, m.originalPos[n])
				oldAction += m.action.BeadAction(p, beadIndex)
				p.UpdateBead(beadIndex, m.newPos[n])
			}

			k++
			beadIndex = p.Next(beadIndex, shift)
			if beadIndex.Eq(endBead) {
				break
			}
		}

		deltaAction := newAction - oldAction
		if metropolisAccept(m.rand, deltaAction-oldDeltaAction) {
			if level == 1 {
				m.keep(numLevels)
				accepted = true
			}
		} else {
			m.undo()
			break
		}
		oldDeltaAction = deltaAction
	}

	return accepted
}

func (m *BisectionMove) undo() {
	p := m.path
	beadIndex := m.startBead
	for k := 0; k < m.numActiveBeads; k++ {
		beadIndex = p.Next(beadIndex)
		if !m.include[k] {
			p.UpdateBead(beadIndex, m.originalPos[k])
		}
	}
	m.undoShift()
}
