package pimc

import "fmt"

// beadSlot is a single live imaginary-time sample: a position plus its
// forward/backward links. The Path owns every bead in a per-slice arena
// indexed by offset; beads never carry pointers to one another, only
// locators, so the arena can be freely compacted on deletion.
type beadSlot struct {
	pos  []float64
	next BeadLocator
	prev BeadLocator
}

// Path is the sole owner of bead storage, links, and worm state (spec
// section 5, Ownership). All "pointer" arithmetic elsewhere in this
// package is index arithmetic against Path.beads.
type Path struct {
	Box           *Box
	NumTimeSlices int
	Dim           int
	Worm          *Worm

	beads [][]beadSlot // beads[slice][offset]
}

// NewPath allocates an empty path with the given slice count over box.
func NewPath(box *Box, numTimeSlices int) *Path {
	beads := make([][]beadSlot, numTimeSlices)
	return &Path{
		Box:           box,
		NumTimeSlices: numTimeSlices,
		Dim:           box.Dim(),
		Worm:          NewWorm(),
		beads:         beads,
	}
}

// NumBeadsAtSlice returns the number of live beads on the given slice.
func (p *Path) NumBeadsAtSlice(slice int) int {
	return len(p.beads[mod(slice, p.NumTimeSlices)])
}

// BeadOn reports whether b addresses a live bead. XXX and out-of-range
// locators are never on.
func (p *Path) BeadOn(b BeadLocator) bool {
	if b.IsNil() {
		return false
	}
	if b.Slice < 0 || b.Slice >= p.NumTimeSlices {
		return false
	}
	row := p.beads[b.Slice]
	return b.Offset >= 0 && b.Offset < len(row)
}

// Pos returns the position of a live bead. Callers must not call this on
// XXX or a stale locator across a deletion.
func (p *Path) Pos(b BeadLocator) []float64 {
	return p.beads[b.Slice][b.Offset].pos
}

// UpdateBead overwrites the position of a live bead in place.
func (p *Path) UpdateBead(b BeadLocator, pos []float64) {
	cp := make([]float64, len(pos))
	copy(cp, pos)
	p.beads[b.Slice][b.Offset].pos = cp
}

// next1 returns the locator that follows b by one slice, or XXX.
func (p *Path) next1(b BeadLocator) BeadLocator {
	return p.beads[b.Slice][b.Offset].next
}

// prev1 returns the locator that precedes b by one slice, or XXX.
func (p *Path) prev1(b BeadLocator) BeadLocator {
	return p.beads[b.Slice][b.Offset].prev
}

// Next returns the bead k slices ahead of b (k defaults to 1), following
// next links and stopping (returning XXX) if the chain breaks, e.g. at a
// worm head.
func (p *Path) Next(b BeadLocator, k ...int) BeadLocator {
	steps := 1
	if len(k) > 0 {
		steps = k[0]
	}
	cur := b
	for i := 0; i < steps; i++ {
		if cur.IsNil() {
			return XXX
		}
		cur = p.next1(cur)
	}
	return cur
}

// Prev returns the bead k slices behind b (k defaults to 1).
func (p *Path) Prev(b BeadLocator, k ...int) BeadLocator {
	steps := 1
	if len(k) > 0 {
		steps = k[0]
	}
	cur := b
	for i := 0; i < steps; i++ {
		if cur.IsNil() {
			return XXX
		}
		cur = p.prev1(cur)
	}
	return cur
}

// setNext sets the outgoing link of b.
func (p *Path) setNext(b, to BeadLocator) {
	p.beads[b.Slice][b.Offset].next = to
}

// setPrev sets the incoming link of b.
func (p *Path) setPrev(b, from BeadLocator) {
	p.beads[b.Slice][b.Offset].prev = from
}

// AddBead creates a new, unlinked bead on the given slice and returns its
// locator.
func (p *Path) AddBead(slice int, pos []float64) BeadLocator {
	slice = mod(slice, p.NumTimeSlices)
	cp := make([]float64, len(pos))
	copy(cp, pos)
	offset := len(p.beads[slice])
	p.beads[slice] = append(p.beads[slice], beadSlot{pos: cp, next: XXX, prev: XXX})
	return bead(slice, offset)
}

// AddNextBead creates a new bead on the slice following prevBead, links
// prevBead -> new, and returns the new bead's locator.
func (p *Path) AddNextBead(prevBead BeadLocator, pos []float64) BeadLocator {
	nextSlice := mod(prevBead.Slice+1, p.NumTimeSlices)
	nb := p.AddBead(nextSlice, pos)
	p.setNext(prevBead, nb)
	p.setPrev(nb, prevBead)
	return nb
}

// AddPrevBead creates a new bead on the slice preceding nextBead, links
// new -> nextBead, and returns the new bead's locator.
func (p *Path) AddPrevBead(nextBead BeadLocator, pos []float64) BeadLocator {
	prevSlice := mod(nextBead.Slice-1, p.NumTimeSlices)
	pb := p.AddBead(prevSlice, pos)
	p.setNext(pb, nextBead)
	p.setPrev(nextBead, pb)
	return pb
}

// delBead removes b from its slice's arena, compacting by moving the last
// bead on the slice into b's slot (if it isn't already last) and fixing up
// its neighbors' links and any worm field to the relocated locator. It
// returns nothing; a relocated bead always lands at b's own locator.
func (p *Path) delBead(b BeadLocator) {
	row := p.beads[b.Slice]
	last := len(row) - 1
	if b.Offset != last {
		moved := row[last]
		row[b.Offset] = moved
		movedLoc := bead(b.Slice, b.Offset)
		if !moved.next.IsNil() {
			p.setPrev(moved.next, movedLoc)
		}
		if !moved.prev.IsNil() {
			p.setNext(moved.prev, movedLoc)
		}
		// worm endpoints and special markers may reference the bead that
		// just moved; the caller (DelBeadGetNext/Prev) is responsible for
		// worm-field updates that survive a delete, but we always fix up
		// the plain link-based references here since they are structural.
		p.fixupLocatorRefs(bead(b.Slice, last), movedLoc)
	}
	p.beads[b.Slice] = row[:last]
}

// fixupLocatorRefs rewrites any worm bookkeeping field that pointed at
// `from` (the bead that has just been relocated during compaction) to
// point at `to` instead.
func (p *Path) fixupLocatorRefs(from, to BeadLocator) {
	w := p.Worm
	if w.Head.Eq(from) {
		w.Head = to
	}
	if w.Tail.Eq(from) {
		w.Tail = to
	}
	if w.Special1.Eq(from) {
		w.Special1 = to
	}
	if w.Special2.Eq(from) {
		w.Special2 = to
	}
}

// DelBeadGetNext deletes b and returns the locator of the bead that
// followed it (XXX if b was a head). Any bead locators to b held by a
// caller are invalidated by this call except the one it returns. b's
// next/prev neighbors always live on adjacent slices, so compacting b's
// own slice during deletion never invalidates the returned locator.
func (p *Path) DelBeadGetNext(b BeadLocator) BeadLocator {
	next := p.next1(b)
	prev := p.prev1(b)
	if !prev.IsNil() {
		p.setNext(prev, next)
	}
	if !next.IsNil() {
		p.setPrev(next, prev)
	}
	p.delBead(b)
	return next
}

// DelBeadGetPrev deletes b and returns the locator of the bead that
// preceded it (XXX if b was a tail).
func (p *Path) DelBeadGetPrev(b BeadLocator) BeadLocator {
	next := p.next1(b)
	prev := p.prev1(b)
	if !prev.IsNil() {
		p.setNext(prev, next)
	}
	if !next.IsNil() {
		p.setPrev(next, prev)
	}
	p.delBead(b)
	return prev
}

// Link sets a->b as adjacent beads (a.next = b, b.prev = a). Used by worm
// moves that reconnect two already-live beads directly, as opposed to
// AddNextBead/AddPrevBead which create a new bead in between.
func (p *Path) Link(a, b BeadLocator) {
	p.setNext(a, b)
	p.setPrev(b, a)
}

// UnlinkNext clears b's outgoing link (sets it to XXX), used when a worm
// move needs to detach a bead from its successor without deleting either.
func (p *Path) UnlinkNext(b BeadLocator) {
	p.setNext(b, XXX)
}

// UnlinkPrev clears b's incoming link (sets it to XXX).
func (p *Path) UnlinkPrev(b BeadLocator) {
	p.setPrev(b, XXX)
}

// RawDelete removes b from the arena via compaction without touching any
// neighbor's links, for callers that will fix up the surrounding chain
// themselves (e.g. undoing a worm reconnection where the neighbors must
// end up pointing at XXX rather than at each other).
func (p *Path) RawDelete(b BeadLocator) {
	p.delBead(b)
}

// TotalBeadsOn returns the number of live beads across every slice.
func (p *Path) TotalBeadsOn() int {
	total := 0
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		total += len(p.beads[slice])
	}
	return total
}

// GetSeparation returns the minimum-image separation vector a-b.
func (p *Path) GetSeparation(a, b BeadLocator) []float64 {
	return p.Box.Separation(p.Pos(a), p.Pos(b))
}

// SegmentLength counts the beads from `from` to `to` inclusive, following
// next links. Returns 0 if from is XXX.
func (p *Path) SegmentLength(from, to BeadLocator) int {
	if from.IsNil() {
		return 0
	}
	n := 1
	cur := from
	for !cur.Eq(to) {
		cur = p.Next(cur)
		if cur.IsNil() {
			return n
		}
		n++
	}
	return n
}

// GetTrueNumParticles returns the number of particles, counted as the
// number of live beads on slice 0: a worldline is counted once per time it
// crosses slice 0, so a permutation cycle of k particles counts k, and a
// worm that does not reach slice 0 is not counted.
func (p *Path) GetTrueNumParticles() int {
	return p.NumBeadsAtSlice(0)
}

// CheckInvariants verifies the link-symmetry, slice-advancement, and
// diagonality invariants from spec section 3/8. Called by tests and by
// cmd/pimc after thermalization; the Scheduler never calls it.
func (p *Path) CheckInvariants() error {
	for slice := 0; slice < p.NumTimeSlices; slice++ {
		for offset, bd := range p.beads[slice] {
			b := bead(slice, offset)
			if !bd.next.IsNil() {
				if got := p.beads[bd.next.Slice][bd.next.Offset].prev; !got.Eq(b) {
					return fmt.Errorf("pimc: link asymmetry at %+v: next.prev = %+v, want %+v", b, got, b)
				}
				wantSlice := mod(slice+1, p.NumTimeSlices)
				if bd.next.Slice != wantSlice {
					return fmt.Errorf("pimc: bead %+v next %+v not on slice %d", b, bd.next, wantSlice)
				}
			} else if !p.Worm.IsDiagonal && !p.Worm.Head.Eq(b) {
				return fmt.Errorf("pimc: bead %+v has nil next but is not the worm head", b)
			}
			if !bd.prev.IsNil() {
				if got := p.beads[bd.prev.Slice][bd.prev.Offset].next; !got.Eq(b) {
					return fmt.Errorf("pimc: link asymmetry at %+v: prev.next = %+v, want %+v", b, got, b)
				}
			} else if !p.Worm.IsDiagonal && !p.Worm.Tail.Eq(b) {
				return fmt.Errorf("pimc: bead %+v has nil prev but is not the worm tail", b)
			}
		}
	}
	if p.Worm.IsDiagonal != (p.Worm.Head.IsNil() && p.Worm.Tail.IsNil()) {
		return fmt.Errorf("pimc: isDiagonal=%v inconsistent with head=%+v tail=%+v", p.Worm.IsDiagonal, p.Worm.Head, p.Worm.Tail)
	}
	return nil
}
