package pimc

// Worm tracks the single distinguished open worldline permitted in the
// grand canonical worm algorithm. When no worm is present the
// configuration is diagonal: every worldline is a closed ring and
// IsDiagonal is true.
type Worm struct {
	Head BeadLocator
	Tail BeadLocator

	// Length is the number of live beads on the open segment from Tail
	// through Head inclusive.
	Length int

	// Gap is the number of imaginary-time slices separating Head from
	// Tail moving forward through periodic time: (Tail.Slice -
	// Head.Slice) mod M.
	Gap int

	// Special1, Special2 are scratch bead markers, single-writer for the
	// duration of whichever move currently owns them. They must be XXX
	// outside a move's attempt/keep/undo lifetime.
	Special1 BeadLocator
	Special2 BeadLocator

	IsDiagonal bool
}

// NewWorm returns a Worm in the diagonal (no worm present) state.
func NewWorm() *Worm {
	return &Worm{
		Head:       XXX,
		Tail:       XXX,
		Special1:   XXX,
		Special2:   XXX,
		IsDiagonal: true,
	}
}

// Reset clears Head, Tail, the special markers, Length and Gap, leaving
// IsDiagonal untouched; every caller sets IsDiagonal explicitly right
// after.
func (w *Worm) Reset() {
	w.Head = XXX
	w.Tail = XXX
	w.Special1 = XXX
	w.Special2 = XXX
	w.Length = 0
	w.Gap = 0
}

// Update recomputes Length and Gap for a worm spanning from tail through
// head, given the path's slice count, and sets Head/Tail.
func (w *Worm) Update(p *Path, head, tail BeadLocator) {
	w.Head = head
	w.Tail = tail
	w.Length = p.SegmentLength(tail, head)
	w.Gap = mod(tail.Slice-head.Slice, p.NumTimeSlices)
}

// Contains reports whether b lies on the worm's open segment, walking
// forward from Tail to Head.
func (w *Worm) Contains(p *Path, b BeadLocator) bool {
	if w.IsDiagonal || w.Tail.IsNil() {
		return false
	}
	cur := w.Tail
	for {
		if cur.Eq(b) {
			return true
		}
		if cur.Eq(w.Head) {
			return false
		}
		cur = p.Next(cur)
		if cur.IsNil() {
			return false
		}
	}
}

// TooCostly rejects worm proposals whose head-tail separation is far
// beyond what free-particle diffusion over gap slices would produce: a
// pre-filter that avoids wasted full action evaluations (spec Glossary,
// "too costly").
func (w *Worm) TooCostly(sep []float64, gap int, c *Constants) bool {
	if gap == 0 {
		return false
	}
	r2 := 0.0
	for _, s := range sep {
		r2 += s * s
	}
	threshold := c.C * 2.0 * c.Lam * c.Tau() * float64(gap)
	return r2 > threshold
}

func mod(a, m int) int {
	r := a % m
	if r < 0 {
		r += m
	}
	return r
}
