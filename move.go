package pimc

import "math"

// Ensemble tags which worm configuration a move is allowed to operate on;
// the scheduler skips a move whose tag doesn't match the current
// diagonality (spec section 4.2).
type Ensemble int

const (
	Diagonal Ensemble = iota
	OffDiagonal
	Any
)

// Move is the capability interface every update family implements: a
// single attempt() entry point plus enough introspection for a scheduler
// to dispatch and report on it. This replaces the reference engine's deep
// MoveBase/11-subtype hierarchy with one interface and per-variant state
// held by value (spec section 9, "Deep virtual hierarchies -> capability
// interfaces").
type Move interface {
	Name() string
	OperatesOn() Ensemble
	Attempt() bool
	Stats() Stats
}

// Stats reports a move's bulk attempt/accept bookkeeping, optionally
// broken down by bisection level.
type Stats struct {
	Attempted int
	Accepted  int
	// AttemptedByLevel/AcceptedByLevel hold counts indexed by the level a
	// move passes to its counters, one slot for each of 0..B; levels
	// outside that range are not recorded. Every move reports both
	// slices, including moves that always count at level 0.
	AttemptedByLevel []int
	AcceptedByLevel  []int
}

// AcceptRatio returns Accepted/Attempted, or 0 if nothing has been
// attempted yet.
func (s Stats) AcceptRatio() float64 {
	if s.Attempted == 0 {
		return 0
	}
	return float64(s.Accepted) / float64(s.Attempted)
}

// base is the shared scaffolding every move variant composes: the
// borrowed collaborators, per-move counters, and the keep/undo framing
// (spec section 4.2). Each move embeds a base by value; the collaborators
// it references are borrowed, and Path is the sole owner of the state a
// move mutates.
type base struct {
	name       string
	operatesOn Ensemble
	path       *Path
	action     Action
	rand       Rand
	constants  *Constants

	attempted int
	accepted  int

	numLevels        int
	attemptedByLevel []int
	acceptedByLevel  []int
}

func newBase(name string, on Ensemble, path *Path, action Action, r Rand, c *Constants) base {
	levels := c.B + 1
	return base{
		name:             name,
		operatesOn:       on,
		path:             path,
		action:           action,
		rand:             r,
		constants:        c,
		attemptedByLevel: make([]int, levels),
		acceptedByLevel:  make([]int, levels),
	}
}

func (b *base) Name() string          { return b.name }
func (b *base) OperatesOn() Ensemble  { return b.operatesOn }

func (b *base) Stats() Stats {
	return Stats{
		Attempted:        b.attempted,
		Accepted:         b.accepted,
		AttemptedByLevel: append([]int(nil), b.attemptedByLevel...),
		AcceptedByLevel:  append([]int(nil), b.acceptedByLevel...),
	}
}

// countAttempt records an attempt at the given bisection level (0 if the
// move has no notion of level).
func (b *base) countAttempt(level int) {
	b.attempted++
	if level >= 0 && level < len(b.attemptedByLevel) {
		b.attemptedByLevel[level]++
	}
}

// keep records an acceptance and restores the action's shift level to 1,
// the universal post-move discipline from spec section 4.2/9.
func (b *base) keep(level int) {
	b.accepted++
	if level >= 0 && level < len(b.acceptedByLevel) {
		b.acceptedByLevel[level]++
	}
	b.action.SetShift(1)
}

// undoShift restores the action's shift level to 1 on the reject path,
// mirroring keep's discipline (spec: "Shift-level ... restored to 1 on
// both accept and reject paths").
func (b *base) undoShift() {
	b.action.SetShift(1)
}

// metropolisAccept applies the Metropolis test to a log-probability
// difference, computing in log-space and saturating rather than
// overflowing when |logDelta| exceeds LBIG (spec section 7).
func metropolisAccept(r Rand, logDelta float64) bool {
	if logDelta <= -LBIG {
		return true
	}
	if logDelta >= LBIG {
		return false
	}
	return r.Float64() < math.Exp(-logDelta)
}

// metropolisAcceptRatio applies the Metropolis test directly to a
// probability ratio already in linear space (used where the move's
// acceptance is naturally expressed as a normalization times exp(...)
// rather than a bare log-delta).
func metropolisAcceptRatio(r Rand, ratio float64) bool {
	if ratio >= 1.0 {
		return true
	}
	return r.Float64() < ratio
}
