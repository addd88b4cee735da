package pimc

import (
	"fmt"
	"io"
)

// scheduler.go is the composition root that drives all thirteen moves end to
// end, grounded on cmc.cpp's run()/main() weighted-move-selection loop and
// main.go's plain fmt narration style (spec.md explicitly keeps a scheduler
// out of core; this is the ambient entry point the Move interface is meant
// to be driven by).

// weightedMove pairs a Move with its relative selection weight.
type weightedMove struct {
	move   Move
	weight float64
}

// Scheduler dispatches Monte Carlo steps across a weighted set of moves and
// reports periodic summaries, the same two responsibilities cmc.cpp's
// main() and measure() split between them.
type Scheduler struct {
	rand   Rand
	moves  []weightedMove
	total  float64
	Output io.Writer

	step int
}

// NewScheduler builds an empty scheduler; use AddMove to register moves
// before calling Step.
func NewScheduler(r Rand, output io.Writer) *Scheduler {
	return &Scheduler{rand: r, Output: output}
}

// AddMove registers a move with a relative attempt weight. A move whose
// OperatesOn() ensemble doesn't match the path's current diagonality is
// simply skipped for that step (its Attempt is never called), so its own
// early-return guards never actually run; this saves the useless call.
func (s *Scheduler) AddMove(m Move, weight float64) {
	s.moves = append(s.moves, weightedMove{move: m, weight: weight})
	s.total += weight
}

// Step selects one registered move by weight and calls Attempt, skipping
// moves whose ensemble doesn't match path's current diagonality. Returns
// the selected move, even when it was skipped (nil only if no moves are
// registered or their total weight is not positive), and whether it was
// attempted and accepted.
func (s *Scheduler) Step(path *Path) (Move, bool) {
	s.step++
	if len(s.moves) == 0 || s.total <= 0 {
		return nil, false
	}

	u := s.rand.Float64() * s.total
	running := 0.0
	var chosen Move
	for _, wm := range s.moves {
		running += wm.weight
		if u < running {
			chosen = wm.move
			break
		}
	}
	if chosen == nil {
		chosen = s.moves[len(s.moves)-1].move
	}

	if !ensembleMatches(chosen.OperatesOn(), path.Worm.IsDiagonal) {
		return chosen, false
	}
	return chosen, chosen.Attempt()
}

func ensembleMatches(on Ensemble, isDiagonal bool) bool {
	switch on {
	case Diagonal:
		return isDiagonal
	case OffDiagonal:
		return !isDiagonal
	default:
		return true
	}
}

// Run drives numSteps calls to Step, printing a per-move accept-ratio
// summary to Output every reportEvery steps (0 disables reporting),
// matching cmc.cpp's measure()-on-a-period pattern rather than a
// structured metrics library (see SPEC_FULL.md's ambient logging note).
func (s *Scheduler) Run(path *Path, numSteps, reportEvery int) {
	for i := 0; i < numSteps; i++ {
		s.Step(path)
		if reportEvery > 0 && (i+1)%reportEvery == 0 {
			s.Report(i + 1)
		}
	}
}

// Report prints each registered move's attempted/accepted/accept-ratio
// counters to Output, labeled by step number.
func (s *Scheduler) Report(step int) {
	if s.Output == nil {
		return
	}
	fmt.Fprintf(s.Output, " Step %v\n", step)
	for _, wm := range s.moves {
		stats := wm.move.Stats()
		fmt.Fprintf(s.Output, "   %-16s attempted %8d  accepted %8d  ratio %.4f\n",
			wm.move.Name(), stats.Attempted, stats.Accepted, stats.AcceptRatio())
	}
}
