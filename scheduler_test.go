package pimc

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

type countingMove struct {
	name       string
	operatesOn Ensemble
	calls      int
	result     bool
}

func (m *countingMove) Name() string         { return m.name }
func (m *countingMove) OperatesOn() Ensemble { return m.operatesOn }
func (m *countingMove) Attempt() bool {
	m.calls++
	return m.result
}
func (m *countingMove) Stats() Stats {
	return Stats{Attempted: m.calls, Accepted: 0}
}

func TestSchedulerSkipsMoveWhoseEnsembleDoesNotMatch(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0) // diagonal

	offDiag := &countingMove{name: "off", operatesOn: OffDiagonal, result: true}
	s := NewScheduler(&fakeRand{floats: []float64{0}}, nil)
	s.AddMove(offDiag, 1.0)

	move, accepted := s.Step(p)
	require.Same(t, Move(offDiag), move)
	require.False(t, accepted)
	require.Equal(t, 0, offDiag.calls, "attempt should never be called for a mismatched ensemble")
}

func TestSchedulerDispatchesToMatchingMove(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)

	diag := &countingMove{name: "diag", operatesOn: Diagonal, result: true}
	s := NewScheduler(&fakeRand{floats: []float64{0}}, nil)
	s.AddMove(diag, 1.0)

	_, accepted := s.Step(p)
	require.True(t, accepted)
	require.Equal(t, 1, diag.calls)
}

func TestSchedulerReportWritesPerMoveStats(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)

	var out bytes.Buffer
	diag := &countingMove{name: "diag", operatesOn: Any, result: true}
	s := NewScheduler(&fakeRand{floats: []float64{0}}, &out)
	s.AddMove(diag, 1.0)

	s.Run(p, 3, 3)

	report := out.String()
	require.True(t, strings.Contains(report, "diag"))
	require.True(t, strings.Contains(report, "attempted"))
}

func TestSchedulerWeightedSelectionRespectsWeights(t *testing.T) {
	p := newTestPath(t, 4)
	buildRing(p, 0)

	heavy := &countingMove{name: "heavy", operatesOn: Any, result: true}
	light := &countingMove{name: "light", operatesOn: Any, result: true}

	// A draw just above 0 always lands in the first (heaviest) bucket.
	s := NewScheduler(&fakeRand{floats: []float64{0.01}}, nil)
	s.AddMove(heavy, 100.0)
	s.AddMove(light, 1.0)

	move, _ := s.Step(p)
	require.Same(t, Move(heavy), move)
}
