package lstm

import (
	"math"
	"math/rand"
	"testing"
)

func zeroCell(in, hidden int) *Cell {
	return &Cell{
		In:     in,
		Hidden: hidden,
		Weight: make([]float64, numGates*hidden*(in+hidden)),
		Bias:   make([]float64, numGates*hidden),
	}
}

func TestStepGates(t *testing.T) {
	eta := 0.0000001

	cases := []struct {
		candidateWeight float64
		x               float64
		prev            State
		expect          State
	}{
		// all gates at σ(0) = 0.5, candidate tanh(0) = 0
		{0, 0, State{H: []float64{0}, C: []float64{0}}, State{H: []float64{0}, C: []float64{0}}},
		{0, 0, State{H: []float64{0}, C: []float64{1}},
			State{H: []float64{0.5 * math.Tanh(0.5)}, C: []float64{0.5}}},
		{1, 1, State{H: []float64{0}, C: []float64{1}},
			State{
				H: []float64{0.5 * math.Tanh(0.5+0.5*math.Tanh(1))},
				C: []float64{0.5 + 0.5*math.Tanh(1)},
			}},
		{1, -2, State{H: []float64{0}, C: []float64{0}},
			State{
				H: []float64{0.5 * math.Tanh(0.5*math.Tanh(-2))},
				C: []float64{0.5 * math.Tanh(-2)},
			}},
	}

	for i, c := range cases {
		cell := zeroCell(1, 1)
		// row for the candidate gate, column for x
		cell.Weight[gateCandidate*cell.width()] = c.candidateWeight

		next, _ := cell.Step([]float64{c.x}, c.prev)
		if math.Abs(next.H[0]-c.expect.H[0]) > eta || math.Abs(next.C[0]-c.expect.C[0]) > eta {
			t.Errorf("Test case %d: Step(%v, %v)=%v, should have been %v",
				i, c.x, c.prev, next, c.expect)
		}
	}
}

func TestStepDoesNotModifyPreviousState(t *testing.T) {
	cell := NewCell(2, 3, 1.0, rand.New(rand.NewSource(7)))
	prev := State{H: []float64{0.1, 0.2, 0.3}, C: []float64{-1, 0, 1}}
	next, _ := cell.Step([]float64{0.5, -0.5}, prev)

	if prev.H[0] != 0.1 || prev.C[0] != -1 || prev.C[2] != 1 {
		t.Errorf("Step modified its input state: %v", prev)
	}
	if len(next.H) != 3 || len(next.C) != 3 {
		t.Errorf("Step returned state of wrong size: %v", next)
	}
}

func TestNewCellForgetBias(t *testing.T) {
	cell := NewCell(1, 4, 1.0, rand.New(rand.NewSource(1)))
	for j := 0; j < cell.Hidden; j++ {
		if cell.Bias[gateForget*cell.Hidden+j] != 1.0 {
			t.Errorf("forget bias %d = %v, expected 1", j, cell.Bias[gateForget*cell.Hidden+j])
		}
		for _, g := range []int{gateInput, gateOutput, gateCandidate} {
			if cell.Bias[g*cell.Hidden+j] != 0 {
				t.Errorf("gate %d bias %d = %v, expected 0", g, j, cell.Bias[g*cell.Hidden+j])
			}
		}
	}
}

func TestZeroState(t *testing.T) {
	cell := NewCell(1, 5, 0, rand.New(rand.NewSource(1)))
	s := cell.ZeroState()
	if len(s.H) != 5 || len(s.C) != 5 {
		t.Fatalf("ZeroState has sizes (%d, %d), expected 5", len(s.H), len(s.C))
	}
	for j := range s.H {
		if s.H[j] != 0 || s.C[j] != 0 {
			t.Errorf("ZeroState not zero at %d: %v", j, s)
		}
	}
}

func recoveryWrapper(cell *Cell, x []float64, prev State) (paniced bool) {
	defer func() {
		if r := recover(); r != nil {
			paniced = true
		}
	}()

	cell.Step(x, prev)

	return false
}

func TestStepPanicsOnBadShapes(t *testing.T) {
	cell := zeroCell(2, 2)

	cases := []struct {
		x    []float64
		prev State
	}{
		{[]float64{1}, cell.ZeroState()},
		{[]float64{1, 2, 3}, cell.ZeroState()},
		{[]float64{1, 2}, State{H: []float64{0}, C: []float64{0, 0}}},
		{[]float64{1, 2}, State{H: []float64{0, 0}, C: []float64{0}}},
	}

	for i, c := range cases {
		if !recoveryWrapper(cell, c.x, c.prev) {
			t.Errorf("Test case %d: Step(%v, %v) should have caused a panic, but did not",
				i, c.x, c.prev)
		}
	}
}
