package lstm

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Gate row blocks within Cell.Weight and Cell.Bias.
const (
	gateForget = iota
	gateInput
	gateOutput
	gateCandidate
	numGates
)

// State is the (hidden, cell) pair carried between timesteps.
type State struct {
	H []float64
	C []float64
}

// Cell is a single LSTM cell.
//
// The four gates share one weight matrix of numGates*Hidden rows and
// In+Hidden columns, applied to z = [x ; h_prev]. Rows
// [k*Hidden, (k+1)*Hidden) belong to gate k.
type Cell struct {
	In     int
	Hidden int

	Weight []float64
	Bias   []float64
}

// CellGrad accumulates gradients for a Cell.
type CellGrad struct {
	Weight []float64
	Bias   []float64
}

// StepCache holds what StepBackward needs from a forward step.
type StepCache struct {
	Z     []float64 // [x ; h_prev]
	CPrev []float64
	F     []float64
	I     []float64
	O     []float64
	G     []float64
	C     []float64
	TanhC []float64
}

// NewCell creates a cell with Glorot-uniform weights. The forget gate bias
// starts at forgetBias and all other biases at zero.
func NewCell(in, hidden int, forgetBias float64, rng *rand.Rand) *Cell {
	c := &Cell{
		In:     in,
		Hidden: hidden,
		Weight: make([]float64, numGates*hidden*(in+hidden)),
		Bias:   make([]float64, numGates*hidden),
	}
	glorotUniform(c.Weight, in+hidden, numGates*hidden, rng)
	for j := 0; j < hidden; j++ {
		c.Bias[gateForget*hidden+j] = forgetBias
	}
	return c
}

func (c *Cell) width() int {
	return c.In + c.Hidden
}

func (c *Cell) row(r int) []float64 {
	w := c.width()
	return c.Weight[r*w : (r+1)*w]
}

func (c *Cell) NewGrad() *CellGrad {
	return &CellGrad{
		Weight: make([]float64, len(c.Weight)),
		Bias:   make([]float64, len(c.Bias)),
	}
}

// ZeroState returns an all-zero hidden and cell state.
func (c *Cell) ZeroState() State {
	return State{
		H: make([]float64, c.Hidden),
		C: make([]float64, c.Hidden),
	}
}

// Step advances the cell by one timestep:
//
//	f = σ(W_f z + b_f)
//	i = σ(W_i z + b_i)
//	o = σ(W_o z + b_o)
//	g = tanh(W_g z + b_g)
//	c = f ⊙ c_prev + i ⊙ g
//	h = o ⊙ tanh(c)
//
// It panics if x or prev do not match the cell's dimensions.
func (c *Cell) Step(x []float64, prev State) (State, *StepCache) {
	if len(x) != c.In {
		panic(fmt.Sprintf("Input vector size %d =/= cell input size %d", len(x), c.In))
	}
	if len(prev.H) != c.Hidden || len(prev.C) != c.Hidden {
		panic(fmt.Sprintf("State size (%d, %d) =/= cell hidden size %d",
			len(prev.H), len(prev.C), c.Hidden))
	}

	hs := c.Hidden
	cache := &StepCache{
		Z:     make([]float64, c.width()),
		CPrev: prev.C,
		F:     make([]float64, hs),
		I:     make([]float64, hs),
		O:     make([]float64, hs),
		G:     make([]float64, hs),
		C:     make([]float64, hs),
		TanhC: make([]float64, hs),
	}
	copy(cache.Z, x)
	copy(cache.Z[c.In:], prev.H)

	next := State{
		H: make([]float64, hs),
		C: cache.C,
	}

	for j := 0; j < hs; j++ {
		cache.F[j] = Sigmoid(c.preActivation(gateForget, j, cache.Z))
		cache.I[j] = Sigmoid(c.preActivation(gateInput, j, cache.Z))
		cache.O[j] = Sigmoid(c.preActivation(gateOutput, j, cache.Z))
		cache.G[j] = math.Tanh(c.preActivation(gateCandidate, j, cache.Z))

		cache.C[j] = cache.F[j]*prev.C[j] + cache.I[j]*cache.G[j]
		cache.TanhC[j] = math.Tanh(cache.C[j])
		next.H[j] = cache.O[j] * cache.TanhC[j]
	}

	return next, cache
}

func (c *Cell) preActivation(gate, j int, z []float64) float64 {
	r := gate*c.Hidden + j
	return floats.Dot(c.row(r), z) + c.Bias[r]
}

// StepBackward backpropagates through one Step. dh and dc are the loss
// gradients with respect to the step's output hidden and cell state. Weight
// and bias gradients are accumulated into g; the gradients with respect to
// x, h_prev and c_prev are returned.
func (c *Cell) StepBackward(cache *StepCache, dh, dc []float64, g *CellGrad) (dx, dhPrev, dcPrev []float64) {
	hs := c.Hidden
	dz := make([]float64, c.width())
	dcPrev = make([]float64, hs)

	// da holds the pre-activation gradient for each gate row
	da := make([]float64, numGates*hs)
	for j := 0; j < hs; j++ {
		// h = o ⊙ tanh(c), so c receives gradient through h as well as
		// directly from the next timestep
		dcj := dc[j] + dh[j]*cache.O[j]*TanhDeriv(cache.TanhC[j])

		da[gateOutput*hs+j] = dh[j] * cache.TanhC[j] * SigmoidDeriv(cache.O[j])
		da[gateForget*hs+j] = dcj * cache.CPrev[j] * SigmoidDeriv(cache.F[j])
		da[gateInput*hs+j] = dcj * cache.G[j] * SigmoidDeriv(cache.I[j])
		da[gateCandidate*hs+j] = dcj * cache.I[j] * TanhDeriv(cache.G[j])

		dcPrev[j] = dcj * cache.F[j]
	}

	w := c.width()
	for r, d := range da {
		if d == 0 {
			continue
		}
		g.Bias[r] += d
		floats.AddScaled(g.Weight[r*w:(r+1)*w], d, cache.Z)
		floats.AddScaled(dz, d, c.row(r))
	}

	return dz[:c.In], dz[c.In:], dcPrev
}
