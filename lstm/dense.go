package lstm

import (
	"fmt"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/floats"
)

// Dense is a fully connected layer, used as the per-timestep output
// projection of the recurrent network.
//
// Weight[j * In + i] = weight for neuron j in THIS layer coming in from
// input i.
//
// Dense keeps no per-call state, so Forward and Backward may be called
// concurrently as long as each caller owns its DenseGrad.
type Dense struct {
	In  int
	Out int

	Weight []float64
	Bias   []float64

	Act Activation
}

// DenseGrad accumulates gradients for a Dense layer.
type DenseGrad struct {
	Weight []float64
	Bias   []float64
}

// NewDense creates a layer with Glorot-uniform weights and zero biases.
func NewDense(in, out int, act Activation, rng *rand.Rand) *Dense {
	d := &Dense{
		In:     in,
		Out:    out,
		Weight: make([]float64, in*out),
		Bias:   make([]float64, out),
		Act:    act,
	}
	glorotUniform(d.Weight, in, out, rng)
	return d
}

// GetWeight retrieves the weight from input i to neuron j.
func (d *Dense) GetWeight(j, i int) float64 {
	return d.Weight[j*d.In+i]
}

func (d *Dense) SetWeight(j, i int, w float64) {
	d.Weight[j*d.In+i] = w
}

func (d *Dense) row(j int) []float64 {
	return d.Weight[j*d.In : (j+1)*d.In]
}

func (d *Dense) NewGrad() *DenseGrad {
	return &DenseGrad{
		Weight: make([]float64, len(d.Weight)),
		Bias:   make([]float64, len(d.Bias)),
	}
}

// Forward computes a_j = g(∑i w_i,j x_i + b_j) into out, which must have
// length d.Out.
func (d *Dense) Forward(x, out []float64) error {
	if len(x) != d.In {
		return fmt.Errorf("Input vector size %d =/= layer input size %d", len(x), d.In)
	}
	if len(out) != d.Out {
		return fmt.Errorf("Output vector size %d =/= layer output size %d", len(out), d.Out)
	}
	for j := 0; j < d.Out; j++ {
		out[j] = d.Act.Fn(floats.Dot(d.row(j), x) + d.Bias[j])
	}
	return nil
}

// Backward takes the loss gradient with respect to the layer's activations
// (da), accumulates weight and bias gradients into g, and writes the
// gradient with respect to the input into dx.
//
// x and a must be the input and output of the matching Forward call.
func (d *Dense) Backward(x, a, da, dx []float64, g *DenseGrad) {
	for i := range dx {
		dx[i] = 0
	}
	for j := 0; j < d.Out; j++ {
		// Δ[j] ← g'(in_j) × ∂L/∂a_j
		delta := d.Act.Deriv(a[j]) * da[j]
		g.Bias[j] += delta
		floats.AddScaled(g.Weight[j*d.In:(j+1)*d.In], delta, x)
		floats.AddScaled(dx, delta, d.row(j))
	}
}

// glorotUniform fills w with samples from U(-r, r), r = sqrt(6/(in+out)).
func glorotUniform(w []float64, in, out int, rng *rand.Rand) {
	r := math.Sqrt(6.0 / float64(in+out))
	for i := range w {
		w[i] = (rng.Float64()*2 - 1) * r
	}
}
