package lstm

import (
	"fmt"
	"math"
)

// Adam implements the Adam optimizer (Kingma & Ba, 2014) over a fixed list
// of parameter slices, which are updated in place.
type Adam struct {
	Alpha   float64
	Beta1   float64
	Beta2   float64
	Epsilon float64

	params [][]float64
	m      [][]float64
	v      [][]float64
	t      int
}

// NewAdam creates an optimizer for params with the usual defaults for the
// moment decay rates.
func NewAdam(alpha float64, params ...[]float64) *Adam {
	opt := &Adam{
		Alpha:   alpha,
		Beta1:   0.9,
		Beta2:   0.999,
		Epsilon: 1e-8,
		params:  params,
		m:       make([][]float64, len(params)),
		v:       make([][]float64, len(params)),
	}
	for i, p := range params {
		opt.m[i] = make([]float64, len(p))
		opt.v[i] = make([]float64, len(p))
	}
	return opt
}

// Steps returns the number of updates applied so far.
func (opt *Adam) Steps() int {
	return opt.t
}

// Update applies one step. grads must line up with the params given to
// NewAdam.
func (opt *Adam) Update(grads ...[]float64) error {
	if len(grads) != len(opt.params) {
		return fmt.Errorf("got %d gradients for %d parameters", len(grads), len(opt.params))
	}
	for k, g := range grads {
		if len(g) != len(opt.params[k]) {
			return fmt.Errorf("gradient %d has size %d, parameter has size %d",
				k, len(g), len(opt.params[k]))
		}
	}

	opt.t++
	// bias correction folded into the step size
	step := opt.Alpha * math.Sqrt(1-math.Pow(opt.Beta2, float64(opt.t))) /
		(1 - math.Pow(opt.Beta1, float64(opt.t)))

	for k, g := range grads {
		p, m, v := opt.params[k], opt.m[k], opt.v[k]
		for i := range p {
			m[i] = opt.Beta1*m[i] + (1-opt.Beta1)*g[i]
			v[i] = opt.Beta2*v[i] + (1-opt.Beta2)*g[i]*g[i]
			p[i] -= step * m[i] / (math.Sqrt(v[i]) + opt.Epsilon)
		}
	}

	return nil
}
