package lstm

import (
	"math"
	"math/rand"
	"testing"
)

func TestDenseForward(t *testing.T) {
	d := &Dense{
		In:     2,
		Out:    2,
		Weight: []float64{1, 2, -1, 0.5},
		Bias:   []float64{0.5, 0},
		Act:    IdentityActivation,
	}

	out := make([]float64, 2)
	if err := d.Forward([]float64{3, 4}, out); err != nil {
		t.Fatal(err)
	}
	if out[0] != 11.5 || out[1] != -1 {
		t.Errorf("Forward()=%v, should have been [11.5 -1]", out)
	}

	if err := d.Forward([]float64{3}, out); err == nil {
		t.Errorf("Forward should have errored on short input")
	}
	if err := d.Forward([]float64{3, 4}, out[:1]); err == nil {
		t.Errorf("Forward should have errored on short output")
	}
}

func TestDenseWeightAccessors(t *testing.T) {
	d := NewDense(3, 2, SigmoidActivation, rand.New(rand.NewSource(1)))
	d.SetWeight(1, 2, 42)
	if d.GetWeight(1, 2) != 42 || d.Weight[1*3+2] != 42 {
		t.Errorf("SetWeight(1, 2) did not land at Weight[5]")
	}
	for _, b := range d.Bias {
		if b != 0 {
			t.Errorf("NewDense biases should start at 0, got %v", d.Bias)
		}
	}
	r := math.Sqrt(6.0 / 5.0)
	for i, w := range d.Weight {
		if i != 5 && math.Abs(w) > r {
			t.Errorf("weight %d = %v outside Glorot range %v", i, w, r)
		}
	}
}

func TestDenseBackward(t *testing.T) {
	eta := 0.0000001
	d := &Dense{
		In:     2,
		Out:    1,
		Weight: []float64{0.3, -0.7},
		Bias:   []float64{0.1},
		Act:    SigmoidActivation,
	}
	x := []float64{1, 2}
	a := make([]float64, 1)
	if err := d.Forward(x, a); err != nil {
		t.Fatal(err)
	}

	g := d.NewGrad()
	dx := make([]float64, 2)
	d.Backward(x, a, []float64{1}, dx, g)

	delta := a[0] * (1 - a[0])
	expect := []float64{delta * 1, delta * 2}
	for i := range expect {
		if math.Abs(g.Weight[i]-expect[i]) > eta {
			t.Errorf("weight grad %d = %v, should have been %v", i, g.Weight[i], expect[i])
		}
	}
	if math.Abs(g.Bias[0]-delta) > eta {
		t.Errorf("bias grad = %v, should have been %v", g.Bias[0], delta)
	}
	if math.Abs(dx[0]-delta*0.3) > eta || math.Abs(dx[1]+delta*0.7) > eta {
		t.Errorf("input grad = %v", dx)
	}
}

func TestActivationDerivatives(t *testing.T) {
	eta := 0.000001
	h := 1e-6
	for _, act := range []Activation{SigmoidActivation, TanhActivation, IdentityActivation} {
		for _, x := range []float64{-2, -0.5, 0, 0.3, 1.7} {
			numeric := (act.Fn(x+h) - act.Fn(x-h)) / (2 * h)
			analytic := act.Deriv(act.Fn(x))
			if math.Abs(numeric-analytic) > eta {
				t.Errorf("%s'(%v) = %v, numeric %v", act.Name, x, analytic, numeric)
			}
		}
		got, ok := ActivationByName(act.Name)
		if !ok || got.Name != act.Name {
			t.Errorf("ActivationByName(%q) failed", act.Name)
		}
	}
	if _, ok := ActivationByName("relu"); ok {
		t.Errorf("ActivationByName should not know relu")
	}
	if math.Abs(Logit(Sigmoid(0.8))-0.8) > eta {
		t.Errorf("Logit is not the inverse of Sigmoid")
	}
}
