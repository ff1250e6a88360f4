package lstm

import (
	"math"
	"testing"
)

func TestAdamFirstStepMovesByAlpha(t *testing.T) {
	eta := 0.000001
	p := []float64{1, -1, 0}
	opt := NewAdam(0.1, p)

	if err := opt.Update([]float64{5, -0.5, 0}); err != nil {
		t.Fatal(err)
	}

	// the first bias-corrected step is alpha × sign(g)
	expect := []float64{0.9, -0.9, 0}
	for i := range p {
		if math.Abs(p[i]-expect[i]) > eta {
			t.Errorf("param %d = %v, should have been %v", i, p[i], expect[i])
		}
	}
	if opt.Steps() != 1 {
		t.Errorf("Steps()=%d, expected 1", opt.Steps())
	}
}

func TestAdamMinimisesQuadratic(t *testing.T) {
	p := []float64{3, -4}
	opt := NewAdam(0.05, p)
	for i := 0; i < 2000; i++ {
		// ∇(x²+y²)
		if err := opt.Update([]float64{2 * p[0], 2 * p[1]}); err != nil {
			t.Fatal(err)
		}
	}
	if math.Abs(p[0]) > 0.1 || math.Abs(p[1]) > 0.1 {
		t.Errorf("Adam did not converge to the origin: %v", p)
	}
}

func TestAdamRejectsMismatchedGradients(t *testing.T) {
	opt := NewAdam(0.1, []float64{1, 2}, []float64{3})
	if err := opt.Update([]float64{1, 2}); err == nil {
		t.Errorf("Update should reject a missing gradient")
	}
	if err := opt.Update([]float64{1}, []float64{3}); err == nil {
		t.Errorf("Update should reject a short gradient")
	}
	if opt.Steps() != 0 {
		t.Errorf("rejected updates should not count as steps")
	}
}
