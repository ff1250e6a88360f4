package lstm

import "math"

// Activation pairs a nonlinearity with its derivative. Deriv takes the
// post-activation value a = Fn(x), which is all the sigmoid and tanh
// derivatives need and saves keeping the pre-activation around.
type Activation struct {
	Name  string
	Fn    func(float64) float64
	Deriv func(float64) float64
}

var (
	SigmoidActivation  = Activation{"sigmoid", Sigmoid, SigmoidDeriv}
	TanhActivation     = Activation{"tanh", math.Tanh, TanhDeriv}
	IdentityActivation = Activation{"identity", Identity, Unit}
)

// ActivationByName is used when restoring a snapshot.
func ActivationByName(name string) (Activation, bool) {
	for _, a := range []Activation{SigmoidActivation, TanhActivation, IdentityActivation} {
		if a.Name == name {
			return a, true
		}
	}
	return Activation{}, false
}

func Sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-1.0*x))
}

// SigmoidDeriv is σ'(x) expressed in terms of a = σ(x).
func SigmoidDeriv(a float64) float64 {
	return a * (1 - a)
}

// TanhDeriv is tanh'(x) expressed in terms of a = tanh(x).
func TanhDeriv(a float64) float64 {
	return 1 - a*a
}

func Logit(x float64) float64 {
	return math.Log(x / (1 - x))
}

func Identity(x float64) float64 {
	return x
}

func Unit(x float64) float64 {
	return 1.0
}
