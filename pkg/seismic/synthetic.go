package seismic

import (
	"fmt"
	"math"
	"math/rand"
)

// SyntheticParameters describes an artificial quake dataset, for running
// the experiment without network access. See Generate().
type SyntheticParameters struct {
	// Rows is the number of readings to generate
	Rows int

	// SampleRate is the number of readings per unit of time
	SampleRate float64

	// Frequencies is the list of frequencies of Sin wave that make up the
	// power signal
	Frequencies []float64

	// Phases is the list of phases of the Sin waves
	Phases []float64

	// Amplitudes is the list of amplitudes of the Sin waves
	Amplitudes []float64

	// Noises stores a list of noise functions which are applied on a
	// per-wave basis. If this field is left empty, then no noise will be
	// generated for the given wave. These noise functions are understood:
	//
	// * "normal" (rand.NormFloat64)
	// * "" (no noise)
	Noises []string

	// NoiseMagnitudes is a list of coefficients to the given noise
	// function for a particular wave. If empty, it is assumed that all
	// magnitudes are 1.0.
	NoiseMagnitudes []float64

	// GlobalNoise accepts the same values as Noises, but is applied to the
	// summed signal.
	GlobalNoise string

	// GlobalNoiseMagnitude works similarly to NoiseMagnitudes, but applies
	// to the global noise.
	GlobalNoiseMagnitude float64

	// Threshold marks a reading as a high-magnitude event when the power
	// exceeds it.
	Threshold float64

	// MeanWindow is the number of trailing readings averaged into the
	// mean power column. Zero means 1.
	MeanWindow int

	Seed int64
}

// DefaultSyntheticParameters returns parameters that generate enough rows
// for the default windows.
func DefaultSyntheticParameters(rows int) SyntheticParameters {
	return SyntheticParameters{
		Rows:                 rows,
		SampleRate:           100,
		Frequencies:          []float64{0.5, 1.3, 3.7},
		Phases:               []float64{0, 1, 3},
		Amplitudes:           []float64{1, 0.8, 1.2},
		GlobalNoise:          "normal",
		GlobalNoiseMagnitude: 0.1,
		Threshold:            1.5,
		MeanWindow:           30,
		Seed:                 1,
	}
}

func noise(kind string, rng *rand.Rand) (float64, error) {
	switch kind {
	case "":
		return 0, nil
	case "normal":
		return rng.NormFloat64(), nil
	default:
		return 0, fmt.Errorf("unknown noise function %q", kind)
	}
}

// Generate builds a dataset whose power column is a composition of several
// Sin functions of the given frequencies, phases, and amplitudes, with noise
// optionally applied to each wave and to the sum.
func (p *SyntheticParameters) Generate() (*Dataset, error) {
	if (len(p.Frequencies) != len(p.Phases)) || (len(p.Frequencies) != len(p.Amplitudes)) {
		return nil, fmt.Errorf("frequencies, phases, amplitudes must be the same length")
	}
	if len(p.Noises) != 0 && len(p.Noises) != len(p.Frequencies) {
		return nil, fmt.Errorf("noises must be empty or one per frequency")
	}
	if len(p.NoiseMagnitudes) != 0 && len(p.NoiseMagnitudes) != len(p.Frequencies) {
		return nil, fmt.Errorf("noise magnitudes must be empty or one per frequency")
	}
	if p.Rows < 0 {
		return nil, fmt.Errorf("rows must not be negative (got %d)", p.Rows)
	}
	if p.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be > 0 (got %g)", p.SampleRate)
	}

	rng := rand.New(rand.NewSource(p.Seed))
	window := p.MeanWindow
	if window <= 0 {
		window = 1
	}

	d := &Dataset{
		T:         make([]float64, p.Rows),
		Power:     make([]float64, p.Rows),
		MeanPower: make([]float64, p.Rows),
		HighMag:   make([]float64, p.Rows),
	}

	running := 0.0
	for i := 0; i < p.Rows; i++ {
		d.T[i] = float64(i)
		t := float64(i) / p.SampleRate

		s := 0.0
		for j, freq := range p.Frequencies {
			s += p.Amplitudes[j] * math.Sin(2*math.Pi*freq*t+p.Phases[j])
			if len(p.Noises) > 0 {
				n, err := noise(p.Noises[j], rng)
				if err != nil {
					return nil, err
				}
				mag := 1.0
				if len(p.NoiseMagnitudes) > 0 {
					mag = p.NoiseMagnitudes[j]
				}
				s += mag * n
			}
		}
		n, err := noise(p.GlobalNoise, rng)
		if err != nil {
			return nil, err
		}
		s += p.GlobalNoiseMagnitude * n

		d.Power[i] = s
		if s > p.Threshold {
			d.HighMag[i] = 1
		}

		running += s
		if i >= window {
			running -= d.Power[i-window]
		}
		d.MeanPower[i] = running / math.Min(float64(i+1), float64(window))
	}

	return d, nil
}
