package seismic

import (
	"errors"
	"fmt"
)

// ErrTooShort is returned when a dataset cannot fill the requested windows.
var ErrTooShort = errors.New("dataset too short")

// Tensor3 is a time-major [time][batch][feature] tensor.
type Tensor3 [][][]float64

// NewTensor3 allocates a zeroed tensor.
func NewTensor3(steps, batch, features int) Tensor3 {
	t := make(Tensor3, steps)
	for j := range t {
		t[j] = make([][]float64, batch)
		for i := range t[j] {
			t[j][i] = make([]float64, features)
		}
	}
	return t
}

// Flatten returns the tensor's values in [time][batch][feature] order.
func (t Tensor3) Flatten() []float64 {
	var out []float64
	for j := range t {
		for i := range t[j] {
			out = append(out, t[j][i]...)
		}
	}
	return out
}

// Window fills a tensor of steps timesteps from values, starting at window
// index first:
//
//	x[j][i][0] = values[i + (first+j)*batch]
//
// Consecutive readings therefore run across the batch dimension, and one
// timestep advances the series by batch readings.
func Window(values []float64, first, steps, batch int) (Tensor3, error) {
	if first < 0 || steps <= 0 || batch <= 0 {
		return nil, fmt.Errorf("invalid window (first=%d steps=%d batch=%d)", first, steps, batch)
	}
	need := (first + steps) * batch
	if len(values) < need {
		return nil, fmt.Errorf("%w: need %d readings, have %d", ErrTooShort, need, len(values))
	}

	x := NewTensor3(steps, batch, 1)
	for j := 0; j < steps; j++ {
		for i := 0; i < batch; i++ {
			x[j][i][0] = values[i+(first+j)*batch]
		}
	}
	return x, nil
}

// Split holds the training and validation windows for one run.
type Split struct {
	TrainX Tensor3
	TrainY Tensor3
	TestX  Tensor3
	TestY  Tensor3

	// TestLo and TestHi bound the readings covered by the test windows, so
	// that TestX.Flatten()[k] is reading TestLo+k.
	TestLo int
	TestHi int
}

// SplitOptions controls how a dataset is cut into windows.
type SplitOptions struct {
	Batch        int
	TrainWindows int
	TestWindows  int

	// Standardize z-scores the input column before windowing.
	Standardize bool
}

// MakeSplit windows power as the input and high-magnitude events as the
// target. The first TrainWindows timesteps are used for training and the
// following TestWindows for validation.
func MakeSplit(d *Dataset, opts SplitOptions) (*Split, error) {
	input := d.Power
	if opts.Standardize {
		input = Standardize(input)
	}

	s := &Split{
		TestLo: opts.TrainWindows * opts.Batch,
		TestHi: (opts.TrainWindows + opts.TestWindows) * opts.Batch,
	}

	var err error
	if s.TrainX, err = Window(input, 0, opts.TrainWindows, opts.Batch); err != nil {
		return nil, fmt.Errorf("training input: %w", err)
	}
	if s.TrainY, err = Window(d.HighMag, 0, opts.TrainWindows, opts.Batch); err != nil {
		return nil, fmt.Errorf("training target: %w", err)
	}
	if s.TestX, err = Window(input, opts.TrainWindows, opts.TestWindows, opts.Batch); err != nil {
		return nil, fmt.Errorf("test input: %w", err)
	}
	if s.TestY, err = Window(d.HighMag, opts.TrainWindows, opts.TestWindows, opts.Batch); err != nil {
		return nil, fmt.Errorf("test target: %w", err)
	}

	return s, nil
}
