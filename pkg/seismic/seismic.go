// package seismic loads the seismic-activity dataset used to train the quake
// LSTM, and shapes it into the time-major windows the model consumes.
package seismic

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"
)

// Sample represents a single reading from a Series
type Sample struct {

	// The time component of the sample
	T float64

	// The value component of the sample
	S float64
}

// Series is a named, time-ordered column of readings.
//
// T and S must be the same size, and T must be sorted ascending.
type Series struct {
	Name string
	T    []float64
	S    []float64
}

// Size returns the number of samples in the series.
func (s *Series) Size() int {
	return len(s.S)
}

// ValidateIndex returns an error if i is out of bounds, or if the series
// has been corrupted so that T and S differ in length.
func (s *Series) ValidateIndex(i int) error {
	if len(s.T) != len(s.S) {
		return fmt.Errorf("Series %q is corrupt: %d times but %d values", s.Name, len(s.T), len(s.S))
	}
	if i < 0 || i >= len(s.S) {
		return fmt.Errorf("Index out of bounds %d for series of length %d", i, len(s.S))
	}
	return nil
}

// Index retrieves the ith sample.
func (s *Series) Index(i int) (Sample, error) {
	if err := s.ValidateIndex(i); err != nil {
		return Sample{}, err
	}
	return Sample{T: s.T[i], S: s.S[i]}, nil
}

// MustIndex works identically to Index(), but calls panic() if an error occurs
func (s *Series) MustIndex(i int) Sample {
	sample, err := s.Index(i)
	if err != nil {
		panic(err)
	}
	return sample
}

// Slice returns the samples in [lo, hi) as a new series sharing s's
// backing arrays.
func (s *Series) Slice(lo, hi int) (*Series, error) {
	if lo < 0 || hi > s.Size() || lo > hi {
		return nil, fmt.Errorf("Slice [%d, %d) out of bounds for series of length %d", lo, hi, s.Size())
	}
	return &Series{Name: s.Name, T: s.T[lo:hi], S: s.S[lo:hi]}, nil
}

// XYs adapts the series for plotting.
func (s *Series) XYs() plotter.XYs {
	xys := make(plotter.XYs, s.Size())
	for i := range xys {
		xys[i].X = s.T[i]
		xys[i].Y = s.S[i]
	}
	return xys
}

// SampleList converts a list of samples for plotting.
func SampleList(samples []Sample) plotter.XYs {
	xys := make(plotter.XYs, len(samples))
	for i, s := range samples {
		xys[i].X = s.T
		xys[i].Y = s.S
	}
	return xys
}

// Dataset holds the columns of the quake CSV that the experiment uses. Row
// i of the file (not counting the header) has time index i.
type Dataset struct {
	T         []float64
	Power     []float64
	MeanPower []float64
	HighMag   []float64
}

// Size returns the number of rows in the dataset.
func (d *Dataset) Size() int {
	return len(d.T)
}

func (d *Dataset) PowerSeries() *Series {
	return &Series{Name: "power", T: d.T, S: d.Power}
}

func (d *Dataset) MeanPowerSeries() *Series {
	return &Series{Name: "mean power", T: d.T, S: d.MeanPower}
}

func (d *Dataset) HighMagSeries() *Series {
	return &Series{Name: "high magnitude", T: d.T, S: d.HighMag}
}

// Standardize returns (v - mean) / stddev. A constant input maps to all
// zeros.
func Standardize(v []float64) []float64 {
	out := make([]float64, len(v))
	if len(v) < 2 {
		return out
	}
	mean, std := stat.MeanStdDev(v, nil)
	if std == 0 {
		return out
	}
	for i, x := range v {
		out[i] = (x - mean) / std
	}
	return out
}
