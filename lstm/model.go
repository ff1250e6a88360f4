package lstm

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"runtime"

	"github.com/herclab/quake_lstm/lstm/parameters"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"
)

// Hyper collects the model's hyper-parameters.
type Hyper struct {
	In           int
	Hidden       int
	Out          int
	LearningRate float64
	ForgetBias   float64
	Seed         int64

	// Workers bounds the number of batch columns processed concurrently.
	// Zero means GOMAXPROCS.
	Workers int
}

// DefaultHyper returns the hyper-parameters from the parameters package.
func DefaultHyper() Hyper {
	return Hyper{
		In:           parameters.INPUT_SIZE,
		Hidden:       parameters.RNN_HIDDEN,
		Out:          parameters.OUTPUT_SIZE,
		LearningRate: parameters.LEARNING_RATE,
		ForgetBias:   parameters.FORGET_BIAS,
		Seed:         parameters.SEED,
	}
}

// Model is an LSTM unrolled over time-major input, followed by a sigmoid
// projection applied to every timestep:
//
//	pred[t][b] = σ(W_p (w_out · h[t][b]) + b_p)
//
// Every batch column starts from the cell's zero state. The sequence length
// and batch size are taken from the input on each call.
type Model struct {
	Hyper Hyper

	Cell       *Cell
	Projection *Dense

	// OutputWeighting is the scalar w_out, kept as a one element slice so
	// the optimizer can update it in place. It starts at zero.
	OutputWeighting []float64

	opt *Adam
}

// NewModel builds a freshly initialised model.
func NewModel(h Hyper) (*Model, error) {
	if h.In <= 0 || h.Hidden <= 0 || h.Out <= 0 {
		return nil, fmt.Errorf("layer sizes must be positive (in=%d hidden=%d out=%d)",
			h.In, h.Hidden, h.Out)
	}
	if h.LearningRate <= 0 {
		return nil, fmt.Errorf("learning rate must be > 0 (got %g)", h.LearningRate)
	}

	rng := rand.New(rand.NewSource(h.Seed))
	m := &Model{
		Hyper:           h,
		Cell:            NewCell(h.In, h.Hidden, h.ForgetBias, rng),
		Projection:      NewDense(h.Hidden, h.Out, SigmoidActivation, rng),
		OutputWeighting: []float64{0},
	}
	m.resetOptimizer()
	return m, nil
}

func (m *Model) resetOptimizer() {
	m.opt = NewAdam(m.Hyper.LearningRate,
		m.Cell.Weight, m.Cell.Bias,
		m.Projection.Weight, m.Projection.Bias,
		m.OutputWeighting)
}

// NumParams returns the number of trainable scalars.
func (m *Model) NumParams() int {
	return len(m.Cell.Weight) + len(m.Cell.Bias) +
		len(m.Projection.Weight) + len(m.Projection.Bias) +
		len(m.OutputWeighting)
}

// Steps returns the number of optimizer updates applied so far.
func (m *Model) Steps() int {
	return m.opt.Steps()
}

// shape validates a [time][batch][feature] tensor and returns its time and
// batch dimensions.
func shape(x [][][]float64, features int, name string) (int, int, error) {
	if len(x) == 0 || len(x[0]) == 0 {
		return 0, 0, fmt.Errorf("%s is empty", name)
	}
	batch := len(x[0])
	for t := range x {
		if len(x[t]) != batch {
			return 0, 0, fmt.Errorf("%s: timestep %d has batch size %d, expected %d",
				name, t, len(x[t]), batch)
		}
		for b := range x[t] {
			if len(x[t][b]) != features {
				return 0, 0, fmt.Errorf("%s: element [%d][%d] has %d features, expected %d",
					name, t, b, len(x[t][b]), features)
			}
		}
	}
	return len(x), batch, nil
}

// trace is one batch column run forward through time.
type trace struct {
	caches []*StepCache
	h      [][]float64
	scaled [][]float64
	pred   [][]float64
}

func (m *Model) forwardColumn(x [][][]float64, b int) (*trace, error) {
	steps := len(x)
	tr := &trace{
		caches: make([]*StepCache, steps),
		h:      make([][]float64, steps),
		scaled: make([][]float64, steps),
		pred:   make([][]float64, steps),
	}

	w := m.OutputWeighting[0]
	s := m.Cell.ZeroState()
	for t := 0; t < steps; t++ {
		s, tr.caches[t] = m.Cell.Step(x[t][b], s)
		tr.h[t] = s.H

		tr.scaled[t] = make([]float64, m.Hyper.Hidden)
		floats.ScaleTo(tr.scaled[t], w, s.H)

		tr.pred[t] = make([]float64, m.Hyper.Out)
		if err := m.Projection.Forward(tr.scaled[t], tr.pred[t]); err != nil {
			return nil, err
		}
	}
	return tr, nil
}

func (m *Model) workers() int {
	if m.Hyper.Workers > 0 {
		return m.Hyper.Workers
	}
	return runtime.GOMAXPROCS(0)
}

// eachColumn runs fn for every batch column on a bounded set of goroutines.
func (m *Model) eachColumn(ctx context.Context, batch int, fn func(b int) error) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(m.workers())
	for b := 0; b < batch; b++ {
		b := b
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return fn(b)
		})
	}
	return g.Wait()
}

// Forward returns the model's predictions for x, shaped
// [time][batch][Out].
func (m *Model) Forward(ctx context.Context, x [][][]float64) ([][][]float64, error) {
	steps, batch, err := shape(x, m.Hyper.In, "input")
	if err != nil {
		return nil, err
	}

	columns := make([][][]float64, batch)
	err = m.eachColumn(ctx, batch, func(b int) error {
		tr, err := m.forwardColumn(x, b)
		if err != nil {
			return err
		}
		columns[b] = tr.pred
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([][][]float64, steps)
	for t := range out {
		out[t] = make([][]float64, batch)
		for b := range out[t] {
			out[t][b] = columns[b][t]
		}
	}
	return out, nil
}

// crossEntropy is the elementwise binary cross entropy used as the loss.
func crossEntropy(p, y float64) float64 {
	return -(y*math.Log(p+parameters.TINY) + (1.0-y)*math.Log(1.0-p+parameters.TINY))
}

// crossEntropyGrad is ∂crossEntropy/∂p.
func crossEntropyGrad(p, y float64) float64 {
	return -y/(p+parameters.TINY) + (1.0-y)/(1.0-p+parameters.TINY)
}

// Loss returns the mean elementwise cross entropy of pred against y.
func Loss(pred, y [][][]float64) (float64, error) {
	if err := sameShape(pred, y); err != nil {
		return 0, err
	}
	sum, n := 0.0, 0
	for t := range pred {
		for b := range pred[t] {
			for k, p := range pred[t][b] {
				sum += crossEntropy(p, y[t][b][k])
				n++
			}
		}
	}
	return sum / float64(n), nil
}

// Accuracy returns the share of outputs within 0.5 of the target, i.e.
// those that round to the correct label.
func Accuracy(pred, y [][][]float64) (float64, error) {
	if err := sameShape(pred, y); err != nil {
		return 0, err
	}
	hits, n := 0, 0
	for t := range pred {
		for b := range pred[t] {
			for k, p := range pred[t][b] {
				if math.Abs(p-y[t][b][k]) <= 0.5 {
					hits++
				}
				n++
			}
		}
	}
	return float64(hits) / float64(n), nil
}

func sameShape(a, b [][][]float64) error {
	if len(a) == 0 {
		return fmt.Errorf("empty tensor")
	}
	if len(a) != len(b) {
		return fmt.Errorf("time dimension %d =/= %d", len(a), len(b))
	}
	for t := range a {
		if len(a[t]) != len(b[t]) {
			return fmt.Errorf("timestep %d: batch size %d =/= %d", t, len(a[t]), len(b[t]))
		}
		for i := range a[t] {
			if len(a[t][i]) != len(b[t][i]) {
				return fmt.Errorf("element [%d][%d]: size %d =/= %d",
					t, i, len(a[t][i]), len(b[t][i]))
			}
		}
	}
	return nil
}

// grads is a full set of parameter gradients.
type grads struct {
	cell *CellGrad
	proj *DenseGrad
	wout []float64
}

func (m *Model) newGrads() *grads {
	return &grads{
		cell: m.Cell.NewGrad(),
		proj: m.Projection.NewGrad(),
		wout: make([]float64, 1),
	}
}

func (g *grads) add(o *grads) {
	floats.Add(g.cell.Weight, o.cell.Weight)
	floats.Add(g.cell.Bias, o.cell.Bias)
	floats.Add(g.proj.Weight, o.proj.Weight)
	floats.Add(g.proj.Bias, o.proj.Bias)
	floats.Add(g.wout, o.wout)
}

// backwardColumn backpropagates the loss through one batch column, with
// n being the number of outputs the loss is averaged over. It returns the
// column's summed (not averaged) loss.
func (m *Model) backwardColumn(tr *trace, y [][][]float64, b, n int, g *grads) float64 {
	hs := m.Hyper.Hidden
	w := m.OutputWeighting[0]

	loss := 0.0
	da := make([]float64, m.Hyper.Out)
	dscaled := make([]float64, hs)
	dh := make([]float64, hs)
	dhNext := make([]float64, hs)
	dcNext := make([]float64, hs)

	for t := len(tr.caches) - 1; t >= 0; t-- {
		for k, p := range tr.pred[t] {
			target := y[t][b][k]
			loss += crossEntropy(p, target)
			da[k] = crossEntropyGrad(p, target) / float64(n)
		}

		m.Projection.Backward(tr.scaled[t], tr.pred[t], da, dscaled, g.proj)

		// scaled = w · h
		g.wout[0] += floats.Dot(dscaled, tr.h[t])
		floats.ScaleTo(dh, w, dscaled)
		floats.Add(dh, dhNext)

		_, dhNext, dcNext = m.Cell.StepBackward(tr.caches[t], dh, dcNext, g.cell)
	}

	return loss
}

// TrainStep runs one full-batch forward pass, backpropagates through time
// and applies one optimizer update. It returns the loss before the update.
func (m *Model) TrainStep(ctx context.Context, x, y [][][]float64) (float64, error) {
	steps, batch, err := shape(x, m.Hyper.In, "input")
	if err != nil {
		return 0, err
	}
	ySteps, yBatch, err := shape(y, m.Hyper.Out, "target")
	if err != nil {
		return 0, err
	}
	if ySteps != steps || yBatch != batch {
		return 0, fmt.Errorf("target shape (%d, %d) =/= input shape (%d, %d)",
			ySteps, yBatch, steps, batch)
	}

	n := steps * batch * m.Hyper.Out
	losses := make([]float64, batch)
	colGrads := make([]*grads, batch)

	err = m.eachColumn(ctx, batch, func(b int) error {
		tr, err := m.forwardColumn(x, b)
		if err != nil {
			return err
		}
		colGrads[b] = m.newGrads()
		losses[b] = m.backwardColumn(tr, y, b, n, colGrads[b])
		return nil
	})
	if err != nil {
		return 0, err
	}

	// sum in column order so the update does not depend on scheduling
	total := colGrads[0]
	for _, g := range colGrads[1:] {
		total.add(g)
	}

	err = m.opt.Update(
		total.cell.Weight, total.cell.Bias,
		total.proj.Weight, total.proj.Bias,
		total.wout)
	if err != nil {
		return 0, err
	}

	return floats.Sum(losses) / float64(n), nil
}
