// package trainer runs the fixed epoch/iteration training loop of the quake
// experiment.
package trainer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/herclab/quake_lstm/lstm"
	"github.com/herclab/quake_lstm/lstm/parameters"
	"github.com/herclab/quake_lstm/pkg/seismic"

	"github.com/cheggaaa/pb/v3"
)

// Model is what the loop needs from a network.
type Model interface {
	TrainStep(ctx context.Context, x, y [][][]float64) (float64, error)
	Forward(ctx context.Context, x [][][]float64) ([][][]float64, error)
}

// Options captures the knobs of the training loop.
type Options struct {
	Epochs             int
	IterationsPerEpoch int

	// Progress receives a progress bar per epoch. Nil disables it.
	Progress io.Writer

	// Report receives one summary line per epoch. Nil disables it.
	Report io.Writer

	Logger *slog.Logger
}

// DefaultOptions returns the standard three epochs of 100 iterations.
func DefaultOptions() Options {
	return Options{
		Epochs:             parameters.EPOCHS,
		IterationsPerEpoch: parameters.ITERATIONS_PER_EPOCH,
	}
}

// EpochReport summarises one epoch.
type EpochReport struct {
	Epoch         int
	TrainError    float64
	ValidError    float64
	ValidAccuracy float64
	Metrics       Snapshot
}

// Result is the outcome of a run.
type Result struct {
	Epochs []EpochReport

	// Predictions on the test windows after the final epoch, shaped like
	// Split.TestX.
	Predictions seismic.Tensor3

	TestError    float64
	TestAccuracy float64
}

// Run trains m on split.TrainX/TrainY, validating on the test windows after
// every epoch, and finally predicts the test windows.
func Run(ctx context.Context, m Model, split *seismic.Split, opts Options) (*Result, error) {
	if opts.Epochs <= 0 {
		return nil, errors.New("trainer: epochs must be > 0")
	}
	if opts.IterationsPerEpoch <= 0 {
		return nil, errors.New("trainer: iterations per epoch must be > 0")
	}
	if split == nil {
		return nil, errors.New("trainer: no data")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	res := &Result{}
	var window Window

	for epoch := 0; epoch < opts.Epochs; epoch++ {
		var bar *pb.ProgressBar
		if opts.Progress != nil {
			bar = pb.New(opts.IterationsPerEpoch).SetWriter(opts.Progress)
			bar.Set("prefix", fmt.Sprintf("epoch %d ", epoch))
			bar.Start()
		}

		for i := 0; i < opts.IterationsPerEpoch; i++ {
			if err := ctx.Err(); err != nil {
				finish(bar)
				return nil, err
			}

			start := time.Now()
			loss, err := m.TrainStep(ctx, split.TrainX, split.TrainY)
			if err != nil {
				finish(bar)
				return nil, fmt.Errorf("epoch %d iteration %d: %w", epoch, i, err)
			}
			window.Record(time.Since(start), loss)

			if bar != nil {
				bar.Increment()
			}
		}
		finish(bar)

		snap := window.Snapshot()
		validErr, validAcc, _, err := evaluate(ctx, m, split)
		if err != nil {
			return nil, fmt.Errorf("epoch %d validation: %w", epoch, err)
		}

		report := EpochReport{
			Epoch:         epoch,
			TrainError:    snap.MeanLoss,
			ValidError:    validErr,
			ValidAccuracy: validAcc,
			Metrics:       snap,
		}
		res.Epochs = append(res.Epochs, report)

		logger.Info("epoch finished",
			"epoch", epoch,
			"train_error", report.TrainError,
			"valid_error", report.ValidError,
			"valid_accuracy", report.ValidAccuracy,
			"steps_per_sec", snap.StepsPerSec,
			"compute_ms", snap.AvgComputeMS,
		)
		if opts.Report != nil {
			fmt.Fprintf(opts.Report, "Epoch %d, train error: %.2f, valid accuracy: %.1f %%\n",
				epoch, report.TrainError, report.ValidAccuracy*100.0)
		}
	}

	var err error
	res.TestError, res.TestAccuracy, res.Predictions, err = evaluate(ctx, m, split)
	if err != nil {
		return nil, fmt.Errorf("final evaluation: %w", err)
	}
	logger.Info("training finished", "test_error", res.TestError, "test_accuracy", res.TestAccuracy)

	return res, nil
}

func evaluate(ctx context.Context, m Model, split *seismic.Split) (float64, float64, seismic.Tensor3, error) {
	pred, err := m.Forward(ctx, split.TestX)
	if err != nil {
		return 0, 0, nil, err
	}
	loss, err := lstm.Loss(pred, split.TestY)
	if err != nil {
		return 0, 0, nil, err
	}
	acc, err := lstm.Accuracy(pred, split.TestY)
	if err != nil {
		return 0, 0, nil, err
	}
	return loss, acc, pred, nil
}

func finish(bar *pb.ProgressBar) {
	if bar != nil {
		bar.Finish()
	}
}
