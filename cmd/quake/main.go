package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/herclab/quake_lstm/config"
	"github.com/herclab/quake_lstm/lstm"
	"github.com/herclab/quake_lstm/pkg/seismic"
	"github.com/herclab/quake_lstm/plotting"
	"github.com/herclab/quake_lstm/trainer"

	"github.com/akamensky/argparse"
	"github.com/google/uuid"
)

func main() {
	parser := argparse.NewParser("quake", "train an LSTM to predict high magnitude earthquakes")

	datafile := parser.String("d", "data", &argparse.Options{Help: "Dataset CSV, downloaded if missing."})
	dataurl := parser.String("u", "url", &argparse.Options{Help: "Where to download the dataset from."})
	saveplot := parser.String("p", "saveplot", &argparse.Options{Help: "Save the prediction plot in this file."})
	savemodel := parser.String("m", "savemodel", &argparse.Options{Help: "Save the trained model in this file."})
	loadmodel := parser.String("r", "restore", &argparse.Options{Help: "Start from a model saved with --savemodel."})
	epochs := parser.Int("e", "epochs", &argparse.Options{Help: "Number of epochs."})
	iterations := parser.Int("i", "iterations", &argparse.Options{Help: "Training iterations per epoch."})
	batch := parser.Int("b", "batch", &argparse.Options{Help: "Batch size (readings per timestep)."})
	hidden := parser.Int("H", "hidden", &argparse.Options{Help: "LSTM hidden units."})
	rate := parser.Float("l", "learning-rate", &argparse.Options{Help: "Adam learning rate."})
	seed := parser.Int("s", "seed", &argparse.Options{Help: "Weight initialisation seed."})
	workers := parser.Int("w", "workers", &argparse.Options{Help: "Batch columns processed in parallel."})
	synthetic := parser.Flag("S", "synthetic", &argparse.Options{Help: "Train on generated data instead of the dataset."})
	standardize := parser.Flag("z", "standardize", &argparse.Options{Help: "Z-score the power readings before training."})
	verbose := parser.Flag("v", "verbose", &argparse.Options{Help: "Enable debug logging."})

	if err := parser.Parse(os.Args); err != nil {
		fmt.Print(parser.Usage(err))
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	cfg.ApplyOverrides(config.Overrides{
		DataURL:            *dataurl,
		DataFile:           *datafile,
		SavePlot:           *saveplot,
		SaveModel:          *savemodel,
		LoadModel:          *loadmodel,
		Epochs:             *epochs,
		IterationsPerEpoch: *iterations,
		Batch:              *batch,
		Hidden:             *hidden,
		LearningRate:       *rate,
		Seed:               int64(*seed),
		Workers:            *workers,
		Synthetic:          *synthetic,
		Standardize:        *standardize,
		Verbose:            *verbose,
	})

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "invalid config: %v\n", err)
		os.Exit(1)
	}

	runID := uuid.NewString()
	logger := config.NewLogger(os.Stderr, cfg.Env, cfg.Verbose).With("run_id", runID)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, runID, logger); err != nil {
		logger.Error("run failed", "error", err)
		stop()
		os.Exit(1)
	}
}

func loadDataset(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*seismic.Dataset, error) {
	if cfg.Synthetic {
		p := seismic.DefaultSyntheticParameters(cfg.Rows())
		p.Seed = cfg.Seed
		logger.Info("generating synthetic dataset", "rows", p.Rows)
		return p.Generate()
	}

	client := &http.Client{Timeout: 2 * time.Minute}
	fetched, err := seismic.Acquire(ctx, client, cfg.DataURL, cfg.DataFile)
	if err != nil {
		return nil, err
	}
	if fetched {
		logger.Info("downloaded dataset", "url", cfg.DataURL, "file", cfg.DataFile)
	}

	return seismic.Load(cfg.DataFile)
}

func loadModel(cfg *config.Config) (*lstm.Model, error) {
	if cfg.LoadModel != "" {
		m, err := lstm.LoadSnapshot(cfg.LoadModel)
		if err != nil {
			return nil, err
		}
		m.Hyper.Workers = cfg.Workers
		return m, nil
	}

	h := lstm.DefaultHyper()
	h.Hidden = cfg.Hidden
	h.LearningRate = cfg.LearningRate
	h.Seed = cfg.Seed
	h.Workers = cfg.Workers
	return lstm.NewModel(h)
}

func run(ctx context.Context, cfg *config.Config, runID string, logger *slog.Logger) error {
	d, err := loadDataset(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("acquiring data: %w", err)
	}
	logger.Debug("dataset loaded", "rows", d.Size())

	split, err := seismic.MakeSplit(d, seismic.SplitOptions{
		Batch:        cfg.Batch,
		TrainWindows: cfg.TrainWindows,
		TestWindows:  cfg.TestWindows,
		Standardize:  cfg.Standardize,
	})
	if err != nil {
		return err
	}

	m, err := loadModel(cfg)
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	logger.Info("model ready",
		"hidden", m.Hyper.Hidden,
		"params", m.NumParams(),
		"restored", cfg.LoadModel != "",
	)

	res, err := trainer.Run(ctx, m, split, trainer.Options{
		Epochs:             cfg.Epochs,
		IterationsPerEpoch: cfg.IterationsPerEpoch,
		Progress:           os.Stderr,
		Report:             os.Stdout,
		Logger:             logger,
	})
	if err != nil {
		return err
	}
	fmt.Printf("Test error: %.4f, test accuracy: %.1f %%\n", res.TestError, res.TestAccuracy*100.0)

	if cfg.SaveModel != "" {
		if err := m.SaveSnapshot(cfg.SaveModel, runID); err != nil {
			return err
		}
		logger.Info("saved model", "file", cfg.SaveModel)
	}

	if cfg.SavePlot != "" {
		actual, err := d.HighMagSeries().Slice(split.TestLo, split.TestHi)
		if err != nil {
			return err
		}
		predicted := &seismic.Series{
			Name: "prediction",
			T:    actual.T,
			S:    res.Predictions.Flatten(),
		}
		if err := plotting.SavePrediction(cfg.SavePlot, predicted, actual); err != nil {
			return err
		}
		logger.Info("saved plot", "file", cfg.SavePlot)
	}

	return nil
}
