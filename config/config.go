// package config holds the runtime settings of a quake training run.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/herclab/quake_lstm/lstm/parameters"
)

// Config captures the runtime knobs for a training run.
type Config struct {
	DataURL  string
	DataFile string

	SavePlot  string
	SaveModel string
	LoadModel string

	Epochs             int
	IterationsPerEpoch int
	Batch              int
	TrainWindows       int
	TestWindows        int

	Hidden       int
	LearningRate float64
	Seed         int64
	Workers      int

	Synthetic   bool
	Standardize bool

	Env     string
	Verbose bool
}

// Overrides captures CLI supplied values. Zero values leave the setting
// alone.
type Overrides struct {
	DataURL            string
	DataFile           string
	SavePlot           string
	SaveModel          string
	LoadModel          string
	Epochs             int
	IterationsPerEpoch int
	Batch              int
	Hidden             int
	LearningRate       float64
	Seed               int64
	Workers            int
	Synthetic          bool
	Standardize        bool
	Verbose            bool
}

// Load returns the default experiment settings, with the data
// location, environment and worker count taken from QUAKE_DATA_URL,
// QUAKE_DATA_FILE, ENV and QUAKE_WORKERS when set.
func Load() (*Config, error) {
	cfg := &Config{
		DataURL:            getEnv("QUAKE_DATA_URL", parameters.DATA_URL),
		DataFile:           getEnv("QUAKE_DATA_FILE", parameters.DATA_FILE),
		Epochs:             parameters.EPOCHS,
		IterationsPerEpoch: parameters.ITERATIONS_PER_EPOCH,
		Batch:              parameters.BATCH_SIZE,
		TrainWindows:       parameters.TRAIN_WINDOWS,
		TestWindows:        parameters.TEST_WINDOWS,
		Hidden:             parameters.RNN_HIDDEN,
		LearningRate:       parameters.LEARNING_RATE,
		Seed:               parameters.SEED,
		Env:                getEnv("ENV", "development"),
	}

	if v := os.Getenv("QUAKE_WORKERS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("QUAKE_WORKERS: %w", err)
		}
		cfg.Workers = n
	}

	return cfg, nil
}

// ApplyOverrides updates c using any non-zero override.
func (c *Config) ApplyOverrides(o Overrides) {
	if o.DataURL != "" {
		c.DataURL = o.DataURL
	}
	if o.DataFile != "" {
		c.DataFile = o.DataFile
	}
	if o.SavePlot != "" {
		c.SavePlot = o.SavePlot
	}
	if o.SaveModel != "" {
		c.SaveModel = o.SaveModel
	}
	if o.LoadModel != "" {
		c.LoadModel = o.LoadModel
	}
	if o.Epochs > 0 {
		c.Epochs = o.Epochs
	}
	if o.IterationsPerEpoch > 0 {
		c.IterationsPerEpoch = o.IterationsPerEpoch
	}
	if o.Batch > 0 {
		c.Batch = o.Batch
	}
	if o.Hidden > 0 {
		c.Hidden = o.Hidden
	}
	if o.LearningRate > 0 {
		c.LearningRate = o.LearningRate
	}
	if o.Seed != 0 {
		c.Seed = o.Seed
	}
	if o.Workers > 0 {
		c.Workers = o.Workers
	}
	if o.Synthetic {
		c.Synthetic = true
	}
	if o.Standardize {
		c.Standardize = true
	}
	if o.Verbose {
		c.Verbose = true
	}
}

// Validate verifies the config is runnable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}
	if !c.Synthetic && c.DataFile == "" {
		return errors.New("a data file is required unless running on synthetic data")
	}
	if c.Epochs <= 0 {
		return fmt.Errorf("epochs must be > 0 (got %d)", c.Epochs)
	}
	if c.IterationsPerEpoch <= 0 {
		return fmt.Errorf("iterations must be > 0 (got %d)", c.IterationsPerEpoch)
	}
	if c.Batch <= 0 {
		return fmt.Errorf("batch must be > 0 (got %d)", c.Batch)
	}
	if c.TrainWindows <= 0 || c.TestWindows <= 0 {
		return fmt.Errorf("train and test windows must be > 0 (got %d, %d)", c.TrainWindows, c.TestWindows)
	}
	if c.Hidden <= 0 {
		return fmt.Errorf("hidden must be > 0 (got %d)", c.Hidden)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("learning rate must be > 0 (got %g)", c.LearningRate)
	}
	if c.Workers < 0 {
		return fmt.Errorf("workers must not be negative (got %d)", c.Workers)
	}
	return nil
}

// Rows returns the number of readings the configured windows consume.
func (c *Config) Rows() int {
	return (c.TrainWindows + c.TestWindows) * c.Batch
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
