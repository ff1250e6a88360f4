package trainer

import "time"

// Window accumulates per-step stats across one epoch.
type Window struct {
	steps   int
	compute time.Duration
	loss    float64
	last    float64
}

// Record adds a new measurement to the window.
func (w *Window) Record(compute time.Duration, loss float64) {
	w.steps++
	w.compute += compute
	w.loss += loss
	w.last = loss
}

// Snapshot returns aggregated metrics and resets the window.
func (w *Window) Snapshot() Snapshot {
	snap := Snapshot{Steps: w.steps, LastLoss: w.last}
	if w.steps > 0 {
		snap.MeanLoss = w.loss / float64(w.steps)
		snap.AvgComputeMS = (w.compute.Seconds() * 1000) / float64(w.steps)
	}
	if w.compute > 0 {
		snap.StepsPerSec = float64(w.steps) / w.compute.Seconds()
	}

	*w = Window{}
	return snap
}

// Snapshot represents loggable metrics.
type Snapshot struct {
	Steps        int
	MeanLoss     float64
	LastLoss     float64
	AvgComputeMS float64
	StepsPerSec  float64
}
