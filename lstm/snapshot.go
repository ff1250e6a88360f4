package lstm

import (
	"encoding/json"
	"fmt"
	"os"
)

// Snapshot is the on-disk form of a trained model. Optimizer moments are
// not stored, so a restored model resumes training with a fresh Adam state.
type Snapshot struct {
	RunID        string  `json:"run_id,omitempty"`
	Steps        int     `json:"steps"`
	In           int     `json:"in"`
	Hidden       int     `json:"hidden"`
	Out          int     `json:"out"`
	LearningRate float64 `json:"learning_rate"`
	ForgetBias   float64 `json:"forget_bias"`
	Seed         int64   `json:"seed"`

	CellWeight           []float64 `json:"cell_weight"`
	CellBias             []float64 `json:"cell_bias"`
	ProjectionWeight     []float64 `json:"projection_weight"`
	ProjectionBias       []float64 `json:"projection_bias"`
	ProjectionActivation string    `json:"projection_activation"`
	OutputWeighting      float64   `json:"output_weighting"`
}

// Snapshot captures the model's current weights. The returned value shares
// no memory with the model.
func (m *Model) Snapshot(runID string) *Snapshot {
	return &Snapshot{
		RunID:                runID,
		Steps:                m.Steps(),
		In:                   m.Hyper.In,
		Hidden:               m.Hyper.Hidden,
		Out:                  m.Hyper.Out,
		LearningRate:         m.Hyper.LearningRate,
		ForgetBias:           m.Hyper.ForgetBias,
		Seed:                 m.Hyper.Seed,
		CellWeight:           append([]float64(nil), m.Cell.Weight...),
		CellBias:             append([]float64(nil), m.Cell.Bias...),
		ProjectionWeight:     append([]float64(nil), m.Projection.Weight...),
		ProjectionBias:       append([]float64(nil), m.Projection.Bias...),
		ProjectionActivation: m.Projection.Act.Name,
		OutputWeighting:      m.OutputWeighting[0],
	}
}

// Restore builds a model from a snapshot.
func (s *Snapshot) Restore() (*Model, error) {
	act, ok := ActivationByName(s.ProjectionActivation)
	if !ok {
		return nil, fmt.Errorf("unknown projection activation %q", s.ProjectionActivation)
	}

	m, err := NewModel(Hyper{
		In:           s.In,
		Hidden:       s.Hidden,
		Out:          s.Out,
		LearningRate: s.LearningRate,
		ForgetBias:   s.ForgetBias,
		Seed:         s.Seed,
	})
	if err != nil {
		return nil, err
	}

	for _, c := range []struct {
		name     string
		dst, src []float64
	}{
		{"cell_weight", m.Cell.Weight, s.CellWeight},
		{"cell_bias", m.Cell.Bias, s.CellBias},
		{"projection_weight", m.Projection.Weight, s.ProjectionWeight},
		{"projection_bias", m.Projection.Bias, s.ProjectionBias},
	} {
		if len(c.dst) != len(c.src) {
			return nil, fmt.Errorf("%s has %d values, expected %d", c.name, len(c.src), len(c.dst))
		}
		copy(c.dst, c.src)
	}
	m.Projection.Act = act
	m.OutputWeighting[0] = s.OutputWeighting

	return m, nil
}

// SaveSnapshot writes the model to path as JSON.
func (m *Model) SaveSnapshot(path, runID string) error {
	data, err := json.MarshalIndent(m.Snapshot(runID), "", "  ")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

// LoadSnapshot reads a model previously written by SaveSnapshot.
func LoadSnapshot(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	s := &Snapshot{}
	if err := json.Unmarshal(data, s); err != nil {
		return nil, fmt.Errorf("decoding snapshot %s: %w", path, err)
	}
	return s.Restore()
}
