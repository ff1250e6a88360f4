// package plotting renders the predicted vs. actual event probability of a
// training run.
package plotting

import (
	"fmt"

	"github.com/herclab/quake_lstm/pkg/seismic"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// Prediction builds the plot of predicted against actual values. Both series
// must cover the same readings.
func Prediction(predicted, actual *seismic.Series) (*plot.Plot, error) {
	if predicted.Size() != actual.Size() {
		return nil, fmt.Errorf("predicted has %d samples but actual has %d",
			predicted.Size(), actual.Size())
	}
	if predicted.Size() == 0 {
		return nil, fmt.Errorf("nothing to plot")
	}

	p := plot.New()
	p.Title.Text = "Predicted vs. actual"
	p.X.Label.Text = "P(E)"
	p.Y.Label.Text = "P(EQ > 5)"

	err := plotutil.AddLines(p,
		"Prediction", predicted.XYs(),
		"Actual", actual.XYs())
	if err != nil {
		return nil, err
	}

	return p, nil
}

// SavePrediction renders the plot to path. The image format follows the
// file extension (png, svg, pdf, ...).
func SavePrediction(path string, predicted, actual *seismic.Series) error {
	p, err := Prediction(predicted, actual)
	if err != nil {
		return err
	}

	if err := p.Save(10*vg.Inch, 6*vg.Inch, path); err != nil {
		return fmt.Errorf("saving plot: %w", err)
	}
	return nil
}
