package neural

import (
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// EpochStats are the metrics recorded at the end of one epoch.
type EpochStats struct {
	Epoch       int
	Loss        float64
	Accuracy    float64
	ValLoss     float64
	ValAccuracy float64
	// HasValidation is false when no validation data was supplied.
	HasValidation bool
	Duration      time.Duration
}

// History collects per-epoch metrics of a training run.
type History struct {
	Epochs []EpochStats
}

// Last returns the stats of the final epoch.
func (h *History) Last() (EpochStats, bool) {
	if h == nil || len(h.Epochs) == 0 {
		return EpochStats{}, false
	}
	return h.Epochs[len(h.Epochs)-1], true
}

// Series returns one metric per epoch. name is one of "loss", "accuracy",
// "val_loss" or "val_accuracy".
func (h *History) Series(name string) []float64 {
	out := make([]float64, 0, len(h.Epochs))
	for _, e := range h.Epochs {
		switch name {
		case "loss":
			out = append(out, e.Loss)
		case "accuracy":
			out = append(out, e.Accuracy)
		case "val_loss":
			if e.HasValidation {
				out = append(out, e.ValLoss)
			}
		case "val_accuracy":
			if e.HasValidation {
				out = append(out, e.ValAccuracy)
			}
		}
	}
	return out
}

// SavePlot draws the loss and accuracy curves and writes them to path. The
// image format follows the extension (png, svg, pdf, ...).
func (h *History) SavePlot(path string) error {
	if h == nil || len(h.Epochs) == 0 {
		return errors.NewModelError("History.SavePlot", "empty history", errors.ErrEmptyData)
	}
	if filepath.Ext(path) == "" {
		return errors.NewValidationError("path", "needs an image extension such as .png or .svg", path)
	}

	p := plot.New()
	p.Title.Text = "Training history"
	p.X.Label.Text = "epoch"
	p.Y.Label.Text = "value"

	var lines []interface{}
	for _, name := range []string{"loss", "accuracy", "val_loss", "val_accuracy"} {
		series := h.Series(name)
		if len(series) == 0 {
			continue
		}
		lines = append(lines, name, toXYs(series))
	}
	if err := plotutil.AddLinePoints(p, lines...); err != nil {
		return errors.Wrap(err, "build history plot")
	}

	if err := p.Save(6*vg.Inch, 4*vg.Inch, path); err != nil {
		return errors.Wrapf(err, "save history plot %s", path)
	}
	return nil
}

func toXYs(series []float64) plotter.XYs {
	pts := make(plotter.XYs, len(series))
	for i, v := range series {
		pts[i].X = float64(i + 1)
		pts[i].Y = v
	}
	return pts
}
