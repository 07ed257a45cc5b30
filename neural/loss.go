package neural

import (
	"github.com/YuminosukeSato/petclassifier/metrics"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// crossEntropy returns the categorical cross-entropy of one sample and its
// gradient w.r.t. the predicted probabilities, -t/p with p clipped.
func crossEntropy(target, proba []float64) (float64, []float64) {
	grad := make([]float64, len(proba))
	for k, t := range target {
		if t == 0 {
			continue
		}
		grad[k] = -t / errors.ClipProbability(proba[k], metrics.DefaultEpsilon)
	}
	return metrics.SampleCrossEntropy(target, proba), grad
}
