package dataset

import (
	"math"
	"math/rand/v2"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// DefaultTrainFraction is the share of samples kept for training.
const DefaultTrainFraction = 0.8

// Partition is a disjoint, exhaustive partition of a Dataset.
type Partition struct {
	Train      *Dataset
	Validation *Dataset

	// TrainIndices and ValidationIndices are positions in the source dataset.
	TrainIndices      []int
	ValidationIndices []int
}

// Split shuffles ds with rng and keeps floor(N*trainFraction) samples
// (at least one) for training and the rest for validation.
// Validation may be empty; training never is.
// trainFraction must lie in (0, 1].
func Split(ds *Dataset, trainFraction float64, rng *rand.Rand) (*Partition, error) {
	if ds.Len() == 0 {
		return nil, errors.NewModelError("dataset.Split", "empty data", errors.ErrEmptyDataset)
	}
	if !(trainFraction > 0 && trainFraction <= 1) {
		return nil, errors.NewValidationError("train_fraction", "must be in (0, 1]", trainFraction)
	}
	if len(ds.Labels) != len(ds.Images) {
		return nil, errors.NewDimensionError("dataset.Split", len(ds.Images), len(ds.Labels), 0)
	}
	if rng == nil {
		rng = rand.New(rand.NewPCG(0, 0))
	}

	n := ds.Len()
	perm := rng.Perm(n)
	nTrain := max(1, int(math.Floor(float64(n)*trainFraction)))

	s := &Partition{
		TrainIndices:      perm[:nTrain],
		ValidationIndices: perm[nTrain:],
	}
	s.Train = ds.Subset(s.TrainIndices)
	s.Validation = ds.Subset(s.ValidationIndices)
	return s, nil
}
