package neural

import (
	"time"

	"github.com/YuminosukeSato/petclassifier/core/model"
	"github.com/YuminosukeSato/petclassifier/core/tensor"
)

// formatVersion is bumped whenever artifact changes incompatibly.
const formatVersion = 1

// artifact is the gob-encoded form of a Classifier.
type artifact struct {
	Version    int
	InputShape tensor.Shape
	Classes    []string
	Layers     []LayerSpec
	Params     [][][]float64
	Optimizer  Adam

	Epochs       int
	BatchSize    int
	LearningRate float64
	Seed         uint64

	State     model.ModelState
	CreatedAt time.Time
}
