// Package model provides the interfaces through which the pipeline talks to a
// numeric engine, plus fitted-state tracking and gob persistence helpers.
package model

import (
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
)

// Scorer is the interface for models that can compute a score.
type Scorer interface {
	// Score returns the mean accuracy on X against one-hot labels y.
	Score(X mat.Matrix, y mat.Matrix) (float64, error)
}

// Persistable is the interface for models that can be saved and loaded.
type Persistable interface {
	// Save writes the complete model to a file, replacing any existing file.
	Save(path string) error

	// Load replaces the receiver's state with the model stored at path.
	Load(path string) error
}

// Classifier combines prediction interfaces for classification models.
type Classifier interface {
	Predictor
	ProbaPredictor

	// Classes returns the ordered class names the model was built for.
	Classes() []string
}

// TrainableClassifier is the capability the training pipeline needs:
// fit, predict probabilities, save and load.
type TrainableClassifier interface {
	Fitter
	Classifier
	Scorer
	Persistable
}

// ImageClassifier is a Classifier whose rows are flattened images of a
// fixed shape.
type ImageClassifier interface {
	Classifier

	// InputShape returns the shape every input image must have.
	InputShape() tensor.Shape
}
