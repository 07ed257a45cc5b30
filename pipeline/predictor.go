package pipeline

import (
	"os"
	"slices"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/core/model"
	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/neural"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
	"github.com/YuminosukeSato/petclassifier/preprocessing"
)

// Prediction is the outcome of classifying one image.
type Prediction struct {
	Label string
	// Confidence is the largest softmax output, in [0, 1]. It is not
	// calibrated.
	Confidence    float64
	Probabilities map[string]float64
}

// Predict loads the model at modelPath and classifies img, whose pixels
// must be in [0, 255] and whose shape must match the model input. The
// model is read on every call.
func Predict(img *tensor.Image, modelPath string) (label string, confidence float64, err error) {
	clf, err := loadModel(modelPath, log.GetLogger())
	if err != nil {
		return "", 0, err
	}
	pred, err := classify(clf, img)
	if err != nil {
		return "", 0, err
	}
	return pred.Label, pred.Confidence, nil
}

// Predictor classifies images with the model named by a Config and checks
// that the model was trained on the configured classes.
type Predictor struct {
	cfg    Config
	logger log.Logger
}

// PredictorOption configures a Predictor.
type PredictorOption func(*Predictor)

// WithPredictorLogger sets the predictor logger.
func WithPredictorLogger(l log.Logger) PredictorOption {
	return func(p *Predictor) { p.logger = l }
}

// NewPredictor returns a Predictor for cfg.ModelPath.
func NewPredictor(cfg Config, opts ...PredictorOption) (*Predictor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p := &Predictor{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.logger == nil {
		p.logger = log.Named("pipeline.Predictor")
	}
	return p, nil
}

// PredictImage classifies an already decoded image.
func (p *Predictor) PredictImage(img *tensor.Image) (*Prediction, error) {
	clf, err := p.load()
	if err != nil {
		return nil, err
	}
	return p.predict(clf, img)
}

// PredictFile decodes the image at path into the model's input shape and
// classifies it.
func (p *Predictor) PredictFile(path string) (*Prediction, error) {
	clf, err := p.load()
	if err != nil {
		return nil, err
	}
	img, err := dataset.DecodeFile(path, clf.InputShape())
	if err != nil {
		return nil, err
	}
	return p.predict(clf, img)
}

func (p *Predictor) load() (*neural.Classifier, error) {
	clf, err := loadModel(p.cfg.ModelPath, p.logger)
	if err != nil {
		return nil, err
	}
	if !slices.Equal(clf.Classes(), p.cfg.Classes) {
		return nil, errors.NewClassMismatchError(p.cfg.Classes, clf.Classes())
	}
	return clf, nil
}

func (p *Predictor) predict(clf *neural.Classifier, img *tensor.Image) (*Prediction, error) {
	pred, err := classify(clf, img)
	if err != nil {
		return nil, err
	}
	p.logger.Info("Image classified",
		log.OperationKey, log.OperationPredict,
		log.ModelPathKey, p.cfg.ModelPath,
		log.LabelKey, pred.Label,
		log.ConfidenceKey, pred.Confidence,
	)
	return pred, nil
}

// loadModel checks for the file before reading so that a missing model is
// reported as ModelNotFoundError.
func loadModel(path string, logger log.Logger) (*neural.Classifier, error) {
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewModelNotFoundError(path)
		}
		return nil, errors.NewModelError("pipeline.Predict", "stat model", err)
	}
	return neural.Load(path, neural.WithLogger(logger))
}

// classify scales img, runs a batch of one through clf and picks the most
// probable class.
func classify(clf model.ImageClassifier, img *tensor.Image) (*Prediction, error) {
	if img == nil {
		return nil, errors.NewValidationError("image", "must not be nil", nil)
	}
	if err := img.CheckShape(log.PhaseInference, clf.InputShape()); err != nil {
		return nil, err
	}

	scaled := preprocessing.NewPixelScaler().TransformImage(img)
	proba, err := clf.PredictProba(scaled.Row())
	if err != nil {
		return nil, err
	}

	row := mat.Row(nil, 0, proba)
	classes := clf.Classes()
	if len(row) != len(classes) {
		return nil, errors.NewDimensionError("pipeline.classify", len(classes), len(row), 1)
	}
	best := floats.MaxIdx(row)

	pred := &Prediction{
		Label:         classes[best],
		Confidence:    row[best],
		Probabilities: make(map[string]float64, len(classes)),
	}
	for i, name := range classes {
		pred.Probabilities[name] = row[i]
	}
	return pred, nil
}
