package pipeline

import (
	"math/rand/v2"
	"slices"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/neural"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
	"github.com/YuminosukeSato/petclassifier/preprocessing"
)

// Trainer builds, fits and saves the classifier described by a Config.
type Trainer struct {
	cfg    Config
	logger log.Logger
	model  *neural.Classifier
}

// TrainerOption configures a Trainer.
type TrainerOption func(*Trainer)

// WithTrainerLogger sets the logger for the trainer and the model it builds.
func WithTrainerLogger(l log.Logger) TrainerOption {
	return func(t *Trainer) { t.logger = l }
}

// NewTrainer validates cfg and returns a Trainer.
func NewTrainer(cfg Config, opts ...TrainerOption) (*Trainer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	t := &Trainer{cfg: cfg}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.Named("pipeline.Trainer")
	}
	return t, nil
}

// Model returns the classifier from the last successful Train call.
func (t *Trainer) Model() *neural.Classifier { return t.model }

// Train fits a fresh network on train, evaluates on val after every epoch
// when val is non-empty, and saves the result to Config.ModelPath,
// replacing any existing file.
func (t *Trainer) Train(train, val *dataset.Dataset) (*neural.History, error) {
	start := time.Now()
	if train.Len() == 0 {
		return nil, errors.WithStack(errors.ErrEmptyDataset)
	}

	X, Y, err := t.prepare(train)
	if err != nil {
		return nil, err
	}
	var Xval, Yval mat.Matrix
	if val.Len() > 0 {
		vx, vy, err := t.prepare(val)
		if err != nil {
			return nil, err
		}
		Xval, Yval = vx, vy
	}

	clf, err := neural.NewCatDogNetwork(t.cfg.Shape(), t.cfg.Classes,
		neural.WithEpochs(t.cfg.Epochs),
		neural.WithBatchSize(t.cfg.BatchSize),
		neural.WithLearningRate(t.cfg.LearningRate),
		neural.WithRandomState(t.cfg.Seed),
		neural.WithLogger(t.logger),
	)
	if err != nil {
		return nil, err
	}
	t.logger.Debug("Model built",
		log.ModelNameKey, neural.ModelName,
		"model.params", clf.Network().NumParams(),
		"model.summary", clf.Summary(),
	)

	history, err := clf.FitValidated(X, Y, Xval, Yval)
	if err != nil {
		return history, err
	}

	if err := clf.Save(t.cfg.ModelPath); err != nil {
		return history, err
	}
	if t.cfg.HistoryPlot != "" {
		if err := history.SavePlot(t.cfg.HistoryPlot); err != nil {
			return history, err
		}
	}
	t.model = clf

	fields := []any{
		log.OperationKey, log.OperationFit,
		log.ModelPathKey, t.cfg.ModelPath,
		log.SamplesKey, train.Len(),
		log.DurationMsKey, time.Since(start).Milliseconds(),
	}
	if last, ok := history.Last(); ok {
		fields = append(fields, log.LossKey, last.Loss, log.AccuracyKey, last.Accuracy)
	}
	t.logger.Info("Training finished", fields...)
	return history, nil
}

// TrainFromDirectory loads root with the configured shape and classes,
// splits it by Config.TrainFraction and trains on the result.
func (t *Trainer) TrainFromDirectory(root string) (*neural.History, error) {
	ds, err := dataset.NewLoader(t.cfg.Shape(), t.cfg.Classes, dataset.WithLogger(t.logger)).Load(root)
	if err != nil {
		return nil, err
	}
	split, err := dataset.Split(ds, t.cfg.TrainFraction, rand.New(rand.NewPCG(t.cfg.Seed, 0)))
	if err != nil {
		return nil, err
	}
	t.logger.Info("Dataset split",
		log.PhaseKey, log.PhasePreprocessing,
		log.SamplesKey, ds.Len(),
		"data.train_samples", split.Train.Len(),
		"data.validation_samples", split.Validation.Len(),
	)
	return t.Train(split.Train, split.Validation)
}

// prepare checks ds against the config and returns scaled pixels and
// one-hot labels.
func (t *Trainer) prepare(ds *dataset.Dataset) (*mat.Dense, *mat.Dense, error) {
	if !slices.Equal(ds.Classes, t.cfg.Classes) {
		return nil, nil, errors.NewClassMismatchError(t.cfg.Classes, ds.Classes)
	}
	shape := t.cfg.Shape()
	for _, im := range ds.Images {
		if err := im.CheckShape(log.PhaseTraining, shape); err != nil {
			return nil, nil, err
		}
	}
	if err := ds.Validate(); err != nil {
		return nil, nil, err
	}

	X, err := ds.Matrix()
	if err != nil {
		return nil, nil, err
	}
	Y, err := preprocessing.NewOneHotEncoder(len(t.cfg.Classes)).Transform(ds.Labels)
	if err != nil {
		return nil, nil, err
	}
	return preprocessing.NewPixelScaler().Transform(X), Y, nil
}
