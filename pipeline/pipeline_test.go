package pipeline

import (
	"math/rand/v2"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/dataset"
	"github.com/YuminosukeSato/petclassifier/dataset/datasettest"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/YuminosukeSato/petclassifier/pkg/log"
)

func quietLogger() log.Logger {
	l, _ := log.NewTestLogger(log.LevelError)
	return l
}

func testConfig(t *testing.T, opts ...ConfigOption) Config {
	t.Helper()
	base := []ConfigOption{
		WithImageSize(16),
		WithBatchSize(4),
		WithModelPath(filepath.Join(t.TempDir(), "cat_dog_classifier.gob")),
	}
	return DefaultConfig(append(base, opts...)...)
}

// trainModel fits a model on synthetic data and returns the config used.
func trainModel(t *testing.T, opts ...ConfigOption) Config {
	t.Helper()
	cfg := testConfig(t, opts...)
	ds, err := datasettest.Generate(cfg.Shape(), cfg.Classes, 10, 11)
	require.NoError(t, err)

	trainer, err := NewTrainer(cfg, WithTrainerLogger(quietLogger()))
	require.NoError(t, err)
	_, err = trainer.Train(ds, &dataset.Dataset{Classes: cfg.Classes})
	require.NoError(t, err)
	return cfg
}

func TestEndToEnd_TrainSavePredict(t *testing.T) {
	cfg := testConfig(t)
	ds, err := datasettest.Generate(cfg.Shape(), cfg.Classes, 12, 3)
	require.NoError(t, err)

	// 10 samples for training, 2 held out.
	p, err := dataset.Split(ds, 10.0/12.0, rand.New(rand.NewPCG(1, 1)))
	require.NoError(t, err)
	require.Equal(t, 10, p.Train.Len())

	trainer, err := NewTrainer(cfg, WithTrainerLogger(quietLogger()))
	require.NoError(t, err)
	history, err := trainer.Train(p.Train, p.Validation)
	require.NoError(t, err)
	assert.Len(t, history.Epochs, 10)
	assert.True(t, history.Epochs[0].HasValidation)
	assert.NotNil(t, trainer.Model())

	_, err = os.Stat(cfg.ModelPath)
	require.NoError(t, err)

	for _, img := range p.Validation.Images {
		label, confidence, err := Predict(img, cfg.ModelPath)
		require.NoError(t, err)
		assert.Contains(t, []string{"cat", "dog"}, label)
		assert.GreaterOrEqual(t, confidence, 0.0)
		assert.LessOrEqual(t, confidence, 1.0)
		assert.GreaterOrEqual(t, confidence, 0.5, "top class of two")
	}
}

func TestPredict_MissingModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nope.gob")
	img := tensor.NewImage(tensor.NewShape(16, 1))

	_, _, err := Predict(img, path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrModelNotFound))

	var notFound *errors.ModelNotFoundError
	require.True(t, errors.As(err, &notFound))
	assert.Equal(t, path, notFound.Path)

	_, statErr := os.Stat(path)
	assert.True(t, os.IsNotExist(statErr), "prediction must not create the model file")
}

func TestPredict_ShapeMismatch(t *testing.T) {
	cfg := trainModel(t, WithEpochs(1))

	_, _, err := Predict(tensor.NewImage(tensor.NewShape(16, 3)), cfg.ModelPath)
	var shapeErr *errors.InputShapeError
	require.True(t, errors.As(err, &shapeErr))
	assert.Equal(t, []int{16, 16, 1}, shapeErr.Expected)

	_, _, err = Predict(nil, cfg.ModelPath)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}

func TestPredict_CorruptModel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "corrupt.gob")
	require.NoError(t, os.WriteFile(path, []byte{0x01, 0x02, 0x03}, 0o644))

	_, _, err := Predict(tensor.NewImage(tensor.NewShape(16, 1)), path)
	var modelErr *errors.ModelError
	assert.True(t, errors.As(err, &modelErr))
}

func TestPredictor(t *testing.T) {
	cfg := trainModel(t, WithEpochs(2))

	logger, _ := log.NewTestLogger(log.LevelInfo)
	p, err := NewPredictor(cfg, WithPredictorLogger(logger))
	require.NoError(t, err)

	ds, err := datasettest.Generate(cfg.Shape(), cfg.Classes, 2, 99)
	require.NoError(t, err)

	pred, err := p.PredictImage(ds.Images[0])
	require.NoError(t, err)
	assert.Contains(t, cfg.Classes, pred.Label)
	assert.Len(t, pred.Probabilities, 2)
	assert.InDelta(t, 1.0, pred.Probabilities["cat"]+pred.Probabilities["dog"], 1e-9)
	assert.Equal(t, pred.Probabilities[pred.Label], pred.Confidence)
	assert.True(t, logger.ContainsField(log.LabelKey, pred.Label))

	// The input image is left untouched by scaling.
	assert.Greater(t, maxPix(ds.Images[1].Pix), 1.0)
	_, err = p.PredictImage(ds.Images[1])
	require.NoError(t, err)
	assert.Greater(t, maxPix(ds.Images[1].Pix), 1.0)
}

func TestPredictor_PredictFile(t *testing.T) {
	cfg := trainModel(t, WithEpochs(1))
	root, err := datasettest.WriteImageTree(t.TempDir(), cfg.Classes, 1, 40, 3, 5)
	require.NoError(t, err)

	p, err := NewPredictor(cfg, WithPredictorLogger(quietLogger()))
	require.NoError(t, err)

	prev := errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(prev)

	pred, err := p.PredictFile(filepath.Join(root, "dog", "000.png"))
	require.NoError(t, err)
	assert.Contains(t, cfg.Classes, pred.Label)

	_, err = p.PredictFile(filepath.Join(root, "dog", "missing.png"))
	assert.Error(t, err)
}

func TestPredictor_ClassMismatch(t *testing.T) {
	cfg := trainModel(t, WithEpochs(1))

	other := cfg
	other.Classes = []string{"dog", "cat"}
	p, err := NewPredictor(other, WithPredictorLogger(quietLogger()))
	require.NoError(t, err)

	_, err = p.PredictImage(tensor.NewImage(cfg.Shape()))
	var mismatch *errors.ClassMismatchError
	require.True(t, errors.As(err, &mismatch))
	assert.Equal(t, []string{"dog", "cat"}, mismatch.Expected)
	assert.Equal(t, []string{"cat", "dog"}, mismatch.Got)
}

func TestTrainer_TrainFromDirectory(t *testing.T) {
	prev := errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(prev)

	plot := filepath.Join(t.TempDir(), "history.png")
	cfg := testConfig(t, WithEpochs(2), WithHistoryPlot(plot))
	root, err := datasettest.WriteImageTree(t.TempDir(), cfg.Classes, 5, 20, 1, 8)
	require.NoError(t, err)

	trainer, err := NewTrainer(cfg, WithTrainerLogger(quietLogger()))
	require.NoError(t, err)
	history, err := trainer.TrainFromDirectory(root)
	require.NoError(t, err)
	assert.Len(t, history.Epochs, 2)

	_, err = os.Stat(cfg.ModelPath)
	assert.NoError(t, err)
	_, err = os.Stat(plot)
	assert.NoError(t, err)
}

func TestTrainer_Errors(t *testing.T) {
	cfg := testConfig(t)
	trainer, err := NewTrainer(cfg, WithTrainerLogger(quietLogger()))
	require.NoError(t, err)

	_, err = trainer.Train(&dataset.Dataset{Classes: cfg.Classes}, nil)
	assert.True(t, errors.Is(err, errors.ErrEmptyDataset))

	prev := errors.SetWarningHandler(func(error) {})
	defer errors.SetWarningHandler(prev)
	_, err = trainer.TrainFromDirectory(t.TempDir())
	assert.True(t, errors.Is(err, errors.ErrEmptyDataset))

	wrongShape, err := datasettest.Generate(tensor.NewShape(12, 1), cfg.Classes, 4, 1)
	require.NoError(t, err)
	_, err = trainer.Train(wrongShape, nil)
	var shapeErr *errors.InputShapeError
	assert.True(t, errors.As(err, &shapeErr))

	wrongClasses, err := datasettest.Generate(cfg.Shape(), []string{"bird", "fish"}, 4, 1)
	require.NoError(t, err)
	_, err = trainer.Train(wrongClasses, nil)
	var mismatch *errors.ClassMismatchError
	assert.True(t, errors.As(err, &mismatch))

	_, err = os.Stat(cfg.ModelPath)
	assert.True(t, os.IsNotExist(err), "failed training must not write a model")
}

func maxPix(pix []float64) float64 {
	m := pix[0]
	for _, v := range pix[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
