package pipeline

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 64, cfg.ImageSize)
	assert.Equal(t, 1, cfg.Channels)
	assert.Equal(t, []string{"cat", "dog"}, cfg.Classes)
	assert.Equal(t, 10, cfg.Epochs)
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, 0.8, cfg.TrainFraction)
	assert.Equal(t, 0.001, cfg.LearningRate)
	assert.Equal(t, tensor.Shape{Height: 64, Width: 64, Channels: 1}, cfg.Shape())
	require.NoError(t, cfg.Validate())

	// Mutating one config must not leak into the defaults.
	cfg.Classes[0] = "bird"
	assert.Equal(t, "cat", DefaultConfig().Classes[0])
}

func TestConfigOptions(t *testing.T) {
	cfg := DefaultConfig(
		WithImageSize(32),
		WithChannels(3),
		WithClasses("a", "b", "c"),
		WithEpochs(3),
		WithBatchSize(8),
		WithTrainFraction(0.5),
		WithLearningRate(0.01),
		WithSeed(9),
		WithModelPath("m.gob"),
		WithDataDir("imgs"),
		WithHistoryPlot("h.svg"),
	)

	assert.Equal(t, tensor.NewShape(32, 3), cfg.Shape())
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Classes)
	assert.Equal(t, 3, cfg.Epochs)
	assert.Equal(t, 8, cfg.BatchSize)
	assert.Equal(t, 0.5, cfg.TrainFraction)
	assert.Equal(t, 0.01, cfg.LearningRate)
	assert.Equal(t, uint64(9), cfg.Seed)
	assert.Equal(t, "m.gob", cfg.ModelPath)
	assert.Equal(t, "imgs", cfg.DataDir)
	assert.Equal(t, "h.svg", cfg.HistoryPlot)
	assert.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name  string
		opt   ConfigOption
		param string
	}{
		{"image size", WithImageSize(0), "image_size"},
		{"channels", WithChannels(2), "channels"},
		{"one class", WithClasses("cat"), "classes"},
		{"duplicate classes", WithClasses("cat", "cat"), "classes"},
		{"epochs", WithEpochs(0), "epochs"},
		{"batch size", WithBatchSize(0), "batch_size"},
		{"fraction zero", WithTrainFraction(0), "train_fraction"},
		{"fraction above one", WithTrainFraction(1.5), "train_fraction"},
		{"learning rate", WithLearningRate(-1), "learning_rate"},
		{"model path", WithModelPath(""), "model_path"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := DefaultConfig(tt.opt).Validate()
			var valErr *errors.ValidationError
			require.True(t, errors.As(err, &valErr))
			assert.Equal(t, tt.param, valErr.ParamName)
		})
	}
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"image_size": 32,
		"channels": 3,
		"epochs": 5,
		"model_path": "out/model.gob"
	}`), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, 32, cfg.ImageSize)
	assert.Equal(t, 3, cfg.Channels)
	assert.Equal(t, 5, cfg.Epochs)
	assert.Equal(t, "out/model.gob", cfg.ModelPath)
	// Unset keys keep their defaults.
	assert.Equal(t, 32, cfg.BatchSize)
	assert.Equal(t, []string{"cat", "dog"}, cfg.Classes)
}

func TestLoadConfig_Errors(t *testing.T) {
	dir := t.TempDir()

	_, err := LoadConfig(filepath.Join(dir, "missing.json"))
	assert.Error(t, err)

	unknown := filepath.Join(dir, "unknown.json")
	require.NoError(t, os.WriteFile(unknown, []byte(`{"img_size": 32}`), 0o644))
	_, err = LoadConfig(unknown)
	assert.Error(t, err)

	invalid := filepath.Join(dir, "invalid.json")
	require.NoError(t, os.WriteFile(invalid, []byte(`{"epochs": -1}`), 0o644))
	_, err = LoadConfig(invalid)
	var valErr *errors.ValidationError
	assert.True(t, errors.As(err, &valErr))
}
