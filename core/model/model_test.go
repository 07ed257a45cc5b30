package model

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type artifact struct {
	Classes []string
	Weights []float64
	State   ModelState
}

func TestStateManager(t *testing.T) {
	s := NewStateManager()
	assert.False(t, s.IsFitted())

	err := s.RequireFitted("CatDogCNN", "Predict")
	var notFitted *errors.NotFittedError
	require.True(t, errors.As(err, &notFitted))
	assert.Equal(t, "Predict", notFitted.Method)

	s.MarkFitted(4096, 10, 10)
	s.MarkFitted(4096, 12, 5)
	assert.NoError(t, s.RequireFitted("CatDogCNN", "Predict"))

	nFeatures, nSamples := s.GetDimensions()
	assert.Equal(t, 4096, nFeatures)
	assert.Equal(t, 12, nSamples)

	state := s.GetState()
	assert.Equal(t, 15, state.Epochs)
	assert.False(t, state.TrainedAt.IsZero())

	restored := NewStateManager()
	restored.SetState(state)
	assert.Equal(t, state, restored.GetState())

	s.Reset()
	assert.False(t, s.IsFitted())
	assert.Equal(t, 0, s.GetState().Epochs)
}

func TestSaveLoadModel(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "model.gob")

	in := artifact{Classes: []string{"cat", "dog"}, Weights: []float64{0.5, -1.25}, State: ModelState{Fitted: true, Epochs: 10}}
	require.NoError(t, SaveModel(&in, path))

	var out artifact
	require.NoError(t, LoadModel(&out, path))
	assert.Equal(t, in.Classes, out.Classes)
	assert.Equal(t, in.Weights, out.Weights)
	assert.Equal(t, 10, out.State.Epochs)

	// overwrite keeps exactly one file and no temp leftovers
	in.Weights = []float64{3}
	require.NoError(t, SaveModel(&in, path))
	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, LoadModel(&out, path))
	assert.Equal(t, []float64{3}, out.Weights)
}

func TestLoadModelErrors(t *testing.T) {
	dir := t.TempDir()

	var out artifact
	err := LoadModel(&out, filepath.Join(dir, "missing.gob"))
	assert.True(t, errors.Is(err, errors.ErrModelNotFound))

	corrupt := filepath.Join(dir, "corrupt.gob")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a gob stream"), 0o644))
	err = LoadModel(&out, corrupt)
	var modelErr *errors.ModelError
	require.True(t, errors.As(err, &modelErr))
	assert.Equal(t, "decode model", modelErr.Kind)
}

func TestWriterRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SaveModelToWriter(artifact{Classes: []string{"a"}}, &buf))

	var out artifact
	require.NoError(t, LoadModelFromReader(&out, &buf))
	assert.Equal(t, []string{"a"}, out.Classes)
}
