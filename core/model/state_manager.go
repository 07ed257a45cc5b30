// Package model provides state management for machine learning models.
package model

import (
	"sync"
	"time"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// StateManager tracks whether a model has been fitted and what it was fitted on.
// It is safe for concurrent use.
type StateManager struct {
	mu sync.RWMutex

	fitted    bool
	nFeatures int
	nSamples  int
	epochs    int
	trainedAt time.Time
}

// NewStateManager creates a new StateManager instance.
func NewStateManager() *StateManager {
	return &StateManager{}
}

// IsFitted returns whether the model has been fitted.
func (s *StateManager) IsFitted() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.fitted
}

// MarkFitted records a completed training run of the given number of epochs
// over nSamples samples of nFeatures values each. Epochs accumulate across
// runs so that resumed training keeps an accurate count.
func (s *StateManager) MarkFitted(nFeatures, nSamples, epochs int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = true
	s.nFeatures = nFeatures
	s.nSamples = nSamples
	s.epochs += epochs
	s.trainedAt = time.Now().UTC()
}

// Reset resets the fitted state.
func (s *StateManager) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fitted = false
	s.nFeatures = 0
	s.nSamples = 0
	s.epochs = 0
	s.trainedAt = time.Time{}
}

// GetDimensions returns the number of features and samples seen during fitting.
func (s *StateManager) GetDimensions() (nFeatures, nSamples int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nFeatures, s.nSamples
}

// RequireFitted returns a NotFittedError if the model has not been fitted.
func (s *StateManager) RequireFitted(modelName, method string) error {
	if !s.IsFitted() {
		return errors.NewNotFittedError(modelName, method)
	}
	return nil
}

// ModelState is the serializable snapshot of a StateManager.
type ModelState struct {
	Fitted    bool      `json:"fitted"`
	NFeatures int       `json:"n_features,omitempty"`
	NSamples  int       `json:"n_samples,omitempty"`
	Epochs    int       `json:"epochs,omitempty"`
	TrainedAt time.Time `json:"trained_at,omitempty"`
}

// GetState returns the current state as a ModelState struct.
func (s *StateManager) GetState() ModelState {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return ModelState{
		Fitted:    s.fitted,
		NFeatures: s.nFeatures,
		NSamples:  s.nSamples,
		Epochs:    s.epochs,
		TrainedAt: s.trainedAt,
	}
}

// SetState sets the state from a ModelState struct.
func (s *StateManager) SetState(state ModelState) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.fitted = state.Fitted
	s.nFeatures = state.NFeatures
	s.nSamples = state.NSamples
	s.epochs = state.Epochs
	s.trainedAt = state.TrainedAt
}
