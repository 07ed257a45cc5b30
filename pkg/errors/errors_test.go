package errors

import (
	"fmt"
	"math"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewModelError(t *testing.T) {
	tests := []struct {
		name    string
		op      string
		kind    string
		err     error
		wantMsg string
	}{
		{
			name:    "with original error",
			op:      "Load",
			kind:    "decode failed",
			err:     fmt.Errorf("unexpected EOF"),
			wantMsg: "petclassifier: Load: decode failed: unexpected EOF",
		},
		{
			name:    "without original error",
			op:      "Save",
			kind:    "not fitted",
			wantMsg: "petclassifier: Save: not fitted",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewModelError(tt.op, tt.kind, tt.err)
			assert.Equal(t, tt.wantMsg, err.Error())

			formatted := fmt.Sprintf("%+v", err)
			assert.Contains(t, formatted, "errors_test.go", "expected stack trace")

			var modelErr *ModelError
			assert.True(t, As(err, &modelErr))
		})
	}
}

func TestModelNotFoundError(t *testing.T) {
	err := NewModelNotFoundError("/tmp/missing.gob")

	assert.Equal(t, "petclassifier: model not found: /tmp/missing.gob", err.Error())
	assert.True(t, Is(err, ErrModelNotFound))
	assert.True(t, Is(Wrap(err, "predict"), ErrModelNotFound))
	assert.False(t, Is(err, os.ErrNotExist))

	var notFound *ModelNotFoundError
	require.True(t, As(err, &notFound))
	assert.Equal(t, "/tmp/missing.gob", notFound.Path)
}

func TestInputShapeError(t *testing.T) {
	err := NewInputShapeError("prediction", []int{64, 64, 1}, []int{32, 32, 3})
	assert.Equal(t,
		"petclassifier: input shape mismatch in prediction phase. Expected shape [64 64 1], got [32 32 3]",
		err.Error())
}

func TestClassMismatchError(t *testing.T) {
	err := NewClassMismatchError([]string{"cat", "dog"}, []string{"dog", "cat"})
	var mismatch *ClassMismatchError
	require.True(t, As(err, &mismatch))
	assert.Equal(t, []string{"dog", "cat"}, mismatch.Got)
}

func TestWarnings(t *testing.T) {
	var captured []error
	prev := SetWarningHandler(func(w error) { captured = append(captured, w) })
	defer SetWarningHandler(prev)

	Warn(NewUnpricedItemWarning("ANPAN", 2))
	Warn(NewMissingClassDirWarning("dog", "/data/dog"))
	Warn(NewImageDecodeWarning("/data/cat/broken.jpg", fmt.Errorf("unexpected EOF")))
	Warn(nil)

	require.Len(t, captured, 3)
	assert.Contains(t, captured[0].Error(), `"ANPAN"`)
	assert.Contains(t, captured[1].Error(), `"dog"`)

	var decodeWarn *ImageDecodeWarning
	require.True(t, As(captured[2], &decodeWarn))
	assert.True(t, strings.HasSuffix(decodeWarn.Path, "broken.jpg"))
	assert.EqualError(t, decodeWarn.Unwrap(), "unexpected EOF")
}

func TestWrapAndIs(t *testing.T) {
	wrapped := Wrapf(ErrEmptyDataset, "loading %s", "/data")
	assert.True(t, Is(wrapped, ErrEmptyDataset))
	assert.Contains(t, wrapped.Error(), "loading /data")
}

func TestCheckNumericalStability(t *testing.T) {
	assert.NoError(t, CheckNumericalStability("loss", []float64{0.1, 2, -3}, 0))

	err := CheckNumericalStability("loss", []float64{0.1, math.NaN(), math.Inf(1)}, 4)
	var instability *NumericalInstabilityError
	require.True(t, As(err, &instability))
	assert.Equal(t, 4, instability.Iteration)
	assert.Len(t, instability.Values, 2)

	assert.Error(t, CheckScalar("loss", math.Inf(-1), 1))
	assert.NoError(t, CheckScalar("loss", 0.5, 1))
}

func TestStableSoftmax(t *testing.T) {
	logits := []float64{1000, 1000}
	out := make([]float64, 2)
	StableSoftmax(out, logits)
	assert.InDelta(t, 0.5, out[0], 1e-12)
	assert.InDelta(t, 0.5, out[1], 1e-12)

	assert.Equal(t, 1e-7, ClipProbability(0, 1e-7))
	assert.Equal(t, 1-1e-7, ClipProbability(1, 1e-7))
	assert.Equal(t, 0.3, ClipProbability(0.3, 1e-7))
}
