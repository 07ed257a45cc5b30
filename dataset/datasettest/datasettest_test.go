package datasettest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/core/tensor"
)

func TestGenerate(t *testing.T) {
	shape := tensor.NewShape(8, 1)
	ds, err := Generate(shape, []string{"cat", "dog"}, 10, 42)
	require.NoError(t, err)

	assert.Equal(t, 10, ds.Len())
	assert.Equal(t, []int{5, 5}, ds.ClassCounts())
	require.NoError(t, ds.Validate())

	for i, im := range ds.Images {
		for _, v := range im.Pix {
			require.GreaterOrEqual(t, v, 0.0)
			require.LessOrEqual(t, v, 255.0, "sample %d", i)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	shape := tensor.NewShape(4, 3)
	a, err := Generate(shape, []string{"cat", "dog"}, 4, 7)
	require.NoError(t, err)
	b, err := Generate(shape, []string{"cat", "dog"}, 4, 7)
	require.NoError(t, err)

	for i := range a.Images {
		assert.Equal(t, a.Images[i].Pix, b.Images[i].Pix)
	}
}

func TestGenerate_ClassesSeparated(t *testing.T) {
	ds, err := Generate(tensor.NewShape(6, 1), []string{"cat", "dog"}, 2, 1)
	require.NoError(t, err)

	mean := func(pix []float64) float64 {
		s := 0.0
		for _, v := range pix {
			s += v
		}
		return s / float64(len(pix))
	}
	assert.Less(t, mean(ds.Images[0].Pix), mean(ds.Images[1].Pix))
}

func TestGenerate_Errors(t *testing.T) {
	_, err := Generate(tensor.NewShape(4, 2), []string{"a"}, 1, 0)
	assert.Error(t, err)

	_, err = Generate(tensor.NewShape(4, 1), nil, 1, 0)
	assert.Error(t, err)

	_, err = Generate(tensor.NewShape(4, 1), []string{"a"}, 0, 0)
	assert.Error(t, err)
}
