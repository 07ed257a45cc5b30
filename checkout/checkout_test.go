package checkout

import (
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

func captureWarnings(t *testing.T) func() []error {
	t.Helper()
	var mu sync.Mutex
	var got []error
	prev := errors.SetWarningHandler(func(w error) {
		mu.Lock()
		defer mu.Unlock()
		got = append(got, w)
	})
	t.Cleanup(func() { errors.SetWarningHandler(prev) })
	return func() []error {
		mu.Lock()
		defer mu.Unlock()
		return append([]error(nil), got...)
	}
}

func TestCalculateTotal(t *testing.T) {
	tests := []struct {
		name   string
		prices map[string]int
		items  map[string]int
		want   int
	}{
		{
			name:   "basic calculation",
			prices: map[string]int{"ANPAN": 200, "PEN": 100},
			items:  map[string]int{"ANPAN": 2, "PEN": 1},
			want:   500,
		},
		{
			name:   "empty items",
			prices: map[string]int{"ANPAN": 200, "PEN": 100},
			items:  map[string]int{},
			want:   0,
		},
		{
			name:   "both empty",
			prices: map[string]int{},
			items:  map[string]int{},
			want:   0,
		},
		{
			name:   "missing price",
			prices: map[string]int{"PEN": 100},
			items:  map[string]int{"ANPAN": 2, "PEN": 1},
			want:   100,
		},
		{
			name:   "zero quantity",
			prices: map[string]int{"ANPAN": 200, "PEN": 100},
			items:  map[string]int{"ANPAN": 2, "PEN": 0},
			want:   400,
		},
		{
			name:   "nil maps",
			prices: nil,
			items:  nil,
			want:   0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			captureWarnings(t)
			assert.Equal(t, tt.want, CalculateTotal(tt.prices, tt.items))
		})
	}
}

func TestCalculateTotal_WarnsOnUnpricedItem(t *testing.T) {
	warnings := captureWarnings(t)

	CalculateTotal(map[string]int{"PEN": 100}, map[string]int{"ANPAN": 2, "PEN": 1})

	got := warnings()
	require.Len(t, got, 1)
	var unpriced *errors.UnpricedItemWarning
	require.True(t, errors.As(got[0], &unpriced))
	assert.Equal(t, "ANPAN", unpriced.Item)
	assert.Equal(t, 2, unpriced.Quantity)
}

func TestCalculateTotal_DoesNotMutateInputs(t *testing.T) {
	captureWarnings(t)
	prices := map[string]int{"PEN": 100}
	items := map[string]int{"ANPAN": 2, "PEN": 1}

	CalculateTotal(prices, items)

	assert.Equal(t, map[string]int{"PEN": 100}, prices)
	assert.Equal(t, map[string]int{"ANPAN": 2, "PEN": 1}, items)
}

func TestNewReceipt(t *testing.T) {
	captureWarnings(t)
	r := NewReceipt(map[string]int{"PEN": 100, "ANPAN": 200}, map[string]int{"PEN": 1, "ANPAN": 2, "MILK": 1})

	require.Len(t, r.Lines, 3)
	assert.Equal(t, Line{Item: "ANPAN", Quantity: 2, UnitPrice: 200, Subtotal: 400, Priced: true}, r.Lines[0])
	assert.Equal(t, Line{Item: "MILK", Quantity: 1}, r.Lines[1])
	assert.Equal(t, "PEN", r.Lines[2].Item)
	assert.Equal(t, 500, r.Total)

	out := r.String()
	assert.True(t, strings.HasPrefix(out, "ITEM"))
	assert.Contains(t, out, "TOTAL")
	assert.Contains(t, out, "500")
}

func TestCountItems(t *testing.T) {
	items := CountItems([]string{"cat", "dog", "cat"})
	assert.Equal(t, map[string]int{"cat": 2, "dog": 1}, items)
	assert.Empty(t, CountItems(nil))
}
