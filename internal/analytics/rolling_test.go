package analytics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingAverage(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		window   Window
		expected *float64
	}{
		{"empty series is absent", []float64{}, Games(5), nil},
		{"nil series is absent", nil, WindowAll, nil},
		{"fewer samples than window", []float64{10, 20, 30}, Games(5), ptr(20.0)},
		{"window takes newest first", []float64{30, 10, 50, 50}, Games(2), ptr(20.0)},
		{"season to date", []float64{1, 2, 3, 4}, WindowAll, ptr(2.5)},
		{"average of zeros is zero", []float64{0, 0, 0}, Games(3), ptr(0.0)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			avg, err := RollingAverage(tt.values, tt.window)
			require.NoError(t, err)
			if tt.expected == nil {
				assert.Nil(t, avg)
				return
			}
			require.NotNil(t, avg)
			assert.InDelta(t, *tt.expected, *avg, 1e-12)
		})
	}
}

func TestRollingAverage_InvalidWindow(t *testing.T) {
	for _, w := range []Window{0, -2, -30} {
		_, err := RollingAverage([]float64{1, 2, 3}, w)
		assert.True(t, IsValidationError(err), "window %d", int(w))
	}
}

func TestRollingAverage_RejectsNonFinite(t *testing.T) {
	_, err := RollingAverage([]float64{1, math.NaN()}, WindowAll)
	assert.True(t, IsValidationError(err))

	// Values outside the window are not inspected.
	avg, err := RollingAverage([]float64{4, math.Inf(1)}, Games(1))
	require.NoError(t, err)
	assert.Equal(t, 4.0, *avg)
}

func TestComputeRollingAverages(t *testing.T) {
	values := make([]float64, 40)
	for i := range values {
		values[i] = float64(40 - i)
	}

	avgs, err := ComputeRollingAverages(values)
	require.NoError(t, err)

	assert.Equal(t, 40, avgs.Games)
	assert.InDelta(t, 20.5, *avgs.Season, 1e-9)
	assert.InDelta(t, 37.0, *avgs.Last7, 1e-9)
	assert.InDelta(t, 33.5, *avgs.Last14, 1e-9)
	assert.InDelta(t, 25.5, *avgs.Last30, 1e-9)
	assert.Equal(t, avgs.Last7, avgs.Get(WindowLast7))
	assert.Nil(t, avgs.Get(Games(3)))
}

func TestComputeRollingAverages_Empty(t *testing.T) {
	avgs, err := ComputeRollingAverages(nil)
	require.NoError(t, err)
	assert.Nil(t, avgs.Season)
	assert.Nil(t, avgs.Last7)
	assert.Nil(t, avgs.Last14)
	assert.Nil(t, avgs.Last30)
	assert.Equal(t, 0.0, ValueOr(avgs.Season, 0))
}

func TestWindowString(t *testing.T) {
	assert.Equal(t, "season", WindowAll.String())
	assert.Equal(t, "last7", WindowLast7.String())
}

func ptr(v float64) *float64 {
	return &v
}
