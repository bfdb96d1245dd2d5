package sim

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPercentile(t *testing.T) {
	sorted := []float64{10, 20, 30, 40, 50}
	tests := []struct {
		name string
		p    float64
		want float64
	}{
		{"minimum", 0, 10},
		{"p10 interpolates", 10, 14},
		{"median", 50, 30},
		{"p90 interpolates", 90, 46},
		{"maximum", 100, 50},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, Percentile(sorted, tt.p), 1e-9)
		})
	}
}

func TestPercentile_EvenLength_MedianIsMidpoint(t *testing.T) {
	assert.InDelta(t, 2.5, Percentile([]float64{1, 2, 3, 4}, 50), 1e-12)
}

func TestPercentile_EdgeCases(t *testing.T) {
	if got := Percentile(nil, 50); !math.IsNaN(got) {
		t.Errorf("Percentile(nil) = %v, want NaN", got)
	}
	if got := Percentile([]float64{7}, 90); got != 7 {
		t.Errorf("Percentile([7], 90) = %v, want 7", got)
	}
}

func TestPercentile_IdenticalValues_NoRoundingDrift(t *testing.T) {
	// GIVEN values that cannot be represented exactly in binary
	sorted := []float64{0.1, 0.1, 0.1, 0.1, 0.1, 0.1, 0.1}

	// THEN every percentile returns the value itself
	for _, p := range []float64{10, 33, 50, 90} {
		assert.Equal(t, 0.1, Percentile(sorted, p))
	}
}

func TestBands_PerLapColumns(t *testing.T) {
	// GIVEN five trials of two laps, the second lap reversed
	trials := [][]float64{
		{1, 50}, {2, 40}, {3, 30}, {4, 20}, {5, 10},
	}

	// WHEN bands are computed
	p50, p10, p90 := Bands(trials)

	// THEN each lap is ranked on its own
	assert.Equal(t, []float64{3, 30}, p50)
	assert.InDeltaSlice(t, []float64{1.4, 14}, p10, 1e-9)
	assert.InDeltaSlice(t, []float64{4.6, 46}, p90, 1e-9)

	// AND the trials are left untouched
	assert.Equal(t, []float64{1, 50}, trials[0])
}

func TestBands_Empty(t *testing.T) {
	p50, p10, p90 := Bands(nil)
	assert.Nil(t, p50)
	assert.Nil(t, p10)
	assert.Nil(t, p90)
}
