package evaluation

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/HuyPham171-hub/goldsight-web/internal/contracts"
)

func TestRMSE(t *testing.T) {
	got, err := RMSE([]float64{100, 102, 101}, []float64{100, 100, 100})
	require.NoError(t, err)
	assert.InDelta(t, math.Sqrt(5.0/3.0), got, 1e-12)
	assert.InDelta(t, 1.29, got, 0.005)
}

func TestMAE(t *testing.T) {
	got, err := MAE([]float64{100, 102, 101}, []float64{100, 100, 100})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, got, 1e-12)
}

func TestRSquared(t *testing.T) {
	tests := []struct {
		name      string
		actual    []float64
		predicted []float64
		want      float64
	}{
		{
			name:      "perfect fit",
			actual:    []float64{1, 2, 3, 4},
			predicted: []float64{1, 2, 3, 4},
			want:      1,
		},
		{
			name:      "mean predictor",
			actual:    []float64{1, 2, 3, 4},
			predicted: []float64{2.5, 2.5, 2.5, 2.5},
			want:      0,
		},
		{
			name:      "worse than mean",
			actual:    []float64{1, 2, 3},
			predicted: []float64{3, 2, 1},
			want:      -3,
		},
		{
			name:      "constant actual, perfect",
			actual:    []float64{5, 5, 5},
			predicted: []float64{5, 5, 5},
			want:      1,
		},
		{
			name:      "constant actual, imperfect",
			actual:    []float64{5, 5, 5},
			predicted: []float64{4, 5, 6},
			want:      0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSquared(tt.actual, tt.predicted)
			require.NoError(t, err)
			assert.InDelta(t, tt.want, got, 1e-9)
		})
	}
}

func TestMetrics_LengthMismatch(t *testing.T) {
	a := []float64{1, 2, 3}
	p := []float64{1, 2}

	_, err := RMSE(a, p)
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
	_, err = MAE(a, p)
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
	_, err = RSquared(a, p)
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
	_, err = Evaluate(a, p)
	assert.ErrorIs(t, err, contracts.ErrLengthMismatch)
}

func TestMetrics_Empty(t *testing.T) {
	_, err := RMSE(nil, nil)
	assert.ErrorIs(t, err, contracts.ErrEmptySeries)
}

func TestEvaluate(t *testing.T) {
	actual := []float64{10, 12, 14, 16}
	predicted := []float64{11, 11, 15, 15}

	report, err := Evaluate(actual, predicted)
	require.NoError(t, err)

	assert.Equal(t, 4, report.Samples)
	assert.InDelta(t, 1.0, report.RMSE, 1e-12)
	assert.InDelta(t, 1.0, report.MAE, 1e-12)
	assert.InDelta(t, 0.8, report.RSquared, 1e-12)
	// residuals -1, 1, -1, 1 → sample std = sqrt(4/3)
	assert.InDelta(t, math.Sqrt(4.0/3.0), report.ResidualStd, 1e-12)
}
