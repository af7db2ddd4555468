package pca

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fourDates = []string{"2024-09-02", "2024-09-03", "2024-09-04", "2024-09-05"}

func TestRun_TwoAssets(t *testing.T) {
	res, err := Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: []float64{100, 102, 101, 105}},
		{Symbol: "B", Dates: fourDates, Prices: []float64{50, 49, 51, 52}},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"A", "B"}, res.Symbols)
	assert.Equal(t, fourDates, res.Dates)
	assert.Equal(t, fourDates[1:], res.ReturnDates)
	require.Len(t, res.Returns, 2)
	assert.Len(t, res.Returns[0], 3)

	assert.True(t, res.Covariance.IsSymmetric(0))
	require.Len(t, res.Eigen.Values, 2)
	assert.InDelta(t, res.Covariance.Trace(), res.Eigen.Values[0]+res.Eigen.Values[1], 1e-12)
	assert.GreaterOrEqual(t, res.Eigen.Values[0], res.Eigen.Values[1])
	assert.True(t, res.Eigen.Converged)

	// leading eigenvector ≈ [-0.532, 0.847]; B dominates by sign and magnitude
	assert.InDelta(t, -0.5323361032636984, res.Eigen.Vectors[0][0], 1e-9)
	assert.InDelta(t, 0.8465330904117222, res.Eigen.Vectors[0][1], 1e-9)
	assert.Equal(t, "B", res.Summary.MainTrendAsset)
	assert.Equal(t, "B", res.Summary.MaxLoadingAsset)

	assert.Greater(t, res.Summary.VarianceExplained, 0.0)
	assert.LessOrEqual(t, res.Summary.VarianceExplained, 100.0)
	assert.InDelta(t, 74.517, res.Summary.VarianceExplained, 1e-3)
	assert.InDelta(t, res.Covariance.Trace(), res.Summary.TotalVariance, 1e-12)
}

func TestRun_ConstantPricesAreDegenerate(t *testing.T) {
	_, err := Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: []float64{10, 10, 10, 10}},
		{Symbol: "B", Dates: fourDates, Prices: []float64{20, 20, 20, 20}},
	})
	assert.ErrorIs(t, err, ErrDegenerateDecomposition)
}

func TestRun_Misaligned(t *testing.T) {
	tests := []struct {
		name   string
		series []PriceSeries
	}{
		{
			name: "different dates",
			series: []PriceSeries{
				{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
				{Symbol: "B", Dates: []string{"2024-09-02", "2024-09-03", "2024-09-04", "2024-09-06"}, Prices: []float64{1, 2, 3, 4}},
			},
		},
		{
			name: "different length",
			series: []PriceSeries{
				{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
				{Symbol: "B", Dates: fourDates[:3], Prices: []float64{1, 2, 3}},
			},
		},
		{
			name: "prices do not match dates",
			series: []PriceSeries{
				{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3}},
			},
		},
		{
			name: "unordered dates",
			series: []PriceSeries{
				{Symbol: "A", Dates: []string{"2024-09-03", "2024-09-02", "2024-09-04"}, Prices: []float64{1, 2, 3}},
			},
		},
		{
			name: "duplicate asset",
			series: []PriceSeries{
				{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
				{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := Run(tt.series)
			assert.ErrorIs(t, err, ErrDataAlignment)
			assert.Nil(t, res)
		})
	}
}

func TestRun_MisalignedFailsBeforeReturns(t *testing.T) {
	// a zero price would fail in Returns; alignment must be reported first
	_, err := Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: []float64{0, 2, 3, 4}},
		{Symbol: "B", Dates: fourDates[:3], Prices: []float64{1, 2, 3}},
	})
	assert.ErrorIs(t, err, ErrDataAlignment)
	assert.NotErrorIs(t, err, ErrDivisionByZero)
}

func TestRun_InsufficientData(t *testing.T) {
	_, err := Run(nil)
	assert.ErrorIs(t, err, ErrInsufficientData)

	// two dates give one return each, too few for a sample covariance
	_, err = Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates[:2], Prices: []float64{1, 2}},
		{Symbol: "B", Dates: fourDates[:2], Prices: []float64{3, 4}},
	})
	assert.ErrorIs(t, err, ErrInsufficientData)
}

func TestRun_ZeroPriceNamesAsset(t *testing.T) {
	_, err := Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
		{Symbol: "ZERO", Dates: fourDates, Prices: []float64{1, 0, 3, 4}},
	})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDivisionByZero)
	assert.Contains(t, err.Error(), "ZERO")
}

func TestRun_NonFinitePriceNamesAsset(t *testing.T) {
	for _, bad := range []float64{math.Inf(1), math.NaN(), -3} {
		res, err := Run([]PriceSeries{
			{Symbol: "A", Dates: fourDates, Prices: []float64{1, 2, 3, 4}},
			{Symbol: "BAD", Dates: fourDates, Prices: []float64{1, 2, bad, 4}},
		})
		assert.Nil(t, res)
		assert.ErrorIs(t, err, ErrInvalidPrice, "price %v", bad)
		assert.Contains(t, err.Error(), "BAD")
	}
}

func TestRun_SingleAsset(t *testing.T) {
	res, err := Run([]PriceSeries{
		{Symbol: "ONLY", Dates: fourDates, Prices: []float64{100, 101, 99, 103}},
	})
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{1}}, res.Eigen.Vectors)
	assert.InDelta(t, 100.0, res.Summary.VarianceExplained, 1e-12)
	assert.Equal(t, "ONLY", res.Summary.MainTrendAsset)
}

func TestRunWithOptions_PassesCap(t *testing.T) {
	series := []PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: []float64{100, 102, 101, 105}},
		{Symbol: "B", Dates: fourDates, Prices: []float64{50, 49, 51, 52}},
		{Symbol: "C", Dates: fourDates, Prices: []float64{20, 21, 20.5, 22}},
	}
	res, err := RunWithOptions(series, Options{MaxIterations: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Eigen.Iterations)
	assert.Equal(t, res.Eigen.Converged, res.Summary.Converged)
}

func TestRun_InputIsNotShared(t *testing.T) {
	prices := []float64{100, 102, 101, 105}
	res, err := Run([]PriceSeries{
		{Symbol: "A", Dates: fourDates, Prices: prices},
		{Symbol: "B", Dates: fourDates, Prices: []float64{50, 49, 51, 52}},
	})
	require.NoError(t, err)
	prices[0] = 1
	assert.Equal(t, 100.0, res.Prices[0][0])
}
