package finance

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockTrendPCA/internal/pca"
)

func TestComputeAssetStats(t *testing.T) {
	dates := []string{"2024-09-02", "2024-09-03", "2024-09-04", "2024-09-05"}
	res, err := pca.Run([]pca.PriceSeries{
		{Symbol: "A", Dates: dates, Prices: []float64{100, 102, 101, 105}},
		{Symbol: "B", Dates: dates, Prices: []float64{50, 49, 51, 52}},
	})
	require.NoError(t, err)

	stats := ComputeAssetStats(res)
	require.Len(t, stats, 2)

	assert.Equal(t, "A", stats[0].Symbol)
	assert.InDelta(t, 5.0, stats[0].TotalReturn, 1e-9)
	assert.InDelta(t, math.Sqrt(0.0006189546340521429*252)*100, stats[0].Volatility, 1e-9)
	assert.InDelta(t, (102.0-101.0)/102.0*100, stats[0].MaxDrawdown, 1e-9)
	assert.Equal(t, 4, stats[0].NumDays)

	assert.InDelta(t, 4.0, stats[1].TotalReturn, 1e-9)
	assert.InDelta(t, 2.0, stats[1].MaxDrawdown, 1e-9)
}

func TestCalculateMaxDrawdown(t *testing.T) {
	assert.Equal(t, 0.0, calculateMaxDrawdown([]float64{1}))
	assert.Equal(t, 0.0, calculateMaxDrawdown([]float64{1, 2, 3}))
	assert.InDelta(t, 0.5, calculateMaxDrawdown([]float64{10, 20, 10, 15}), 1e-12)
}

func TestCumulativeGrowth(t *testing.T) {
	g := CumulativeGrowth([]float64{0.1, -0.5, 1})
	assert.InDeltaSlice(t, []float64{1.1, 0.55, 1.1}, g, 1e-12)
	assert.Empty(t, CumulativeGrowth(nil))
}
