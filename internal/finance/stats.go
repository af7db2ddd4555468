package finance

import (
	"math"

	"stockTrendPCA/internal/pca"
)

const tradingDaysPerYear = 252.0

// AssetStats summarises one asset over the analysed window. Percentages.
type AssetStats struct {
	Symbol      string  `json:"symbol"`
	TotalReturn float64 `json:"total_return"`
	Volatility  float64 `json:"volatility"`
	MaxDrawdown float64 `json:"max_drawdown"`
	NumDays     int     `json:"num_days"`
}

// ComputeAssetStats derives per-asset figures from a finished run. Volatility
// reuses the covariance diagonal, so it is the sample (N-1) estimate
// annualised with the square root of 252.
func ComputeAssetStats(res *pca.Result) []AssetStats {
	out := make([]AssetStats, len(res.Symbols))
	for i, sym := range res.Symbols {
		prices := res.Prices[i]
		st := AssetStats{Symbol: sym, NumDays: len(prices)}
		if len(prices) >= 2 && prices[0] > 0 {
			st.TotalReturn = (prices[len(prices)-1] - prices[0]) / prices[0] * 100
		}
		if i < len(res.Covariance) && res.Covariance[i][i] > 0 {
			st.Volatility = math.Sqrt(res.Covariance[i][i]) * math.Sqrt(tradingDaysPerYear) * 100
		}
		st.MaxDrawdown = calculateMaxDrawdown(prices) * 100
		out[i] = st
	}
	return out
}

// CumulativeGrowth returns the growth of one unit, Π(1+r), after each return.
func CumulativeGrowth(returns []float64) []float64 {
	out := make([]float64, len(returns))
	g := 1.0
	for i, r := range returns {
		g *= 1 + r
		out[i] = g
	}
	return out
}

// calculateMaxDrawdown returns the largest peak-to-trough fall as a fraction.
func calculateMaxDrawdown(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	maxDrawdown := 0.0
	peak := values[0]
	for _, value := range values {
		if value > peak {
			peak = value
		}
		if peak > 0 {
			if drawdown := (peak - value) / peak; drawdown > maxDrawdown {
				maxDrawdown = drawdown
			}
		}
	}
	return maxDrawdown
}
