package analysis

import (
	"encoding/base64"

	"stockTrendPCA/internal/finance"
)

// TailRows is how many trailing rows of prices and returns a View echoes back.
const TailRows = 5

type SummaryView struct {
	MainTrendStock    string    `json:"main_trend_stock"`
	VarianceExplained float64   `json:"variance_explained"`
	TotalVariance     float64   `json:"total_variance"`
	MaxLoadingStock   string    `json:"max_loading_stock"`
	ExplainedRatios   []float64 `json:"explained_ratios"`
	Converged         bool      `json:"converged"`
	Iterations        int       `json:"iterations"`
}

// View is the JSON shape of a report shared by the API and the CLI.
// Eigenvectors are columns, one component per column.
type View struct {
	ID               string                        `json:"id"`
	StartDate        string                        `json:"start_date"`
	EndDate          string                        `json:"end_date"`
	Symbols          []string                      `json:"symbols"`
	StockPrices      map[string]map[string]float64 `json:"stock_prices"`
	DailyReturns     map[string]map[string]float64 `json:"daily_returns"`
	CovarianceMatrix [][]float64                   `json:"covariance_matrix"`
	Eigenvalues      []float64                     `json:"eigenvalues"`
	Eigenvectors     [][]float64                   `json:"eigenvectors"`
	Analysis         SummaryView                   `json:"analysis"`
	AssetStats       []finance.AssetStats          `json:"asset_stats"`
	TrendChart       string                        `json:"trend_chart,omitempty"`
	ReturnsChart     string                        `json:"returns_chart,omitempty"`
}

// NewView flattens a report. Charts are base64 PNG when includeCharts is set.
func NewView(rep *Report, includeCharts bool) View {
	res := rep.Result
	sum := res.Summary
	v := View{
		ID:               rep.ID,
		StartDate:        rep.Range.StartDate(),
		EndDate:          rep.Range.EndDate(),
		Symbols:          res.Symbols,
		StockPrices:      tail(res.Symbols, res.Dates, res.Prices, TailRows),
		DailyReturns:     tail(res.Symbols, res.ReturnDates, res.Returns, TailRows),
		CovarianceMatrix: res.Covariance,
		Eigenvalues:      res.Eigen.Values,
		Eigenvectors:     res.Eigen.Components(),
		Analysis: SummaryView{
			MainTrendStock:    sum.MainTrendAsset,
			VarianceExplained: sum.VarianceExplained,
			TotalVariance:     sum.TotalVariance,
			MaxLoadingStock:   sum.MaxLoadingAsset,
			ExplainedRatios:   sum.ExplainedRatios,
			Converged:         sum.Converged,
			Iterations:        sum.Iterations,
		},
		AssetStats: rep.Stats,
	}
	if includeCharts && len(rep.TrendChart) > 0 {
		v.TrendChart = base64.StdEncoding.EncodeToString(rep.TrendChart)
	}
	if includeCharts && len(rep.ReturnsChart) > 0 {
		v.ReturnsChart = base64.StdEncoding.EncodeToString(rep.ReturnsChart)
	}
	return v
}

// tail keeps the last n rows as {symbol: {date: value}}.
func tail(symbols, dates []string, values [][]float64, n int) map[string]map[string]float64 {
	from := len(dates) - n
	if from < 0 {
		from = 0
	}
	out := make(map[string]map[string]float64, len(symbols))
	for i, sym := range symbols {
		m := make(map[string]float64, len(dates)-from)
		for k := from; k < len(dates); k++ {
			m[dates[k]] = values[i][k]
		}
		out[sym] = m
	}
	return out
}
