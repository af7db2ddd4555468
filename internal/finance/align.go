package finance

import (
	"fmt"
	"sort"

	"stockTrendPCA/internal/pca"
)

// Align keeps only the dates present in every series so that each asset has
// a price on exactly the same days. Input order of symbols is preserved.
func Align(series []Series) ([]pca.PriceSeries, error) {
	if len(series) == 0 {
		return nil, pca.ErrInsufficientData
	}

	counts := make(map[string]int)
	for _, s := range series {
		if len(s.Dates) != len(s.Closes) {
			return nil, fmt.Errorf("%s: %d dates but %d closes: %w", s.Symbol, len(s.Dates), len(s.Closes), pca.ErrDataAlignment)
		}
		seen := make(map[string]bool, len(s.Dates))
		for _, d := range s.Dates {
			if !seen[d] {
				seen[d] = true
				counts[d]++
			}
		}
	}

	common := make([]string, 0, len(counts))
	for d, c := range counts {
		if c == len(series) {
			common = append(common, d)
		}
	}
	sort.Strings(common)
	if len(common) < 2 {
		return nil, fmt.Errorf("only %d common trading days across %d symbols: %w", len(common), len(series), pca.ErrInsufficientData)
	}

	out := make([]pca.PriceSeries, len(series))
	for i, s := range series {
		byDate := make(map[string]float64, len(s.Dates))
		for k, d := range s.Dates {
			byDate[d] = s.Closes[k]
		}
		prices := make([]float64, len(common))
		for k, d := range common {
			prices[k] = byDate[d]
		}
		dates := make([]string, len(common))
		copy(dates, common)
		out[i] = pca.PriceSeries{Symbol: s.Symbol, Dates: dates, Prices: prices}
	}
	return out, nil
}
