package telegram

import (
	"fmt"
	"strings"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/finance"
)

// parsePCAArgs splits "/pca" arguments into symbols and an optional trailing
// window. No symbols means the default basket.
// Format: /pca TCS.NS INFY.NS 3m
func parsePCAArgs(input string) ([]string, string, error) {
	parts := strings.Fields(input)
	window := ""
	if n := len(parts); n > 0 && finance.LooksLikeWindow(parts[n-1]) {
		window = strings.ToLower(parts[n-1])
		parts = parts[:n-1]
	}

	symbols := make([]string, 0, len(parts))
	seen := make(map[string]bool, len(parts))
	for _, p := range parts {
		sym := strings.ToUpper(strings.TrimSpace(p))
		if sym == "" {
			continue
		}
		if seen[sym] {
			return nil, "", fmt.Errorf("duplicate symbol: %s", sym)
		}
		seen[sym] = true
		symbols = append(symbols, sym)
	}

	if len(symbols) == 1 {
		return nil, "", fmt.Errorf("need at least two symbols to compare, e.g. /pca TCS.NS INFY.NS 3m")
	}
	if len(symbols) > analysis.MaxSymbols {
		return nil, "", fmt.Errorf("too many symbols: %d (max %d)", len(symbols), analysis.MaxSymbols)
	}
	return symbols, window, nil
}
