package pca

import (
	"fmt"
	"math"
)

// Returns converts a price series of length T into T-1 simple returns,
// r[i] = (p[i+1] - p[i]) / p[i].
func Returns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, fmt.Errorf("%w: need at least 2 prices, got %d", ErrInsufficientData, len(prices))
	}
	for i, p := range prices {
		if p == 0 {
			return nil, fmt.Errorf("%w: price at index %d is zero", ErrDivisionByZero, i)
		}
		if p < 0 || math.IsNaN(p) || math.IsInf(p, 0) {
			return nil, fmt.Errorf("%w: price at index %d is %v", ErrInvalidPrice, i, p)
		}
	}
	out := make([]float64, len(prices)-1)
	for i := 0; i < len(prices)-1; i++ {
		out[i] = (prices[i+1] - prices[i]) / prices[i]
	}
	return out, nil
}
