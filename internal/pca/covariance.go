package pca

import (
	"fmt"

	"gonum.org/v1/gonum/stat"
)

// Covariance returns the unbiased sample covariance matrix of the given return
// series. Every series must have the same length M, and M must be at least 2.
func Covariance(returns [][]float64) (Matrix, error) {
	n := len(returns)
	if n == 0 {
		return nil, fmt.Errorf("%w: no return series", ErrInsufficientData)
	}
	m := len(returns[0])
	for i, r := range returns {
		if len(r) != m {
			return nil, fmt.Errorf("%w: return series %d has length %d, expected %d", ErrDataAlignment, i, len(r), m)
		}
	}
	if m < 2 {
		return nil, fmt.Errorf("%w: need at least 2 returns per asset, got %d", ErrInsufficientData, m)
	}

	means := make([]float64, n)
	for i, r := range returns {
		means[i] = stat.Mean(r, nil)
	}

	cov := NewMatrix(n)
	denom := float64(m - 1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < m; k++ {
				sum += (returns[i][k] - means[i]) * (returns[j][k] - means[j])
			}
			cov[i][j] = sum / denom
		}
	}
	return cov, nil
}
