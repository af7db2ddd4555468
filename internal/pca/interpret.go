package pca

import (
	"fmt"
	"math"
)

// Interpret derives the summary metrics from a decomposition. symbols[i]
// names row i of every eigenvector.
func Interpret(symbols []string, d *Decomposition) (Summary, error) {
	if d == nil || len(d.Values) == 0 || len(d.Vectors) == 0 {
		return Summary{}, fmt.Errorf("%w: empty decomposition", ErrInsufficientData)
	}
	lead := d.Vectors[0]
	if len(symbols) != len(lead) {
		return Summary{}, fmt.Errorf("%w: %d symbols for eigenvectors of length %d", ErrDataAlignment, len(symbols), len(lead))
	}

	total := 0.0
	for _, v := range d.Values {
		total += v
	}
	if total == 0 {
		return Summary{}, ErrDegenerateDecomposition
	}

	// Signed maximum: eigenvectors are only defined up to sign, so this can
	// name a different asset than MaxLoadingIndex. Both are reported.
	mainIdx := 0
	for i, v := range lead {
		if v > lead[mainIdx] {
			mainIdx = i
		}
	}
	maxIdx := 0
	for i, v := range lead {
		if math.Abs(v) > math.Abs(lead[maxIdx]) {
			maxIdx = i
		}
	}

	ratios := make([]float64, len(d.Values))
	for k, v := range d.Values {
		ratios[k] = v / total * 100
	}

	return Summary{
		MainTrendIndex:    mainIdx,
		MainTrendAsset:    symbols[mainIdx],
		MaxLoadingIndex:   maxIdx,
		MaxLoadingAsset:   symbols[maxIdx],
		VarianceExplained: ratios[0],
		TotalVariance:     total,
		ExplainedRatios:   ratios,
		Converged:         d.Converged,
		Iterations:        d.Iterations,
	}, nil
}
