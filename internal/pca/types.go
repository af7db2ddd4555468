// Package pca computes a principal component analysis of asset return
// co-movements: simple returns, sample covariance and a Jacobi eigensolver.
// It performs no I/O and keeps no state between runs.
package pca

import "math"

// PriceSeries holds the closing prices of one asset keyed by ISO-8601 date.
// Dates must be strictly increasing and Prices[i] is the close on Dates[i].
type PriceSeries struct {
	Symbol string
	Dates  []string
	Prices []float64
}

// Matrix is a dense row-major square matrix.
type Matrix [][]float64

// NewMatrix returns an n×n zero matrix.
func NewMatrix(n int) Matrix {
	m := make(Matrix, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// Identity returns the n×n identity matrix.
func Identity(n int) Matrix {
	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		m[i][i] = 1
	}
	return m
}

// Clone returns a deep copy.
func (m Matrix) Clone() Matrix {
	out := make(Matrix, len(m))
	for i, row := range m {
		out[i] = make([]float64, len(row))
		copy(out[i], row)
	}
	return out
}

// Trace returns the sum of the diagonal.
func (m Matrix) Trace() float64 {
	t := 0.0
	for i := range m {
		t += m[i][i]
	}
	return t
}

// IsSquare reports whether m is non-empty and every row has len(m) columns.
func (m Matrix) IsSquare() bool {
	if len(m) == 0 {
		return false
	}
	for _, row := range m {
		if len(row) != len(m) {
			return false
		}
	}
	return true
}

// IsSymmetric reports whether |m[i][j]-m[j][i]| <= tol for every pair.
func (m Matrix) IsSymmetric(tol float64) bool {
	if !m.IsSquare() {
		return false
	}
	for i := range m {
		for j := i + 1; j < len(m); j++ {
			if math.Abs(m[i][j]-m[j][i]) > tol {
				return false
			}
		}
	}
	return true
}

// Decomposition is the eigen-decomposition of a symmetric matrix.
// Values are sorted descending and Vectors[k] is the unit eigenvector for Values[k].
type Decomposition struct {
	Values  []float64
	Vectors [][]float64

	// Iterations is the number of Jacobi rotations applied.
	Iterations int
	// Converged is false when the iteration cap was hit before the
	// largest off-diagonal entry fell below the tolerance. The values are
	// then only approximate.
	Converged bool
	// OffDiagonal is the largest remaining off-diagonal magnitude.
	OffDiagonal float64
}

// Components returns the eigenvectors as an n×n matrix whose columns are the
// components and whose rows are the assets.
func (d *Decomposition) Components() Matrix {
	n := len(d.Vectors)
	out := NewMatrix(n)
	for k, vec := range d.Vectors {
		for i, v := range vec {
			out[i][k] = v
		}
	}
	return out
}

// Summary holds the interpretive metrics derived from a decomposition.
type Summary struct {
	// MainTrendIndex is the signed argmax of the leading eigenvector.
	MainTrendIndex int
	MainTrendAsset string
	// MaxLoadingIndex is the argmax of |loading| in the leading eigenvector.
	// It differs from MainTrendIndex when the largest loading is negative.
	MaxLoadingIndex int
	MaxLoadingAsset string

	VarianceExplained float64 // percent, leading component
	TotalVariance     float64
	ExplainedRatios   []float64 // percent, one per component

	Converged  bool
	Iterations int
}

// Result is everything one pipeline run produces.
type Result struct {
	Symbols     []string
	Dates       []string
	Prices      [][]float64 // Prices[i] belongs to Symbols[i]
	ReturnDates []string    // Dates[1:]
	Returns     [][]float64
	Covariance  Matrix
	Eigen       *Decomposition
	Summary     Summary
}
