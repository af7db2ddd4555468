package pca

import (
	"math"
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func randomSPD(rng *rand.Rand, n int) Matrix {
	rows := n + 3
	x := make([][]float64, rows)
	for k := range x {
		x[k] = make([]float64, n)
		for i := range x[k] {
			x[k][i] = rng.NormFloat64()
		}
	}
	s := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < rows; k++ {
				s[i][j] += x[k][i] * x[k][j]
			}
		}
	}
	return s
}

func assertOrthonormal(t *testing.T, d *Decomposition, tol float64) {
	t.Helper()
	for a := range d.Vectors {
		for b := range d.Vectors {
			dot := 0.0
			for i := range d.Vectors[a] {
				dot += d.Vectors[a][i] * d.Vectors[b][i]
			}
			want := 0.0
			if a == b {
				want = 1
			}
			assert.InDelta(t, want, dot, tol, "v%d·v%d", a, b)
		}
	}
}

func assertReconstructs(t *testing.T, m Matrix, d *Decomposition, tol float64) {
	t.Helper()
	n := len(m)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum := 0.0
			for k := 0; k < n; k++ {
				sum += d.Vectors[k][i] * d.Values[k] * d.Vectors[k][j]
			}
			assert.InDelta(t, m[i][j], sum, tol, "entry (%d,%d)", i, j)
		}
	}
}

func TestDecompose_2x2(t *testing.T) {
	m := Matrix{{1, 2}, {2, 1}}
	d, err := Decompose(m)
	require.NoError(t, err)

	assert.True(t, d.Converged)
	assert.Equal(t, 1, d.Iterations)
	assert.InDelta(t, 3.0, d.Values[0], 1e-12)
	assert.InDelta(t, -1.0, d.Values[1], 1e-12)
	assertOrthonormal(t, d, 1e-12)
	assertReconstructs(t, m, d, 1e-12)
}

func TestDecompose_3x3(t *testing.T) {
	m := Matrix{
		{4, 1, 2},
		{1, 3, 0.5},
		{2, 0.5, 5},
	}
	d, err := Decompose(m)
	require.NoError(t, err)
	require.True(t, d.Converged)

	assert.InDelta(t, 6.831254430698204, d.Values[0], 1e-9)
	assert.InDelta(t, 3.0722239520050745, d.Values[1], 1e-9)
	assert.InDelta(t, 2.0965216172967196, d.Values[2], 1e-9)
	assert.InDelta(t, m.Trace(), d.Values[0]+d.Values[1]+d.Values[2], 1e-9)
	assertOrthonormal(t, d, 1e-9)
	assertReconstructs(t, m, d, 1e-9)

	// A v = λ v for every pair
	for k, vec := range d.Vectors {
		for i := range m {
			av := 0.0
			for j := range m {
				av += m[i][j] * vec[j]
			}
			assert.InDelta(t, d.Values[k]*vec[i], av, 1e-9)
		}
	}
}

func TestDecompose_DoesNotMutateInput(t *testing.T) {
	m := Matrix{{2, 1}, {1, 2}}
	orig := m.Clone()
	_, err := Decompose(m)
	require.NoError(t, err)
	assert.Equal(t, orig, m)
}

func TestDecompose_OneByOne(t *testing.T) {
	d, err := Decompose(Matrix{{0.25}})
	require.NoError(t, err)
	assert.True(t, d.Converged)
	assert.Equal(t, 0, d.Iterations)
	assert.Equal(t, []float64{0.25}, d.Values)
	assert.Equal(t, [][]float64{{1}}, d.Vectors)
}

func TestDecompose_ZeroMatrixConvergesImmediately(t *testing.T) {
	d, err := Decompose(NewMatrix(3))
	require.NoError(t, err)
	assert.True(t, d.Converged)
	assert.Equal(t, 0, d.Iterations)
	assert.Equal(t, []float64{0, 0, 0}, d.Values)
	// identity basis, untouched
	assert.Equal(t, Identity(3), d.Components())
}

func TestDecompose_InvalidInput(t *testing.T) {
	_, err := Decompose(nil)
	assert.ErrorIs(t, err, ErrInvalidMatrix)

	_, err = Decompose(Matrix{{1, 2}, {3}})
	assert.ErrorIs(t, err, ErrInvalidMatrix)
}

func TestDecompose_StableSortKeepsTies(t *testing.T) {
	// already diagonal with a tie: original order must be kept for equal values
	m := Matrix{
		{1, 0, 0},
		{0, 5, 0},
		{0, 0, 1},
	}
	d, err := Decompose(m)
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 1, 1}, d.Values)
	assert.Equal(t, []float64{0, 1, 0}, d.Vectors[0])
	assert.Equal(t, []float64{1, 0, 0}, d.Vectors[1])
	assert.Equal(t, []float64{0, 0, 1}, d.Vectors[2])
}

func TestDecompose_NaNIsNotConverged(t *testing.T) {
	d, err := Decompose(Matrix{{1, math.NaN()}, {math.NaN(), 1}})
	require.NoError(t, err)
	assert.False(t, d.Converged)
	assert.Equal(t, 0, d.Iterations)
	assert.True(t, math.IsNaN(d.OffDiagonal))
	assert.Contains(t, d.String(), "converged=false")
}

func TestLargestOffDiagonal_NaN(t *testing.T) {
	m := Matrix{
		{1, 0.9, 0.1},
		{0.9, 1, math.NaN()},
		{0.1, math.NaN(), 1},
	}
	p, q, v := largestOffDiagonal(m)
	assert.Equal(t, 1, p)
	assert.Equal(t, 2, q)
	assert.True(t, math.IsNaN(v))
}

func TestDecomposition_String(t *testing.T) {
	d, err := Decompose(Matrix{{2, 1}, {1, 2}})
	require.NoError(t, err)
	assert.Equal(t, "eigen{n=2 iterations=1 converged=true off=0}", d.String())
}

func TestLargestOffDiagonal_TieBreak(t *testing.T) {
	m := Matrix{
		{1, 0.5, -0.5},
		{0.5, 1, 0.5},
		{-0.5, 0.5, 1},
	}
	p, q, v := largestOffDiagonal(m)
	assert.Equal(t, 0, p)
	assert.Equal(t, 1, q)
	assert.Equal(t, 0.5, v)

	m[1][2], m[2][1] = -0.75, -0.75
	p, q, v = largestOffDiagonal(m)
	assert.Equal(t, 1, p)
	assert.Equal(t, 2, q)
	assert.Equal(t, 0.75, v)
}

func TestDecompose_IterationCap(t *testing.T) {
	m := Matrix{
		{4, 1, 2},
		{1, 3, 0.5},
		{2, 0.5, 5},
	}
	d, err := DecomposeWithOptions(m, Options{MaxIterations: 1})
	require.NoError(t, err)

	assert.False(t, d.Converged)
	assert.Equal(t, 1, d.Iterations)
	assert.Greater(t, d.OffDiagonal, DefaultTolerance)

	// trace is preserved by every rotation, converged or not
	sum := 0.0
	for _, v := range d.Values {
		sum += v
	}
	assert.InDelta(t, m.Trace(), sum, 1e-12)
	assert.True(t, sort.SliceIsSorted(d.Values, func(i, j int) bool { return d.Values[i] > d.Values[j] }))
}

func TestDecompose_RandomSPDAgainstGonum(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for _, n := range []int{2, 3, 4, 5, 6} {
		for trial := 0; trial < 20; trial++ {
			m := randomSPD(rng, n)
			d, err := DecomposeWithOptions(m, Options{MaxIterations: 500})
			require.NoError(t, err)
			require.True(t, d.Converged, "n=%d trial=%d", n, trial)

			sum := 0.0
			for k, v := range d.Values {
				sum += v
				if k > 0 {
					assert.LessOrEqual(t, v, d.Values[k-1], "eigenvalues must be non-increasing")
				}
			}
			assert.InDelta(t, m.Trace(), sum, 1e-6)
			assertOrthonormal(t, d, 1e-6)
			assertReconstructs(t, m, d, 1e-6)

			data := make([]float64, 0, n*n)
			for _, row := range m {
				data = append(data, row...)
			}
			var es mat.EigenSym
			require.True(t, es.Factorize(mat.NewSymDense(n, data), false))
			want := es.Values(nil) // ascending
			for k := 0; k < n; k++ {
				assert.InDelta(t, want[n-1-k], d.Values[k], 1e-6*math.Max(1, math.Abs(want[n-1-k])))
			}
		}
	}
}

func TestDecompose_TracePreservedAtDefaultCap(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for trial := 0; trial < 20; trial++ {
		m := randomSPD(rng, 8)
		d, err := Decompose(m)
		require.NoError(t, err)
		assert.LessOrEqual(t, d.Iterations, DefaultMaxIterations)

		sum := 0.0
		for _, v := range d.Values {
			sum += v
		}
		assert.InDelta(t, m.Trace(), sum, 1e-6)
	}
}

func TestDecomposition_Components(t *testing.T) {
	d := &Decomposition{
		Values:  []float64{2, 1},
		Vectors: [][]float64{{0.6, 0.8}, {-0.8, 0.6}},
	}
	// columns are components, rows are assets
	c := d.Components()
	assert.Equal(t, Matrix{{0.6, -0.8}, {0.8, 0.6}}, c)

	d.Vectors = [][]float64{{1, 0}, {0, 1}}
	assert.Equal(t, Identity(2), d.Components())
}
