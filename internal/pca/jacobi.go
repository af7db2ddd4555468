package pca

import (
	"fmt"
	"math"
	"sort"
)

const (
	// DefaultMaxIterations caps the number of Jacobi rotations.
	DefaultMaxIterations = 50
	// DefaultTolerance is the absolute off-diagonal magnitude treated as zero.
	DefaultTolerance = 1e-10
)

// Options tunes the Jacobi solver. Zero fields use the defaults.
type Options struct {
	MaxIterations int
	Tolerance     float64
}

func (o Options) withDefaults() Options {
	if o.MaxIterations <= 0 {
		o.MaxIterations = DefaultMaxIterations
	}
	if o.Tolerance <= 0 {
		o.Tolerance = DefaultTolerance
	}
	return o
}

// Decompose runs the classic Jacobi eigenvalue method on a symmetric matrix
// with the default iteration cap and tolerance.
//
// The input must be symmetric. This is not checked and the result is
// undefined otherwise. The input is not modified.
func Decompose(m Matrix) (*Decomposition, error) {
	return DecomposeWithOptions(m, Options{})
}

// DecomposeWithOptions is Decompose with an explicit iteration cap and tolerance.
// Hitting the cap is not an error: the partially diagonalised result is
// returned with Converged set to false.
func DecomposeWithOptions(m Matrix, opts Options) (*Decomposition, error) {
	if !m.IsSquare() {
		return nil, ErrInvalidMatrix
	}
	opts = opts.withDefaults()
	n := len(m)

	a := m.Clone()
	v := Identity(n)

	iter := 0
	converged := false
	offDiag := 0.0
	for {
		p, q, maxOff := largestOffDiagonal(a)
		offDiag = maxOff
		// rotations cannot clear a NaN
		if math.IsNaN(maxOff) {
			break
		}
		if maxOff < opts.Tolerance {
			converged = true
			break
		}
		if iter >= opts.MaxIterations {
			break
		}
		rotate(a, v, p, q)
		iter++
	}

	values := make([]float64, n)
	for i := 0; i < n; i++ {
		values[i] = a[i][i]
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		return values[order[i]] > values[order[j]]
	})

	d := &Decomposition{
		Values:      make([]float64, n),
		Vectors:     make([][]float64, n),
		Iterations:  iter,
		Converged:   converged,
		OffDiagonal: offDiag,
	}
	for k, col := range order {
		d.Values[k] = values[col]
		vec := make([]float64, n)
		for r := 0; r < n; r++ {
			vec[r] = v[r][col]
		}
		d.Vectors[k] = vec
	}
	return d, nil
}

// largestOffDiagonal scans the strict upper triangle in row-major order and
// returns the first entry with the largest magnitude. For a 1×1 matrix it
// returns (0, 0, 0). A NaN entry is returned as NaN at its position.
func largestOffDiagonal(a Matrix) (p, q int, maxOff float64) {
	n := len(a)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := math.Abs(a[i][j])
			if math.IsNaN(v) {
				return i, j, v
			}
			if v > maxOff {
				maxOff = v
				p, q = i, j
			}
		}
	}
	return p, q, maxOff
}

// rotate applies one Jacobi rotation in the (p,q) plane to a, zeroing a[p][q],
// and accumulates the same rotation into the columns p and q of v.
func rotate(a, v Matrix, p, q int) {
	n := len(a)
	theta := 0.5 * math.Atan2(2*a[p][q], a[q][q]-a[p][p])
	c, s := math.Cos(theta), math.Sin(theta)

	for r := 0; r < n; r++ {
		if r == p || r == q {
			continue
		}
		arp, arq := a[r][p], a[r][q]
		a[r][p] = c*arp - s*arq
		a[p][r] = a[r][p]
		a[r][q] = s*arp + c*arq
		a[q][r] = a[r][q]
	}

	app, aqq, apq := a[p][p], a[q][q], a[p][q]
	a[p][p] = c*c*app - 2*s*c*apq + s*s*aqq
	a[q][q] = s*s*app + 2*s*c*apq + c*c*aqq
	a[p][q] = 0
	a[q][p] = 0

	for r := 0; r < n; r++ {
		vrp, vrq := v[r][p], v[r][q]
		v[r][p] = c*vrp - s*vrq
		v[r][q] = s*vrp + c*vrq
	}
}

// String is handy when a decomposition ends up in a log line.
func (d *Decomposition) String() string {
	return fmt.Sprintf("eigen{n=%d iterations=%d converged=%t off=%.3g}", len(d.Values), d.Iterations, d.Converged, d.OffDiagonal)
}
