package pca

import "errors"

var (
	// ErrInsufficientData is returned when a series has too few prices or returns.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDataAlignment is returned when asset series do not share the same dates.
	ErrDataAlignment = errors.New("price series are not date-aligned")
	// ErrDivisionByZero is returned when a zero price would be used as a divisor.
	ErrDivisionByZero = errors.New("division by zero")
	// ErrInvalidPrice is returned for negative, NaN or infinite prices.
	ErrInvalidPrice = errors.New("price must be positive and finite")
	// ErrDegenerateDecomposition is returned when all eigenvalues sum to zero.
	ErrDegenerateDecomposition = errors.New("degenerate decomposition: total variance is zero")
	// ErrInvalidMatrix is returned for empty or non-square solver input.
	ErrInvalidMatrix = errors.New("matrix must be square and non-empty")
)
