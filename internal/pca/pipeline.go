package pca

import "fmt"

// Run computes returns, covariance, the eigen-decomposition and its summary
// for a set of date-aligned price series. The asset set is whatever is passed
// in; nothing is retained between runs.
func Run(series []PriceSeries) (*Result, error) {
	return RunWithOptions(series, Options{})
}

// RunWithOptions is Run with explicit solver options.
func RunWithOptions(series []PriceSeries, opts Options) (*Result, error) {
	if err := validate(series); err != nil {
		return nil, err
	}

	n := len(series)
	symbols := make([]string, n)
	prices := make([][]float64, n)
	returns := make([][]float64, n)
	for i, s := range series {
		symbols[i] = s.Symbol
		prices[i] = append([]float64(nil), s.Prices...)
		r, err := Returns(s.Prices)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.Symbol, err)
		}
		returns[i] = r
	}

	cov, err := Covariance(returns)
	if err != nil {
		return nil, err
	}

	eig, err := DecomposeWithOptions(cov, opts)
	if err != nil {
		return nil, err
	}

	summary, err := Interpret(symbols, eig)
	if err != nil {
		return nil, err
	}

	dates := append([]string(nil), series[0].Dates...)
	return &Result{
		Symbols:     symbols,
		Dates:       dates,
		Prices:      prices,
		ReturnDates: dates[1:],
		Returns:     returns,
		Covariance:  cov,
		Eigen:       eig,
		Summary:     summary,
	}, nil
}

// validate checks the alignment preconditions before any computation.
func validate(series []PriceSeries) error {
	if len(series) == 0 {
		return fmt.Errorf("%w: no assets", ErrInsufficientData)
	}
	ref := series[0].Dates
	for i := 1; i < len(ref); i++ {
		if ref[i] <= ref[i-1] {
			return fmt.Errorf("%w: %s dates not strictly increasing at %s", ErrDataAlignment, series[0].Symbol, ref[i])
		}
	}
	seen := make(map[string]struct{}, len(series))
	for _, s := range series {
		if _, dup := seen[s.Symbol]; dup {
			return fmt.Errorf("%w: duplicate asset %s", ErrDataAlignment, s.Symbol)
		}
		seen[s.Symbol] = struct{}{}
		if len(s.Prices) != len(s.Dates) {
			return fmt.Errorf("%w: %s has %d prices for %d dates", ErrDataAlignment, s.Symbol, len(s.Prices), len(s.Dates))
		}
		if len(s.Dates) != len(ref) {
			return fmt.Errorf("%w: %s has %d dates, %s has %d", ErrDataAlignment, s.Symbol, len(s.Dates), series[0].Symbol, len(ref))
		}
		for i, d := range s.Dates {
			if d != ref[i] {
				return fmt.Errorf("%w: %s has %s where %s has %s", ErrDataAlignment, s.Symbol, d, series[0].Symbol, ref[i])
			}
		}
	}
	return nil
}
