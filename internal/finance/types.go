package finance

import (
	"context"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrProviderUnavailable is returned when the upstream cannot be reached or
	// the circuit breaker is open.
	ErrProviderUnavailable = errors.New("market data provider unavailable")
	// ErrSymbolNotFound is returned when the provider does not know the symbol.
	ErrSymbolNotFound = errors.New("symbol not found")
	// ErrNoData is returned when a symbol has no usable closes in the window.
	ErrNoData = errors.New("no price data in window")
)

const DateLayout = "2006-01-02"

// Range is a calendar window of daily bars. End is exclusive.
type Range struct {
	Start time.Time
	End   time.Time
}

// NewRange parses two YYYY-MM-DD dates.
func NewRange(start, end string) (Range, error) {
	s, err := time.Parse(DateLayout, start)
	if err != nil {
		return Range{}, fmt.Errorf("invalid start date %q: %w", start, err)
	}
	e, err := time.Parse(DateLayout, end)
	if err != nil {
		return Range{}, fmt.Errorf("invalid end date %q: %w", end, err)
	}
	if !e.After(s) {
		return Range{}, fmt.Errorf("end date %s must be after start date %s", end, start)
	}
	return Range{Start: s, End: e}, nil
}

func (r Range) StartDate() string { return r.Start.Format(DateLayout) }
func (r Range) EndDate() string   { return r.End.Format(DateLayout) }
func (r Range) String() string    { return r.StartDate() + ".." + r.EndDate() }

// Series is one symbol's daily closes keyed by exchange-local date.
type Series struct {
	Symbol string
	Dates  []string
	Closes []float64
}

// Provider fetches daily closing prices.
type Provider interface {
	FetchDaily(ctx context.Context, symbol string, r Range) (Series, error)
}

// yahooChartResp mirrors Yahoo v8 chart response (trimmed to needed fields)
type yahooChartResp struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol               string `json:"symbol"`
				Currency             string `json:"currency"`
				GmtOffset            int    `json:"gmtoffset"`
				ExchangeTimezoneName string `json:"exchangeTimezoneName"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Chart image cache entry
type chartCacheEntry struct {
	createdAt time.Time
	image     []byte
}
