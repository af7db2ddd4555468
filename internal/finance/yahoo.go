package finance

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

var defaultYahooHosts = []string{"https://query1.finance.yahoo.com", "https://query2.finance.yahoo.com"}

var defaultBackoffs = []time.Duration{200 * time.Millisecond, 500 * time.Millisecond, 1 * time.Second}

// YahooOptions configures a YahooProvider. Zero values use sensible defaults.
type YahooOptions struct {
	HTTPClient *http.Client
	// BaseURLs are tried in order on every attempt.
	BaseURLs   []string
	Backoffs   []time.Duration
	RatePerSec float64
	CleanIQR   bool
	Logger     zerolog.Logger
	// OnRequest is called once per HTTP attempt with the outcome label.
	OnRequest func(outcome string)
}

// YahooProvider fetches daily closes from the Yahoo v8 chart API.
type YahooProvider struct {
	client    *http.Client
	hosts     []string
	backoffs  []time.Duration
	limiter   *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	cleanIQR  bool
	log       zerolog.Logger
	onRequest func(string)
}

// NewYahooProvider builds a provider with its own breaker and limiter.
func NewYahooProvider(opts YahooOptions) *YahooProvider {
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Timeout: 15 * time.Second}
	}
	hosts := opts.BaseURLs
	if len(hosts) == 0 {
		hosts = defaultYahooHosts
	}
	backoffs := opts.Backoffs
	if backoffs == nil {
		backoffs = defaultBackoffs
	}
	rps := opts.RatePerSec
	if rps <= 0 {
		rps = 2
	}
	onRequest := opts.OnRequest
	if onRequest == nil {
		onRequest = func(string) {}
	}
	log := opts.Logger.With().Str("component", "yahoo").Logger()

	p := &YahooProvider{
		client:    client,
		hosts:     hosts,
		backoffs:  backoffs,
		limiter:   rate.NewLimiter(rate.Limit(rps), 1),
		cleanIQR:  opts.CleanIQR,
		log:       log,
		onRequest: onRequest,
	}
	p.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "yahoo",
		MaxRequests: 1,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
		// a bad symbol says nothing about upstream health
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrSymbolNotFound) || errors.Is(err, ErrNoData) ||
				errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return p
}

// FetchDaily returns the daily closes of symbol in r, dated in the exchange's
// own timezone and in ascending order.
func (p *YahooProvider) FetchDaily(ctx context.Context, symbol string, r Range) (Series, error) {
	symbol = strings.ToUpper(strings.TrimSpace(symbol))
	if symbol == "" {
		return Series{}, fmt.Errorf("%w: empty symbol", ErrSymbolNotFound)
	}

	out, err := p.breaker.Execute(func() (interface{}, error) {
		return p.fetchChart(ctx, symbol, r)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			p.onRequest("breaker_open")
			return Series{}, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
		}
		return Series{}, err
	}
	yc := out.(*yahooChartResp)

	s, err := p.toSeries(symbol, yc, r)
	if err != nil {
		return Series{}, err
	}
	p.log.Debug().Str("symbol", symbol).Str("range", r.String()).Int("points", len(s.Dates)).Msg("fetched daily closes")
	return s, nil
}

// toSeries converts a chart payload into exchange-dated closes within [r.Start, r.End).
// Exchanges ahead of UTC can return a bar dated on r.End itself.
func (p *YahooProvider) toSeries(symbol string, yc *yahooChartResp, r Range) (Series, error) {
	if len(yc.Chart.Result) == 0 || len(yc.Chart.Result[0].Indicators.Quote) == 0 {
		return Series{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	res := yc.Chart.Result[0]
	loc := exchangeLocation(res.Meta.ExchangeTimezoneName, res.Meta.GmtOffset)

	ts, cl := filterPositive(res.Timestamp, res.Indicators.Quote[0].Close)
	from, to := r.StartDate(), r.EndDate()
	s := Series{Symbol: symbol}
	for i, t := range ts {
		d := time.Unix(t, 0).In(loc).Format(DateLayout)
		if d < from || d >= to {
			continue
		}
		// the live bar can share a date with the last close; keep the later one
		if n := len(s.Dates); n > 0 && s.Dates[n-1] == d {
			s.Closes[n-1] = cl[i]
			continue
		}
		s.Dates = append(s.Dates, d)
		s.Closes = append(s.Closes, cl[i])
	}
	if p.cleanIQR {
		s.Dates, s.Closes = filterIQR(s.Dates, s.Closes, 1.5, 20)
	}
	if len(s.Dates) == 0 {
		return Series{}, fmt.Errorf("%s: %w", symbol, ErrNoData)
	}
	return s, nil
}
