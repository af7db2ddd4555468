// Package analysis runs a PCA for a basket of symbols end to end: it resolves
// the window, loads quotes from the cache or the provider, aligns them, runs
// the engine, renders charts and records history and metrics.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/finance"
	"stockTrendPCA/internal/metrics"
	"stockTrendPCA/internal/pca"
	"stockTrendPCA/internal/storage"
)

// MaxSymbols bounds one request.
const MaxSymbols = 20

// ErrInvalidRequest marks problems with the request itself rather than the data.
var ErrInvalidRequest = errors.New("invalid analysis request")

// Sources recorded in history.
const (
	SourceAPI      = "api"
	SourceTelegram = "telegram"
	SourceCLI      = "cli"
)

// Request describes one analysis. Empty Symbols means the default basket.
// Window, when set, takes precedence over Start and End.
type Request struct {
	Symbols    []string
	Start      string
	End        string
	Window     string
	Source     string
	SkipCharts bool
}

// Report is everything one analysis produced.
type Report struct {
	ID           string
	CreatedAt    time.Time
	Range        finance.Range
	Result       *pca.Result
	Stats        []finance.AssetStats
	TrendChart   []byte
	ReturnsChart []byte
}

// Store is the persistence the service needs. *storage.Store satisfies it.
type Store interface {
	LoadQuotes(ctx context.Context, symbol, start, end string, maxAge time.Duration, now time.Time) ([]string, []float64, bool, error)
	SaveQuotes(ctx context.Context, symbol, start, end string, dates []string, closes []float64, fetchedAt time.Time) error
	SaveAnalysis(ctx context.Context, r storage.AnalysisRecord) error
}

// Options wires a Service. Store may be nil to disable caching and history.
type Options struct {
	Provider     finance.Provider
	Store        Store
	Charts       *finance.ChartRenderer
	Metrics      *metrics.Registry
	Basket       config.Basket
	DefaultStart string
	DefaultEnd   string
	Solver       pca.Options
	QuoteTTL     time.Duration
	Logger       zerolog.Logger
}

type Service struct {
	provider     finance.Provider
	store        Store
	charts       *finance.ChartRenderer
	metrics      *metrics.Registry
	basket       config.Basket
	defaultStart string
	defaultEnd   string
	solver       pca.Options
	quoteTTL     time.Duration
	log          zerolog.Logger
	now          func() time.Time
}

func NewService(o Options) *Service {
	charts := o.Charts
	if charts == nil {
		charts = finance.NewChartRenderer(0)
	}
	m := o.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Service{
		provider:     o.Provider,
		store:        o.Store,
		charts:       charts,
		metrics:      m,
		basket:       o.Basket,
		defaultStart: o.DefaultStart,
		defaultEnd:   o.DefaultEnd,
		solver:       o.Solver,
		quoteTTL:     o.QuoteTTL,
		log:          o.Logger.With().Str("component", "analysis").Logger(),
		now:          time.Now,
	}
}

// Basket returns the default basket.
func (s *Service) Basket() config.Basket { return s.basket }

// Analyze runs one analysis. A decomposition that hit the iteration cap is
// returned normally with Summary.Converged false.
func (s *Service) Analyze(ctx context.Context, req Request) (*Report, error) {
	s.metrics.ActiveAnalyses.Inc()
	defer s.metrics.ActiveAnalyses.Dec()

	rep, err := s.analyze(ctx, req)
	s.metrics.RecordAnalysis(Classify(err))
	return rep, err
}

func (s *Service) analyze(ctx context.Context, req Request) (*Report, error) {
	r, err := s.resolveRange(req)
	if err != nil {
		return nil, err
	}
	symbols, err := s.resolveSymbols(req.Symbols)
	if err != nil {
		return nil, err
	}
	log := s.log.With().Strs("symbols", symbols).Str("range", r.String()).Logger()

	timer := s.metrics.StartStep("fetch")
	fetched := make([]finance.Series, 0, len(symbols))
	for _, sym := range symbols {
		series, err := s.loadSeries(ctx, sym, r)
		if err != nil {
			timer.Stop(metrics.ResultError)
			return nil, err
		}
		fetched = append(fetched, series)
	}
	timer.Stop(metrics.ResultOK)

	aligned, err := finance.Align(fetched)
	if err != nil {
		return nil, err
	}

	timer = s.metrics.StartStep("pca")
	res, err := pca.RunWithOptions(aligned, s.solver)
	if err != nil {
		timer.Stop(metrics.ResultError)
		return nil, err
	}
	timer.Stop(metrics.ResultOK)

	s.metrics.RecordDecomposition(res.Eigen.Iterations, res.Eigen.Converged)
	if !res.Eigen.Converged {
		log.Warn().Stringer("eigen", res.Eigen).Msg("jacobi did not converge")
	}

	rep := &Report{
		ID:        uuid.New().String(),
		CreatedAt: s.now().UTC(),
		Range:     r,
		Result:    res,
		Stats:     finance.ComputeAssetStats(res),
	}

	if !req.SkipCharts {
		timer = s.metrics.StartStep("charts")
		key := r.String() + "|" + strings.Join(res.Symbols, ",")
		rep.TrendChart, err = s.charts.Trend(key, res.Symbols, res.Eigen.Vectors[0], res.Summary.VarianceExplained)
		if err == nil {
			rep.ReturnsChart, err = s.charts.Returns(key, res.Symbols, res.ReturnDates, res.Returns)
		}
		if err != nil {
			timer.Stop(metrics.ResultError)
			return nil, fmt.Errorf("render charts: %w", err)
		}
		timer.Stop(metrics.ResultOK)
	}

	s.record(ctx, rep, req.Source)
	log.Info().
		Str("id", rep.ID).
		Str("main_trend", res.Summary.MainTrendAsset).
		Float64("variance_explained", res.Summary.VarianceExplained).
		Int("days", len(res.Dates)).
		Msg("analysis complete")
	return rep, nil
}

func (s *Service) resolveRange(req Request) (finance.Range, error) {
	if req.Window != "" {
		r, err := finance.ParseWindow(req.Window, s.now())
		if err != nil {
			return finance.Range{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		return r, nil
	}
	start, end := req.Start, req.End
	if start == "" {
		start = s.defaultStart
	}
	if end == "" {
		end = s.defaultEnd
	}
	r, err := finance.NewRange(start, end)
	if err != nil {
		return finance.Range{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return r, nil
}

func (s *Service) resolveSymbols(in []string) ([]string, error) {
	if len(in) == 0 {
		in = s.basket.Symbols()
	}
	if len(in) == 0 {
		return nil, fmt.Errorf("%w: no symbols", ErrInvalidRequest)
	}
	if len(in) > MaxSymbols {
		return nil, fmt.Errorf("%w: %d symbols, at most %d allowed", ErrInvalidRequest, len(in), MaxSymbols)
	}
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, sym := range in {
		sym = strings.ToUpper(strings.TrimSpace(sym))
		if sym == "" {
			return nil, fmt.Errorf("%w: empty symbol", ErrInvalidRequest)
		}
		if seen[sym] {
			return nil, fmt.Errorf("duplicate symbol %s: %w", sym, pca.ErrDataAlignment)
		}
		seen[sym] = true
		out = append(out, sym)
	}
	return out, nil
}

// loadSeries serves a symbol from the quote cache when fresh, otherwise from
// the provider, writing the result back.
func (s *Service) loadSeries(ctx context.Context, symbol string, r finance.Range) (finance.Series, error) {
	if s.store != nil {
		dates, closes, ok, err := s.store.LoadQuotes(ctx, symbol, r.StartDate(), r.EndDate(), s.quoteTTL, s.now())
		if err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("quote cache read failed")
		} else if ok && len(dates) > 0 {
			s.metrics.RecordCacheHit()
			return finance.Series{Symbol: symbol, Dates: dates, Closes: closes}, nil
		}
		s.metrics.RecordCacheMiss()
	}

	series, err := s.provider.FetchDaily(ctx, symbol, r)
	if err != nil {
		return finance.Series{}, err
	}
	if s.store != nil {
		if err := s.store.SaveQuotes(ctx, symbol, r.StartDate(), r.EndDate(), series.Dates, series.Closes, s.now()); err != nil {
			s.log.Warn().Err(err).Str("symbol", symbol).Msg("quote cache write failed")
		}
	}
	return series, nil
}

func (s *Service) record(ctx context.Context, rep *Report, source string) {
	if s.store == nil {
		return
	}
	if source == "" {
		source = SourceAPI
	}
	sum := rep.Result.Summary
	err := s.store.SaveAnalysis(ctx, storage.AnalysisRecord{
		ID:                rep.ID,
		CreatedAt:         rep.CreatedAt,
		Source:            source,
		Start:             rep.Range.StartDate(),
		End:               rep.Range.EndDate(),
		Symbols:           rep.Result.Symbols,
		MainTrend:         sum.MainTrendAsset,
		MaxLoading:        sum.MaxLoadingAsset,
		VarianceExplained: sum.VarianceExplained,
		TotalVariance:     sum.TotalVariance,
		Converged:         sum.Converged,
		Iterations:        sum.Iterations,
	})
	if err != nil {
		s.log.Warn().Err(err).Str("id", rep.ID).Msg("failed to record analysis")
	}
}

// Classify maps an Analyze error to a metrics result label.
func Classify(err error) string {
	switch {
	case err == nil:
		return metrics.ResultOK
	case errors.Is(err, finance.ErrProviderUnavailable):
		return metrics.ResultProviderError
	case errors.Is(err, ErrInvalidRequest),
		errors.Is(err, finance.ErrSymbolNotFound),
		errors.Is(err, finance.ErrNoData),
		errors.Is(err, pca.ErrInsufficientData),
		errors.Is(err, pca.ErrDataAlignment),
		errors.Is(err, pca.ErrDivisionByZero),
		errors.Is(err, pca.ErrInvalidPrice),
		errors.Is(err, pca.ErrDegenerateDecomposition),
		errors.Is(err, pca.ErrInvalidMatrix):
		return metrics.ResultInvalid
	default:
		return metrics.ResultError
	}
}
