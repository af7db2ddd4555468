// Package metrics exposes Prometheus collectors for analysis runs, the Jacobi
// solver, the quote cache and upstream provider calls.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
)

// Analysis outcomes used as the result label.
const (
	ResultOK            = "ok"
	ResultInvalid       = "invalid"
	ResultProviderError = "provider_error"
	ResultError         = "error"
)

// Registry holds all collectors and the registry they are registered with.
type Registry struct {
	reg *prometheus.Registry

	Analyses         *prometheus.CounterVec
	StepDuration     *prometheus.HistogramVec
	JacobiIterations prometheus.Histogram
	NonConverged     prometheus.Counter
	ProviderRequests *prometheus.CounterVec
	QuoteCache       *prometheus.CounterVec
	ActiveAnalyses   prometheus.Gauge
}

// New creates a registry with every collector registered, plus the Go and
// process collectors.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),

		Analyses: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpca_analyses_total",
				Help: "Total number of PCA analyses by result",
			},
			[]string{"result"},
		),

		StepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "stockpca_step_duration_seconds",
				Help:    "Duration of each analysis step in seconds",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0},
			},
			[]string{"step", "result"},
		),

		JacobiIterations: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "stockpca_jacobi_iterations",
				Help:    "Jacobi rotations performed per decomposition",
				Buckets: []float64{0, 1, 2, 5, 10, 20, 30, 40, 50, 100, 500},
			},
		),

		NonConverged: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "stockpca_jacobi_nonconverged_total",
				Help: "Decompositions that hit the iteration cap before converging",
			},
		),

		ProviderRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpca_provider_requests_total",
				Help: "Upstream market data requests by provider and outcome",
			},
			[]string{"provider", "outcome"},
		),

		QuoteCache: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "stockpca_quote_cache_total",
				Help: "Quote cache lookups by result",
			},
			[]string{"result"},
		),

		ActiveAnalyses: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "stockpca_active_analyses",
				Help: "Number of analyses currently running",
			},
		),
	}

	r.reg.MustRegister(
		r.Analyses,
		r.StepDuration,
		r.JacobiIterations,
		r.NonConverged,
		r.ProviderRequests,
		r.QuoteCache,
		r.ActiveAnalyses,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// StepTimer tracks execution time for one analysis step.
type StepTimer struct {
	metrics *Registry
	step    string
	start   time.Time
}

// StartStep begins timing a step.
func (r *Registry) StartStep(step string) *StepTimer {
	return &StepTimer{metrics: r, step: step, start: time.Now()}
}

// Stop records the step duration under result.
func (st *StepTimer) Stop(result string) {
	d := time.Since(st.start)
	st.metrics.StepDuration.WithLabelValues(st.step, result).Observe(d.Seconds())
	log.Debug().
		Str("step", st.step).
		Str("result", result).
		Dur("duration", d).
		Msg("analysis step completed")
}

// RecordAnalysis counts a finished analysis.
func (r *Registry) RecordAnalysis(result string) {
	r.Analyses.WithLabelValues(result).Inc()
}

// RecordDecomposition records solver effort and flags non-convergence.
func (r *Registry) RecordDecomposition(iterations int, converged bool) {
	r.JacobiIterations.Observe(float64(iterations))
	if !converged {
		r.NonConverged.Inc()
	}
}

// ProviderObserver returns a callback suitable for finance.YahooOptions.OnRequest.
func (r *Registry) ProviderObserver(provider string) func(outcome string) {
	return func(outcome string) {
		r.ProviderRequests.WithLabelValues(provider, outcome).Inc()
	}
}

func (r *Registry) RecordCacheHit()  { r.QuoteCache.WithLabelValues("hit").Inc() }
func (r *Registry) RecordCacheMiss() { r.QuoteCache.WithLabelValues("miss").Inc() }

// Handler serves the registry in the Prometheus text format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{})
}
