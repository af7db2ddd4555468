package server

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/config"
	"stockTrendPCA/internal/finance"
	"stockTrendPCA/internal/metrics"
	"stockTrendPCA/internal/pca"
	"stockTrendPCA/internal/storage"
)

type stubProvider struct {
	err error
}

func (p stubProvider) FetchDaily(ctx context.Context, symbol string, r finance.Range) (finance.Series, error) {
	if p.err != nil {
		return finance.Series{}, p.err
	}
	dates := []string{"2024-09-02", "2024-09-03", "2024-09-04", "2024-09-05", "2024-09-06", "2024-09-09", "2024-09-10"}
	switch symbol {
	case "A":
		return finance.Series{Symbol: "A", Dates: dates, Closes: []float64{100, 102, 101, 105, 104, 106, 107}}, nil
	case "B":
		return finance.Series{Symbol: "B", Dates: dates, Closes: []float64{50, 49, 51, 52, 53, 52, 54}}, nil
	case "Z":
		return finance.Series{Symbol: "Z", Dates: dates, Closes: []float64{1, 0, 1, 1, 1, 1, 1}}, nil
	case "N":
		return finance.Series{Symbol: "N", Dates: dates, Closes: []float64{1, 2, -1, 1, 1, 1, 1}}, nil
	}
	return finance.Series{}, fmt.Errorf("%s: %w", symbol, finance.ErrSymbolNotFound)
}

type stubHistory struct{ recs []storage.AnalysisRecord }

func (h stubHistory) RecentAnalyses(ctx context.Context, limit int) ([]storage.AnalysisRecord, error) {
	if limit < len(h.recs) {
		return h.recs[:limit], nil
	}
	return h.recs, nil
}

func newTestServer(t *testing.T, p finance.Provider, hist History) *Server {
	t.Helper()
	m := metrics.New()
	svc := analysis.NewService(analysis.Options{
		Provider:     p,
		Metrics:      m,
		Basket:       config.Basket{Name: "test", Assets: []config.Asset{{Symbol: "A", Name: "Alpha"}, {Symbol: "B"}}},
		DefaultStart: "2024-09-01",
		DefaultEnd:   "2024-10-01",
		Logger:       zerolog.Nop(),
	})
	return New(Config{Log: zerolog.Nop(), Port: "0", Analyzer: svc, History: hist, Metrics: m})
}

func do(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var out map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	rec, body := do(t, s, "GET", "/api/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", body["status"])
}

func TestStocks(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	rec, body := do(t, s, "GET", "/api/stocks", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []any{"A", "B"}, body["stocks"])
	assert.Equal(t, 2.0, body["count"])
}

func TestAnalyze_Success(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	rec, body := do(t, s, "POST", "/api/analyze", `{"start_date":"2024-09-01","end_date":"2024-10-01"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	assert.Equal(t, true, body["success"])
	assert.Equal(t, "PCA analysis completed successfully", body["message"])
	data := body["data"].(map[string]any)

	prices := data["stock_prices"].(map[string]any)
	require.Contains(t, prices, "A")
	a := prices["A"].(map[string]any)
	assert.Len(t, a, 5, "only the last five rows are returned")
	assert.Equal(t, 107.0, a["2024-09-10"])
	assert.NotContains(t, a, "2024-09-02")

	returns := data["daily_returns"].(map[string]any)
	assert.Len(t, returns["B"].(map[string]any), 5)

	cov := data["covariance_matrix"].([]any)
	require.Len(t, cov, 2)
	assert.Equal(t, cov[0].([]any)[1], cov[1].([]any)[0])

	assert.Len(t, data["eigenvalues"], 2)
	assert.Len(t, data["eigenvectors"], 2)

	summary := data["analysis"].(map[string]any)
	assert.Contains(t, []any{"A", "B"}, summary["main_trend_stock"])
	assert.Equal(t, true, summary["converged"])
	assert.Greater(t, summary["variance_explained"].(float64), 50.0)

	assert.NotEmpty(t, data["trend_chart"])
	assert.NotEmpty(t, data["returns_chart"])
	assert.Len(t, data["asset_stats"], 2)
}

func TestAnalyze_EmptyBodyUsesDefaults(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	rec, body := do(t, s, "POST", "/api/analyze", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	data := body["data"].(map[string]any)
	assert.Equal(t, "2024-09-01", data["start_date"])
	assert.Equal(t, "2024-10-01", data["end_date"])
}

func TestAnalyze_ErrorStatuses(t *testing.T) {
	tests := []struct {
		name   string
		prov   finance.Provider
		body   string
		status int
	}{
		{"bad json", stubProvider{}, `{"start_date":`, http.StatusBadRequest},
		{"bad dates", stubProvider{}, `{"start_date":"2024-10-01","end_date":"2024-09-01"}`, http.StatusBadRequest},
		{"unknown symbol", stubProvider{}, `{"symbols":["A","NOPE"]}`, http.StatusUnprocessableEntity},
		{"zero price", stubProvider{}, `{"symbols":["A","Z"]}`, http.StatusUnprocessableEntity},
		{"negative price", stubProvider{}, `{"symbols":["A","N"]}`, http.StatusUnprocessableEntity},
		{"provider down", stubProvider{err: finance.ErrProviderUnavailable}, `{}`, http.StatusBadGateway},
		{"unexpected", stubProvider{err: fmt.Errorf("boom")}, `{}`, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer(t, tt.prov, nil)
			rec, body := do(t, s, "POST", "/api/analyze", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, false, body["success"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestAnalyses(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	rec, _ := do(t, s, "GET", "/api/analyses", "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	hist := stubHistory{recs: []storage.AnalysisRecord{{ID: "x", Symbols: []string{"A"}}, {ID: "y"}}}
	s = newTestServer(t, stubProvider{}, hist)
	rec, body := do(t, s, "GET", "/api/analyses?limit=1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, "x", data[0].(map[string]any)["id"])

	rec, _ = do(t, s, "GET", "/api/analyses?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMetricsEndpoint(t *testing.T) {
	s := newTestServer(t, stubProvider{}, nil)
	do(t, s, "POST", "/api/analyze", `{}`)

	rec, _ := do(t, s, "GET", "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `stockpca_analyses_total{result="ok"} 1`)
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("x: %w", pca.ErrDegenerateDecomposition)))
	assert.Equal(t, http.StatusBadRequest, statusFor(analysis.ErrInvalidRequest))
	assert.Equal(t, http.StatusUnprocessableEntity, statusFor(fmt.Errorf("x: %w", pca.ErrInvalidPrice)))
}

func TestWriteJSON_UnencodableValue(t *testing.T) {
	rec := httptest.NewRecorder()
	writeJSON(rec, http.StatusOK, envelope{Success: true, Data: map[string]float64{"x": math.NaN()}})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, false, out["success"])
	assert.NotEmpty(t, out["error"])
}
