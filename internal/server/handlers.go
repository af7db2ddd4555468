package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"stockTrendPCA/internal/analysis"
	"stockTrendPCA/internal/finance"
	"stockTrendPCA/internal/pca"
)

type analyzeRequest struct {
	StartDate string   `json:"start_date"`
	EndDate   string   `json:"end_date"`
	Symbols   []string `json:"symbols"`
}

type envelope struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"message": "Stock Analysis API is running",
	})
}

func (s *Server) handleStocks(w http.ResponseWriter, r *http.Request) {
	b := s.analyzer.Basket()
	writeJSON(w, http.StatusOK, map[string]any{
		"name":   b.Name,
		"stocks": b.Symbols(),
		"assets": b.Assets,
		"count":  len(b.Assets),
	})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, envelope{
			Error:   err.Error(),
			Message: "Request body must be JSON with start_date and end_date",
		})
		return
	}

	rep, err := s.analyzer.Analyze(r.Context(), analysis.Request{
		Symbols: req.Symbols,
		Start:   req.StartDate,
		End:     req.EndDate,
		Source:  analysis.SourceAPI,
	})
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			s.log.Error().Err(err).Int("status", status).Msg("analysis failed")
		}
		writeJSON(w, status, envelope{
			Error:   err.Error(),
			Message: "PCA analysis failed",
		})
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success: true,
		Data:    analysis.NewView(rep, true),
		Message: "PCA analysis completed successfully",
	})
}

func (s *Server) handleAnalyses(w http.ResponseWriter, r *http.Request) {
	if s.history == nil {
		writeJSON(w, http.StatusServiceUnavailable, envelope{Error: "history is not enabled"})
		return
	}
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 200 {
			writeJSON(w, http.StatusBadRequest, envelope{Error: "limit must be between 1 and 200"})
			return
		}
		limit = n
	}
	recs, err := s.history.RecentAnalyses(r.Context(), limit)
	if err != nil {
		s.log.Error().Err(err).Msg("failed to list analyses")
		writeJSON(w, http.StatusInternalServerError, envelope{Error: "failed to list analyses"})
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Data: recs})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, finance.ErrProviderUnavailable):
		return http.StatusBadGateway
	case errors.Is(err, finance.ErrSymbolNotFound),
		errors.Is(err, finance.ErrNoData),
		errors.Is(err, pca.ErrInsufficientData),
		errors.Is(err, pca.ErrDataAlignment),
		errors.Is(err, pca.ErrDivisionByZero),
		errors.Is(err, pca.ErrInvalidPrice),
		errors.Is(err, pca.ErrDegenerateDecomposition),
		errors.Is(err, pca.ErrInvalidMatrix):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes before writing the header so an unencodable value
// becomes a 500 instead of an empty 200.
func writeJSON(w http.ResponseWriter, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(envelope{Error: err.Error(), Message: "failed to encode response"})
		status = http.StatusInternalServerError
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}
