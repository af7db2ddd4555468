package storage

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// AnalysisRecord is one row of analysis history.
type AnalysisRecord struct {
	ID                string    `json:"id"`
	CreatedAt         time.Time `json:"created_at"`
	Source            string    `json:"source"`
	Start             string    `json:"start_date"`
	End               string    `json:"end_date"`
	Symbols           []string  `json:"symbols"`
	MainTrend         string    `json:"main_trend_stock"`
	MaxLoading        string    `json:"max_loading_stock"`
	VarianceExplained float64   `json:"variance_explained"`
	TotalVariance     float64   `json:"total_variance"`
	Converged         bool      `json:"converged"`
	Iterations        int       `json:"iterations"`
}

// UsageStats counts analyses from one source.
type UsageStats struct {
	Count   int
	Symbols map[string]int
}

func (s *Store) SaveAnalysis(ctx context.Context, r AnalysisRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO analyses(
		id,created_at,source,start_date,end_date,symbols,main_trend,max_loading,
		variance_explained,total_variance,converged,iterations
	) VALUES(?,?,?,?,?,?,?,?,?,?,?,?)`,
		r.ID, r.CreatedAt.Unix(), r.Source, r.Start, r.End, strings.Join(r.Symbols, ","),
		r.MainTrend, r.MaxLoading, r.VarianceExplained, r.TotalVariance, r.Converged, r.Iterations)
	if err != nil {
		return fmt.Errorf("save analysis %s: %w", r.ID, err)
	}
	return nil
}

// RecentAnalyses returns up to limit records, newest first.
func (s *Store) RecentAnalyses(ctx context.Context, limit int) ([]AnalysisRecord, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id,created_at,source,start_date,end_date,symbols,main_trend,max_loading,
		variance_explained,total_variance,converged,iterations
		FROM analyses ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []AnalysisRecord{}
	for rows.Next() {
		var r AnalysisRecord
		var ts int64
		var symbols string
		if err := rows.Scan(&r.ID, &ts, &r.Source, &r.Start, &r.End, &symbols, &r.MainTrend, &r.MaxLoading,
			&r.VarianceExplained, &r.TotalVariance, &r.Converged, &r.Iterations); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(ts, 0).UTC()
		if symbols != "" {
			r.Symbols = strings.Split(symbols, ",")
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// UsageBySource groups analyses created since the given time by source and
// counts how often each symbol was analysed.
func (s *Store) UsageBySource(ctx context.Context, since time.Time) (map[string]*UsageStats, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT source, symbols FROM analyses WHERE created_at>=?`, since.Unix())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]*UsageStats{}
	for rows.Next() {
		var source, symbols string
		if err := rows.Scan(&source, &symbols); err != nil {
			return nil, err
		}
		st, ok := out[source]
		if !ok {
			st = &UsageStats{Symbols: map[string]int{}}
			out[source] = st
		}
		st.Count++
		for _, sym := range strings.Split(symbols, ",") {
			if sym != "" {
				st.Symbols[sym]++
			}
		}
	}
	return out, rows.Err()
}
