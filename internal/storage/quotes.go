package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

// SaveQuotes stores closes for symbol and records that the window
// [start, end) was fetched at fetchedAt.
func (s *Store) SaveQuotes(ctx context.Context, symbol, start, end string, dates []string, closes []float64, fetchedAt time.Time) error {
	if len(dates) != len(closes) {
		return fmt.Errorf("save quotes %s: %d dates but %d closes", symbol, len(dates), len(closes))
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR REPLACE INTO quotes(symbol,date,close) VALUES(?,?,?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, d := range dates {
		if _, err := stmt.ExecContext(ctx, symbol, d, closes[i]); err != nil {
			return fmt.Errorf("save quote %s %s: %w", symbol, d, err)
		}
	}
	if _, err := tx.ExecContext(ctx, `INSERT OR REPLACE INTO quote_fetches(symbol,start_date,end_date,fetched_at) VALUES(?,?,?,?)`,
		symbol, start, end, fetchedAt.Unix()); err != nil {
		return err
	}
	return tx.Commit()
}

// LoadQuotes returns cached closes for symbol in [start, end). ok is false
// when the window was never fetched or its entry is stale. A window that
// ended before now's date never goes stale; others expire after maxAge.
func (s *Store) LoadQuotes(ctx context.Context, symbol, start, end string, maxAge time.Duration, now time.Time) (dates []string, closes []float64, ok bool, err error) {
	var fetchedAt int64
	err = s.db.QueryRowContext(ctx, `SELECT fetched_at FROM quote_fetches WHERE symbol=? AND start_date=? AND end_date=?`,
		symbol, start, end).Scan(&fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, false, nil
	}
	if err != nil {
		return nil, nil, false, err
	}

	closed := end <= now.UTC().Format(dateLayout)
	if !closed && now.Sub(time.Unix(fetchedAt, 0)) >= maxAge {
		return nil, nil, false, nil
	}

	rows, err := s.db.QueryContext(ctx, `SELECT date, close FROM quotes WHERE symbol=? AND date>=? AND date<? ORDER BY date ASC`,
		symbol, start, end)
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()
	for rows.Next() {
		var d string
		var c float64
		if err := rows.Scan(&d, &c); err != nil {
			return nil, nil, false, err
		}
		dates = append(dates, d)
		closes = append(closes, c)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, false, err
	}
	return dates, closes, true, nil
}
