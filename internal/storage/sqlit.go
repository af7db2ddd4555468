// Package storage persists fetched quotes and analysis history in sqlite.
package storage

import (
	"context"
	"database/sql"
	"fmt"

	// Register sqlite3 driver
	_ "github.com/mattn/go-sqlite3"
)

type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
	Close() error
}

type Store struct{ db DB }

// OpenSQLite opens dsn with a single connection, which keeps in-memory
// databases shared and serialises writers.
func OpenSQLite(dsn string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("open sqlite %s: %w", dsn, err)
	}
	return db, nil
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS quotes(
		symbol TEXT NOT NULL,
		date   TEXT NOT NULL,
		close  REAL NOT NULL,
		PRIMARY KEY(symbol, date)
	)`,
	`CREATE TABLE IF NOT EXISTS quote_fetches(
		symbol     TEXT NOT NULL,
		start_date TEXT NOT NULL,
		end_date   TEXT NOT NULL,
		fetched_at INTEGER NOT NULL,
		PRIMARY KEY(symbol, start_date, end_date)
	)`,
	`CREATE TABLE IF NOT EXISTS analyses(
		id                 TEXT PRIMARY KEY,
		created_at         INTEGER NOT NULL,
		source             TEXT NOT NULL,
		start_date         TEXT NOT NULL,
		end_date           TEXT NOT NULL,
		symbols            TEXT NOT NULL,
		main_trend         TEXT NOT NULL,
		max_loading        TEXT NOT NULL,
		variance_explained REAL NOT NULL,
		total_variance     REAL NOT NULL,
		converged          INTEGER NOT NULL,
		iterations         INTEGER NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_analyses_created ON analyses(created_at)`,
}

func InitSchema(ctx context.Context, db DB) error {
	for _, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func NewStore(db DB) *Store { return &Store{db: db} }

func (s *Store) Close() error { return s.db.Close() }
