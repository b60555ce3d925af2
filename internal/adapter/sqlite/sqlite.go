// Package sqlite keeps a local SQLite history of labeled store tables.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

const migration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	started_at  DATETIME NOT NULL,
	records     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS store_locations (
	run_id     TEXT NOT NULL REFERENCES runs(id),
	store_id   TEXT NOT NULL,
	chain      TEXT NOT NULL,
	name       TEXT NOT NULL,
	address    TEXT,
	phone      TEXT,
	hours      TEXT,
	latitude   REAL,
	longitude  REAL,
	store_type TEXT,
	city       TEXT NOT NULL,
	extras     TEXT,
	PRIMARY KEY (run_id, store_id)
);

CREATE INDEX IF NOT EXISTS idx_store_locations_city ON store_locations(city);
`

const insertStore = `INSERT OR REPLACE INTO store_locations
	(run_id, store_id, chain, name, address, phone, hours, latitude, longitude, store_type, city, extras)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// Store implements pipeline.Loader on a SQLite file.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// Open opens the database at dsn, configures WAL mode, and applies the schema.
func Open(ctx context.Context, dsn string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// A single connection keeps ":memory:" databases shared across calls.
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("sqlite: exec %s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, migration); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate: %w", err)
	}
	return &Store{db: db, logger: logger}, nil
}

func (s *Store) Name() string { return "sqlite" }

// Load records the run and inserts its rows in one transaction.
func (s *Store) Load(ctx context.Context, run domain.Run, t table.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: begin: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (id, started_at, records) VALUES (?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET started_at = excluded.started_at, records = excluded.records`,
		run.ID, run.StartedAt.UTC().Format(time.RFC3339), len(t.Records),
	); err != nil {
		return fmt.Errorf("sqlite: insert run %s: %w", run.ID, err)
	}

	stmt, err := tx.PrepareContext(ctx, insertStore)
	if err != nil {
		return fmt.Errorf("sqlite: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range t.Records {
		var lat, lng sql.NullFloat64
		if r.HasCoordinate() {
			lat = sql.NullFloat64{Float64: r.Coordinate.Latitude, Valid: true}
			lng = sql.NullFloat64{Float64: r.Coordinate.Longitude, Valid: true}
		}
		var extras sql.NullString
		if values := r.ExtraValues(); len(values) > 0 {
			b, err := json.Marshal(values)
			if err != nil {
				return fmt.Errorf("sqlite: marshal extras: %w", err)
			}
			extras = sql.NullString{String: string(b), Valid: true}
		}
		if _, err := stmt.ExecContext(ctx,
			run.ID, r.ID(), r.Chain, r.Name, r.Address, r.Phone, r.Hours,
			lat, lng, r.StoreType, r.City, extras,
		); err != nil {
			return fmt.Errorf("sqlite: insert %s: %w", r.ID(), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: commit: %w", err)
	}
	s.logger.Info("stored store records", "count", len(t.Records), "run_id", run.ID)
	return nil
}

// CityCount is the number of stores of one chain in one city.
type CityCount struct {
	Chain string
	City  string
	Count int
}

// CityCounts returns per-chain store counts by city for a run, ordered by
// city then chain.
func (s *Store) CityCounts(ctx context.Context, runID string) ([]CityCount, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT chain, city, COUNT(*) FROM store_locations WHERE run_id = ?
		 GROUP BY chain, city ORDER BY city, chain`, runID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: query city counts: %w", err)
	}
	defer rows.Close()

	var out []CityCount
	for rows.Next() {
		var c CityCount
		if err := rows.Scan(&c.Chain, &c.City, &c.Count); err != nil {
			return nil, fmt.Errorf("sqlite: scan city count: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (s *Store) Close() error {
	return s.db.Close()
}
