// Package postgres loads labeled store tables into PostgreSQL.
package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

const tableName = "store_locations"

// Pool is the subset of *pgxpool.Pool used by the sink.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
	Close()
}

// Columns written by COPY, in order.
var Columns = []string{
	"run_id", "scraped_at", "store_id", "chain", "name", "address", "phone", "hours",
	"latitude", "longitude", "geom_ewkb", "store_type", "city", "extras",
}

const migration = `
CREATE TABLE IF NOT EXISTS store_locations (
	run_id     TEXT NOT NULL,
	scraped_at TIMESTAMPTZ NOT NULL,
	store_id   TEXT NOT NULL,
	chain      TEXT NOT NULL,
	name       TEXT NOT NULL,
	address    TEXT,
	phone      TEXT,
	hours      TEXT,
	latitude   DOUBLE PRECISION,
	longitude  DOUBLE PRECISION,
	geom_ewkb  BYTEA,
	store_type TEXT,
	city       TEXT NOT NULL,
	extras     JSONB,
	PRIMARY KEY (run_id, store_id)
);
CREATE INDEX IF NOT EXISTS idx_store_locations_chain_city ON store_locations (chain, city);
`

// Sink appends one snapshot of the store table per run.
// It implements pipeline.Loader.
type Sink struct {
	pool   Pool
	logger *slog.Logger
}

// Connect opens a pgx pool for dsn and ensures the schema exists.
func Connect(ctx context.Context, dsn string, logger *slog.Logger) (*Sink, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}
	s := New(pool, logger)
	if err := s.Migrate(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an existing pool.
func New(pool Pool, logger *slog.Logger) *Sink {
	return &Sink{pool: pool, logger: logger}
}

func (s *Sink) Name() string { return "postgres" }

// Migrate creates the store_locations table if it does not exist.
func (s *Sink) Migrate(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, migration); err != nil {
		return fmt.Errorf("postgres: migrate: %w", err)
	}
	return nil
}

// Load copies every record of the table, stamped with the run.
func (s *Sink) Load(ctx context.Context, run domain.Run, t table.Table) error {
	if len(t.Records) == 0 {
		return nil
	}
	rows := make([][]any, 0, len(t.Records))
	for _, r := range t.Records {
		row, err := toRow(run, r)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	n, err := s.pool.CopyFrom(ctx, pgx.Identifier{tableName}, Columns, pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("postgres: COPY INTO %s: %w", tableName, err)
	}
	s.logger.Info("copied store records", "count", n, "run_id", run.ID)
	return nil
}

func (s *Sink) Close() error {
	s.pool.Close()
	return nil
}

func toRow(run domain.Run, r domain.StoreRecord) ([]any, error) {
	var lat, lng *float64
	var point []byte
	if r.HasCoordinate() {
		la, lo := r.Coordinate.Latitude, r.Coordinate.Longitude
		lat, lng = &la, &lo
		var err error
		point, err = EncodePoint(*r.Coordinate)
		if err != nil {
			return nil, err
		}
	}
	extras := r.ExtraValues()
	return []any{
		run.ID, run.StartedAt, r.ID(), r.Chain, r.Name, r.Address, r.Phone, r.Hours,
		lat, lng, point, nullable(r.StoreType), r.City, extras,
	}, nil
}

// EncodePoint renders a coordinate as little-endian EWKB with SRID 4326.
func EncodePoint(c domain.Coordinate) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{c.Longitude, c.Latitude}).SetSRID(4326)
	data, err := ewkb.Marshal(p, ewkb.NDR)
	if err != nil {
		return nil, fmt.Errorf("postgres: encode point: %w", err)
	}
	return data, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
