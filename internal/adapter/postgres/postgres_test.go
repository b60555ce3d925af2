package postgres

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
)

var testRun = domain.Run{ID: "run-7", StartedAt: time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testTable() table.Table {
	return table.Build([]domain.StoreRecord{
		{
			Chain:      "OBA",
			Name:       "OBA Yasamal",
			Address:    "Şərifzadə küç. 5",
			Coordinate: &domain.Coordinate{Latitude: 40.3874, Longitude: 49.8123},
			City:       "Bakı",
		},
		{Chain: "TAM", Name: "Tam Şəki", City: "Şəki"},
	}, true)
}

func TestMigrate(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS store_locations").
		WillReturnResult(pgxmock.NewResult("CREATE", 0))

	require.NoError(t, New(mock, discardLogger()).Migrate(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMigrate_Error(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errors.New("permission denied"))

	err = New(mock, discardLogger()).Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "postgres: migrate")
}

func TestLoad_CopiesRows(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"store_locations"}, Columns).WillReturnResult(2)

	require.NoError(t, New(mock, discardLogger()).Load(context.Background(), testRun, testTable()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_EmptyTable(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	require.NoError(t, New(mock, discardLogger()).Load(context.Background(), testRun, table.Table{}))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoad_CopyError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectCopyFrom(pgx.Identifier{"store_locations"}, Columns).WillReturnError(errors.New("copy failed"))

	err = New(mock, discardLogger()).Load(context.Background(), testRun, testTable())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "COPY INTO store_locations")
}

func TestToRow(t *testing.T) {
	rec := testTable().Records[0]

	row, err := toRow(testRun, rec)
	require.NoError(t, err)
	require.Len(t, row, len(Columns))

	assert.Equal(t, "run-7", row[0])
	assert.Equal(t, rec.ID(), row[2])
	lat, ok := row[8].(*float64)
	require.True(t, ok)
	assert.InDelta(t, 40.3874, *lat, 1e-9)
	assert.NotEmpty(t, row[10])
	assert.Nil(t, row[11], "empty store type is NULL")
	assert.Nil(t, row[13], "no extras is NULL")
}

func TestToRow_NoCoordinate(t *testing.T) {
	row, err := toRow(testRun, testTable().Records[1])
	require.NoError(t, err)

	assert.Nil(t, row[8])
	assert.Nil(t, row[9])
	assert.Nil(t, row[10])
}

func TestEncodePoint(t *testing.T) {
	data, err := EncodePoint(domain.Coordinate{Latitude: 40.4093, Longitude: 49.8671})
	require.NoError(t, err)

	g, err := ewkb.Unmarshal(data)
	require.NoError(t, err)
	p, ok := g.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, p.SRID())
	assert.InDelta(t, 49.8671, p.X(), 1e-9)
	assert.InDelta(t, 40.4093, p.Y(), 1e-9)
}
