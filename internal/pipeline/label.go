package pipeline

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/store-locator-etl/internal/city"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/observability"
)

// Labeler derives the city of a merged record, forward-geocoding records
// without coordinates first when a geocoder is configured.
type Labeler struct {
	geocoder domain.Geocoder
	logger   *slog.Logger
	metrics  *observability.Metrics
}

// NewLabeler creates a Labeler. Pass a nil geocoder to disable geocoding enrichment.
func NewLabeler(geocoder domain.Geocoder, logger *slog.Logger, metrics *observability.Metrics) *Labeler {
	return &Labeler{
		geocoder: geocoder,
		logger:   logger,
		metrics:  metrics,
	}
}

func (l *Labeler) Label(ctx context.Context, rec domain.StoreRecord) domain.StoreRecord {
	rec = domain.EnrichWithGeocoding(ctx, rec, l.geocoder, l.logger)

	res := city.ClassifyDetailed(rec.Address, rec.Coordinate)
	rec.City = res.City
	l.metrics.Classifications.WithLabelValues(string(res.Method)).Inc()
	return rec
}
