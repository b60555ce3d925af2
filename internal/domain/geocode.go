package domain

import (
	"context"
	"log/slog"
	"maps"
)

// GeoSourceColumn is the extra column recording how a record's coordinate
// was obtained.
const GeoSourceColumn = "geo_source"

// Values of the geo_source column.
const (
	GeoSourceOriginal = "original"
	GeoSourceForward  = "forward"
	GeoSourceFailed   = "failed"
)

// GeocodeCountry is the ISO country code passed to forward geocoding.
const GeocodeCountry = "az"

// EnrichWithGeocoding fills in a missing coordinate from the record's address.
// It runs after merging, and apart from city labeling it is the only step
// that changes a merged record: it may set Coordinate and adds the geo_source
// column, leaving every other field as merged. If geocoder is nil the record
// is returned untouched. Geocoding failures are logged and recorded in the
// geo_source column; they never drop the record.
func EnrichWithGeocoding(ctx context.Context, rec StoreRecord, geocoder Geocoder, logger *slog.Logger) StoreRecord {
	if geocoder == nil {
		return rec
	}

	if rec.HasCoordinate() || rec.Address == "" {
		return withGeoSource(rec, GeoSourceOriginal)
	}

	result, err := geocoder.ForwardGeocode(ctx, rec.Address, GeocodeCountry)
	if err != nil {
		logger.Warn("forward geocoding failed",
			"chain", rec.Chain,
			"name", rec.Name,
			"address", rec.Address,
			"error", err,
		)
		return withGeoSource(rec, GeoSourceFailed)
	}

	coord := Coordinate{Latitude: result.Lat, Longitude: result.Lon}
	if (result.Lat != 0 || result.Lon != 0) && coord.Valid() {
		rec.Coordinate = &coord
		return withGeoSource(rec, GeoSourceForward)
	}
	return withGeoSource(rec, GeoSourceOriginal)
}

func withGeoSource(rec StoreRecord, source string) StoreRecord {
	extras := make(map[string]string, len(rec.Extras)+1)
	maps.Copy(extras, rec.Extras)
	extras[GeoSourceColumn] = source
	rec.Extras = extras
	return rec
}
