package mapbox

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingGeocoder struct {
	calls  int
	result domain.GeocodingResult
	err    error
}

func (m *countingGeocoder) ForwardGeocode(_ context.Context, _, _ string) (domain.GeocodingResult, error) {
	m.calls++
	return m.result, m.err
}

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.GeocodingResult{Lat: 40.4, Lon: 49.8, PlaceName: "Nizami", FormattedAddress: "Nizami küçəsi, Bakı"},
	}
	m := testMetrics()
	cached := NewCachedGeocoder(inner, 10, m)

	r1, err := cached.ForwardGeocode(context.Background(), "Nizami küçəsi 10", "az")
	require.NoError(t, err)
	assert.Equal(t, "Nizami", r1.PlaceName)

	r2, err := cached.ForwardGeocode(context.Background(), "Nizami küçəsi 10", "az")
	require.NoError(t, err)
	assert.Equal(t, r1, r2)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("hit")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.GeocodeCache.WithLabelValues("miss")), 0)
}

func TestCachedGeocoder_CountryIsPartOfKey(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "somewhere"}}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "Mərkəz", "az")
	require.NoError(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "Mərkəz", "ge")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "nowhere", "az")
	require.NoError(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "nowhere", "az")
	require.NoError(t, err)

	assert.Equal(t, 2, inner.calls, "empty results should not be cached")
}

func TestCachedGeocoder_ErrorNotCached(t *testing.T) {
	inner := &countingGeocoder{err: errors.New("boom")}
	cached := NewCachedGeocoder(inner, 10, testMetrics())

	_, err := cached.ForwardGeocode(context.Background(), "Xətai", "az")
	require.Error(t, err)
	_, err = cached.ForwardGeocode(context.Background(), "Xətai", "az")
	require.Error(t, err)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_Eviction(t *testing.T) {
	inner := &countingGeocoder{result: domain.GeocodingResult{FormattedAddress: "x"}}
	cached := NewCachedGeocoder(inner, 2, testMetrics())
	ctx := context.Background()

	for _, addr := range []string{"a", "b", "c"} {
		_, err := cached.ForwardGeocode(ctx, addr, "az")
		require.NoError(t, err)
	}
	// "a" was evicted by "c".
	_, err := cached.ForwardGeocode(ctx, "a", "az")
	require.NoError(t, err)

	assert.Equal(t, 4, inner.calls)
}
