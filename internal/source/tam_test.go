package source

import (
	"context"
	"errors"
	"testing"

	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/couchcryptid/store-locator-etl/internal/table"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubResolver struct {
	target string
	err    error
	calls  []string
}

func (s *stubResolver) Resolve(_ context.Context, rawURL string) (string, error) {
	s.calls = append(s.calls, rawURL)
	return s.target, s.err
}

func TestTAM_Extract(t *testing.T) {
	skips := skipCounter{}
	resolver := &stubResolver{target: "https://www.google.com/maps/place/40%C2%B029'50.4%22N+50%C2%B008'27.6%22E"}
	env := skips.env()
	env.Resolver = resolver
	tam := NewTAM(env)

	got, err := tam.Extract(context.Background(), readFixture(t, "tam.json"))
	require.NoError(t, err)
	require.Len(t, got, 7)
	assert.Equal(t, 1, skips["tam"])
	assert.Equal(t, []string{"https://maps.app.goo.gl/mrdkn"}, resolver.calls)

	byName := make(map[string]domain.RawListing, len(got))
	for _, l := range got {
		byName[l.Name] = l
	}

	ahmedli := byName["TAM Əhmədli"]
	assert.Equal(t, "1", ahmedli.SourceID)
	assert.Equal(t, "Xətai r., Əhmədli m/s", ahmedli.Address)
	assert.Equal(t, "09:00-22:00", ahmedli.Hours)
	assert.Equal(t, "40.3845,49.9531", ahmedli.CoordToken)
	assert.Equal(t, domain.CoordPair, ahmedli.CoordKind)

	masazir := byName["TAM Masazır"]
	assert.Equal(t, "Abşeron r., Masazır qəs.", masazir.Address)
	assert.Equal(t, "+994 12 404 02 02", masazir.Phone)
	assert.Equal(t, "24/7", masazir.Hours)
	assert.Equal(t, "40.4901,49.7612", masazir.CoordToken)

	expectCoord := func(name string, kind domain.CoordKind, lat, lng float64) {
		t.Helper()
		l := byName[name]
		require.Equal(t, kind, l.CoordKind, name)
		c, ok := coords.Normalize(l.CoordToken, l.CoordKind)
		require.True(t, ok, name)
		assert.InDelta(t, lat, c.Latitude, 1e-6, name)
		assert.InDelta(t, lng, c.Longitude, 1e-6, name)
	}
	expectCoord("TAM Lökbatan", domain.CoordQuery, 40.3261, 49.7312)
	expectCoord("TAM Bilgəh", domain.CoordTile, 40.5689, 50.0389)
	expectCoord("TAM Mərdəkan", domain.CoordDMS, 40.497333, 50.141)
	expectCoord("TAM Şüvəlan", domain.CoordDMS, 40.478111, 50.17)

	assert.Equal(t, "+994 12 404 03 03", byName["TAM Lökbatan"].Phone)
	assert.Equal(t, "Qaradağ r., Lökbatan qəs.", byName["TAM Lökbatan"].Address)

	nameless, ok := byName[""]
	require.True(t, ok)
	assert.Equal(t, "7", nameless.SourceID)
	assert.Equal(t, "nameless", nameless.Address)
}

func TestTAM_NamelessBranchKept(t *testing.T) {
	skips := skipCounter{}
	doc := `[{"id": 9, "address": "Binəqədi r., 9-cu mkr", "lat": "40.4312", "lng": "49.8401"}, {"name": "", "address": "Binəqədi r., 9-cu mkr"}]`

	got, err := NewTAM(skips.env()).Extract(context.Background(), []byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 1, "same empty name and address dedupe to one")
	assert.Zero(t, skips["tam"])
	assert.Empty(t, got[0].Name)
	assert.Equal(t, "40.4312,49.8401", got[0].CoordToken)

	rec := table.Merge("TAM", got)[0]
	assert.Empty(t, rec.Name)
	assert.Equal(t, "Binəqədi r., 9-cu mkr", rec.Address)
}

func TestTAM_ResolverFailureKeepsListing(t *testing.T) {
	doc := `[{"name": "TAM Mərdəkan", "address_map": "https://maps.app.goo.gl/mrdkn"}]`
	env := Env{Logger: discardLogger(), Resolver: &stubResolver{err: errors.New("connection refused")}}

	got, err := NewTAM(env).Extract(context.Background(), []byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].CoordToken)
	assert.Equal(t, domain.CoordNone, got[0].CoordKind)
}

func TestTAM_InvalidPairFallsBackToMapField(t *testing.T) {
	doc := `[{"name": "TAM X", "lat": "abc", "lng": "def", "map_url": "https://maps.google.com/?q=40.1,49.2"}]`

	got, err := NewTAM(Env{Logger: discardLogger()}).Extract(context.Background(), []byte(doc))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, domain.CoordQuery, got[0].CoordKind)
}

func TestTAMItems(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    int
	}{
		{"bare list", `[{"name":"a"},{"name":"b"}]`, 2},
		{"branches key", `{"branches":[{"name":"a"}]}`, 1},
		{"first candidate key wins", `{"stores":[{"name":"a"}],"data":[{"name":"b"},{"name":"c"}]}`, 2},
		{"single object", `{"name":"TAM solo","address":"x"}`, 1},
		{"empty object", `{}`, 0},
		{"scalar", `"nope"`, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := decodeJSON([]byte(tt.payload))
			require.NoError(t, err)
			assert.Len(t, tamItems(v), tt.want)
		})
	}
}

func TestTAM_SingleObjectPayload(t *testing.T) {
	got, err := NewTAM(Env{Logger: discardLogger()}).Extract(context.Background(), []byte(`{"title":"TAM solo","location":"Bakı"}`))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "TAM solo", got[0].Name)
	assert.Equal(t, "Bakı", got[0].Address)
}

func TestTAM_InvalidJSON(t *testing.T) {
	_, err := NewTAM(Env{Logger: discardLogger()}).Extract(context.Background(), []byte("<html>502 Bad Gateway</html>"))
	assert.ErrorContains(t, err, "tam: decode json")
}
