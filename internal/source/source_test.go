package source

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func readFixture(t *testing.T, name string) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return data
}

// skipCounter records OnSkip callbacks per source.
type skipCounter map[string]int

func (s skipCounter) env() Env {
	return Env{Logger: discardLogger(), OnSkip: func(source string) { s[source]++ }}
}

func TestDedupe(t *testing.T) {
	listings := []domain.RawListing{
		{Name: "Oba 1", Address: "Nizami küç.", Phone: "first"},
		{Name: "Oba 1", Address: "Nizami küç.", Phone: "second"},
		{Name: "Oba 1", Address: "Füzuli küç."},
		{Name: "Oba 2", Address: "Nizami küç."},
	}

	got := dedupe(listings)

	require.Len(t, got, 3)
	assert.Equal(t, "first", got[0].Phone)
	assert.Equal(t, "Füzuli küç.", got[1].Address)
	assert.Equal(t, "Oba 2", got[2].Name)
}

func TestDedupe_Empty(t *testing.T) {
	assert.Empty(t, dedupe(nil))
}

func TestAliasesLookup(t *testing.T) {
	obj := map[string]any{
		"title":      "TAM 1",
		"name":       "",
		"branch_id":  "x",
		"lat":        nil,
		"longitude":  float64(49.5),
		"open":       true,
		"properties": map[string]any{"a": 1},
	}

	assert.Empty(t, aliases{"name", "title"}.lookup(obj), "first present key wins even when empty")
	assert.Equal(t, "TAM 1", aliases{"branch_name", "title"}.lookup(obj))
	assert.Empty(t, aliases{"lat", "latitude"}.lookup(obj))
	assert.Equal(t, "49.5", aliases{"longitude"}.lookup(obj))
	assert.Equal(t, "true", aliases{"open"}.lookup(obj))
	assert.Empty(t, aliases{"properties"}.lookup(obj))
	assert.Empty(t, aliases{"missing"}.lookup(obj))
}

func TestDecodeJSON_KeepsNumberLiterals(t *testing.T) {
	v, err := decodeJSON([]byte(`{"lat": 40.40930000001}`))
	require.NoError(t, err)
	assert.Equal(t, "40.40930000001", aliases{"lat"}.lookup(v.(map[string]any)))
}

func TestRegistry_Default(t *testing.T) {
	r := Default(Env{Logger: discardLogger()})

	assert.Equal(t, []string{"araz", "bravo", "oba", "rahat", "tam"}, r.Names())
	for _, a := range r.All() {
		assert.NotEmpty(t, a.DefaultURL(), a.Name())
	}
}

func TestRegistry_Select(t *testing.T) {
	r := Default(Env{Logger: discardLogger()})

	picked, err := r.Select([]string{"tam", "oba"})
	require.NoError(t, err)
	require.Len(t, picked, 2)
	assert.Equal(t, "tam", picked[0].Name())
	assert.Equal(t, "oba", picked[1].Name())

	all, err := r.Select(nil)
	require.NoError(t, err)
	assert.Len(t, all, 5)

	_, err = r.Select([]string{"neptun"})
	assert.ErrorContains(t, err, `unknown source "neptun"`)
}

func TestRegistry_RegisterReplaceKeepsOrder(t *testing.T) {
	r := NewRegistry()
	r.Register(NewOBA(Env{}))
	r.Register(NewTAM(Env{}))
	r.Register(NewOBA(Env{Logger: discardLogger()}))

	assert.Equal(t, []string{"oba", "tam"}, r.Names())
}

func TestAdapters_EmptyDocumentIsNotAnError(t *testing.T) {
	r := Default(Env{Logger: discardLogger()})
	for _, name := range []string{"araz", "bravo", "oba", "rahat"} {
		t.Run(name, func(t *testing.T) {
			a, err := r.Get(name)
			require.NoError(t, err)
			listings, err := a.Extract(context.Background(), []byte("<html><body><p>Texniki işlər</p></body></html>"))
			require.NoError(t, err)
			assert.Empty(t, listings)
		})
	}
}
