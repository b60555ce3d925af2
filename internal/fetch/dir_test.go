package fetch

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFileName(t *testing.T) {
	tests := []struct {
		url  string
		want string
	}{
		{"https://arazmarket.az/az/stores", "arazmarket.az_az_stores"},
		{"https://www.bravosupermarket.az/branches/", "www.bravosupermarket.az_branches"},
		{"https://www.tamstore.az/api/branch-api", "www.tamstore.az_api_branch-api"},
		{"https://example.az/list?page=2&city=Bakı", "example.az_list_page_2_city_Bak"},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.want, FileName(tt.url))
		})
	}
}

func TestDirFetcher_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	url := "https://oba.az/branches/"

	path, err := WriteSnapshot(dir, url, []byte("<div class=\"js-map-coordinates\"></div>"))
	require.NoError(t, err)
	assert.FileExists(t, path)

	got, err := NewDirFetcher(dir).Fetch(context.Background(), url)
	require.NoError(t, err)
	assert.Equal(t, "<div class=\"js-map-coordinates\"></div>", string(got))
}

func TestDirFetcher_Missing(t *testing.T) {
	_, err := NewDirFetcher(t.TempDir()).Fetch(context.Background(), "https://rahatmarket.az/az/map")
	require.ErrorIs(t, err, ErrNotFound)
}
