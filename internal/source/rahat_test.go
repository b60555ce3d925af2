package source

import (
	"context"
	"testing"

	"github.com/couchcryptid/store-locator-etl/internal/domain"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRahat_MarkerTriples(t *testing.T) {
	r := NewRahat(Env{Logger: discardLogger()})

	got, err := r.Extract(context.Background(), readFixture(t, "rahat.html"))
	require.NoError(t, err)

	want := []domain.RawListing{
		{
			Name:       "Rahat Market 28",
			Address:    "Xətai r., Ə.Əliyev küç. 12",
			CoordToken: "40.4211,49.9412",
			CoordKind:  domain.CoordPair,
		},
		{
			Name:       "Rahat Sumqayıt",
			Address:    "Sumqayıt, 5-ci mkr.",
			CoordToken: "40.5890,49.6600",
			CoordKind:  domain.CoordPair,
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}
}

func TestRahat_LabelFallback(t *testing.T) {
	r := NewRahat(Env{Logger: discardLogger()})

	got, err := r.Extract(context.Background(), readFixture(t, "rahat_labels.html"))
	require.NoError(t, err)
	require.Len(t, got, 3)

	for _, l := range got {
		assert.Equal(t, "Rahat Market", l.Name)
		assert.Equal(t, domain.CoordPair, l.CoordKind)
	}
	assert.Equal(t, "Yasamal r., Ş.Mehdiyev 88", got[0].Address)
	assert.Equal(t, "Xırdalan", got[1].Address)
	assert.Equal(t, "Əhmədli, Q.Qarayev 14", got[2].Address)
	assert.Equal(t, "40.3700,49.8350", got[0].CoordToken)
}

func TestRahat_MarkerLinkFallback(t *testing.T) {
	r := NewRahat(Env{Logger: discardLogger()})

	got, err := r.Extract(context.Background(), readFixture(t, "rahat_links.html"))
	require.NoError(t, err)

	want := []domain.RawListing{
		{Name: "Rahat Gənclik", SourceID: "1"},
		{Name: "Rahat Bakıxanov", SourceID: "2"},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("listings mismatch (-want +got):\n%s", diff)
	}
}

func TestSplitRahatLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Rahat Market (Nəsimi r., Füzuli 5)", "Nəsimi r., Füzuli 5"},
		{"Rahat Market()", ""},
		{"Rahat Market  Binəqədi", "Binəqədi"},
		{"Rahat Market", ""},
		{"Bakıxanov qəs.", "Bakıxanov qəs."},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, splitRahatLabel(tt.in))
		})
	}
}

func TestStripBackslashes(t *testing.T) {
	assert.Equal(t, "Rahat 5", stripBackslashes(` Rahat\ 5\ `))
}
