package source

import (
	"context"
	"fmt"

	"github.com/couchcryptid/store-locator-etl/internal/coords"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

const tamURL = "https://www.tamstore.az/api/branch-api"

// tamContainerKeys are tried in order when the response is an object.
var tamContainerKeys = []string{"data", "branches", "stores", "locations", "items"}

// tamFields lists the alternate keys of each logical field.
var tamFields = struct {
	id, name, address, phone, hours, lat, lng, mapField aliases
}{
	id:       aliases{"id", "branch_id"},
	name:     aliases{"name", "title", "branch_name"},
	address:  aliases{"address", "location", "full_address"},
	phone:    aliases{"phone", "phone_number", "tel"},
	hours:    aliases{"hours", "working_hours", "work_time"},
	lat:      aliases{"latitude", "lat"},
	lng:      aliases{"longitude", "lng", "lon"},
	mapField: aliases{"map", "map_url", "address_map", "iframe", "google_map", "location_url"},
}

// TAM reads the JSON branch endpoint of tamstore.az.
type TAM struct {
	base
}

// NewTAM creates the TAM Store adapter.
func NewTAM(env Env) *TAM {
	return &TAM{base: newBase("tam", tamURL, env)}
}

func (t *TAM) Extract(ctx context.Context, doc []byte) ([]domain.RawListing, error) {
	payload, err := decodeJSON(doc)
	if err != nil {
		return nil, fmt.Errorf("tam: decode json: %w", err)
	}

	items := tamItems(payload)
	out := make([]domain.RawListing, 0, len(items))
	for i, item := range items {
		obj, ok := item.(map[string]any)
		if !ok {
			t.skip(i, fmt.Errorf("branch entry is %T, not an object", item))
			continue
		}
		l, err := t.parseBranch(ctx, obj)
		if err != nil {
			t.skip(i, err)
			continue
		}
		out = append(out, l)
	}
	return dedupe(out), nil
}

// tamItems normalizes the response shape to a list of entries.
func tamItems(payload any) []any {
	switch v := payload.(type) {
	case []any:
		return v
	case map[string]any:
		for _, key := range tamContainerKeys {
			if list, ok := v[key].([]any); ok && len(list) > 0 {
				return list
			}
		}
		if len(v) > 0 {
			return []any{v}
		}
	}
	return nil
}

func (t *TAM) parseBranch(ctx context.Context, obj map[string]any) (domain.RawListing, error) {
	l := domain.RawListing{
		SourceID: tamFields.id.lookup(obj),
		Name:     tamFields.name.lookup(obj),
		Address:  tamFields.address.lookup(obj),
		Phone:    tamFields.phone.lookup(obj),
		Hours:    tamFields.hours.lookup(obj),
	}
	// Nameless branches are kept with an empty name.

	if tok := coords.PairToken(tamFields.lat.lookup(obj), tamFields.lng.lookup(obj)); tok != "" {
		if _, ok := coords.Normalize(tok, domain.CoordPair); ok {
			l.CoordToken, l.CoordKind = tok, domain.CoordPair
			return l, nil
		}
	}

	field := tamFields.mapField.lookup(obj)
	if field == "" {
		return l, nil
	}
	tok, kind, err := coords.Probe(ctx, field, t.env.Resolver)
	if err != nil {
		// The listing is kept without coordinates.
		t.env.Logger.Warn("map link resolution failed",
			"source", t.name,
			"name", l.Name,
			"error", err,
		)
		return l, nil
	}
	l.CoordToken, l.CoordKind = tok, kind
	return l, nil
}
