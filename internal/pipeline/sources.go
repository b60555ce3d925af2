package pipeline

import (
	"fmt"

	"github.com/couchcryptid/store-locator-etl/internal/config"
	"github.com/couchcryptid/store-locator-etl/internal/source"
)

// Sources selects adapters from the registry and resolves their URLs.
// names restricts and orders the selection; catalog entries override URLs or
// disable sources. Unknown names in either are an error.
func Sources(reg *source.Registry, names []string, catalog []config.SourceEntry) ([]Source, error) {
	adapters, err := reg.Select(names)
	if err != nil {
		return nil, err
	}

	overrides := make(map[string]config.SourceEntry, len(catalog))
	for _, e := range catalog {
		if _, err := reg.Get(e.Name); err != nil {
			return nil, fmt.Errorf("pipeline: source catalog: %w", err)
		}
		overrides[e.Name] = e
	}

	out := make([]Source, 0, len(adapters))
	for _, a := range adapters {
		src := Source{Adapter: a, URL: a.DefaultURL()}
		if e, ok := overrides[a.Name()]; ok {
			if !e.IsEnabled() {
				continue
			}
			if e.URL != "" {
				src.URL = e.URL
			}
		}
		out = append(out, src)
	}
	return out, nil
}
