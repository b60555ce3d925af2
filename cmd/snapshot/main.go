// Command snapshot downloads the current document of every configured source
// into a directory, named so that FETCH_DIR can replay them later.
//
// Usage:
//
//	go run ./cmd/snapshot -out testdata/snapshots [-sources bravo,tam]
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os/signal"
	"strings"
	"syscall"

	"github.com/couchcryptid/store-locator-etl/internal/config"
	"github.com/couchcryptid/store-locator-etl/internal/fetch"
	"github.com/couchcryptid/store-locator-etl/internal/observability"
	"github.com/couchcryptid/store-locator-etl/internal/pipeline"
	"github.com/couchcryptid/store-locator-etl/internal/source"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	outDir := flag.String("out", "", "directory to write snapshot documents to")
	only := flag.String("sources", "", "comma-separated source names (default: all)")
	flag.Parse()

	if *outDir == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -out")
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)

	names := cfg.Sources
	if *only != "" {
		names = strings.Split(strings.ToLower(*only), ",")
	}
	sources, err := pipeline.Sources(source.Default(source.Env{Logger: logger}), names, cfg.Catalog)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	fetcher := fetch.NewHTTPFetcher(fetch.HTTPOptions{
		UserAgent:  cfg.FetchUserAgent,
		Timeout:    cfg.FetchTimeout,
		MaxRetries: cfg.FetchMaxRetries,
		Rate:       cfg.FetchRate,
	}, logger)

	failed := 0
	for _, src := range sources {
		body, err := fetcher.Fetch(ctx, src.URL)
		if err != nil {
			log.Printf("%s: %v", src.Adapter.Name(), err)
			failed++
			continue
		}
		path, err := fetch.WriteSnapshot(*outDir, src.URL, body)
		if err != nil {
			return err
		}
		log.Printf("%s: wrote %d bytes to %s", src.Adapter.Name(), len(body), path)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d sources could not be fetched", failed, len(sources))
	}
	return nil
}
