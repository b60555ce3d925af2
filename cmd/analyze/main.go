// Command analyze computes market statistics from a combined store table and
// writes the markdown insights report.
//
// Usage:
//
//	go run ./cmd/analyze -in data/combined.csv [-out data/business_insights.md] [-json]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/couchcryptid/store-locator-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/store-locator-etl/internal/report"
)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	in := flag.String("in", "", "path to the combined CSV table")
	out := flag.String("out", "", "output path for the report (default: stdout)")
	asJSON := flag.Bool("json", false, "write the statistics as JSON instead of markdown")
	flag.Parse()

	if *in == "" {
		flag.Usage()
		return fmt.Errorf("missing required flag: -in")
	}

	t, err := csvfile.ReadFile(*in)
	if err != nil {
		return err
	}
	rep := report.Analyze(t.Records)

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			return fmt.Errorf("create %s: %w", *out, err)
		}
		defer f.Close()
		w = f
	}

	if *asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(rep)
	}
	if err := report.Write(w, rep); err != nil {
		return err
	}
	if *out != "" {
		log.Printf("wrote report for %d stores to %s", rep.Total, *out)
	}
	return nil
}
