// Command validate performs integrity checks on the CSV output of the ETL:
// the combined table and the per-chain tables written next to it. It verifies
// column layout, coordinate ranges, record uniqueness, city labels, and
// row parity between the combined and per-chain files.
//
// Usage:
//
//	go run ./cmd/validate -dir data
package main

import (
	"encoding/csv"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/couchcryptid/store-locator-etl/internal/adapter/csvfile"
	"github.com/couchcryptid/store-locator-etl/internal/domain"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	dir := flag.String("dir", "", "directory containing combined.csv and per-chain CSV files")
	flag.Parse()

	if *dir == "" {
		flag.Usage()
		os.Exit(1)
	}

	os.Exit(run(*dir))
}

func run(dir string) int {
	fmt.Println("=== Store Table Integrity Validation ===")
	fmt.Println()

	header, rows, err := loadCSV(filepath.Join(dir, csvfile.CombinedFile))
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load combined table: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateHeader(header),
		validateCoordinates(header, rows),
		validateUniqueness(header, rows),
		validateCities(header, rows),
		validateChainFiles(dir, header, rows),
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d combined, %d columns\n", len(rows), len(header))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

// ── Data loading ──

func loadCSV(path string) ([]string, [][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return nil, nil, fmt.Errorf("read csv: %w", err)
	}
	if len(all) == 0 {
		return nil, nil, fmt.Errorf("no header row")
	}
	header := all[0]
	if len(header) > 0 {
		header[0] = strings.TrimPrefix(header[0], "\ufeff")
	}
	return header, all[1:], nil
}

func column(header []string, name string) int {
	return slices.Index(header, name)
}

func field(row []string, idx int) string {
	if idx < 0 || idx >= len(row) {
		return ""
	}
	return row[idx]
}

// ── Phases ──

func validateHeader(header []string) *phase {
	p := &phase{name: "Header layout"}
	if len(header) < len(domain.PreferredColumns) {
		p.errorf("header has %d columns, want at least %d", len(header), len(domain.PreferredColumns))
		return p
	}
	for i, want := range domain.PreferredColumns {
		if header[i] != want {
			p.errorf("column %d is %q, want %q", i, header[i], want)
		}
	}
	if header[len(header)-1] != domain.ColCity {
		p.errorf("last column is %q, want %q", header[len(header)-1], domain.ColCity)
	}
	seen := map[string]bool{}
	for _, h := range header {
		if seen[h] {
			p.errorf("duplicate column %q", h)
		}
		seen[h] = true
	}
	return p
}

func validateCoordinates(header []string, rows [][]string) *phase {
	p := &phase{name: "Coordinate ranges"}
	latIdx, lngIdx := column(header, domain.ColLatitude), column(header, domain.ColLongitude)
	for i, row := range rows {
		line := i + 2
		lat, lng := field(row, latIdx), field(row, lngIdx)
		if lat == "" && lng == "" {
			continue
		}
		if lat == "" || lng == "" {
			p.errorf("line %d: only one of latitude/longitude is set", line)
			continue
		}
		la, err1 := strconv.ParseFloat(lat, 64)
		lo, err2 := strconv.ParseFloat(lng, 64)
		if err1 != nil || err2 != nil {
			p.errorf("line %d: unparseable coordinate %q,%q", line, lat, lng)
			continue
		}
		if !(domain.Coordinate{Latitude: la, Longitude: lo}).Valid() {
			p.errorf("line %d: coordinate %s,%s out of range", line, lat, lng)
		}
		if la == 0 && lo == 0 {
			p.errorf("line %d: coordinate defaulted to 0,0", line)
		}
	}
	return p
}

func validateUniqueness(header []string, rows [][]string) *phase {
	p := &phase{name: "Record uniqueness"}
	chainIdx, nameIdx, addrIdx := column(header, domain.ColChain), column(header, domain.ColName), column(header, domain.ColAddress)
	seen := map[string]int{}
	for i, row := range rows {
		line := i + 2
		rec := domain.StoreRecord{Chain: field(row, chainIdx), Name: field(row, nameIdx), Address: field(row, addrIdx)}
		if rec.Chain == "" {
			p.errorf("line %d: empty chain", line)
		}
		if first, ok := seen[rec.ID()]; ok {
			p.errorf("line %d: duplicate of line %d (%s %q)", line, first, rec.Chain, rec.Name)
			continue
		}
		seen[rec.ID()] = line
	}
	return p
}

func validateCities(header []string, rows [][]string) *phase {
	p := &phase{name: "City labels"}
	cityIdx := column(header, domain.ColCity)
	if cityIdx < 0 {
		p.errorf("no %s column", domain.ColCity)
		return p
	}
	for i, row := range rows {
		if strings.TrimSpace(field(row, cityIdx)) == "" {
			p.errorf("line %d: empty city label", i+2)
		}
	}
	return p
}

func validateChainFiles(dir string, header []string, rows [][]string) *phase {
	p := &phase{name: "Per-chain file parity"}
	chainIdx := column(header, domain.ColChain)
	counts := map[string]int{}
	for _, row := range rows {
		counts[field(row, chainIdx)]++
	}

	chains := make([]string, 0, len(counts))
	for c := range counts {
		chains = append(chains, c)
	}
	slices.Sort(chains)

	for _, chain := range chains {
		path := filepath.Join(dir, strings.ToLower(chain)+".csv")
		h, r, err := loadCSV(path)
		if err != nil {
			p.errorf("%s: %v", filepath.Base(path), err)
			continue
		}
		if len(r) != counts[chain] {
			p.errorf("%s: %d rows, combined table has %d", filepath.Base(path), len(r), counts[chain])
		}
		if slices.Contains(h, domain.ColChain) || slices.Contains(h, domain.ColCity) {
			p.errorf("%s: per-chain header must not carry chain or city", filepath.Base(path))
		}
	}
	return p
}
