// Command validate performs data integrity checks on an earthquake catalog
// file before it is served or published. It verifies row accounting against
// the raw file, ID uniqueness, the time-bucket partition at both
// granularities, coverage by the default filter, and radius scale bounds.
//
// Usage:
//
//	go run ./cmd/validate -source csv -path data/earthquake_data_tsunami.csv
package main

import (
	"context"
	"encoding/csv"
	"flag"
	"fmt"
	"math"
	"os"
	"strings"

	"github.com/couchcryptid/quake-map-explorer/internal/catalog"
	"github.com/couchcryptid/quake-map-explorer/internal/domain"
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
	source := flag.String("source", "csv", "catalog file format: csv or sqlite")
	path := flag.String("path", "", "path to the catalog file")
	flag.Parse()

	if *path == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*source, *path); code != 0 {
		os.Exit(code)
	}
}

func run(source, path string) int {
	fmt.Println("=== Earthquake Catalog Validation ===")
	fmt.Println()

	var (
		events []domain.Event
		report catalog.LoadReport
		err    error
	)
	switch source {
	case "csv":
		events, report, err = catalog.LoadCSVFile(path)
	case "sqlite":
		events, report, err = catalog.LoadSQLite(context.Background(), path)
	default:
		err = fmt.Errorf("unknown source %q", source)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load catalog: %v\n", err)
		return 1
	}

	cat := domain.NewCatalog(events)

	phases := []*phase{
		validateLoadAccounting(source, path, report),
		validateIdentity(events, cat),
		validateBuckets(cat, domain.GranularityYear),
		validateBuckets(cat, domain.GranularityMonth),
		validateDefaultView(cat),
		validateScales(cat),
	}

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
	fmt.Printf("Records: %d rows, %d loaded, %d dropped, %d without time\n",
		report.Rows, report.Loaded, report.Dropped, report.MissingTime)

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

// ── Phases ──

func validateLoadAccounting(source, path string, r catalog.LoadReport) *phase {
	p := &phase{name: "Load accounting"}
	if r.Loaded == 0 {
		p.errorf("no events loaded")
	}
	if r.Loaded+r.Dropped != r.Rows {
		p.errorf("loaded %d + dropped %d != rows %d", r.Loaded, r.Dropped, r.Rows)
	}
	if r.MissingTime > r.Loaded {
		p.errorf("missing time %d exceeds loaded %d", r.MissingTime, r.Loaded)
	}
	if source == "csv" {
		rows, err := countCSVRows(path)
		if err != nil {
			p.errorf("raw CSV: %v", err)
		} else if rows != r.Rows {
			p.errorf("raw CSV has %d data rows, loader saw %d", rows, r.Rows)
		}
	}
	return p
}

func validateIdentity(events []domain.Event, cat domain.Catalog) *phase {
	p := &phase{name: "Event identity"}
	if cat.Len() != len(events) {
		p.errorf("catalog kept %d of %d loaded events", cat.Len(), len(events))
	}
	for i, e := range cat.Events() {
		if !strings.HasPrefix(e.ID, "eq-") {
			p.errorf("event %d: malformed ID %q", i, e.ID)
		}
		got, ok := cat.Lookup(e.ID)
		if !ok || got.Geo != e.Geo {
			p.errorf("event %d: ID %s does not resolve to itself", i, e.ID)
		}
	}
	return p
}

func validateBuckets(cat domain.Catalog, g domain.Granularity) *phase {
	p := &phase{name: fmt.Sprintf("Bucket partition (%s)", g)}
	buckets := domain.BucketByTime(cat.Events(), g)

	bucketed := 0
	for i, b := range buckets {
		if i > 0 && buckets[i-1].Key >= b.Key {
			p.errorf("bucket %s out of order after %s", b.Key, buckets[i-1].Key)
		}
		if len(b.Members) == 0 {
			p.errorf("bucket %s is empty", b.Key)
		}
		for _, e := range b.Members {
			if key, ok := domain.BucketKey(e, g); !ok || key != b.Key {
				p.errorf("event %s in bucket %s has key %q", e.ID, b.Key, key)
			}
		}
		bucketed += len(b.Members)
	}

	unbucketed := 0
	for _, e := range cat.Events() {
		if _, ok := domain.BucketKey(e, g); !ok {
			unbucketed++
		}
	}
	if bucketed+unbucketed != cat.Len() {
		p.errorf("bucketed %d + unbucketed %d != catalog %d", bucketed, unbucketed, cat.Len())
	}
	return p
}

// validateDefaultView flags events the initial, unfiltered view would hide.
func validateDefaultView(cat domain.Catalog) *phase {
	p := &phase{name: "Default filter coverage"}
	f := domain.DefaultFilterState()
	for _, e := range cat.Events() {
		if !f.Match(e) {
			p.errorf("event %s (depth %s, mag %s) hidden by default filter",
				e.ID, ptrFloat(e.Depth), ptrFloat(e.Metrics.Magnitude))
		}
	}
	return p
}

func validateScales(cat domain.Catalog) *phase {
	p := &phase{name: "Radius scales"}
	scales := domain.NewScaleSet(cat.Events())
	for _, e := range cat.Events() {
		for _, m := range domain.AllMetrics {
			r := scales.Radius(e, m)
			if math.IsNaN(r) || r < domain.MinRadius || r > domain.MaxRadius {
				p.errorf("event %s: %s radius %.3f outside [%g, %g]", e.ID, m, r, domain.MinRadius, domain.MaxRadius)
			}
		}
	}
	return p
}

// ── Helpers ──

// countCSVRows counts non-header records without interpreting them.
func countCSVRows(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	all, err := r.ReadAll()
	if err != nil {
		return 0, err
	}
	if len(all) == 0 {
		return 0, nil
	}
	return len(all) - 1, nil
}

func ptrFloat(v *float64) string {
	if v == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%g", *v)
}
