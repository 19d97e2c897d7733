package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

// LoadCSV reads earthquake rows with a header line. Column names match
// case-insensitively; rows without usable coordinates are dropped and
// counted in the report.
func LoadCSV(r io.Reader) ([]domain.Event, LoadReport, error) {
	var report LoadReport
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, report, nil
	}
	if err != nil {
		return nil, report, fmt.Errorf("read csv header: %w", err)
	}
	cols := make([]string, len(header))
	for i, h := range header {
		cols[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}

	var events []domain.Event
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, report, fmt.Errorf("read csv row %d: %w", report.Rows+2, err)
		}
		f := make(fields, len(cols))
		for i, c := range cols {
			if i < len(rec) {
				f[c] = rec[i]
			}
		}
		e, perr := parseEvent(f)
		if report.add(e, perr) {
			events = append(events, e)
		}
	}
	return events, report, nil
}

// LoadCSVFile opens path and reads it with LoadCSV.
func LoadCSVFile(path string) ([]domain.Event, LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, LoadReport{}, fmt.Errorf("open catalog: %w", err)
	}
	defer f.Close()
	return LoadCSV(f)
}
