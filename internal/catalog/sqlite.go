package catalog

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

// Table is the SQLite table LoadSQLite reads.
const Table = "earthquakes"

// LoadSQLite reads every row of the earthquakes table at path. Columns follow
// the CSV dataset; missing columns read as empty.
func LoadSQLite(ctx context.Context, path string) ([]domain.Event, LoadReport, error) {
	var report LoadReport
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, report, fmt.Errorf("open sqlite catalog: %w", err)
	}
	defer db.Close()

	if err := db.PingContext(ctx); err != nil {
		return nil, report, fmt.Errorf("ping sqlite catalog: %w", err)
	}

	rows, err := db.QueryContext(ctx, "SELECT * FROM "+Table)
	if err != nil {
		return nil, report, fmt.Errorf("query %s: %w", Table, err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, report, fmt.Errorf("read columns: %w", err)
	}
	cols := make([]string, len(names))
	for i, n := range names {
		cols[i] = strings.ToLower(n)
	}

	var events []domain.Event
	vals := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range vals {
		dest[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(dest...); err != nil {
			return nil, report, fmt.Errorf("scan row %d: %w", report.Rows+1, err)
		}
		f := make(fields, len(cols))
		for i, c := range cols {
			if vals[i].Valid {
				f[c] = vals[i].String
			}
		}
		e, perr := parseEvent(f)
		if report.add(e, perr) {
			events = append(events, e)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, report, fmt.Errorf("iterate %s: %w", Table, err)
	}
	return events, report, nil
}
