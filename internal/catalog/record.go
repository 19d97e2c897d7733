// Package catalog loads earthquake records from files, databases and the
// Kafka feed, and enriches them before a domain.Catalog is built.
package catalog

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/couchcryptid/quake-map-explorer/internal/domain"
)

var errNoCoordinates = errors.New("missing or non-finite coordinates")

// LoadReport summarises one load.
type LoadReport struct {
	Rows        int `json:"rows"`
	Loaded      int `json:"loaded"`
	Dropped     int `json:"dropped"`      // no usable coordinates
	MissingTime int `json:"missing_time"` // loaded, but without a year
}

func (r *LoadReport) add(e domain.Event, err error) bool {
	r.Rows++
	if err != nil {
		r.Dropped++
		return false
	}
	r.Loaded++
	if e.TimeKey.Year == nil {
		r.MissingTime++
	}
	return true
}

// fields maps lower-cased column names to raw cell values.
type fields map[string]string

func (f fields) raw(names ...string) string {
	for _, n := range names {
		if v := strings.TrimSpace(f[n]); v != "" {
			return v
		}
	}
	return ""
}

// float returns the first column among names holding a finite number.
func (f fields) float(names ...string) *float64 {
	for _, n := range names {
		v, err := strconv.ParseFloat(strings.TrimSpace(f[n]), 64)
		if err == nil && !math.IsNaN(v) && !math.IsInf(v, 0) {
			return &v
		}
	}
	return nil
}

func (f fields) int(name string) *int {
	v := f.float(name)
	if v == nil || *v != math.Trunc(*v) {
		return nil
	}
	return domain.Int(int(*v))
}

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"02-01-2006 15:04",
	"2006-01-02",
}

func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.UTC()
			return &t
		}
	}
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		t := time.UnixMilli(ms).UTC()
		return &t
	}
	return nil
}

// parseEvent maps one record of the earthquake dataset onto an Event.
// Non-numeric cells become nil; year and month fall back to the timestamp
// when their own columns are empty.
func parseEvent(f fields) (domain.Event, error) {
	lat := f.float("latitude", "lat")
	lon := f.float("longitude", "lon")
	if lat == nil || lon == nil {
		return domain.Event{}, errNoCoordinates
	}

	e := domain.Event{
		Time:    parseTime(f.raw("time", "date_time")),
		TimeKey: domain.TimeKey{Year: f.int("year"), Month: f.int("month")},
		Geo:     domain.Geo{Lat: *lat, Lon: *lon},
		Depth:   f.float("depth"),
		Metrics: domain.Metrics{
			Magnitude:    f.float("magnitude", "mag"),
			Felt:         f.float("cdi"),
			Structural:   f.float("mmi"),
			Significance: f.float("sig"),
		},
		Place:           f.raw("place", "location"),
		StationDistance: f.float("dmin"),
	}
	if ts := f.float("tsunami"); ts != nil && *ts == 1 {
		e.Tsunami = true
	}
	if e.Time != nil {
		if e.TimeKey.Year == nil {
			e.TimeKey.Year = domain.Int(e.Time.Year())
		}
		if e.TimeKey.Month == nil {
			e.TimeKey.Month = domain.Int(int(e.Time.Month()))
		}
	}
	return e, nil
}
