package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"math"
	"strconv"
	"time"
)

// Geo represents a WGS-84 latitude/longitude coordinate pair.
type Geo struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// TimeKey carries the calendar fields used for bucketing. Either field may be
// absent in the source data.
type TimeKey struct {
	Year  *int `json:"year,omitempty"`
	Month *int `json:"month,omitempty"`
}

// Metrics holds the independent intensity measurements reported for an event.
type Metrics struct {
	Magnitude    *float64 `json:"mag,omitempty"` // primary
	Felt         *float64 `json:"cdi,omitempty"` // community decimal intensity
	Structural   *float64 `json:"mmi,omitempty"` // modified Mercalli intensity
	Significance *float64 `json:"sig,omitempty"` // composite
}

// Event is a single earthquake record. Events are immutable once a Catalog
// has been built from them.
type Event struct {
	ID              string     `json:"id"`
	Time            *time.Time `json:"time,omitempty"`
	TimeKey         TimeKey    `json:"time_key"`
	Geo             Geo        `json:"geo"`
	Depth           *float64   `json:"depth,omitempty"` // km
	Metrics         Metrics    `json:"metrics"`
	Tsunami         bool       `json:"tsunami"`
	Place           string     `json:"place,omitempty"`
	StationDistance *float64   `json:"dmin,omitempty"` // degrees to the nearest station
}

// Value returns the event's reading for m, or nil when unreported.
func (e Event) Value(m Metric) *float64 {
	switch m {
	case MetricPrimary:
		return e.Metrics.Magnitude
	case MetricFelt:
		return e.Metrics.Felt
	case MetricStructural:
		return e.Metrics.Structural
	case MetricComposite:
		return e.Metrics.Significance
	default:
		return nil
	}
}

// Catalog is the normalized event list for one load. It is read-only after
// construction.
type Catalog struct {
	events []Event
	index  map[string]int
}

// NewCatalog drops events without finite coordinates and assigns each
// remaining event a content-derived ID. Identical records get an ordinal
// suffix in catalog order so every ID is unique.
func NewCatalog(events []Event) Catalog {
	c := Catalog{
		events: make([]Event, 0, len(events)),
		index:  make(map[string]int, len(events)),
	}
	seen := make(map[string]int, len(events))
	for _, e := range events {
		if !finite(e.Geo.Lat) || !finite(e.Geo.Lon) {
			continue
		}
		id := generateID(e)
		seen[id]++
		if n := seen[id]; n > 1 {
			id = id + "-" + strconv.Itoa(n)
		}
		e.ID = id
		c.index[id] = len(c.events)
		c.events = append(c.events, e)
	}
	return c
}

// Events returns the catalog's records. Callers must not modify the slice.
func (c Catalog) Events() []Event { return c.events }

// Len returns the number of events in the catalog.
func (c Catalog) Len() int { return len(c.events) }

// Lookup finds an event by ID.
func (c Catalog) Lookup(id string) (Event, bool) {
	i, ok := c.index[id]
	if !ok {
		return Event{}, false
	}
	return c.events[i], true
}

// generateID hashes rounded coordinates plus whatever time fields are present.
// Array position never takes part, so the key survives re-filtering.
func generateID(e Event) string {
	input := fmt.Sprintf("%.4f|%.4f", e.Geo.Lat, e.Geo.Lon)
	if e.Time != nil {
		input += "|" + strconv.FormatInt(e.Time.UTC().UnixMilli(), 10)
	}
	if e.TimeKey.Year != nil {
		input += "|y" + strconv.Itoa(*e.TimeKey.Year)
	}
	if e.TimeKey.Month != nil {
		input += "|m" + strconv.Itoa(*e.TimeKey.Month)
	}
	hash := sha256.Sum256([]byte(input))
	return "eq-" + hex.EncodeToString(hash[:8])
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// Float returns a pointer to v; handy for building records in tests and loaders.
func Float(v float64) *float64 { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }
